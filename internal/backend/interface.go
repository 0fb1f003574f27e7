package backend

import (
	"context"

	"evpanel/internal/store"
)

// Backend bundles every record store port the application needs.
type Backend interface {
	store.FixedChargeLister
	store.FixedChargeUpdater
	store.TransactionLister
	store.TransactionAppender
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instance and optional cleanup function
type BackendResult struct {
	Backend Backend
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// Hosted store (Supabase) specific
	StoreURL string
	StoreKey string

	// SQLite specific
	SQLiteDBPath string
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets specific
	GoogleSpreadsheetID string

	// Memory backend specific
	DataDirectory string
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SupabaseBackend BackendType = "supabase"
	SheetsBackend   BackendType = "sheets"
	SQLiteBackend   BackendType = "sqlite"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SupabaseBackend, SheetsBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}
