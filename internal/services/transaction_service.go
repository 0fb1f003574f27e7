package services

import (
	"context"
	"fmt"
	"log/slog"

	"evpanel/internal/amqp"
	"evpanel/internal/core"
	"evpanel/internal/storage"
	"evpanel/internal/store"
)

// TransactionService saves transactions to the local SQLite database and
// publishes a sync message so the worker can push them to the hosted store.
type TransactionService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewTransactionService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *TransactionService {
	return &TransactionService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// AppendTransaction saves a transaction locally and publishes a sync message.
// The local save is authoritative; publish failures are logged, not returned.
func (s *TransactionService) AppendTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	saved, err := s.storage.AppendTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	if err := s.publishSyncMessage(ctx, saved.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"id", saved.ID, "error", err)
	}

	return saved, nil
}

// ListFixedCharges implements store.FixedChargeLister against the local database
func (s *TransactionService) ListFixedCharges(ctx context.Context) ([]core.FixedCharge, error) {
	return s.storage.ListFixedCharges(ctx)
}

// UpdateFixedChargePaid implements store.FixedChargeUpdater against the local database
func (s *TransactionService) UpdateFixedChargePaid(ctx context.Context, id int64, paid bool) (core.FixedCharge, error) {
	return s.storage.UpdateFixedChargePaid(ctx, id, paid)
}

// ListTransactions implements store.TransactionLister against the local database
func (s *TransactionService) ListTransactions(ctx context.Context, from core.Date) ([]core.Transaction, error) {
	return s.storage.ListTransactions(ctx, from)
}

func (s *TransactionService) publishSyncMessage(ctx context.Context, id int64) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sync message")
		return nil
	}

	return s.amqpClient.PublishTransactionSync(ctx, id)
}

// Close closes both storage and AMQP connections
func (s *TransactionService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close transaction service: %v", errs)
	}

	return nil
}

var (
	_ store.FixedChargeLister   = (*TransactionService)(nil)
	_ store.FixedChargeUpdater  = (*TransactionService)(nil)
	_ store.TransactionLister   = (*TransactionService)(nil)
	_ store.TransactionAppender = (*TransactionService)(nil)
)
