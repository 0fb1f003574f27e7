package store

import (
	"context"
	"errors"

	"evpanel/internal/core"
)

// Record store errors. Backends wrap transport-specific failures into these
// sentinels so callers can branch without knowing the backend.
var (
	// ErrUnavailable covers network and auth failures on any store call.
	ErrUnavailable = errors.New("record store unavailable")

	// ErrNotFound signals an edit against a record id that no longer exists,
	// e.g. a charge deleted out-of-band between fetch and edit.
	ErrNotFound = errors.New("record not found")
)

// Ports for outbound record store adapters.
type (
	FixedChargeLister interface {
		// ListFixedCharges returns all fixed charges ordered by id.
		ListFixedCharges(ctx context.Context) ([]core.FixedCharge, error)
	}

	FixedChargeUpdater interface {
		// UpdateFixedChargePaid patches a single charge's paid flag and
		// returns the updated record. Returns ErrNotFound if the id is gone.
		UpdateFixedChargePaid(ctx context.Context, id int64, paid bool) (core.FixedCharge, error)
	}

	TransactionLister interface {
		// ListTransactions returns transactions with date >= from, ordered
		// by date descending. There is no upper bound on the window.
		ListTransactions(ctx context.Context, from core.Date) ([]core.Transaction, error)
	}

	TransactionAppender interface {
		// AppendTransaction inserts a new transaction and returns it with
		// the store-assigned id filled in.
		AppendTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	}
)
