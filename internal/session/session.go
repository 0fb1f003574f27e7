// Package session owns the in-memory mirror of the record store for one
// dashboard session and reconciles user edits against it.
//
// The store stays the durable source of truth. The mirror is a cache: it is
// invalidated wholesale when a transaction is appended and patched in place
// when a paid flag is confirmed by the store. Every write goes to the store
// first; the mirror never reflects speculative state.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"evpanel/internal/core"
	"evpanel/internal/store"
)

// View is what the UI renders: the mirrored record sets, the derived balance
// and any advisories collected while reading from the store.
type View struct {
	FixedCharges []core.FixedCharge
	Transactions []core.Transaction
	Balance      core.BalanceSnapshot
	PeriodStart  core.Date
	Advisories   []string
}

// PaidEdit is one pending paid-flag change, keyed by charge id. Row position
// in the UI never identifies a charge; ids do.
type PaidEdit struct {
	ID   int64
	Paid bool
}

// RowFailure reports a single failed update within a batch commit.
type RowFailure struct {
	ID  int64
	Err error
}

// CommitResult summarizes a batch commit. Row updates are independent: a
// failed row never blocks the others.
type CommitResult struct {
	Applied []int64
	Failed  []RowFailure
}

type Session struct {
	mu sync.Mutex

	chargeLister  store.FixedChargeLister
	chargeUpdater store.FixedChargeUpdater
	txLister      store.TransactionLister
	txAppender    store.TransactionAppender

	charges        []core.FixedCharge
	txs            []core.Transaction
	chargesLoaded  bool
	txsLoaded      bool
	chargeAdvisory string
	txAdvisory     string

	// now is swappable in tests
	now func() core.Date
}

func New(cl store.FixedChargeLister, cu store.FixedChargeUpdater, tl store.TransactionLister, ta store.TransactionAppender) *Session {
	return &Session{
		chargeLister:  cl,
		chargeUpdater: cu,
		txLister:      tl,
		txAppender:    ta,
		now:           core.Today,
	}
}

// Snapshot returns the current view, fetching from the store whatever part of
// the mirror is stale. A store outage on a read degrades that record set to
// empty with an advisory instead of failing the whole view.
func (s *Session) Snapshot(ctx context.Context) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked(ctx)

	view := View{
		FixedCharges: append([]core.FixedCharge(nil), s.charges...),
		Transactions: append([]core.Transaction(nil), s.txs...),
		Balance:      core.ComputeBalance(s.charges, s.txs),
		PeriodStart:  core.MonthStart(s.now()),
	}
	if s.chargeAdvisory != "" {
		view.Advisories = append(view.Advisories, s.chargeAdvisory)
	}
	if s.txAdvisory != "" {
		view.Advisories = append(view.Advisories, s.txAdvisory)
	}
	return view
}

// Refresh drops the whole mirror and fetches both record sets again.
func (s *Session) Refresh(ctx context.Context) View {
	s.mu.Lock()
	s.chargesLoaded = false
	s.txsLoaded = false
	s.mu.Unlock()
	return s.Snapshot(ctx)
}

// SetPaid flips one charge's paid flag, write-through: the store update
// happens first, and only a confirmed update is written into the mirror. On
// failure the mirror keeps the last confirmed value and the error is
// returned for the UI to surface.
func (s *Session) SetPaid(ctx context.Context, id int64, paid bool) (core.BalanceSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked(ctx)

	updated, err := s.chargeUpdater.UpdateFixedChargePaid(ctx, id, paid)
	if err != nil {
		return core.ComputeBalance(s.charges, s.txs), fmt.Errorf("update charge %d: %w", id, err)
	}

	patched := false
	for i := range s.charges {
		if s.charges[i].ID == id {
			s.charges[i] = updated
			patched = true
			break
		}
	}
	if !patched {
		// The store confirmed an id the mirror has never seen; refetch the
		// charge set rather than guessing.
		s.chargesLoaded = false
		s.loadLocked(ctx)
	}

	slog.InfoContext(ctx, "Fixed charge paid flag updated",
		"id", id, "paid", paid, "amount_cents", updated.Amount.Cents)

	return core.ComputeBalance(s.charges, s.txs), nil
}

// CommitPaid applies a batch of paid-flag edits, one independent store update
// per row. Successes land in the mirror; failures are reported per row and
// leave their rows at the last confirmed state.
func (s *Session) CommitPaid(ctx context.Context, edits []PaidEdit) CommitResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked(ctx)

	var result CommitResult
	for _, edit := range edits {
		updated, err := s.chargeUpdater.UpdateFixedChargePaid(ctx, edit.ID, edit.Paid)
		if err != nil {
			slog.WarnContext(ctx, "Batch paid update failed",
				"id", edit.ID, "paid", edit.Paid, "error", err)
			result.Failed = append(result.Failed, RowFailure{ID: edit.ID, Err: err})
			continue
		}
		for i := range s.charges {
			if s.charges[i].ID == edit.ID {
				s.charges[i] = updated
				break
			}
		}
		result.Applied = append(result.Applied, edit.ID)
	}
	return result
}

// Submit validates and appends one transaction. Validation failures are
// returned before any store call. On success the transaction mirror is
// invalidated so the next read re-applies the period window at the store
// instead of optimistically appending.
func (s *Session) Submit(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	created, err := s.txAppender.AppendTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("append transaction: %w", err)
	}

	s.txsLoaded = false

	slog.InfoContext(ctx, "Transaction recorded",
		"id", created.ID,
		"kind", string(created.Kind),
		"amount_cents", created.Amount.Cents,
		"date", created.Date.Format("2006-01-02"))

	return created, nil
}

// loadLocked fills whichever mirror halves are stale. Callers hold s.mu.
func (s *Session) loadLocked(ctx context.Context) {
	if !s.chargesLoaded {
		s.chargeAdvisory = ""
		charges, err := s.chargeLister.ListFixedCharges(ctx)
		if err != nil {
			slog.WarnContext(ctx, "Fixed charge read failed, showing empty set", "error", err)
			s.charges = nil
			s.chargeAdvisory = advisoryFor("fixed charges", err)
		} else {
			s.charges = charges
		}
		s.chargesLoaded = true
	}

	if !s.txsLoaded {
		s.txAdvisory = ""
		txs, err := s.txLister.ListTransactions(ctx, core.MonthStart(s.now()))
		if err != nil {
			slog.WarnContext(ctx, "Transaction read failed, showing empty set", "error", err)
			s.txs = nil
			s.txAdvisory = advisoryFor("transactions", err)
		} else {
			s.txs = txs
		}
		s.txsLoaded = true
	}
}

func advisoryFor(what string, err error) string {
	if errors.Is(err, store.ErrUnavailable) {
		return fmt.Sprintf("%s could not be loaded: record store unavailable", what)
	}
	return fmt.Sprintf("%s could not be loaded: %v", what, err)
}
