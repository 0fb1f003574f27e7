package worker

import (
	"context"
	"fmt"
	"log/slog"

	"evpanel/internal/amqp"
	"evpanel/internal/services"
	"evpanel/internal/store"
)

// SyncWorker pushes locally saved transactions to the hosted store. It is
// driven by AMQP sync messages, with a startup sweep that recovers anything
// pending from missed messages or worker downtime.
type SyncWorker struct {
	queue     services.PendingQueue
	hosted    store.TransactionAppender
	batchSize int
}

func NewSyncWorker(queue services.PendingQueue, hosted store.TransactionAppender, batchSize int) *SyncWorker {
	return &SyncWorker{
		queue:     queue,
		hosted:    hosted,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single transaction sync message from AMQP
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message", "id", msg.ID)

	return w.pushTransaction(ctx, msg.ID)
}

// ProcessPending pushes any transactions that haven't been synced yet.
// This is a backup mechanism in case AMQP messages are lost.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.queue.GetPendingSyncTransactions(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending transactions: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending transactions", "count", len(pending))

	for _, p := range pending {
		if err := w.pushTransaction(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to sync transaction", "id", p.ID, "error", err)
		}
	}

	return nil
}

// StartupSyncCheck sweeps pending transactions at worker startup. It uses a
// larger batch than the steady-state loop to drain accumulated backlog.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.queue.GetPendingSyncTransactions(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending transactions for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending transactions found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending transactions on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0

	for _, p := range pending {
		if err := w.pushTransaction(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to sync transaction during startup",
				"id", p.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", successCount,
		"errors", errorCount)

	return nil
}

func (w *SyncWorker) pushTransaction(ctx context.Context, id int64) error {
	t, err := w.queue.GetTransaction(ctx, id)
	if err != nil {
		if markErr := w.queue.MarkSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", markErr)
		}
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	if _, err := w.hosted.AppendTransaction(ctx, t); err != nil {
		if markErr := w.queue.MarkSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", markErr)
		}
		return fmt.Errorf("append to hosted store: %w", err)
	}

	if err := w.queue.MarkSynced(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", id, "error", err)
		// The push itself succeeded, don't requeue the message.
	}

	slog.InfoContext(ctx, "Transaction synced to hosted store",
		"id", id,
		"description", t.Description,
		"amount_cents", t.Amount.Cents)

	return nil
}
