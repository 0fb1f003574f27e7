package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"evpanel/internal/core"
	"evpanel/internal/storage"
	"evpanel/internal/store"
)

// SyncProcessorConfig holds configuration for the sync processor
type SyncProcessorConfig struct {
	// PollInterval is how often to check for pending items (default: 10s)
	PollInterval time.Duration

	// BatchSize is the max number of items to process per poll cycle (default: 10)
	BatchSize int

	// MaxConcurrent is the max number of in-flight pushes per batch (default: 4)
	MaxConcurrent int
}

// DefaultSyncProcessorConfig returns sensible defaults
func DefaultSyncProcessorConfig() SyncProcessorConfig {
	return SyncProcessorConfig{
		PollInterval:  10 * time.Second,
		BatchSize:     10,
		MaxConcurrent: 4,
	}
}

// PendingQueue is the local-database side of the sync pipeline.
type PendingQueue interface {
	GetPendingSyncTransactions(ctx context.Context, limit int) ([]storage.PendingSyncTransaction, error)
	GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	MarkSynced(ctx context.Context, id int64) error
	MarkSyncError(ctx context.Context, id int64) error
}

// SyncProcessor polls the local database for pending transactions and pushes
// them to the hosted store.
type SyncProcessor struct {
	queue  PendingQueue
	hosted store.TransactionAppender
	config SyncProcessorConfig

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewSyncProcessor creates a new sync processor
func NewSyncProcessor(queue PendingQueue, hosted store.TransactionAppender, config SyncProcessorConfig) *SyncProcessor {
	return &SyncProcessor{
		queue:  queue,
		hosted: hosted,
		config: config,
	}
}

// Start begins the processing loop. Returns an error if already running.
func (p *SyncProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("sync processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Sync processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize)

	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *SyncProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	close(p.stopCh)

	select {
	case <-p.doneCh:
		slog.InfoContext(ctx, "Sync processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Sync processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	return nil
}

// IsRunning returns whether the processor is currently running
func (p *SyncProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *SyncProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	// Process immediately on startup
	p.ProcessBatch(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.ProcessBatch(ctx)
		}
	}
}

// ProcessBatch pushes one batch of pending transactions to the hosted store.
// Rows are pushed concurrently; each row succeeds or fails on its own.
// Returns the number of transactions successfully pushed.
func (p *SyncProcessor) ProcessBatch(ctx context.Context) int {
	items, err := p.queue.GetPendingSyncTransactions(ctx, p.config.BatchSize)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to fetch pending sync transactions", "error", err)
		return 0
	}

	if len(items) == 0 {
		return 0
	}

	slog.DebugContext(ctx, "Processing sync batch", "count", len(items))

	limit := p.config.MaxConcurrent
	if limit <= 0 {
		limit = 1
	}

	var pushed sync.Map
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, item := range items {
		id := item.ID
		g.Go(func() error {
			if err := p.pushTransaction(gctx, id); err != nil {
				slog.WarnContext(gctx, "Failed to push transaction to hosted store",
					"id", id, "error", err)
				if markErr := p.queue.MarkSyncError(gctx, id); markErr != nil {
					slog.ErrorContext(gctx, "Failed to mark transaction sync error",
						"id", id, "error", markErr)
				}
				return nil
			}
			pushed.Store(id, struct{}{})
			return nil
		})
	}
	g.Wait()

	count := 0
	pushed.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

func (p *SyncProcessor) pushTransaction(ctx context.Context, id int64) error {
	t, err := p.queue.GetTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("get transaction %d: %w", id, err)
	}

	if _, err := p.hosted.AppendTransaction(ctx, t); err != nil {
		return fmt.Errorf("append to hosted store: %w", err)
	}

	if err := p.queue.MarkSynced(ctx, id); err != nil {
		// The push itself succeeded, keep the batch result positive.
		slog.WarnContext(ctx, "Failed to mark transaction as synced",
			"id", id, "error", err)
	}

	slog.InfoContext(ctx, "Pushed transaction to hosted store", "id", id)
	return nil
}
