package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"evpanel/internal/core"
	"evpanel/internal/store"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ListFixedCharges implements store.FixedChargeLister
func (r *SQLiteRepository) ListFixedCharges(ctx context.Context) ([]core.FixedCharge, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, description, amount_cents, paid FROM fixed_charges ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list fixed charges: %w", err)
	}
	defer rows.Close()

	var charges []core.FixedCharge
	for rows.Next() {
		var c core.FixedCharge
		var paid int64
		if err := rows.Scan(&c.ID, &c.Description, &c.Amount.Cents, &paid); err != nil {
			return nil, fmt.Errorf("scan fixed charge: %w", err)
		}
		c.Paid = paid != 0
		charges = append(charges, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fixed charges: %w", err)
	}

	return charges, nil
}

// UpdateFixedChargePaid implements store.FixedChargeUpdater
func (r *SQLiteRepository) UpdateFixedChargePaid(ctx context.Context, id int64, paid bool) (core.FixedCharge, error) {
	paidInt := 0
	if paid {
		paidInt = 1
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE fixed_charges SET paid = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		paidInt, id)
	if err != nil {
		return core.FixedCharge{}, fmt.Errorf("update fixed charge: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return core.FixedCharge{}, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return core.FixedCharge{}, fmt.Errorf("fixed charge %d: %w", id, store.ErrNotFound)
	}

	var c core.FixedCharge
	var paidCol int64
	err = r.db.QueryRowContext(ctx,
		`SELECT id, description, amount_cents, paid FROM fixed_charges WHERE id = ?`, id).
		Scan(&c.ID, &c.Description, &c.Amount.Cents, &paidCol)
	if err != nil {
		return core.FixedCharge{}, fmt.Errorf("read updated fixed charge: %w", err)
	}
	c.Paid = paidCol != 0

	slog.InfoContext(ctx, "Fixed charge paid flag updated",
		"id", c.ID,
		"paid", c.Paid)

	return c, nil
}

// ListTransactions implements store.TransactionLister
func (r *SQLiteRepository) ListTransactions(ctx context.Context, from core.Date) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, tx_date, description, amount_cents, kind
		 FROM transactions WHERE tx_date >= ? ORDER BY tx_date DESC, id DESC`,
		from.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	return txs, nil
}

// AppendTransaction implements store.TransactionAppender
func (r *SQLiteRepository) AppendTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (tx_date, description, amount_cents, kind)
		 VALUES (?, ?, ?, ?)`,
		t.Date.Format(dateLayout), t.Description, t.Amount.Cents, string(t.Kind))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("last insert id: %w", err)
	}
	t.ID = id

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"description", t.Description,
		"amount_cents", t.Amount.Cents,
		"kind", string(t.Kind))

	return t, nil
}

// GetTransaction retrieves a single transaction by ID.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, tx_date, description, amount_cents, kind FROM transactions WHERE id = ?`, id)

	t, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

// PendingSyncTransaction represents minimal data needed for sync queue messages
type PendingSyncTransaction struct {
	ID        int64
	CreatedAt time.Time
}

// GetPendingSyncTransactions returns transactions not yet pushed to the hosted store.
func (r *SQLiteRepository) GetPendingSyncTransactions(ctx context.Context, limit int) ([]PendingSyncTransaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, created_at FROM transactions
		 WHERE sync_status = 'pending' ORDER BY id LIMIT ?`, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("get pending sync transactions: %w", err)
	}
	defer rows.Close()

	var pending []PendingSyncTransaction
	for rows.Next() {
		var p PendingSyncTransaction
		if err := rows.Scan(&p.ID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending sync transaction: %w", err)
		}
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending sync transactions: %w", err)
	}

	return pending, nil
}

// MarkSynced marks a transaction as successfully pushed to the hosted store.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_status = 'synced' WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}

	slog.InfoContext(ctx, "Transaction marked as synced", "id", id)
	return nil
}

// MarkSyncError marks a transaction as having sync errors.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_status = 'error' WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark transaction sync error: %w", err)
	}

	slog.WarnContext(ctx, "Transaction marked with sync error", "id", id)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var t core.Transaction
	var dateStr, kind string
	if err := row.Scan(&t.ID, &dateStr, &t.Description, &t.Amount.Cents, &kind); err != nil {
		if err == sql.ErrNoRows {
			return core.Transaction{}, err
		}
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}

	parsed, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction date %q: %w", dateStr, err)
	}
	t.Date = core.NewDate(parsed.Year(), int(parsed.Month()), parsed.Day())
	t.Kind = core.TransactionKind(kind)

	return t, nil
}

var (
	_ store.FixedChargeLister   = (*SQLiteRepository)(nil)
	_ store.FixedChargeUpdater  = (*SQLiteRepository)(nil)
	_ store.TransactionLister   = (*SQLiteRepository)(nil)
	_ store.TransactionAppender = (*SQLiteRepository)(nil)
)
