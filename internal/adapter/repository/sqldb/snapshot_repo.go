package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nyasuto/mond/internal/domain"
)

// snapshotRepository implements domain.SnapshotRepository
type snapshotRepository struct {
	db *DB
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(db *DB) domain.SnapshotRepository {
	return &snapshotRepository{db: db}
}

// Upsert creates or replaces the snapshot of (date, ticker)
func (r *snapshotRepository) Upsert(ctx context.Context, snapshot *domain.HoldingSnapshot) error {
	query := `
		INSERT INTO snapshots (date, ticker, qty, price_ccy)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (date, ticker) DO UPDATE SET
			qty = excluded.qty,
			price_ccy = excluded.price_ccy
	`

	_, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		domain.FormatDate(snapshot.Date),
		snapshot.Ticker,
		snapshot.Quantity.String(),
		snapshot.LocalPrice.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert snapshot: %w", err)
	}
	return nil
}

// ListOn retrieves every snapshot of a date ordered by ticker
func (r *snapshotRepository) ListOn(ctx context.Context, date time.Time) ([]*domain.HoldingSnapshot, error) {
	query := `
		SELECT date, ticker, qty, price_ccy
		FROM snapshots
		WHERE date = ?
		ORDER BY ticker
	`
	return r.list(ctx, query, domain.FormatDate(date))
}

// GetPrevious retrieves the most recent snapshot of ticker strictly before date
func (r *snapshotRepository) GetPrevious(ctx context.Context, ticker string, before time.Time) (*domain.HoldingSnapshot, error) {
	query := `
		SELECT date, ticker, qty, price_ccy
		FROM snapshots
		WHERE ticker = ? AND date < ?
		ORDER BY date DESC
		LIMIT 1
	`

	snapshot, err := scanSnapshot(r.db.QueryRowContext(ctx, r.db.Rebind(query), ticker, domain.FormatDate(before)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no snapshot of %s before %s: %w", ticker, domain.FormatDate(before), domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get previous snapshot: %w", err)
	}
	return snapshot, nil
}

// ListDates retrieves the distinct snapshot dates within [start, end]
func (r *snapshotRepository) ListDates(ctx context.Context, start, end time.Time) ([]time.Time, error) {
	raw, err := queryStrings(ctx, r.db, `
		SELECT DISTINCT date
		FROM snapshots
		WHERE date >= ? AND date <= ?
		ORDER BY date
	`, domain.FormatDate(start), domain.FormatDate(end))
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshot dates: %w", err)
	}

	dates := make([]time.Time, 0, len(raw))
	for _, s := range raw {
		d, err := domain.ParseDate(s)
		if err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, nil
}

// DateRange returns the earliest and latest snapshot dates
func (r *snapshotRepository) DateRange(ctx context.Context) (time.Time, time.Time, error) {
	var first, last sql.NullString
	err := r.db.QueryRowContext(ctx, `SELECT MIN(date), MAX(date) FROM snapshots`).Scan(&first, &last)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("failed to get snapshot date range: %w", err)
	}
	if !first.Valid || !last.Valid {
		return time.Time{}, time.Time{}, fmt.Errorf("no snapshots stored: %w", domain.ErrNotFound)
	}

	start, err := domain.ParseDate(first.String)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := domain.ParseDate(last.String)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// List retrieves every snapshot, newest date first
func (r *snapshotRepository) List(ctx context.Context) ([]*domain.HoldingSnapshot, error) {
	query := `
		SELECT date, ticker, qty, price_ccy
		FROM snapshots
		ORDER BY date DESC, ticker
	`
	return r.list(ctx, query)
}

func (r *snapshotRepository) list(ctx context.Context, query string, args ...any) ([]*domain.HoldingSnapshot, error) {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := make([]*domain.HoldingSnapshot, 0)
	for rows.Next() {
		snapshot, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}
	return snapshots, nil
}

func scanSnapshot(s scanner) (*domain.HoldingSnapshot, error) {
	var date, qtyStr, priceStr string
	var snapshot domain.HoldingSnapshot
	if err := s.Scan(&date, &snapshot.Ticker, &qtyStr, &priceStr); err != nil {
		return nil, err
	}

	d, err := domain.ParseDate(date)
	if err != nil {
		return nil, err
	}
	snapshot.Date = d

	if snapshot.Quantity, err = parseDecimal("qty", qtyStr); err != nil {
		return nil, err
	}
	if snapshot.LocalPrice, err = parseDecimal("price_ccy", priceStr); err != nil {
		return nil, err
	}
	return &snapshot, nil
}
