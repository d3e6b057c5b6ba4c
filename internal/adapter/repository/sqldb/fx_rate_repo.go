package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nyasuto/mond/internal/domain"
)

const upsertFxRate = `
	INSERT INTO fx_rates (date, pair, rate)
	VALUES (?, ?, ?)
	ON CONFLICT (date, pair) DO UPDATE SET rate = excluded.rate
`

// fxRateRepository implements domain.FxRateRepository
type fxRateRepository struct {
	db *DB
}

// NewFxRateRepository creates a new FX rate repository
func NewFxRateRepository(db *DB) domain.FxRateRepository {
	return &fxRateRepository{db: db}
}

// Upsert creates or replaces the rate of (date, pair)
func (r *fxRateRepository) Upsert(ctx context.Context, rate *domain.FxRate) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(upsertFxRate), domain.FormatDate(rate.Date), rate.Pair, rate.Rate.String())
	if err != nil {
		return fmt.Errorf("failed to upsert fx rate: %w", err)
	}
	return nil
}

// UpsertBatch writes all rates in one transaction
func (r *fxRateRepository) UpsertBatch(ctx context.Context, rates []*domain.FxRate) error {
	return r.db.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, r.db.Rebind(upsertFxRate))
		if err != nil {
			return fmt.Errorf("failed to prepare fx rate upsert: %w", err)
		}
		defer stmt.Close()

		for _, rate := range rates {
			if _, err := stmt.ExecContext(ctx, domain.FormatDate(rate.Date), rate.Pair, rate.Rate.String()); err != nil {
				return fmt.Errorf("failed to upsert fx rate %s on %s: %w", rate.Pair, domain.FormatDate(rate.Date), err)
			}
		}
		return nil
	})
}

// Get retrieves the rate of (date, pair)
func (r *fxRateRepository) Get(ctx context.Context, date time.Time, pair string) (*domain.FxRate, error) {
	query := `
		SELECT date, pair, rate
		FROM fx_rates
		WHERE date = ? AND pair = ?
	`

	rate, err := scanFxRate(r.db.QueryRowContext(ctx, r.db.Rebind(query), domain.FormatDate(date), pair))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("fx rate %s on %s not found: %w", pair, domain.FormatDate(date), domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get fx rate: %w", err)
	}
	return rate, nil
}

// ListOn retrieves every rate of a date ordered by pair
func (r *fxRateRepository) ListOn(ctx context.Context, date time.Time) ([]*domain.FxRate, error) {
	query := `
		SELECT date, pair, rate
		FROM fx_rates
		WHERE date = ?
		ORDER BY pair
	`
	return r.list(ctx, query, domain.FormatDate(date))
}

// ListRange retrieves rates within [start, end], optionally restricted to pairs
func (r *fxRateRepository) ListRange(ctx context.Context, pairs []string, start, end time.Time) ([]*domain.FxRate, error) {
	query := `
		SELECT date, pair, rate
		FROM fx_rates
		WHERE date >= ? AND date <= ?`
	args := []any{domain.FormatDate(start), domain.FormatDate(end)}
	if len(pairs) > 0 {
		query += ` AND pair IN (` + placeholders(len(pairs)) + `)`
		for _, p := range pairs {
			args = append(args, p)
		}
	}
	query += ` ORDER BY date, pair`

	return r.list(ctx, query, args...)
}

// Pairs lists the distinct stored pairs
func (r *fxRateRepository) Pairs(ctx context.Context) ([]string, error) {
	return queryStrings(ctx, r.db, `SELECT DISTINCT pair FROM fx_rates ORDER BY pair`)
}

func (r *fxRateRepository) list(ctx context.Context, query string, args ...any) ([]*domain.FxRate, error) {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list fx rates: %w", err)
	}
	defer rows.Close()

	rates := make([]*domain.FxRate, 0)
	for rows.Next() {
		rate, err := scanFxRate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fx rate: %w", err)
		}
		rates = append(rates, rate)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fx rates: %w", err)
	}
	return rates, nil
}

func scanFxRate(s scanner) (*domain.FxRate, error) {
	var date, rateStr string
	var rate domain.FxRate
	if err := s.Scan(&date, &rate.Pair, &rateStr); err != nil {
		return nil, err
	}

	d, err := domain.ParseDate(date)
	if err != nil {
		return nil, err
	}
	rate.Date = d

	rate.Rate, err = parseDecimal("rate", rateStr)
	if err != nil {
		return nil, err
	}
	return &rate, nil
}

// queryStrings runs a single-column query
func queryStrings(ctx context.Context, db *DB, query string, args ...any) ([]string, error) {
	rows, err := db.QueryContext(ctx, db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}
