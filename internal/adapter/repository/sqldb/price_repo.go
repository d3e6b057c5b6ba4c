package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nyasuto/mond/internal/domain"
)

const upsertPrice = `
	INSERT INTO asset_prices (date, ticker, close)
	VALUES (?, ?, ?)
	ON CONFLICT (date, ticker) DO UPDATE SET close = excluded.close
`

// priceRepository implements domain.PriceRepository
type priceRepository struct {
	db *DB
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(db *DB) domain.PriceRepository {
	return &priceRepository{db: db}
}

// Upsert creates or replaces the close of (date, ticker)
func (r *priceRepository) Upsert(ctx context.Context, price *domain.PriceObservation) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(upsertPrice), domain.FormatDate(price.Date), price.Ticker, price.Close.String())
	if err != nil {
		return fmt.Errorf("failed to upsert price: %w", err)
	}
	return nil
}

// UpsertBatch writes all closes in one transaction
func (r *priceRepository) UpsertBatch(ctx context.Context, prices []*domain.PriceObservation) error {
	return r.db.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, r.db.Rebind(upsertPrice))
		if err != nil {
			return fmt.Errorf("failed to prepare price upsert: %w", err)
		}
		defer stmt.Close()

		for _, p := range prices {
			if _, err := stmt.ExecContext(ctx, domain.FormatDate(p.Date), p.Ticker, p.Close.String()); err != nil {
				return fmt.Errorf("failed to upsert price %s on %s: %w", p.Ticker, domain.FormatDate(p.Date), err)
			}
		}
		return nil
	})
}

// Get retrieves the close of (date, ticker)
func (r *priceRepository) Get(ctx context.Context, date time.Time, ticker string) (*domain.PriceObservation, error) {
	query := `
		SELECT date, ticker, close
		FROM asset_prices
		WHERE date = ? AND ticker = ?
	`

	price, err := scanPrice(r.db.QueryRowContext(ctx, r.db.Rebind(query), domain.FormatDate(date), ticker))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("price of %s on %s not found: %w", ticker, domain.FormatDate(date), domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get price: %w", err)
	}
	return price, nil
}

// ListRange retrieves closes within [start, end], optionally restricted to tickers
func (r *priceRepository) ListRange(ctx context.Context, tickers []string, start, end time.Time) ([]*domain.PriceObservation, error) {
	query := `
		SELECT date, ticker, close
		FROM asset_prices
		WHERE date >= ? AND date <= ?`
	args := []any{domain.FormatDate(start), domain.FormatDate(end)}
	if len(tickers) > 0 {
		query += ` AND ticker IN (` + placeholders(len(tickers)) + `)`
		for _, t := range tickers {
			args = append(args, t)
		}
	}
	query += ` ORDER BY date, ticker`

	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list prices: %w", err)
	}
	defer rows.Close()

	prices := make([]*domain.PriceObservation, 0)
	for rows.Next() {
		price, err := scanPrice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan price: %w", err)
		}
		prices = append(prices, price)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating prices: %w", err)
	}
	return prices, nil
}

// Tickers lists the distinct tickers with a stored close
func (r *priceRepository) Tickers(ctx context.Context) ([]string, error) {
	return queryStrings(ctx, r.db, `SELECT DISTINCT ticker FROM asset_prices ORDER BY ticker`)
}

func scanPrice(s scanner) (*domain.PriceObservation, error) {
	var date, closeStr string
	var price domain.PriceObservation
	if err := s.Scan(&date, &price.Ticker, &closeStr); err != nil {
		return nil, err
	}

	d, err := domain.ParseDate(date)
	if err != nil {
		return nil, err
	}
	price.Date = d

	price.Close, err = parseDecimal("close", closeStr)
	if err != nil {
		return nil, err
	}
	return &price, nil
}
