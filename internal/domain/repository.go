package domain

import (
	"context"
	"time"
)

// AssetRepository defines the interface for asset registry persistence operations
type AssetRepository interface {
	// Upsert creates or updates an asset keyed by ticker
	Upsert(ctx context.Context, asset *Asset) error

	// GetByTicker retrieves an asset; wraps ErrNotFound when unregistered
	GetByTicker(ctx context.Context, ticker string) (*Asset, error)

	// List retrieves every registered asset ordered by ticker
	List(ctx context.Context) ([]*Asset, error)
}

// FxRateRepository defines the interface for FX rate persistence operations
type FxRateRepository interface {
	// Upsert creates or replaces the rate for (date, pair)
	Upsert(ctx context.Context, rate *FxRate) error

	// UpsertBatch writes every rate in a single transaction: all or nothing
	UpsertBatch(ctx context.Context, rates []*FxRate) error

	// Get retrieves the rate for (date, pair); wraps ErrNotFound when absent
	Get(ctx context.Context, date time.Time, pair string) (*FxRate, error)

	// ListOn retrieves every rate stored for a date ordered by pair
	ListOn(ctx context.Context, date time.Time) ([]*FxRate, error)

	// ListRange retrieves rates for the given pairs within [start, end] ordered by date, pair.
	// An empty pairs slice means all pairs.
	ListRange(ctx context.Context, pairs []string, start, end time.Time) ([]*FxRate, error)

	// Pairs lists the distinct stored pairs
	Pairs(ctx context.Context) ([]string, error)
}

// PriceRepository defines the interface for external price series persistence operations
type PriceRepository interface {
	// Upsert creates or replaces the close for (date, ticker)
	Upsert(ctx context.Context, price *PriceObservation) error

	// UpsertBatch writes every observation in a single transaction: all or nothing
	UpsertBatch(ctx context.Context, prices []*PriceObservation) error

	// Get retrieves the close for (date, ticker); wraps ErrNotFound when absent
	Get(ctx context.Context, date time.Time, ticker string) (*PriceObservation, error)

	// ListRange retrieves closes for the given tickers within [start, end] ordered by date, ticker.
	// An empty tickers slice means all tickers.
	ListRange(ctx context.Context, tickers []string, start, end time.Time) ([]*PriceObservation, error)

	// Tickers lists the distinct tickers with at least one close
	Tickers(ctx context.Context) ([]string, error)
}

// SnapshotRepository defines the interface for holding snapshot persistence operations
type SnapshotRepository interface {
	// Upsert creates or replaces the snapshot for (date, ticker)
	Upsert(ctx context.Context, snapshot *HoldingSnapshot) error

	// ListOn retrieves every snapshot of a date ordered by ticker
	ListOn(ctx context.Context, date time.Time) ([]*HoldingSnapshot, error)

	// GetPrevious retrieves the most recent snapshot of ticker strictly before date;
	// wraps ErrNotFound when there is none
	GetPrevious(ctx context.Context, ticker string, before time.Time) (*HoldingSnapshot, error)

	// ListDates retrieves the distinct snapshot dates within [start, end] in ascending order
	ListDates(ctx context.Context, start, end time.Time) ([]time.Time, error)

	// DateRange returns the earliest and latest snapshot dates; wraps ErrNotFound when empty
	DateRange(ctx context.Context) (time.Time, time.Time, error)

	// List retrieves every snapshot ordered by date descending, then ticker
	List(ctx context.Context) ([]*HoldingSnapshot, error)
}
