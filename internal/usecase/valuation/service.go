package valuation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nyasuto/mond/internal/domain"
)

// ValuationService values a date from the current contents of the store.
// It holds no state between calls.
type ValuationService struct {
	AssetRepo    domain.AssetRepository
	FxRateRepo   domain.FxRateRepository
	SnapshotRepo domain.SnapshotRepository
}

// NewValuationService creates a new ValuationService instance
func NewValuationService(
	assetRepo domain.AssetRepository,
	fxRateRepo domain.FxRateRepository,
	snapshotRepo domain.SnapshotRepository,
) *ValuationService {
	return &ValuationService{
		AssetRepo:    assetRepo,
		FxRateRepo:   fxRateRepo,
		SnapshotRepo: snapshotRepo,
	}
}

// ValueDate produces one valuation per snapshot of date whose FX rate is resolvable.
// Logic:
//  1. Fetch all holding snapshots for the date
//  2. Fetch the asset of every distinct ticker
//  3. Fetch the FX rate of every distinct non-home currency for the date
//  4. Delegate to Compute
func (s *ValuationService) ValueDate(ctx context.Context, date time.Time) (*Result, error) {
	date = domain.DateOf(date)

	snapshots, err := s.SnapshotRepo.ListOn(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	assets, err := LoadAssets(ctx, s.AssetRepo, snapshots)
	if err != nil {
		return nil, err
	}

	rates := make(map[string]decimal.Decimal)
	for _, asset := range assets {
		if domain.IsHomeCurrency(asset.Currency) {
			continue
		}
		pair := domain.PairFor(asset.Currency)
		if _, done := rates[pair]; done {
			continue
		}
		rate, found, err := RateOn(ctx, s.FxRateRepo, date, asset.Currency)
		if err != nil {
			return nil, err
		}
		if found {
			rates[pair] = rate
		}
	}

	result := Compute(Input{
		Date:      date,
		Snapshots: snapshots,
		Assets:    assets,
		Rates:     rates,
	})
	return &result, nil
}

// LoadAssets fetches the asset of every distinct ticker in snapshots.
// Unregistered tickers are left out of the map.
func LoadAssets(ctx context.Context, repo domain.AssetRepository, snapshots []*domain.HoldingSnapshot) (map[string]*domain.Asset, error) {
	assets := make(map[string]*domain.Asset)
	seen := make(map[string]bool)
	for _, snap := range snapshots {
		if seen[snap.Ticker] {
			continue
		}
		seen[snap.Ticker] = true

		asset, err := repo.GetByTicker(ctx, snap.Ticker)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("failed to get asset %s: %w", snap.Ticker, err)
		}
		assets[snap.Ticker] = asset
	}
	return assets, nil
}

// RateOn resolves the rate converting currency into the home currency on date.
// The home currency resolves to 1 without touching the store.
// found is false when no rate is stored; it is never substituted by another date's rate.
func RateOn(ctx context.Context, repo domain.FxRateRepository, date time.Time, currency string) (rate decimal.Decimal, found bool, err error) {
	if domain.IsHomeCurrency(currency) {
		return decimal.NewFromInt(1), true, nil
	}

	fx, err := repo.Get(ctx, date, domain.PairFor(currency))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, fmt.Errorf("failed to get fx rate %s: %w", domain.PairFor(currency), err)
	}
	return fx.Rate, true, nil
}
