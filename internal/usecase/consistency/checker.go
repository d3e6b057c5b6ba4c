package consistency

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nyasuto/mond/internal/domain"
	"github.com/nyasuto/mond/internal/usecase/valuation"
)

// DefaultTolerance is the largest residual, in home-currency units, accepted on an attribution row
var DefaultTolerance = decimal.New(1, -6)

// Completeness is the FX completeness of one date
type Completeness struct {
	Date         time.Time
	MissingPairs []string
	FxGaps       []domain.FxGap
}

// Complete reports whether every non-home asset held on the date has a rate
func (c *Completeness) Complete() bool {
	return len(c.MissingPairs) == 0
}

// ConsistencyService verifies attribution output and FX coverage
type ConsistencyService struct {
	AssetRepo    domain.AssetRepository
	FxRateRepo   domain.FxRateRepository
	SnapshotRepo domain.SnapshotRepository
	Tolerance    decimal.Decimal
}

// NewConsistencyService creates a new ConsistencyService instance.
// A non-positive tolerance falls back to DefaultTolerance.
func NewConsistencyService(
	assetRepo domain.AssetRepository,
	fxRateRepo domain.FxRateRepository,
	snapshotRepo domain.SnapshotRepository,
	tolerance decimal.Decimal,
) *ConsistencyService {
	if !tolerance.IsPositive() {
		tolerance = DefaultTolerance
	}
	return &ConsistencyService{
		AssetRepo:    assetRepo,
		FxRateRepo:   fxRateRepo,
		SnapshotRepo: snapshotRepo,
		Tolerance:    tolerance,
	}
}

// CheckRows returns every row whose |price + fx + cross + flow - total| exceeds the tolerance
func (s *ConsistencyService) CheckRows(rows []domain.AttributionRow) []domain.Mismatch {
	mismatches := make([]domain.Mismatch, 0)
	for _, r := range rows {
		residual := r.Residual()
		if residual.Abs().GreaterThan(s.Tolerance) {
			mismatches = append(mismatches, domain.Mismatch{
				Date:     r.Date,
				Ticker:   r.Ticker,
				Residual: residual,
			})
		}
	}
	return mismatches
}

// Verify returns a *domain.ReconciliationError when any row fails to reconcile
func (s *ConsistencyService) Verify(rows []domain.AttributionRow) error {
	if mismatches := s.CheckRows(rows); len(mismatches) > 0 {
		return &domain.ReconciliationError{Mismatches: mismatches}
	}
	return nil
}

// FxCompleteness checks that every non-home-currency asset held on date has a rate for that date.
// Missing rates are listed by pair; no stale rate from another date is accepted.
// Unregistered tickers are skipped here since they cannot name a currency.
func (s *ConsistencyService) FxCompleteness(ctx context.Context, date time.Time) (*Completeness, error) {
	date = domain.DateOf(date)

	snapshots, err := s.SnapshotRepo.ListOn(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	assets, err := valuation.LoadAssets(ctx, s.AssetRepo, snapshots)
	if err != nil {
		return nil, err
	}

	rates, err := s.FxRateRepo.ListOn(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list fx rates: %w", err)
	}
	available := make(map[string]bool, len(rates))
	for _, r := range rates {
		available[r.Pair] = true
	}

	tickers := make([]string, 0, len(assets))
	for ticker := range assets {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	result := &Completeness{Date: date, FxGaps: make([]domain.FxGap, 0)}
	for _, ticker := range tickers {
		asset := assets[ticker]
		if domain.IsHomeCurrency(asset.Currency) {
			continue
		}
		pair := domain.PairFor(asset.Currency)
		if !available[pair] {
			result.FxGaps = append(result.FxGaps, domain.FxGap{Date: date, Ticker: ticker, Pair: pair})
		}
	}
	result.MissingPairs = domain.MissingPairs(result.FxGaps)
	return result, nil
}
