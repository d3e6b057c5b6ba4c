package market

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nyasuto/mond/internal/domain"
)

// Keys lists the series that can be charted
type Keys struct {
	Tickers []string // tickers with at least one stored close
	Pairs   []string // stored FX pairs
}

// MarketService reads the stored market data series and the snapshot ledger
type MarketService struct {
	FxRateRepo   domain.FxRateRepository
	PriceRepo    domain.PriceRepository
	SnapshotRepo domain.SnapshotRepository
}

// NewMarketService creates a new MarketService instance
func NewMarketService(
	fxRateRepo domain.FxRateRepository,
	priceRepo domain.PriceRepository,
	snapshotRepo domain.SnapshotRepository,
) *MarketService {
	return &MarketService{
		FxRateRepo:   fxRateRepo,
		PriceRepo:    priceRepo,
		SnapshotRepo: snapshotRepo,
	}
}

// Keys returns the distinct price tickers and FX pairs, each sorted
func (s *MarketService) Keys(ctx context.Context) (*Keys, error) {
	tickers, err := s.PriceRepo.Tickers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list price tickers: %w", err)
	}
	pairs, err := s.FxRateRepo.Pairs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list fx pairs: %w", err)
	}
	return &Keys{Tickers: tickers, Pairs: pairs}, nil
}

// PriceHistory returns the closes of tickers within [start, end] ordered by date, then ticker.
// No tickers means every ticker.
//
// Logic:
// 1. Reject end before start
// 2. Trim and de-duplicate the tickers
// 3. Read the range from the price series
func (s *MarketService) PriceHistory(ctx context.Context, tickers []string, start, end time.Time) ([]*domain.PriceObservation, error) {
	start, end, err := checkRange(start, end)
	if err != nil {
		return nil, err
	}
	keys := normalizeKeys(tickers, strings.TrimSpace)

	prices, err := s.PriceRepo.ListRange(ctx, keys, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list prices: %w", err)
	}
	return prices, nil
}

// FxHistory returns the rates of pairs within [start, end] ordered by date, then pair.
// Pairs are matched case-insensitively; no pairs means every pair.
func (s *MarketService) FxHistory(ctx context.Context, pairs []string, start, end time.Time) ([]*domain.FxRate, error) {
	start, end, err := checkRange(start, end)
	if err != nil {
		return nil, err
	}
	keys := normalizeKeys(pairs, domain.NormalizeCurrency)

	rates, err := s.FxRateRepo.ListRange(ctx, keys, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list fx rates: %w", err)
	}
	return rates, nil
}

// Snapshots returns the recorded snapshots, newest date first, then ticker.
// A positive limit keeps only the limit most recent snapshots.
func (s *MarketService) Snapshots(ctx context.Context, limit int) ([]*domain.HoldingSnapshot, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", domain.ErrInvalidInput)
	}
	snapshots, err := s.SnapshotRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	if limit > 0 && len(snapshots) > limit {
		snapshots = snapshots[:limit]
	}
	return snapshots, nil
}

func checkRange(start, end time.Time) (time.Time, time.Time, error) {
	start, end = domain.DateOf(start), domain.DateOf(end)
	if end.Before(start) {
		return start, end, fmt.Errorf("%w: end %s is before start %s", domain.ErrInvalidInput, domain.FormatDate(end), domain.FormatDate(start))
	}
	return start, end, nil
}

// normalizeKeys applies norm to every key, dropping empty and repeated ones
func normalizeKeys(keys []string, norm func(string) string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		k = norm(k)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}
