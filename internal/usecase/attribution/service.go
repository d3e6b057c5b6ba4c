package attribution

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/nyasuto/mond/internal/domain"
	"github.com/nyasuto/mond/internal/usecase/valuation"
)

// Result is the attribution of one date or a range of dates.
// Tickers that cannot be attributed are reported rather than zero-filled.
type Result struct {
	Rows          []domain.AttributionRow
	NoBaseline    []string // tickers whose first snapshot is on the date
	FxGaps        []domain.FxGap
	MissingAssets []string
}

// AttributionService decomposes value changes between consecutive snapshots
type AttributionService struct {
	AssetRepo    domain.AssetRepository
	FxRateRepo   domain.FxRateRepository
	SnapshotRepo domain.SnapshotRepository
}

// NewAttributionService creates a new AttributionService instance
func NewAttributionService(
	assetRepo domain.AssetRepository,
	fxRateRepo domain.FxRateRepository,
	snapshotRepo domain.SnapshotRepository,
) *AttributionService {
	return &AttributionService{
		AssetRepo:    assetRepo,
		FxRateRepo:   fxRateRepo,
		SnapshotRepo: snapshotRepo,
	}
}

// AttributeDate attributes every ticker with a snapshot on date against its previous snapshot.
// Logic:
//  1. Fetch the date's snapshots and their assets
//  2. For each ticker fetch the most recent snapshot strictly before date; none means no baseline
//  3. Resolve the home rate at both dates; a missing rate is an FX gap on that date
//  4. Decompose, then add the PORTFOLIO row
func (s *AttributionService) AttributeDate(ctx context.Context, date time.Time) (*Result, error) {
	date = domain.DateOf(date)

	snapshots, err := s.SnapshotRepo.ListOn(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	sort.SliceStable(snapshots, func(i, j int) bool {
		return snapshots[i].Ticker < snapshots[j].Ticker
	})

	assets, err := valuation.LoadAssets(ctx, s.AssetRepo, snapshots)
	if err != nil {
		return nil, err
	}

	result := newResult()
	rows := make([]domain.AttributionRow, 0, len(snapshots))
	for _, cur := range snapshots {
		asset, ok := assets[cur.Ticker]
		if !ok {
			result.MissingAssets = append(result.MissingAssets, cur.Ticker)
			continue
		}

		row, err := s.attribute(ctx, asset, cur)
		switch {
		case err == nil:
			rows = append(rows, *row)
		case errors.Is(err, domain.ErrNoBaseline):
			result.NoBaseline = append(result.NoBaseline, cur.Ticker)
		case errors.Is(err, domain.ErrFxGap):
			var gap domain.FxGap
			errors.As(err, &gap)
			result.FxGaps = append(result.FxGaps, gap)
		default:
			return nil, err
		}
	}

	result.Rows = WithPortfolio(date, rows)
	return result, nil
}

// AttributeTicker attributes a single ticker on date.
// Returns an error wrapping ErrNoBaseline for the ticker's first snapshot,
// ErrNotFound when it has no snapshot on date, and an FxGap when a rate is missing.
func (s *AttributionService) AttributeTicker(ctx context.Context, ticker string, date time.Time) (*domain.AttributionRow, error) {
	date = domain.DateOf(date)

	snapshots, err := s.SnapshotRepo.ListOn(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	var cur *domain.HoldingSnapshot
	for _, snap := range snapshots {
		if snap.Ticker == ticker {
			cur = snap
			break
		}
	}
	if cur == nil {
		return nil, fmt.Errorf("snapshot %s on %s: %w", ticker, domain.FormatDate(date), domain.ErrNotFound)
	}

	asset, err := s.AssetRepo.GetByTicker(ctx, ticker)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.MissingReferenceError{Tickers: []string{ticker}}
		}
		return nil, fmt.Errorf("failed to get asset %s: %w", ticker, err)
	}

	return s.attribute(ctx, asset, cur)
}

// History attributes every snapshot date within [start, end].
// Rows are ordered by date, PORTFOLIO first, then ticker. A positive limit keeps only the last limit rows.
func (s *AttributionService) History(ctx context.Context, start, end time.Time, limit int) (*Result, error) {
	start, end = domain.DateOf(start), domain.DateOf(end)
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end %s is before start %s", domain.ErrInvalidInput, domain.FormatDate(end), domain.FormatDate(start))
	}

	dates, err := s.SnapshotRepo.ListDates(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshot dates: %w", err)
	}

	history := newResult()
	for _, date := range dates {
		day, err := s.AttributeDate(ctx, date)
		if err != nil {
			return nil, err
		}
		history.Rows = append(history.Rows, day.Rows...)
		history.NoBaseline = append(history.NoBaseline, day.NoBaseline...)
		history.FxGaps = append(history.FxGaps, day.FxGaps...)
		history.MissingAssets = append(history.MissingAssets, day.MissingAssets...)
	}

	if limit > 0 && len(history.Rows) > limit {
		history.Rows = history.Rows[len(history.Rows)-limit:]
	}
	return history, nil
}

func (s *AttributionService) attribute(ctx context.Context, asset *domain.Asset, cur *domain.HoldingSnapshot) (*domain.AttributionRow, error) {
	prev, err := s.SnapshotRepo.GetPrevious(ctx, cur.Ticker, cur.Date)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%s on %s: %w", cur.Ticker, domain.FormatDate(cur.Date), domain.ErrNoBaseline)
		}
		return nil, fmt.Errorf("failed to get previous snapshot of %s: %w", cur.Ticker, err)
	}

	prevLeg, err := s.leg(ctx, asset, prev)
	if err != nil {
		return nil, err
	}
	curLeg, err := s.leg(ctx, asset, cur)
	if err != nil {
		return nil, err
	}

	row := Decompose(cur.Ticker, prevLeg, curLeg)
	return &row, nil
}

func (s *AttributionService) leg(ctx context.Context, asset *domain.Asset, snap *domain.HoldingSnapshot) (Leg, error) {
	date := domain.DateOf(snap.Date)
	fx, found, err := valuation.RateOn(ctx, s.FxRateRepo, date, asset.Currency)
	if err != nil {
		return Leg{}, err
	}
	if !found {
		return Leg{}, domain.FxGap{Date: date, Ticker: snap.Ticker, Pair: domain.PairFor(asset.Currency)}
	}
	return Leg{
		Date:     date,
		Quantity: snap.Quantity,
		Price:    snap.LocalPrice,
		Fx:       fx,
	}, nil
}

func newResult() *Result {
	return &Result{
		Rows:          make([]domain.AttributionRow, 0),
		NoBaseline:    make([]string, 0),
		FxGaps:        make([]domain.FxGap, 0),
		MissingAssets: make([]string, 0),
	}
}
