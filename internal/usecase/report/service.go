package report

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/nyasuto/mond/internal/domain"
	"github.com/nyasuto/mond/internal/usecase/aggregation"
	"github.com/nyasuto/mond/internal/usecase/attribution"
	"github.com/nyasuto/mond/internal/usecase/consistency"
	"github.com/nyasuto/mond/internal/usecase/enrichment"
	"github.com/nyasuto/mond/internal/usecase/valuation"
)

// DailyReport is everything known about one date.
// It is always returned in full; gaps and failures are listed next to the values they affect.
type DailyReport struct {
	Date          time.Time
	Valuations    []domain.Valuation
	FxGaps        []domain.FxGap
	MissingAssets []string
	Total         domain.PortfolioTotal
	Exposure      []domain.CurrencyExposure
	Weighted      []domain.WeightedValuation
	Attribution   []domain.AttributionRow
	NoBaseline    []string
	Mismatches    []domain.Mismatch
	MissingPairs  []string // FX completeness of the date
}

// HistoryReport covers every snapshot date of a range
type HistoryReport struct {
	Start       time.Time
	End         time.Time
	Totals      []domain.PortfolioTotal
	Exposure    []domain.CurrencyExposure
	Attribution []domain.AttributionRow
	NoBaseline  []string
	FxGaps      []domain.FxGap
	Mismatches  []domain.Mismatch
}

// TickerReport is the attribution of one ticker on a date with its portfolio weight
type TickerReport struct {
	Row    *domain.AttributionRow
	Weight *decimal.Decimal // nil when undefined
}

// ReportService assembles reports from the engines
type ReportService struct {
	Valuation   *valuation.ValuationService
	Aggregation *aggregation.AggregationService
	Attribution *attribution.AttributionService
	Consistency *consistency.ConsistencyService
	log         zerolog.Logger
}

// NewReportService creates a new ReportService instance
func NewReportService(
	valuationService *valuation.ValuationService,
	aggregationService *aggregation.AggregationService,
	attributionService *attribution.AttributionService,
	consistencyService *consistency.ConsistencyService,
	log zerolog.Logger,
) *ReportService {
	return &ReportService{
		Valuation:   valuationService,
		Aggregation: aggregationService,
		Attribution: attributionService,
		Consistency: consistencyService,
		log:         log.With().Str("component", "report").Logger(),
	}
}

// Daily builds the report of one date
func (s *ReportService) Daily(ctx context.Context, date time.Time) (*DailyReport, error) {
	date = domain.DateOf(date)

	valued, err := s.Valuation.ValueDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to value %s: %w", domain.FormatDate(date), err)
	}
	summary := aggregation.Aggregate(date, valued.Valuations)

	attributed, err := s.Attribution.AttributeDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to attribute %s: %w", domain.FormatDate(date), err)
	}

	completeness, err := s.Consistency.FxCompleteness(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to check fx completeness of %s: %w", domain.FormatDate(date), err)
	}

	r := &DailyReport{
		Date:          date,
		Valuations:    valued.Valuations,
		FxGaps:        mergeGaps(valued.FxGaps, attributed.FxGaps),
		MissingAssets: valued.MissingAssets,
		Total:         summary.Total,
		Exposure:      summary.Exposure,
		Weighted:      enrichment.Enrich(valued.Valuations, summary.Total.ValueHome),
		Attribution:   attributed.Rows,
		NoBaseline:    attributed.NoBaseline,
		Mismatches:    s.Consistency.CheckRows(attributed.Rows),
		MissingPairs:  completeness.MissingPairs,
	}

	s.logOutcome(r.Date, r.Date, r.Mismatches, r.FxGaps)
	return r, nil
}

// History builds the report of [start, end]. A positive limit keeps only the last limit attribution rows
// and totals, and the exposure of the dates whose totals are kept.
func (s *ReportService) History(ctx context.Context, start, end time.Time, limit int) (*HistoryReport, error) {
	summaries, err := s.Aggregation.History(ctx, start, end)
	if err != nil {
		return nil, err
	}
	attributed, err := s.Attribution.History(ctx, start, end, limit)
	if err != nil {
		return nil, err
	}

	r := &HistoryReport{
		Start:       domain.DateOf(start),
		End:         domain.DateOf(end),
		Totals:      make([]domain.PortfolioTotal, 0, len(summaries)),
		Exposure:    make([]domain.CurrencyExposure, 0),
		Attribution: attributed.Rows,
		NoBaseline:  attributed.NoBaseline,
		FxGaps:      attributed.FxGaps,
		Mismatches:  s.Consistency.CheckRows(attributed.Rows),
	}
	for _, sum := range summaries {
		r.Totals = append(r.Totals, sum.Total)
		r.Exposure = append(r.Exposure, sum.Exposure...)
		r.FxGaps = mergeGaps(r.FxGaps, sum.FxGaps)
	}
	if limit > 0 && len(r.Totals) > limit {
		r.Totals = r.Totals[len(r.Totals)-limit:]
		r.Exposure = exposureFrom(r.Exposure, r.Totals[0].Date)
	}

	s.logOutcome(r.Start, r.End, r.Mismatches, r.FxGaps)
	return r, nil
}

// Ticker attributes one ticker on date and looks up its weight in that day's portfolio.
// Errors are those of AttributionService.AttributeTicker.
func (s *ReportService) Ticker(ctx context.Context, ticker string, date time.Time) (*TickerReport, error) {
	row, err := s.Attribution.AttributeTicker(ctx, ticker, date)
	if err != nil {
		return nil, err
	}
	daily, err := s.Daily(ctx, date)
	if err != nil {
		return nil, err
	}
	return &TickerReport{Row: row, Weight: daily.WeightOf(ticker)}, nil
}

// FullHistory is History over the whole stored snapshot range
func (s *ReportService) FullHistory(ctx context.Context, limit int) (*HistoryReport, error) {
	start, end, err := s.Attribution.SnapshotRepo.DateRange(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot date range: %w", err)
	}
	return s.History(ctx, start, end, limit)
}

// Verify fails with a *domain.ReconciliationError when the report carries a mismatch
func (r *DailyReport) Verify() error {
	if len(r.Mismatches) > 0 {
		return &domain.ReconciliationError{Mismatches: r.Mismatches}
	}
	return nil
}

// AttributionTotal returns the PORTFOLIO row of the report, if any
func (r *DailyReport) AttributionTotal() (domain.AttributionRow, bool) {
	for _, row := range r.Attribution {
		if row.Ticker == domain.PortfolioTicker {
			return row, true
		}
	}
	return domain.AttributionRow{}, false
}

// WeightOf returns the weight of ticker, nil when undefined or not held
func (r *DailyReport) WeightOf(ticker string) *decimal.Decimal {
	for _, wv := range r.Weighted {
		if wv.Ticker == ticker {
			return wv.Weight
		}
	}
	return nil
}

func (s *ReportService) logOutcome(start, end time.Time, mismatches []domain.Mismatch, gaps []domain.FxGap) {
	if len(mismatches) > 0 {
		s.log.Error().
			Err(&domain.ReconciliationError{Mismatches: mismatches}).
			Str("start", domain.FormatDate(start)).
			Str("end", domain.FormatDate(end)).
			Int("mismatches", len(mismatches)).
			Msg("attribution does not reconcile")
	}
	if len(gaps) > 0 {
		s.log.Warn().
			Str("start", domain.FormatDate(start)).
			Str("end", domain.FormatDate(end)).
			Strs("missing_pairs", domain.MissingPairs(gaps)).
			Msg("fx gaps excluded from report")
	}
}

// exposureFrom keeps the exposure rows dated on or after first
func exposureFrom(exposure []domain.CurrencyExposure, first time.Time) []domain.CurrencyExposure {
	out := make([]domain.CurrencyExposure, 0, len(exposure))
	for _, e := range exposure {
		if !e.Date.Before(first) {
			out = append(out, e)
		}
	}
	return out
}

// mergeGaps appends the gaps of b not already in a
func mergeGaps(a, b []domain.FxGap) []domain.FxGap {
	out := make([]domain.FxGap, 0, len(a)+len(b))
	seen := make(map[string]bool)
	for _, g := range append(append([]domain.FxGap{}, a...), b...) {
		key := domain.FormatDate(g.Date) + "|" + g.Ticker + "|" + g.Pair
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, g)
	}
	return out
}
