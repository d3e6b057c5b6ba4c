package aggregation

import (
	"context"
	"fmt"
	"time"

	"github.com/nyasuto/mond/internal/domain"
	"github.com/nyasuto/mond/internal/usecase/valuation"
)

// AggregationService handles portfolio total and currency exposure views
type AggregationService struct {
	Valuation    *valuation.ValuationService
	SnapshotRepo domain.SnapshotRepository
}

// NewAggregationService creates a new AggregationService instance
func NewAggregationService(valuationService *valuation.ValuationService, snapshotRepo domain.SnapshotRepository) *AggregationService {
	return &AggregationService{
		Valuation:    valuationService,
		SnapshotRepo: snapshotRepo,
	}
}

// Summarize values a date and aggregates it. FX gaps of the date are carried on the summary.
func (s *AggregationService) Summarize(ctx context.Context, date time.Time) (*Summary, error) {
	result, err := s.Valuation.ValueDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to value %s: %w", domain.FormatDate(date), err)
	}

	summary := Aggregate(result.Date, result.Valuations)
	summary.FxGaps = append(summary.FxGaps, result.FxGaps...)
	return &summary, nil
}

// History summarizes every snapshot date within [start, end] in ascending date order
func (s *AggregationService) History(ctx context.Context, start, end time.Time) ([]Summary, error) {
	start, end = domain.DateOf(start), domain.DateOf(end)
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end %s is before start %s", domain.ErrInvalidInput, domain.FormatDate(end), domain.FormatDate(start))
	}

	dates, err := s.SnapshotRepo.ListDates(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshot dates: %w", err)
	}

	history := make([]Summary, 0, len(dates))
	for _, date := range dates {
		summary, err := s.Summarize(ctx, date)
		if err != nil {
			return nil, err
		}
		history = append(history, *summary)
	}
	return history, nil
}
