package collector

import (
	"context"
	"time"

	"github.com/nyasuto/mond/internal/domain"
)

// Plan is a recurring collection: the last LookbackDays days up to the run date
type Plan struct {
	FxBases      []string
	FxTargets    []string
	Tickers      []TickerSpec
	LookbackDays int
}

// Run collects FX rates then prices for the window ending on now's date.
// Sections without configuration are skipped.
func (s *CollectorService) Run(ctx context.Context, plan Plan, now time.Time) error {
	end := domain.DateOf(now)
	start := end.AddDate(0, 0, -max(plan.LookbackDays-1, 0))

	if len(plan.FxBases) > 0 && len(plan.FxTargets) > 0 {
		if _, err := s.CollectFx(ctx, FxRequest{Bases: plan.FxBases, Targets: plan.FxTargets, Start: start, End: end}); err != nil {
			return err
		}
	}
	if len(plan.Tickers) > 0 {
		if _, err := s.CollectPrices(ctx, PriceRequest{Tickers: plan.Tickers, Start: start, End: end}); err != nil {
			return err
		}
	}
	return nil
}
