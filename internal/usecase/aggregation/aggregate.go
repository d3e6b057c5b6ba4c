package aggregation

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nyasuto/mond/internal/domain"
)

// Summary is the portfolio total and currency breakdown of one date
type Summary struct {
	Date     time.Time
	Total    domain.PortfolioTotal
	Exposure []domain.CurrencyExposure // descending by value
	FxGaps   []domain.FxGap
}

// Aggregate sums the valuations of one date.
// Logic:
//  1. Single pass over valuations in the order given: running total and per-currency totals
//  2. Exposure sorted by value descending, currency ascending on ties
//
// Valuations excluded for an FX gap never reach this function, so they cannot distort the total.
func Aggregate(date time.Time, valuations []domain.Valuation) Summary {
	total := decimal.Zero
	byCurrency := make(map[string]decimal.Decimal)

	for _, v := range valuations {
		total = total.Add(v.ValueHome)
		byCurrency[v.Currency] = byCurrency[v.Currency].Add(v.ValueHome)
	}

	exposure := make([]domain.CurrencyExposure, 0, len(byCurrency))
	for ccy, value := range byCurrency {
		exposure = append(exposure, domain.CurrencyExposure{
			Date:      date,
			Currency:  ccy,
			ValueHome: value,
		})
	}
	sort.Slice(exposure, func(i, j int) bool {
		if c := exposure[i].ValueHome.Cmp(exposure[j].ValueHome); c != 0 {
			return c > 0
		}
		return exposure[i].Currency < exposure[j].Currency
	})

	return Summary{
		Date:     date,
		Total:    domain.PortfolioTotal{Date: date, ValueHome: total},
		Exposure: exposure,
		FxGaps:   make([]domain.FxGap, 0),
	}
}
