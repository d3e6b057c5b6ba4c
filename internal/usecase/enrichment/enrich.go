// Package enrichment attaches portfolio weights to valuations.
package enrichment

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/nyasuto/mond/internal/domain"
)

// Enrich attaches weight = value_home / total to each valuation.
// Weight is left nil when total is zero; nothing is ever divided by zero.
// Output is ordered by value descending, then ticker.
func Enrich(valuations []domain.Valuation, total decimal.Decimal) []domain.WeightedValuation {
	weighted := make([]domain.WeightedValuation, 0, len(valuations))
	for _, v := range valuations {
		wv := domain.WeightedValuation{
			Valuation:      v,
			PortfolioValue: total,
		}
		if !total.IsZero() {
			w := v.ValueHome.DivRound(total, weightPrecision)
			wv.Weight = &w
		}
		weighted = append(weighted, wv)
	}

	sort.SliceStable(weighted, func(i, j int) bool {
		if c := weighted[i].ValueHome.Cmp(weighted[j].ValueHome); c != 0 {
			return c > 0
		}
		return weighted[i].Ticker < weighted[j].Ticker
	})
	return weighted
}

// weightPrecision is the number of decimal places kept on a weight
const weightPrecision = 12

// WeightSum adds every defined weight
func WeightSum(weighted []domain.WeightedValuation) decimal.Decimal {
	sum := decimal.Zero
	for _, wv := range weighted {
		if wv.Weight != nil {
			sum = sum.Add(*wv.Weight)
		}
	}
	return sum
}
