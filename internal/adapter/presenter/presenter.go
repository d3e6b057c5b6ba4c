// Package presenter flattens reports into the tables and documents shared by
// the CLI, the HTTP export endpoints and the gRPC payloads.
package presenter

import (
	"fmt"
	"sort"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/nyasuto/mond/internal/domain"
	"github.com/nyasuto/mond/internal/usecase/report"
)

// Export view names
const (
	ViewValuation         = "valuation"
	ViewAttribution       = "attribution"
	ViewPortfolioTotal    = "portfolio_total"
	ViewCurrencyExposure  = "currency_exposure"
	ViewValuationEnriched = "valuation_enriched"
)

// Views lists every exportable view
var Views = []string{
	ViewValuation,
	ViewAttribution,
	ViewPortfolioTotal,
	ViewCurrencyExposure,
	ViewValuationEnriched,
}

// Table is a rectangular text rendering of a view
type Table struct {
	Header []string
	Rows   [][]string
}

// DailyView renders one view of a daily report
func DailyView(r *report.DailyReport, view string) (*Table, error) {
	switch view {
	case ViewValuation:
		return ValuationTable(r.Valuations), nil
	case ViewAttribution:
		return AttributionTable(r.Attribution), nil
	case ViewPortfolioTotal:
		return TotalsTable([]domain.PortfolioTotal{r.Total}), nil
	case ViewCurrencyExposure:
		return ExposureTable(r.Exposure), nil
	case ViewValuationEnriched:
		return EnrichedTable(r.Weighted), nil
	default:
		return nil, fmt.Errorf("%w: unknown view %q", domain.ErrInvalidInput, view)
	}
}

// ValuationTable lists valuations ordered by ticker
func ValuationTable(vals []domain.Valuation) *Table {
	sorted := append([]domain.Valuation(nil), vals...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Ticker < sorted[j].Ticker })

	t := &Table{Header: []string{"date", "ticker", "ccy", "qty", "price_ccy", "fx_rate", "value_jpy"}}
	for _, v := range sorted {
		t.Rows = append(t.Rows, []string{
			domain.FormatDate(v.Date), v.Ticker, v.Currency,
			v.Quantity.String(), v.LocalPrice.String(), v.FxRate.String(), v.ValueHome.String(),
		})
	}
	return t
}

// AttributionTable lists attribution rows in their given order
func AttributionTable(rows []domain.AttributionRow) *Table {
	t := &Table{Header: []string{"date", "prev_date", "ticker", "delta_total", "delta_price", "delta_fx", "delta_cross", "flow"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			domain.FormatDate(r.Date), prevDate(r), r.Ticker,
			r.DeltaTotal.String(), r.DeltaPrice.String(), r.DeltaFx.String(), r.DeltaCross.String(), r.Flow.String(),
		})
	}
	return t
}

// TotalsTable lists portfolio totals
func TotalsTable(totals []domain.PortfolioTotal) *Table {
	t := &Table{Header: []string{"date", "total_value_jpy"}}
	for _, tot := range totals {
		t.Rows = append(t.Rows, []string{domain.FormatDate(tot.Date), tot.ValueHome.String()})
	}
	return t
}

// ExposureTable lists currency exposure in its given order
func ExposureTable(exposure []domain.CurrencyExposure) *Table {
	t := &Table{Header: []string{"date", "ccy", "value_jpy"}}
	for _, e := range exposure {
		t.Rows = append(t.Rows, []string{domain.FormatDate(e.Date), e.Currency, e.ValueHome.String()})
	}
	return t
}

// EnrichedTable lists weighted valuations; an undefined weight is left blank
func EnrichedTable(weighted []domain.WeightedValuation) *Table {
	t := &Table{Header: []string{"date", "ticker", "value_jpy", "portfolio_value_jpy", "weight"}}
	for _, w := range weighted {
		weight := ""
		if w.Weight != nil {
			weight = w.Weight.String()
		}
		t.Rows = append(t.Rows, []string{
			domain.FormatDate(w.Date), w.Ticker, w.ValueHome.String(), w.PortfolioValue.String(), weight,
		})
	}
	return t
}

// GapsTable lists FX gaps
func GapsTable(gaps []domain.FxGap) *Table {
	t := &Table{Header: []string{"date", "ticker", "pair"}}
	for _, g := range gaps {
		t.Rows = append(t.Rows, []string{domain.FormatDate(g.Date), g.Ticker, g.Pair})
	}
	return t
}

// Yen formats a home-currency amount for display, rounded to whole yen
func Yen(amount decimal.Decimal) string {
	return Amount(amount, domain.HomeCurrency)
}

// Amount formats amount in currency with its symbol and minor units.
// Unknown currencies fall back to the plain decimal followed by the code.
func Amount(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return amount.String() + " " + currency
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	return money.New(minor.IntPart(), cur.Code).Display()
}

func prevDate(r domain.AttributionRow) string {
	if r.PrevDate.IsZero() {
		return ""
	}
	return domain.FormatDate(r.PrevDate)
}
