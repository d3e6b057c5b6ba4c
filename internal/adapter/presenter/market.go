package presenter

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nyasuto/mond/internal/domain"
	"github.com/nyasuto/mond/internal/usecase/market"
)

// PriceTable lists stored closes in their given order
func PriceTable(prices []*domain.PriceObservation) *Table {
	t := &Table{Header: []string{"date", "ticker", "close"}}
	for _, p := range prices {
		t.Rows = append(t.Rows, []string{domain.FormatDate(p.Date), p.Ticker, p.Close.String()})
	}
	return t
}

// FxTable lists stored FX rates in their given order
func FxTable(rates []*domain.FxRate) *Table {
	t := &Table{Header: []string{"date", "pair", "rate"}}
	for _, r := range rates {
		t.Rows = append(t.Rows, []string{domain.FormatDate(r.Date), r.Pair, r.Rate.String()})
	}
	return t
}

// SnapshotTable lists recorded snapshots in their given order
func SnapshotTable(snapshots []*domain.HoldingSnapshot) *Table {
	t := &Table{Header: []string{"date", "ticker", "qty", "price_ccy"}}
	for _, s := range snapshots {
		t.Rows = append(t.Rows, []string{domain.FormatDate(s.Date), s.Ticker, s.Quantity.String(), s.LocalPrice.String()})
	}
	return t
}

// KeysDocument renders the chartable price tickers and FX pairs
func KeysDocument(k *market.Keys) map[string]any {
	return map[string]any{
		"tickers": stringList(k.Tickers),
		"pairs":   stringList(k.Pairs),
	}
}

// PriceHistoryDocument renders closes over [start, end]
func PriceHistoryDocument(start, end time.Time, prices []*domain.PriceObservation) map[string]any {
	return map[string]any{
		"start":  domain.FormatDate(start),
		"end":    domain.FormatDate(end),
		"prices": tableDocument(PriceTable(prices)),
	}
}

// FxHistoryDocument renders FX rates over [start, end]
func FxHistoryDocument(start, end time.Time, rates []*domain.FxRate) map[string]any {
	return map[string]any{
		"start":    domain.FormatDate(start),
		"end":      domain.FormatDate(end),
		"fx_rates": tableDocument(FxTable(rates)),
	}
}

// SnapshotListDocument renders the snapshot ledger
func SnapshotListDocument(snapshots []*domain.HoldingSnapshot) map[string]any {
	return map[string]any{"snapshots": tableDocument(SnapshotTable(snapshots))}
}

// TickerAttributionDocument renders the attribution row of one ticker and its weight on that date
func TickerAttributionDocument(row *domain.AttributionRow, weight *decimal.Decimal) map[string]any {
	doc := tableDocument(AttributionTable([]domain.AttributionRow{*row}))[0].(map[string]any)
	doc["weight"] = optional(weight)
	return doc
}
