package presenter

import (
	"github.com/shopspring/decimal"

	"github.com/nyasuto/mond/internal/domain"
	"github.com/nyasuto/mond/internal/usecase/enrichment"
	"github.com/nyasuto/mond/internal/usecase/entry"
	"github.com/nyasuto/mond/internal/usecase/report"
)

// Documents are built from map[string]any, []any, string and bool only,
// so they encode as JSON and convert to google.protobuf.Struct unchanged.
// Decimals are rendered as strings to keep them exact.

// DailyDocument renders a daily report
func DailyDocument(r *report.DailyReport) map[string]any {
	return map[string]any{
		"date":                domain.FormatDate(r.Date),
		"portfolio_total_jpy": r.Total.ValueHome.String(),
		"valuation":           tableDocument(ValuationTable(r.Valuations)),
		"valuation_enriched":  tableDocument(EnrichedTable(r.Weighted)),
		"currency_exposure":   tableDocument(ExposureTable(r.Exposure)),
		"attribution":         tableDocument(AttributionTable(r.Attribution)),
		"no_baseline":         stringList(r.NoBaseline),
		"missing_assets":      stringList(r.MissingAssets),
		"missing_pairs":       stringList(r.MissingPairs),
		"fx_gaps":             tableDocument(GapsTable(r.FxGaps)),
		"mismatches":          mismatchList(r.Mismatches),
		"consistent":          len(r.Mismatches) == 0,
	}
}

// HistoryDocument renders a history report
func HistoryDocument(h *report.HistoryReport) map[string]any {
	return map[string]any{
		"start":               domain.FormatDate(h.Start),
		"end":                 domain.FormatDate(h.End),
		"portfolio_totals":    tableDocument(TotalsTable(h.Totals)),
		"currency_exposure":   tableDocument(ExposureTable(h.Exposure)),
		"attribution_history": tableDocument(AttributionTable(h.Attribution)),
		"no_baseline":         stringList(h.NoBaseline),
		"fx_gaps":             tableDocument(GapsTable(h.FxGaps)),
		"mismatches":          mismatchList(h.Mismatches),
		"consistent":          len(h.Mismatches) == 0,
	}
}

// CheckDocument renders the consistency outcome of a daily report.
// weight_sum is 1, within weight rounding, when the date has a non-zero total and no FX gaps.
func CheckDocument(r *report.DailyReport) map[string]any {
	return map[string]any{
		"date":          domain.FormatDate(r.Date),
		"consistent":    len(r.Mismatches) == 0,
		"fx_complete":   len(r.MissingPairs) == 0,
		"missing_pairs": stringList(r.MissingPairs),
		"fx_gaps":       tableDocument(GapsTable(r.FxGaps)),
		"mismatches":    mismatchList(r.Mismatches),
		"weight_sum":    enrichment.WeightSum(r.Weighted).String(),
	}
}

// tableDocument turns a table into a list of column-keyed records
func tableDocument(t *Table) []any {
	out := make([]any, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(map[string]any, len(t.Header))
		for i, col := range t.Header {
			rec[col] = row[i]
		}
		out = append(out, rec)
	}
	return out
}

func stringList(ss []string) []any {
	out := make([]any, 0, len(ss))
	for _, s := range ss {
		out = append(out, s)
	}
	return out
}

func mismatchList(ms []domain.Mismatch) []any {
	out := make([]any, 0, len(ms))
	for _, m := range ms {
		out = append(out, map[string]any{
			"date":     domain.FormatDate(m.Date),
			"ticker":   m.Ticker,
			"residual": m.Residual.String(),
		})
	}
	return out
}

// AssetDocument renders an asset
func AssetDocument(a *domain.Asset) map[string]any {
	doc := map[string]any{"ticker": a.Ticker, "ccy": a.Currency, "name": nil}
	if a.Name != nil {
		doc["name"] = *a.Name
	}
	return doc
}

// FxRateDocument renders a stored rate
func FxRateDocument(r *domain.FxRate) map[string]any {
	return map[string]any{"date": domain.FormatDate(r.Date), "pair": r.Pair, "rate": r.Rate.String()}
}

// SnapshotDocument renders a stored snapshot
func SnapshotDocument(s *domain.HoldingSnapshot) map[string]any {
	return map[string]any{
		"date":      domain.FormatDate(s.Date),
		"ticker":    s.Ticker,
		"qty":       s.Quantity.String(),
		"price_ccy": s.LocalPrice.String(),
	}
}

// DraftDocument renders entry prefill values; unknown values are null
func DraftDocument(d *entry.Draft) map[string]any {
	doc := map[string]any{
		"date":       domain.FormatDate(d.Date),
		"ticker":     d.Ticker,
		"ccy":        d.Currency,
		"name":       d.Name,
		"auto_price": optional(d.AutoPrice),
		"fx_rate":    optional(d.FxRate),
		"previous":   nil,
	}
	if p := d.Previous; p != nil {
		doc["previous"] = map[string]any{
			"date":      domain.FormatDate(p.Date),
			"qty":       p.Quantity.String(),
			"price_ccy": p.Price.String(),
			"value_jpy": optional(p.ValueHome),
		}
	}
	return doc
}

func optional(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}
