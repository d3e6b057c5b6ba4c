package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// PortfolioTicker is the synthetic ticker that sums attribution across all tickers of a date
const PortfolioTicker = "PORTFOLIO"

// AttributionRow decomposes the home-currency value change of a ticker between
// its previous snapshot (PrevDate) and the current one (Date).
//
// Invariant: DeltaPrice + DeltaFx + DeltaCross + Flow == DeltaTotal
type AttributionRow struct {
	Date       time.Time
	PrevDate   time.Time
	Ticker     string
	DeltaTotal decimal.Decimal
	DeltaPrice decimal.Decimal
	DeltaFx    decimal.Decimal
	DeltaCross decimal.Decimal
	Flow       decimal.Decimal
}

// ComponentSum is DeltaPrice + DeltaFx + DeltaCross + Flow
func (r *AttributionRow) ComponentSum() decimal.Decimal {
	return r.DeltaPrice.Add(r.DeltaFx).Add(r.DeltaCross).Add(r.Flow)
}

// Residual is ComponentSum - DeltaTotal; zero for a consistent row
func (r *AttributionRow) Residual() decimal.Decimal {
	return r.ComponentSum().Sub(r.DeltaTotal)
}

// SortAttributionRows orders rows by date, then PORTFOLIO first, then ticker ascending
func SortAttributionRows(rows []AttributionRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.Before(rows[j].Date)
		}
		pi, pj := rows[i].Ticker == PortfolioTicker, rows[j].Ticker == PortfolioTicker
		if pi != pj {
			return pi
		}
		return rows[i].Ticker < rows[j].Ticker
	})
}
