package attribution

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nyasuto/mond/internal/domain"
)

// Leg is one side of an attribution: a snapshot and the home rate on its date
type Leg struct {
	Date     time.Time
	Quantity decimal.Decimal
	Price    decimal.Decimal
	Fx       decimal.Decimal
}

// Value is quantity * price * fx
func (l Leg) Value() decimal.Decimal {
	return l.Quantity.Mul(l.Price).Mul(l.Fx)
}

// Decompose splits the home-value change of a ticker between prev and cur.
// Logic:
//   - delta_price = qty₋₁ * Δprice * fx₋₁
//   - delta_fx    = qty₋₁ * price₋₁ * Δfx
//   - delta_cross = qty₋₁ * Δprice * Δfx
//   - flow        = Δqty * price * fx
//
// Price and FX effects hold the prior quantity constant; flow is valued at the new price and rate.
// With exact decimal arithmetic the four components always add up to delta_total.
func Decompose(ticker string, prev, cur Leg) domain.AttributionRow {
	dPrice := cur.Price.Sub(prev.Price)
	dFx := cur.Fx.Sub(prev.Fx)
	dQty := cur.Quantity.Sub(prev.Quantity)

	return domain.AttributionRow{
		Date:       cur.Date,
		PrevDate:   prev.Date,
		Ticker:     ticker,
		DeltaTotal: cur.Value().Sub(prev.Value()),
		DeltaPrice: prev.Quantity.Mul(dPrice).Mul(prev.Fx),
		DeltaFx:    prev.Quantity.Mul(prev.Price).Mul(dFx),
		DeltaCross: prev.Quantity.Mul(dPrice).Mul(dFx),
		Flow:       dQty.Mul(cur.Price).Mul(cur.Fx),
	}
}

// Portfolio sums each component of rows independently into the synthetic PORTFOLIO row of date.
// Its PrevDate is left zero since the tickers it sums may have different baselines.
func Portfolio(date time.Time, rows []domain.AttributionRow) domain.AttributionRow {
	total := domain.AttributionRow{
		Date:       date,
		Ticker:     domain.PortfolioTicker,
		DeltaTotal: decimal.Zero,
		DeltaPrice: decimal.Zero,
		DeltaFx:    decimal.Zero,
		DeltaCross: decimal.Zero,
		Flow:       decimal.Zero,
	}
	for _, r := range rows {
		total.DeltaTotal = total.DeltaTotal.Add(r.DeltaTotal)
		total.DeltaPrice = total.DeltaPrice.Add(r.DeltaPrice)
		total.DeltaFx = total.DeltaFx.Add(r.DeltaFx)
		total.DeltaCross = total.DeltaCross.Add(r.DeltaCross)
		total.Flow = total.Flow.Add(r.Flow)
	}
	return total
}

// WithPortfolio prepends the PORTFOLIO row to the ticker rows of one date and sorts them.
// A date without any ticker row gets no PORTFOLIO row either.
func WithPortfolio(date time.Time, rows []domain.AttributionRow) []domain.AttributionRow {
	if len(rows) == 0 {
		return []domain.AttributionRow{}
	}
	out := make([]domain.AttributionRow, 0, len(rows)+1)
	out = append(out, Portfolio(date, rows))
	out = append(out, rows...)
	domain.SortAttributionRows(out)
	return out
}
