package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Valuation is a derived home-currency value for one (date, ticker).
// It is never stored.
type Valuation struct {
	Date       time.Time
	Ticker     string
	Currency   string
	Quantity   decimal.Decimal
	LocalPrice decimal.Decimal
	FxRate     decimal.Decimal // 1 for home-currency assets
	ValueHome  decimal.Decimal // Quantity * LocalPrice * FxRate
}

// CurrencyExposure is the home-currency value held in one trading currency on a date
type CurrencyExposure struct {
	Date      time.Time
	Currency  string
	ValueHome decimal.Decimal
}

// PortfolioTotal is the home-currency value of every resolvable valuation on a date
type PortfolioTotal struct {
	Date      time.Time
	ValueHome decimal.Decimal
}

// WeightedValuation attaches an asset's share of the portfolio total.
// Weight is nil when the total is zero.
type WeightedValuation struct {
	Valuation
	PortfolioValue decimal.Decimal
	Weight         *decimal.Decimal
}
