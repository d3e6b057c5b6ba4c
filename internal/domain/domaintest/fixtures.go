package domaintest

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nyasuto/mond/internal/domain"
)

// Day returns UTC midnight of the given calendar date
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// D parses a decimal literal and panics on malformed input
func D(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Snapshot builds a holding snapshot from decimal literals
func Snapshot(date time.Time, ticker, quantity, price string) *domain.HoldingSnapshot {
	return &domain.HoldingSnapshot{
		Date:       date,
		Ticker:     ticker,
		Quantity:   D(quantity),
		LocalPrice: D(price),
	}
}

// Rate builds the home-currency rate of currency on date
func Rate(date time.Time, currency, rate string) *domain.FxRate {
	return domain.NewHomeFxRate(date, currency, D(rate))
}

// NotFound wraps domain.ErrNotFound the way store adapters do
func NotFound(what string) error {
	return fmt.Errorf("%s not found: %w", what, domain.ErrNotFound)
}
