package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// FxRate is the rate converting one unit of the pair's base currency into the quote currency.
// One rate per (date, pair); the latest write wins.
type FxRate struct {
	Date time.Time
	Pair string // base + quote, e.g. "USDJPY"
	Rate decimal.Decimal
}

// NewHomeFxRate builds the rate converting currency into the home currency
func NewHomeFxRate(date time.Time, currency string, rate decimal.Decimal) *FxRate {
	return &FxRate{
		Date: DateOf(date),
		Pair: PairFor(currency),
		Rate: rate,
	}
}

// Base returns the base currency of the pair
func (r *FxRate) Base() string {
	if len(r.Pair) != 6 {
		return ""
	}
	return r.Pair[:3]
}

// Quote returns the quote currency of the pair
func (r *FxRate) Quote() string {
	if len(r.Pair) != 6 {
		return ""
	}
	return r.Pair[3:]
}

// Validate ensures the rate adheres to domain rules
func (r *FxRate) Validate() error {
	if len(r.Pair) != 6 {
		return fmt.Errorf("%w: fx pair must be two 3-letter codes, got %q", ErrInvalidInput, r.Pair)
	}
	if err := ValidateCurrency(r.Base()); err != nil {
		return err
	}
	if err := ValidateCurrency(r.Quote()); err != nil {
		return err
	}
	if r.Base() == r.Quote() {
		return fmt.Errorf("%w: identity pair %s is implicit and never stored", ErrInvalidInput, r.Pair)
	}
	if r.Rate.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: fx rate must be positive", ErrInvalidInput)
	}
	return nil
}
