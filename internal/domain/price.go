package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PriceObservation is a daily close from an external feed.
// It only pre-fills manual snapshot entry; the snapshot's own price is authoritative for valuation.
type PriceObservation struct {
	Date   time.Time
	Ticker string
	Close  decimal.Decimal
}

// Validate ensures the observation adheres to domain rules
func (p *PriceObservation) Validate() error {
	if strings.TrimSpace(p.Ticker) == "" {
		return fmt.Errorf("%w: price ticker cannot be empty", ErrInvalidInput)
	}
	if p.Close.IsNegative() {
		return fmt.Errorf("%w: close price cannot be negative", ErrInvalidInput)
	}
	return nil
}
