package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// HoldingSnapshot states that, as of Date, the position held Quantity units of Ticker,
// each worth LocalPrice in the asset's own currency.
// Quantity changes between consecutive snapshots are purchases or sales (flow).
type HoldingSnapshot struct {
	Date       time.Time
	Ticker     string
	Quantity   decimal.Decimal
	LocalPrice decimal.Decimal
}

// Validate ensures the snapshot adheres to domain rules
func (s *HoldingSnapshot) Validate() error {
	if strings.TrimSpace(s.Ticker) == "" {
		return fmt.Errorf("%w: snapshot ticker cannot be empty", ErrInvalidInput)
	}
	if s.Quantity.IsNegative() {
		return fmt.Errorf("%w: quantity cannot be negative", ErrInvalidInput)
	}
	if s.LocalPrice.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: local price must be positive", ErrInvalidInput)
	}
	return nil
}
