package sqldb

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Dates are stored as YYYY-MM-DD text and decimals as text, so values round-trip exactly in both dialects

func parseDecimal(column, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse %s: %w", column, err)
	}
	return d, nil
}
