package domain

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
)

// HomeCurrency is the single currency portfolio totals and attribution are expressed in.
// Its rate to itself is the identity and is never stored.
const HomeCurrency = "JPY"

// NormalizeCurrency upper-cases and trims a currency code
func NormalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateCurrency ensures code is a known 3-letter ISO 4217 currency
func ValidateCurrency(code string) error {
	if len(code) != 3 {
		return fmt.Errorf("%w: currency must be a 3-letter code, got %q", ErrInvalidInput, code)
	}
	if money.GetCurrency(code) == nil {
		return fmt.Errorf("%w: unknown currency %q", ErrInvalidInput, code)
	}
	return nil
}

// PairFor returns the FX pair that converts currency into the home currency (e.g. USD -> USDJPY)
func PairFor(currency string) string {
	return currency + HomeCurrency
}

// IsHomeCurrency reports whether currency needs no FX lookup
func IsHomeCurrency(currency string) bool {
	return currency == HomeCurrency
}
