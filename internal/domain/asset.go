package domain

import (
	"fmt"
	"strings"
)

// Asset is an entry of the asset registry.
// Assets are created or updated by explicit registration and never deleted,
// so historical snapshots always remain resolvable.
type Asset struct {
	Ticker   string
	Currency string  // 3-letter trading currency
	Name     *string // optional display name
}

// Validate ensures the asset adheres to domain rules
func (a *Asset) Validate() error {
	if strings.TrimSpace(a.Ticker) == "" {
		return fmt.Errorf("%w: asset ticker cannot be empty", ErrInvalidInput)
	}
	if a.Ticker == PortfolioTicker {
		return fmt.Errorf("%w: ticker %q is reserved", ErrInvalidInput, PortfolioTicker)
	}
	return ValidateCurrency(a.Currency)
}

// DisplayName returns the name when set, the ticker otherwise
func (a *Asset) DisplayName() string {
	if a.Name != nil && *a.Name != "" {
		return *a.Name
	}
	return a.Ticker
}
