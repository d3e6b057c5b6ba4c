package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Error taxonomy. Engines report these as structured results so callers can
// render partial output; only store failures abort a computation.
var (
	ErrNotFound              = errors.New("not found")
	ErrInvalidInput          = errors.New("invalid input")
	ErrMissingReferenceData  = errors.New("missing reference data")
	ErrFxGap                 = errors.New("fx gap")
	ErrNoBaseline            = errors.New("no baseline")
	ErrReconciliationFailure = errors.New("reconciliation failure")
)

// FxGap records a non-home-currency asset whose rate is missing for a required date
type FxGap struct {
	Date   time.Time
	Ticker string
	Pair   string
}

func (g FxGap) Error() string {
	return fmt.Sprintf("fx gap: no %s rate on %s for %s", g.Pair, FormatDate(g.Date), g.Ticker)
}

func (g FxGap) Unwrap() error { return ErrFxGap }

// MissingPairs returns the distinct pairs named by gaps, sorted
func MissingPairs(gaps []FxGap) []string {
	seen := make(map[string]bool)
	pairs := make([]string, 0, len(gaps))
	for _, g := range gaps {
		if seen[g.Pair] {
			continue
		}
		seen[g.Pair] = true
		pairs = append(pairs, g.Pair)
	}
	sort.Strings(pairs)
	return pairs
}

// MissingReferenceError is returned when snapshots reference unregistered tickers
type MissingReferenceError struct {
	Tickers []string
}

func (e *MissingReferenceError) Error() string {
	return fmt.Sprintf("missing reference data: unregistered tickers %s", strings.Join(e.Tickers, ", "))
}

func (e *MissingReferenceError) Unwrap() error { return ErrMissingReferenceData }

// Mismatch is an attribution row whose components do not reconstruct its total
type Mismatch struct {
	Date     time.Time
	Ticker   string
	Residual decimal.Decimal // (price + fx + cross + flow) - total
}

// ReconciliationError signals an engine bug: it must never be swallowed
type ReconciliationError struct {
	Mismatches []Mismatch
}

func (e *ReconciliationError) Error() string {
	parts := make([]string, 0, len(e.Mismatches))
	for _, m := range e.Mismatches {
		parts = append(parts, fmt.Sprintf("%s %s residual=%s", FormatDate(m.Date), m.Ticker, m.Residual.String()))
	}
	return "reconciliation failure: " + strings.Join(parts, "; ")
}

func (e *ReconciliationError) Unwrap() error { return ErrReconciliationFailure }
