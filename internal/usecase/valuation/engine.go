package valuation

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nyasuto/mond/internal/domain"
)

// Input bundles the facts needed to value one date
type Input struct {
	Date      time.Time
	Snapshots []*domain.HoldingSnapshot
	Assets    map[string]*domain.Asset   // ticker -> asset
	Rates     map[string]decimal.Decimal // pair -> rate on Date
}

// Result is the valuation of one date.
// Rows that cannot be valued are omitted from Valuations and reported in FxGaps or MissingAssets.
type Result struct {
	Date          time.Time
	Valuations    []domain.Valuation
	FxGaps        []domain.FxGap
	MissingAssets []string
}

// Compute values every snapshot of a date in the home currency.
// Logic:
//  1. Resolve the snapshot's asset; unregistered tickers are reported, not auto-created
//  2. Home-currency assets use an FX rate of exactly 1 without any lookup
//  3. Other currencies need the (date, CCY+HOME) rate; a missing rate is an FX gap, never defaulted
//  4. value_home = quantity * local_price * fx_rate
//
// Output is ordered by ticker so identical inputs always produce identical results.
func Compute(in Input) Result {
	snapshots := make([]*domain.HoldingSnapshot, len(in.Snapshots))
	copy(snapshots, in.Snapshots)
	sort.SliceStable(snapshots, func(i, j int) bool {
		return snapshots[i].Ticker < snapshots[j].Ticker
	})

	result := Result{
		Date:          in.Date,
		Valuations:    make([]domain.Valuation, 0, len(snapshots)),
		FxGaps:        make([]domain.FxGap, 0),
		MissingAssets: make([]string, 0),
	}

	for _, snap := range snapshots {
		asset, ok := in.Assets[snap.Ticker]
		if !ok {
			result.MissingAssets = append(result.MissingAssets, snap.Ticker)
			continue
		}

		fx, ok := rateFor(asset.Currency, in.Rates)
		if !ok {
			result.FxGaps = append(result.FxGaps, domain.FxGap{
				Date:   in.Date,
				Ticker: snap.Ticker,
				Pair:   domain.PairFor(asset.Currency),
			})
			continue
		}

		result.Valuations = append(result.Valuations, domain.Valuation{
			Date:       in.Date,
			Ticker:     snap.Ticker,
			Currency:   asset.Currency,
			Quantity:   snap.Quantity,
			LocalPrice: snap.LocalPrice,
			FxRate:     fx,
			ValueHome:  Value(snap.Quantity, snap.LocalPrice, fx),
		})
	}

	return result
}

// Value is quantity * local price * fx rate
func Value(quantity, localPrice, fx decimal.Decimal) decimal.Decimal {
	return quantity.Mul(localPrice).Mul(fx)
}

func rateFor(currency string, rates map[string]decimal.Decimal) (decimal.Decimal, bool) {
	if domain.IsHomeCurrency(currency) {
		return decimal.NewFromInt(1), true
	}
	rate, ok := rates[domain.PairFor(currency)]
	return rate, ok
}
