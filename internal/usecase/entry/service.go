package entry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nyasuto/mond/internal/domain"
	"github.com/nyasuto/mond/internal/usecase/valuation"
)

// quantityPlaces is the number of decimal places kept on an implied quantity
const quantityPlaces = 10

// SnapshotInput is a manual snapshot entry.
// When AmountHome is positive the quantity is derived from it and Quantity is ignored.
type SnapshotInput struct {
	Date       time.Time
	Ticker     string
	Quantity   decimal.Decimal
	Price      decimal.Decimal
	AmountHome decimal.Decimal
}

// PreviousSnapshot is the most recent snapshot before a draft's date
type PreviousSnapshot struct {
	Date      time.Time
	Quantity  decimal.Decimal
	Price     decimal.Decimal
	ValueHome *decimal.Decimal // nil when the rate of its date is missing
}

// Draft holds prefill values for a manual snapshot entry.
// Nil fields have no value to offer.
type Draft struct {
	Date      time.Time
	Ticker    string
	Currency  string
	Name      string
	AutoPrice *decimal.Decimal // close from the price series
	FxRate    *decimal.Decimal // 1 for the home currency
	Previous  *PreviousSnapshot
}

// EntryService records reference data and time series points
type EntryService struct {
	AssetRepo    domain.AssetRepository
	FxRateRepo   domain.FxRateRepository
	PriceRepo    domain.PriceRepository
	SnapshotRepo domain.SnapshotRepository
}

// NewEntryService creates a new EntryService instance
func NewEntryService(
	assetRepo domain.AssetRepository,
	fxRateRepo domain.FxRateRepository,
	priceRepo domain.PriceRepository,
	snapshotRepo domain.SnapshotRepository,
) *EntryService {
	return &EntryService{
		AssetRepo:    assetRepo,
		FxRateRepo:   fxRateRepo,
		PriceRepo:    priceRepo,
		SnapshotRepo: snapshotRepo,
	}
}

// RegisterAsset creates or updates an asset. An empty name clears the display name.
func (s *EntryService) RegisterAsset(ctx context.Context, ticker, currency, name string) (*domain.Asset, error) {
	asset := &domain.Asset{
		Ticker:   strings.TrimSpace(ticker),
		Currency: domain.NormalizeCurrency(currency),
	}
	if n := strings.TrimSpace(name); n != "" {
		asset.Name = &n
	}

	if err := asset.Validate(); err != nil {
		return nil, err
	}

	if err := s.AssetRepo.Upsert(ctx, asset); err != nil {
		return nil, fmt.Errorf("failed to upsert asset %s: %w", asset.Ticker, err)
	}
	return asset, nil
}

// RecordFxRate stores the rate converting currency into the home currency on date
func (s *EntryService) RecordFxRate(ctx context.Context, date time.Time, currency string, rate decimal.Decimal) (*domain.FxRate, error) {
	currency = domain.NormalizeCurrency(currency)
	if domain.IsHomeCurrency(currency) {
		return nil, fmt.Errorf("%w: %s is the home currency and has an implicit rate of 1", domain.ErrInvalidInput, currency)
	}

	fx := domain.NewHomeFxRate(date, currency, rate)
	if err := fx.Validate(); err != nil {
		return nil, err
	}

	if err := s.FxRateRepo.Upsert(ctx, fx); err != nil {
		return nil, fmt.Errorf("failed to upsert fx rate %s: %w", fx.Pair, err)
	}
	return fx, nil
}

// RecordPrice stores a close of the external price series
func (s *EntryService) RecordPrice(ctx context.Context, date time.Time, ticker string, closePrice decimal.Decimal) (*domain.PriceObservation, error) {
	price := &domain.PriceObservation{
		Date:   domain.DateOf(date),
		Ticker: strings.TrimSpace(ticker),
		Close:  closePrice,
	}
	if err := price.Validate(); err != nil {
		return nil, err
	}

	if err := s.PriceRepo.Upsert(ctx, price); err != nil {
		return nil, fmt.Errorf("failed to upsert price %s: %w", price.Ticker, err)
	}
	return price, nil
}

// RecordSnapshot stores a holding snapshot.
// Logic:
//  1. The ticker must be registered; unknown tickers are never auto-created
//  2. With a positive AmountHome, quantity = AmountHome / (price * fx) on the snapshot date;
//     the rate must exist (FxGap otherwise)
//  3. Validate quantity >= 0 and price > 0, then upsert
func (s *EntryService) RecordSnapshot(ctx context.Context, in SnapshotInput) (*domain.HoldingSnapshot, error) {
	snapshot := &domain.HoldingSnapshot{
		Date:       domain.DateOf(in.Date),
		Ticker:     strings.TrimSpace(in.Ticker),
		Quantity:   in.Quantity,
		LocalPrice: in.Price,
	}
	if snapshot.Ticker == "" {
		return nil, fmt.Errorf("%w: snapshot ticker cannot be empty", domain.ErrInvalidInput)
	}
	if in.AmountHome.IsNegative() {
		return nil, fmt.Errorf("%w: amount cannot be negative", domain.ErrInvalidInput)
	}

	asset, err := s.AssetRepo.GetByTicker(ctx, snapshot.Ticker)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.MissingReferenceError{Tickers: []string{snapshot.Ticker}}
		}
		return nil, fmt.Errorf("failed to get asset %s: %w", snapshot.Ticker, err)
	}

	if in.AmountHome.IsPositive() && snapshot.LocalPrice.IsPositive() {
		fx, found, err := valuation.RateOn(ctx, s.FxRateRepo, snapshot.Date, asset.Currency)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, domain.FxGap{Date: snapshot.Date, Ticker: snapshot.Ticker, Pair: domain.PairFor(asset.Currency)}
		}
		qty, err := ImpliedQuantity(in.AmountHome, snapshot.LocalPrice, fx)
		if err != nil {
			return nil, err
		}
		snapshot.Quantity = qty
	}

	if err := snapshot.Validate(); err != nil {
		return nil, err
	}

	if err := s.SnapshotRepo.Upsert(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to upsert snapshot %s: %w", snapshot.Ticker, err)
	}
	return snapshot, nil
}

// Draft collects prefill values for entering a snapshot of ticker on date
func (s *EntryService) Draft(ctx context.Context, date time.Time, ticker string) (*Draft, error) {
	date = domain.DateOf(date)
	ticker = strings.TrimSpace(ticker)

	asset, err := s.AssetRepo.GetByTicker(ctx, ticker)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.MissingReferenceError{Tickers: []string{ticker}}
		}
		return nil, fmt.Errorf("failed to get asset %s: %w", ticker, err)
	}

	draft := &Draft{
		Date:     date,
		Ticker:   ticker,
		Currency: asset.Currency,
		Name:     asset.DisplayName(),
	}

	price, err := s.PriceRepo.Get(ctx, date, ticker)
	switch {
	case err == nil:
		draft.AutoPrice = &price.Close
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("failed to get price %s: %w", ticker, err)
	}

	if fx, found, err := valuation.RateOn(ctx, s.FxRateRepo, date, asset.Currency); err != nil {
		return nil, err
	} else if found {
		draft.FxRate = &fx
	}

	prev, err := s.SnapshotRepo.GetPrevious(ctx, ticker, date)
	switch {
	case err == nil:
		draft.Previous = &PreviousSnapshot{
			Date:     prev.Date,
			Quantity: prev.Quantity,
			Price:    prev.LocalPrice,
		}
		fx, found, err := valuation.RateOn(ctx, s.FxRateRepo, domain.DateOf(prev.Date), asset.Currency)
		if err != nil {
			return nil, err
		}
		if found {
			v := valuation.Value(prev.Quantity, prev.LocalPrice, fx)
			draft.Previous.ValueHome = &v
		}
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("failed to get previous snapshot of %s: %w", ticker, err)
	}

	return draft, nil
}

// ImpliedQuantity is amountHome / (price * fx), an entry convenience that is not part of attribution
func ImpliedQuantity(amountHome, price, fx decimal.Decimal) (decimal.Decimal, error) {
	if !price.IsPositive() || !fx.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: price and fx rate must be positive to derive a quantity", domain.ErrInvalidInput)
	}
	return amountHome.DivRound(price.Mul(fx), quantityPlaces), nil
}
