package collector

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/nyasuto/mond/internal/domain"
)

// Close is one daily close of a feed symbol
type Close struct {
	Date  time.Time
	Value decimal.Decimal
}

// Feed provides daily closes for a symbol within [start, end].
// Transient failures are retried by the implementation; a returned error is final.
type Feed interface {
	DailyCloses(ctx context.Context, symbol string, start, end time.Time) ([]Close, error)
}

// TickerSpec maps a stored ticker to its feed symbol
type TickerSpec struct {
	Ticker string
	Symbol string
}

// FxRequest fetches every BASE+TARGET pair of Bases x Targets
type FxRequest struct {
	Bases   []string
	Targets []string
	Start   time.Time
	End     time.Time
	DryRun  bool
}

// PriceRequest fetches the closes of every ticker
type PriceRequest struct {
	Tickers []TickerSpec
	Start   time.Time
	End     time.Time
	DryRun  bool
}

// FxBatch is the outcome of one FX collection run
type FxBatch struct {
	ID      uuid.UUID
	Rates   []*domain.FxRate // ordered by date, pair
	Written bool
}

// PriceBatch is the outcome of one price collection run
type PriceBatch struct {
	ID      uuid.UUID
	Prices  []*domain.PriceObservation // ordered by date, ticker
	Written bool
}

// CollectorService populates the FX and price series from a feed.
// A batch is all or nothing: every symbol is fetched before anything is written.
type CollectorService struct {
	Feed       Feed
	FxRateRepo domain.FxRateRepository
	PriceRepo  domain.PriceRepository
	log        zerolog.Logger
}

// NewCollectorService creates a new CollectorService instance
func NewCollectorService(feed Feed, fxRateRepo domain.FxRateRepository, priceRepo domain.PriceRepository, log zerolog.Logger) *CollectorService {
	return &CollectorService{
		Feed:       feed,
		FxRateRepo: fxRateRepo,
		PriceRepo:  priceRepo,
		log:        log.With().Str("component", "collector").Logger(),
	}
}

// CollectFx fetches FX closes and upserts them as rates.
// Logic:
//  1. Validate the range and currency codes
//  2. Fetch BASE+TARGET=X for every pair; any failure aborts the batch with nothing written
//  3. Unless DryRun, upsert every rate in one transaction
func (s *CollectorService) CollectFx(ctx context.Context, req FxRequest) (*FxBatch, error) {
	start, end, err := checkRange(req.Start, req.End)
	if err != nil {
		return nil, err
	}

	pairs, err := fxPairs(req.Bases, req.Targets)
	if err != nil {
		return nil, err
	}

	batch := &FxBatch{ID: uuid.New(), Rates: make([]*domain.FxRate, 0)}
	log := s.log.With().Str("batch_id", batch.ID.String()).Str("kind", "fx").Logger()

	for _, pair := range pairs {
		symbol := pair + "=X"
		closes, err := s.Feed.DailyCloses(ctx, symbol, start, end)
		if err != nil {
			log.Error().Err(err).Str("symbol", symbol).Msg("fetch failed, batch aborted")
			return nil, fmt.Errorf("failed to fetch %s: %w", symbol, err)
		}
		for _, c := range closes {
			rate := &domain.FxRate{Date: domain.DateOf(c.Date), Pair: pair, Rate: c.Value}
			if err := rate.Validate(); err != nil {
				return nil, fmt.Errorf("invalid close for %s on %s: %w", symbol, domain.FormatDate(c.Date), err)
			}
			batch.Rates = append(batch.Rates, rate)
		}
		log.Info().Str("symbol", symbol).Int("closes", len(closes)).Msg("fetched")
	}

	sort.SliceStable(batch.Rates, func(i, j int) bool {
		if !batch.Rates[i].Date.Equal(batch.Rates[j].Date) {
			return batch.Rates[i].Date.Before(batch.Rates[j].Date)
		}
		return batch.Rates[i].Pair < batch.Rates[j].Pair
	})

	if req.DryRun {
		log.Info().Int("rates", len(batch.Rates)).Msg("dry run, nothing written")
		return batch, nil
	}

	if err := s.FxRateRepo.UpsertBatch(ctx, batch.Rates); err != nil {
		return nil, fmt.Errorf("failed to write fx batch %s: %w", batch.ID, err)
	}
	batch.Written = true
	log.Info().Int("rates", len(batch.Rates)).Msg("fx batch written")
	return batch, nil
}

// CollectPrices fetches closes for every ticker and upserts them into the price series.
// Failure semantics match CollectFx.
func (s *CollectorService) CollectPrices(ctx context.Context, req PriceRequest) (*PriceBatch, error) {
	start, end, err := checkRange(req.Start, req.End)
	if err != nil {
		return nil, err
	}
	if len(req.Tickers) == 0 {
		return nil, fmt.Errorf("%w: no tickers to fetch", domain.ErrInvalidInput)
	}

	batch := &PriceBatch{ID: uuid.New(), Prices: make([]*domain.PriceObservation, 0)}
	log := s.log.With().Str("batch_id", batch.ID.String()).Str("kind", "prices").Logger()

	for _, spec := range req.Tickers {
		closes, err := s.Feed.DailyCloses(ctx, spec.Symbol, start, end)
		if err != nil {
			log.Error().Err(err).Str("ticker", spec.Ticker).Str("symbol", spec.Symbol).Msg("fetch failed, batch aborted")
			return nil, fmt.Errorf("failed to fetch %s (symbol %s): %w", spec.Ticker, spec.Symbol, err)
		}
		for _, c := range closes {
			price := &domain.PriceObservation{Date: domain.DateOf(c.Date), Ticker: spec.Ticker, Close: c.Value}
			if err := price.Validate(); err != nil {
				return nil, fmt.Errorf("invalid close for %s on %s: %w", spec.Ticker, domain.FormatDate(c.Date), err)
			}
			batch.Prices = append(batch.Prices, price)
		}
		log.Info().Str("ticker", spec.Ticker).Str("symbol", spec.Symbol).Int("closes", len(closes)).Msg("fetched")
	}

	sort.SliceStable(batch.Prices, func(i, j int) bool {
		if !batch.Prices[i].Date.Equal(batch.Prices[j].Date) {
			return batch.Prices[i].Date.Before(batch.Prices[j].Date)
		}
		return batch.Prices[i].Ticker < batch.Prices[j].Ticker
	})

	if req.DryRun {
		log.Info().Int("prices", len(batch.Prices)).Msg("dry run, nothing written")
		return batch, nil
	}

	if err := s.PriceRepo.UpsertBatch(ctx, batch.Prices); err != nil {
		return nil, fmt.Errorf("failed to write price batch %s: %w", batch.ID, err)
	}
	batch.Written = true
	log.Info().Int("prices", len(batch.Prices)).Msg("price batch written")
	return batch, nil
}

// ParseTickerSpecs parses TICKER or TICKER=SYMBOL entries; both sides must be non-empty
func ParseTickerSpecs(specs []string) ([]TickerSpec, error) {
	out := make([]TickerSpec, 0, len(specs))
	for _, raw := range specs {
		ticker, symbol, found := strings.Cut(raw, "=")
		if !found {
			symbol = ticker
		}
		ticker, symbol = strings.TrimSpace(ticker), strings.TrimSpace(symbol)
		if ticker == "" || symbol == "" {
			return nil, fmt.Errorf("%w: invalid ticker mapping %q", domain.ErrInvalidInput, raw)
		}
		out = append(out, TickerSpec{Ticker: ticker, Symbol: symbol})
	}
	return out, nil
}

func checkRange(start, end time.Time) (time.Time, time.Time, error) {
	start, end = domain.DateOf(start), domain.DateOf(end)
	if end.Before(start) {
		return start, end, fmt.Errorf("%w: end date must be on or after start date", domain.ErrInvalidInput)
	}
	return start, end, nil
}

func fxPairs(bases, targets []string) ([]string, error) {
	if len(bases) == 0 || len(targets) == 0 {
		return nil, fmt.Errorf("%w: fx collection needs at least one base and one target currency", domain.ErrInvalidInput)
	}
	seen := make(map[string]bool)
	pairs := make([]string, 0, len(bases)*len(targets))
	for _, b := range bases {
		base := domain.NormalizeCurrency(b)
		if err := domain.ValidateCurrency(base); err != nil {
			return nil, err
		}
		for _, t := range targets {
			target := domain.NormalizeCurrency(t)
			if err := domain.ValidateCurrency(target); err != nil {
				return nil, err
			}
			if base == target || seen[base+target] {
				continue
			}
			seen[base+target] = true
			pairs = append(pairs, base+target)
		}
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("%w: no fx pair to fetch", domain.ErrInvalidInput)
	}
	return pairs, nil
}
