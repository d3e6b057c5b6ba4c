// Package app wires configuration, storage, and use cases into one object
// shared by the server and the CLI.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/nyasuto/mond/internal/adapter/gemini"
	"github.com/nyasuto/mond/internal/adapter/repository/sqldb"
	"github.com/nyasuto/mond/internal/adapter/yahoo"
	"github.com/nyasuto/mond/internal/config"
	"github.com/nyasuto/mond/internal/domain"
	"github.com/nyasuto/mond/internal/usecase/aggregation"
	"github.com/nyasuto/mond/internal/usecase/attribution"
	"github.com/nyasuto/mond/internal/usecase/collector"
	"github.com/nyasuto/mond/internal/usecase/consistency"
	"github.com/nyasuto/mond/internal/usecase/entry"
	"github.com/nyasuto/mond/internal/usecase/market"
	"github.com/nyasuto/mond/internal/usecase/report"
	"github.com/nyasuto/mond/internal/usecase/summary"
	"github.com/nyasuto/mond/internal/usecase/valuation"
)

// App holds the repositories and services of one database
type App struct {
	Config *config.Config
	Log    zerolog.Logger
	DB     *sqldb.DB

	Assets    domain.AssetRepository
	FxRates   domain.FxRateRepository
	Prices    domain.PriceRepository
	Snapshots domain.SnapshotRepository

	Entry       *entry.EntryService
	Valuation   *valuation.ValuationService
	Aggregation *aggregation.AggregationService
	Attribution *attribution.AttributionService
	Consistency *consistency.ConsistencyService
	Reports     *report.ReportService
	Market      *market.MarketService
	Summary     *summary.SummaryService
	Collector   *collector.CollectorService
}

// Open connects to the configured database, applies migrations and wires the services
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	db, err := sqldb.NewDB(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Migrate(ctx, log); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	a, err := New(ctx, cfg, db, log)
	if err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

// New wires the services over an already migrated database.
// The summarizer is only configured when an API key is present.
func New(ctx context.Context, cfg *config.Config, db *sqldb.DB, log zerolog.Logger) (*App, error) {
	tolerance, err := cfg.Tolerance()
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:    cfg,
		Log:       log,
		DB:        db,
		Assets:    sqldb.NewAssetRepository(db),
		FxRates:   sqldb.NewFxRateRepository(db),
		Prices:    sqldb.NewPriceRepository(db),
		Snapshots: sqldb.NewSnapshotRepository(db),
	}

	a.Entry = entry.NewEntryService(a.Assets, a.FxRates, a.Prices, a.Snapshots)
	a.Valuation = valuation.NewValuationService(a.Assets, a.FxRates, a.Snapshots)
	a.Aggregation = aggregation.NewAggregationService(a.Valuation, a.Snapshots)
	a.Attribution = attribution.NewAttributionService(a.Assets, a.FxRates, a.Snapshots)
	a.Consistency = consistency.NewConsistencyService(a.Assets, a.FxRates, a.Snapshots, tolerance)
	a.Reports = report.NewReportService(a.Valuation, a.Aggregation, a.Attribution, a.Consistency, log)
	a.Market = market.NewMarketService(a.FxRates, a.Prices, a.Snapshots)

	var summarizer summary.Summarizer
	if cfg.Summary.APIKey != "" {
		g, err := gemini.NewSummarizer(ctx, cfg.Summary.APIKey, cfg.Summary.Model)
		if err != nil {
			return nil, err
		}
		summarizer = g
	}
	a.Summary = summary.NewSummaryService(a.Reports, summarizer, cfg.Summary.Language)

	feed := yahoo.NewClient(yahoo.Config{
		BaseURL:        cfg.Yahoo.BaseURL,
		Timeout:        cfg.Collector.Timeout,
		MaxAttempts:    cfg.Collector.MaxAttempts,
		InitialBackoff: cfg.Collector.InitialBackoff,
	}, log)
	a.Collector = collector.NewCollectorService(feed, a.FxRates, a.Prices, log)

	return a, nil
}

// CollectorPlan builds the scheduled collection plan from configuration.
// collector.base_currency is used when collector.fx_bases is empty.
func (a *App) CollectorPlan() (collector.Plan, error) {
	c := a.Config.Collector
	tickers, err := collector.ParseTickerSpecs(c.Tickers)
	if err != nil {
		return collector.Plan{}, err
	}

	bases := c.FxBases
	if len(bases) == 0 && c.BaseCurrency != "" {
		bases = []string{c.BaseCurrency}
	}
	return collector.Plan{
		FxBases:      bases,
		FxTargets:    c.FxTargets,
		Tickers:      tickers,
		LookbackDays: c.LookbackDays,
	}, nil
}

// Close releases the database connection
func (a *App) Close() error {
	if a.DB == nil {
		return nil
	}
	if err := a.DB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
