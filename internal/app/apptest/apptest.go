// Package apptest builds applications over in-memory SQLite for tests
package apptest

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/nyasuto/mond/internal/app"
	"github.com/nyasuto/mond/internal/config"
	"github.com/nyasuto/mond/internal/domain/domaintest"
	"github.com/nyasuto/mond/internal/usecase/entry"
)

// Config returns a configuration for an in-memory SQLite database
func Config() *config.Config {
	return &config.Config{
		Log:         config.LogConfig{Level: "disabled"},
		Database:    config.DatabaseConfig{Driver: config.DriverSQLite, DSN: ":memory:"},
		Server:      config.ServerConfig{APIToken: "test-token", CORSOrigins: []string{"*"}},
		Consistency: config.ConsistencyConfig{Tolerance: "0.000001"},
		Collector: config.CollectorConfig{
			FxBases:        []string{"USD"},
			FxTargets:      []string{"JPY"},
			LookbackDays:   7,
			MaxAttempts:    1,
			InitialBackoff: time.Millisecond,
			Timeout:        time.Second,
		},
		Summary: config.SummaryConfig{Language: "English"},
	}
}

// New opens a migrated in-memory application closed at the end of the test
func New(t *testing.T) *app.App {
	t.Helper()
	a, err := app.Open(context.Background(), Config(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

// Seed records two days of a USD and a JPY holding:
//
//	2024-01-01  VTI 10 @ 200 USD, USDJPY 140  -> 280000; 1306.T 100 @ 2500 -> 250000; total 530000
//	2024-01-02  VTI 12 @ 210 USD, USDJPY 145  -> 365400; 1306.T 100 @ 2550 -> 255000; total 620400
func Seed(t *testing.T, a *app.App) {
	t.Helper()
	ctx := context.Background()
	d1, d2 := domaintest.Day(2024, 1, 1), domaintest.Day(2024, 1, 2)
	D := domaintest.D

	_, err := a.Entry.RegisterAsset(ctx, "VTI", "USD", "Vanguard Total Stock Market ETF")
	require.NoError(t, err)
	_, err = a.Entry.RegisterAsset(ctx, "1306.T", "JPY", "TOPIX ETF")
	require.NoError(t, err)

	_, err = a.Entry.RecordFxRate(ctx, d1, "USD", D("140"))
	require.NoError(t, err)
	_, err = a.Entry.RecordFxRate(ctx, d2, "USD", D("145"))
	require.NoError(t, err)

	for _, in := range []entry.SnapshotInput{
		{Date: d1, Ticker: "VTI", Quantity: D("10"), Price: D("200")},
		{Date: d1, Ticker: "1306.T", Quantity: D("100"), Price: D("2500")},
		{Date: d2, Ticker: "VTI", Quantity: D("12"), Price: D("210")},
		{Date: d2, Ticker: "1306.T", Quantity: D("100"), Price: D("2550")},
	} {
		_, err := a.Entry.RecordSnapshot(ctx, in)
		require.NoError(t, err)
	}
}

// SeedMarket records a close series for VTI and 1306.T and a EURJPY rate next to the USDJPY rates of Seed:
//
//	2024-01-01  VTI 200, 1306.T 2500
//	2024-01-02  VTI 210, 1306.T 2550, EURJPY 160
//	2024-01-03  VTI 215
func SeedMarket(t *testing.T, a *app.App) {
	t.Helper()
	ctx := context.Background()
	d1, d2, d3 := domaintest.Day(2024, 1, 1), domaintest.Day(2024, 1, 2), domaintest.Day(2024, 1, 3)
	D := domaintest.D

	for _, p := range []struct {
		date   time.Time
		ticker string
		close  string
	}{
		{d1, "VTI", "200"}, {d1, "1306.T", "2500"},
		{d2, "VTI", "210"}, {d2, "1306.T", "2550"},
		{d3, "VTI", "215"},
	} {
		_, err := a.Entry.RecordPrice(ctx, p.date, p.ticker, D(p.close))
		require.NoError(t, err)
	}

	_, err := a.Entry.RecordFxRate(ctx, d2, "EUR", D("160"))
	require.NoError(t, err)
}
