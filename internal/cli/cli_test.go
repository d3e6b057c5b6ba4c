package cli

import (
	"bytes"
	"context"
	"flag"
	"strings"
	"testing"
	"time"

	"github.com/google/subcommands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nyasuto/mond/internal/adapter/presenter"
	"github.com/nyasuto/mond/internal/app"
	"github.com/nyasuto/mond/internal/app/apptest"
	. "github.com/nyasuto/mond/internal/domain/domaintest"
	"github.com/nyasuto/mond/internal/usecase/collector"
)

type MockFeed struct {
	mock.Mock
}

func (m *MockFeed) DailyCloses(ctx context.Context, symbol string, start, end time.Time) ([]collector.Close, error) {
	args := m.Called(ctx, symbol, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]collector.Close), args.Error(1)
}

func newEnv(t *testing.T, seed bool) (*Env, *app.App, *bytes.Buffer) {
	t.Helper()
	a := apptest.New(t)
	if seed {
		apptest.Seed(t, a)
	}
	var out bytes.Buffer
	env := &Env{
		Out:   &out,
		Err:   &bytes.Buffer{},
		Plain: true,
		Now:   func() time.Time { return Day(2024, 1, 2) },
		Open:  func(context.Context) (*app.App, error) { return a, nil },
	}
	return env, a, &out
}

func run(env *Env, args ...string) subcommands.ExitStatus {
	fs := flag.NewFlagSet("mond", flag.ContinueOnError)
	cmdr := subcommands.NewCommander(fs, "mond")
	cmdr.Output = &bytes.Buffer{}
	cmdr.Error = &bytes.Buffer{}
	Register(cmdr, env)
	if err := fs.Parse(args); err != nil {
		return subcommands.ExitUsageError
	}
	return cmdr.Execute(context.Background())
}

func TestAssetCmd(t *testing.T) {
	env, a, out := newEnv(t, false)

	status := run(env, "asset", "-ticker", "VTI", "-ccy", "usd", "-name", "Vanguard")

	assert.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out.String(), "registered VTI (USD) Vanguard")

	asset, err := a.Assets.GetByTicker(context.Background(), "VTI")
	require.NoError(t, err)
	assert.Equal(t, "USD", asset.Currency)

	out.Reset()
	assert.Equal(t, subcommands.ExitSuccess, run(env, "asset"))
	assert.Contains(t, out.String(), "VTI")

	assert.Equal(t, subcommands.ExitUsageError, run(env, "asset", "-ticker", "X", "-ccy", "ZZ"))
}

func TestEntryCmds(t *testing.T) {
	env, a, out := newEnv(t, false)
	ctx := context.Background()
	_, err := a.Entry.RegisterAsset(ctx, "VTI", "USD", "")
	require.NoError(t, err)

	assert.Equal(t, subcommands.ExitSuccess, run(env, "fx", "-ccy", "USD", "-rate", "145"))
	assert.Contains(t, out.String(), "2024-01-02 USDJPY = 145")

	assert.Equal(t, subcommands.ExitSuccess, run(env, "price", "-ticker", "VTI", "-close", "210"))

	// Quantity derived from the JPY amount: 304500 / (210 * 145)
	out.Reset()
	assert.Equal(t, subcommands.ExitSuccess, run(env, "snapshot", "-ticker", "VTI", "-price", "210", "-amount", "304500"))
	assert.Contains(t, out.String(), "VTI qty 10 @ 210")

	assert.Equal(t, subcommands.ExitUsageError, run(env, "snapshot", "-ticker", "VTI", "-price", "210"))
	assert.Equal(t, subcommands.ExitUsageError, run(env, "fx", "-ccy", "USD", "-rate", "abc"))
	assert.Equal(t, subcommands.ExitFailure, run(env, "snapshot", "-ticker", "GHOST", "-price", "1", "-qty", "1"))

	out.Reset()
	assert.Equal(t, subcommands.ExitSuccess, run(env, "draft", "-date", "2024-01-03", "-ticker", "VTI"))
	assert.Contains(t, out.String(), "2024-01-03")
}

func TestReportCmd(t *testing.T) {
	env, _, out := newEnv(t, true)

	assert.Equal(t, subcommands.ExitSuccess, run(env, "report"))
	assert.Contains(t, out.String(), "620,400")

	out.Reset()
	assert.Equal(t, subcommands.ExitSuccess, run(env, "report", "-date", "2024-01-02", "-csv", "attribution"))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "date,prev_date,ticker,delta_total,delta_price,delta_fx,delta_cross,flow", lines[0])
	assert.Equal(t, "2024-01-02,,PORTFOLIO,90400,19000,10000,500,60900", lines[1])

	assert.Equal(t, subcommands.ExitUsageError, run(env, "report", "-csv", "positions"))
}

func TestCheckCmd(t *testing.T) {
	env, _, out := newEnv(t, true)

	assert.Equal(t, subcommands.ExitSuccess, run(env, "check", "-date", "2024-01-02"))
	assert.Contains(t, out.String(), "3 attribution rows reconcile")
	assert.Contains(t, out.String(), "fx rates complete")

	// A USD snapshot without its rate
	out.Reset()
	assert.Equal(t, subcommands.ExitSuccess, run(env, "snapshot", "-date", "2024-01-03", "-ticker", "VTI", "-qty", "12", "-price", "215"))
	assert.Equal(t, subcommands.ExitFailure, run(env, "check", "-date", "2024-01-03"))
	assert.Contains(t, out.String(), "missing fx pairs USDJPY")
}

func TestHistoryCmd(t *testing.T) {
	env, _, out := newEnv(t, true)

	assert.Equal(t, subcommands.ExitSuccess, run(env, "history", "-limit", "1"))
	assert.Contains(t, out.String(), "2024-01-01 to 2024-01-02")

	assert.Equal(t, subcommands.ExitUsageError, run(env, "history", "-start", "2024-01-02", "-end", "2024-01-01"))
}

func TestReportCmd_Ticker(t *testing.T) {
	env, _, out := newEnv(t, true)

	assert.Equal(t, subcommands.ExitSuccess, run(env, "report", "-ticker", "VTI"))
	assert.Contains(t, out.String(), "VTI on 2024-01-02")
	// 365400 / 620400
	assert.Contains(t, out.String(), "0.5890")
	assert.Contains(t, out.String(), "60900")

	assert.Equal(t, subcommands.ExitFailure, run(env, "report", "-date", "2024-01-01", "-ticker", "VTI"))
}

func TestMarketCmd(t *testing.T) {
	env, a, out := newEnv(t, true)
	apptest.SeedMarket(t, a)

	status := run(env, "market", "-start", "2024-01-01", "-end", "2024-01-03", "-tickers", "VTI", "-pairs", "usdjpy")

	assert.Equal(t, subcommands.ExitSuccess, status)
	text := out.String()
	assert.Contains(t, text, "2024-01-01 to 2024-01-03")
	assert.Contains(t, text, "Stored pairs: EURJPY, USDJPY")
	for _, v := range []string{"200", "210", "215", "140", "145"} {
		assert.Contains(t, text, v)
	}
	assert.NotContains(t, text, "2500")
	assert.NotContains(t, text, "160")

	assert.Equal(t, subcommands.ExitUsageError, run(env, "market", "-start", "2024-01-03", "-end", "2024-01-01"))
}

func TestSnapshotsCmd(t *testing.T) {
	env, _, out := newEnv(t, true)

	assert.Equal(t, subcommands.ExitSuccess, run(env, "snapshots", "-limit", "2"))
	text := out.String()
	assert.Contains(t, text, "2550")
	assert.NotContains(t, text, "2024-01-01")

	assert.Equal(t, subcommands.ExitUsageError, run(env, "snapshots", "-limit", "-1"))
}

func TestSummarizeCmd_NotConfigured(t *testing.T) {
	env, _, _ := newEnv(t, true)

	assert.Equal(t, subcommands.ExitFailure, run(env, "summarize"))
}

func TestFetchFxCmd_DryRun(t *testing.T) {
	env, a, out := newEnv(t, false)
	feed := new(MockFeed)
	a.Collector.Feed = feed
	d1, d2 := Day(2024, 1, 1), Day(2024, 1, 2)
	feed.On("DailyCloses", mock.Anything, "USDJPY=X", d1, d2).
		Return([]collector.Close{{Date: d1, Value: D("141")}, {Date: d2, Value: D("142")}}, nil)

	status := run(env, "fetch-fx", "-start", "2024-01-01", "-dry-run")

	assert.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out.String(), "dry run, nothing written")
	rates, err := a.Market.FxHistory(context.Background(), nil, d1, d2)
	require.NoError(t, err)
	assert.Empty(t, rates)
	feed.AssertExpectations(t)
}

func TestFetchPricesCmd(t *testing.T) {
	env, a, out := newEnv(t, false)
	feed := new(MockFeed)
	a.Collector.Feed = feed
	day := Day(2024, 1, 2)
	feed.On("DailyCloses", mock.Anything, "1306.T", day, day).
		Return([]collector.Close{{Date: day, Value: D("2550")}}, nil)

	status := run(env, "fetch-prices", "-start", "2024-01-02", "-tickers", "TOPIX=1306.T")

	assert.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out.String(), "1 rows written")
	price, err := a.Prices.Get(context.Background(), day, "TOPIX")
	require.NoError(t, err)
	assert.True(t, price.Close.Equal(D("2550")))

	assert.Equal(t, subcommands.ExitUsageError, run(env, "fetch-prices", "-tickers", "=X"))
}

func TestMarkdownTable(t *testing.T) {
	assert.Equal(t, "_none_\n", markdownTable(&presenter.Table{Header: []string{"a"}}))
	assert.Equal(t, "| a | b |\n| --- | --- |\n| 1 | - |\n", markdownTable(&presenter.Table{
		Header: []string{"a", "b"},
		Rows:   [][]string{{"1", ""}},
	}))
}
