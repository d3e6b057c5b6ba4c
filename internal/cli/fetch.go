package cli

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/subcommands"

	"github.com/nyasuto/mond/internal/adapter/presenter"
	"github.com/nyasuto/mond/internal/app"
	"github.com/nyasuto/mond/internal/domain"
	"github.com/nyasuto/mond/internal/usecase/collector"
)

// window holds the date range flags shared by the collectors
type window struct {
	start  string
	end    string
	dryRun bool
}

func (w *window) setFlags(f *flag.FlagSet) {
	f.StringVar(&w.start, "start", "", "First date (defaults to collector.lookback_days before -end)")
	f.StringVar(&w.end, "end", "", "Last date (defaults to today)")
	f.BoolVar(&w.dryRun, "dry-run", false, "Fetch and print without writing")
}

func (w *window) resolve(env *Env, a *app.App) (time.Time, time.Time, error) {
	end, err := env.dateFlag("end", w.end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if w.start == "" {
		return end.AddDate(0, 0, -max(a.Config.Collector.LookbackDays-1, 0)), end, nil
	}
	start, err := env.dateFlag("start", w.start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// fetchFxCmd collects FX closes from the feed
type fetchFxCmd struct {
	env     *Env
	window  window
	bases   string
	targets string
}

func (*fetchFxCmd) Name() string     { return "fetch-fx" }
func (*fetchFxCmd) Synopsis() string { return "fetch daily FX closes and store them as rates" }
func (*fetchFxCmd) Usage() string {
	return `mond fetch-fx [-start YYYY-MM-DD] [-end YYYY-MM-DD] [-bases USD,EUR] [-targets JPY] [-dry-run]

  Fetches BASE+TARGET=X closes for every pair. Nothing is written unless every pair succeeds.
`
}

func (c *fetchFxCmd) SetFlags(f *flag.FlagSet) {
	c.window.setFlags(f)
	f.StringVar(&c.bases, "bases", "", "Comma-separated base currencies (defaults to collector.fx_bases)")
	f.StringVar(&c.targets, "targets", "", "Comma-separated target currencies (defaults to collector.fx_targets)")
}

func (c *fetchFxCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := c.env.App(ctx)
	if err != nil {
		return c.env.fail(err)
	}
	start, end, err := c.window.resolve(c.env, a)
	if err != nil {
		return c.env.fail(err)
	}

	plan, err := a.CollectorPlan()
	if err != nil {
		return c.env.fail(err)
	}
	req := collector.FxRequest{Bases: plan.FxBases, Targets: plan.FxTargets, Start: start, End: end, DryRun: c.window.dryRun}
	if c.bases != "" {
		req.Bases = splitList(c.bases)
	}
	if c.targets != "" {
		req.Targets = splitList(c.targets)
	}

	batch, err := a.Collector.CollectFx(ctx, req)
	if err != nil {
		return c.env.fail(err)
	}

	t := &presenter.Table{Header: []string{"date", "pair", "rate"}}
	for _, r := range batch.Rates {
		t.Rows = append(t.Rows, []string{domain.FormatDate(r.Date), r.Pair, r.Rate.String()})
	}
	if err := c.env.render(batchMarkdown("FX", batch.ID.String(), batch.Written, t)); err != nil {
		return c.env.fail(err)
	}
	return subcommands.ExitSuccess
}

// fetchPricesCmd collects ticker closes from the feed
type fetchPricesCmd struct {
	env     *Env
	window  window
	tickers string
}

func (*fetchPricesCmd) Name() string     { return "fetch-prices" }
func (*fetchPricesCmd) Synopsis() string { return "fetch daily closes of tickers" }
func (*fetchPricesCmd) Usage() string {
	return `mond fetch-prices [-start YYYY-MM-DD] [-end YYYY-MM-DD] [-tickers VTI,TOPIX=1306.T] [-dry-run]

  Fetches closes for TICKER or TICKER=SYMBOL specs. Nothing is written unless every ticker succeeds.
`
}

func (c *fetchPricesCmd) SetFlags(f *flag.FlagSet) {
	c.window.setFlags(f)
	f.StringVar(&c.tickers, "tickers", "", "Comma-separated TICKER or TICKER=SYMBOL specs (defaults to collector.tickers)")
}

func (c *fetchPricesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := c.env.App(ctx)
	if err != nil {
		return c.env.fail(err)
	}
	start, end, err := c.window.resolve(c.env, a)
	if err != nil {
		return c.env.fail(err)
	}

	specs := a.Config.Collector.Tickers
	if c.tickers != "" {
		specs = splitList(c.tickers)
	}
	tickers, err := collector.ParseTickerSpecs(specs)
	if err != nil {
		return c.env.fail(err)
	}
	if len(tickers) == 0 {
		return c.env.fail(fmt.Errorf("%w: no tickers given and collector.tickers is empty", domain.ErrInvalidInput))
	}

	batch, err := a.Collector.CollectPrices(ctx, collector.PriceRequest{Tickers: tickers, Start: start, End: end, DryRun: c.window.dryRun})
	if err != nil {
		return c.env.fail(err)
	}

	t := &presenter.Table{Header: []string{"date", "ticker", "close"}}
	for _, p := range batch.Prices {
		t.Rows = append(t.Rows, []string{domain.FormatDate(p.Date), p.Ticker, p.Close.String()})
	}
	if err := c.env.render(batchMarkdown("Prices", batch.ID.String(), batch.Written, t)); err != nil {
		return c.env.fail(err)
	}
	return subcommands.ExitSuccess
}

func batchMarkdown(kind, id string, written bool, t *presenter.Table) string {
	state := "dry run, nothing written"
	if written {
		state = fmt.Sprintf("%d rows written", len(t.Rows))
	}
	return fmt.Sprintf("## %s batch %s\n\n%s\n\n%s", kind, id, state, markdownTable(t))
}
