package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"

	"github.com/nyasuto/mond/internal/adapter/presenter"
	"github.com/nyasuto/mond/internal/domain"
)

const marketLookbackDays = 30

// marketCmd prints the stored close and FX series over a range
type marketCmd struct {
	env     *Env
	start   string
	end     string
	tickers string
	pairs   string
}

func (*marketCmd) Name() string     { return "market" }
func (*marketCmd) Synopsis() string { return "display stored close prices and FX rates over a range" }
func (*marketCmd) Usage() string {
	return `mond market [-start YYYY-MM-DD] [-end YYYY-MM-DD] [-tickers A,B] [-pairs USDJPY]

  Lists closes and FX rates ordered by date. Without -tickers or -pairs every
  stored series is shown.
`
}

func (c *marketCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.start, "start", "", fmt.Sprintf("First date (defaults to %d days before -end)", marketLookbackDays))
	f.StringVar(&c.end, "end", "", "Last date (defaults to today)")
	f.StringVar(&c.tickers, "tickers", "", "Comma-separated tickers")
	f.StringVar(&c.pairs, "pairs", "", "Comma-separated FX pairs")
}

func (c *marketCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	end, err := c.env.dateFlag("end", c.end)
	if err != nil {
		return c.env.fail(err)
	}
	start := end.AddDate(0, 0, -marketLookbackDays)
	if c.start != "" {
		if start, err = c.env.dateFlag("start", c.start); err != nil {
			return c.env.fail(err)
		}
	}

	a, err := c.env.App(ctx)
	if err != nil {
		return c.env.fail(err)
	}
	keys, err := a.Market.Keys(ctx)
	if err != nil {
		return c.env.fail(err)
	}
	prices, err := a.Market.PriceHistory(ctx, splitList(c.tickers), start, end)
	if err != nil {
		return c.env.fail(err)
	}
	rates, err := a.Market.FxHistory(ctx, splitList(c.pairs), start, end)
	if err != nil {
		return c.env.fail(err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Market data %s to %s\n\n", domain.FormatDate(start), domain.FormatDate(end))
	fmt.Fprintf(&b, "Stored tickers: %s\n\nStored pairs: %s\n\n", orNone(keys.Tickers), orNone(keys.Pairs))
	b.WriteString("## Prices\n\n")
	b.WriteString(markdownTable(presenter.PriceTable(prices)))
	b.WriteString("\n## FX rates\n\n")
	b.WriteString(markdownTable(presenter.FxTable(rates)))

	if err := c.env.render(b.String()); err != nil {
		return c.env.fail(err)
	}
	return subcommands.ExitSuccess
}

// snapshotsCmd lists recorded snapshots, newest first
type snapshotsCmd struct {
	env   *Env
	limit int
}

func (*snapshotsCmd) Name() string     { return "snapshots" }
func (*snapshotsCmd) Synopsis() string { return "list recorded holding snapshots, newest first" }
func (*snapshotsCmd) Usage() string {
	return `mond snapshots [-limit n]
`
}

func (c *snapshotsCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.limit, "limit", 0, "Keep only the n most recent snapshots")
}

func (c *snapshotsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := c.env.App(ctx)
	if err != nil {
		return c.env.fail(err)
	}
	snapshots, err := a.Market.Snapshots(ctx, c.limit)
	if err != nil {
		return c.env.fail(err)
	}

	if err := c.env.render("# Snapshots\n\n" + markdownTable(presenter.SnapshotTable(snapshots))); err != nil {
		return c.env.fail(err)
	}
	return subcommands.ExitSuccess
}

func orNone(keys []string) string {
	if len(keys) == 0 {
		return "none"
	}
	return strings.Join(keys, ", ")
}
