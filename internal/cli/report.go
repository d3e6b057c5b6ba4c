package cli

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"

	"github.com/nyasuto/mond/internal/adapter/presenter"
	"github.com/nyasuto/mond/internal/domain"
	"github.com/nyasuto/mond/internal/usecase/report"
)

// reportCmd prints the daily report, or one view of it as CSV
type reportCmd struct {
	env    *Env
	date   string
	view   string
	ticker string
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "display the valuation and attribution of a date" }
func (*reportCmd) Usage() string {
	return `mond report [-date YYYY-MM-DD] [-csv <view> | -ticker <ticker>]

  Displays valuations, currency exposure, weights and attribution of a date.
  With -csv, prints one view as CSV: valuation, attribution, portfolio_total,
  currency_exposure or valuation_enriched.
  With -ticker, displays the attribution and weight of that ticker only.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "date", "", "Report date (defaults to today)")
	f.StringVar(&c.view, "csv", "", "Print one view as CSV")
	f.StringVar(&c.ticker, "ticker", "", "Report a single ticker")
}

func (c *reportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	date, err := c.env.dateFlag("date", c.date)
	if err != nil {
		return c.env.fail(err)
	}

	a, err := c.env.App(ctx)
	if err != nil {
		return c.env.fail(err)
	}

	if c.ticker != "" {
		t, err := a.Reports.Ticker(ctx, c.ticker, date)
		if err != nil {
			return c.env.fail(err)
		}
		if err := c.env.render(tickerMarkdown(t)); err != nil {
			return c.env.fail(err)
		}
		return subcommands.ExitSuccess
	}

	r, err := a.Reports.Daily(ctx, date)
	if err != nil {
		return c.env.fail(err)
	}

	if c.view != "" {
		t, err := presenter.DailyView(r, c.view)
		if err != nil {
			return c.env.fail(err)
		}
		w := csv.NewWriter(c.env.Out)
		_ = w.Write(t.Header)
		_ = w.WriteAll(t.Rows)
		if err := w.Error(); err != nil {
			return c.env.fail(err)
		}
		return subcommands.ExitSuccess
	}

	if err := c.env.render(dailyMarkdown(r)); err != nil {
		return c.env.fail(err)
	}
	if err := r.Verify(); err != nil {
		return c.env.fail(err)
	}
	return subcommands.ExitSuccess
}

// checkCmd verifies reconciliation and FX completeness of a date
type checkCmd struct {
	env  *Env
	date string
}

func (*checkCmd) Name() string     { return "check" }
func (*checkCmd) Synopsis() string { return "verify attribution totals and FX completeness of a date" }
func (*checkCmd) Usage() string {
	return `mond check [-date YYYY-MM-DD]

  Verifies price + fx + cross + flow = total for every attribution row and lists
  missing FX pairs. Exits non-zero on any mismatch or gap.
`
}

func (c *checkCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "date", "", "Date to check (defaults to today)")
}

func (c *checkCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	date, err := c.env.dateFlag("date", c.date)
	if err != nil {
		return c.env.fail(err)
	}

	a, err := c.env.App(ctx)
	if err != nil {
		return c.env.fail(err)
	}
	r, err := a.Reports.Daily(ctx, date)
	if err != nil {
		return c.env.fail(err)
	}

	status := subcommands.ExitSuccess
	if err := r.Verify(); err != nil {
		fmt.Fprintf(c.env.Out, "%s: %v\n", domain.FormatDate(date), err)
		status = subcommands.ExitFailure
	} else {
		fmt.Fprintf(c.env.Out, "%s: %d attribution rows reconcile\n", domain.FormatDate(date), len(r.Attribution))
	}
	if len(r.MissingPairs) > 0 {
		fmt.Fprintf(c.env.Out, "%s: missing fx pairs %s\n", domain.FormatDate(date), strings.Join(r.MissingPairs, ", "))
		status = subcommands.ExitFailure
	} else {
		fmt.Fprintf(c.env.Out, "%s: fx rates complete\n", domain.FormatDate(date))
	}
	return status
}

// historyCmd prints totals and attribution over a range
type historyCmd struct {
	env   *Env
	start string
	end   string
	limit int
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "display portfolio totals and attribution over time" }
func (*historyCmd) Usage() string {
	return `mond history [-start YYYY-MM-DD -end YYYY-MM-DD] [-limit n]

  Without a range, covers every stored snapshot date. -limit keeps the most recent rows.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.start, "start", "", "First date")
	f.StringVar(&c.end, "end", "", "Last date")
	f.IntVar(&c.limit, "limit", 0, "Keep only the last n attribution rows and totals")
}

func (c *historyCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := c.env.App(ctx)
	if err != nil {
		return c.env.fail(err)
	}

	var h *report.HistoryReport
	if c.start == "" && c.end == "" {
		h, err = a.Reports.FullHistory(ctx, c.limit)
	} else {
		start, startErr := c.env.dateFlag("start", c.start)
		if startErr != nil {
			return c.env.fail(startErr)
		}
		end, endErr := c.env.dateFlag("end", c.end)
		if endErr != nil {
			return c.env.fail(endErr)
		}
		h, err = a.Reports.History(ctx, start, end, c.limit)
	}
	if err != nil {
		return c.env.fail(err)
	}

	if err := c.env.render(historyMarkdown(h)); err != nil {
		return c.env.fail(err)
	}
	return subcommands.ExitSuccess
}

// summarizeCmd asks the configured summarizer to explain a date or the history
type summarizeCmd struct {
	env     *Env
	date    string
	history bool
	limit   int
}

func (*summarizeCmd) Name() string     { return "summarize" }
func (*summarizeCmd) Synopsis() string { return "explain the attribution of a date or of the history" }
func (*summarizeCmd) Usage() string {
	return `mond summarize [-date YYYY-MM-DD | -history [-limit n]]

  Requires summary.api_key (or GEMINI_API_KEY).
`
}

func (c *summarizeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "date", "", "Date to explain (defaults to today)")
	f.BoolVar(&c.history, "history", false, "Review the whole stored history")
	f.IntVar(&c.limit, "limit", 200, "With -history, keep only the most recent n attribution rows")
}

func (c *summarizeCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := c.env.App(ctx)
	if err != nil {
		return c.env.fail(err)
	}

	var text string
	if c.history {
		text, err = a.Summary.SummarizeHistory(ctx, c.limit)
	} else {
		date, dateErr := c.env.dateFlag("date", c.date)
		if dateErr != nil {
			return c.env.fail(dateErr)
		}
		text, err = a.Summary.SummarizeDay(ctx, date)
	}
	if err != nil {
		return c.env.fail(err)
	}

	if err := c.env.render(text); err != nil {
		return c.env.fail(err)
	}
	return subcommands.ExitSuccess
}

func dailyMarkdown(r *report.DailyReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Portfolio on %s\n\n", domain.FormatDate(r.Date))
	fmt.Fprintf(&b, "Total: **%s**\n\n", presenter.Yen(r.Total.ValueHome))

	if row, ok := r.AttributionTotal(); ok {
		fmt.Fprintf(&b, "Change since previous snapshot: **%s** (price %s, fx %s, cross %s, flow %s)\n\n",
			presenter.Yen(row.DeltaTotal), presenter.Yen(row.DeltaPrice), presenter.Yen(row.DeltaFx),
			presenter.Yen(row.DeltaCross), presenter.Yen(row.Flow))
	}

	b.WriteString("## Holdings\n\n")
	b.WriteString(markdownTable(presenter.EnrichedTable(r.Weighted)))
	b.WriteString("\n## Currency exposure\n\n")
	b.WriteString(markdownTable(presenter.ExposureTable(r.Exposure)))
	b.WriteString("\n## Attribution\n\n")
	b.WriteString(markdownTable(presenter.AttributionTable(r.Attribution)))

	if len(r.NoBaseline) > 0 {
		fmt.Fprintf(&b, "\nNo previous snapshot: %s\n", strings.Join(r.NoBaseline, ", "))
	}
	if len(r.MissingAssets) > 0 {
		fmt.Fprintf(&b, "\nUnregistered tickers: %s\n", strings.Join(r.MissingAssets, ", "))
	}
	if len(r.FxGaps) > 0 {
		b.WriteString("\n## FX gaps\n\n")
		b.WriteString(markdownTable(presenter.GapsTable(r.FxGaps)))
	}
	return b.String()
}

func tickerMarkdown(t *report.TickerReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s on %s\n\n", t.Row.Ticker, domain.FormatDate(t.Row.Date))
	weight := "undefined"
	if t.Weight != nil {
		weight = t.Weight.StringFixed(4)
	}
	fmt.Fprintf(&b, "Weight: **%s**\n\n", weight)
	b.WriteString(markdownTable(presenter.AttributionTable([]domain.AttributionRow{*t.Row})))
	return b.String()
}

func historyMarkdown(h *report.HistoryReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# History %s to %s\n\n", domain.FormatDate(h.Start), domain.FormatDate(h.End))
	b.WriteString("## Portfolio totals\n\n")
	b.WriteString(markdownTable(presenter.TotalsTable(h.Totals)))
	b.WriteString("\n## Attribution\n\n")
	b.WriteString(markdownTable(presenter.AttributionTable(h.Attribution)))
	if len(h.FxGaps) > 0 {
		b.WriteString("\n## FX gaps\n\n")
		b.WriteString(markdownTable(presenter.GapsTable(h.FxGaps)))
	}
	if len(h.Mismatches) > 0 {
		fmt.Fprintf(&b, "\n**%d attribution rows do not reconcile**\n", len(h.Mismatches))
	}
	return b.String()
}
