package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/nyasuto/mond/internal/adapter/presenter"
	"github.com/nyasuto/mond/internal/domain"
	"github.com/nyasuto/mond/internal/usecase/entry"
)

// migrateCmd applies the schema migrations
type migrateCmd struct {
	env *Env
}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "apply database migrations" }
func (*migrateCmd) Usage() string {
	return `mond migrate

  Creates or upgrades the schema of the configured database.
`
}
func (*migrateCmd) SetFlags(*flag.FlagSet) {}

func (c *migrateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	// Opening the application migrates the store
	a, err := c.env.App(ctx)
	if err != nil {
		return c.env.fail(err)
	}
	fmt.Fprintf(c.env.Out, "database is up to date (%s)\n", a.DB.Dialect())
	return subcommands.ExitSuccess
}

// assetCmd registers an asset, or lists the registry without flags
type assetCmd struct {
	env      *Env
	ticker   string
	currency string
	name     string
}

func (*assetCmd) Name() string     { return "asset" }
func (*assetCmd) Synopsis() string { return "register an asset or list the registry" }
func (*assetCmd) Usage() string {
	return `mond asset [-ticker <ticker> -ccy <currency> [-name <name>]]

  Creates or updates an asset. Without -ticker, lists every registered asset.
`
}

func (c *assetCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ticker, "ticker", "", "Ticker to register")
	f.StringVar(&c.currency, "ccy", "", "3-letter trading currency")
	f.StringVar(&c.name, "name", "", "Optional display name")
}

func (c *assetCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := c.env.App(ctx)
	if err != nil {
		return c.env.fail(err)
	}

	if c.ticker == "" {
		assets, err := a.Assets.List(ctx)
		if err != nil {
			return c.env.fail(err)
		}
		t := &presenter.Table{Header: []string{"ticker", "ccy", "name"}}
		for _, asset := range assets {
			t.Rows = append(t.Rows, []string{asset.Ticker, asset.Currency, asset.DisplayName()})
		}
		if err := c.env.render("## Assets\n\n" + markdownTable(t)); err != nil {
			return c.env.fail(err)
		}
		return subcommands.ExitSuccess
	}

	asset, err := a.Entry.RegisterAsset(ctx, c.ticker, c.currency, c.name)
	if err != nil {
		return c.env.fail(err)
	}
	fmt.Fprintf(c.env.Out, "registered %s (%s) %s\n", asset.Ticker, asset.Currency, asset.DisplayName())
	return subcommands.ExitSuccess
}

// fxCmd records one FX rate against the home currency
type fxCmd struct {
	env      *Env
	date     string
	currency string
	rate     string
}

func (*fxCmd) Name() string     { return "fx" }
func (*fxCmd) Synopsis() string { return "record an FX rate into JPY" }
func (*fxCmd) Usage() string {
	return `mond fx [-date YYYY-MM-DD] -ccy <currency> -rate <rate>

  Stores the rate converting one unit of currency into JPY on date (default today).
`
}

func (c *fxCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "date", "", "Rate date (defaults to today)")
	f.StringVar(&c.currency, "ccy", "", "Currency, e.g. USD")
	f.StringVar(&c.rate, "rate", "", "JPY per unit of currency")
}

func (c *fxCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	date, err := c.env.dateFlag("date", c.date)
	if err != nil {
		return c.env.fail(err)
	}
	if err := requireFlag("ccy", c.currency); err != nil {
		return c.env.fail(err)
	}
	rate, err := decimalFlag("rate", c.rate, true)
	if err != nil {
		return c.env.fail(err)
	}

	a, err := c.env.App(ctx)
	if err != nil {
		return c.env.fail(err)
	}
	fx, err := a.Entry.RecordFxRate(ctx, date, c.currency, rate)
	if err != nil {
		return c.env.fail(err)
	}
	fmt.Fprintf(c.env.Out, "%s %s = %s\n", domain.FormatDate(fx.Date), fx.Pair, fx.Rate)
	return subcommands.ExitSuccess
}

// priceCmd records one close of the price series
type priceCmd struct {
	env    *Env
	date   string
	ticker string
	close  string
}

func (*priceCmd) Name() string     { return "price" }
func (*priceCmd) Synopsis() string { return "record a daily close used to prefill snapshots" }
func (*priceCmd) Usage() string {
	return `mond price [-date YYYY-MM-DD] -ticker <ticker> -close <price>

  Stores a close of the external price series. Valuation always uses the snapshot price.
`
}

func (c *priceCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "date", "", "Close date (defaults to today)")
	f.StringVar(&c.ticker, "ticker", "", "Ticker")
	f.StringVar(&c.close, "close", "", "Close in the asset's currency")
}

func (c *priceCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	date, err := c.env.dateFlag("date", c.date)
	if err != nil {
		return c.env.fail(err)
	}
	if err := requireFlag("ticker", c.ticker); err != nil {
		return c.env.fail(err)
	}
	closePrice, err := decimalFlag("close", c.close, true)
	if err != nil {
		return c.env.fail(err)
	}

	a, err := c.env.App(ctx)
	if err != nil {
		return c.env.fail(err)
	}
	p, err := a.Entry.RecordPrice(ctx, date, c.ticker, closePrice)
	if err != nil {
		return c.env.fail(err)
	}
	fmt.Fprintf(c.env.Out, "%s %s close %s\n", domain.FormatDate(p.Date), p.Ticker, p.Close)
	return subcommands.ExitSuccess
}

// snapshotCmd records a holding snapshot
type snapshotCmd struct {
	env      *Env
	date     string
	ticker   string
	quantity string
	price    string
	amount   string
}

func (*snapshotCmd) Name() string     { return "snapshot" }
func (*snapshotCmd) Synopsis() string { return "record a holding snapshot" }
func (*snapshotCmd) Usage() string {
	return `mond snapshot [-date YYYY-MM-DD] -ticker <ticker> -price <price> (-qty <quantity> | -amount <jpy>)

  Stores the quantity held and the unit price in the asset's currency.
  With -amount, the quantity is derived as amount / (price * fx) using the rate of the date.
`
}

func (c *snapshotCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "date", "", "Snapshot date (defaults to today)")
	f.StringVar(&c.ticker, "ticker", "", "Registered ticker")
	f.StringVar(&c.quantity, "qty", "", "Units held")
	f.StringVar(&c.price, "price", "", "Unit price in the asset's currency")
	f.StringVar(&c.amount, "amount", "", "Holding value in JPY; derives the quantity")
}

func (c *snapshotCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	date, err := c.env.dateFlag("date", c.date)
	if err != nil {
		return c.env.fail(err)
	}
	if err := requireFlag("ticker", c.ticker); err != nil {
		return c.env.fail(err)
	}
	price, err := decimalFlag("price", c.price, true)
	if err != nil {
		return c.env.fail(err)
	}
	amount, err := decimalFlag("amount", c.amount, false)
	if err != nil {
		return c.env.fail(err)
	}
	qty, err := decimalFlag("qty", c.quantity, !amount.IsPositive())
	if err != nil {
		return c.env.fail(err)
	}

	a, err := c.env.App(ctx)
	if err != nil {
		return c.env.fail(err)
	}
	s, err := a.Entry.RecordSnapshot(ctx, entry.SnapshotInput{
		Date:       date,
		Ticker:     c.ticker,
		Quantity:   qty,
		Price:      price,
		AmountHome: amount,
	})
	if err != nil {
		return c.env.fail(err)
	}
	fmt.Fprintf(c.env.Out, "%s %s qty %s @ %s\n", domain.FormatDate(s.Date), s.Ticker, s.Quantity, s.LocalPrice)
	return subcommands.ExitSuccess
}

// draftCmd shows the values that prefill a snapshot entry
type draftCmd struct {
	env    *Env
	date   string
	ticker string
}

func (*draftCmd) Name() string     { return "draft" }
func (*draftCmd) Synopsis() string { return "show prefill values for a snapshot entry" }
func (*draftCmd) Usage() string {
	return `mond draft [-date YYYY-MM-DD] -ticker <ticker>

  Shows the asset currency, the close of the price series, the FX rate of the date
  and the previous snapshot of the ticker.
`
}

func (c *draftCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "date", "", "Entry date (defaults to today)")
	f.StringVar(&c.ticker, "ticker", "", "Registered ticker")
}

func (c *draftCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	date, err := c.env.dateFlag("date", c.date)
	if err != nil {
		return c.env.fail(err)
	}
	if err := requireFlag("ticker", c.ticker); err != nil {
		return c.env.fail(err)
	}

	a, err := c.env.App(ctx)
	if err != nil {
		return c.env.fail(err)
	}
	d, err := a.Entry.Draft(ctx, date, c.ticker)
	if err != nil {
		return c.env.fail(err)
	}

	t := &presenter.Table{Header: []string{"field", "value"}}
	add := func(k, v string) { t.Rows = append(t.Rows, []string{k, v}) }
	add("ccy", d.Currency)
	add("auto price", optionalString(d.AutoPrice))
	add("fx rate", optionalString(d.FxRate))
	if p := d.Previous; p != nil {
		add("previous date", domain.FormatDate(p.Date))
		add("previous qty", p.Quantity.String())
		add("previous price", presenter.Amount(p.Price, d.Currency))
		if p.ValueHome != nil {
			add("previous value", presenter.Yen(*p.ValueHome))
		}
	}

	md := fmt.Sprintf("## %s (%s) on %s\n\n%s", d.Name, d.Ticker, domain.FormatDate(d.Date), markdownTable(t))
	if err := c.env.render(md); err != nil {
		return c.env.fail(err)
	}
	return subcommands.ExitSuccess
}
