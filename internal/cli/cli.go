// Package cli implements the mond operator subcommands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/nyasuto/mond/internal/adapter/presenter"
	"github.com/nyasuto/mond/internal/app"
	"github.com/nyasuto/mond/internal/config"
	"github.com/nyasuto/mond/internal/domain"
	"github.com/nyasuto/mond/internal/logger"
)

// Env is shared by every subcommand
type Env struct {
	ConfigPath string
	Out        io.Writer
	Err        io.Writer
	Plain      bool // render markdown without terminal styling
	Now        func() time.Time

	// Open overrides how the application is opened (tests)
	Open func(ctx context.Context) (*app.App, error)

	app *app.App
}

// Register adds every subcommand to c
func Register(c *subcommands.Commander, env *Env) {
	c.Register(&migrateCmd{env: env}, "store")

	c.Register(&assetCmd{env: env}, "entry")
	c.Register(&fxCmd{env: env}, "entry")
	c.Register(&priceCmd{env: env}, "entry")
	c.Register(&snapshotCmd{env: env}, "entry")
	c.Register(&draftCmd{env: env}, "entry")

	c.Register(&reportCmd{env: env}, "reports")
	c.Register(&checkCmd{env: env}, "reports")
	c.Register(&historyCmd{env: env}, "reports")
	c.Register(&summarizeCmd{env: env}, "reports")

	c.Register(&marketCmd{env: env}, "market")
	c.Register(&snapshotsCmd{env: env}, "market")

	c.Register(&fetchFxCmd{env: env}, "collectors")
	c.Register(&fetchPricesCmd{env: env}, "collectors")
}

// App opens the application once per process
func (e *Env) App(ctx context.Context) (*app.App, error) {
	if e.app != nil {
		return e.app, nil
	}
	open := e.Open
	if open == nil {
		open = e.openFromConfig
	}
	a, err := open(ctx)
	if err != nil {
		return nil, err
	}
	e.app = a
	return a, nil
}

// Close releases the application, if opened
func (e *Env) Close() error {
	if e.app == nil {
		return nil
	}
	err := e.app.Close()
	e.app = nil
	return err
}

func (e *Env) openFromConfig(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load(e.ConfigPath)
	if err != nil {
		return nil, err
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty, Output: e.Err})
	return app.Open(ctx, cfg, log)
}

func (e *Env) today() time.Time {
	if e.Now != nil {
		return domain.DateOf(e.Now())
	}
	return domain.DateOf(time.Now())
}

// fail prints err and returns the matching exit status
func (e *Env) fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(e.Err, "Error: %v\n", err)
	if errors.Is(err, domain.ErrInvalidInput) {
		return subcommands.ExitUsageError
	}
	return subcommands.ExitFailure
}

// render prints markdown, styled for terminals unless Plain is set
func (e *Env) render(md string) error {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(120)}
	if e.Plain {
		opts = append(opts, glamour.WithStandardStyle("notty"))
	} else {
		opts = append(opts, glamour.WithAutoStyle())
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("failed to render markdown: %w", err)
	}
	_, err = io.WriteString(e.Out, out)
	return err
}

// dateFlag parses a YYYY-MM-DD flag value, defaulting to today
func (e *Env) dateFlag(name, value string) (time.Time, error) {
	if value == "" {
		return e.today(), nil
	}
	d, err := domain.ParseDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("-%s: %w", name, err)
	}
	return d, nil
}

func decimalFlag(name, value string, required bool) (decimal.Decimal, error) {
	if strings.TrimSpace(value) == "" {
		if required {
			return decimal.Zero, fmt.Errorf("%w: -%s is required", domain.ErrInvalidInput, name)
		}
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: -%s %q is not a number", domain.ErrInvalidInput, name, value)
	}
	return d, nil
}

func requireFlag(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: -%s is required", domain.ErrInvalidInput, name)
	}
	return nil
}

// splitList splits a comma-separated flag value
func splitList(value string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// markdownTable renders a table; an empty table renders as a placeholder line
func markdownTable(t *presenter.Table) string {
	if len(t.Rows) == 0 {
		return "_none_\n"
	}
	var b strings.Builder
	b.WriteString("| " + strings.Join(t.Header, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(t.Header)) + "\n")
	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, c := range row {
			if c == "" {
				c = "-"
			}
			cells[i] = c
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	return b.String()
}

func optionalString(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}
