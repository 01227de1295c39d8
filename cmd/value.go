package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/etnz/stockfolio"
	"github.com/etnz/stockfolio/config"
	"github.com/etnz/stockfolio/date"
	"github.com/etnz/stockfolio/logger"
	"github.com/etnz/stockfolio/render"
	"github.com/google/subcommands"
)

// valueCmd implements the "value" command.
type valueCmd struct {
	file        string
	format      string
	provider    string
	eodhdAPIKey string
	jobs        int
	refresh     bool
	verbose     bool

	out, errOut io.Writer
	sources     sourcesFunc
	today       func() date.Date
}

func (*valueCmd) Name() string     { return "value" }
func (*valueCmd) Synopsis() string { return "values the holdings of a portfolio file at the latest close" }
func (*valueCmd) Usage() string {
	return `folio value [-f <portfolio.toml>] [-format term|md|json|csv|html] [-provider eodhd|yahoo|jsonfeed] [-j N] [-refresh]

  Validates every holding declared in the portfolio file, fetches its daily
  closes since the purchase date, and prints the valuation table.

  Rejected holdings are reported on stderr and left out of the table.
`
}

func (c *valueCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "f", "portfolio.toml", "Portfolio file (TOML)")
	f.StringVar(&c.format, "format", "term", "Output format: term, "+strings.Join(render.Formats, ", "))
	f.StringVar(&c.provider, "provider", "", "Price provider, overrides the portfolio file: "+strings.Join(config.Providers, ", "))
	f.StringVar(&c.eodhdAPIKey, "eodhd-api-key", "", "EODHD API key to use for consuming EODHD.com API. This flag takes precedence over the "+config.EnvEODHDAPIKey+" environment variable.")
	f.IntVar(&c.jobs, "j", 0, "Number of parallel price fetches during refresh, overrides the portfolio file")
	f.BoolVar(&c.refresh, "refresh", false, "Refresh all prices once more before printing")
	f.BoolVar(&c.verbose, "v", false, "Log debug messages")
}

func (c *valueCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.format != "term" && !slices.Contains(render.Formats, c.format) {
		fmt.Fprintf(c.stderr(), "Error: unknown format %q\n", c.format)
		return subcommands.ExitUsageError
	}
	if err := c.run(ctx); err != nil {
		fmt.Fprintf(c.stderr(), "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *valueCmd) stdout() io.Writer {
	if c.out == nil {
		return os.Stdout
	}
	return c.out
}

func (c *valueCmd) stderr() io.Writer {
	if c.errOut == nil {
		return os.Stderr
	}
	return c.errOut
}

func (c *valueCmd) run(ctx context.Context) error {
	cfg, err := config.Load(c.file)
	if err != nil {
		return err
	}
	if c.provider != "" {
		cfg.Provider.Name = strings.ToLower(c.provider)
	}
	if c.eodhdAPIKey != "" {
		cfg.Provider.APIKey = c.eodhdAPIKey
	}
	if c.jobs > 0 {
		cfg.Provider.Concurrency = c.jobs
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logCfg := cfg.Logger()
	logCfg.Out = c.errOut
	if c.verbose {
		logCfg.Level = "debug"
	}
	log := logger.New(logCfg)

	newSources := c.sources
	if newSources == nil {
		newSources = sources
	}
	catalog, provider, err := newSources(cfg, log)
	if err != nil {
		return err
	}

	opts := []stockfolio.Option{
		stockfolio.WithLogger(log),
		stockfolio.WithConcurrency(cfg.Provider.Concurrency),
	}
	if c.today != nil {
		opts = append(opts, stockfolio.WithClock(c.today))
	}
	p := stockfolio.New(catalog, provider, opts...)

	var rejected int
	for _, h := range cfg.Holdings {
		_, err := p.AddHolding(ctx, h.Name, h.Country, h.PurchaseDate, h.Shares, h.CostPerShare)
		switch {
		case err == nil:
		case errors.Is(err, stockfolio.ErrInvalidHolding), errors.Is(err, stockfolio.ErrDataUnavailable):
			rejected++
			fmt.Fprintf(c.stderr(), "Skipping holding: %v\n", err)
		default:
			return err
		}
	}
	if rejected > 0 {
		fmt.Fprintf(c.stderr(), "%d of %d holdings skipped\n", rejected, len(cfg.Holdings))
	}

	if c.refresh {
		if err := p.Refresh(ctx); err != nil {
			return fmt.Errorf("refreshing prices: %w", err)
		}
	}

	on := date.Today()
	if c.today != nil {
		on = c.today()
	}
	report := render.Report{Title: cfg.Title, On: on, Table: p.Snapshot()}

	if c.format != "term" {
		return render.Write(c.stdout(), report, c.format)
	}
	var md strings.Builder
	if err := render.Markdown(&md, report); err != nil {
		return err
	}
	return printMarkdown(c.stdout(), md.String())
}
