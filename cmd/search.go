package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/etnz/stockfolio/eodhd"
	"github.com/etnz/stockfolio/logger"
	"github.com/google/subcommands"
)

// searchCmd implements the "search" command.
type searchCmd struct {
	eodhdAPIKey string
	cacheDir    string
	all         bool

	out     io.Writer
	options []eodhd.Option
}

func (*searchCmd) Name() string     { return "search" }
func (*searchCmd) Synopsis() string { return "searches for stocks on EODHD" }
func (*searchCmd) Usage() string {
	return `folio search <search term>

  Searches for stocks via EOD Historical Data API and prints ready-to-use
  [[instrument]] declarations for the portfolio file.

  Requires the EODHD_API_KEY environment variable to be set or passed as a flag.
`
}

func (c *searchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.eodhdAPIKey, "eodhd-api-key", "", "EODHD API key to use for consuming EODHD.com API. This flag takes precedence over the "+eodhd.APIKeyEnv+" environment variable. You can get one at https://eodhd.com/")
	f.StringVar(&c.cacheDir, "cache-dir", "", "Folder of the daily http cache, defaults to the system temp folder")
	f.BoolVar(&c.all, "all", false, "Also list funds, bonds, indexes, and other non equity results")
}

// apiKey retrieves the EODHD API key from the command-line flag or the environment variable.
// It prioritizes the flag over the environment variable.
func (c *searchCmd) apiKey() string {
	if c.eodhdAPIKey == "" {
		c.eodhdAPIKey = os.Getenv(eodhd.APIKeyEnv)
	}
	return c.eodhdAPIKey
}

func (c *searchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: a search term is required.")
		return subcommands.ExitUsageError
	}
	term := strings.Join(f.Args(), " ")

	key := c.apiKey()
	if key == "" {
		fmt.Fprintf(os.Stderr, "Error: EODHD API key is not set. Use -eodhd-api-key flag or %s environment variable\n", eodhd.APIKeyEnv)
		return subcommands.ExitFailure
	}

	if err := c.search(ctx, key, term); err != nil {
		fmt.Fprintf(os.Stderr, "Error searching stocks: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *searchCmd) search(ctx context.Context, key, term string) error {
	out := c.out
	if out == nil {
		out = os.Stdout
	}
	opts := append([]eodhd.Option{
		eodhd.WithCacheDir(c.cacheDir),
		eodhd.WithLogger(logger.New(logger.Config{Level: "warn", Pretty: true})),
	}, c.options...)
	client := eodhd.New(key, opts...)

	results, err := client.Search(ctx, term)
	if err != nil {
		return err
	}

	var shown int
	for _, item := range results {
		if !c.all && !item.IsEquity() {
			continue
		}
		if shown == 0 {
			fmt.Fprintf(out, "Results for '%s':\n", term)
		}
		shown++
		fmt.Fprintf(out, "\n# %s, %s, %s, ISIN %s", item.Type, item.Country, item.Currency, item.ISIN)
		if !item.PreviousCloseDate.IsZero() {
			fmt.Fprintf(out, ", closed at %.2f on %s", item.PreviousClose, item.PreviousCloseDate)
		}
		fmt.Fprintln(out)
		fmt.Fprintf(out, "[[instrument]]\nsymbol = %q\nname = %q\ncountry = %q\ncurrency = %q\n", item.Ticker(), item.Name, item.Country, item.Currency)
	}
	if shown == 0 {
		fmt.Fprintf(out, "No results found for '%s'.\n", term)
	}
	return nil
}
