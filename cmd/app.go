// Package cmd implements the CLI application to value a stock portfolio.
package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/stockfolio"
	"github.com/etnz/stockfolio/config"
	"github.com/etnz/stockfolio/eodhd"
	"github.com/etnz/stockfolio/httpcache"
	"github.com/etnz/stockfolio/jsonfeed"
	"github.com/etnz/stockfolio/yahoo"
	"github.com/google/subcommands"
	"github.com/rs/zerolog"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
	c.Register(c.CommandsCommand(), "")

	c.Register(&valueCmd{}, "portfolio")
	c.Register(&searchCmd{}, "portfolio")
	c.Register(&topicCmd{}, "help")
}

// sourcesFunc returns the catalog and the price provider selected by cfg.
type sourcesFunc func(cfg *config.Config, log zerolog.Logger) (stockfolio.Catalog, stockfolio.PriceProvider, error)

// sources returns the catalog and the price provider selected by cfg.
//
// Declared instruments are the catalog, except for EODHD that searches its own
// catalog when none are declared.
func sources(cfg *config.Config, log zerolog.Logger) (stockfolio.Catalog, stockfolio.PriceProvider, error) {
	switch cfg.Provider.Name {
	case config.EODHD:
		if cfg.Provider.APIKey == "" {
			return nil, nil, errors.New("EODHD API key is not set. Use -eodhd-api-key flag, the [provider] api_key setting or " + eodhd.APIKeyEnv + " environment variable. You can get one at https://eodhd.com/")
		}
		client := eodhd.New(cfg.Provider.APIKey, eodhd.WithCacheDir(cfg.Provider.CacheDir), eodhd.WithLogger(log))
		if len(cfg.Instruments) > 0 {
			return cfg.Catalog(), client, nil
		}
		return client, client, nil
	case config.Yahoo:
		return cfg.Catalog(), yahoo.New(log), nil
	case config.JSONFeed:
		p, err := jsonfeed.New(cfg.Provider.JSONFeed, httpcache.NewDailyClient(cfg.Provider.CacheDir, log), log)
		if err != nil {
			return nil, nil, err
		}
		return cfg.Catalog(), p, nil
	default:
		return nil, nil, fmt.Errorf("unknown provider %q", cfg.Provider.Name)
	}
}

// printMarkdown renders md for the terminal.
func printMarkdown(w io.Writer, md string) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(120),
	)
	if err != nil {
		return err
	}
	out, err := r.Render(md)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}
