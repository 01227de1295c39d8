// Package config loads a portfolio file: the holdings to value, the price
// provider to value them with, and logging settings.
//
// A portfolio file is TOML:
//
//	title = "Savings"
//
//	[provider]
//	name = "eodhd"
//
//	[[holding]]
//	name = "ACME"
//	country = "US"
//	purchase_date = "01/06/2024"
//	shares = 10
//	cost_per_share = 100.0
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/etnz/stockfolio"
	"github.com/etnz/stockfolio/jsonfeed"
	"github.com/etnz/stockfolio/logger"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Provider names.
const (
	EODHD    = "eodhd"
	Yahoo    = "yahoo"
	JSONFeed = "jsonfeed"
)

// Providers lists the supported provider names.
var Providers = []string{EODHD, Yahoo, JSONFeed}

// Environment overrides.
const (
	EnvProvider    = "FOLIO_PROVIDER"
	EnvLogLevel    = "FOLIO_LOG_LEVEL"
	EnvCacheDir    = "FOLIO_CACHE_DIR"
	EnvConcurrency = "FOLIO_CONCURRENCY"
	EnvEODHDAPIKey = "EODHD_API_KEY"
)

// Config is the content of a portfolio file.
type Config struct {
	Title       string                  `toml:"title"`
	Provider    ProviderConfig          `toml:"provider"`
	Log         LogConfig               `toml:"log"`
	Instruments []stockfolio.Instrument `toml:"instrument"`
	Holdings    []HoldingConfig         `toml:"holding"`
}

// ProviderConfig selects and configures the price provider.
type ProviderConfig struct {
	Name        string          `toml:"name"`
	APIKey      string          `toml:"api_key"`
	CacheDir    string          `toml:"cache_dir"`
	Concurrency int             `toml:"concurrency"`
	JSONFeed    jsonfeed.Config `toml:"jsonfeed"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `toml:"level"`
	Pretty bool   `toml:"pretty"`
}

// HoldingConfig is a holding as declared in the file.
type HoldingConfig struct {
	Name         string  `toml:"name"`
	Country      string  `toml:"country"`
	PurchaseDate string  `toml:"purchase_date"` // dd/mm/yyyy
	Shares       int     `toml:"shares"`
	CostPerShare float64 `toml:"cost_per_share"`
}

// NewDefault returns the configuration used when nothing is declared.
func NewDefault() *Config {
	return &Config{
		Title: "Portfolio",
		Provider: ProviderConfig{
			Name:        EODHD,
			Concurrency: 4,
		},
		Log: LogConfig{
			Level:  "info",
			Pretty: true,
		},
	}
}

// Load reads the portfolio files in order, later files overriding earlier
// ones, then applies environment overrides. A .env file in the working
// directory, if any, is loaded first.
func Load(paths ...string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := NewDefault()
	for _, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read portfolio file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse portfolio file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to cfg.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvProvider); v != "" {
		cfg.Provider.Name = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv(EnvCacheDir); v != "" {
		cfg.Provider.CacheDir = v
	}
	if v := os.Getenv(EnvConcurrency); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Provider.Concurrency = n
		}
	}
	// The file wins over the environment for the key.
	if cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = os.Getenv(EnvEODHDAPIKey)
	}
	cfg.Provider.Name = strings.ToLower(strings.TrimSpace(cfg.Provider.Name))
}

// Validate checks the settings. Holdings are not checked here: invalid
// holdings are reported when added to the portfolio.
func (c *Config) Validate() error {
	var errs []error
	if !slices.Contains(Providers, c.Provider.Name) {
		errs = append(errs, fmt.Errorf("unknown provider %q, expected one of %s", c.Provider.Name, strings.Join(Providers, ", ")))
	}
	if c.Provider.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("provider concurrency must be at least 1, got %d", c.Provider.Concurrency))
	}
	if c.Provider.Name == JSONFeed {
		if err := c.Provider.JSONFeed.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("provider jsonfeed: %w", err))
		}
	}
	for i, inst := range c.Instruments {
		if inst.Symbol == "" || inst.Name == "" || inst.Country == "" {
			errs = append(errs, fmt.Errorf("instrument #%d: symbol, name and country are required", i+1))
		}
	}
	if c.Provider.Name != EODHD && len(c.Instruments) == 0 {
		errs = append(errs, fmt.Errorf("provider %q requires [[instrument]] declarations", c.Provider.Name))
	}
	return errors.Join(errs...)
}

// Logger returns the logger settings.
func (c *Config) Logger() logger.Config {
	return logger.Config{Level: c.Log.Level, Pretty: c.Log.Pretty}
}

// Catalog returns the declared instruments as a catalog.
func (c *Config) Catalog() *stockfolio.StaticCatalog {
	return stockfolio.NewStaticCatalog(c.Instruments...)
}
