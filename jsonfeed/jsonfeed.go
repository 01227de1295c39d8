// Package jsonfeed implements a price provider for arbitrary HTTP JSON APIs.
//
// The feed is described by a URL template and two JSONPath expressions: one
// selecting the dates, the other selecting the closes, element-wise aligned.
// For instance, for a feed returning
//
//	{"prices": [{"day": "2024-06-13", "close": 150.0}, ...]}
//
// use Dates "$.prices[*].day" and Closes "$.prices[*].close".
package jsonfeed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/stockfolio"
	"github.com/etnz/stockfolio/date"
	"github.com/etnz/stockfolio/httpcache"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Config describes a JSON feed.
type Config struct {
	// URL is the feed address. "{symbol}", "{from}" and "{to}" are replaced
	// by the query escaped instrument symbol and the ISO range bounds.
	URL string `toml:"url"`
	// Dates is the JSONPath of the list of dates.
	Dates string `toml:"dates"`
	// Closes is the JSONPath of the list of closes.
	Closes string `toml:"closes"`
	// DateLayout is the time layout of string dates, defaults to "2006-01-02".
	// Numeric dates are always read as unix seconds.
	DateLayout string `toml:"date_layout"`
}

// Validate checks that the feed is fully described.
func (c Config) Validate() error {
	var errs []error
	if c.URL == "" {
		errs = append(errs, errors.New("missing url"))
	} else if !strings.Contains(c.URL, "{symbol}") {
		errs = append(errs, fmt.Errorf("url %q does not reference {symbol}", c.URL))
	}
	if c.Dates == "" {
		errs = append(errs, errors.New("missing dates path"))
	}
	if c.Closes == "" {
		errs = append(errs, errors.New("missing closes path"))
	}
	return errors.Join(errs...)
}

// Provider fetches daily closes from a JSON feed.
type Provider struct {
	cfg  Config
	http *http.Client
	log  zerolog.Logger
}

var _ stockfolio.PriceProvider = (*Provider)(nil)

// New returns a provider for the feed described by cfg. A nil client means a
// daily cached client in the default cache directory.
func New(cfg Config, client *http.Client, log zerolog.Logger) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid json feed: %w", err)
	}
	if cfg.DateLayout == "" {
		cfg.DateLayout = date.DateFormat
	}
	log = log.With().Str("client", "jsonfeed").Logger()
	if client == nil {
		client = httpcache.NewDailyClient("", log)
	}
	return &Provider{cfg: cfg, http: client, log: log}, nil
}

func (p *Provider) address(symbol string, r date.Range) string {
	return strings.NewReplacer(
		"{symbol}", url.QueryEscape(symbol),
		"{from}", r.From.String(),
		"{to}", r.To.String(),
	).Replace(p.cfg.URL)
}

// DailyCloses implements stockfolio.PriceProvider. Points outside r, or with
// a null close, are ignored.
func (p *Provider) DailyCloses(ctx context.Context, inst stockfolio.Instrument, r date.Range) (date.History[float64], error) {
	var closes date.History[float64]
	if r.IsEmpty() {
		return closes, nil
	}
	addr := p.address(inst.Symbol, r)
	var jobj any
	if err := httpcache.GetJSON(ctx, p.http, addr, &jobj); err != nil {
		return closes, fmt.Errorf("json feed of %s: %w", inst.Symbol, err)
	}

	days, err := list(p.cfg.Dates, jobj)
	if err != nil {
		return closes, err
	}
	values, err := list(p.cfg.Closes, jobj)
	if err != nil {
		return closes, err
	}
	if len(days) != len(values) {
		return closes, fmt.Errorf("json feed of %s: %d dates for %d closes", inst.Symbol, len(days), len(values))
	}

	for i := range days {
		if values[i] == nil {
			continue
		}
		on, err := p.parseDate(days[i])
		if err != nil {
			return closes, fmt.Errorf("json feed of %s: %w", inst.Symbol, err)
		}
		v, err := parseClose(values[i])
		if err != nil {
			return closes, fmt.Errorf("json feed of %s on %s: %w", inst.Symbol, on, err)
		}
		if r.Contains(on) {
			closes.Append(on, v)
		}
	}
	p.log.Debug().Str("symbol", inst.Symbol).Str("range", r.String()).Int("points", len(days)).Int("closes", closes.Len()).Msg("daily closes")
	return closes, nil
}

// list evaluates path and always returns a list: jsonpath returns a single
// value for definite paths.
func list(path string, jobj any) ([]any, error) {
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return nil, fmt.Errorf("error evaluating %q: %w", path, err)
	}
	switch v := jval.(type) {
	case []any:
		return v, nil
	case nil:
		return nil, nil
	default:
		return []any{v}, nil
	}
}

func (p *Provider) parseDate(v any) (date.Date, error) {
	switch v := v.(type) {
	case string:
		t, err := time.Parse(p.cfg.DateLayout, v)
		if err != nil {
			return date.Date{}, fmt.Errorf("invalid date %q: %w", v, err)
		}
		return date.Of(t), nil
	case float64:
		return date.Of(time.Unix(int64(v), 0).UTC()), nil
	default:
		return date.Date{}, fmt.Errorf("invalid date %v: neither a string nor a number", v)
	}
}

// parseClose accepts numbers, and strings as some APIs return them.
//
// In strings, spaces and apostrophes group thousands. When both '.' and ','
// appear the last one is the decimal separator. A lone ',' is a decimal
// comma ("12,5"), repeated ones group thousands ("1,234,567").
func parseClose(v any) (float64, error) {
	switch v := v.(type) {
	case float64:
		return v, nil
	case string:
		d, err := decimal.NewFromString(normalizeNumber(v))
		if err != nil {
			return 0, fmt.Errorf("invalid close %q: %w", v, err)
		}
		return d.InexactFloat64(), nil
	default:
		return 0, fmt.Errorf("invalid close %v: neither a float nor a string", v)
	}
}

func normalizeNumber(s string) string {
	s = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "", "'", "").Replace(strings.TrimSpace(s))
	comma, dot := strings.LastIndex(s, ","), strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0 && comma > dot:
		return strings.ReplaceAll(strings.ReplaceAll(s, ".", ""), ",", ".")
	case comma >= 0 && dot >= 0:
		return strings.ReplaceAll(s, ",", "")
	case strings.Count(s, ",") == 1:
		return strings.ReplaceAll(s, ",", ".")
	default:
		return strings.ReplaceAll(s, ",", "")
	}
}
