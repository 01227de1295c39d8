package eodhd

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/etnz/stockfolio"
	"github.com/etnz/stockfolio/date"
	"github.com/etnz/stockfolio/httpcache"
)

// SearchResult matches the structure of a single item in the EODHD search API response.
type SearchResult struct {
	Code              string    `json:"Code"`
	Exchange          string    `json:"Exchange"`
	Name              string    `json:"Name"`
	Type              string    `json:"Type"`
	Country           string    `json:"Country"`
	Currency          string    `json:"Currency"`
	ISIN              string    `json:"ISIN"`
	PreviousClose     float64   `json:"previousClose"`
	PreviousCloseDate date.Date `json:"previousCloseDate"`
}

// Ticker returns the EODHD ticker, e.g. "NVD.F".
func (r SearchResult) Ticker() string { return r.Code + "." + r.Exchange }

// IsEquity reports whether the result is a tradeable equity.
func (r SearchResult) IsEquity() bool {
	switch strings.ToLower(r.Type) {
	case "common stock", "preferred stock", "etf":
		return true
	}
	return false
}

// Listed reports whether the result is listed in country, given either as a
// country name ("USA", "France") or as an EODHD exchange code ("US", "PA").
func (r SearchResult) Listed(country string) bool {
	return strings.EqualFold(r.Country, country) || strings.EqualFold(r.Exchange, country)
}

// Search searches for securities via EOD Historical Data API.
func (c *Client) Search(ctx context.Context, term string) ([]SearchResult, error) {
	// https://eodhd.com/api/search/NVIDIA?api_token=demo&fmt=json
	// [
	//   {
	//     "Code": "NVDA",
	//     "Exchange": "US",
	//     "Name": "NVIDIA Corporation",
	//     "Type": "Common Stock",
	//     "Country": "USA",
	//     "Currency": "USD",
	//     "ISIN": "US67066G1040",
	//     "previousClose": 131.14,
	//     "previousCloseDate": "2025-02-12"
	//   },
	addr := c.endpoint("/search/"+url.PathEscape(term), nil)

	var results []SearchResult
	if err := httpcache.GetJSON(ctx, c.http, addr, &results); err != nil {
		return nil, fmt.Errorf("eodhd search %q: %w", term, err)
	}
	return results, nil
}

// Resolve implements stockfolio.Catalog.
//
// Among the equities listed in country, an exact match on the code or the name
// wins over the first result returned by the search.
func (c *Client) Resolve(ctx context.Context, name, country string) (stockfolio.Instrument, error) {
	name, country = strings.TrimSpace(name), strings.TrimSpace(country)
	if name == "" {
		return stockfolio.Instrument{}, fmt.Errorf("%w: empty name", stockfolio.ErrUnknownInstrument)
	}
	results, err := c.Search(ctx, name)
	if err != nil {
		return stockfolio.Instrument{}, err
	}

	var candidates []SearchResult
	for _, r := range results {
		if r.IsEquity() && r.Listed(country) {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) == 0 {
		c.log.Debug().Str("name", name).Str("country", country).Int("results", len(results)).Msg("no equity listed in that country")
		return stockfolio.Instrument{}, fmt.Errorf("%w: %q in %q (%d results on eodhd.com)", stockfolio.ErrUnknownInstrument, name, country, len(results))
	}

	best := candidates[0]
	for _, r := range candidates {
		if strings.EqualFold(r.Code, name) || strings.EqualFold(r.Name, name) {
			best = r
			break
		}
	}
	return stockfolio.Instrument{
		Symbol:   best.Ticker(),
		Name:     best.Name,
		Country:  best.Country,
		Currency: best.Currency,
	}, nil
}
