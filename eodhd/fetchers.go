package eodhd

import (
	"context"
	"fmt"
	"net/url"

	"github.com/etnz/stockfolio"
	"github.com/etnz/stockfolio/date"
	"github.com/etnz/stockfolio/httpcache"
	"github.com/shopspring/decimal"
)

// DailyCloses implements stockfolio.PriceProvider. The instrument symbol must
// be an EODHD ticker ("SYMBOL.EXCHANGECODE"), as returned by Resolve.
func (c *Client) DailyCloses(ctx context.Context, inst stockfolio.Instrument, r date.Range) (date.History[float64], error) {
	var closes date.History[float64]
	if r.IsEmpty() {
		return closes, nil
	}
	content, err := c.fetchPrices(ctx, inst.Symbol, r)
	if err != nil {
		return closes, err
	}
	for _, info := range content {
		if !info.Close.Valid {
			continue
		}
		closes.Append(info.Date, info.Close.Decimal.InexactFloat64())
	}
	c.log.Debug().Str("symbol", inst.Symbol).Str("range", r.String()).Int("closes", closes.Len()).Msg("daily closes")
	return closes, nil
}

// eodInfo is one day of the EOD endpoint.
type eodInfo struct {
	Date  date.Date           `json:"date"`
	Close decimal.NullDecimal `json:"close"` // null on days without trading
}

// fetchPrices returns the end of day prices for a given EODHD ticker.
func (c *Client) fetchPrices(ctx context.Context, ticker string, r date.Range) ([]eodInfo, error) {
	// https://eodhd.com/api/eod/NVD.F?api_token=demo&fmt=json
	// [
	//
	//	{
	//		"date": "2024-02-13",
	//		"open": 675.066,
	//		"high": 684.219,
	//		"low": 648.659,
	//		"close": 668.445,
	//		"adjusted_close": 67.705,
	//		"volume": 0
	//	  },
	//
	// bounds are included in the response, and time is limited to 1 year with free subscription.
	query := url.Values{}
	query.Set("from", r.From.String())
	query.Set("to", r.To.String())
	addr := c.endpoint("/eod/"+url.PathEscape(ticker), query)

	content := make([]eodInfo, 0)
	if err := httpcache.GetJSON(ctx, c.http, addr, &content); err != nil {
		return nil, fmt.Errorf("eodhd prices of %s: %w", ticker, err)
	}
	return content, nil
}
