// Package yahoo implements a daily price provider on top of Yahoo Finance.
//
// Yahoo has no catalog endpoint usable to disambiguate listings by country,
// so instruments must come from another catalog (typically a static one) with
// Yahoo tickers as symbols, e.g. "AAPL" or "MC.PA".
package yahoo

import (
	"context"
	"fmt"

	"github.com/etnz/stockfolio"
	"github.com/etnz/stockfolio/date"
	"github.com/rs/zerolog"
	"github.com/wnjoon/go-yfinance/pkg/models"
	"github.com/wnjoon/go-yfinance/pkg/ticker"
)

// historyFunc returns the daily bars of a Yahoo ticker.
type historyFunc func(symbol string, params models.HistoryParams) ([]models.Bar, error)

// Provider fetches daily closes from Yahoo Finance.
type Provider struct {
	history historyFunc
	today   func() date.Date
	log     zerolog.Logger
}

var _ stockfolio.PriceProvider = (*Provider)(nil)

// New returns a Yahoo Finance provider.
func New(log zerolog.Logger) *Provider {
	return &Provider{
		history: fetchHistory,
		today:   date.Today,
		log:     log.With().Str("client", "yahoo").Logger(),
	}
}

func fetchHistory(symbol string, params models.HistoryParams) ([]models.Bar, error) {
	t, err := ticker.New(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticker: %w", err)
	}
	defer t.Close()
	return t.History(params)
}

// DailyCloses implements stockfolio.PriceProvider. Closes are adjusted for
// splits.
func (p *Provider) DailyCloses(ctx context.Context, inst stockfolio.Instrument, r date.Range) (date.History[float64], error) {
	var closes date.History[float64]
	if r.IsEmpty() {
		return closes, nil
	}
	if err := ctx.Err(); err != nil {
		return closes, err
	}

	params := models.HistoryParams{
		Period:     period(r.From, p.today()),
		Interval:   "1d",
		AutoAdjust: true,
	}
	bars, err := p.history(inst.Symbol, params)
	if err != nil {
		return closes, fmt.Errorf("yahoo history of %s: %w", inst.Symbol, err)
	}
	for _, bar := range bars {
		on := date.Of(bar.Date)
		if r.Contains(on) && bar.Close > 0 {
			closes.Append(on, bar.Close)
		}
	}
	p.log.Debug().Str("symbol", inst.Symbol).Str("period", params.Period).Int("bars", len(bars)).Int("closes", closes.Len()).Msg("daily closes")
	return closes, nil
}

// period returns the shortest Yahoo period covering from up to today.
func period(from, today date.Date) string {
	periods := []struct {
		name string
		days int
	}{
		{"5d", 5},
		{"1mo", 28},
		{"3mo", 89},
		{"6mo", 181},
		{"1y", 365},
		{"2y", 730},
		{"5y", 5 * 365},
		{"10y", 10 * 365},
	}
	for _, p := range periods {
		if !from.Before(today.Add(-p.days)) {
			return p.name
		}
	}
	return "max"
}
