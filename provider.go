package stockfolio

import (
	"context"

	"github.com/etnz/stockfolio/date"
)

// Instrument is a tradeable equity as resolved by a Catalog.
type Instrument struct {
	Symbol   string `toml:"symbol" json:"symbol"`     // provider specific ticker, e.g. "AAPL.US"
	Name     string `toml:"name" json:"name"`         // display name
	Country  string `toml:"country" json:"country"`   // market or country of listing
	Currency string `toml:"currency" json:"currency"` // ISO 4217 code of the quotes
}

// Catalog resolves an instrument name and its market into an Instrument.
//
// Resolve returns an error wrapping ErrUnknownInstrument when the pair is not
// known. Any other error is a failure to reach the catalog.
type Catalog interface {
	Resolve(ctx context.Context, name, country string) (Instrument, error)
}

// PriceProvider returns the daily closing prices of an instrument for the
// trading days in r. An empty history means there is no data for that range.
type PriceProvider interface {
	DailyCloses(ctx context.Context, inst Instrument, r date.Range) (date.History[float64], error)
}

// PriceProviderFunc adapts a function into a PriceProvider.
type PriceProviderFunc func(ctx context.Context, inst Instrument, r date.Range) (date.History[float64], error)

func (f PriceProviderFunc) DailyCloses(ctx context.Context, inst Instrument, r date.Range) (date.History[float64], error) {
	return f(ctx, inst, r)
}
