package stockfolio

import (
	"context"
	"fmt"
	"iter"
	"math"
	"sync"

	"github.com/etnz/stockfolio/date"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Portfolio owns an ordered collection of holdings and their valuation.
//
// Portfolio methods are safe for concurrent use, but mutations (AddHolding,
// Refresh) are serialized.
type Portfolio struct {
	catalog  Catalog
	provider PriceProvider
	today    func() date.Date
	jobs     int
	log      zerolog.Logger

	update sync.Mutex // serializes AddHolding and Refresh

	mu      sync.RWMutex
	entries []entry
	table   Table
}

// entry is an accepted holding along with its last computed row.
type entry struct {
	holding *Holding
	row     Row
}

// Option configures a Portfolio.
type Option func(*Portfolio)

// WithClock sets the function returning the current day. Defaults to date.Today.
func WithClock(today func() date.Date) Option {
	return func(p *Portfolio) { p.today = today }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Portfolio) { p.log = l }
}

// WithConcurrency sets how many holdings Refresh values at the same time.
// Values lower than 1 mean 1.
func WithConcurrency(n int) Option {
	return func(p *Portfolio) { p.jobs = max(n, 1) }
}

// New returns an empty portfolio resolving instruments in catalog and
// fetching prices from provider.
func New(catalog Catalog, provider PriceProvider, opts ...Option) *Portfolio {
	p := &Portfolio{
		catalog:  catalog,
		provider: provider,
		today:    date.Today,
		jobs:     1,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AddHolding validates a new holding, values it, and appends it to the
// portfolio. purchaseDate is formatted as dd/mm/yyyy.
//
// It returns an error wrapping ErrInvalidHolding if the holding is rejected,
// ErrDataUnavailable if there is no price since the purchase date, or the
// provider error. In all those cases the portfolio is unchanged.
func (p *Portfolio) AddHolding(ctx context.Context, name, country, purchaseDate string, shares int, costPerShare float64) (Row, error) {
	p.update.Lock()
	defer p.update.Unlock()

	today := p.today()
	h := NewHolding(name, country, purchaseDate, shares, costPerShare)
	if err := h.Validate(ctx, p.catalog, today); err != nil {
		return Row{}, err
	}
	if !h.Valid() {
		err := h.Err()
		p.log.Warn().Str("name", name).Str("country", country).Err(err).Msg("holding rejected")
		return Row{}, err
	}

	row, err := p.value(ctx, h, today)
	if err != nil {
		return Row{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = append(p.entries, entry{holding: h, row: row})
	p.rebuild()
	p.log.Info().Str("holding", h.String()).Float64("current_price", row.CurrentPrice).Int("holdings", len(p.entries)).Msg("holding added")
	return row, nil
}

// Refresh recomputes every row against the latest available data, in
// insertion order. Holdings are not validated again.
//
// Refresh is all-or-nothing: if any holding cannot be valued, the error is
// returned and the previous snapshot is kept. It is a no-op on an empty
// portfolio.
func (p *Portfolio) Refresh(ctx context.Context) error {
	p.update.Lock()
	defer p.update.Unlock()

	p.mu.RLock()
	holdings := make([]*Holding, len(p.entries))
	for i, e := range p.entries {
		holdings[i] = e.holding
	}
	p.mu.RUnlock()

	if len(holdings) == 0 {
		return nil
	}

	today := p.today()
	rows := make([]Row, len(holdings))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.jobs)
	for i, h := range holdings {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			row, err := p.value(gctx, h, today)
			if err != nil {
				return err
			}
			rows[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		p.log.Error().Err(err).Msg("refresh aborted, keeping previous snapshot")
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for i, row := range rows {
		p.entries[i].row = row
	}
	p.rebuild()
	p.log.Info().Int("holdings", len(rows)).Str("today", today.String()).Msg("portfolio refreshed")
	return nil
}

// rebuild replaces the table with one built from the entries. p.mu must be held.
func (p *Portfolio) rebuild() {
	rows := make([]Row, len(p.entries))
	for i, e := range p.entries {
		rows[i] = e.row
	}
	p.table = newTable(rows)
}

// value fetches the closes of h from its purchase date up to today and
// computes its row.
func (p *Portfolio) value(ctx context.Context, h *Holding, today date.Date) (Row, error) {
	inst := h.Instrument()
	r := date.NewRange(h.PurchaseDate(), today)
	p.log.Debug().Str("symbol", inst.Symbol).Str("range", r.String()).Msg("fetching daily closes")

	series, err := p.provider.DailyCloses(ctx, inst, r)
	if err != nil {
		return Row{}, fmt.Errorf("fetching prices of %s: %w", h, err)
	}
	on, price, ok := series.Latest()
	if !ok {
		return Row{}, fmt.Errorf("%s from %s to %s: %w", h, r.From, r.To, ErrDataUnavailable)
	}
	if !usable(price) {
		return Row{}, fmt.Errorf("%s: close %v on %s: %w", h, price, on, ErrDataUnavailable)
	}

	return Row{
		StockName:         h.Name(),
		StockCountry:      h.Country(),
		PurchaseDate:      h.PurchaseDate(),
		NumOfShares:       h.Shares(),
		CostPerShare:      h.CostPerShare(),
		CurrentPrice:      price,
		GrossCurrentValue: GrossCurrentValue(price, h.Shares()),
		Symbol:            inst.Symbol,
		Currency:          inst.Currency,
		PriceDate:         on,
	}, nil
}

// Snapshot returns the current valuation table. It is empty until the first
// successful AddHolding.
func (p *Portfolio) Snapshot() Table {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.table
}

// Len returns the number of accepted holdings.
func (p *Portfolio) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.entries)
}

// Holdings iterates over copies of the accepted holdings in insertion order.
func (p *Portfolio) Holdings() iter.Seq[*Holding] {
	p.mu.RLock()
	holdings := make([]*Holding, len(p.entries))
	for i, e := range p.entries {
		c := *e.holding
		holdings[i] = &c
	}
	p.mu.RUnlock()
	return func(yield func(*Holding) bool) {
		for _, h := range holdings {
			if !yield(h) {
				return
			}
		}
	}
}

// CurrentPrice returns the close of the latest day in series.
// It returns ErrDataUnavailable if series is empty or if that close is not a
// finite, non negative number.
func CurrentPrice(series date.History[float64]) (float64, error) {
	on, price, ok := series.Latest()
	if !ok {
		return 0, ErrDataUnavailable
	}
	if !usable(price) {
		return 0, fmt.Errorf("close %v on %s: %w", price, on, ErrDataUnavailable)
	}
	return price, nil
}

func usable(price float64) bool {
	return !math.IsNaN(price) && !math.IsInf(price, 0) && price >= 0
}

// GrossCurrentValue returns price multiplied by shares.
func GrossCurrentValue(price float64, shares int) float64 {
	return price * float64(shares)
}
