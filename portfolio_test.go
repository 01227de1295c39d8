package stockfolio

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/etnz/stockfolio/date"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider serves fixed closes per symbol and counts calls.
type fakeProvider struct {
	mu     sync.Mutex
	closes map[string]map[date.Date]float64
	errs   map[string]error
	calls  int
	ranges []date.Range
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{closes: make(map[string]map[date.Date]float64), errs: make(map[string]error)}
}

func (f *fakeProvider) set(symbol string, on date.Date, close float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closes[symbol] == nil {
		f.closes[symbol] = make(map[date.Date]float64)
	}
	f.closes[symbol][on] = close
}

func (f *fakeProvider) clear(symbol string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.closes, symbol)
}

func (f *fakeProvider) DailyCloses(_ context.Context, inst Instrument, r date.Range) (date.History[float64], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.ranges = append(f.ranges, r)
	var h date.History[float64]
	if err := f.errs[inst.Symbol]; err != nil {
		return h, err
	}
	for on, v := range f.closes[inst.Symbol] {
		if r.Contains(on) {
			h.Append(on, v)
		}
	}
	return h, nil
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var (
	today = date.New(2024, 6, 14)

	acme   = Instrument{Symbol: "ACME.US", Name: "ACME", Country: "US", Currency: "USD"}
	globex = Instrument{Symbol: "GLBX.US", Name: "Globex", Country: "US", Currency: "USD"}
	initec = Instrument{Symbol: "INI.PA", Name: "Initech", Country: "France", Currency: "EUR"}
)

func newTestPortfolio(t *testing.T, opts ...Option) (*Portfolio, *fakeProvider) {
	t.Helper()
	provider := newFakeProvider()
	provider.set(acme.Symbol, date.New(2020, 1, 2), 101)
	provider.set(acme.Symbol, date.New(2024, 6, 13), 150)
	provider.set(globex.Symbol, date.New(2024, 6, 12), 20)
	provider.set(initec.Symbol, date.New(2024, 6, 14), 42.5)
	catalog := NewStaticCatalog(acme, globex, initec)
	opts = append([]Option{WithClock(func() date.Date { return today })}, opts...)
	return New(catalog, provider, opts...), provider
}

func TestAddHolding_EndToEnd(t *testing.T) {
	p, provider := newTestPortfolio(t)

	row, err := p.AddHolding(context.Background(), "ACME", "US", "01/01/2020", 10, 100.0)
	require.NoError(t, err)

	assert.Equal(t, 150.0, row.CurrentPrice)
	assert.Equal(t, 1500.0, row.GrossCurrentValue)
	assert.Equal(t, "ACME", row.StockName)
	assert.Equal(t, "US", row.StockCountry)
	assert.Equal(t, date.New(2020, 1, 1), row.PurchaseDate)
	assert.Equal(t, 10, row.NumOfShares)
	assert.Equal(t, 100.0, row.CostPerShare)
	assert.Equal(t, "USD", row.Currency)
	assert.Equal(t, date.New(2024, 6, 13), row.PriceDate)

	require.Equal(t, 1, provider.callCount())
	assert.Equal(t, date.NewRange(date.New(2020, 1, 1), today), provider.ranges[0])

	snap := p.Snapshot()
	require.Equal(t, 1, snap.Len())
	assert.Equal(t, row, snap.Row(0))
}

func TestAddHolding_PreservesOrder(t *testing.T) {
	p, _ := newTestPortfolio(t)
	ctx := context.Background()

	names := []struct{ name, country string }{
		{"Globex", "US"},
		{"ACME", "US"},
		{"Initech", "France"},
		{"ACME", "US"},
	}
	for i, n := range names {
		_, err := p.AddHolding(ctx, n.name, n.country, "01/01/2021", i+1, 1)
		require.NoError(t, err)
		assert.Equal(t, i+1, p.Snapshot().Len())
	}

	snap := p.Snapshot()
	require.Equal(t, len(names), snap.Len())
	for i, n := range names {
		assert.Equal(t, n.name, snap.Row(i).StockName)
		assert.Equal(t, i+1, snap.Row(i).NumOfShares)
	}
	assert.Equal(t, len(names), p.Len())

	i := 0
	for h := range p.Holdings() {
		assert.Equal(t, names[i].name, h.Name())
		assert.True(t, h.Valid())
		i++
	}
	assert.Equal(t, len(names), i)
}

func TestAddHolding_InvalidLeavesPortfolioUnchanged(t *testing.T) {
	p, provider := newTestPortfolio(t)
	ctx := context.Background()

	_, err := p.AddHolding(ctx, "ACME", "US", "01/01/2020", 10, 100)
	require.NoError(t, err)
	before := p.Snapshot()
	calls := provider.callCount()

	tests := []struct {
		name                     string
		stock, country, purchase string
		shares                   int
		cost                     float64
	}{
		{name: "unknown instrument", stock: "Nope", country: "US", purchase: "01/01/2020", shares: 1, cost: 1},
		{name: "wrong country", stock: "ACME", country: "France", purchase: "01/01/2020", shares: 1, cost: 1},
		{name: "malformed date", stock: "ACME", country: "US", purchase: "2020-01-01", shares: 1, cost: 1},
		{name: "future date", stock: "ACME", country: "US", purchase: "15/06/2024", shares: 1, cost: 1},
		{name: "no shares", stock: "ACME", country: "US", purchase: "01/01/2020", shares: 0, cost: 1},
		{name: "negative cost", stock: "ACME", country: "US", purchase: "01/01/2020", shares: 1, cost: -1},
		{name: "empty name", stock: " ", country: "US", purchase: "01/01/2020", shares: 1, cost: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.AddHolding(ctx, tt.stock, tt.country, tt.purchase, tt.shares, tt.cost)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidHolding)

			var herr *HoldingError
			require.ErrorAs(t, err, &herr)
			assert.Equal(t, tt.stock, herr.Name)
			assert.NotEmpty(t, herr.Reason)

			assert.Equal(t, before.Rows(), p.Snapshot().Rows())
			assert.Equal(t, 1, p.Len())
			assert.Equal(t, calls, provider.callCount(), "rejected holdings must not reach the provider")
		})
	}
}

func TestAddHolding_InvalidOnEmptyPortfolio(t *testing.T) {
	p, provider := newTestPortfolio(t)

	_, err := p.AddHolding(context.Background(), "Nope", "US", "01/01/2020", 10, 100)
	assert.ErrorIs(t, err, ErrInvalidHolding)
	assert.True(t, p.Snapshot().IsEmpty())
	assert.Equal(t, 0, p.Len())
	assert.Equal(t, 0, provider.callCount())
}

func TestAddHolding_DataUnavailable(t *testing.T) {
	p, _ := newTestPortfolio(t)

	// Globex has no close after its purchase date.
	_, err := p.AddHolding(context.Background(), "Globex", "US", "13/06/2024", 1, 1)
	assert.ErrorIs(t, err, ErrDataUnavailable)
	assert.NotErrorIs(t, err, ErrInvalidHolding)
	assert.Equal(t, 0, p.Len())
	assert.True(t, p.Snapshot().IsEmpty())
}

func TestAddHolding_UnusableClose(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), -1} {
		p, provider := newTestPortfolio(t)
		provider.set(acme.Symbol, today, v)

		_, err := p.AddHolding(context.Background(), "ACME", "US", "01/01/2020", 10, 100)
		assert.ErrorIs(t, err, ErrDataUnavailable, "close %v", v)
		assert.NotErrorIs(t, err, ErrInvalidHolding)
		assert.Equal(t, 0, p.Len())
		assert.True(t, p.Snapshot().IsEmpty())
	}
}

func TestRefresh_UnusableCloseKeepsSnapshot(t *testing.T) {
	p, provider := newTestPortfolio(t)
	_, err := p.AddHolding(context.Background(), "ACME", "US", "01/01/2020", 10, 100)
	require.NoError(t, err)
	before := p.Snapshot()

	provider.set(acme.Symbol, today, math.NaN())
	assert.ErrorIs(t, p.Refresh(context.Background()), ErrDataUnavailable)
	assert.Equal(t, before, p.Snapshot())
}

func TestAddHolding_ProviderErrorPropagates(t *testing.T) {
	p, provider := newTestPortfolio(t)
	boom := errors.New("connection reset")
	provider.errs[acme.Symbol] = boom

	_, err := p.AddHolding(context.Background(), "ACME", "US", "01/01/2020", 10, 100)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, p.Len())
}

type failingCatalog struct{ err error }

func (c failingCatalog) Resolve(context.Context, string, string) (Instrument, error) {
	return Instrument{}, c.err
}

func TestAddHolding_CatalogErrorPropagates(t *testing.T) {
	boom := errors.New("catalog down")
	p := New(failingCatalog{boom}, newFakeProvider(), WithClock(func() date.Date { return today }))

	_, err := p.AddHolding(context.Background(), "ACME", "US", "01/01/2020", 10, 100)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrInvalidHolding)
	assert.Equal(t, 0, p.Len())
}

func TestRefresh_EmptyIsNoop(t *testing.T) {
	p, provider := newTestPortfolio(t)

	require.NoError(t, p.Refresh(context.Background()))
	assert.Equal(t, 0, provider.callCount())
	assert.True(t, p.Snapshot().IsEmpty())
}

func TestRefresh_Recomputes(t *testing.T) {
	day := today
	p, provider := newTestPortfolio(t, WithClock(func() date.Date { return day }))
	ctx := context.Background()

	_, err := p.AddHolding(ctx, "ACME", "US", "01/01/2020", 10, 100)
	require.NoError(t, err)
	_, err = p.AddHolding(ctx, "Initech", "France", "01/01/2020", 4, 40)
	require.NoError(t, err)

	// A new close appears the next day.
	day = today.Add(1)
	provider.set(acme.Symbol, day, 160)

	require.NoError(t, p.Refresh(ctx))
	assert.Equal(t, 4, provider.callCount())

	snap := p.Snapshot()
	require.Equal(t, 2, snap.Len())
	assert.Equal(t, 160.0, snap.Row(0).CurrentPrice)
	assert.Equal(t, 1600.0, snap.Row(0).GrossCurrentValue)
	assert.Equal(t, day, snap.Row(0).PriceDate)
	assert.Equal(t, 42.5, snap.Row(1).CurrentPrice)
	assert.Equal(t, 170.0, snap.Row(1).GrossCurrentValue)
	assert.Equal(t, day, provider.ranges[3].To, "today must be evaluated at refresh time")
}

func TestRefresh_Idempotent(t *testing.T) {
	p, _ := newTestPortfolio(t)
	ctx := context.Background()
	_, err := p.AddHolding(ctx, "ACME", "US", "01/01/2020", 10, 100)
	require.NoError(t, err)
	_, err = p.AddHolding(ctx, "Globex", "US", "01/01/2020", 3, 10)
	require.NoError(t, err)

	require.NoError(t, p.Refresh(ctx))
	first := p.Snapshot().Rows()
	require.NoError(t, p.Refresh(ctx))
	assert.Equal(t, first, p.Snapshot().Rows())
}

func TestRefresh_FailureKeepsPreviousSnapshot(t *testing.T) {
	p, provider := newTestPortfolio(t)
	ctx := context.Background()
	_, err := p.AddHolding(ctx, "ACME", "US", "01/01/2020", 10, 100)
	require.NoError(t, err)
	_, err = p.AddHolding(ctx, "Initech", "France", "01/01/2020", 4, 40)
	require.NoError(t, err)
	before := p.Snapshot().Rows()

	provider.set(acme.Symbol, today, 999)
	provider.clear(initec.Symbol)

	err = p.Refresh(ctx)
	assert.ErrorIs(t, err, ErrDataUnavailable)
	assert.Equal(t, before, p.Snapshot().Rows(), "a failed refresh must not update any row")
	assert.Equal(t, 2, p.Len())
}

func TestRefresh_ConcurrentKeepsOrder(t *testing.T) {
	p, provider := newTestPortfolio(t, WithConcurrency(4))
	ctx := context.Background()
	for i := range 8 {
		name := []string{"ACME", "Globex"}[i%2]
		_, err := p.AddHolding(ctx, name, "US", "01/01/2020", i+1, 1)
		require.NoError(t, err)
	}

	require.NoError(t, p.Refresh(ctx))
	assert.Equal(t, 16, provider.callCount())
	snap := p.Snapshot()
	for i := range 8 {
		row := snap.Row(i)
		assert.Equal(t, i+1, row.NumOfShares)
		assert.Equal(t, []string{"ACME", "Globex"}[i%2], row.StockName)
	}
}

func TestRefresh_ConcurrentFailure(t *testing.T) {
	p, provider := newTestPortfolio(t, WithConcurrency(3))
	ctx := context.Background()
	for range 5 {
		_, err := p.AddHolding(ctx, "ACME", "US", "01/01/2020", 1, 1)
		require.NoError(t, err)
	}
	_, err := p.AddHolding(ctx, "Globex", "US", "01/01/2020", 1, 1)
	require.NoError(t, err)
	before := p.Snapshot().Rows()

	boom := errors.New("timeout")
	provider.errs[globex.Symbol] = boom
	assert.ErrorIs(t, p.Refresh(ctx), boom)
	assert.Equal(t, before, p.Snapshot().Rows())
}

func TestCurrentPrice(t *testing.T) {
	var series date.History[float64]
	_, err := CurrentPrice(series)
	assert.ErrorIs(t, err, ErrDataUnavailable)

	// Appended out of order: the latest date wins, not the last appended.
	series.Append(date.New(2020, 1, 3), 150)
	series.Append(date.New(2020, 1, 1), 100)
	series.Append(date.New(2020, 1, 2), 120)
	price, err := CurrentPrice(series)
	require.NoError(t, err)
	assert.Equal(t, 150.0, price)

	series.Append(date.New(2020, 1, 4), math.NaN())
	_, err = CurrentPrice(series)
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

func TestGrossCurrentValue(t *testing.T) {
	tests := []struct {
		price  float64
		shares int
		want   float64
	}{
		{0, 0, 0},
		{0, 10, 0},
		{150, 0, 0},
		{150, 10, 1500},
		{12.5, 3, 37.5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GrossCurrentValue(tt.price, tt.shares), "GrossCurrentValue(%v, %v)", tt.price, tt.shares)
	}
}

func TestSnapshotJSON(t *testing.T) {
	p, _ := newTestPortfolio(t)
	b, err := json.Marshal(p.Snapshot())
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(b))

	_, err = p.AddHolding(context.Background(), "ACME", "US", "01/01/2020", 10, 100)
	require.NoError(t, err)
	b, err = json.Marshal(p.Snapshot())
	require.NoError(t, err)
	assert.JSONEq(t, `[{
		"stock_name": "ACME",
		"stock_country": "US",
		"purchase_date": "2020-01-01",
		"num_of_shares": 10,
		"cost_per_share": 100,
		"current_price": 150,
		"gross_current_value": 1500,
		"symbol": "ACME.US",
		"currency": "USD",
		"price_date": "2024-06-13"
	}]`, string(b))
}

func TestHoldings(t *testing.T) {
	p, _ := newTestPortfolio(t)
	ctx := context.Background()
	_, err := p.AddHolding(ctx, "ACME", "US", "01/01/2020", 10, 100)
	require.NoError(t, err)
	_, err = p.AddHolding(ctx, "Initech", "France", "05/03/2021", 4, 50)
	require.NoError(t, err)

	var names []string
	for h := range p.Holdings() {
		names = append(names, h.Name())
		assert.True(t, h.Valid())
		h.name = "changed"
	}
	assert.Equal(t, []string{"ACME", "Initech"}, names)
	assert.Equal(t, "ACME", p.Snapshot().Row(0).StockName)
	for h := range p.Holdings() {
		assert.NotEqual(t, "changed", h.Name(), "holdings are copies")
	}
	assert.Equal(t, 2, p.Len())
}
