package stockfolio

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/etnz/stockfolio/date"
	"github.com/shopspring/decimal"
)

// Columns lists the table columns, in order.
var Columns = []string{
	"stock_name",
	"stock_country",
	"purchase_date",
	"num_of_shares",
	"cost_per_share",
	"current_price",
	"gross_current_value",
}

// Row is the valuation of one holding.
type Row struct {
	StockName         string    `json:"stock_name"`
	StockCountry      string    `json:"stock_country"`
	PurchaseDate      date.Date `json:"purchase_date"`
	NumOfShares       int       `json:"num_of_shares"`
	CostPerShare      float64   `json:"cost_per_share"`
	CurrentPrice      float64   `json:"current_price"`
	GrossCurrentValue float64   `json:"gross_current_value"`

	Symbol    string    `json:"symbol,omitempty"`
	Currency  string    `json:"currency,omitempty"`
	PriceDate date.Date `json:"price_date"` // day of the close used as current price
}

// Cost returns the amount paid for the holding.
func (r Row) Cost() float64 {
	return decimal.NewFromFloat(r.CostPerShare).Mul(decimal.NewFromInt(int64(r.NumOfShares))).InexactFloat64()
}

// record returns the row formatted in Columns order.
func (r Row) record() []string {
	return []string{
		r.StockName,
		r.StockCountry,
		r.PurchaseDate.DMY(),
		strconv.Itoa(r.NumOfShares),
		strconv.FormatFloat(r.CostPerShare, 'f', -1, 64),
		strconv.FormatFloat(r.CurrentPrice, 'f', -1, 64),
		strconv.FormatFloat(r.GrossCurrentValue, 'f', -1, 64),
	}
}

// Table is an immutable snapshot of a portfolio valuation.
//
// The zero Table is empty.
type Table struct {
	rows []Row
}

func newTable(rows []Row) Table { return Table{rows: rows} }

// NewTable returns a table of a copy of rows.
func NewTable(rows ...Row) Table { return newTable(append([]Row(nil), rows...)) }

func (t Table) Len() int      { return len(t.rows) }
func (t Table) IsEmpty() bool { return len(t.rows) == 0 }

// Row returns the i-th row, in insertion order.
func (t Table) Row(i int) Row { return t.rows[i] }

// Rows returns a copy of all rows.
func (t Table) Rows() []Row { return append([]Row(nil), t.rows...) }

// Records returns the table as string records, header first.
func (t Table) Records() [][]string {
	records := make([][]string, 0, len(t.rows)+1)
	records = append(records, append([]string(nil), Columns...))
	for _, r := range t.rows {
		records = append(records, r.record())
	}
	return records
}

// WriteCSV writes the header and every row as CSV.
func (t Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(t.Records()); err != nil {
		return err
	}
	return cw.Error()
}

// MarshalJSON encodes the table as an array of rows. An empty table is [].
func (t Table) MarshalJSON() ([]byte, error) {
	if t.rows == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(t.rows)
}

// Total aggregates the rows quoted in a single currency.
type Total struct {
	Currency    string
	Cost        float64 // sum of cost_per_share * num_of_shares
	Value       float64 // sum of gross_current_value
	Gain        float64 // Value - Cost
	GainPercent float64 // Gain / Cost * 100, 0 when Cost is 0
}

// Totals sums rows per currency, in order of first appearance. Amounts in
// different currencies are never added together.
func (t Table) Totals() []Total {
	type acc struct{ cost, value decimal.Decimal }
	var order []string
	sums := make(map[string]*acc)
	for _, r := range t.rows {
		a, ok := sums[r.Currency]
		if !ok {
			a = &acc{}
			sums[r.Currency] = a
			order = append(order, r.Currency)
		}
		a.cost = a.cost.Add(decimal.NewFromFloat(r.CostPerShare).Mul(decimal.NewFromInt(int64(r.NumOfShares))))
		a.value = a.value.Add(decimal.NewFromFloat(r.GrossCurrentValue))
	}

	totals := make([]Total, 0, len(order))
	for _, cur := range order {
		a := sums[cur]
		gain := a.value.Sub(a.cost)
		total := Total{
			Currency: cur,
			Cost:     a.cost.InexactFloat64(),
			Value:    a.value.InexactFloat64(),
			Gain:     gain.InexactFloat64(),
		}
		if !a.cost.IsZero() {
			total.GainPercent = gain.Div(a.cost).Mul(decimal.NewFromInt(100)).InexactFloat64()
		}
		totals = append(totals, total)
	}
	return totals
}
