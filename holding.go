package stockfolio

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/etnz/stockfolio/date"
)

// Holding is one purchase of shares in an instrument.
//
// A Holding is built with NewHolding and must be validated against a Catalog
// before a Portfolio accepts it. It has no mutator.
type Holding struct {
	name         string
	country      string
	rawDate      string
	purchase     date.Date
	shares       int
	costPerShare float64

	validated  bool
	valid      bool
	reason     string
	instrument Instrument
}

// NewHolding returns an unvalidated holding. purchaseDate is dd/mm/yyyy.
// No I/O happens here.
func NewHolding(name, country, purchaseDate string, shares int, costPerShare float64) *Holding {
	return &Holding{
		name:         name,
		country:      country,
		rawDate:      purchaseDate,
		shares:       shares,
		costPerShare: costPerShare,
	}
}

func (h *Holding) Name() string            { return h.name }
func (h *Holding) Country() string         { return h.country }
func (h *Holding) PurchaseDate() date.Date { return h.purchase }
func (h *Holding) Shares() int             { return h.shares }
func (h *Holding) CostPerShare() float64   { return h.costPerShare }

// Instrument returns the catalog entry the holding resolved to. It is the
// zero Instrument until the holding is valid.
func (h *Holding) Instrument() Instrument { return h.instrument }

// Valid reports whether the last call to Validate accepted the holding.
func (h *Holding) Valid() bool { return h.valid }

// Err returns a *HoldingError describing why the holding is not valid, or nil.
func (h *Holding) Err() error {
	if h.valid {
		return nil
	}
	reason := h.reason
	if !h.validated {
		reason = "not validated"
	}
	return &HoldingError{Name: h.name, Country: h.country, Reason: reason}
}

func (h *Holding) String() string { return fmt.Sprintf("%s (%s)", h.name, h.country) }

// Validate checks the holding fields and resolves the instrument in c.
//
// Invalid input never yields an error: it clears the valid flag and the
// reason is available through Err. The returned error is reserved for
// failures to query the catalog itself.
func (h *Holding) Validate(ctx context.Context, c Catalog, today date.Date) error {
	h.validated = true
	h.valid, h.reason, h.instrument = false, "", Instrument{}

	switch {
	case strings.TrimSpace(h.name) == "":
		return h.reject("empty instrument name")
	case strings.TrimSpace(h.country) == "":
		return h.reject("empty country")
	case h.shares <= 0:
		return h.reject(fmt.Sprintf("number of shares must be positive, got %d", h.shares))
	case h.costPerShare < 0 || math.IsNaN(h.costPerShare) || math.IsInf(h.costPerShare, 0):
		return h.reject(fmt.Sprintf("invalid cost per share %v", h.costPerShare))
	}

	on, err := date.ParseDMY(h.rawDate)
	if err != nil {
		return h.reject(err.Error())
	}
	if on.After(today) {
		return h.reject(fmt.Sprintf("purchase date %s is in the future", on.DMY()))
	}
	h.purchase = on

	inst, err := c.Resolve(ctx, h.name, h.country)
	if errors.Is(err, ErrUnknownInstrument) {
		return h.reject(err.Error())
	}
	if err != nil {
		return fmt.Errorf("resolving %s: %w", h, err)
	}
	h.instrument = inst
	h.valid = true
	return nil
}

func (h *Holding) reject(reason string) error {
	h.reason = reason
	return nil
}
