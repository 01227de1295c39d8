package stockfolio

import (
	"context"
	"fmt"
	"strings"
)

// StaticCatalog is an in-memory Catalog.
//
// An instrument matches a lookup when the country matches and the name is
// either the instrument name or its symbol. Matching is case insensitive.
type StaticCatalog struct {
	instruments []Instrument
}

// NewStaticCatalog returns a catalog of the given instruments.
func NewStaticCatalog(instruments ...Instrument) *StaticCatalog {
	c := &StaticCatalog{}
	for _, inst := range instruments {
		c.Add(inst)
	}
	return c
}

// Add declares an instrument. A later declaration shadows earlier ones with
// the same name and country.
func (c *StaticCatalog) Add(inst Instrument) {
	c.instruments = append(c.instruments, inst)
}

// Len returns the number of declared instruments.
func (c *StaticCatalog) Len() int { return len(c.instruments) }

func (c *StaticCatalog) Resolve(_ context.Context, name, country string) (Instrument, error) {
	name, country = strings.TrimSpace(name), strings.TrimSpace(country)
	for i := len(c.instruments) - 1; i >= 0; i-- {
		inst := c.instruments[i]
		if !strings.EqualFold(inst.Country, country) {
			continue
		}
		if strings.EqualFold(inst.Name, name) || strings.EqualFold(inst.Symbol, name) {
			return inst, nil
		}
	}
	return Instrument{}, fmt.Errorf("%w: %q in %q", ErrUnknownInstrument, name, country)
}
