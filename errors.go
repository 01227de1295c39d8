package stockfolio

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidHolding is returned when a holding fails validation. The
	// portfolio is left unchanged.
	ErrInvalidHolding = errors.New("invalid holding")

	// ErrDataUnavailable is returned when the price provider has no close
	// for the requested period, e.g. for a delisted instrument.
	ErrDataUnavailable = errors.New("no price data available")

	// ErrUnknownInstrument is returned by catalogs when a (name, country)
	// pair does not identify a known instrument.
	ErrUnknownInstrument = errors.New("unknown instrument")
)

// HoldingError describes why a holding was rejected.
type HoldingError struct {
	Name    string
	Country string
	Reason  string
}

func (e *HoldingError) Error() string {
	return fmt.Sprintf("invalid holding %s (%s): %s", e.Name, e.Country, e.Reason)
}

// Unwrap makes errors.Is(err, ErrInvalidHolding) true.
func (e *HoldingError) Unwrap() error { return ErrInvalidHolding }
