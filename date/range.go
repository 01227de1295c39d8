package date

import "fmt"

// Range represents a range of dates, bounds included.
type Range struct{ From, To Date }

// NewRange returns the range [from, to].
func NewRange(from, to Date) Range { return Range{From: from, To: to} }

// Since returns the range from a given day up to today.
func Since(from Date) Range { return Range{From: from, To: Today()} }

// Contains return true date is included in the range (boundaries included)
func (r Range) Contains(date Date) bool { return !date.Before(r.From) && !date.After(r.To) }

// IsEmpty reports whether the range contains no day at all.
func (r Range) IsEmpty() bool { return r.To.Before(r.From) }

func (r Range) String() string { return fmt.Sprintf("%s..%s", r.From, r.To) }
