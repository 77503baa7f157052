// Package calendar answers holiday questions for the payment timing model.
package calendar

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrOutOfRange is returned for dates outside the holiday table
var ErrOutOfRange = errors.New("date outside holiday table range")

// Holiday is one observed federal holiday
type Holiday struct {
	Date time.Time
	Name string
}

// Oracle answers holiday questions over a fixed, sorted table of dates.
// Dates outside [First, Last] fail with ErrOutOfRange instead of guessing.
type Oracle struct {
	holidays []Holiday
	index    map[time.Time]struct{}
}

// New builds an oracle from the given holidays (any order, duplicates dropped)
func New(holidays []Holiday) *Oracle {
	sorted := make([]Holiday, 0, len(holidays))
	index := make(map[time.Time]struct{}, len(holidays))
	for _, h := range holidays {
		d := Day(h.Date)
		if _, dup := index[d]; dup {
			continue
		}
		index[d] = struct{}{}
		sorted = append(sorted, Holiday{Date: d, Name: h.Name})
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	return &Oracle{holidays: sorted, index: index}
}

// First returns the earliest date the oracle can answer for
func (o *Oracle) First() time.Time {
	if len(o.holidays) == 0 {
		return time.Time{}
	}
	return o.holidays[0].Date
}

// Last returns the latest date the oracle can answer for
func (o *Oracle) Last() time.Time {
	if len(o.holidays) == 0 {
		return time.Time{}
	}
	return o.holidays[len(o.holidays)-1].Date
}

// Holidays returns a copy of the table
func (o *Oracle) Holidays() []Holiday {
	out := make([]Holiday, len(o.holidays))
	copy(out, o.holidays)
	return out
}

func (o *Oracle) checkRange(d time.Time) error {
	if len(o.holidays) == 0 || d.Before(o.First()) || d.After(o.Last()) {
		return fmt.Errorf("%s: %w [%s, %s]", d.Format(DateLayout), ErrOutOfRange,
			o.First().Format(DateLayout), o.Last().Format(DateLayout))
	}
	return nil
}

// IsHoliday reports whether d is an observed holiday
func (o *Oracle) IsHoliday(d time.Time) (bool, error) {
	d = Day(d)
	if err := o.checkRange(d); err != nil {
		return false, err
	}
	_, ok := o.index[d]
	return ok, nil
}

// SpansHoliday reports whether a holiday lies in the closed interval
// between a and b, in either order.
func (o *Oracle) SpansHoliday(a, b time.Time) (bool, error) {
	a, b = Day(a), Day(b)
	if err := o.checkRange(a); err != nil {
		return false, err
	}
	if err := o.checkRange(b); err != nil {
		return false, err
	}
	if b.Before(a) {
		a, b = b, a
	}

	// first holiday not before a
	i := sort.Search(len(o.holidays), func(i int) bool {
		return !o.holidays[i].Date.Before(a)
	})
	return i < len(o.holidays) && !o.holidays[i].Date.After(b), nil
}
