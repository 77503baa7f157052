// Package timing estimates when a scheduled note payment has posted.
package timing

import (
	"fmt"
	"time"

	"github.com/wonny/notetrader/internal/calendar"
)

// Step is one (delay, probability) pair of a weekday row.
// Delay counts days after the due date.
type Step struct {
	Delay int
	Prob  float64
}

// Table maps the due date's weekday (0 = Monday) to its ordered steps
type Table [7][]Step

// NormalTable applies when no holiday falls in the settlement window
var NormalTable = Table{
	0: {{4, 0.99}},
	1: {{6, 0.99}},
	2: {{6, 0.99}},
	3: {{6, 0.99}},
	4: {{6, 0.99}},
	5: {{5, 0.99}},
	6: {{4, 0.99}},
}

// HolidayTable applies when a holiday delays processing
var HolidayTable = Table{
	0: {{4, 0.8077}, {7, 0.1827}},
	1: {{6, 0.0120}, {7, 0.9880}},
	2: {{6, 0.0275}, {7, 0.9725}},
	3: {{6, 0.1638}, {7, 0.8362}},
	4: {{6, 0.2143}, {7, 0.7857}},
	5: {{6, 0.99}},
	6: {{5, 0.99}},
}

// MaxDelay is the longest delay in either table
func (t Table) MaxDelay() int {
	longest := 0
	for _, row := range t {
		for _, s := range row {
			if s.Delay > longest {
				longest = s.Delay
			}
		}
	}
	return longest
}

// Probability sums every step whose delay is strictly less than elapsed days
func (t Table) Probability(weekday, elapsed int) float64 {
	p := 0.0
	for _, s := range t[weekday] {
		if s.Delay < elapsed {
			p += s.Prob
		}
	}
	return p
}

// Model answers "has a payment due on due posted by asOf".
// ⭐ SSOT: payment timing probabilities are computed only here
type Model struct {
	holidays *calendar.Oracle
	normal   Table
	holiday  Table
	window   int
}

// NewModel builds a model over the given holiday oracle with the fixed tables
func NewModel(holidays *calendar.Oracle) *Model {
	return &Model{
		holidays: holidays,
		normal:   NormalTable,
		holiday:  HolidayTable,
		window:   HolidayTable.MaxDelay(),
	}
}

// Default returns a model over the US federal holiday calendar
func Default() *Model {
	return NewModel(calendar.Federal())
}

// Holidays returns the oracle the model consults
func (m *Model) Holidays() *calendar.Oracle {
	return m.holidays
}

// PaymentProbability returns the probability, in [0, 1], that a payment due on
// due has posted by asOf. The holiday table is chosen when a holiday falls in
// [due, due+window], so the answer only grows as asOf advances.
func (m *Model) PaymentProbability(due, asOf time.Time) (float64, error) {
	due, asOf = calendar.Day(due), calendar.Day(asOf)

	if _, err := m.holidays.IsHoliday(asOf); err != nil {
		return 0, fmt.Errorf("payment probability as of: %w", err)
	}

	table, err := m.tableFor(due)
	if err != nil {
		return 0, err
	}

	return table.Probability(calendar.Weekday(due), calendar.DaysBetween(due, asOf)), nil
}

// HolidayAdjusted reports whether payments due on due use the holiday table
func (m *Model) HolidayAdjusted(due time.Time) (bool, error) {
	spans, err := m.holidays.SpansHoliday(due, calendar.AddDays(due, m.window))
	if err != nil {
		return false, fmt.Errorf("settlement window of %s: %w", calendar.Day(due).Format(calendar.DateLayout), err)
	}
	return spans, nil
}

func (m *Model) tableFor(due time.Time) (*Table, error) {
	adjusted, err := m.HolidayAdjusted(due)
	if err != nil {
		return nil, err
	}
	if adjusted {
		return &m.holiday, nil
	}
	return &m.normal, nil
}
