package timing

import (
	"math"
	"sort"
	"time"

	"github.com/wonny/notetrader/internal/calendar"
)

// Stats counts observed settlement delays of holiday-affected payments
// per due weekday, the raw material of HolidayTable.
type Stats struct {
	holidays *calendar.Oracle
	counts   [7]map[int]int
	skipped  int
}

// NewStats creates an empty accumulator
func NewStats(holidays *calendar.Oracle) *Stats {
	s := &Stats{holidays: holidays}
	for i := range s.counts {
		s.counts[i] = make(map[int]int)
	}
	return s
}

// Observe records one completed payment when a holiday lies between due and completed.
// Dates the calendar cannot answer for are counted as skipped.
func (s *Stats) Observe(due, completed time.Time) {
	spans, err := s.holidays.SpansHoliday(due, completed)
	if err != nil {
		s.skipped++
		return
	}
	if !spans {
		return
	}
	s.counts[calendar.Weekday(due)][calendar.DaysBetween(due, completed)]++
}

// Skipped returns how many observations fell outside the calendar
func (s *Stats) Skipped() int {
	return s.skipped
}

// Count returns the number of observations for a weekday
func (s *Stats) Count(weekday int) int {
	n := 0
	for _, c := range s.counts[weekday] {
		n += c
	}
	return n
}

// Table converts the counts to per-delay shares rounded to four decimals,
// ordered by delay. Weekdays without observations have empty rows.
func (s *Stats) Table() Table {
	var t Table
	for wd, m := range s.counts {
		total := s.Count(wd)
		if total == 0 {
			continue
		}
		delays := make([]int, 0, len(m))
		for d := range m {
			delays = append(delays, d)
		}
		sort.Ints(delays)
		for _, d := range delays {
			share := math.Round(float64(m[d])/float64(total)*10000) / 10000
			t[wd] = append(t[wd], Step{Delay: d, Prob: share})
		}
	}
	return t
}
