package calendar

import "time"

// Federal holiday table bounds (inclusive years of the rules)
const (
	FederalFirstYear = 2000
	FederalLastYear  = 2040
)

// federal is built once at init and shared read-only
var federal = New(FederalHolidays(FederalFirstYear, FederalLastYear))

// Federal returns the US federal holiday oracle.
// The table runs from New Year's Day observed 1999-12-31 through 2040-12-25.
func Federal() *Oracle {
	return federal
}

// FederalHolidays generates the observed US federal holidays for the given years.
// A holiday on Saturday is observed the preceding Friday, on Sunday the following Monday,
// so New Year's Day can land on December 31 of the prior year.
func FederalHolidays(fromYear, toYear int) []Holiday {
	var out []Holiday
	for y := fromYear; y <= toYear; y++ {
		out = append(out,
			Holiday{observed(Date(y, time.January, 1)), "New Year's Day"},
			Holiday{nthWeekday(y, time.January, time.Monday, 3), "Birthday of Martin Luther King, Jr."},
			Holiday{nthWeekday(y, time.February, time.Monday, 3), "Washington's Birthday"},
			Holiday{lastWeekday(y, time.May, time.Monday), "Memorial Day"},
		)
		if y >= 2021 {
			out = append(out, Holiday{observed(Date(y, time.June, 19)), "Juneteenth National Independence Day"})
		}
		out = append(out,
			Holiday{observed(Date(y, time.July, 4)), "Independence Day"},
			Holiday{nthWeekday(y, time.September, time.Monday, 1), "Labor Day"},
			Holiday{nthWeekday(y, time.October, time.Monday, 2), "Columbus Day"},
			Holiday{observed(Date(y, time.November, 11)), "Veterans Day"},
			Holiday{nthWeekday(y, time.November, time.Thursday, 4), "Thanksgiving Day"},
			Holiday{observed(Date(y, time.December, 25)), "Christmas Day"},
		)
	}
	return out
}

func observed(d time.Time) time.Time {
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, -1)
	case time.Sunday:
		return d.AddDate(0, 0, 1)
	}
	return d
}

func nthWeekday(year int, month time.Month, wd time.Weekday, n int) time.Time {
	d := Date(year, month, 1)
	offset := (int(wd) - int(d.Weekday()) + 7) % 7
	return d.AddDate(0, 0, offset+7*(n-1))
}

func lastWeekday(year int, month time.Month, wd time.Weekday) time.Time {
	d := Date(year, month+1, 1).AddDate(0, 0, -1)
	offset := (int(d.Weekday()) - int(wd) + 7) % 7
	return d.AddDate(0, 0, -offset)
}
