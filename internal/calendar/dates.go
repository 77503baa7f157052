package calendar

import "time"

// DateLayout is the canonical date format used in logs and storage
const DateLayout = "2006-01-02"

// Day truncates t to midnight UTC of its own calendar date
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Date returns midnight UTC of the given calendar date
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole calendar days from a to b (negative when b is earlier)
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

// AddDays moves d by n calendar days
func AddDays(d time.Time, n int) time.Time {
	return Day(d).AddDate(0, 0, n)
}

// Weekday returns the day of week with Monday as 0 and Sunday as 6
func Weekday(d time.Time) int {
	return (int(d.Weekday()) + 6) % 7
}
