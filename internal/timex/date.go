package timex

import (
	"time"
)

// StartOfDay returns midnight UTC of the calendar day t falls on (in UTC).
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayRange returns the half-open interval [start, end) covering the UTC
// calendar day of t.
func DayRange(t time.Time) (time.Time, time.Time) {
	start := StartOfDay(t)
	return start, start.AddDate(0, 0, 1)
}

// ParseDate parses a YYYY-MM-DD calendar date as a UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, time.UTC)
}
