// Package calendar does month arithmetic that never overflows a day into the next month.
package calendar

import (
	"fmt"
	"time"
)

// ISODate is the layout of every date the ledger stores or exchanges.
const ISODate = "2006-01-02"

// Date returns midnight UTC on the given day. It does not clamp; use ClampDay for that.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DaysInMonth returns the length of month in year (28..31).
func DaysInMonth(year int, month time.Month) int {
	// Day 0 of the following month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampDay returns the date for day in the given month, pulled back to the month's last
// day when the month is shorter. A rule for the 31st lands on Feb 28 (or 29), never Mar 3.
func ClampDay(year int, month time.Month, day int) time.Time {
	// Normalize month overflow (month 13 -> January next year) before measuring.
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	year, month = first.Year(), first.Month()

	if day < 1 {
		day = 1
	}
	if last := DaysInMonth(year, month); day > last {
		day = last
	}
	return Date(year, month, day)
}

// AddMonths shifts t by n months keeping its day-of-month, clamped to the target month.
func AddMonths(t time.Time, n int) time.Time {
	return ClampDay(t.Year(), t.Month()+time.Month(n), t.Day())
}

// Truncate drops the time of day from t.
func Truncate(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), t.Day())
}

// ParseDate parses an ISO date ("2026-01-31").
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(ISODate, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return t, nil
}
