package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// YearMonth identifies a calendar month, e.g. the reference month of a statement.
type YearMonth struct {
	Year  int
	Month time.Month
}

// NewYearMonth normalizes month overflow (month 0 is December of the previous year).
func NewYearMonth(year int, month time.Month) YearMonth {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return YearMonth{Year: first.Year(), Month: first.Month()}
}

// Of returns the month containing t.
func Of(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// ParseYearMonth parses "2026-03".
func ParseYearMonth(s string) (YearMonth, error) {
	parts := strings.SplitN(strings.TrimSpace(s), "-", 2)
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 2 {
		return YearMonth{}, fmt.Errorf("invalid month %q: want YYYY-MM", s)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return YearMonth{}, fmt.Errorf("invalid year in %q: %w", s, err)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return YearMonth{}, fmt.Errorf("invalid month in %q: %w", s, err)
	}
	if month < 1 || month > 12 {
		return YearMonth{}, fmt.Errorf("invalid month in %q: %d out of range", s, month)
	}
	return YearMonth{Year: year, Month: time.Month(month)}, nil
}

// String formats as "2026-03".
func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// Add returns the month n months later (or earlier for negative n).
func (ym YearMonth) Add(n int) YearMonth {
	return NewYearMonth(ym.Year, ym.Month+time.Month(n))
}

// First returns the first day of the month.
func (ym YearMonth) First() time.Time { return Date(ym.Year, ym.Month, 1) }

// Last returns the last day of the month.
func (ym YearMonth) Last() time.Time { return Date(ym.Year, ym.Month, DaysInMonth(ym.Year, ym.Month)) }

// Day returns the given day of this month, clamped.
func (ym YearMonth) Day(day int) time.Time { return ClampDay(ym.Year, ym.Month, day) }

// Contains reports whether t falls in this month.
func (ym YearMonth) Contains(t time.Time) bool {
	return t.Year() == ym.Year && t.Month() == ym.Month
}

// Before reports whether ym is earlier than other.
func (ym YearMonth) Before(other YearMonth) bool {
	if ym.Year != other.Year {
		return ym.Year < other.Year
	}
	return ym.Month < other.Month
}

// After reports whether ym is later than other.
func (ym YearMonth) After(other YearMonth) bool {
	return other.Before(ym)
}

// MarshalText encodes as "2026-03".
func (ym YearMonth) MarshalText() ([]byte, error) {
	return []byte(ym.String()), nil
}

// UnmarshalText decodes "2026-03".
func (ym *YearMonth) UnmarshalText(b []byte) error {
	v, err := ParseYearMonth(string(b))
	if err != nil {
		return err
	}
	*ym = v
	return nil
}
