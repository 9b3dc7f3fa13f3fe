// Package cycle derives credit card invoice periods.
//
// A cycle is named by its reference month: the month in which the invoice is due.
// Consecutive cycles of a card tile the calendar: every date belongs to exactly one.
package cycle

import (
	"time"

	"github.com/cleared-dev/tally/internal/calendar"
	"github.com/cleared-dev/tally/internal/model"
)

// Cycle is one invoice period. Start and End are inclusive.
type Cycle struct {
	Month calendar.YearMonth `json:"month"` // reference month, the month of Due
	Start time.Time          `json:"start"`
	End   time.Time          `json:"end"` // closing date
	Due   time.Time          `json:"due"`
}

// Contains reports whether t (by calendar day) falls inside the cycle.
func (c Cycle) Contains(t time.Time) bool {
	d := calendar.Truncate(t)
	return !d.Before(c.Start) && !d.After(c.End)
}

// For returns the card's cycle whose invoice is due in ym.
//
// When the closing day comes after the due day (closes the 25th, due the 5th) the
// statement closes in the month before ym. A closing day equal to the due day closes
// on the due date itself.
func For(card model.Card, ym calendar.YearMonth) Cycle {
	due := ym.Day(card.DueDay)
	closingMonth := closingMonthFor(card, ym)
	end := closingMonth.Day(card.ClosingDay)
	start := closingMonth.Add(-1).Day(card.ClosingDay).AddDate(0, 0, 1)
	return Cycle{Month: ym, Start: start, End: end, Due: due}
}

// MonthOf returns the reference month of the cycle containing t.
func MonthOf(card model.Card, t time.Time) calendar.YearMonth {
	d := calendar.Truncate(t)
	closingMonth := calendar.Of(d)
	if d.After(closingMonth.Day(card.ClosingDay)) {
		closingMonth = closingMonth.Add(1)
	}
	if closesBeforeDueMonth(card) {
		return closingMonth.Add(1)
	}
	return closingMonth
}

// Of returns the cycle containing t.
func Of(card model.Card, t time.Time) Cycle {
	return For(card, MonthOf(card, t))
}

// Range returns the cycles for count consecutive reference months starting at from.
func Range(card model.Card, from calendar.YearMonth, count int) []Cycle {
	cycles := make([]Cycle, 0, count)
	for i := 0; i < count; i++ {
		cycles = append(cycles, For(card, from.Add(i)))
	}
	return cycles
}

func closingMonthFor(card model.Card, ym calendar.YearMonth) calendar.YearMonth {
	if closesBeforeDueMonth(card) {
		return ym.Add(-1)
	}
	return ym
}

// closesBeforeDueMonth compares configured days rather than clamped dates, so the shift
// decision is the same for every month and cycles never gap or overlap in short months.
func closesBeforeDueMonth(card model.Card) bool {
	return card.ClosingDay > card.DueDay
}
