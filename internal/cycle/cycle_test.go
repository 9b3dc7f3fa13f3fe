package cycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tally/internal/calendar"
	"github.com/cleared-dev/tally/internal/model"
)

func date(y int, m time.Month, d int) time.Time { return calendar.Date(y, m, d) }

func card(closing, due int) model.Card {
	return model.Card{ID: "c1", Name: "Test", ClosingDay: closing, DueDay: due}
}

func TestFor_ClosesInPreviousMonth(t *testing.T) {
	c := For(card(25, 5), calendar.YearMonth{Year: 2026, Month: time.March})
	assert.Equal(t, date(2026, 1, 26), c.Start)
	assert.Equal(t, date(2026, 2, 25), c.End)
	assert.Equal(t, date(2026, 3, 5), c.Due)

	assert.True(t, c.Contains(date(2026, 2, 25)))
	assert.True(t, c.Contains(date(2026, 2, 25).Add(23*time.Hour)))
	assert.False(t, c.Contains(date(2026, 2, 26)))

	april := For(card(25, 5), calendar.YearMonth{Year: 2026, Month: time.April})
	assert.True(t, april.Contains(date(2026, 2, 26)))
	assert.Equal(t, calendar.YearMonth{Year: 2026, Month: time.April}, MonthOf(card(25, 5), date(2026, 2, 26)))
	assert.Equal(t, calendar.YearMonth{Year: 2026, Month: time.March}, MonthOf(card(25, 5), date(2026, 2, 25)))
}

func TestFor_ClosesInSameMonth(t *testing.T) {
	c := For(card(3, 10), calendar.YearMonth{Year: 2026, Month: time.March})
	assert.Equal(t, date(2026, 2, 4), c.Start)
	assert.Equal(t, date(2026, 3, 3), c.End)
	assert.Equal(t, date(2026, 3, 10), c.Due)
}

func TestFor_ClosingDay31OnShortMonths(t *testing.T) {
	// Closing on the 31st clamps to the last day of 30-day months and February.
	c := For(card(31, 10), calendar.YearMonth{Year: 2026, Month: time.May})
	assert.Equal(t, date(2026, 3, 31), c.Start.AddDate(0, 0, -1))
	assert.Equal(t, date(2026, 4, 30), c.End)

	feb := For(card(31, 10), calendar.YearMonth{Year: 2026, Month: time.March})
	assert.Equal(t, date(2026, 2, 1), feb.Start)
	assert.Equal(t, date(2026, 2, 28), feb.End)

	leap := For(card(31, 10), calendar.YearMonth{Year: 2024, Month: time.March})
	assert.Equal(t, date(2024, 2, 29), leap.End)
}

func TestFor_ClosingEqualsDue(t *testing.T) {
	c := For(card(10, 10), calendar.YearMonth{Year: 2026, Month: time.June})
	assert.Equal(t, date(2026, 5, 11), c.Start)
	assert.Equal(t, date(2026, 6, 10), c.End)
	assert.Equal(t, date(2026, 6, 10), c.Due)
}

func TestFor_YearBoundary(t *testing.T) {
	c := For(card(25, 5), calendar.YearMonth{Year: 2026, Month: time.January})
	assert.Equal(t, date(2025, 11, 26), c.Start)
	assert.Equal(t, date(2025, 12, 25), c.End)
	assert.Equal(t, date(2026, 1, 5), c.Due)
}

// Every day over several years must land in exactly one cycle, for every closing/due pair.
func TestCycles_TileTheCalendar(t *testing.T) {
	from := calendar.YearMonth{Year: 2023, Month: time.November}
	for closing := 1; closing <= 31; closing++ {
		for _, due := range []int{1, 5, 10, 15, 20, 25, 28, 30, 31} {
			c := card(closing, due)
			cycles := Range(c, from, 40)

			for i, cy := range cycles {
				require.False(t, cy.End.Before(cy.Start), "closing=%d due=%d month=%s", closing, due, cy.Month)
				require.False(t, cy.End.After(cy.Due), "closing=%d due=%d month=%s", closing, due, cy.Month)
				if closing != due && !(closing < due && cy.End.Equal(cy.Due)) {
					require.True(t, cy.End.Before(cy.Due), "closing=%d due=%d month=%s", closing, due, cy.Month)
				}
				if i > 0 {
					require.Equal(t, cycles[i-1].End.AddDate(0, 0, 1), cy.Start,
						"gap or overlap: closing=%d due=%d month=%s", closing, due, cy.Month)
				}
			}

			for d := cycles[0].Start; !d.After(cycles[len(cycles)-1].End); d = d.AddDate(0, 0, 1) {
				hits := 0
				for _, cy := range cycles {
					if cy.Contains(d) {
						hits++
					}
				}
				require.Equal(t, 1, hits, "closing=%d due=%d date=%s", closing, due, d.Format(calendar.ISODate))
				require.True(t, Of(c, d).Contains(d), "closing=%d due=%d date=%s", closing, due, d.Format(calendar.ISODate))
			}
		}
	}
}

func TestRange(t *testing.T) {
	cycles := Range(card(25, 5), calendar.YearMonth{Year: 2026, Month: time.November}, 3)
	require.Len(t, cycles, 3)
	assert.Equal(t, "2026-11", cycles[0].Month.String())
	assert.Equal(t, "2027-01", cycles[2].Month.String())
}
