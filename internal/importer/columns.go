package importer

import (
	"strings"

	"github.com/cleared-dev/tally/internal/category"
)

// ColumnMatcher holds the synonym sets used to recognise logical columns in a header line.
// Matching is a substring test against folded column names.
type ColumnMatcher struct {
	Date        []string
	Amount      []string
	Description []string
}

// DefaultColumns is the built-in synonym table.
func DefaultColumns() ColumnMatcher {
	return ColumnMatcher{
		Date:        []string{"data", "date", "dt", "lancamento"},
		Amount:      []string{"valor", "amount", "value", "mn", "total"},
		Description: []string{"desc", "memo", "hist", "title", "estabelecimento", "loja"},
	}
}

// Columns is the resolved position of each logical column in a row.
type Columns struct {
	Date        int
	Amount      int
	Description int
}

// Match resolves column positions from header fields. Each field is claimed by at most one
// logical column, tried in the order date, amount, description. It reports false unless
// both date and amount were found. Without a description match the first unclaimed field
// is used; with none left Description is -1.
func (m ColumnMatcher) Match(fields []string) (Columns, bool) {
	cols := Columns{Date: -1, Amount: -1, Description: -1}
	for i, f := range fields {
		name := category.Fold(f)
		if name == "" {
			continue
		}
		switch {
		case cols.Date < 0 && containsAny(name, m.Date):
			cols.Date = i
		case cols.Amount < 0 && containsAny(name, m.Amount):
			cols.Amount = i
		case cols.Description < 0 && containsAny(name, m.Description):
			cols.Description = i
		}
	}
	if cols.Date < 0 || cols.Amount < 0 {
		return cols, false
	}
	if cols.Description < 0 {
		for i := range fields {
			if i != cols.Date && i != cols.Amount {
				cols.Description = i
				break
			}
		}
	}
	return cols, true
}

func (c Columns) width() int {
	return max(c.Date, c.Amount, c.Description) + 1
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
