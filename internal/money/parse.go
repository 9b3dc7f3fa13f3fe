package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Parse reads a statement amount written with either decimal convention.
//
// Currency symbols, letters, spaces and signs are dropped; the result is a magnitude.
// When the last ',' comes after the last '.', or only ',' is present, ',' is the decimal
// separator and every '.' is a thousands mark. Otherwise '.' is decimal and ',' is dropped.
// A third decimal digit rounds half-up.
//
//	Parse("1.234,56") -> 123456
//	Parse("1234.56")  -> 123456
//	Parse("R$ 50,00") -> 5000
func Parse(s string) (Money, error) {
	cleaned := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' || r == '.' || r == ',' {
			return r
		}
		return -1
	}, s)
	if strings.IndexFunc(cleaned, func(r rune) bool { return r >= '0' && r <= '9' }) < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	lastDot := strings.LastIndex(cleaned, ".")
	lastComma := strings.LastIndex(cleaned, ",")
	if lastComma > lastDot {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	} else {
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return fromCentsDecimal(d.Abs().Round(2).Shift(2), s)
}
