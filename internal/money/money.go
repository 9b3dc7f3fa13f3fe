// Package money implements the two-decimal fixed-point amount used by every ledger record.
//
// Amounts are held as integer cents. Sums are integer additions; decimal.Decimal is only
// used at the edges to parse and format text.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned when text cannot be read as an amount.
var ErrInvalidAmount = errors.New("invalid amount")

// Money is an amount in cents of the ledger's single currency.
type Money int64

// Zero is the zero amount.
const Zero Money = 0

// FromCents returns the amount for a number of cents.
func FromCents(cents int64) Money { return Money(cents) }

// FromDecimal converts d to Money. More than two decimal places is an error, and so is a
// value whose cents do not fit in an int64.
func FromDecimal(d decimal.Decimal) (Money, error) {
	shifted := d.Shift(2)
	if !shifted.Equal(shifted.Truncate(0)) {
		return 0, fmt.Errorf("%w: %s has more than 2 decimal places", ErrInvalidAmount, d)
	}
	return fromCentsDecimal(shifted, d.String())
}

// fromCentsDecimal converts an integral number of cents, rejecting values out of range.
func fromCentsDecimal(cents decimal.Decimal, raw string) (Money, error) {
	if !cents.BigInt().IsInt64() {
		return 0, fmt.Errorf("%w: %q is out of range", ErrInvalidAmount, raw)
	}
	return Money(cents.IntPart()), nil
}

// Cents returns the amount in cents.
func (m Money) Cents() int64 { return int64(m) }

// Decimal returns the amount as a decimal with two places of scale.
func (m Money) Decimal() decimal.Decimal { return decimal.New(int64(m), -2) }

// Add returns m + o.
func (m Money) Add(o Money) Money { return m + o }

// Sub returns m - o. Balances may go negative; stored amounts never do.
func (m Money) Sub(o Money) Money { return m - o }

// Neg returns -m.
func (m Money) Neg() Money { return -m }

// IsZero reports whether m is zero.
func (m Money) IsZero() bool { return m == 0 }

// IsPositive reports whether m > 0.
func (m Money) IsPositive() bool { return m > 0 }

// String formats m as "1234.56".
func (m Money) String() string { return m.Decimal().StringFixed(2) }

// MarshalText implements encoding.TextMarshaler.
func (m Money) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler. It accepts plain decimals only;
// locale-formatted text goes through Parse.
func (m *Money) UnmarshalText(b []byte) error {
	d, err := decimal.NewFromString(strings.TrimSpace(string(b)))
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidAmount, b)
	}
	v, err := FromDecimal(d)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Sum adds amounts.
func Sum(amounts ...Money) Money {
	var total Money
	for _, a := range amounts {
		total += a
	}
	return total
}
