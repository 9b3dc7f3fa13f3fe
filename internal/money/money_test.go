package money

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"1.234,56", 123456},
		{"1234.56", 123456},
		{"1234,56", 123456},
		{"1,234.56", 123456},
		{"R$ 50,00", 5000},
		{"-45,90", 4590},
		{"  12  ", 1200},
		{"0,01", 1},
		{"1.005", 101},
		{"US$ 3,50", 350},
		{"10.000.000,00", 1000000000},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		require.NoError(t, err, "Parse(%q)", tt.in)
		assert.Equal(t, FromCents(tt.want), got, "Parse(%q)", tt.in)
	}
}

func TestParse_LocaleVariantsAgree(t *testing.T) {
	a, err := Parse("1.234,56")
	require.NoError(t, err)
	b, err := Parse("1234.56")
	require.NoError(t, err)
	c, err := Parse("1234,56")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, b, c)
	assert.Equal(t, int64(123456), a.Cents())
}

func TestParse_Errors(t *testing.T) {
	for _, in := range []string{"", "abc", "R$", "1.2.3", "1,2,3", "99999999999999999999,99", "123456789012345678901234", "92233720368547758.08"} {
		_, err := Parse(in)
		assert.ErrorIs(t, err, ErrInvalidAmount, "Parse(%q)", in)
	}
}

func TestParse_LargestAmount(t *testing.T) {
	m, err := Parse("92.233.720.368.547.758,07")
	require.NoError(t, err)
	assert.Equal(t, FromCents(math.MaxInt64), m)
}

func TestString(t *testing.T) {
	assert.Equal(t, "1234.56", FromCents(123456).String())
	assert.Equal(t, "0.05", FromCents(5).String())
	assert.Equal(t, "-3.00", FromCents(-300).String())
}

func TestFromDecimal(t *testing.T) {
	m, err := FromDecimal(decimal.RequireFromString("19.90"))
	require.NoError(t, err)
	assert.Equal(t, FromCents(1990), m)

	_, err = FromDecimal(decimal.RequireFromString("19.901"))
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = FromDecimal(decimal.RequireFromString("100000000000000000"))
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestText(t *testing.T) {
	b, err := FromCents(1050).MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "10.50", string(b))

	var m Money
	require.NoError(t, m.UnmarshalText([]byte("10.50")))
	assert.Equal(t, FromCents(1050), m)

	assert.Error(t, m.UnmarshalText([]byte("1.234,56")))
	assert.ErrorIs(t, m.UnmarshalText([]byte("99999999999999999999.99")), ErrInvalidAmount)
	assert.Equal(t, FromCents(1050), m, "failed unmarshal leaves the value")
}

func TestArithmetic(t *testing.T) {
	a := FromCents(1000)
	b := FromCents(250)
	assert.Equal(t, FromCents(1250), a.Add(b))
	assert.Equal(t, FromCents(750), a.Sub(b))
	assert.Equal(t, FromCents(-250), b.Neg())
	assert.Equal(t, FromCents(1500), Sum(a, b, b))
	assert.True(t, Zero.IsZero())
	assert.False(t, b.Neg().IsPositive())
}
