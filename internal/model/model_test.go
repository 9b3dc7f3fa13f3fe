package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tally/internal/money"
)

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func validTxn() Transaction {
	return Transaction{
		ID:          "t1",
		Date:        date(2026, 3, 10),
		Description: "Mercado",
		Amount:      money.FromCents(4590),
		Kind:        KindExpense,
		Category:    "Alimentação",
		Settlement:  Settled,
	}
}

func TestTransactionValidate(t *testing.T) {
	require.NoError(t, validTxn().Validate())

	tests := []struct {
		name  string
		mod   func(*Transaction)
		field string
	}{
		{"zero date", func(t *Transaction) { t.Date = time.Time{} }, "date"},
		{"blank description", func(t *Transaction) { t.Description = "  " }, "description"},
		{"zero amount", func(t *Transaction) { t.Amount = 0 }, "amount"},
		{"negative amount", func(t *Transaction) { t.Amount = money.FromCents(-1) }, "amount"},
		{"bad kind", func(t *Transaction) { t.Kind = "transfer" }, "kind"},
		{"bad settlement", func(t *Transaction) { t.Settlement = "" }, "settlement"},
		{"bad installment", func(t *Transaction) { t.Installment = &Installment{GroupID: "g", Index: 4, Total: 3} }, "installment"},
		{"tag with separator", func(t *Transaction) { t.Tags = []string{"trip", "a;b"} }, "tags"},
		{"blank tag", func(t *Transaction) { t.Tags = []string{" "} }, "tags"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := validTxn()
			tt.mod(&txn)
			err := txn.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" Income ")
	require.NoError(t, err)
	assert.Equal(t, KindIncome, k)

	_, err = ParseKind("transfer")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSigned(t *testing.T) {
	txn := validTxn()
	assert.Equal(t, money.FromCents(-4590), txn.Signed())
	txn.Kind = KindIncome
	assert.Equal(t, money.FromCents(4590), txn.Signed())
}

func TestWithTag(t *testing.T) {
	txn := validTxn()
	tagged := txn.WithTag(TagRecurring).WithTag(TagRecurring)
	assert.Equal(t, []string{TagRecurring}, tagged.Tags)
	assert.Empty(t, txn.Tags, "original untouched")
	assert.True(t, tagged.HasTag(TagRecurring))
	assert.Equal(t, "rule:abc", RuleTag("abc"))
	assert.Equal(t, "invoice:c1/2026-03", InvoiceTag("c1", "2026-03"))
}

func TestCardValidate(t *testing.T) {
	c := Card{ID: "c1", Name: "Nubank", CreditLimit: money.FromCents(500000), ClosingDay: 25, DueDay: 5}
	require.NoError(t, c.Validate())

	c.ClosingDay = 32
	assert.ErrorIs(t, c.Validate(), ErrValidation)
	c.ClosingDay = 25
	c.DueDay = 0
	assert.ErrorIs(t, c.Validate(), ErrValidation)
}

func TestRuleValidate(t *testing.T) {
	r := FixedExpenseRule{ID: "r1", Day: 31, Description: "Aluguel", Amount: money.FromCents(150000), Kind: KindExpense}
	require.NoError(t, r.Validate())

	r.Day = 0
	err := r.Validate()
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "day must be within 1..31")
}

func TestGoalProgress(t *testing.T) {
	assert.Equal(t, int64(2500), Goal{Target: money.FromCents(1000), Current: money.FromCents(250)}.Progress())
	assert.Equal(t, int64(10000), Goal{Target: money.FromCents(1000), Current: money.FromCents(5000)}.Progress())
	assert.Equal(t, int64(0), Goal{Current: money.FromCents(5000)}.Progress())
}

func TestLedgerImmutability(t *testing.T) {
	orig := Ledger{Transactions: []Transaction{validTxn()}}

	next := orig.AppendTransactions(Transaction{ID: "t2"})
	assert.Len(t, orig.Transactions, 1)
	assert.Len(t, next.Transactions, 2)

	changed := validTxn()
	changed.Description = "Feira"
	replaced, err := orig.ReplaceTransaction(changed)
	require.NoError(t, err)
	assert.Equal(t, "Mercado", orig.Transactions[0].Description)
	assert.Equal(t, "Feira", replaced.Transactions[0].Description)

	removed, err := next.RemoveTransaction("t1")
	require.NoError(t, err)
	assert.Len(t, removed.Transactions, 1)
	assert.Len(t, next.Transactions, 2)

	_, err = orig.RemoveTransaction("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = orig.Card("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = orig.Rule("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestErrorMessages(t *testing.T) {
	ve := &ValidationError{Field: "amount", Row: 3, Value: "abc", Reason: "must be positive"}
	assert.Equal(t, `row 3: amount must be positive (got "abc")`, ve.Error())

	nf := &NotFoundError{Kind: "card", ID: "x"}
	assert.Equal(t, `card "x" not found`, nf.Error())

	re := &RowError{Row: 4, Field: "date", Value: "99/99", Err: errors.New("bad")}
	assert.Equal(t, `row 4: date "99/99": bad`, re.Error())

	wrapped := &ValidationError{Field: "installments", Reason: "must be at least 1", Err: ErrInvalidInstallmentCount}
	assert.ErrorIs(t, wrapped, ErrInvalidInstallmentCount)
	assert.ErrorIs(t, wrapped, ErrValidation)
}
