package model

import (
	"strconv"
	"strings"
	"time"

	"github.com/cleared-dev/tally/internal/money"
)

// Card is a credit card. Its invoice cycle for a month is computed, never stored.
type Card struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	CreditLimit money.Money `json:"limit"`
	ClosingDay  int         `json:"closing_day"` // 1..31
	DueDay      int         `json:"due_day"`     // 1..31
}

// Validate checks the card's days and limit.
func (c Card) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return &ValidationError{Field: "name", Reason: "is required"}
	}
	if c.CreditLimit < 0 {
		return &ValidationError{Field: "limit", Value: c.CreditLimit.String(), Reason: "must not be negative"}
	}
	if err := validDay("closing_day", c.ClosingDay); err != nil {
		return err
	}
	return validDay("due_day", c.DueDay)
}

// FixedExpenseRule is a monthly template. Only the transactions it generates reach balances.
type FixedExpenseRule struct {
	ID          string      `json:"id"`
	Day         int         `json:"day"` // 1..31, clamped to short months
	Description string      `json:"description"`
	Category    string      `json:"category"`
	Amount      money.Money `json:"amount"`
	Kind        Kind        `json:"kind"`
}

// Validate checks the rule before it is stored or expanded.
func (r FixedExpenseRule) Validate() error {
	if err := validDay("day", r.Day); err != nil {
		return err
	}
	if strings.TrimSpace(r.Description) == "" {
		return &ValidationError{Field: "description", Reason: "is required"}
	}
	if !r.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Value: r.Amount.String(), Reason: "must be positive"}
	}
	if !r.Kind.Valid() {
		return &ValidationError{Field: "kind", Value: string(r.Kind), Reason: "must be income or expense"}
	}
	return nil
}

// GenerationLock records that a rule set was expanded for a month.
type GenerationLock struct {
	RuleSet string
	Year    int
	Month   time.Month
}

// Goal tracks savings toward a target.
type Goal struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Target  money.Money `json:"target"`
	Current money.Money `json:"current"`
}

// Progress returns completion in basis points (10000 = done), capped at 10000.
func (g Goal) Progress() int64 {
	if !g.Target.IsPositive() {
		return 0
	}
	bp := g.Current.Cents() * 10000 / g.Target.Cents()
	return min(max(bp, 0), 10000)
}

// Receivable is money someone owes the ledger's owner.
type Receivable struct {
	ID           string      `json:"id"`
	Debtor       string      `json:"debtor"`
	Description  string      `json:"description"`
	Amount       money.Money `json:"amount"`
	ExpectedDate time.Time   `json:"expected_date"`
	Paid         bool        `json:"paid"`
}

func validDay(field string, day int) error {
	if day < 1 || day > 31 {
		return &ValidationError{Field: field, Value: strconv.Itoa(day), Reason: "must be within 1..31"}
	}
	return nil
}
