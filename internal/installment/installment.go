// Package installment splits one purchase into monthly installment transactions.
package installment

import (
	"strconv"
	"strings"
	"time"

	"github.com/cleared-dev/tally/internal/calendar"
	"github.com/cleared-dev/tally/internal/id"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/money"
)

// Purchase describes what to split.
type Purchase struct {
	Date        time.Time
	Description string
	Amount      money.Money
	Category    string
	CardID      string
	Count       int
	Tags        []string
}

// SplitAmount divides total into n parts that sum exactly to total.
// The remainder cents go one each to the first parts, so earlier installments are
// never smaller than later ones: 1000 / 3 = [334, 333, 333].
func SplitAmount(total money.Money, n int) ([]money.Money, error) {
	if n <= 0 {
		return nil, invalidCount(n)
	}
	if total < 0 {
		return nil, &model.ValidationError{Field: "amount", Value: total.String(), Reason: "must not be negative"}
	}
	base := total.Cents() / int64(n)
	remainder := total.Cents() % int64(n)

	parts := make([]money.Money, n)
	for i := range parts {
		cents := base
		if int64(i) < remainder {
			cents++
		}
		parts[i] = money.FromCents(cents)
	}
	return parts, nil
}

// Split turns a purchase into Count expense transactions, one per month starting at the
// purchase date. A single installment is an ordinary transaction without group metadata.
func Split(p Purchase, newID id.Generator) ([]model.Transaction, error) {
	if p.Count <= 0 {
		return nil, invalidCount(p.Count)
	}
	if !p.Amount.IsPositive() {
		return nil, &model.ValidationError{Field: "amount", Value: p.Amount.String(), Reason: "must be positive"}
	}
	if p.Date.IsZero() {
		return nil, &model.ValidationError{Field: "date", Reason: "is required"}
	}
	if strings.TrimSpace(p.Description) == "" {
		return nil, &model.ValidationError{Field: "description", Reason: "is required"}
	}

	parts, err := SplitAmount(p.Amount, p.Count)
	if err != nil {
		return nil, err
	}

	date := calendar.Truncate(p.Date)
	if p.Count == 1 {
		return []model.Transaction{{
			ID:          newID(),
			Date:        date,
			Description: p.Description,
			Amount:      parts[0],
			Kind:        model.KindExpense,
			Category:    p.Category,
			Tags:        append([]string(nil), p.Tags...),
			CardID:      p.CardID,
			Settlement:  model.Settled,
		}}, nil
	}

	groupID := newID()
	txns := make([]model.Transaction, p.Count)
	for i, amount := range parts {
		tags := append(append([]string(nil), p.Tags...), model.TagInstallment)
		txns[i] = model.Transaction{
			ID:          newID(),
			Date:        calendar.AddMonths(date, i),
			Description: p.Description + " " + id.FormatInstallment(i+1, p.Count),
			Amount:      amount,
			Kind:        model.KindExpense,
			Category:    p.Category,
			Tags:        tags,
			CardID:      p.CardID,
			Settlement:  model.Settled,
			Installment: &model.Installment{GroupID: groupID, Index: i + 1, Total: p.Count},
		}
	}
	return txns, nil
}

func invalidCount(n int) error {
	return &model.ValidationError{
		Field:  "installments",
		Value:  strconv.Itoa(n),
		Reason: "must be at least 1",
		Err:    model.ErrInvalidInstallmentCount,
	}
}
