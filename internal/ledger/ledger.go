// Package ledger computes month totals, balances and card invoices over a ledger snapshot,
// and applies the approve, pay-invoice and delete transitions.
//
// Cash transactions belong to the calendar month of their date. Card transactions belong
// to the month whose billing cycle contains their date. Pending transactions count toward
// nothing until approved.
package ledger

import (
	"cmp"
	"slices"

	"github.com/cleared-dev/tally/internal/calendar"
	"github.com/cleared-dev/tally/internal/cycle"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/money"
)

// MonthSummary holds the cash-flow figures of one month.
type MonthSummary struct {
	Month         calendar.YearMonth `json:"month"`
	Income        money.Money        `json:"income"`
	Expense       money.Money        `json:"expense"`
	PeriodBalance money.Money        `json:"period_balance"`
	FinalBalance  money.Money        `json:"final_balance"`
	Pending       int                `json:"pending"`
	CardInvoices  []Invoice          `json:"card_invoices,omitempty"`
}

// CategoryTotal is the settled cash expense of one category.
type CategoryTotal struct {
	Category string      `json:"category"`
	Total    money.Money `json:"total"`
}

// MonthFor returns the month txn is counted in. A card id the ledger does not know falls
// back to the calendar month.
func MonthFor(l model.Ledger, txn model.Transaction) calendar.YearMonth {
	if txn.IsCard() {
		if card, err := l.Card(txn.CardID); err == nil {
			return cycle.MonthOf(card, txn.Date)
		}
	}
	return calendar.Of(txn.Date)
}

// BelongsTo reports whether txn is counted in ym.
func BelongsTo(l model.Ledger, txn model.Transaction, ym calendar.YearMonth) bool {
	return MonthFor(l, txn) == ym
}

// countsToCash reports whether a settled txn moves the cash balance. Card transactions of
// either kind reach cash only through the invoice payment; a card credit lowers the invoice.
func countsToCash(txn model.Transaction) bool {
	return txn.IsSettled() && !txn.IsCard()
}

// Summarize computes the figures of ym.
func Summarize(l model.Ledger, ym calendar.YearMonth) MonthSummary {
	s := MonthSummary{Month: ym}
	cumulative := money.Zero
	for _, txn := range l.Transactions {
		m := MonthFor(l, txn)
		if m == ym && !txn.IsSettled() {
			s.Pending++
		}
		if !countsToCash(txn) || m.After(ym) {
			continue
		}
		cumulative = cumulative.Add(txn.Signed())
		if m != ym {
			continue
		}
		if txn.Kind == model.KindIncome {
			s.Income = s.Income.Add(txn.Amount)
		} else {
			s.Expense = s.Expense.Add(txn.Amount)
		}
	}
	s.PeriodBalance = s.Income.Sub(s.Expense)
	s.FinalBalance = l.OpeningBalance.Add(cumulative)

	for _, card := range l.Cards {
		inv, err := InvoiceFor(l, card.ID, ym)
		if err != nil {
			continue
		}
		s.CardInvoices = append(s.CardInvoices, inv)
	}
	return s
}

// Trend returns the summaries of the months ending at ym, oldest first.
func Trend(l model.Ledger, ym calendar.YearMonth, months int) []MonthSummary {
	if months < 1 {
		return nil
	}
	out := make([]MonthSummary, 0, months)
	for i := months - 1; i >= 0; i-- {
		s := Summarize(l, ym.Add(-i))
		s.CardInvoices = nil
		out = append(out, s)
	}
	return out
}

// CategoryBreakdown totals the settled cash expense of ym per category, largest first.
func CategoryBreakdown(l model.Ledger, ym calendar.YearMonth) []CategoryTotal {
	totals := make(map[string]money.Money)
	for _, txn := range l.Transactions {
		if txn.Kind != model.KindExpense || !countsToCash(txn) || !BelongsTo(l, txn, ym) {
			continue
		}
		totals[txn.Category] = totals[txn.Category].Add(txn.Amount)
	}
	out := make([]CategoryTotal, 0, len(totals))
	for c, t := range totals {
		out = append(out, CategoryTotal{Category: c, Total: t})
	}
	slices.SortFunc(out, func(a, b CategoryTotal) int {
		if c := cmp.Compare(b.Total, a.Total); c != 0 {
			return c
		}
		return cmp.Compare(a.Category, b.Category)
	})
	return out
}
