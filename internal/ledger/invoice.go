package ledger

import (
	"fmt"
	"time"

	"github.com/cleared-dev/tally/internal/calendar"
	"github.com/cleared-dev/tally/internal/cycle"
	"github.com/cleared-dev/tally/internal/id"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/money"
)

// InvoiceCategory is the category of invoice payment transactions.
const InvoiceCategory = "Card invoice"

// Invoice is a card's statement for the month its payment is due.
type Invoice struct {
	Card  model.Card  `json:"card"`
	Cycle cycle.Cycle `json:"cycle"`
	// Total is settled expense minus settled credits within the cycle.
	Total        money.Money         `json:"total"`
	Available    money.Money         `json:"available"`
	Transactions []model.Transaction `json:"transactions"`
	Pending      []model.Transaction `json:"pending,omitempty"`
	// Paid is set once every settled transaction of the cycle is marked paid.
	Paid bool `json:"paid"`
}

// Outstanding sums the settled transactions not yet paid.
func (inv Invoice) Outstanding() money.Money {
	total := money.Zero
	for _, txn := range inv.Transactions {
		if !txn.Paid {
			total = total.Add(txn.Signed().Neg())
		}
	}
	return total
}

// InvoiceFor builds the invoice of cardID due in ym.
func InvoiceFor(l model.Ledger, cardID string, ym calendar.YearMonth) (Invoice, error) {
	card, err := l.Card(cardID)
	if err != nil {
		return Invoice{}, err
	}
	inv := Invoice{Card: card, Cycle: cycle.For(card, ym)}
	for _, txn := range l.Transactions {
		if txn.CardID != cardID || !inv.Cycle.Contains(txn.Date) {
			continue
		}
		if !txn.IsSettled() {
			inv.Pending = append(inv.Pending, txn)
			continue
		}
		inv.Transactions = append(inv.Transactions, txn)
		inv.Total = inv.Total.Add(txn.Signed().Neg())
	}
	inv.Available = card.CreditLimit.Sub(inv.Total)
	inv.Paid = len(inv.Transactions) > 0
	for _, txn := range inv.Transactions {
		if !txn.Paid {
			inv.Paid = false
			break
		}
	}
	return inv, nil
}

// Approve settles pending transactions. Every id must exist and be pending; on any error
// the ledger is returned unchanged.
func Approve(l model.Ledger, ids ...string) (model.Ledger, error) {
	out := l.Clone()
	for _, txnID := range ids {
		txn, err := out.Transaction(txnID)
		if err != nil {
			return l, err
		}
		if txn.IsSettled() {
			return l, fmt.Errorf("approving %s: already settled: %w", txnID, model.ErrInvalidTransition)
		}
		txn.Settlement = model.Settled
		if out, err = out.ReplaceTransaction(txn); err != nil {
			return l, err
		}
	}
	return out, nil
}

// PayRequest describes an invoice payment.
type PayRequest struct {
	CardID string
	Month  calendar.YearMonth
	// Date of the payment; zero means the invoice due date.
	Date  time.Time
	NewID id.Generator
}

// PayInvoice marks the unpaid settled transactions of an invoice as paid and records the
// payment as one cash expense for their total. An invoice with nothing outstanding is
// rejected.
func PayInvoice(l model.Ledger, req PayRequest) (model.Ledger, model.Transaction, error) {
	inv, err := InvoiceFor(l, req.CardID, req.Month)
	if err != nil {
		return l, model.Transaction{}, err
	}
	if len(inv.Transactions) == 0 {
		return l, model.Transaction{}, &model.ValidationError{Field: "invoice", Value: req.Month.String(), Reason: "has no settled transactions"}
	}
	if inv.Paid {
		return l, model.Transaction{}, &model.ValidationError{Field: "invoice", Value: req.Month.String(), Reason: "is already paid", Err: model.ErrInvalidTransition}
	}
	due := inv.Outstanding()
	if !due.IsPositive() {
		return l, model.Transaction{}, &model.ValidationError{Field: "invoice", Value: due.String(), Reason: "outstanding amount must be positive"}
	}

	out := l.Clone()
	for _, txn := range inv.Transactions {
		if txn.Paid {
			continue
		}
		txn.Paid = true
		if out, err = out.ReplaceTransaction(txn); err != nil {
			return l, model.Transaction{}, err
		}
	}

	newID := req.NewID
	if newID == nil {
		newID = id.New
	}
	date := req.Date
	if date.IsZero() {
		date = inv.Cycle.Due
	}
	payment := model.Transaction{
		ID:          newID(),
		Date:        calendar.Truncate(date),
		Description: fmt.Sprintf("Invoice %s %s", inv.Card.Name, req.Month),
		Amount:      due,
		Kind:        model.KindExpense,
		Category:    InvoiceCategory,
		Tags:        []string{model.TagInvoicePayment, model.InvoiceTag(req.CardID, req.Month.String())},
		Settlement:  model.Settled,
	}
	return out.AppendTransactions(payment), payment, nil
}

// Delete removes one transaction. Installment siblings are kept.
func Delete(l model.Ledger, txnID string) (model.Ledger, error) {
	return l.RemoveTransaction(txnID)
}
