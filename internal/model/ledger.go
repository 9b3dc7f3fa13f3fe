// Package model holds the ledger's records and the snapshot the engine operates on.
package model

import (
	"slices"

	"github.com/cleared-dev/tally/internal/money"
)

// Ledger is a snapshot of every record the engine needs. Engine calls take a Ledger and
// return a new one; they never mutate the value they were given.
type Ledger struct {
	OpeningBalance money.Money        `json:"opening_balance"`
	Transactions   []Transaction      `json:"transactions"`
	Cards          []Card             `json:"cards"`
	Rules          []FixedExpenseRule `json:"rules"`
	Goals          []Goal             `json:"goals"`
	Receivables    []Receivable       `json:"receivables"`
}

// Clone returns a copy whose slices can be modified without touching l.
func (l Ledger) Clone() Ledger {
	out := l
	out.Transactions = make([]Transaction, len(l.Transactions))
	for i, t := range l.Transactions {
		t.Tags = slices.Clone(t.Tags)
		if t.Installment != nil {
			inst := *t.Installment
			t.Installment = &inst
		}
		out.Transactions[i] = t
	}
	out.Cards = slices.Clone(l.Cards)
	out.Rules = slices.Clone(l.Rules)
	out.Goals = slices.Clone(l.Goals)
	out.Receivables = slices.Clone(l.Receivables)
	return out
}

// Card looks up a card by id.
func (l Ledger) Card(id string) (Card, error) {
	for _, c := range l.Cards {
		if c.ID == id {
			return c, nil
		}
	}
	return Card{}, &NotFoundError{Kind: "card", ID: id}
}

// Transaction looks up a transaction by id.
func (l Ledger) Transaction(id string) (Transaction, error) {
	if i := l.transactionIndex(id); i >= 0 {
		return l.Transactions[i], nil
	}
	return Transaction{}, &NotFoundError{Kind: "transaction", ID: id}
}

// Rule looks up a fixed-expense rule by id.
func (l Ledger) Rule(id string) (FixedExpenseRule, error) {
	for _, r := range l.Rules {
		if r.ID == id {
			return r, nil
		}
	}
	return FixedExpenseRule{}, &NotFoundError{Kind: "rule", ID: id}
}

func (l Ledger) transactionIndex(id string) int {
	return slices.IndexFunc(l.Transactions, func(t Transaction) bool { return t.ID == id })
}

// ReplaceTransaction returns a ledger with the transaction of the same id swapped for t.
func (l Ledger) ReplaceTransaction(t Transaction) (Ledger, error) {
	i := l.transactionIndex(t.ID)
	if i < 0 {
		return l, &NotFoundError{Kind: "transaction", ID: t.ID}
	}
	out := l.Clone()
	out.Transactions[i] = t
	return out, nil
}

// AppendTransactions returns a ledger with txns added.
func (l Ledger) AppendTransactions(txns ...Transaction) Ledger {
	out := l.Clone()
	out.Transactions = append(out.Transactions, txns...)
	return out
}

// RemoveTransaction returns a ledger without the transaction. Other members of its
// installment group are left in place.
func (l Ledger) RemoveTransaction(id string) (Ledger, error) {
	i := l.transactionIndex(id)
	if i < 0 {
		return l, &NotFoundError{Kind: "transaction", ID: id}
	}
	out := l.Clone()
	out.Transactions = slices.Delete(out.Transactions, i, i+1)
	return out, nil
}
