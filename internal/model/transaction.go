package model

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/cleared-dev/tally/internal/money"
)

// Kind decides the sign of an amount when it is aggregated.
type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool { return k == KindIncome || k == KindExpense }

// ParseKind accepts "income"/"expense" in any case.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", &ValidationError{Field: "kind", Value: s, Reason: "must be income or expense"}
	}
	return k, nil
}

// Settlement is whether a transaction counts toward totals yet.
type Settlement string

const (
	Pending Settlement = "pending"
	Settled Settlement = "settled"
)

// Tags attached by the engine so generated records can be told apart from manual ones.
const (
	TagRecurring      = "recurring"
	TagImported       = "imported"
	TagInstallment    = "installment"
	TagInvoicePayment = "invoice-payment"
	tagRulePrefix     = "rule:"
	tagInvoicePrefix  = "invoice:"
)

// TagSeparator joins a transaction's tags into one stored column. Tags may not contain it.
const TagSeparator = ";"

// ValidateTags rejects empty tags and tags that contain TagSeparator.
func ValidateTags(tags []string) error {
	for _, tag := range tags {
		if strings.TrimSpace(tag) == "" {
			return &ValidationError{Field: "tags", Reason: "must not be blank"}
		}
		if strings.Contains(tag, TagSeparator) {
			return &ValidationError{Field: "tags", Value: tag, Reason: "must not contain " + strconv.Quote(TagSeparator)}
		}
	}
	return nil
}

// RuleTag marks a transaction as generated from the rule with the given id.
func RuleTag(ruleID string) string { return tagRulePrefix + ruleID }

// InvoiceTag marks a payment as settling the given card's invoice for a month ("2026-03").
func InvoiceTag(cardID, month string) string { return tagInvoicePrefix + cardID + "/" + month }

// Installment links a transaction to the purchase it was split from.
type Installment struct {
	GroupID string `json:"group_id"`
	Index   int    `json:"index"` // 1-based
	Total   int    `json:"total"`
}

// Transaction is one dated movement of money.
type Transaction struct {
	ID          string       `json:"id"`
	Date        time.Time    `json:"date"`
	Description string       `json:"description"`
	Amount      money.Money  `json:"amount"` // always non-negative; Kind gives the sign
	Kind        Kind         `json:"kind"`
	Category    string       `json:"category"`
	Tags        []string     `json:"tags,omitempty"`
	CardID      string       `json:"card_id,omitempty"` // empty for cash transactions
	Settlement  Settlement   `json:"settlement"`
	Paid        bool         `json:"paid,omitempty"` // card transaction whose invoice has been paid
	Installment *Installment `json:"installment,omitempty"`
}

// IsCard reports whether the transaction was charged to a card.
func (t Transaction) IsCard() bool { return t.CardID != "" }

// IsSettled reports whether the transaction counts toward totals.
func (t Transaction) IsSettled() bool { return t.Settlement == Settled }

// HasTag reports whether tag is attached.
func (t Transaction) HasTag(tag string) bool { return slices.Contains(t.Tags, tag) }

// WithTag returns a copy of t with tag attached once.
func (t Transaction) WithTag(tag string) Transaction {
	if t.HasTag(tag) {
		return t
	}
	t.Tags = append(slices.Clone(t.Tags), tag)
	return t
}

// Signed returns the amount with income positive and expense negative.
func (t Transaction) Signed() money.Money {
	if t.Kind == KindIncome {
		return t.Amount
	}
	return t.Amount.Neg()
}

// Validate checks the fields a caller supplies before a transaction is created.
func (t Transaction) Validate() error {
	if t.Date.IsZero() {
		return &ValidationError{Field: "date", Reason: "is required"}
	}
	if strings.TrimSpace(t.Description) == "" {
		return &ValidationError{Field: "description", Reason: "is required"}
	}
	if !t.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Value: t.Amount.String(), Reason: "must be positive"}
	}
	if !t.Kind.Valid() {
		return &ValidationError{Field: "kind", Value: string(t.Kind), Reason: "must be income or expense"}
	}
	if t.Settlement != Pending && t.Settlement != Settled {
		return &ValidationError{Field: "settlement", Value: string(t.Settlement), Reason: "must be pending or settled"}
	}
	if t.Installment != nil && (t.Installment.Total < 1 || t.Installment.Index < 1 || t.Installment.Index > t.Installment.Total) {
		return &ValidationError{Field: "installment", Reason: "index must be within 1..total"}
	}
	return ValidateTags(t.Tags)
}
