package journal

import (
	"fmt"

	"github.com/cleared-dev/tally/internal/model"
)

// Problem describes one record that breaks a ledger invariant.
type Problem struct {
	TxnID       string
	Description string
}

func (p Problem) Error() string {
	return fmt.Sprintf("transaction %s: %s", p.TxnID, p.Description)
}

// Validate checks a set of transactions: each record on its own, ids unique, and every
// installment group consistent (one total, distinct indices, one card).
func Validate(txns []model.Transaction) []Problem {
	var problems []Problem

	seen := make(map[string]bool, len(txns))
	type group struct {
		total   int
		cardID  string
		indices map[int]bool
	}
	groups := make(map[string]*group)

	for _, txn := range txns {
		if txn.ID == "" {
			problems = append(problems, Problem{TxnID: "(empty)", Description: "id is required"})
		} else if seen[txn.ID] {
			problems = append(problems, Problem{TxnID: txn.ID, Description: "duplicate id"})
		}
		seen[txn.ID] = true

		if err := txn.Validate(); err != nil {
			problems = append(problems, Problem{TxnID: txn.ID, Description: err.Error()})
		}

		inst := txn.Installment
		if inst == nil {
			continue
		}
		g, ok := groups[inst.GroupID]
		if !ok {
			g = &group{total: inst.Total, cardID: txn.CardID, indices: make(map[int]bool)}
			groups[inst.GroupID] = g
		}
		switch {
		case inst.Total != g.total:
			problems = append(problems, Problem{TxnID: txn.ID, Description: fmt.Sprintf("installment total %d, group %s has %d", inst.Total, inst.GroupID, g.total)})
		case txn.CardID != g.cardID:
			problems = append(problems, Problem{TxnID: txn.ID, Description: fmt.Sprintf("installment card %q differs from group %s", txn.CardID, inst.GroupID)})
		case g.indices[inst.Index]:
			problems = append(problems, Problem{TxnID: txn.ID, Description: fmt.Sprintf("installment index %d repeated in group %s", inst.Index, inst.GroupID)})
		}
		g.indices[inst.Index] = true
	}
	return problems
}
