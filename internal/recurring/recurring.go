// Package recurring expands fixed-expense rules into the transactions of one month.
package recurring

import (
	"github.com/cleared-dev/tally/internal/calendar"
	"github.com/cleared-dev/tally/internal/id"
	"github.com/cleared-dev/tally/internal/model"
)

// Request is the input of Generate.
type Request struct {
	Rules    []model.FixedExpenseRule
	Month    calendar.YearMonth
	Existing []model.Transaction
	NewID    id.Generator
}

// Outcome says what happened to one rule.
type Outcome string

const (
	OutcomeCreated   Outcome = "created"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeRejected  Outcome = "rejected"
)

// RuleResult is the per-rule record of a run.
type RuleResult struct {
	RuleID  string
	Outcome Outcome
	Err     error // set when rejected
}

// Result is the output of Generate.
type Result struct {
	Transactions []model.Transaction
	Summary      model.Summary
	Rules        []RuleResult
}

// Generate creates one transaction per rule for the month, skipping every rule that
// already has a matching transaction there. Running it again over its own output
// creates nothing. Rules that fail validation are rejected without stopping the run.
func Generate(req Request) Result {
	newID := req.NewID
	if newID == nil {
		newID = id.New
	}

	var res Result
	seen := make(map[matchKey]bool)
	for _, t := range req.Existing {
		if req.Month.Contains(t.Date) {
			seen[keyOfTransaction(t)] = true
		}
	}

	for _, rule := range req.Rules {
		if err := rule.Validate(); err != nil {
			res.Summary.Rejected++
			res.Rules = append(res.Rules, RuleResult{RuleID: rule.ID, Outcome: OutcomeRejected, Err: err})
			continue
		}

		key := keyOfRule(rule)
		if seen[key] {
			res.Summary.Skipped++
			res.Rules = append(res.Rules, RuleResult{RuleID: rule.ID, Outcome: OutcomeDuplicate})
			continue
		}
		seen[key] = true

		res.Transactions = append(res.Transactions, model.Transaction{
			ID:          newID(),
			Date:        req.Month.Day(rule.Day),
			Description: rule.Description,
			Amount:      rule.Amount,
			Kind:        rule.Kind,
			Category:    rule.Category,
			Tags:        []string{model.TagRecurring, model.RuleTag(rule.ID)},
			Settlement:  model.Settled,
		})
		res.Summary.Created++
		res.Rules = append(res.Rules, RuleResult{RuleID: rule.ID, Outcome: OutcomeCreated})
	}
	return res
}

// Lock returns the generation marker for a rule set and month.
func Lock(rules []model.FixedExpenseRule, month calendar.YearMonth) model.GenerationLock {
	ids := make([]string, len(rules))
	for i, r := range rules {
		ids[i] = r.ID
	}
	return model.GenerationLock{RuleSet: id.RuleSetKey(ids), Year: month.Year, Month: month.Month}
}

// matchKey is exact: cents, not a float tolerance.
type matchKey struct {
	description string
	kind        model.Kind
	cents       int64
}

func keyOfTransaction(t model.Transaction) matchKey {
	return matchKey{description: t.Description, kind: t.Kind, cents: t.Amount.Cents()}
}

func keyOfRule(r model.FixedExpenseRule) matchKey {
	return matchKey{description: r.Description, kind: r.Kind, cents: r.Amount.Cents()}
}
