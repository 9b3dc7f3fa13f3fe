package service

import (
	"context"
	"fmt"

	"github.com/cleared-dev/tally/internal/calendar"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/recurring"
)

// GenerateRequest selects the month to expand rules for.
type GenerateRequest struct {
	Month calendar.YearMonth
	// Force runs even when the store says this rule set already ran for Month. Content
	// matching still prevents duplicates.
	Force bool
}

// Generate expands the fixed rules into transactions for one month. A second call for the
// same month and rule set creates nothing.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (recurring.Result, error) {
	defer s.locks.Lock("generate:" + req.Month.String())()
	defer s.locks.Lock(ledgerKey)()

	l, err := s.Snapshot(ctx)
	if err != nil {
		return recurring.Result{}, err
	}
	log := s.log.With().Str("month", req.Month.String()).Logger()

	lock := recurring.Lock(l.Rules, req.Month)
	acquired, err := s.store.AcquireGeneration(ctx, lock)
	if err != nil {
		return recurring.Result{}, err
	}
	if !acquired && !req.Force {
		res := recurring.Result{Summary: model.Summary{Skipped: len(l.Rules)}}
		for _, r := range l.Rules {
			res.Rules = append(res.Rules, recurring.RuleResult{RuleID: r.ID, Outcome: recurring.OutcomeDuplicate})
		}
		log.Info().Str("rule_set", lock.RuleSet).Msg("rules already generated for month")
		return res, nil
	}

	res := recurring.Generate(recurring.Request{
		Rules:    l.Rules,
		Month:    req.Month,
		Existing: l.Transactions,
		NewID:    s.newID,
	})
	if len(res.Transactions) > 0 {
		if err := s.store.SaveTransactions(ctx, res.Transactions...); err != nil {
			if relErr := s.store.ReleaseGeneration(ctx, lock); relErr != nil {
				log.Error().Err(relErr).Msg("releasing generation marker")
			}
			return recurring.Result{}, fmt.Errorf("saving generated transactions: %w", err)
		}
	}
	for _, r := range res.Rules {
		if r.Outcome == recurring.OutcomeRejected {
			log.Warn().Str("rule", r.RuleID).Err(r.Err).Msg("rule rejected")
		}
	}
	log.Info().
		Int("created", res.Summary.Created).
		Int("skipped", res.Summary.Skipped).
		Int("rejected", res.Summary.Rejected).
		Msg("rules generated")
	return res, nil
}
