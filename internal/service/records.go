package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cleared-dev/tally/internal/calendar"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/money"
)

// AddCard stores a new card.
func (s *Service) AddCard(ctx context.Context, c model.Card) (model.Card, error) {
	if c.ID == "" {
		c.ID = s.newID()
	}
	if err := c.Validate(); err != nil {
		return model.Card{}, err
	}
	if err := s.store.SaveCard(ctx, c); err != nil {
		return model.Card{}, fmt.Errorf("saving card: %w", err)
	}
	s.log.Info().Str("id", c.ID).Str("name", c.Name).Int("closing_day", c.ClosingDay).Int("due_day", c.DueDay).Msg("card added")
	return c, nil
}

// DeleteCard removes a card. Its transactions keep the card id and fall back to calendar
// months.
func (s *Service) DeleteCard(ctx context.Context, cardID string) error {
	if err := s.store.DeleteCard(ctx, cardID); err != nil {
		return err
	}
	s.log.Info().Str("id", cardID).Msg("card deleted")
	return nil
}

// AddRule stores a fixed monthly rule.
func (s *Service) AddRule(ctx context.Context, r model.FixedExpenseRule) (model.FixedExpenseRule, error) {
	if r.ID == "" {
		r.ID = s.newID()
	}
	if r.Kind == "" {
		r.Kind = model.KindExpense
	}
	r.Category = s.category(r.Category)
	if err := r.Validate(); err != nil {
		return model.FixedExpenseRule{}, err
	}
	if err := s.store.SaveRule(ctx, r); err != nil {
		return model.FixedExpenseRule{}, fmt.Errorf("saving rule: %w", err)
	}
	s.log.Info().Str("id", r.ID).Str("description", r.Description).Int("day", r.Day).Msg("rule added")
	return r, nil
}

// DeleteRule removes a rule. Transactions it generated stay.
func (s *Service) DeleteRule(ctx context.Context, ruleID string) error {
	if err := s.store.DeleteRule(ctx, ruleID); err != nil {
		return err
	}
	s.log.Info().Str("id", ruleID).Msg("rule deleted")
	return nil
}

// SetOpeningBalance sets the balance the ledger starts from.
func (s *Service) SetOpeningBalance(ctx context.Context, m money.Money) error {
	if err := s.store.SetOpeningBalance(ctx, m); err != nil {
		return err
	}
	s.log.Info().Str("amount", m.String()).Msg("opening balance set")
	return nil
}

// AddGoal stores a savings goal.
func (s *Service) AddGoal(ctx context.Context, g model.Goal) (model.Goal, error) {
	if g.ID == "" {
		g.ID = s.newID()
	}
	if strings.TrimSpace(g.Name) == "" {
		return model.Goal{}, &model.ValidationError{Field: "name", Reason: "is required"}
	}
	if !g.Target.IsPositive() {
		return model.Goal{}, &model.ValidationError{Field: "target", Value: g.Target.String(), Reason: "must be positive"}
	}
	if g.Current < 0 {
		return model.Goal{}, &model.ValidationError{Field: "current", Value: g.Current.String(), Reason: "must not be negative"}
	}
	if err := s.store.SaveGoal(ctx, g); err != nil {
		return model.Goal{}, fmt.Errorf("saving goal: %w", err)
	}
	s.log.Info().Str("id", g.ID).Str("name", g.Name).Msg("goal added")
	return g, nil
}

// UpdateGoal sets the amount saved toward a goal.
func (s *Service) UpdateGoal(ctx context.Context, goalID string, current money.Money) (model.Goal, error) {
	if current < 0 {
		return model.Goal{}, &model.ValidationError{Field: "current", Value: current.String(), Reason: "must not be negative"}
	}
	l, err := s.Snapshot(ctx)
	if err != nil {
		return model.Goal{}, err
	}
	for _, g := range l.Goals {
		if g.ID != goalID {
			continue
		}
		g.Current = current
		if err := s.store.SaveGoal(ctx, g); err != nil {
			return model.Goal{}, fmt.Errorf("saving goal: %w", err)
		}
		s.log.Info().Str("id", g.ID).Int64("progress_bp", g.Progress()).Msg("goal updated")
		return g, nil
	}
	return model.Goal{}, &model.NotFoundError{Kind: "goal", ID: goalID}
}

// AddReceivable stores money someone owes.
func (s *Service) AddReceivable(ctx context.Context, r model.Receivable) (model.Receivable, error) {
	if r.ID == "" {
		r.ID = s.newID()
	}
	if strings.TrimSpace(r.Debtor) == "" {
		return model.Receivable{}, &model.ValidationError{Field: "debtor", Reason: "is required"}
	}
	if !r.Amount.IsPositive() {
		return model.Receivable{}, &model.ValidationError{Field: "amount", Value: r.Amount.String(), Reason: "must be positive"}
	}
	if r.ExpectedDate.IsZero() {
		r.ExpectedDate = s.today()
	}
	r.ExpectedDate = calendar.Truncate(r.ExpectedDate)
	if err := s.store.SaveReceivable(ctx, r); err != nil {
		return model.Receivable{}, fmt.Errorf("saving receivable: %w", err)
	}
	s.log.Info().Str("id", r.ID).Str("debtor", r.Debtor).Msg("receivable added")
	return r, nil
}

// PayReceivable marks a receivable paid and records the money as settled income dated on
// (zero: today).
func (s *Service) PayReceivable(ctx context.Context, receivableID string, on time.Time) (model.Transaction, error) {
	defer s.locks.Lock(ledgerKey)()
	l, err := s.Snapshot(ctx)
	if err != nil {
		return model.Transaction{}, err
	}
	for _, r := range l.Receivables {
		if r.ID != receivableID {
			continue
		}
		if r.Paid {
			return model.Transaction{}, fmt.Errorf("receivable %s already paid: %w", r.ID, model.ErrInvalidTransition)
		}
		if on.IsZero() {
			on = s.today()
		}
		desc := r.Debtor
		if r.Description != "" {
			desc += ": " + r.Description
		}
		txn := model.Transaction{
			ID:          s.newID(),
			Date:        calendar.Truncate(on),
			Description: desc,
			Amount:      r.Amount,
			Kind:        model.KindIncome,
			Category:    s.defaultCat,
			Settlement:  model.Settled,
		}
		r.Paid = true
		if err := s.store.SaveTransactions(ctx, txn); err != nil {
			return model.Transaction{}, fmt.Errorf("saving receipt: %w", err)
		}
		if err := s.store.SaveReceivable(ctx, r); err != nil {
			return model.Transaction{}, fmt.Errorf("saving receivable: %w", err)
		}
		s.log.Info().Str("id", r.ID).Str("amount", r.Amount.String()).Msg("receivable paid")
		return txn, nil
	}
	return model.Transaction{}, &model.NotFoundError{Kind: "receivable", ID: receivableID}
}
