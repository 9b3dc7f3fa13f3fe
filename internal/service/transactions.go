package service

import (
	"context"
	"fmt"

	"github.com/cleared-dev/tally/internal/calendar"
	"github.com/cleared-dev/tally/internal/installment"
	"github.com/cleared-dev/tally/internal/ledger"
	"github.com/cleared-dev/tally/internal/model"
)

// AddTransaction records a manual entry. Missing id, settlement and category are filled in;
// a card id must name a known card.
func (s *Service) AddTransaction(ctx context.Context, txn model.Transaction) (model.Transaction, error) {
	if txn.ID == "" {
		txn.ID = s.newID()
	}
	if txn.Settlement == "" {
		txn.Settlement = model.Settled
	}
	if txn.Date.IsZero() {
		txn.Date = s.today()
	}
	txn.Date = calendar.Truncate(txn.Date)
	txn.Category = s.category(txn.Category)
	if err := txn.Validate(); err != nil {
		return model.Transaction{}, err
	}

	defer s.locks.Lock(ledgerKey)()
	if txn.IsCard() {
		l, err := s.Snapshot(ctx)
		if err != nil {
			return model.Transaction{}, err
		}
		if _, err := l.Card(txn.CardID); err != nil {
			return model.Transaction{}, err
		}
	}
	if err := s.store.SaveTransactions(ctx, txn); err != nil {
		return model.Transaction{}, fmt.Errorf("saving transaction: %w", err)
	}
	s.log.Info().Str("id", txn.ID).Str("kind", string(txn.Kind)).Str("amount", txn.Amount.String()).Msg("transaction added")
	return txn, nil
}

// AddPurchase splits a purchase into monthly installments and records them.
func (s *Service) AddPurchase(ctx context.Context, p installment.Purchase) ([]model.Transaction, error) {
	if p.Date.IsZero() {
		p.Date = s.today()
	}
	p.Category = s.category(p.Category)

	defer s.locks.Lock(ledgerKey)()
	if p.CardID != "" {
		l, err := s.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
		if _, err := l.Card(p.CardID); err != nil {
			return nil, err
		}
	}
	txns, err := installment.Split(p, s.newID)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveTransactions(ctx, txns...); err != nil {
		return nil, fmt.Errorf("saving installments: %w", err)
	}
	s.log.Info().Int("installments", len(txns)).Str("amount", p.Amount.String()).Str("card", p.CardID).Msg("purchase recorded")
	return txns, nil
}

// Approve settles pending transactions.
func (s *Service) Approve(ctx context.Context, ids ...string) error {
	defer s.locks.Lock(ledgerKey)()
	l, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}
	out, err := ledger.Approve(l, ids...)
	if err != nil {
		return err
	}
	changed := make([]model.Transaction, 0, len(ids))
	for _, txnID := range ids {
		txn, err := out.Transaction(txnID)
		if err != nil {
			return err
		}
		changed = append(changed, txn)
	}
	if err := s.store.SaveTransactions(ctx, changed...); err != nil {
		return fmt.Errorf("saving approvals: %w", err)
	}
	s.log.Info().Strs("ids", ids).Msg("transactions approved")
	return nil
}

// ApproveMonth settles every pending transaction counted in ym and returns how many.
func (s *Service) ApproveMonth(ctx context.Context, ym calendar.YearMonth) (int, error) {
	l, err := s.Snapshot(ctx)
	if err != nil {
		return 0, err
	}
	var ids []string
	for _, txn := range l.Transactions {
		if !txn.IsSettled() && ledger.BelongsTo(l, txn, ym) {
			ids = append(ids, txn.ID)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if err := s.Approve(ctx, ids...); err != nil {
		return 0, err
	}
	return len(ids), nil
}

// Delete removes one transaction. Installment siblings stay.
func (s *Service) Delete(ctx context.Context, txnID string) error {
	defer s.locks.Lock(ledgerKey)()
	l, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}
	if _, err := ledger.Delete(l, txnID); err != nil {
		return err
	}
	if err := s.store.DeleteTransaction(ctx, txnID); err != nil {
		return fmt.Errorf("deleting transaction: %w", err)
	}
	s.log.Info().Str("id", txnID).Msg("transaction deleted")
	return nil
}

// Transactions lists the transactions counted in ym.
func (s *Service) Transactions(ctx context.Context, ym calendar.YearMonth) ([]model.Transaction, error) {
	l, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	var out []model.Transaction
	for _, txn := range l.Transactions {
		if ledger.BelongsTo(l, txn, ym) {
			out = append(out, txn)
		}
	}
	return out, nil
}
