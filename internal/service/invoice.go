package service

import (
	"context"
	"fmt"
	"time"

	"github.com/cleared-dev/tally/internal/calendar"
	"github.com/cleared-dev/tally/internal/ledger"
	"github.com/cleared-dev/tally/internal/model"
)

// Summary computes the month figures.
func (s *Service) Summary(ctx context.Context, ym calendar.YearMonth) (ledger.MonthSummary, error) {
	l, err := s.Snapshot(ctx)
	if err != nil {
		return ledger.MonthSummary{}, err
	}
	return ledger.Summarize(l, ym), nil
}

// Trend returns month summaries ending at ym, oldest first.
func (s *Service) Trend(ctx context.Context, ym calendar.YearMonth, months int) ([]ledger.MonthSummary, error) {
	l, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return ledger.Trend(l, ym, months), nil
}

// Breakdown returns the settled cash expense per category of ym.
func (s *Service) Breakdown(ctx context.Context, ym calendar.YearMonth) ([]ledger.CategoryTotal, error) {
	l, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return ledger.CategoryBreakdown(l, ym), nil
}

// Invoice returns the card's invoice due in ym.
func (s *Service) Invoice(ctx context.Context, cardID string, ym calendar.YearMonth) (ledger.Invoice, error) {
	l, err := s.Snapshot(ctx)
	if err != nil {
		return ledger.Invoice{}, err
	}
	return ledger.InvoiceFor(l, cardID, ym)
}

// PayInvoice settles a card invoice with one cash payment dated on (zero: the due date).
func (s *Service) PayInvoice(ctx context.Context, cardID string, ym calendar.YearMonth, on time.Time) (model.Transaction, error) {
	defer s.locks.Lock("invoice:" + cardID + "/" + ym.String())()
	defer s.locks.Lock(ledgerKey)()

	l, err := s.Snapshot(ctx)
	if err != nil {
		return model.Transaction{}, err
	}
	out, payment, err := ledger.PayInvoice(l, ledger.PayRequest{CardID: cardID, Month: ym, Date: on, NewID: s.newID})
	if err != nil {
		return model.Transaction{}, err
	}

	var changed []model.Transaction
	for _, txn := range out.Transactions {
		before, err := l.Transaction(txn.ID)
		if err != nil || before.Paid != txn.Paid {
			changed = append(changed, txn)
		}
	}
	if err := s.store.SaveTransactions(ctx, changed...); err != nil {
		return model.Transaction{}, fmt.Errorf("saving invoice payment: %w", err)
	}
	s.log.Info().
		Str("card", cardID).
		Str("month", ym.String()).
		Str("amount", payment.Amount.String()).
		Int("transactions", len(changed)-1).
		Msg("invoice paid")
	return payment, nil
}
