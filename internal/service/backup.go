package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/cleared-dev/tally/internal/calendar"
	"github.com/cleared-dev/tally/internal/journal"
	"github.com/cleared-dev/tally/internal/ledger"
	"github.com/cleared-dev/tally/internal/model"
)

// backupVersion is written into every backup; restore refuses newer versions.
const backupVersion = 1

// Backup is the JSON document written by ExportBackup.
type Backup struct {
	Version    int          `json:"version"`
	ExportedAt time.Time    `json:"exported_at"`
	Categories []string     `json:"categories,omitempty"`
	Ledger     model.Ledger `json:"ledger"`
}

// ExportBackup writes the whole ledger as indented JSON.
func (s *Service) ExportBackup(ctx context.Context, w io.Writer) error {
	l, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}
	b := Backup{
		Version:    backupVersion,
		ExportedAt: s.now().UTC(),
		Categories: s.categories.All(),
		Ledger:     l,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return fmt.Errorf("encoding backup: %w", err)
	}
	s.log.Info().Int("transactions", len(l.Transactions)).Msg("backup exported")
	return nil
}

// RestoreBackup replaces the store content with a backup. Every transaction is validated
// before anything is written.
func (s *Service) RestoreBackup(ctx context.Context, r io.Reader) (*Backup, error) {
	var b Backup
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return nil, fmt.Errorf("decoding backup: %w", err)
	}
	if b.Version < 1 || b.Version > backupVersion {
		return nil, &model.ValidationError{Field: "version", Value: fmt.Sprint(b.Version), Reason: fmt.Sprintf("must be between 1 and %d", backupVersion)}
	}
	if problems := journal.Validate(b.Ledger.Transactions); len(problems) > 0 {
		return nil, fmt.Errorf("backup has %d invalid transactions, first: %w", len(problems), problems[0])
	}
	for _, c := range b.Ledger.Cards {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("card %s: %w", c.ID, err)
		}
	}
	for _, rule := range b.Ledger.Rules {
		if err := rule.Validate(); err != nil {
			return nil, fmt.Errorf("rule %s: %w", rule.ID, err)
		}
	}

	defer s.locks.Lock(ledgerKey)()
	if err := s.store.Replace(ctx, b.Ledger); err != nil {
		return nil, fmt.Errorf("restoring backup: %w", err)
	}
	s.log.Info().
		Int("transactions", len(b.Ledger.Transactions)).
		Int("cards", len(b.Ledger.Cards)).
		Int("rules", len(b.Ledger.Rules)).
		Time("exported_at", b.ExportedAt).
		Msg("backup restored")
	return &b, nil
}

// ExportMonth writes the transactions counted in ym to the CSV export directory and
// returns the file path.
func (s *Service) ExportMonth(ctx context.Context, ym calendar.YearMonth) (string, error) {
	l, err := s.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	var txns []model.Transaction
	for _, txn := range l.Transactions {
		if ledger.BelongsTo(l, txn, ym) {
			txns = append(txns, txn)
		}
	}
	path, err := s.journal.ExportMonth(ym, txns)
	if err != nil {
		return "", err
	}
	s.log.Info().Str("path", path).Int("transactions", len(txns)).Msg("month exported")
	return path, nil
}

// RestoreMonth saves the transactions of ym's CSV export back into the store. Rows are
// upserted by id: edits made to the file replace the stored records and deleted records
// come back. Transactions absent from the file are left alone.
func (s *Service) RestoreMonth(ctx context.Context, ym calendar.YearMonth) (int, error) {
	txns, err := s.journal.ReadMonth(ym)
	if err != nil {
		return 0, err
	}
	if len(txns) == 0 {
		return 0, &model.NotFoundError{Kind: "export", ID: ym.String()}
	}
	if problems := journal.Validate(txns); len(problems) > 0 {
		return 0, fmt.Errorf("export of %s has %d invalid transactions, first: %w", ym, len(problems), problems[0])
	}

	defer s.locks.Lock(ledgerKey)()
	if err := s.store.SaveTransactions(ctx, txns...); err != nil {
		return 0, fmt.Errorf("saving exported transactions: %w", err)
	}
	s.log.Info().Str("path", s.journal.MonthPath(ym)).Int("transactions", len(txns)).Msg("month restored")
	return len(txns), nil
}
