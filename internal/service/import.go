package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/cleared-dev/tally/internal/importer"
	"github.com/cleared-dev/tally/internal/model"
)

// maxParallelParse bounds concurrent statement parsing.
const maxParallelParse = 4

// ImportOptions apply to every file of an import.
type ImportOptions struct {
	Format string // parser name; "auto" when empty
	Kind   model.Kind
	CardID string
	// MarkProcessed moves each imported file into the processed subdirectory of its folder.
	MarkProcessed bool
}

// FileReport is the import outcome of one file.
type FileReport struct {
	Path   string
	Report *importer.Report
	Err    error
}

func (s *Service) parser(format string) (importer.Parser, error) {
	if format == "" {
		format = "auto"
	}
	p := s.parsers.Get(format)
	if p == nil {
		return nil, &model.ValidationError{Field: "format", Value: format, Reason: fmt.Sprintf("must be one of %v", s.parsers.Formats())}
	}
	return p, nil
}

// Import parses one statement and records its rows as pending transactions.
func (s *Service) Import(ctx context.Context, r io.Reader, opts ImportOptions) (*importer.Report, error) {
	p, err := s.parser(opts.Format)
	if err != nil {
		return nil, err
	}
	rep, err := p.Parse(r, importer.Options{Kind: opts.Kind, CardID: opts.CardID, NewID: s.newID})
	if err != nil {
		return nil, err
	}
	if err := s.saveImported(ctx, opts.CardID, rep.Transactions); err != nil {
		return nil, err
	}
	s.log.Info().Int("created", rep.Summary.Created).Int("rejected", rep.Summary.Rejected).Msg("statement imported")
	return rep, nil
}

// ImportFiles parses files concurrently and records them one file at a time. A file that
// fails is reported in its FileReport and does not stop the others.
func (s *Service) ImportFiles(ctx context.Context, paths []string, opts ImportOptions) ([]FileReport, error) {
	p, err := s.parser(opts.Format)
	if err != nil {
		return nil, err
	}
	if opts.CardID != "" {
		if err := s.checkCard(ctx, opts.CardID); err != nil {
			return nil, err
		}
	}

	reports := make([]FileReport, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelParse)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			reports[i] = FileReport{Path: path}
			f, err := os.Open(path)
			if err != nil {
				reports[i].Err = fmt.Errorf("opening statement: %w", err)
				return nil
			}
			defer f.Close()
			rep, err := p.Parse(f, importer.Options{Kind: opts.Kind, CardID: opts.CardID, NewID: s.newID})
			reports[i].Report, reports[i].Err = rep, err
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range reports {
		fr := &reports[i]
		log := s.log.With().Str("file", filepath.Base(fr.Path)).Logger()
		if fr.Err != nil {
			log.Warn().Err(fr.Err).Msg("statement skipped")
			continue
		}
		if err := s.saveImported(ctx, "", fr.Report.Transactions); err != nil {
			fr.Err = err
			log.Error().Err(err).Msg("saving statement")
			continue
		}
		for _, re := range fr.Report.Errors {
			log.Debug().Int("row", re.Row).Str("field", re.Field).Err(re.Err).Msg("row dropped")
		}
		log.Info().Int("created", fr.Report.Summary.Created).Int("rejected", fr.Report.Summary.Rejected).Msg("statement imported")
		if opts.MarkProcessed {
			if err := importer.MarkProcessed(filepath.Dir(fr.Path), filepath.Base(fr.Path)); err != nil {
				log.Warn().Err(err).Msg("marking statement processed")
			}
		}
	}
	return reports, nil
}

func (s *Service) checkCard(ctx context.Context, cardID string) error {
	l, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}
	_, err = l.Card(cardID)
	return err
}

func (s *Service) saveImported(ctx context.Context, cardID string, txns []model.Transaction) error {
	defer s.locks.Lock(ledgerKey)()
	if cardID != "" {
		if err := s.checkCard(ctx, cardID); err != nil {
			return err
		}
	}
	if len(txns) == 0 {
		return nil
	}
	if err := s.store.SaveTransactions(ctx, txns...); err != nil {
		return fmt.Errorf("saving imported transactions: %w", err)
	}
	return nil
}
