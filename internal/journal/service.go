package journal

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/cleared-dev/tally/internal/calendar"
	"github.com/cleared-dev/tally/internal/model"
)

// fileName is the export file inside each month directory.
const fileName = "transactions.csv"

// Service writes month exports under a root directory as <root>/YYYY/MM/transactions.csv.
type Service struct {
	root string
}

// NewService creates a journal Service rooted at dir.
func NewService(dir string) *Service {
	return &Service{root: dir}
}

// MonthPath returns the export path for ym.
func (s *Service) MonthPath(ym calendar.YearMonth) string {
	return filepath.Join(s.root, fmt.Sprintf("%04d", ym.Year), fmt.Sprintf("%02d", int(ym.Month)), fileName)
}

// ExportMonth validates txns and writes them, sorted by date then id, replacing any
// previous export of ym. It returns the file path.
func (s *Service) ExportMonth(ym calendar.YearMonth, txns []model.Transaction) (string, error) {
	if problems := Validate(txns); len(problems) > 0 {
		return "", fmt.Errorf("export %s: %w", ym, errors.Join(problemErrs(problems)...))
	}

	sorted := slices.Clone(txns)
	slices.SortStableFunc(sorted, func(a, b model.Transaction) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})

	path := s.MonthPath(ym)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating month dir: %w", err)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("creating export: %w", err)
	}
	if err := WriteTransactions(f, sorted); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("closing export: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("replacing export: %w", err)
	}
	return path, nil
}

// ReadMonth reads the export of ym. A month never exported is empty.
func (s *Service) ReadMonth(ym calendar.YearMonth) ([]model.Transaction, error) {
	f, err := os.Open(s.MonthPath(ym))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening export: %w", err)
	}
	defer f.Close()
	return ReadTransactions(f)
}

func problemErrs(problems []Problem) []error {
	errs := make([]error, len(problems))
	for i, p := range problems {
		errs[i] = p
	}
	return errs
}
