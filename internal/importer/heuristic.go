package importer

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/cleared-dev/tally/internal/calendar"
	"github.com/cleared-dev/tally/internal/category"
	"github.com/cleared-dev/tally/internal/id"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/money"
)

// headerScanLines bounds the search for a header line.
const headerScanLines = 10

// HeuristicParser reads delimited statements of unknown column order. It finds the header
// by column-name synonyms and drops rows it cannot read instead of failing the batch.
type HeuristicParser struct {
	columns     ColumnMatcher
	categorizer *category.Categorizer
}

// NewHeuristicParser creates a parser. A nil categorizer uses the built-in keyword table.
func NewHeuristicParser(columns ColumnMatcher, cat *category.Categorizer) *HeuristicParser {
	if cat == nil {
		cat = category.DefaultCategorizer()
	}
	return &HeuristicParser{columns: columns, categorizer: cat}
}

// Format returns the parser name.
func (p *HeuristicParser) Format() string { return "auto" }

// Parse reads a statement. It returns model.ErrHeaderNotFound and no rows when none of the
// first lines names both a date and an amount column.
func (p *HeuristicParser) Parse(r io.Reader, opts Options) (*Report, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading statement: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")

	kind := opts.Kind
	if kind == "" {
		kind = model.KindExpense
	}
	if !kind.Valid() {
		return nil, &model.ValidationError{Field: "kind", Value: string(kind), Reason: "must be income or expense"}
	}
	newID := opts.NewID
	if newID == nil {
		newID = id.New
	}

	rep := &Report{}
	headerAt := -1
	for i := 0; i < len(lines) && i < headerScanLines; i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		delim := DetectDelimiter(line)
		fields := SplitFields(line, delim)
		if cols, ok := p.columns.Match(fields); ok {
			rep.Header, rep.Columns, rep.Delimiter = fields, cols, delim
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return nil, fmt.Errorf("scanning first %d lines: %w", headerScanLines, model.ErrHeaderNotFound)
	}

	for i := headerAt + 1; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		row := i + 1
		txn, rowErr := p.parseRow(SplitFields(line, rep.Delimiter), rep.Columns, row)
		if rowErr != nil {
			rep.Errors = append(rep.Errors, *rowErr)
			rep.Summary.Rejected++
			continue
		}
		txn.ID = newID()
		txn.Kind = kind
		txn.CardID = opts.CardID
		if base, index, total, ok := id.ParseInstallment(txn.Description); ok && total > 1 {
			txn.Installment = &model.Installment{
				GroupID: id.InstallmentGroup(opts.CardID, category.Fold(base), total),
				Index:   index,
				Total:   total,
			}
			txn.Tags = append(txn.Tags, model.TagInstallment)
		}
		rep.Transactions = append(rep.Transactions, txn)
		rep.Summary.Created++
	}
	return rep, nil
}

func (p *HeuristicParser) parseRow(fields []string, cols Columns, row int) (model.Transaction, *model.RowError) {
	if len(fields) < cols.width() {
		return model.Transaction{}, &model.RowError{
			Row: row, Field: "row", Value: strings.Join(fields, " "),
			Err: fmt.Errorf("expected %d fields, got %d", cols.width(), len(fields)),
		}
	}

	rawDate := fields[cols.Date]
	iso, err := NormalizeDate(rawDate)
	if err != nil {
		return model.Transaction{}, &model.RowError{Row: row, Field: "date", Value: rawDate, Err: err}
	}
	date, err := calendar.ParseDate(iso)
	if err != nil {
		return model.Transaction{}, &model.RowError{Row: row, Field: "date", Value: rawDate, Err: err}
	}

	rawAmount := fields[cols.Amount]
	amount, err := money.Parse(rawAmount)
	if err != nil {
		return model.Transaction{}, &model.RowError{Row: row, Field: "amount", Value: rawAmount, Err: err}
	}
	if amount.IsZero() {
		return model.Transaction{}, &model.RowError{Row: row, Field: "amount", Value: rawAmount, Err: fmt.Errorf("amount is zero")}
	}

	var desc string
	if cols.Description >= 0 {
		desc = fields[cols.Description]
	}
	if desc == "" {
		return model.Transaction{}, &model.RowError{Row: row, Field: "description", Err: fmt.Errorf("description is empty")}
	}

	return model.Transaction{
		Date:        date,
		Description: desc,
		Amount:      amount,
		Category:    p.categorizer.Categorize(desc),
		Tags:        []string{model.TagImported},
		Settlement:  model.Pending,
	}, nil
}
