// Package journal reads and writes transactions as CSV, one row per transaction.
package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cleared-dev/tally/internal/calendar"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/money"
)

// Header is the CSV header of a transaction export.
const Header = "id,date,description,amount,kind,category,tags,card_id,settled,paid,installment_group,installment_index,installment_total"

const (
	numFields   = 13
	colID       = 0
	colDate     = 1
	colDesc     = 2
	colAmount   = 3
	colKind     = 4
	colCategory = 5
	colTags     = 6
	colCardID   = 7
	colSettled  = 8
	colPaid     = 9
	colGroup    = 10
	colIndex    = 11
	colTotal    = 12
)

// ReadTransactions reads all transactions from a CSV reader that starts with Header.
func ReadTransactions(r io.Reader) ([]model.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading transactions CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	// Skip header row.
	var txns []model.Transaction
	for i, rec := range records[1:] {
		txn, err := UnmarshalTransaction(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

// WriteTransactions writes txns (including header).
func WriteTransactions(w io.Writer, txns []model.Transaction) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, txn := range txns {
		if err := cw.Write(MarshalTransaction(txn)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalTransaction converts a Transaction to a CSV row.
func MarshalTransaction(txn model.Transaction) []string {
	row := make([]string, numFields)
	row[colID] = txn.ID
	row[colDate] = txn.Date.Format(calendar.ISODate)
	row[colDesc] = txn.Description
	row[colAmount] = txn.Amount.String()
	row[colKind] = string(txn.Kind)
	row[colCategory] = txn.Category
	row[colTags] = strings.Join(txn.Tags, model.TagSeparator)
	row[colCardID] = txn.CardID
	row[colSettled] = strconv.FormatBool(txn.IsSettled())
	row[colPaid] = strconv.FormatBool(txn.Paid)

	if inst := txn.Installment; inst != nil {
		row[colGroup] = inst.GroupID
		row[colIndex] = strconv.Itoa(inst.Index)
		row[colTotal] = strconv.Itoa(inst.Total)
	}
	return row
}

// UnmarshalTransaction converts a CSV row to a Transaction.
func UnmarshalTransaction(record []string) (model.Transaction, error) {
	if len(record) != numFields {
		return model.Transaction{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	date, err := calendar.ParseDate(record[colDate])
	if err != nil {
		return model.Transaction{}, err
	}

	amount, err := money.Parse(record[colAmount])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing amount %q: %w", record[colAmount], err)
	}

	kind, err := model.ParseKind(record[colKind])
	if err != nil {
		return model.Transaction{}, err
	}

	settled, err := parseBool(record[colSettled])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing settled %q: %w", record[colSettled], err)
	}
	paid, err := parseBool(record[colPaid])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing paid %q: %w", record[colPaid], err)
	}

	txn := model.Transaction{
		ID:          record[colID],
		Date:        date,
		Description: record[colDesc],
		Amount:      amount,
		Kind:        kind,
		Category:    record[colCategory],
		CardID:      record[colCardID],
		Settlement:  model.Pending,
		Paid:        paid,
	}
	if settled {
		txn.Settlement = model.Settled
	}
	if record[colTags] != "" {
		txn.Tags = strings.Split(record[colTags], model.TagSeparator)
	}

	if record[colGroup] != "" {
		index, err := strconv.Atoi(record[colIndex])
		if err != nil {
			return model.Transaction{}, fmt.Errorf("parsing installment_index %q: %w", record[colIndex], err)
		}
		total, err := strconv.Atoi(record[colTotal])
		if err != nil {
			return model.Transaction{}, fmt.Errorf("parsing installment_total %q: %w", record[colTotal], err)
		}
		txn.Installment = &model.Installment{GroupID: record[colGroup], Index: index, Total: total}
	}
	return txn, nil
}

func parseBool(s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	return strconv.ParseBool(s)
}
