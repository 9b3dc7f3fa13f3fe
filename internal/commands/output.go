package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/cleared-dev/tally/internal/calendar"
	"github.com/cleared-dev/tally/internal/importer"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/money"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(calendar.ISODate)
}

// parseDate accepts the same layouts as statement rows: 2026-03-18, 18/03/2026, 18/03/26.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	iso, err := importer.NormalizeDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return calendar.ParseDate(iso)
}

func parseAmount(s string) (money.Money, error) {
	m, err := money.Parse(s)
	if err != nil {
		return 0, &model.ValidationError{Field: "amount", Value: s, Reason: "is not a number"}
	}
	return m, nil
}

func printTransactions(w io.Writer, txns []model.Transaction) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tDATE\tDESCRIPTION\tAMOUNT\tKIND\tCATEGORY\tCARD\tSTATUS")
	for _, txn := range txns {
		status := string(txn.Settlement)
		if txn.Paid {
			status = "paid"
		}
		card := txn.CardID
		if card == "" {
			card = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			txn.ID, formatDate(txn.Date), txn.Description, txn.Amount, txn.Kind, txn.Category, card, status)
	}
	return tw.Flush()
}

func printRowErrors(w io.Writer, errs []model.RowError) {
	for _, re := range errs {
		fmt.Fprintf(w, "  skipped %s\n", strings.TrimSpace(re.Error()))
	}
}
