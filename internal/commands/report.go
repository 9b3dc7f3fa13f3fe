package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/ledger"
)

func newSummaryCommand(opts *options) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show a month's income, expense and balances",
		Args:  cobra.NoArgs,
	}
	month := monthFlag(cmd, opts)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	cmd.RunE = withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
		ym, err := month()
		if err != nil {
			return err
		}
		sum, err := a.svc.Summary(cmd.Context(), ym)
		if err != nil {
			return err
		}
		breakdown, err := a.svc.Breakdown(cmd.Context(), ym)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if asJSON {
			return writeJSON(out, struct {
				Summary    ledger.MonthSummary    `json:"summary"`
				Categories []ledger.CategoryTotal `json:"categories"`
			}{sum, breakdown})
		}

		tw := newTable(out)
		fmt.Fprintf(tw, "Month\t%s\n", sum.Month)
		fmt.Fprintf(tw, "Income\t%s\n", sum.Income)
		fmt.Fprintf(tw, "Expense\t%s\n", sum.Expense)
		fmt.Fprintf(tw, "Period balance\t%s\n", sum.PeriodBalance)
		fmt.Fprintf(tw, "Final balance\t%s\n", sum.FinalBalance)
		fmt.Fprintf(tw, "Pending\t%d\n", sum.Pending)
		for _, inv := range sum.CardInvoices {
			fmt.Fprintf(tw, "Invoice %s\t%s (due %s)\n", inv.Card.Name, inv.Total, formatDate(inv.Cycle.Due))
		}
		if len(breakdown) > 0 {
			fmt.Fprintln(tw, "\t")
			for _, ct := range breakdown {
				fmt.Fprintf(tw, "%s\t%s\n", ct.Category, ct.Total)
			}
		}
		return tw.Flush()
	})
	return cmd
}

func newTrendCommand(opts *options) *cobra.Command {
	var months int

	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Show income and expense for the months ending at --month",
		Args:  cobra.NoArgs,
	}
	month := monthFlag(cmd, opts)
	cmd.Flags().IntVar(&months, "months", 6, "number of months")
	cmd.RunE = withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
		ym, err := month()
		if err != nil {
			return err
		}
		trend, err := a.svc.Trend(cmd.Context(), ym, months)
		if err != nil {
			return err
		}
		tw := newTable(cmd.OutOrStdout())
		fmt.Fprintln(tw, "MONTH\tINCOME\tEXPENSE\tBALANCE\tFINAL")
		for _, m := range trend {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", m.Month, m.Income, m.Expense, m.PeriodBalance, m.FinalBalance)
		}
		return tw.Flush()
	})
	return cmd
}

func newExportCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a month's transactions to CSV",
		Args:  cobra.NoArgs,
	}
	cmd.AddCommand(newExportRestoreCommand(opts))
	month := monthFlag(cmd, opts)
	cmd.RunE = withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
		ym, err := month()
		if err != nil {
			return err
		}
		path, err := a.svc.ExportMonth(cmd.Context(), ym)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", ym, path)
		return nil
	})
	return cmd
}

func newExportRestoreCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Read a month's CSV export back into the ledger",
		Args:  cobra.NoArgs,
	}
	month := monthFlag(cmd, opts)
	cmd.RunE = withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
		ym, err := month()
		if err != nil {
			return err
		}
		n, err := a.svc.RestoreMonth(cmd.Context(), ym)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Restored %d transactions of %s\n", n, ym)
		return nil
	})
	return cmd
}
