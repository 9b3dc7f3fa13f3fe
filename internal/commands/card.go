package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/cycle"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/money"
)

func newCardCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "card",
		Short: "Manage credit cards and their invoices",
	}
	cmd.AddCommand(
		newCardAddCommand(opts),
		newCardListCommand(opts),
		newCardDeleteCommand(opts),
		newCardInvoiceCommand(opts),
		newCardPayCommand(opts),
	)
	return cmd
}

func newCardAddCommand(opts *options) *cobra.Command {
	var (
		cardID, limit   string
		closing, dueDay int
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a credit card",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			creditLimit := money.Zero
			if limit != "" {
				var err error
				if creditLimit, err = parseAmount(limit); err != nil {
					return err
				}
			}
			c, err := a.svc.AddCard(cmd.Context(), model.Card{
				ID:          cardID,
				Name:        args[0],
				CreditLimit: creditLimit,
				ClosingDay:  closing,
				DueDay:      dueDay,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added card %s (%s)\n", c.Name, c.ID)
			return nil
		}),
	}

	cmd.Flags().StringVar(&cardID, "id", "", "card id (default generated)")
	cmd.Flags().StringVar(&limit, "limit", "", "credit limit")
	cmd.Flags().IntVar(&closing, "closing-day", 0, "day the invoice closes (required)")
	cmd.Flags().IntVar(&dueDay, "due-day", 0, "day the invoice is due (required)")
	_ = cmd.MarkFlagRequired("closing-day")
	_ = cmd.MarkFlagRequired("due-day")

	return cmd
}

func newCardListCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cards with their current cycle",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			l, err := a.svc.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tNAME\tLIMIT\tCLOSING\tDUE\tCURRENT CYCLE")
			today := opts.now()
			for _, c := range l.Cards {
				cy := cycle.Of(c, today)
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s..%s (due %s)\n",
					c.ID, c.Name, c.CreditLimit, c.ClosingDay, c.DueDay,
					formatDate(cy.Start), formatDate(cy.End), formatDate(cy.Due))
			}
			return tw.Flush()
		}),
	}
}

func newCardDeleteCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a card; its transactions stay",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			if err := a.svc.DeleteCard(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted card %s\n", args[0])
			return nil
		}),
	}
}

func newCardInvoiceCommand(opts *options) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "invoice <card-id>",
		Short: "Show the invoice due in a month",
		Args:  cobra.ExactArgs(1),
	}
	month := monthFlag(cmd, opts)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	cmd.RunE = withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
		ym, err := month()
		if err != nil {
			return err
		}
		inv, err := a.svc.Invoice(cmd.Context(), args[0], ym)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if asJSON {
			return writeJSON(out, inv)
		}

		status := "open"
		if inv.Paid {
			status = "paid"
		}
		fmt.Fprintf(out, "%s invoice %s: %s..%s, due %s (%s)\n",
			inv.Card.Name, inv.Cycle.Month, formatDate(inv.Cycle.Start), formatDate(inv.Cycle.End), formatDate(inv.Cycle.Due), status)
		fmt.Fprintf(out, "Total: %s  Outstanding: %s  Available: %s\n", inv.Total, inv.Outstanding(), inv.Available)
		if err := printTransactions(out, inv.Transactions); err != nil {
			return err
		}
		if len(inv.Pending) > 0 {
			fmt.Fprintf(out, "\n%d pending:\n", len(inv.Pending))
			return printTransactions(out, inv.Pending)
		}
		return nil
	})
	return cmd
}

func newCardPayCommand(opts *options) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "pay <card-id>",
		Short: "Pay the invoice due in a month",
		Args:  cobra.ExactArgs(1),
	}
	month := monthFlag(cmd, opts)
	cmd.Flags().StringVar(&date, "date", "", "payment date (default the due date)")
	cmd.RunE = withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
		ym, err := month()
		if err != nil {
			return err
		}
		on, err := parseDate(date)
		if err != nil {
			return err
		}
		payment, err := a.svc.PayInvoice(cmd.Context(), args[0], ym, on)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Paid %s on %s (%s)\n", payment.Amount, formatDate(payment.Date), payment.ID)
		return nil
	})
	return cmd
}
