package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/money"
)

func newGoalCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goal",
		Short: "Track savings goals",
	}
	cmd.AddCommand(newGoalAddCommand(opts), newGoalUpdateCommand(opts), newGoalListCommand(opts))
	return cmd
}

func newGoalAddCommand(opts *options) *cobra.Command {
	var current string

	cmd := &cobra.Command{
		Use:   "add <name> <target>",
		Short: "Add a savings goal",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			target, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			saved := money.Zero
			if current != "" {
				if saved, err = parseAmount(current); err != nil {
					return err
				}
			}
			g, err := a.svc.AddGoal(cmd.Context(), model.Goal{Name: args[0], Target: target, Current: saved})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added goal %s (%s)\n", g.Name, g.ID)
			return nil
		}),
	}
	cmd.Flags().StringVar(&current, "current", "", "amount already saved")
	return cmd
}

func newGoalUpdateCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "update <id> <current>",
		Short: "Set the amount saved toward a goal",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			current, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			g, err := a.svc.UpdateGoal(cmd.Context(), args[0], current)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s of %s (%s)\n", g.Name, g.Current, g.Target, percent(g.Progress()))
			return nil
		}),
	}
}

func newGoalListCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List goals and their progress",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			l, err := a.svc.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tNAME\tCURRENT\tTARGET\tPROGRESS")
			for _, g := range l.Goals {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", g.ID, g.Name, g.Current, g.Target, percent(g.Progress()))
			}
			return tw.Flush()
		}),
	}
}

// percent formats basis points: 2550 -> "25.50%".
func percent(bp int64) string {
	return fmt.Sprintf("%d.%02d%%", bp/100, bp%100)
}

func newReceivableCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "receivable",
		Short: "Track money others owe you",
	}
	cmd.AddCommand(newReceivableAddCommand(opts), newReceivablePayCommand(opts), newReceivableListCommand(opts))
	return cmd
}

func newReceivableAddCommand(opts *options) *cobra.Command {
	var description, expected string

	cmd := &cobra.Command{
		Use:   "add <debtor> <amount>",
		Short: "Record money someone owes",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			on, err := parseDate(expected)
			if err != nil {
				return err
			}
			r, err := a.svc.AddReceivable(cmd.Context(), model.Receivable{
				Debtor:       args[0],
				Description:  description,
				Amount:       amount,
				ExpectedDate: on,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added receivable %s\n", r.ID)
			return nil
		}),
	}
	cmd.Flags().StringVar(&description, "description", "", "what the money is for")
	cmd.Flags().StringVar(&expected, "expected", "", "expected payment date (default today)")
	return cmd
}

func newReceivablePayCommand(opts *options) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "pay <id>",
		Short: "Mark a receivable paid and record the income",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			on, err := parseDate(date)
			if err != nil {
				return err
			}
			txn, err := a.svc.PayReceivable(cmd.Context(), args[0], on)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Received %s on %s (%s)\n", txn.Amount, formatDate(txn.Date), txn.ID)
			return nil
		}),
	}
	cmd.Flags().StringVar(&date, "date", "", "payment date (default today)")
	return cmd
}

func newReceivableListCommand(opts *options) *cobra.Command {
	var open bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List receivables",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			l, err := a.svc.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tDEBTOR\tDESCRIPTION\tAMOUNT\tEXPECTED\tSTATUS")
			for _, r := range l.Receivables {
				if open && r.Paid {
					continue
				}
				status := "open"
				if r.Paid {
					status = "paid"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", r.ID, r.Debtor, r.Description, r.Amount, formatDate(r.ExpectedDate), status)
			}
			return tw.Flush()
		}),
	}
	cmd.Flags().BoolVar(&open, "open", false, "only unpaid receivables")
	return cmd
}
