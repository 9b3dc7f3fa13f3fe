package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/installment"
	"github.com/cleared-dev/tally/internal/model"
)

func newTxCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Record and review transactions",
	}
	cmd.AddCommand(
		newTxAddCommand(opts),
		newTxListCommand(opts),
		newTxApproveCommand(opts),
		newTxDeleteCommand(opts),
	)
	return cmd
}

func newTxAddCommand(opts *options) *cobra.Command {
	var (
		date, kind, cat, cardID string
		installments            int
		pending                 bool
	)

	cmd := &cobra.Command{
		Use:   "add <description> <amount>",
		Short: "Add a transaction, or a purchase split into installments",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			on, err := parseDate(date)
			if err != nil {
				return err
			}
			k, err := model.ParseKind(kind)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if installments > 1 {
				if k != model.KindExpense {
					return &model.ValidationError{Field: "kind", Value: kind, Reason: "installments apply to expenses only"}
				}
				txns, err := a.svc.AddPurchase(cmd.Context(), installment.Purchase{
					Date:        on,
					Description: args[0],
					Amount:      amount,
					Category:    cat,
					CardID:      cardID,
					Count:       installments,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Added %d installments:\n", len(txns))
				return printTransactions(out, txns)
			}

			settlement := model.Settled
			if pending {
				settlement = model.Pending
			}
			txn, err := a.svc.AddTransaction(cmd.Context(), model.Transaction{
				Date:        on,
				Description: args[0],
				Amount:      amount,
				Kind:        k,
				Category:    cat,
				CardID:      cardID,
				Settlement:  settlement,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Added %s\n", txn.ID)
			return nil
		}),
	}

	cmd.Flags().StringVar(&date, "date", "", "transaction date (default today)")
	cmd.Flags().StringVar(&kind, "kind", string(model.KindExpense), "income or expense")
	cmd.Flags().StringVar(&cat, "category", "", "category (default from config)")
	cmd.Flags().StringVar(&cardID, "card", "", "card the purchase was charged to")
	cmd.Flags().IntVar(&installments, "installments", 1, "split into this many monthly installments")
	cmd.Flags().BoolVar(&pending, "pending", false, "record as pending until approved")

	return cmd
}

func newTxListCommand(opts *options) *cobra.Command {
	var pendingOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the transactions counted in a month",
		Args:  cobra.NoArgs,
	}
	month := monthFlag(cmd, opts)
	cmd.Flags().BoolVar(&pendingOnly, "pending", false, "only pending transactions")
	cmd.RunE = withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
		ym, err := month()
		if err != nil {
			return err
		}
		txns, err := a.svc.Transactions(cmd.Context(), ym)
		if err != nil {
			return err
		}
		if pendingOnly {
			var filtered []model.Transaction
			for _, txn := range txns {
				if !txn.IsSettled() {
					filtered = append(filtered, txn)
				}
			}
			txns = filtered
		}
		return printTransactions(cmd.OutOrStdout(), txns)
	})
	return cmd
}

func newTxApproveCommand(opts *options) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "approve [id...]",
		Short: "Settle pending transactions",
	}
	month := monthFlag(cmd, opts)
	cmd.Flags().BoolVar(&all, "all", false, "approve every pending transaction of --month")
	cmd.RunE = withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
		out := cmd.OutOrStdout()
		if all {
			ym, err := month()
			if err != nil {
				return err
			}
			n, err := a.svc.ApproveMonth(cmd.Context(), ym)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Approved %d transactions in %s\n", n, ym)
			return nil
		}
		if len(args) == 0 {
			return fmt.Errorf("pass transaction ids or --all")
		}
		if err := a.svc.Approve(cmd.Context(), args...); err != nil {
			return err
		}
		fmt.Fprintf(out, "Approved %d transactions\n", len(args))
		return nil
	})
	return cmd
}

func newTxDeleteCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one transaction",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			if err := a.svc.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		}),
	}
}
