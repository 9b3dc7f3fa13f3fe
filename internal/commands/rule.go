package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/recurring"
	"github.com/cleared-dev/tally/internal/service"
)

func newRuleCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rule",
		Short: "Manage fixed monthly income and expenses",
	}
	cmd.AddCommand(
		newRuleAddCommand(opts),
		newRuleListCommand(opts),
		newRuleDeleteCommand(opts),
		newRuleGenerateCommand(opts),
	)
	return cmd
}

func newRuleAddCommand(opts *options) *cobra.Command {
	var (
		day       int
		kind, cat string
	)

	cmd := &cobra.Command{
		Use:   "add <description> <amount>",
		Short: "Add a rule that repeats every month",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			k, err := model.ParseKind(kind)
			if err != nil {
				return err
			}
			r, err := a.svc.AddRule(cmd.Context(), model.FixedExpenseRule{
				Day:         day,
				Description: args[0],
				Category:    cat,
				Amount:      amount,
				Kind:        k,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added rule %s\n", r.ID)
			return nil
		}),
	}

	cmd.Flags().IntVar(&day, "day", 0, "day of month, clamped in short months (required)")
	cmd.Flags().StringVar(&kind, "kind", string(model.KindExpense), "income or expense")
	cmd.Flags().StringVar(&cat, "category", "", "category (default from config)")
	_ = cmd.MarkFlagRequired("day")

	return cmd
}

func newRuleListCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List rules",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			l, err := a.svc.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tDAY\tDESCRIPTION\tAMOUNT\tKIND\tCATEGORY")
			for _, r := range l.Rules {
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\n", r.ID, r.Day, r.Description, r.Amount, r.Kind, r.Category)
			}
			return tw.Flush()
		}),
	}
}

func newRuleDeleteCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a rule; generated transactions stay",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			if err := a.svc.DeleteRule(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted rule %s\n", args[0])
			return nil
		}),
	}
}

func newRuleGenerateCommand(opts *options) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Create this month's transactions from the rules",
		Args:  cobra.NoArgs,
	}
	month := monthFlag(cmd, opts)
	cmd.Flags().BoolVar(&force, "force", false, "run again even if the month was already generated")
	cmd.RunE = withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
		ym, err := month()
		if err != nil {
			return err
		}
		res, err := a.svc.Generate(cmd.Context(), service.GenerateRequest{Month: ym, Force: force})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s: %d created, %d skipped, %d rejected\n",
			ym, res.Summary.Created, res.Summary.Skipped, res.Summary.Rejected)
		for _, r := range res.Rules {
			if r.Outcome == recurring.OutcomeRejected {
				fmt.Fprintf(out, "  rule %s rejected: %v\n", r.RuleID, r.Err)
			}
		}
		return nil
	})
	return cmd
}
