package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCategoryCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Inspect categories",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List configured categories and the default",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			out := cmd.OutOrStdout()
			for _, name := range a.svc.Categories() {
				marker := ""
				if name == a.cfg.Ledger.DefaultCategory {
					marker = " (default)"
				}
				fmt.Fprintf(out, "%s%s\n", name, marker)
			}
			return nil
		}),
	})
	return cmd
}
