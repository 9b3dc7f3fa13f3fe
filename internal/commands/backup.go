package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newBackupCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export or restore the whole ledger as JSON",
	}
	cmd.AddCommand(newBackupExportCommand(opts), newBackupRestoreCommand(opts))
	return cmd
}

func newBackupExportCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write a backup to file, or stdout",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			if len(args) == 0 {
				return a.svc.ExportBackup(cmd.Context(), cmd.OutOrStdout())
			}
			f, err := os.Create(args[0])
			if err != nil {
				return fmt.Errorf("creating backup file: %w", err)
			}
			if err := a.svc.ExportBackup(cmd.Context(), f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("closing backup file: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backup written to %s\n", args[0])
			return nil
		}),
	}
}

func newBackupRestoreCommand(opts *options) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "restore <file>",
		Short: "Replace the ledger with a backup",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			if !yes {
				return fmt.Errorf("restore replaces every record in %s; pass --yes to confirm", a.cfg.Database.Path)
			}
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening backup: %w", err)
			}
			defer f.Close()
			b, err := a.svc.RestoreBackup(cmd.Context(), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %d transactions, %d cards, %d rules from backup of %s\n",
				len(b.Ledger.Transactions), len(b.Ledger.Cards), len(b.Ledger.Rules), b.ExportedAt.Format("2006-01-02 15:04"))
			return nil
		}),
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm replacing the ledger")
	return cmd
}
