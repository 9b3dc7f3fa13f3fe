package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/importer"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/service"
)

func newImportCommand(opts *options) *cobra.Command {
	var (
		cardID, kind, format string
		keep                 bool
	)

	cmd := &cobra.Command{
		Use:   "import [file...]",
		Short: "Import bank statements as pending transactions",
		Long: "Import bank statements as pending transactions.\n\n" +
			"Without arguments every .csv and .txt file in the configured import directory is\n" +
			"imported and moved to its processed/ subdirectory.",
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			importOpts := service.ImportOptions{Format: format, CardID: cardID}
			if kind != "" {
				k, err := model.ParseKind(kind)
				if err != nil {
					return err
				}
				importOpts.Kind = k
			}

			paths := args
			if len(paths) == 0 {
				files, err := importer.Scan(a.cfg.Import.Dir)
				if err != nil {
					return err
				}
				for _, f := range files {
					paths = append(paths, f.Path)
				}
				importOpts.MarkProcessed = !keep
			}
			out := cmd.OutOrStdout()
			if len(paths) == 0 {
				fmt.Fprintf(out, "No statements in %s\n", a.cfg.Import.Dir)
				return nil
			}

			reports, err := a.svc.ImportFiles(cmd.Context(), paths, importOpts)
			if err != nil {
				return err
			}
			var failed int
			for _, fr := range reports {
				if fr.Err != nil {
					failed++
					fmt.Fprintf(out, "%s: %v\n", fr.Path, fr.Err)
					continue
				}
				fmt.Fprintf(out, "%s: %d imported, %d skipped\n", fr.Path, fr.Report.Summary.Created, fr.Report.Summary.Rejected)
				printRowErrors(out, fr.Report.Errors)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d statements failed", failed, len(reports))
			}
			return nil
		}),
	}

	cmd.Flags().StringVar(&cardID, "card", "", "record rows as charges on this card")
	cmd.Flags().StringVar(&kind, "kind", "", "income or expense (default expense)")
	cmd.Flags().StringVar(&format, "format", "auto", "statement format")
	cmd.Flags().BoolVar(&keep, "keep", false, "leave inbox files in place")

	return cmd
}
