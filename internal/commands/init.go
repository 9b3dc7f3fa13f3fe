package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/category"
	"github.com/cleared-dev/tally/internal/config"
	"github.com/cleared-dev/tally/internal/money"
	"github.com/cleared-dev/tally/internal/store"
)

// categoriesFile holds the editable keyword table written by init.
const categoriesFile = "categories.yaml"

func newInitCommand() *cobra.Command {
	var opening string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new ledger",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			balance := money.Zero
			if opening != "" {
				if balance, err = parseAmount(opening); err != nil {
					return err
				}
			}
			return runInit(cmd, absDir, balance)
		},
	}

	cmd.Flags().StringVar(&opening, "opening-balance", "", "balance the ledger starts from")

	return cmd
}

func runInit(cmd *cobra.Command, dir string, opening money.Money) error {
	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	}

	dirs := []string{
		"import",
		filepath.Join("import", "processed"),
		exportDir,
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	// Paths are written relative so the directory can be moved.
	cfg := config.Default()
	cfg.Ledger.OpeningBalance = opening
	cfg.Import.CategoriesFile = categoriesFile
	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	if err := category.SaveRules(filepath.Join(dir, categoriesFile), category.DefaultRules()); err != nil {
		return fmt.Errorf("writing category rules: %w", err)
	}

	gitignore := "tally.db\ntally.db-*\nexports/\n.env\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "import", ".gitkeep"), []byte{}, 0o644); err != nil {
		return fmt.Errorf("writing .gitkeep: %w", err)
	}

	// Create the database and record the opening balance.
	st, err := store.OpenSQLite(cmd.Context(), filepath.Join(dir, cfg.Database.Path))
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.SetOpeningBalance(cmd.Context(), opening); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized ledger at %s\n", dir)
	return nil
}
