package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/buildinfo"
	"github.com/cleared-dev/tally/internal/calendar"
	"github.com/cleared-dev/tally/internal/config"
	"github.com/cleared-dev/tally/internal/logging"
	"github.com/cleared-dev/tally/internal/service"
	"github.com/cleared-dev/tally/internal/store"
)

// exportDir is where "tally export" writes, next to the config file.
const exportDir = "exports"

// options are the persistent flags shared by every command.
type options struct {
	configPath string
	now        func() time.Time
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &options{now: time.Now}

	rootCmd := &cobra.Command{
		Use:     "tally",
		Short:   "Personal ledger with card invoices and recurring expenses",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", config.FileName, "path to tally.yaml")

	rootCmd.AddCommand(
		newInitCommand(),
		newTxCommand(opts),
		newCardCommand(opts),
		newRuleCommand(opts),
		newImportCommand(opts),
		newSummaryCommand(opts),
		newTrendCommand(opts),
		newExportCommand(opts),
		newBackupCommand(opts),
		newGoalCommand(opts),
		newReceivableCommand(opts),
		newCategoryCommand(opts),
	)

	return rootCmd
}

// app is what a command needs to run against a ledger.
type app struct {
	cfg   *config.Config
	log   zerolog.Logger
	store *store.SQLite
	svc   *service.Service
}

// Close releases the store.
func (a *app) Close() error {
	return a.store.Close()
}

// openApp loads the config, builds the logger and opens the store.
func openApp(cmd *cobra.Command, opts *options) (*app, error) {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	log := logging.New(logging.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty, Out: cmd.ErrOrStderr()})

	categorizer, err := cfg.Categorizer()
	if err != nil {
		return nil, fmt.Errorf("loading category rules: %w", err)
	}

	st, err := store.OpenSQLite(cmd.Context(), cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("db", cfg.Database.Path).Msg("store opened")

	svc := service.New(st, service.Options{
		Logger:          log,
		Now:             opts.now,
		Categories:      cfg.Categories,
		DefaultCategory: cfg.Ledger.DefaultCategory,
		Categorizer:     categorizer,
		ExportDir:       filepath.Join(filepath.Dir(opts.configPath), exportDir),
	})
	return &app{cfg: cfg, log: log, store: st, svc: svc}, nil
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s not found, run \"tally init\" first", path)
		}
		return nil, err
	}
	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// withApp wraps a RunE body with openApp and Close.
func withApp(opts *options, run func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, opts)
		if err != nil {
			return err
		}
		defer a.Close()
		return run(cmd, a, args)
	}
}

// monthFlag registers --month and returns a getter that defaults to the current month.
func monthFlag(cmd *cobra.Command, opts *options) func() (calendar.YearMonth, error) {
	var raw string
	cmd.Flags().StringVar(&raw, "month", "", "month as YYYY-MM (default current month)")
	return func() (calendar.YearMonth, error) {
		if raw == "" {
			return calendar.Of(opts.now()), nil
		}
		return calendar.ParseYearMonth(raw)
	}
}
