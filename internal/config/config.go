// Package config reads and writes tally.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/tally/internal/category"
	"github.com/cleared-dev/tally/internal/logging"
	"github.com/cleared-dev/tally/internal/money"
)

// FileName is the default config file name.
const FileName = "tally.yaml"

// Environment overrides.
const (
	EnvDBPath   = "TALLY_DB_PATH"
	EnvLogLevel = "TALLY_LOG_LEVEL"
)

// Config represents the top-level tally.yaml configuration.
type Config struct {
	Database   DatabaseConfig `yaml:"database"`
	Import     ImportConfig   `yaml:"import"`
	Ledger     LedgerConfig   `yaml:"ledger"`
	Categories []string       `yaml:"categories,omitempty"`
	Log        LogConfig      `yaml:"log"`
}

// DatabaseConfig locates the SQLite file.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ImportConfig controls statement imports.
type ImportConfig struct {
	Dir string `yaml:"dir"` // inbox scanned by "tally import" without arguments
	// CategoriesFile replaces the built-in keyword table when set.
	CategoriesFile string `yaml:"categories_file,omitempty"`
}

// LedgerConfig holds defaults for new records.
type LedgerConfig struct {
	OpeningBalance  money.Money `yaml:"opening_balance"`
	DefaultCategory string      `yaml:"default_category"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Load reads a tally.yaml file from disk. Relative paths inside it are resolved against
// the file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.resolve(filepath.Dir(path))
	return &cfg, nil
}

func (c *Config) resolve(base string) {
	for _, p := range []*string{&c.Database.Path, &c.Import.Dir, &c.Import.CategoriesFile} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new ledger.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "tally.db"},
		Import:   ImportConfig{Dir: "import"},
		Ledger: LedgerConfig{
			OpeningBalance:  money.Zero,
			DefaultCategory: category.Other,
		},
		Categories: category.Defaults(),
		Log:        LogConfig{Level: "info"},
	}
}

// ApplyEnv overrides fields from the environment. lookup is os.LookupEnv outside tests.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvDBPath); ok && v != "" {
		c.Database.Path = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Database.Path) == "" {
		problems = append(problems, "database.path cannot be empty")
	}
	if _, ok := logging.ParseLevel(c.Log.Level); !ok {
		problems = append(problems, fmt.Sprintf("invalid log.level %q: must be one of %v", c.Log.Level, logging.Levels))
	}
	if c.Ledger.DefaultCategory == "" {
		problems = append(problems, "ledger.default_category cannot be empty")
	} else if len(c.Categories) > 0 && !category.NewService(c.Categories).Exists(c.Ledger.DefaultCategory) {
		problems = append(problems, fmt.Sprintf("ledger.default_category %q is not in categories", c.Ledger.DefaultCategory))
	}
	seen := make(map[string]bool)
	for _, name := range c.Categories {
		key := category.Fold(name)
		if key == "" {
			problems = append(problems, "categories cannot contain an empty name")
			continue
		}
		if seen[key] {
			problems = append(problems, fmt.Sprintf("duplicate category %q", name))
		}
		seen[key] = true
	}
	if f := c.Import.CategoriesFile; f != "" {
		if _, err := os.Stat(f); err != nil {
			problems = append(problems, fmt.Sprintf("import.categories_file %q: %v", f, err))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Categorizer returns the keyword categorizer configured for imports.
func (c *Config) Categorizer() (*category.Categorizer, error) {
	if c.Import.CategoriesFile == "" {
		return category.DefaultCategorizer(), nil
	}
	rules, err := category.LoadRules(c.Import.CategoriesFile)
	if err != nil {
		return nil, err
	}
	return category.NewCategorizer(rules, c.Ledger.DefaultCategory), nil
}
