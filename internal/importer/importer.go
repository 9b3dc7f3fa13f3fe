// Package importer turns bank and card statement text into pending transactions.
package importer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cleared-dev/tally/internal/category"
	"github.com/cleared-dev/tally/internal/id"
	"github.com/cleared-dev/tally/internal/model"
)

// Options adjust how parsed rows become transactions.
type Options struct {
	// Kind overrides the default of expense.
	Kind model.Kind
	// CardID attaches every row to a card.
	CardID string
	NewID  id.Generator
}

// Report is the outcome of parsing one statement.
type Report struct {
	Header       []string
	Columns      Columns
	Delimiter    rune
	Transactions []model.Transaction
	Summary      model.Summary
	Errors       []model.RowError
}

// Parser converts statement text into transactions.
type Parser interface {
	Parse(r io.Reader, opts Options) (*Report, error)
	Format() string
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
}

// FileInfo describes a statement file in the inbox directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// Formats lists registered format names.
func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.parsers))
	for k := range r.parsers {
		out = append(out, k)
	}
	return out
}

// DefaultRegistry returns a registry with the heuristic parser under "auto", categorizing
// with cat (the built-in keyword table when nil).
func DefaultRegistry(cat *category.Categorizer) *Registry {
	r := NewRegistry()
	r.Register(NewHeuristicParser(DefaultColumns(), cat))
	return r
}

// processedDir is the subdirectory of the inbox that holds imported files.
const processedDir = "processed"

var statementExts = map[string]bool{".csv": true, ".txt": true}

// Scan returns statement files (.csv, .txt) directly inside dir. A missing dir is empty.
func Scan(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !statementExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// MarkProcessed moves a file from dir to dir/processed.
func MarkProcessed(dir, fileName string) error {
	src := filepath.Join(dir, fileName)
	dstDir := filepath.Join(dir, processedDir)

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	dst := filepath.Join(dstDir, fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}
