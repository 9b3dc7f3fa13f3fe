// Package service runs ledger operations end to end: it loads a snapshot from the store,
// calls the engine packages and writes the results back, logging each outcome.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/tally/internal/category"
	"github.com/cleared-dev/tally/internal/id"
	"github.com/cleared-dev/tally/internal/importer"
	"github.com/cleared-dev/tally/internal/journal"
	"github.com/cleared-dev/tally/internal/logging"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/store"
)

// ledgerKey guards writes that touch arbitrary transactions (approve, delete, import).
const ledgerKey = "ledger"

// Options configure a Service. Zero values get defaults.
type Options struct {
	Logger zerolog.Logger
	NewID  id.Generator
	Now    func() time.Time
	// Categories is the category list; category.Defaults() when empty.
	Categories      []string
	DefaultCategory string
	Categorizer     *category.Categorizer
	// ExportDir receives CSV month exports.
	ExportDir string
}

// Service orchestrates the engine over a store.
type Service struct {
	store      store.Store
	log        zerolog.Logger
	newID      id.Generator
	now        func() time.Time
	locks      *keyedMutex
	categories *category.Service
	defaultCat string
	parsers    *importer.Registry
	journal    *journal.Service
}

// New creates a Service.
func New(st store.Store, opts Options) *Service {
	if opts.NewID == nil {
		opts.NewID = id.New
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if len(opts.Categories) == 0 {
		opts.Categories = category.Defaults()
	}
	if opts.DefaultCategory == "" {
		opts.DefaultCategory = category.Other
	}
	if opts.ExportDir == "" {
		opts.ExportDir = "exports"
	}
	return &Service{
		store:      st,
		log:        logging.Component(opts.Logger, "service"),
		newID:      syncGenerator(opts.NewID),
		now:        opts.Now,
		locks:      newKeyedMutex(),
		categories: category.NewService(opts.Categories),
		defaultCat: opts.DefaultCategory,
		parsers:    importer.DefaultRegistry(opts.Categorizer),
		journal:    journal.NewService(opts.ExportDir),
	}
}

// Snapshot loads the current ledger.
func (s *Service) Snapshot(ctx context.Context) (model.Ledger, error) {
	l, err := s.store.Load(ctx)
	if err != nil {
		return model.Ledger{}, fmt.Errorf("loading ledger: %w", err)
	}
	return l, nil
}

// Categories returns the configured category list.
func (s *Service) Categories() []string {
	return s.categories.All()
}

// category returns the stored spelling of name, or the default category when name is
// empty. Names outside the list are kept as given.
func (s *Service) category(name string) string {
	if name == "" {
		return s.defaultCat
	}
	if c, ok := s.categories.Canonical(name); ok {
		return c
	}
	return name
}

func (s *Service) today() time.Time {
	t := s.now()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// syncGenerator makes g safe for the concurrent parsers of ImportFiles.
func syncGenerator(g id.Generator) id.Generator {
	var mu sync.Mutex
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		return g()
	}
}
