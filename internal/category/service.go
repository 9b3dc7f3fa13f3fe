// Package category holds the ledger's category list and the keyword table that assigns
// categories to imported statement rows.
package category

import (
	"slices"
	"strings"

	"github.com/cleared-dev/tally/internal/model"
)

// Service provides in-memory lookup over the category list.
type Service struct {
	names  []string
	byFold map[string]string
}

// NewService creates a Service from category names. Duplicates (ignoring case and
// accents) keep their first spelling.
func NewService(names []string) *Service {
	s := &Service{byFold: make(map[string]string, len(names))}
	for _, n := range names {
		s.add(n)
	}
	return s
}

func (s *Service) add(name string) bool {
	name = strings.TrimSpace(name)
	key := Fold(name)
	if key == "" {
		return false
	}
	if _, ok := s.byFold[key]; ok {
		return false
	}
	s.byFold[key] = name
	s.names = append(s.names, name)
	return true
}

// All returns every category in insertion order.
func (s *Service) All() []string {
	return slices.Clone(s.names)
}

// Exists reports whether a category is known, ignoring case and accents.
func (s *Service) Exists(name string) bool {
	_, ok := s.byFold[Fold(name)]
	return ok
}

// Canonical returns the stored spelling of name.
func (s *Service) Canonical(name string) (string, bool) {
	n, ok := s.byFold[Fold(name)]
	return n, ok
}

// Add registers a new category.
func (s *Service) Add(name string) error {
	if strings.TrimSpace(name) == "" {
		return &model.ValidationError{Field: "category", Reason: "is required"}
	}
	if !s.add(name) {
		return &model.ValidationError{Field: "category", Value: name, Reason: "already exists"}
	}
	return nil
}

// Remove deletes a category. Transactions keep whatever name they carry.
func (s *Service) Remove(name string) error {
	key := Fold(name)
	stored, ok := s.byFold[key]
	if !ok {
		return &model.NotFoundError{Kind: "category", ID: name}
	}
	delete(s.byFold, key)
	s.names = slices.DeleteFunc(s.names, func(n string) bool { return n == stored })
	return nil
}
