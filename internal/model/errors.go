package model

import (
	"errors"
	"fmt"
)

// Sentinel errors. Typed errors below match them through errors.Is.
var (
	ErrValidation              = errors.New("validation failed")
	ErrNotFound                = errors.New("not found")
	ErrInvalidInstallmentCount = errors.New("invalid installment count")
	ErrHeaderNotFound          = errors.New("statement header not found")
	ErrInvalidTransition       = errors.New("invalid transition")
)

// ValidationError rejects input before any record is created.
type ValidationError struct {
	Field  string
	Row    int // 0 when not tied to an input row
	Value  string
	Reason string
	Err    error // optional, more specific sentinel
}

func (e *ValidationError) Error() string {
	msg := e.Field + " " + e.Reason
	if e.Value != "" {
		msg = fmt.Sprintf("%s %s (got %q)", e.Field, e.Reason, e.Value)
	}
	if e.Row > 0 {
		msg = fmt.Sprintf("row %d: %s", e.Row, msg)
	}
	return msg
}

// Is matches ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Unwrap returns the more specific cause, if any.
func (e *ValidationError) Unwrap() error { return e.Err }

// NotFoundError reports an unknown record id.
type NotFoundError struct {
	Kind string // "transaction", "card", "rule", ...
	ID   string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s %q not found", e.Kind, e.ID) }

// Is matches ErrNotFound.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// RowError is one statement row dropped during import. It never aborts the batch.
type RowError struct {
	Row   int // 1-based line number in the input
	Field string
	Value string
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %s %q: %v", e.Row, e.Field, e.Value, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Summary counts the outcome of a batch operation (generation, import).
type Summary struct {
	Created  int `json:"created"`
	Skipped  int `json:"skipped"`
	Rejected int `json:"rejected"`
}
