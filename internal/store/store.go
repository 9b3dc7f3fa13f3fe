// Package store persists ledger records. The engine packages never touch it; the service
// loads a snapshot, runs the engine and writes the results back.
package store

import (
	"context"

	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/money"
)

// Store is the record store.
type Store interface {
	// Load returns every record as one snapshot.
	Load(ctx context.Context) (model.Ledger, error)

	// SaveTransactions inserts or replaces txns atomically.
	SaveTransactions(ctx context.Context, txns ...model.Transaction) error
	// DeleteTransaction removes one transaction; model.ErrNotFound if absent.
	DeleteTransaction(ctx context.Context, id string) error

	SaveCard(ctx context.Context, c model.Card) error
	DeleteCard(ctx context.Context, id string) error
	SaveRule(ctx context.Context, r model.FixedExpenseRule) error
	DeleteRule(ctx context.Context, id string) error
	SaveGoal(ctx context.Context, g model.Goal) error
	SaveReceivable(ctx context.Context, r model.Receivable) error
	SetOpeningBalance(ctx context.Context, m money.Money) error

	// AcquireGeneration records that lock's rule set was expanded for its month. It
	// reports false when the marker already existed.
	AcquireGeneration(ctx context.Context, lock model.GenerationLock) (bool, error)
	// ReleaseGeneration removes a marker so the month can be generated again.
	ReleaseGeneration(ctx context.Context, lock model.GenerationLock) error

	// Replace swaps the whole content for l. Generation markers are cleared.
	Replace(ctx context.Context, l model.Ledger) error

	Close() error
}
