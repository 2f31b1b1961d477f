package interfaces

import (
	"context"

	"github.com/ternarybob/colligo/internal/models"
)

// VectorIndex manages the lifecycle of the target index and applies batched,
// idempotent-by-id upserts.
type VectorIndex interface {
	// EnsureIndex creates the index if it does not exist. Attempting to
	// create an index that already exists must not return an error.
	EnsureIndex(ctx context.Context, name string, dimension int, metric string) error

	// ResolveEndpoint returns the data-plane host for the named index
	ResolveEndpoint(ctx context.Context, name string) (string, error)

	// Upsert writes records to the named index in fixed-size batches.
	// Re-upserting an existing record ID overwrites, never duplicates.
	Upsert(ctx context.Context, name string, records []models.VectorRecord) (int, error)
}
