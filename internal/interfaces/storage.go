package interfaces

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned when a blob key does not exist
var ErrKeyNotFound = errors.New("key not found")

// BlobStorage is a key to bytes map with last-writer-wins semantics, used to
// persist job artifacts (fingerprints, changed-content documents, run state)
// between runs.
type BlobStorage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}
