package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/colligo/internal/interfaces"
)

// BlobEntry is the stored form of one artifact blob
type BlobEntry struct {
	Key       string `badgerhold:"key"`
	Data      []byte
	UpdatedAt time.Time
}

// BlobStorage implements the BlobStorage interface on Badger. Writes are
// last-writer-wins, matching the artifact store contract.
type BlobStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewBlobStorage creates a Badger-backed blob store
func NewBlobStorage(db *BadgerDB, logger arbor.ILogger) interfaces.BlobStorage {
	return &BlobStorage{
		db:     db,
		logger: logger,
	}
}

// Get retrieves a blob by key
func (s *BlobStorage) Get(ctx context.Context, key string) ([]byte, error) {
	var entry BlobEntry
	err := s.db.Store().Get(key, &entry)
	if err == badgerhold.ErrNotFound {
		return nil, interfaces.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get blob %q: %w", key, err)
	}
	return entry.Data, nil
}

// Put stores or overwrites a blob
func (s *BlobStorage) Put(ctx context.Context, key string, data []byte) error {
	entry := BlobEntry{
		Key:       key,
		Data:      data,
		UpdatedAt: time.Now(),
	}
	if err := s.db.Store().Upsert(key, &entry); err != nil {
		return fmt.Errorf("failed to put blob %q: %w", key, err)
	}

	s.logger.Debug().Str("key", key).Int("bytes", len(data)).Msg("Stored blob")
	return nil
}

// Delete removes a blob
func (s *BlobStorage) Delete(ctx context.Context, key string) error {
	err := s.db.Store().Delete(key, &BlobEntry{})
	if err == badgerhold.ErrNotFound {
		return interfaces.ErrKeyNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete blob %q: %w", key, err)
	}
	return nil
}

// Close closes the underlying database
func (s *BlobStorage) Close() error {
	return s.db.Close()
}
