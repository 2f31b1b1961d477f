package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

// Artifact document names within a run prefix
const (
	changedDoc      = "changed.json"
	fingerprintsDoc = "fingerprints.json"
	stateDoc        = "state.json"
	reportDoc       = "report.json"
)

// Artifacts persists run outputs to the blob store under
// <prefix>/<source>/jobs/<timestamp>/ (immutable history) and
// <prefix>/<source>/latest/ (overwritten pointer).
type Artifacts struct {
	store  interfaces.BlobStorage
	prefix string
	logger arbor.ILogger
}

// NewArtifacts creates an artifact writer over a blob store
func NewArtifacts(store interfaces.BlobStorage, prefix string, logger arbor.ILogger) *Artifacts {
	return &Artifacts{
		store:  store,
		prefix: prefix,
		logger: logger,
	}
}

// LoadPreviousFingerprints reads the latest fingerprint map for a source. A
// missing document means a first run: everything counts as changed.
func (a *Artifacts) LoadPreviousFingerprints(ctx context.Context, sourceName string) (models.FingerprintMap, error) {
	key := keyJoin(a.prefix, sourceName, "latest", fingerprintsDoc)

	data, err := a.store.Get(ctx, key)
	if errors.Is(err, interfaces.ErrKeyNotFound) {
		a.logger.Info().Str("source", sourceName).Msg("No previous fingerprints, treating all content as changed")
		return models.FingerprintMap{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load fingerprints for %q: %w", sourceName, err)
	}

	var fp models.FingerprintMap
	if err := json.Unmarshal(data, &fp); err != nil {
		return nil, fmt.Errorf("failed to parse fingerprints for %q: %w", sourceName, err)
	}
	return fp, nil
}

// WriteRun persists the run's artifacts. The immutable per-run copies are
// written before the latest pointer so the latest documents only advance once
// the changed set is durably recorded.
func (a *Artifacts) WriteRun(ctx context.Context, sourceName, timestamp string, changed map[string]string, fingerprints models.FingerprintMap, state *models.SyncState, rep *models.Report) error {
	jobPrefix := keyJoin(a.prefix, sourceName, "jobs", timestamp)
	latestPrefix := keyJoin(a.prefix, sourceName, "latest")

	docs := []struct {
		name    string
		payload interface{}
	}{
		{changedDoc, changed},
		{fingerprintsDoc, fingerprints},
		{stateDoc, state},
		{reportDoc, rep},
	}

	for _, doc := range docs {
		if err := a.putJSON(ctx, keyJoin(jobPrefix, doc.name), doc.payload); err != nil {
			return err
		}
	}

	// Job copies are durable; now move the latest pointer
	for _, doc := range docs {
		if doc.name == stateDoc {
			continue // state is per-run only
		}
		if err := a.putJSON(ctx, keyJoin(latestPrefix, doc.name), doc.payload); err != nil {
			return err
		}
	}

	a.logger.Info().
		Str("source", sourceName).
		Str("job_prefix", jobPrefix).
		Int("changed", len(changed)).
		Msg("Run artifacts written")

	return nil
}

func (a *Artifacts) putJSON(ctx context.Context, key string, payload interface{}) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := a.store.Put(ctx, key, data); err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	return nil
}

// keyJoin joins key parts with slashes, trimming stray separators
func keyJoin(parts ...string) string {
	cleaned := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(p, "/")
		if p != "" {
			cleaned = append(cleaned, p)
		}
	}
	return strings.Join(cleaned, "/")
}
