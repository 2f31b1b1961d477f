package fingerprint

import (
	"crypto/sha1"
	"encoding/hex"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/models"
)

// Differ selects changed content by comparing per-item content hashes
// against the previous run's fingerprint map.
type Differ struct {
	logger arbor.ILogger
}

// NewDiffer creates a content differ
func NewDiffer(logger arbor.ILogger) *Differ {
	return &Differ{logger: logger}
}

// Hash returns the hex digest of an item's text
func Hash(text string) string {
	sum := sha1.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Diff computes the changed subset of fetched content and the fingerprint map
// for this run. An item is changed when its id is absent from previous or its
// hash differs. The new map covers every fetched item regardless of change
// status; it is a pure function of fetched.
//
// Items present in previous but absent from fetched are not treated as
// deletions. Deletion detection is out of scope; their vectors remain in the
// index and their fingerprints simply drop out of the map.
func (d *Differ) Diff(fetched map[string]string, previous models.FingerprintMap) (changed map[string]string, newMap models.FingerprintMap) {
	changed = make(map[string]string)
	newMap = make(models.FingerprintMap, len(fetched))

	for id, text := range fetched {
		h := Hash(text)
		newMap[id] = h
		if previous[id] != h {
			changed[id] = text
		}
	}

	d.logger.Info().
		Int("fetched", len(fetched)).
		Int("changed", len(changed)).
		Msg("Computed content diff")

	return changed, newMap
}
