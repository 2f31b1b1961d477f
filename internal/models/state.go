package models

// FingerprintMap maps content item ID to the hex digest of the item's text as
// of the most recent successful run. A missing map is treated as empty, which
// makes every fetched item count as changed.
type FingerprintMap map[string]string

// SyncState is the per-run summary artifact. Written once per run, never
// mutated after write.
type SyncState struct {
	RunID          string   `json:"run_id"`
	RootReferences []string `json:"root_references"`
	DiscoveredTags []string `json:"discovered_tags"`
	ItemCount      int      `json:"item_count"`
	ChangedCount   int      `json:"changed_count"`
	Timestamp      string   `json:"timestamp"`
}
