package models

// Chunk is a bounded slice of one content item's text, the unit submitted for
// embedding. Chunk IDs are a deterministic function of the owning item ID and
// the chunk sequence index, so re-upserting an unchanged item overwrites
// rather than duplicates.
type Chunk struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// VectorRecord is the (id, vector, metadata) triple submitted to the vector
// index. ID equals the owning chunk's ID.
type VectorRecord struct {
	ID       string            `json:"id"`
	Values   []float32         `json:"values"`
	Metadata map[string]string `json:"metadata,omitempty"`
}
