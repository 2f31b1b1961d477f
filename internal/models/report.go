package models

// SourceReport aggregates counts for a single content item
type SourceReport struct {
	SourceKind  SourceKind `json:"source_kind"`
	ContentType string     `json:"type,omitempty"`
	Words       int        `json:"words"`
	Chunks      int        `json:"chunks"`
}

// ReportTotals aggregates counts across all sources in a run
type ReportTotals struct {
	Sources        int `json:"sources"`
	TotalWords     int `json:"total_words"`
	TotalChunks    int `json:"total_chunks"`
	VectorsWritten int `json:"vectors_written"`
}

// Report is the per-run aggregation of item and chunk counts. Pure data; the
// builder never fails and absent fields default to zero.
type Report struct {
	IndexName   string                  `json:"index_name"`
	GeneratedAt string                  `json:"generated_at"`
	Totals      ReportTotals            `json:"totals"`
	Sources     map[string]SourceReport `json:"sources"`
	Failures    map[string][]Failure    `json:"failures,omitempty"`
}
