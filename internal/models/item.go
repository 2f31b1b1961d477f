package models

// SourceKind identifies where a content item came from
type SourceKind string

const (
	SourceKindTreeItem     SourceKind = "tree-item"
	SourceKindExternalFile SourceKind = "external-file"
)

// ContentItem is one unit of normalized source content produced by the fetcher.
// Items live for a single run; only their fingerprint is persisted.
type ContentItem struct {
	ID         string            `json:"id"`
	SourceKind SourceKind        `json:"source_kind"`
	Text       string            `json:"text"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// ContentType returns the item's content type attribute, defaulting to the
// source kind when not set
func (i *ContentItem) ContentType() string {
	if t, ok := i.Attributes["type"]; ok && t != "" {
		return t
	}
	return string(i.SourceKind)
}
