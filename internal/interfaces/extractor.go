package interfaces

import "context"

// Extractor converts a local file into normalized text. Per-format parsing
// (PDF/DOCX/XLSX) is an external capability consumed at this boundary; the
// pipeline only sees the extracted text and a content type hint.
type Extractor interface {
	Extract(ctx context.Context, path string) (text string, contentType string, err error)
}
