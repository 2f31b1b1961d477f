package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
)

// TextExtractor serves file sources whose content was already extracted to
// text upstream. It does no format parsing; per-format extraction (PDF, DOCX,
// XLSX) is an external capability behind the same interface. The content type
// comes from the file extension so chunk sizing can select per-type params.
type TextExtractor struct {
	logger arbor.ILogger
}

// NewTextExtractor creates a pass-through extractor for pre-extracted files
func NewTextExtractor(logger arbor.ILogger) interfaces.Extractor {
	return &TextExtractor{logger: logger}
}

// Extract reads a file as text and derives its content type
func (e *TextExtractor) Extract(ctx context.Context, path string) (string, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to read file %s: %w", path, err)
	}

	text := strings.TrimSpace(common.CollapseBlankLines(string(data)))
	contentType := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")

	e.logger.Debug().
		Str("path", path).
		Str("type", contentType).
		Int("bytes", len(data)).
		Msg("Read pre-extracted file")

	return text, contentType, nil
}
