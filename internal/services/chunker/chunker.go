package chunker

import (
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/models"
	"github.com/ternarybob/colligo/internal/services/fingerprint"
)

// Params controls chunk sizing for one content type
type Params struct {
	Size    int // Maximum chunk length in characters
	Overlap int // Trailing context repeated into the next chunk
}

// boundary separators in preference order: paragraph, line, sentence, word.
// A chunk with no separator inside the window is hard-cut.
var separators = []string{"\n\n", "\n", ". ", " "}

// Service splits normalized item text into overlapping windows sized by
// content-type heuristics. Splitting is deterministic: identical text always
// yields identical boundaries and chunk ids.
type Service struct {
	logger arbor.ILogger
}

// NewService creates a chunker
func NewService(logger arbor.ILogger) *Service {
	return &Service{logger: logger}
}

// ParamsFor returns the chunk parameters for a content type. Unknown types
// use the default row.
func ParamsFor(contentType string) Params {
	switch strings.ToLower(contentType) {
	case "tree-item", "confluence", "md", "markdown", "text", "txt":
		return Params{Size: 1200, Overlap: 200}
	case "pdf", "docx", "pptx":
		return Params{Size: 1200, Overlap: 200}
	case "csv", "xlsx", "xls":
		return Params{Size: 1600, Overlap: 200}
	case "json", "xml", "yaml":
		return Params{Size: 1200, Overlap: 150}
	default:
		return Params{Size: 1000, Overlap: 150}
	}
}

// Chunk splits one item into ordered chunks. An empty or whitespace-only item
// yields zero chunks. Chunk ids are sha1(item id) + sequence index, stable
// across reruns so re-upserting an unchanged item overwrites in place.
func (s *Service) Chunk(item *models.ContentItem) []models.Chunk {
	if strings.TrimSpace(item.Text) == "" {
		return nil
	}

	params := ParamsFor(item.ContentType())
	pieces := splitText(item.Text, params.Size, params.Overlap)

	idBase := fingerprint.Hash(item.ID)
	chunks := make([]models.Chunk, 0, len(pieces))

	for i, piece := range pieces {
		metadata := make(map[string]string, len(item.Attributes)+3)
		for k, v := range item.Attributes {
			metadata[k] = v
		}
		metadata["locator"] = item.ID
		metadata["source_kind"] = string(item.SourceKind)
		metadata["seq"] = fmt.Sprintf("%d", i)

		chunks = append(chunks, models.Chunk{
			ID:       fmt.Sprintf("%s_%d", idBase, i),
			Text:     piece,
			Metadata: metadata,
		})
	}

	s.logger.Debug().
		Str("item_id", item.ID).
		Int("chunks", len(chunks)).
		Int("chunk_size", params.Size).
		Msg("Chunked item")

	return chunks
}

// splitText cuts text into windows of at most size characters, preferring to
// cut at a separator boundary near the window end, and repeating overlap
// characters of trailing context at the start of the next window. Size and
// overlap count characters, not bytes, so multi-byte text never splits
// mid-rune.
func splitText(text string, size, overlap int) []string {
	if size <= 0 {
		size = 1000
	}
	if overlap >= size {
		overlap = size / 4
	}

	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}
	}

	var pieces []string
	start := 0

	for start < len(runes) {
		end := start + size
		if end >= len(runes) {
			pieces = append(pieces, string(runes[start:]))
			break
		}

		cut := findBoundary(runes, start, end)
		pieces = append(pieces, string(runes[start:cut]))

		next := cut - overlap
		// The window must always advance past the previous start
		if next <= start {
			next = cut
		}
		start = next
	}

	return pieces
}

// findBoundary returns the cut position for a window [start, end), preferring
// the last occurrence of the highest-priority separator in the second half of
// the window. Falls back to a hard cut at end.
func findBoundary(runes []rune, start, end int) int {
	window := runes[start:end]
	half := len(window) / 2

	for _, sep := range separators {
		sepRunes := []rune(sep)
		idx := lastIndexRunes(window, sepRunes)
		if idx > half {
			return start + idx + len(sepRunes)
		}
	}

	return end
}

// lastIndexRunes is strings.LastIndex over rune slices
func lastIndexRunes(haystack, needle []rune) int {
	for i := len(haystack) - len(needle); i >= 0; i-- {
		j := 0
		for ; j < len(needle); j++ {
			if haystack[i+j] != needle[j] {
				break
			}
		}
		if j == len(needle) {
			return i
		}
	}
	return -1
}
