package chunker

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/models"
	"github.com/ternarybob/colligo/internal/services/fingerprint"
)

func TestParamsFor(t *testing.T) {
	tests := []struct {
		contentType string
		wantSize    int
		wantOverlap int
	}{
		{"tree-item", 1200, 200},
		{"markdown", 1200, 200},
		{"pdf", 1200, 200},
		{"csv", 1600, 200},
		{"xlsx", 1600, 200},
		{"json", 1200, 150},
		{"xml", 1200, 150},
		{"something-unknown", 1000, 150},
		{"", 1000, 150},
		{"CSV", 1600, 200}, // case-insensitive
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			p := ParamsFor(tt.contentType)
			assert.Equal(t, tt.wantSize, p.Size)
			assert.Equal(t, tt.wantOverlap, p.Overlap)
		})
	}
}

func TestChunkEmptyItem(t *testing.T) {
	svc := NewService(common.GetLogger())

	assert.Nil(t, svc.Chunk(&models.ContentItem{ID: "x", Text: ""}))
	assert.Nil(t, svc.Chunk(&models.ContentItem{ID: "x", Text: "   \n\t  "}))
}

func TestChunkShortItemSingleChunk(t *testing.T) {
	svc := NewService(common.GetLogger())

	item := &models.ContentItem{
		ID:         "https://example.atlassian.net/wiki/pages/1",
		SourceKind: models.SourceKindTreeItem,
		Text:       "A short page.",
	}

	chunks := svc.Chunk(item)
	require.Len(t, chunks, 1)
	assert.Equal(t, "A short page.", chunks[0].Text)
	assert.Equal(t, fingerprint.Hash(item.ID)+"_0", chunks[0].ID)
	assert.Equal(t, item.ID, chunks[0].Metadata["locator"])
	assert.Equal(t, "tree-item", chunks[0].Metadata["source_kind"])
	assert.Equal(t, "0", chunks[0].Metadata["seq"])
}

func TestChunkIsDeterministic(t *testing.T) {
	svc := NewService(common.GetLogger())

	var sb strings.Builder
	for i := 0; i < 200; i++ {
		fmt.Fprintf(&sb, "Paragraph %d with some filler text to push past the window size.\n\n", i)
	}
	item := &models.ContentItem{ID: "page-1", SourceKind: models.SourceKindTreeItem, Text: sb.String()}

	first := svc.Chunk(item)
	second := svc.Chunk(item)
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, first[i].Text, second[i].Text)
	}
}

func TestChunkLongItemProducesSequencedIDs(t *testing.T) {
	svc := NewService(common.GetLogger())

	item := &models.ContentItem{
		ID:         "page-2",
		SourceKind: models.SourceKindTreeItem,
		Text:       strings.Repeat("Some sentence about the system. ", 300),
	}

	chunks := svc.Chunk(item)
	require.Greater(t, len(chunks), 1)

	idBase := fingerprint.Hash(item.ID)
	for i, c := range chunks {
		assert.Equal(t, fmt.Sprintf("%s_%d", idBase, i), c.ID)
		assert.LessOrEqual(t, len(c.Text), 1200)
	}
}

func TestChunkCarriesItemAttributes(t *testing.T) {
	svc := NewService(common.GetLogger())

	item := &models.ContentItem{
		ID:         "page-3",
		SourceKind: models.SourceKindTreeItem,
		Text:       "content",
		Attributes: map[string]string{"source": "eng-wiki", "type": "markdown"},
	}

	chunks := svc.Chunk(item)
	require.Len(t, chunks, 1)
	assert.Equal(t, "eng-wiki", chunks[0].Metadata["source"])
	assert.Equal(t, "markdown", chunks[0].Metadata["type"])
}

func TestSplitTextPrefersParagraphBoundary(t *testing.T) {
	// Two paragraphs; the break sits past the window midpoint so the cut
	// lands there instead of a hard cut
	text := strings.Repeat("a", 70) + "\n\n" + strings.Repeat("b", 70)
	pieces := splitText(text, 100, 10)

	require.GreaterOrEqual(t, len(pieces), 2)
	assert.Equal(t, strings.Repeat("a", 70)+"\n\n", pieces[0])
}

func TestSplitTextHardCutWithoutSeparator(t *testing.T) {
	text := strings.Repeat("x", 250)
	pieces := splitText(text, 100, 10)

	require.GreaterOrEqual(t, len(pieces), 3)
	assert.Equal(t, strings.Repeat("x", 100), pieces[0])
}

func TestSplitTextAlwaysAdvances(t *testing.T) {
	// Pathological overlap must not stall the window
	text := strings.Repeat("word ", 500)
	pieces := splitText(text, 50, 49)

	assert.NotEmpty(t, pieces)
	total := 0
	for _, p := range pieces {
		total += len(p)
	}
	assert.GreaterOrEqual(t, total, len(text))
}

func TestSplitTextMultibyteRuneCounts(t *testing.T) {
	text := strings.Repeat("日", 1000)

	// 1000 characters fit one window even though the bytes do not
	pieces := splitText(text, 1000, 150)
	require.Len(t, pieces, 1)
	assert.True(t, utf8.ValidString(pieces[0]))

	pieces = splitText(text, 400, 100)
	require.Greater(t, len(pieces), 1)
	for i, p := range pieces {
		assert.True(t, utf8.ValidString(p), "piece %d is invalid UTF-8", i)
		assert.LessOrEqual(t, utf8.RuneCountInString(p), 400)
	}
}

func TestChunkMultibyteTextStaysValid(t *testing.T) {
	svc := NewService(common.GetLogger())

	var sb strings.Builder
	for i := 0; i < 80; i++ {
		sb.WriteString(strings.Repeat("システムの同期処理を説明する。", 5))
		sb.WriteString("\n\n")
	}
	item := &models.ContentItem{ID: "jp-page", SourceKind: models.SourceKindTreeItem, Text: sb.String()}

	chunks := svc.Chunk(item)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.True(t, utf8.ValidString(c.Text), "chunk %s is invalid UTF-8", c.ID)
		assert.LessOrEqual(t, utf8.RuneCountInString(c.Text), 1200)
	}
}

func TestSplitTextCoversFullText(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 100)
	pieces := splitText(text, 200, 40)

	// Last piece must end where the text ends
	last := pieces[len(pieces)-1]
	assert.True(t, strings.HasSuffix(text, last))
}
