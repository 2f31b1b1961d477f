package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/colligo/internal/models"
)

func writeSources(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadSourcesTOML(t *testing.T) {
	path := writeSources(t, "sources.toml", `
[[sources]]
name = "eng-wiki"
type = "tree"
url = "https://example.atlassian.net/wiki/pages/100"
max_depth = 2
max_pages = 50

[[sources]]
name = "runbooks"
type = "tag"
labels = ["runbook", "oncall"]

[[sources]]
name = "exports"
type = "file"
paths = ["/data/exports/inventory.csv", "/data/exports/notes.txt"]
`)

	sources, err := LoadSources(path)
	require.NoError(t, err)
	require.Len(t, sources, 3)

	assert.Equal(t, "eng-wiki", sources[0].Name)
	assert.Equal(t, models.SourceTypeTree, sources[0].Type)
	assert.Equal(t, 2, sources[0].MaxDepth)
	assert.Equal(t, []string{"runbook", "oncall"}, sources[1].Labels)
	assert.Equal(t, models.SourceTypeFile, sources[2].Type)
	assert.Len(t, sources[2].Paths, 2)
}

func TestLoadSourcesYAML(t *testing.T) {
	path := writeSources(t, "sources.yaml", `
sources:
  - name: direct-pages
    type: direct
    urls:
      - https://example.atlassian.net/wiki/pages/1
      - https://example.atlassian.net/wiki/pages/2
`)

	sources, err := LoadSources(path)
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, models.SourceTypeDirect, sources[0].Type)
	assert.Len(t, sources[0].URLs, 2)
}

func TestLoadSourcesJSON(t *testing.T) {
	path := writeSources(t, "sources.json", `{
  "sources": [
    {"name": "one", "type": "direct", "url": "https://example.atlassian.net/wiki/pages/1"}
  ]
}`)

	sources, err := LoadSources(path)
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, []string{"https://example.atlassian.net/wiki/pages/1"}, sources[0].AllURLs())
}

func TestLoadSourcesUnsupportedExtension(t *testing.T) {
	path := writeSources(t, "sources.ini", "[sources]")
	_, err := LoadSources(path)
	assert.ErrorContains(t, err, "unsupported sources file extension")
}

func TestLoadSourcesEmptyFile(t *testing.T) {
	path := writeSources(t, "sources.toml", "")
	_, err := LoadSources(path)
	assert.ErrorContains(t, err, "defines no sources")
}

func TestLoadSourcesRejectsInvalidVariant(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			"tree without url",
			"[[sources]]\nname = \"x\"\ntype = \"tree\"\n",
		},
		{
			"tag without labels",
			"[[sources]]\nname = \"x\"\ntype = \"tag\"\n",
		},
		{
			"direct without urls",
			"[[sources]]\nname = \"x\"\ntype = \"direct\"\n",
		},
		{
			"file without paths",
			"[[sources]]\nname = \"x\"\ntype = \"file\"\n",
		},
		{
			"unknown type",
			"[[sources]]\nname = \"x\"\ntype = \"rss\"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeSources(t, "sources.toml", tt.content)
			_, err := LoadSources(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadSourcesRejectsDuplicateNames(t *testing.T) {
	path := writeSources(t, "sources.toml", `
[[sources]]
name = "same"
type = "direct"
url = "https://example.atlassian.net/wiki/pages/1"

[[sources]]
name = "same"
type = "direct"
url = "https://example.atlassian.net/wiki/pages/2"
`)

	_, err := LoadSources(path)
	assert.ErrorContains(t, err, "duplicate source name")
}
