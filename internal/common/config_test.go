package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// minimal credentials so Validate passes
func setTestCredentials(t *testing.T) {
	t.Helper()
	t.Setenv("COLLIGO_CONFLUENCE_USERNAME", "user@example.com")
	t.Setenv("COLLIGO_CONFLUENCE_API_TOKEN", "token")
	t.Setenv("COLLIGO_AZURE_API_KEY", "azure-key")
	t.Setenv("COLLIGO_PINECONE_API_KEY", "pinecone-key")
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "colligo.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	assert.Equal(t, "development", config.Environment)
	assert.Equal(t, 3, config.Confluence.MaxDepth)
	assert.Equal(t, 150, config.Confluence.MaxPages)
	assert.Equal(t, 50, config.Confluence.PageLimit)
	assert.Equal(t, 30*time.Second, config.Confluence.RequestTimeout)
	assert.Equal(t, EmbeddingProviderAzure, config.Embeddings.Provider)
	assert.Equal(t, 1536, config.Embeddings.Dimension)
	assert.Equal(t, 32, config.Embeddings.BatchSize)
	assert.Equal(t, 4, config.Embeddings.MaxAttempts)
	assert.Equal(t, "cosine", config.Pinecone.Metric)
	assert.Equal(t, 32, config.Pinecone.BatchSize)
	assert.False(t, config.Pinecone.UsePrivateHost)
	assert.Equal(t, "badger", config.Storage.Type)
	assert.False(t, config.Scheduler.Enabled)
}

func TestLoadFromFilesMergesAndOverrides(t *testing.T) {
	setTestCredentials(t)

	base := writeConfig(t, `
environment = "production"

[embeddings]
dimension = 768

[embeddings.azure]
endpoint = "https://res.openai.azure.com"
deployment = "embed"

[pinecone]
index_name = "docs"
`)

	config, err := LoadFromFiles(base)
	require.NoError(t, err)

	assert.Equal(t, "production", config.Environment)
	assert.Equal(t, 768, config.Embeddings.Dimension)
	assert.Equal(t, "docs", config.Pinecone.IndexName)
	// Untouched values keep their defaults
	assert.Equal(t, 32, config.Embeddings.BatchSize)
}

func TestLoadFromFilesLaterFileWins(t *testing.T) {
	setTestCredentials(t)

	first := writeConfig(t, `
[embeddings.azure]
endpoint = "https://first.openai.azure.com"
deployment = "embed"

[pinecone]
index_name = "first"
`)
	second := filepath.Join(t.TempDir(), "override.toml")
	require.NoError(t, os.WriteFile(second, []byte(`
[pinecone]
index_name = "second"
`), 0644))

	config, err := LoadFromFiles(first, second)
	require.NoError(t, err)
	assert.Equal(t, "second", config.Pinecone.IndexName)
}

func TestEnvOverridesBeatFiles(t *testing.T) {
	setTestCredentials(t)
	t.Setenv("COLLIGO_EMBEDDING_DIMENSION", "3072")
	t.Setenv("COLLIGO_LOG_LEVEL", "debug")

	path := writeConfig(t, `
[embeddings]
dimension = 768

[embeddings.azure]
endpoint = "https://res.openai.azure.com"
deployment = "embed"

[pinecone]
index_name = "docs"
`)

	config, err := LoadFromFiles(path)
	require.NoError(t, err)
	assert.Equal(t, 3072, config.Embeddings.Dimension)
	assert.Equal(t, "debug", config.Logging.Level)
}

func TestValidateRejectsMissingIndexName(t *testing.T) {
	setTestCredentials(t)

	path := writeConfig(t, `
[embeddings.azure]
endpoint = "https://res.openai.azure.com"
deployment = "embed"
`)

	_, err := LoadFromFiles(path)
	assert.Error(t, err)
}

func TestValidateRejectsMissingAzureCredentials(t *testing.T) {
	t.Setenv("COLLIGO_CONFLUENCE_USERNAME", "user@example.com")
	t.Setenv("COLLIGO_CONFLUENCE_API_TOKEN", "token")
	t.Setenv("COLLIGO_PINECONE_API_KEY", "pinecone-key")

	path := writeConfig(t, `
[embeddings.azure]
endpoint = "https://res.openai.azure.com"
deployment = "embed"

[pinecone]
index_name = "docs"
`)

	_, err := LoadFromFiles(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "azure")
}

func TestValidateGeminiRequiresAPIKey(t *testing.T) {
	config := NewDefaultConfig()
	config.Confluence.Username = "u"
	config.Confluence.APIToken = "t"
	config.Pinecone.APIKey = "p"
	config.Pinecone.IndexName = "docs"
	config.Embeddings.Provider = EmbeddingProviderGemini

	err := config.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gemini")

	config.Embeddings.Gemini.APIKey = "g"
	assert.NoError(t, config.Validate())
}

func TestCoveoEnabled(t *testing.T) {
	config := NewDefaultConfig()
	assert.False(t, config.CoveoEnabled())

	config.Coveo.OrganizationID = "org"
	config.Coveo.PlatformToken = "tok"
	assert.False(t, config.CoveoEnabled(), "user email still missing")

	config.Coveo.UserEmail = "user@example.com"
	assert.True(t, config.CoveoEnabled())
}

func TestApplyFlagOverrides(t *testing.T) {
	config := NewDefaultConfig()
	config.SourcesFile = "from-config.toml"
	config.Pinecone.IndexName = "from-config"

	ApplyFlagOverrides(config, "from-flag.toml", "from-flag")
	assert.Equal(t, "from-flag.toml", config.SourcesFile)
	assert.Equal(t, "from-flag", config.Pinecone.IndexName)

	ApplyFlagOverrides(config, "", "")
	assert.Equal(t, "from-flag.toml", config.SourcesFile, "empty flags leave values alone")
}
