package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"`  // "development" or "production"
	SourcesFile string           `toml:"sources_file"` // Path to source definitions (TOML/YAML/JSON)
	Confluence  ConfluenceConfig `toml:"confluence"`
	Coveo       CoveoConfig      `toml:"coveo"`
	Embeddings  EmbeddingsConfig `toml:"embeddings"`
	Pinecone    PineconeConfig   `toml:"pinecone"`
	Storage     StorageConfig    `toml:"storage"`
	Logging     LoggingConfig    `toml:"logging"`
	Scheduler   SchedulerConfig  `toml:"scheduler"`
}

// ConfluenceConfig contains content-tree API access settings
type ConfluenceConfig struct {
	Username       string        `toml:"username"`        // Basic auth username (usually an email)
	APIToken       string        `toml:"api_token"`       // Long-lived API token
	RequestTimeout time.Duration `toml:"request_timeout"` // Per-call HTTP timeout
	RateLimit      float64       `toml:"rate_limit"`      // Requests per second against the API
	PageLimit      int           `toml:"page_limit"`      // Child-listing page size
	MaxDepth       int           `toml:"max_depth"`       // Default crawl depth bound
	MaxPages       int           `toml:"max_pages"`       // Default crawl count bound
}

// CoveoConfig contains tag discovery service settings. All three identity
// fields must be present for tag discovery to be enabled.
type CoveoConfig struct {
	OrganizationID string `toml:"organization_id"`
	PlatformToken  string `toml:"platform_token"`
	UserEmail      string `toml:"user_email"`
	TokenValidFor  int    `toml:"token_valid_for"` // Search token validity in milliseconds
}

// EmbeddingProviderName selects the embedding backend
type EmbeddingProviderName string

const (
	EmbeddingProviderAzure  EmbeddingProviderName = "azure"
	EmbeddingProviderGemini EmbeddingProviderName = "gemini"
)

// EmbeddingsConfig contains embedding service settings
type EmbeddingsConfig struct {
	Provider    EmbeddingProviderName `toml:"provider" validate:"oneof=azure gemini"`
	Dimension   int                   `toml:"dimension" validate:"gt=0"`
	BatchSize   int                   `toml:"batch_size" validate:"gt=0"`
	MaxAttempts int                   `toml:"max_attempts" validate:"gt=0"`
	Azure       AzureConfig           `toml:"azure"`
	Gemini      GeminiConfig          `toml:"gemini"`
}

// AzureConfig contains Azure OpenAI deployment settings. Auth is either a
// static APIKey or an AAD client-credentials exchange (TenantID + ClientID +
// ClientSecret).
type AzureConfig struct {
	Endpoint     string `toml:"endpoint"`    // e.g. https://resource.openai.azure.com
	Deployment   string `toml:"deployment"`  // Embedding deployment name
	APIVersion   string `toml:"api_version"` // e.g. 2023-05-15
	APIKey       string `toml:"api_key"`
	TenantID     string `toml:"tenant_id"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// GeminiConfig contains Google Gemini embedding settings
type GeminiConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"` // e.g. gemini-embedding-001
}

// PineconeConfig contains vector index service settings
type PineconeConfig struct {
	APIKey          string `toml:"api_key"`
	ControlPlaneURL string `toml:"control_plane_url"` // Describe/create endpoint
	IndexName       string `toml:"index_name" validate:"required"`
	Metric          string `toml:"metric" validate:"oneof=cosine dotproduct euclidean"`
	Cloud           string `toml:"cloud"`
	Region          string `toml:"region"`
	BatchSize       int    `toml:"batch_size" validate:"gt=0"`
	// UsePrivateHost derives the data-plane host by splicing ".private" into
	// the public host. The splice is observed behavior, not a documented
	// contract; leave off unless verified against the target deployment.
	UsePrivateHost bool `toml:"use_private_host"`
}

// StorageConfig selects and configures the job artifact blob store
type StorageConfig struct {
	Type         string       `toml:"type" validate:"oneof=badger files"`
	OutputPrefix string       `toml:"output_prefix"` // Key prefix for job artifacts
	Badger       BadgerConfig `toml:"badger"`
	Files        FilesConfig  `toml:"files"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// FilesConfig represents filesystem blob store configuration
type FilesConfig struct {
	Path string `toml:"path"` // Root directory for artifact files
}

// LoggingConfig controls arbor logger output
type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs
}

// SchedulerConfig controls periodic sync runs
type SchedulerConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"` // Cron schedule (with seconds field)
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		SourcesFile: "sources.toml",
		Confluence: ConfluenceConfig{
			RequestTimeout: 30 * time.Second,
			RateLimit:      5,
			PageLimit:      50,
			MaxDepth:       3,
			MaxPages:       150,
		},
		Coveo: CoveoConfig{
			TokenValidFor: 1800000, // 30 minutes
		},
		Embeddings: EmbeddingsConfig{
			Provider:    EmbeddingProviderAzure,
			Dimension:   1536,
			BatchSize:   32,
			MaxAttempts: 4,
			Azure: AzureConfig{
				APIVersion: "2023-05-15",
				Deployment: "text-embedding-ada-002",
			},
			Gemini: GeminiConfig{
				Model: "gemini-embedding-001",
			},
		},
		Pinecone: PineconeConfig{
			ControlPlaneURL: "https://api.pinecone.io",
			Metric:          "cosine",
			Cloud:           "aws",
			Region:          "us-east-1",
			BatchSize:       32,
		},
		Storage: StorageConfig{
			Type:         "badger",
			OutputPrefix: "colligo",
			Badger: BadgerConfig{
				Path: "./data",
			},
			Files: FilesConfig{
				Path: "./data/artifacts",
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05",
		},
		Scheduler: SchedulerConfig{
			Enabled:  false,
			Schedule: "0 0 */6 * * *", // Every 6 hours
		},
	}
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env. Later files override earlier ones.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks structural constraints and credential completeness. A
// misconfiguration is fatal before any network call is made.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Confluence.Username == "" || c.Confluence.APIToken == "" {
		return fmt.Errorf("invalid configuration: confluence username and api_token are required")
	}

	switch c.Embeddings.Provider {
	case EmbeddingProviderAzure:
		az := c.Embeddings.Azure
		if az.Endpoint == "" || az.Deployment == "" {
			return fmt.Errorf("invalid configuration: azure endpoint and deployment are required")
		}
		if az.APIKey == "" && (az.TenantID == "" || az.ClientID == "" || az.ClientSecret == "") {
			return fmt.Errorf("invalid configuration: azure requires api_key or tenant_id/client_id/client_secret")
		}
	case EmbeddingProviderGemini:
		if c.Embeddings.Gemini.APIKey == "" {
			return fmt.Errorf("invalid configuration: gemini api_key is required")
		}
	}

	if c.Pinecone.APIKey == "" {
		return fmt.Errorf("invalid configuration: pinecone api_key is required")
	}

	return nil
}

// CoveoEnabled reports whether tag discovery is configured
func (c *Config) CoveoEnabled() bool {
	return c.Coveo.OrganizationID != "" && c.Coveo.PlatformToken != "" && c.Coveo.UserEmail != ""
}

// applyEnvOverrides applies environment variable overrides to config.
// Credentials are the primary use; they should not live in config files.
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("COLLIGO_ENV"); env != "" {
		config.Environment = env
	}

	if v := os.Getenv("COLLIGO_SOURCES_FILE"); v != "" {
		config.SourcesFile = v
	}

	if v := os.Getenv("COLLIGO_CONFLUENCE_USERNAME"); v != "" {
		config.Confluence.Username = v
	}
	if v := os.Getenv("COLLIGO_CONFLUENCE_API_TOKEN"); v != "" {
		config.Confluence.APIToken = v
	}

	if v := os.Getenv("COLLIGO_COVEO_ORG_ID"); v != "" {
		config.Coveo.OrganizationID = v
	}
	if v := os.Getenv("COLLIGO_COVEO_PLATFORM_TOKEN"); v != "" {
		config.Coveo.PlatformToken = v
	}
	if v := os.Getenv("COLLIGO_COVEO_USER_EMAIL"); v != "" {
		config.Coveo.UserEmail = v
	}

	if v := os.Getenv("COLLIGO_AZURE_API_KEY"); v != "" {
		config.Embeddings.Azure.APIKey = v
	}
	if v := os.Getenv("COLLIGO_AZURE_CLIENT_ID"); v != "" {
		config.Embeddings.Azure.ClientID = v
	}
	if v := os.Getenv("COLLIGO_AZURE_CLIENT_SECRET"); v != "" {
		config.Embeddings.Azure.ClientSecret = v
	}
	if v := os.Getenv("COLLIGO_GEMINI_API_KEY"); v != "" {
		config.Embeddings.Gemini.APIKey = v
	}
	if v := os.Getenv("COLLIGO_PINECONE_API_KEY"); v != "" {
		config.Pinecone.APIKey = v
	}

	if v := os.Getenv("COLLIGO_BADGER_PATH"); v != "" {
		config.Storage.Badger.Path = v
	}
	if v := os.Getenv("COLLIGO_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("COLLIGO_EMBEDDING_DIMENSION"); v != "" {
		if d, err := strconv.Atoi(v); err == nil && d > 0 {
			config.Embeddings.Dimension = d
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, sourcesFile, indexName string) {
	if sourcesFile != "" {
		config.SourcesFile = sourcesFile
	}
	if indexName != "" {
		config.Pinecone.IndexName = indexName
	}
}
