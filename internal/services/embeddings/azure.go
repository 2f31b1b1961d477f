package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
)

// AzureProvider calls an Azure OpenAI embedding deployment. Auth is either a
// static api-key header or a bearer token from an AAD client-credentials
// exchange; the token source caches and refreshes the short-lived token.
type AzureProvider struct {
	httpClient  *http.Client
	endpoint    string
	deployment  string
	apiVersion  string
	apiKey      string
	tokenSource oauth2.TokenSource
	dimension   int
	logger      arbor.ILogger
}

// NewAzureProvider creates an Azure OpenAI embedding provider
func NewAzureProvider(cfg *common.EmbeddingsConfig, logger arbor.ILogger) (interfaces.EmbeddingProvider, error) {
	az := cfg.Azure
	if az.Endpoint == "" || az.Deployment == "" {
		return nil, fmt.Errorf("azure endpoint and deployment are required")
	}

	p := &AzureProvider{
		httpClient: &http.Client{Timeout: 45 * time.Second},
		endpoint:   strings.TrimRight(az.Endpoint, "/"),
		deployment: az.Deployment,
		apiVersion: az.APIVersion,
		apiKey:     az.APIKey,
		dimension:  cfg.Dimension,
		logger:     logger,
	}

	if p.apiKey == "" {
		if az.TenantID == "" || az.ClientID == "" || az.ClientSecret == "" {
			return nil, fmt.Errorf("azure requires api_key or tenant_id/client_id/client_secret")
		}
		conf := &clientcredentials.Config{
			ClientID:     az.ClientID,
			ClientSecret: az.ClientSecret,
			TokenURL:     fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", az.TenantID),
			Scopes:       []string{"https://cognitiveservices.azure.com/.default"},
		}
		p.tokenSource = conf.TokenSource(context.Background())
	}

	return p, nil
}

// Embed returns one vector per input text, in input order
func (p *AzureProvider) Embed(ctx context.Context, batch []string) ([][]float32, error) {
	if len(batch) == 0 {
		return nil, nil
	}

	endpoint := fmt.Sprintf("%s/openai/deployments/%s/embeddings?api-version=%s",
		p.endpoint, p.deployment, p.apiVersion)

	payload, err := json.Marshal(map[string]interface{}{"input": batch})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if p.apiKey != "" {
		req.Header.Set("api-key", p.apiKey)
	} else {
		token, err := p.tokenSource.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to obtain AAD token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedding response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding service returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var result struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse embedding response: %w", err)
	}
	if len(result.Data) != len(batch) {
		return nil, fmt.Errorf("embedding service returned %d vectors for %d inputs", len(result.Data), len(batch))
	}

	vectors := make([][]float32, len(batch))
	for _, d := range result.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("embedding service returned out-of-range index %d", d.Index)
		}
		vectors[d.Index] = d.Embedding
	}

	return vectors, nil
}

// Dimension returns the deployment's fixed vector dimensionality
func (p *AzureProvider) Dimension() int {
	return p.dimension
}

// ModelName identifies the deployment
func (p *AzureProvider) ModelName() string {
	return p.deployment
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
