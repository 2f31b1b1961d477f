package coveo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/common"
)

const defaultPlatformURL = "https://platform.cloud.coveo.com/rest/search/v2"

// Client queries the tag discovery service: a token exchange against the
// platform endpoint followed by label-scoped searches against the
// organization endpoint.
type Client struct {
	httpClient     *http.Client
	organizationID string
	platformToken  string
	platformURL    string
	searchURL      string
	tokenValidFor  int
	logger         arbor.ILogger
}

// NewClient creates a tag discovery client from configuration
func NewClient(cfg *common.CoveoConfig, logger arbor.ILogger) *Client {
	validFor := cfg.TokenValidFor
	if validFor <= 0 {
		validFor = 1800000
	}

	return &Client{
		httpClient:     &http.Client{Timeout: 30 * time.Second},
		organizationID: cfg.OrganizationID,
		platformToken:  strings.TrimSpace(cfg.PlatformToken),
		platformURL:    defaultPlatformURL,
		searchURL:      fmt.Sprintf("https://%s.org.coveo.com/rest/search/v2", cfg.OrganizationID),
		tokenValidFor:  validFor,
		logger:         logger,
	}
}

// GetToken exchanges the platform token for a short-lived search token scoped
// to the given user identity
func (c *Client) GetToken(ctx context.Context, userEmail string) (string, error) {
	payload := map[string]interface{}{
		"organizationId": c.organizationID,
		"validFor":       c.tokenValidFor,
		"userIds": []map[string]string{
			{"name": userEmail, "provider": "Email Security Provider"},
		},
	}

	body, err := c.post(ctx, c.platformURL+"/token", c.platformToken, payload)
	if err != nil {
		return "", fmt.Errorf("token exchange failed: %w", err)
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}
	if result.Token == "" {
		return "", fmt.Errorf("token exchange returned empty token")
	}

	return result.Token, nil
}

// SearchLinks returns the content-tree URLs matching a label. Results whose
// URI does not point into a wiki space are dropped.
func (c *Client) SearchLinks(ctx context.Context, label, token string) ([]string, error) {
	query := url.Values{}
	query.Set("organizationId", c.organizationID)

	payload := map[string]string{
		"q": fmt.Sprintf("@conflabels=%s", label),
	}

	body, err := c.post(ctx, c.searchURL+"?"+query.Encode(), token, payload)
	if err != nil {
		return nil, fmt.Errorf("search failed for label %q: %w", label, err)
	}

	var result struct {
		Results []struct {
			ClickURI string `json:"clickUri"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	var links []string
	for _, r := range result.Results {
		if r.ClickURI != "" && strings.Contains(r.ClickURI, "atlassian.net/wiki") {
			links = append(links, r.ClickURI)
		}
	}

	c.logger.Debug().
		Str("label", label).
		Int("results", len(result.Results)).
		Int("links", len(links)).
		Msg("Tag search completed")

	return links, nil
}

func (c *Client) post(ctx context.Context, rawURL, bearer string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return body, nil
}
