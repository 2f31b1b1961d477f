package pinecone

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

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

// Service manages the vector index lifecycle over the service's REST API:
// idempotent create-or-reuse, data-plane endpoint resolution, and batched
// upserts.
type Service struct {
	httpClient      *http.Client
	apiKey          string
	controlPlaneURL string
	cloud           string
	region          string
	batchSize       int
	usePrivateHost  bool
	logger          arbor.ILogger
}

// indexDescription is the control-plane describe response subset we need
type indexDescription struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
	Metric    string `json:"metric"`
	Host      string `json:"host"`
}

// NewService creates a vector index manager from configuration
func NewService(cfg *common.PineconeConfig, logger arbor.ILogger) interfaces.VectorIndex {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 32
	}

	return &Service{
		httpClient:      &http.Client{Timeout: 45 * time.Second},
		apiKey:          cfg.APIKey,
		controlPlaneURL: strings.TrimRight(cfg.ControlPlaneURL, "/"),
		cloud:           cfg.Cloud,
		region:          cfg.Region,
		batchSize:       batchSize,
		usePrivateHost:  cfg.UsePrivateHost,
		logger:          logger,
	}
}

// EnsureIndex creates the index if it does not exist. "Already exists" from a
// concurrent creator and "not found" on the first describe are expected
// transitional states and are absorbed.
func (s *Service) EnsureIndex(ctx context.Context, name string, dimension int, metric string) error {
	desc, err := s.describeIndex(ctx, name)
	if err == nil {
		s.logger.Debug().
			Str("index", desc.Name).
			Int("dimension", desc.Dimension).
			Msg("Reusing existing index")
		return nil
	}

	payload := map[string]interface{}{
		"name":      name,
		"dimension": dimension,
		"metric":    metric,
		"spec": map[string]interface{}{
			"serverless": map[string]string{
				"cloud":  s.cloud,
				"region": s.region,
			},
		},
	}

	status, _, err := s.call(ctx, http.MethodPost, s.controlPlaneURL+"/indexes", payload)
	if err != nil && status != http.StatusConflict {
		return fmt.Errorf("failed to create index %q: %w", name, err)
	}
	if status == http.StatusConflict {
		// Lost a create race; the index exists, which is all we need
		s.logger.Debug().Str("index", name).Msg("Index already exists")
	}

	// Confirm the index is describable before declaring success
	if _, err := s.describeIndex(ctx, name); err != nil {
		return fmt.Errorf("index %q not describable after create: %w", name, err)
	}

	s.logger.Info().
		Str("index", name).
		Int("dimension", dimension).
		Str("metric", metric).
		Msg("Index ensured")

	return nil
}

// ResolveEndpoint returns the data-plane host for the named index. With
// use_private_host enabled the private form is derived by inserting the
// literal "private" label after the host's second segment, matching observed
// hosts of the form <index>-<project>.svc.<region>.<domain>. The splice is
// not a documented contract; verify it against the target deployment before
// enabling.
func (s *Service) ResolveEndpoint(ctx context.Context, name string) (string, error) {
	desc, err := s.describeIndex(ctx, name)
	if err != nil {
		return "", fmt.Errorf("failed to resolve endpoint for %q: %w", name, err)
	}
	if desc.Host == "" {
		return "", fmt.Errorf("index %q has no host", name)
	}

	if !s.usePrivateHost {
		return desc.Host, nil
	}

	parts := strings.Split(desc.Host, ".")
	if len(parts) < 3 {
		return "", fmt.Errorf("host %q too short for private derivation", desc.Host)
	}

	private := strings.Join(parts[:2], ".") + ".private." + strings.Join(parts[2:], ".")
	s.logger.Debug().
		Str("public_host", desc.Host).
		Str("private_host", private).
		Msg("Derived private data-plane host")

	return private, nil
}

// Upsert writes records in fixed-size batches. Upsert is idempotent per
// record id. Any error is fatal for the upsert phase; the count of records
// confirmed written before the failure is returned.
func (s *Service) Upsert(ctx context.Context, name string, records []models.VectorRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	host, err := s.ResolveEndpoint(ctx, name)
	if err != nil {
		return 0, err
	}

	endpoint := host
	if !strings.Contains(endpoint, "://") {
		endpoint = "https://" + endpoint
	}
	endpoint += "/vectors/upsert"
	written := 0

	for start := 0; start < len(records); start += s.batchSize {
		end := start + s.batchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		payload := map[string]interface{}{"vectors": batch}
		if _, _, err := s.call(ctx, http.MethodPost, endpoint, payload); err != nil {
			return written, fmt.Errorf("upsert batch starting at %d failed: %w", start, err)
		}
		written += len(batch)

		s.logger.Debug().
			Int("written", written).
			Int("total", len(records)).
			Msg("Upserted batch")
	}

	return written, nil
}

func (s *Service) describeIndex(ctx context.Context, name string) (*indexDescription, error) {
	status, body, err := s.call(ctx, http.MethodGet, s.controlPlaneURL+"/indexes/"+name, nil)
	if err != nil {
		if status == http.StatusNotFound {
			return nil, fmt.Errorf("index %q not found", name)
		}
		return nil, err
	}

	var desc indexDescription
	if err := json.Unmarshal(body, &desc); err != nil {
		return nil, fmt.Errorf("failed to parse index description: %w", err)
	}
	return &desc, nil
}

// call issues one JSON request and returns status, body, and an error for
// non-2xx responses
func (s *Service) call(ctx context.Context, method, rawURL string, payload interface{}) (int, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Api-Key", s.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, body, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	return resp.StatusCode, body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
