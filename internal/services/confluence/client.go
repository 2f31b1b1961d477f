package confluence

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/colligo/internal/common"
)

// Client is a minimal content-tree REST client using transport-level basic
// auth. One client may serve multiple base locations; the rate limiter is
// shared across all of them.
type Client struct {
	httpClient *http.Client
	username   string
	apiToken   string
	pageLimit  int
	limiter    *rate.Limiter
	logger     arbor.ILogger
}

// ChildPage is one entry from a child-listing call
type ChildPage struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ChildListing is one page of a paginated child-listing response
type ChildListing struct {
	Results []ChildPage
	Size    int
	HasNext bool
}

// Page is a single content item fetched by id
type Page struct {
	ID    string
	Title string
	Body  string // Storage-format HTML
}

// NewClient creates a content-tree client from configuration
func NewClient(cfg *common.ConfluenceConfig, logger arbor.ILogger) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	rps := cfg.RateLimit
	if rps <= 0 {
		rps = 5
	}

	pageLimit := cfg.PageLimit
	if pageLimit <= 0 {
		pageLimit = 50
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		username:   cfg.Username,
		apiToken:   cfg.APIToken,
		pageLimit:  pageLimit,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     logger,
	}
}

// PageLimit returns the configured child-listing page size
func (c *Client) PageLimit() int {
	return c.pageLimit
}

// ListChildren fetches one page of direct children of a page id
func (c *Client) ListChildren(ctx context.Context, baseURL, pageID string, start int) (*ChildListing, error) {
	endpoint := fmt.Sprintf("%s/rest/api/content/%s/child/page", baseURL, pageID)

	params := url.Values{}
	params.Set("limit", strconv.Itoa(c.pageLimit))
	params.Set("start", strconv.Itoa(start))

	body, err := c.get(ctx, endpoint+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var payload struct {
		Results []ChildPage `json:"results"`
		Size    int         `json:"size"`
		Links   struct {
			Next string `json:"next"`
		} `json:"_links"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse child listing: %w", err)
	}

	return &ChildListing{
		Results: payload.Results,
		Size:    payload.Size,
		HasNext: payload.Links.Next != "",
	}, nil
}

// GetPage fetches a page by id with its title and storage-format body
func (c *Client) GetPage(ctx context.Context, baseURL, pageID string) (*Page, error) {
	endpoint := fmt.Sprintf("%s/rest/api/content/%s?expand=body.storage,ancestors", baseURL, pageID)

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var payload struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Body  struct {
			Storage struct {
				Value string `json:"value"`
			} `json:"storage"`
		} `json:"body"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	return &Page{
		ID:    payload.ID,
		Title: payload.Title,
		Body:  payload.Body.Storage.Value,
	}, nil
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.SetBasicAuth(c.username, c.apiToken)
	req.Header.Set("Accept", "application/json")

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
		c.logger.Debug().
			Int("status", resp.StatusCode).
			Str("url", rawURL).
			Msg("Non-OK response from content tree")
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, rawURL)
	}

	return body, nil
}
