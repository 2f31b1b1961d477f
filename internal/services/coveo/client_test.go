package coveo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/colligo/internal/common"
)

func newTestCoveoClient(serverURL string) *Client {
	c := NewClient(&common.CoveoConfig{
		OrganizationID: "myorg",
		PlatformToken:  "platform-token",
		UserEmail:      "user@example.com",
	}, common.GetLogger())
	c.platformURL = serverURL
	c.searchURL = serverURL
	return c
}

func TestGetToken(t *testing.T) {
	var gotPayload map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/token", r.URL.Path)
		require.Equal(t, "Bearer platform-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		json.NewEncoder(w).Encode(map[string]string{"token": "search-token"})
	}))
	t.Cleanup(server.Close)

	client := newTestCoveoClient(server.URL)
	token, err := client.GetToken(context.Background(), "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, "search-token", token)

	assert.Equal(t, "myorg", gotPayload["organizationId"])
	userIDs, ok := gotPayload["userIds"].([]interface{})
	require.True(t, ok)
	require.Len(t, userIDs, 1)
	identity := userIDs[0].(map[string]interface{})
	assert.Equal(t, "user@example.com", identity["name"])
	assert.Equal(t, "Email Security Provider", identity["provider"])
}

func TestGetTokenEmptyToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"token": ""})
	}))
	t.Cleanup(server.Close)

	client := newTestCoveoClient(server.URL)
	_, err := client.GetToken(context.Background(), "user@example.com")
	assert.Error(t, err)
}

func TestSearchLinksFiltersNonWikiResults(t *testing.T) {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer search-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotQuery))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []map[string]string{
				{"clickUri": "https://example.atlassian.net/wiki/spaces/ENG/pages/1/A"},
				{"clickUri": "https://example.com/blog/post"},
				{"clickUri": ""},
				{"clickUri": "https://example.atlassian.net/wiki/spaces/ENG/pages/2/B"},
			},
		})
	}))
	t.Cleanup(server.Close)

	client := newTestCoveoClient(server.URL)
	links, err := client.SearchLinks(context.Background(), "runbooks", "search-token")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://example.atlassian.net/wiki/spaces/ENG/pages/1/A",
		"https://example.atlassian.net/wiki/spaces/ENG/pages/2/B",
	}, links)
	assert.Equal(t, "@conflabels=runbooks", gotQuery["q"])
}

func TestSearchLinksErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	t.Cleanup(server.Close)

	client := newTestCoveoClient(server.URL)
	_, err := client.SearchLinks(context.Background(), "runbooks", "bad-token")
	assert.Error(t, err)
}
