package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmallory/tripflow/pkg/flow/retry"
)

// newSearchTestTool returns a WebSearchTool against a local server.
func newSearchTestTool(t *testing.T, handler http.HandlerFunc) *WebSearchTool {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewWebSearchTool("serp-key", WithSerpAPIBaseURL(server.URL))
}

// TestWebSearchTool_AnswerBox prefers the direct answer.
func TestWebSearchTool_AnswerBox(t *testing.T) {
	var gotQuery, gotKey, gotEngine string
	tool := newSearchTestTool(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = q.Get("q")
		gotKey = q.Get("api_key")
		gotEngine = q.Get("engine")

		json.NewEncoder(w).Encode(map[string]any{
			"answer_box": map[string]any{"answer": "Baga Beach"},
		})
	})

	result, err := tool.Call(context.Background(), map[string]any{
		"query": "best beach in Goa",
	})

	require.NoError(t, err)
	assert.Equal(t, "Baga Beach", result)
	assert.Equal(t, "best beach in Goa", gotQuery)
	assert.Equal(t, "serp-key", gotKey)
	assert.Equal(t, "google", gotEngine)
}

// TestWebSearchTool_AnswerBoxSnippet falls back to the snippet.
func TestWebSearchTool_AnswerBoxSnippet(t *testing.T) {
	tool := newSearchTestTool(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"answer_box": map[string]any{"snippet": "Goa has many beaches."},
		})
	})

	result, err := tool.Call(context.Background(), map[string]any{"query": "goa"})

	require.NoError(t, err)
	assert.Equal(t, "Goa has many beaches.", result)
}

// TestWebSearchTool_OrganicResults lists the top results, capped at five.
func TestWebSearchTool_OrganicResults(t *testing.T) {
	tool := newSearchTestTool(t, func(w http.ResponseWriter, r *http.Request) {
		results := make([]map[string]any, 0, 7)
		for i := 0; i < 7; i++ {
			results = append(results, map[string]any{
				"title":   "Top things to do",
				"snippet": "Visit the beaches and forts.",
			})
		}
		json.NewEncoder(w).Encode(map[string]any{"organic_results": results})
	})

	result, err := tool.Call(context.Background(), map[string]any{"query": "goa activities"})

	require.NoError(t, err)
	assert.Contains(t, result, "- Top things to do: Visit the beaches and forts.")
	assert.Equal(t, 5, strings.Count(result, "- Top things to do"))
}

// TestWebSearchTool_NoResults reports the empty case as text.
func TestWebSearchTool_NoResults(t *testing.T) {
	tool := newSearchTestTool(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{})
	})

	result, err := tool.Call(context.Background(), map[string]any{"query": "xyzzy"})

	require.NoError(t, err)
	assert.Equal(t, "No results found for 'xyzzy'.", result)
}

// TestWebSearchTool_APIError surfaces SerpAPI's error field.
func TestWebSearchTool_APIError(t *testing.T) {
	tool := newSearchTestTool(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"error": "Invalid API key"})
	})

	_, err := tool.Call(context.Background(), map[string]any{"query": "goa"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid API key")
}

// TestWebSearchTool_RateLimited marks 429 responses as rate-limit-class.
func TestWebSearchTool_RateLimited(t *testing.T) {
	tool := newSearchTestTool(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := tool.Call(context.Background(), map[string]any{"query": "goa"})

	require.Error(t, err)
	assert.True(t, retry.IsRateLimited(err))
}

// TestWebSearchTool_MissingQuery rejects calls with no query.
func TestWebSearchTool_MissingQuery(t *testing.T) {
	tool := NewWebSearchTool("serp-key")

	_, err := tool.Call(context.Background(), map[string]any{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "query is required")
}
