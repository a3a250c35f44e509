package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jmallory/tripflow/pkg/flow/retry"
)

// DefaultSerpAPIBaseURL is the SerpAPI endpoint.
const DefaultSerpAPIBaseURL = "https://serpapi.com"

// WebSearchTool answers general queries via SerpAPI Google results. The
// planner uses it for activities, restaurants, and local information.
type WebSearchTool struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// WebSearchOption configures a WebSearchTool.
type WebSearchOption func(*WebSearchTool)

// WithSerpAPIBaseURL overrides the API base URL. Tests point this at a
// local server.
func WithSerpAPIBaseURL(baseURL string) WebSearchOption {
	return func(t *WebSearchTool) {
		t.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithSerpAPIHTTPClient overrides the HTTP client.
func WithSerpAPIHTTPClient(client *http.Client) WebSearchOption {
	return func(t *WebSearchTool) {
		t.httpClient = client
	}
}

// NewWebSearchTool creates the web search tool.
func NewWebSearchTool(apiKey string, opts ...WebSearchOption) *WebSearchTool {
	t := &WebSearchTool{
		apiKey:     apiKey,
		baseURL:    DefaultSerpAPIBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *WebSearchTool) Name() string {
	return "web_search"
}

func (t *WebSearchTool) Description() string {
	return "A general-purpose web search tool. Use it to find information about activities, " +
		"local culture, restaurants, or any other real-time information."
}

func (t *WebSearchTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The search query.",
			},
		},
		"required": []any{"query"},
	}
}

type serpResponse struct {
	AnswerBox struct {
		Answer  string `json:"answer"`
		Snippet string `json:"snippet"`
	} `json:"answer_box"`
	OrganicResults []struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
	} `json:"organic_results"`
	Error string `json:"error"`
}

// Call runs the search and returns the answer box or the top organic
// snippets as text.
func (t *WebSearchTool) Call(ctx context.Context, args map[string]any) (string, error) {
	query := stringArg(args, "query")
	if query == "" {
		return "", fmt.Errorf("query is required")
	}

	endpoint := t.baseURL + "/search.json?" + url.Values{
		"q":       {query},
		"engine":  {"google"},
		"api_key": {t.apiKey},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build search request: %w", err)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("web search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		err := fmt.Errorf("web search status %d: %s", resp.StatusCode, string(body))
		if resp.StatusCode == http.StatusTooManyRequests {
			return "", retry.RateLimited(err)
		}
		return "", err
	}

	var result serpResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode search response: %w", err)
	}
	if result.Error != "" {
		return "", fmt.Errorf("web search failed: %s", result.Error)
	}

	if result.AnswerBox.Answer != "" {
		return result.AnswerBox.Answer, nil
	}
	if result.AnswerBox.Snippet != "" {
		return result.AnswerBox.Snippet, nil
	}

	if len(result.OrganicResults) == 0 {
		return fmt.Sprintf("No results found for '%s'.", query), nil
	}

	limit := len(result.OrganicResults)
	if limit > 5 {
		limit = 5
	}
	var lines []string
	for _, r := range result.OrganicResults[:limit] {
		lines = append(lines, fmt.Sprintf("- %s: %s", r.Title, r.Snippet))
	}
	return strings.Join(lines, "\n"), nil
}
