package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jmallory/tripflow/pkg/flow/retry"
)

// DefaultGeminiModel is used when no model is configured on the client or
// the request.
const DefaultGeminiModel = "gemini-2.0-flash"

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

// GeminiOption configures a GeminiClient.
type GeminiOption func(*GeminiClient)

// WithModel sets the default model.
func WithModel(model string) GeminiOption {
	return func(c *GeminiClient) {
		c.model = model
	}
}

// WithBaseURL overrides the API base URL. Tests point this at a local server.
func WithBaseURL(baseURL string) GeminiOption {
	return func(c *GeminiClient) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) GeminiOption {
	return func(c *GeminiClient) {
		c.httpClient = client
	}
}

// WithGeminiLogger sets the logger for request diagnostics.
func WithGeminiLogger(logger *slog.Logger) GeminiOption {
	return func(c *GeminiClient) {
		c.logger = logger
	}
}

// GeminiClient implements Client against the Gemini generateContent API.
//
// Authentication uses the x-goog-api-key header. Rate-limit responses
// (429) and transient upstream failures (502, 503, 504) are wrapped with
// retry.RateLimited so callers can retry them with backoff.
type GeminiClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Compile-time interface check.
var _ Client = (*GeminiClient)(nil)

// NewGeminiClient creates a Gemini client with the given API key.
func NewGeminiClient(apiKey string, opts ...GeminiOption) *GeminiClient {
	c := &GeminiClient{
		apiKey:  apiKey,
		model:   DefaultGeminiModel,
		baseURL: defaultGeminiBaseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Gemini wire types. The API uses role "model" for assistant turns and
// carries tool traffic as functionCall / functionResponse parts.
type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text             string                  `json:"text,omitempty"`
	FunctionCall     *geminiFunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *geminiFunctionResponse `json:"functionResponse,omitempty"`
}

type geminiFunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

type geminiFunctionResponse struct {
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

type geminiTool struct {
	FunctionDeclarations []geminiFunctionDeclaration `json:"functionDeclarations,omitempty"`
}

type geminiFunctionDeclaration struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	Tools             []geminiTool            `json:"tools,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
}

type geminiUsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

type geminiResponse struct {
	Candidates    []geminiCandidate    `json:"candidates"`
	UsageMetadata *geminiUsageMetadata `json:"usageMetadata,omitempty"`
}

type geminiErrorResp struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Complete implements Client.
func (c *GeminiClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	body := geminiRequest{
		Tools: convertTools(req.Tools),
	}
	body.SystemInstruction, body.Contents = convertMessages(req.Messages)

	if req.Temperature > 0 || req.MaxTokens > 0 {
		body.GenerationConfig = &geminiGenerationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxTokens,
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal gemini request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build gemini request: %w", err)
	}
	httpReq.Header.Set("x-goog-api-key", c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError(resp.StatusCode, resp.Body)
	}

	var geminiResp geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&geminiResp); err != nil {
		return nil, fmt.Errorf("decode gemini response: %w", err)
	}

	if len(geminiResp.Candidates) == 0 {
		return nil, fmt.Errorf("gemini returned no candidates")
	}

	candidate := geminiResp.Candidates[0]
	result := &CompletionResponse{
		FinishReason: candidate.FinishReason,
	}

	for _, part := range candidate.Content.Parts {
		if part.Text != "" {
			result.Content += part.Text
		}
		if part.FunctionCall != nil {
			result.ToolCalls = append(result.ToolCalls, ToolCall{
				ID:        "call-" + uuid.NewString(),
				Name:      part.FunctionCall.Name,
				Arguments: part.FunctionCall.Args,
			})
		}
	}

	if geminiResp.UsageMetadata != nil {
		result.Usage = TokenUsage{
			PromptTokens:     geminiResp.UsageMetadata.PromptTokenCount,
			CompletionTokens: geminiResp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      geminiResp.UsageMetadata.TotalTokenCount,
		}
	}

	if c.logger != nil {
		c.logger.Debug("gemini completion",
			slog.String("model", model),
			slog.Int("tool_calls", len(result.ToolCalls)),
			slog.Int("total_tokens", result.Usage.TotalTokens),
		)
	}

	return result, nil
}

// statusError maps a non-200 response to an error, marking retryable
// statuses as rate-limit-class.
func (c *GeminiClient) statusError(status int, body io.Reader) error {
	msg := readErrorMessage(body)
	err := fmt.Errorf("gemini api status %d: %s", status, msg)

	switch status {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return retry.RateLimited(err)
	}
	return err
}

// readErrorMessage extracts the error message from a Gemini error body,
// falling back to the raw body.
func readErrorMessage(body io.Reader) string {
	data, _ := io.ReadAll(body)
	var errResp geminiErrorResp
	if err := json.Unmarshal(data, &errResp); err == nil && errResp.Error.Message != "" {
		return fmt.Sprintf("%s (status: %s)", errResp.Error.Message, errResp.Error.Status)
	}
	return string(data)
}

// convertMessages maps provider-neutral messages to Gemini contents.
// The system message becomes the systemInstruction.
func convertMessages(msgs []Message) (*geminiContent, []geminiContent) {
	var systemInstruction *geminiContent
	var contents []geminiContent

	for _, m := range msgs {
		if m.Role == RoleSystem {
			systemInstruction = &geminiContent{
				Parts: []geminiPart{{Text: m.Content}},
			}
			continue
		}

		role := string(m.Role)
		if m.Role == RoleAssistant {
			role = "model"
		}
		if m.Role == RoleTool {
			role = "user"
		}

		content := geminiContent{Role: role}

		if m.Role == RoleTool {
			content.Parts = append(content.Parts, geminiPart{
				FunctionResponse: &geminiFunctionResponse{
					Name:     m.Name,
					Response: map[string]any{"result": m.Content},
				},
			})
		} else if m.Content != "" {
			content.Parts = append(content.Parts, geminiPart{Text: m.Content})
		}

		for _, tc := range m.ToolCalls {
			content.Parts = append(content.Parts, geminiPart{
				FunctionCall: &geminiFunctionCall{
					Name: tc.Name,
					Args: tc.Arguments,
				},
			})
		}

		if len(content.Parts) > 0 {
			contents = append(contents, content)
		}
	}

	return systemInstruction, contents
}

// convertTools maps tool schemas to Gemini function declarations.
func convertTools(tools []Tool) []geminiTool {
	if len(tools) == 0 {
		return nil
	}
	declarations := make([]geminiFunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		declarations = append(declarations, geminiFunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		})
	}
	return []geminiTool{{FunctionDeclarations: declarations}}
}
