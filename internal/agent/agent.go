// Package agent runs a tool-calling conversation loop against an LLM client.
//
// The executor sends the conversation to the model, executes any tool calls
// the model requests, appends the results, and repeats until the model
// answers in plain text or the turn limit is reached. Tool failures are fed
// back to the model as "Error: ..." results rather than aborting the loop,
// so the model can recover or report the failure in its answer.
package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmallory/tripflow/internal/llm"
	"github.com/jmallory/tripflow/pkg/flow/registry"
	"github.com/jmallory/tripflow/pkg/flow/retry"
)

// Tool is a capability the model can invoke during a run.
type Tool interface {
	// Name is the identifier the model uses to call the tool.
	Name() string

	// Description tells the model what the tool does.
	Description() string

	// Parameters is the JSON Schema of the tool's arguments.
	Parameters() map[string]any

	// Call executes the tool. The returned string is fed back to the model.
	Call(ctx context.Context, args map[string]any) (string, error)
}

// DefaultMaxTurns bounds the model/tool round trips in a single run.
const DefaultMaxTurns = 8

// Option configures an Executor.
type Option func(*Executor)

// WithMaxTurns overrides the turn limit.
func WithMaxTurns(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.maxTurns = n
		}
	}
}

// WithLogger sets the executor's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// WithRetry sets the retry configuration for model calls.
func WithRetry(cfg retry.Config) Option {
	return func(e *Executor) {
		e.retryCfg = cfg
	}
}

// Executor drives the tool-calling loop.
type Executor struct {
	client   llm.Client
	tools    *registry.Registry[string, Tool]
	schemas  []llm.Tool
	maxTurns int
	retryCfg retry.Config
	logger   *slog.Logger
}

// NewExecutor creates an executor over the given client and tools.
func NewExecutor(client llm.Client, tools []Tool, opts ...Option) *Executor {
	e := &Executor{
		client:   client,
		tools:    registry.New[string, Tool](),
		maxTurns: DefaultMaxTurns,
		retryCfg: retry.Default,
		logger:   slog.Default(),
	}
	for _, t := range tools {
		e.tools.Register(t.Name(), t)
		e.schemas = append(e.schemas, llm.Tool{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes the loop with a system prompt and a user message, returning
// the model's final text answer.
//
// Model calls go through the retry layer, so rate-limit failures are retried
// with backoff before surfacing.
func (e *Executor) Run(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: userMessage},
	}

	for turn := 0; turn < e.maxTurns; turn++ {
		resp, err := retry.Do(ctx, e.retryCfg, func(ctx context.Context) (*llm.CompletionResponse, error) {
			return e.client.Complete(ctx, llm.CompletionRequest{
				Messages: messages,
				Tools:    e.schemas,
			})
		})
		if err != nil {
			return "", fmt.Errorf("model call failed: %w", err)
		}

		if len(resp.ToolCalls) == 0 {
			return resp.Content, nil
		}

		messages = append(messages, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		for _, call := range resp.ToolCalls {
			result := e.invokeTool(ctx, call)
			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				Content:    result,
				ToolCallID: call.ID,
				Name:       call.Name,
			})
		}
	}

	return "", fmt.Errorf("agent exceeded %d turns without a final answer", e.maxTurns)
}

// invokeTool runs one tool call, converting failures into error text for
// the model.
func (e *Executor) invokeTool(ctx context.Context, call llm.ToolCall) string {
	tool, ok := e.tools.Get(call.Name)
	if !ok {
		e.logger.Warn("model requested unknown tool", slog.String("tool", call.Name))
		return fmt.Sprintf("Error: unknown tool %q", call.Name)
	}

	e.logger.Debug("invoking tool", slog.String("tool", call.Name))

	result, err := tool.Call(ctx, call.Arguments)
	if err != nil {
		e.logger.Warn("tool call failed",
			slog.String("tool", call.Name),
			slog.String("error", err.Error()),
		)
		return fmt.Sprintf("Error: %v", err)
	}
	return result
}
