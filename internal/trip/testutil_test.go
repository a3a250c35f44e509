package trip

import (
	"context"
	"time"

	"github.com/jmallory/tripflow/internal/llm"
	"github.com/jmallory/tripflow/pkg/flow"
	"github.com/jmallory/tripflow/pkg/flow/retry"
)

// stubClient replays canned completion contents in order.
type stubClient struct {
	contents []string
	errs     []error
	prompts  []string
}

func (c *stubClient) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if len(req.Messages) > 0 {
		c.prompts = append(c.prompts, req.Messages[len(req.Messages)-1].Content)
	}
	i := len(c.prompts) - 1
	if i < len(c.errs) && c.errs[i] != nil {
		return nil, c.errs[i]
	}
	content := ""
	if i < len(c.contents) {
		content = c.contents[i]
	}
	return &llm.CompletionResponse{Content: content}, nil
}

// stubAgent replays canned agent answers in order and records the tasks.
type stubAgent struct {
	outputs []string
	errs    []error
	tasks   []string
}

func (a *stubAgent) Run(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	a.tasks = append(a.tasks, userMessage)
	i := len(a.tasks) - 1
	if i < len(a.errs) && a.errs[i] != nil {
		return "", a.errs[i]
	}
	if i < len(a.outputs) {
		return a.outputs[i], nil
	}
	return "", nil
}

// stubEmailer records send attempts.
type stubEmailer struct {
	result string
	err    error
	calls  []map[string]any
}

func (e *stubEmailer) Call(ctx context.Context, args map[string]any) (string, error) {
	e.calls = append(e.calls, args)
	return e.result, e.err
}

// noSleepRetry is the default retry policy with sleeping disabled.
func noSleepRetry() retry.Config {
	cfg := retry.Default
	cfg.Sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return cfg
}

// newTestSteps builds Steps with a pinned clock and no retry sleeps.
func newTestSteps(client llm.Client, agent Agent, opts ...StepsOption) *Steps {
	base := []StepsOption{
		WithRetryConfig(noSleepRetry()),
		WithClock(func() time.Time {
			t, _ := time.Parse("2006-01-02", "2026-08-28")
			return t
		}),
	}
	return NewSteps(client, agent, append(base, opts...)...)
}

// stepCtx creates an engine context for direct step invocation.
func stepCtx() flow.Context {
	return flow.NewContext(context.Background())
}

// validParseJSON is a model extraction output for a DEL -> GOI trip.
const validParseJSON = `{
	"origin": "DEL",
	"destination": "GOI",
	"departure_date": "2026-09-01",
	"return_date": "2026-09-05",
	"user_email": "traveler@example.com",
	"budget": 30000,
	"preferences": ["beach"],
	"missing_info": []
}`
