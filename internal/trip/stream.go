package trip

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jmallory/tripflow/pkg/flow"
	"github.com/jmallory/tripflow/pkg/flow/journal"
	"github.com/jmallory/tripflow/pkg/flow/observability"
)

// MessageType classifies a streamed message.
type MessageType string

const (
	MessageLog    MessageType = "log"
	MessageResult MessageType = "result"
	MessageError  MessageType = "error"
)

// StreamMessage is one externally visible progress event. The transport
// layer frames these as server-sent events in emission order.
type StreamMessage struct {
	Type    MessageType `json:"type"`
	Content string      `json:"content"`
}

// projector turns node completions into stream messages. One instance per
// run; it tracks how much of the log it has already surfaced so each search
// step yields at most one message.
type projector struct {
	emit     func(StreamMessage)
	seenLogs int
}

// observe implements the engine's observer hook. Invoked synchronously
// after each node, so emission order matches execution order.
func (p *projector) observe(ctx flow.Context, nodeID string, s State) {
	switch nodeID {
	case NodeParse, NodeFindFlights, NodeFindHotels, NodeFindActivities:
		// A step that failed returns no log delta, so nothing is emitted
		// for it; the compile message carries the failure.
		if len(s.Log) > p.seenLogs {
			p.emit(StreamMessage{Type: MessageLog, Content: s.Log[len(s.Log)-1]})
		}
		p.seenLogs = len(s.Log)

	case NodeCompilePlan:
		if s.FinalPlan == "" {
			return
		}
		msgType := MessageResult
		if containsError(s.FinalPlan) {
			msgType = MessageError
		}
		p.emit(StreamMessage{Type: msgType, Content: s.FinalPlan})

	case NodeSendEmail:
		// Recorded only in the internal log, never streamed.
		p.seenLogs = len(s.Log)
	}
}

// Planner runs the planning graph for incoming prompts and streams progress.
type Planner struct {
	graph    *flow.CompiledGraph[State]
	logger   *slog.Logger
	newRunID func() string

	journalStore journal.Store
	metrics      observability.MetricsRecorder
	spans        observability.SpanManager
}

// PlannerOption configures a Planner.
type PlannerOption func(*Planner)

// WithPlannerLogger sets the logger.
func WithPlannerLogger(logger *slog.Logger) PlannerOption {
	return func(p *Planner) {
		p.logger = logger
	}
}

// WithRunIDFunc overrides run ID generation. Tests use deterministic IDs.
func WithRunIDFunc(fn func() string) PlannerOption {
	return func(p *Planner) {
		p.newRunID = fn
	}
}

// WithJournalStore enables per-run state journaling.
func WithJournalStore(store journal.Store) PlannerOption {
	return func(p *Planner) {
		p.journalStore = store
	}
}

// WithPlannerMetrics enables run and node metrics.
func WithPlannerMetrics(m observability.MetricsRecorder) PlannerOption {
	return func(p *Planner) {
		p.metrics = m
	}
}

// WithPlannerTracing enables trace spans for runs and nodes.
func WithPlannerTracing(sm observability.SpanManager) PlannerOption {
	return func(p *Planner) {
		p.spans = sm
	}
}

// NewPlanner creates a planner over a compiled graph.
func NewPlanner(graph *flow.CompiledGraph[State], opts ...PlannerOption) *Planner {
	p := &Planner{
		graph:  graph,
		logger: slog.Default(),
		newRunID: func() string {
			return "trip-" + uuid.NewString()
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PlanTrip runs the workflow for a prompt and returns a channel of stream
// messages, emitted incrementally as nodes complete. The channel is closed
// when the run finishes; the final message is always a result or an error.
//
// Steps are contracted never to let failures escape as errors, so a run
// error here means an engine-level failure (panic, cancellation). It is
// converted into a single terminal error message as a backstop.
func (p *Planner) PlanTrip(ctx context.Context, prompt string) <-chan StreamMessage {
	ch := make(chan StreamMessage)
	runID := p.newRunID()

	go func() {
		defer close(ch)

		emit := func(msg StreamMessage) {
			select {
			case ch <- msg:
			case <-ctx.Done():
			}
		}

		proj := &projector{emit: emit}

		fc := flow.NewContext(ctx,
			flow.WithLogger(p.logger),
			flow.WithContextRunID(runID),
		)

		opts := []flow.RunOption[State]{
			flow.WithObserver[State](proj.observe),
		}
		if p.journalStore != nil {
			opts = append(opts, flow.WithJournal[State](p.journalStore))
		}
		if p.metrics != nil {
			opts = append(opts, flow.WithMetrics[State](p.metrics))
		}
		if p.spans != nil {
			opts = append(opts, flow.WithTracing[State](p.spans))
		}

		if _, err := p.graph.Run(fc, NewState(prompt), opts...); err != nil {
			p.logger.Error("planning run failed",
				slog.String("run_id", runID),
				slog.String("error", err.Error()),
			)
			emit(StreamMessage{
				Type:    MessageError,
				Content: fmt.Sprintf("A critical error occurred: %v", err),
			})
		}
	}()

	return ch
}
