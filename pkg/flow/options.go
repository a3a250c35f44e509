package flow

import (
	"github.com/jmallory/tripflow/pkg/flow/journal"
	"github.com/jmallory/tripflow/pkg/flow/observability"
)

// runConfig holds configuration for graph execution.
type runConfig[S any] struct {
	maxIterations int
	observer      Observer[S]

	metrics        observability.MetricsRecorder
	spans          observability.SpanManager
	tracingEnabled bool

	journalStore journal.Store
	journalFatal bool
	runID        string
	sequence     int
}

// defaultRunConfig returns the default execution configuration.
func defaultRunConfig[S any]() runConfig[S] {
	return runConfig[S]{
		maxIterations: 1000,
		metrics:       observability.NoopMetrics{},
		spans:         observability.NoopSpanManager{},
	}
}

// RunOption configures execution behavior.
type RunOption[S any] func(*runConfig[S])

// WithMaxIterations sets the maximum number of node executions.
// Default: 1000
//
// This prevents infinite loops from hanging forever. If a graph
// exceeds this limit, Run returns ErrMaxIterations.
func WithMaxIterations[S any](n int) RunOption[S] {
	return func(c *runConfig[S]) {
		if n > 0 {
			c.maxIterations = n
		}
	}
}

// WithObserver registers a callback invoked after each successful node
// execution, with the node ID and the post-node state. Observers run
// synchronously, so calls arrive in execution order and the caller can
// project incremental progress while the graph is still running.
func WithObserver[S any](fn Observer[S]) RunOption[S] {
	return func(c *runConfig[S]) {
		c.observer = fn
	}
}

// WithMetrics sets the metrics recorder for the run.
// Default: observability.NoopMetrics.
func WithMetrics[S any](m observability.MetricsRecorder) RunOption[S] {
	return func(c *runConfig[S]) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithTracing enables span creation for the run and each node.
// Default: disabled.
func WithTracing[S any](sm observability.SpanManager) RunOption[S] {
	return func(c *runConfig[S]) {
		if sm != nil {
			c.spans = sm
			c.tracingEnabled = true
		}
	}
}

// WithJournal enables run journaling: after each node completes, the state
// snapshot is written to the store. Requires WithRunID.
//
// Journal failures are logged and ignored unless WithJournalFailureFatal
// is set.
func WithJournal[S any](store journal.Store) RunOption[S] {
	return func(c *runConfig[S]) {
		c.journalStore = store
	}
}

// WithJournalFailureFatal makes journal write failures abort the run.
// Default: failures are logged as warnings and execution continues.
func WithJournalFailureFatal[S any](fatal bool) RunOption[S] {
	return func(c *runConfig[S]) {
		c.journalFatal = fatal
	}
}

// WithRunID sets the run identifier used for journaling.
// If unset, the context's run ID is used.
func WithRunID[S any](id string) RunOption[S] {
	return func(c *runConfig[S]) {
		c.runID = id
	}
}
