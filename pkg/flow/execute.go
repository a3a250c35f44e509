package flow

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/jmallory/tripflow/pkg/flow/journal"
	"github.com/jmallory/tripflow/pkg/flow/observability"
)

// Run executes the graph with the given initial state.
// Returns the final state and any error encountered.
//
// On success, returns the state after the last node executed before END.
// On error, returns the state at the point of failure (useful for debugging).
//
// Execution flow:
//  1. Start at the entry point node
//  2. Check for cancellation
//  3. Execute the current node
//  4. Notify the observer, journal the state
//  5. Determine the next node (via simple or conditional edge)
//  6. Repeat until END is reached or an error occurs
//
// Execution is strictly sequential: one node at a time, in edge order.
func (cg *CompiledGraph[S]) Run(ctx Context, state S, opts ...RunOption[S]) (result S, runErr error) {
	if ctx == nil {
		return state, ErrNilContext
	}

	cfg := defaultRunConfig[S]()
	for _, opt := range opts {
		opt(&cfg)
	}

	// Journaling needs a stable run identifier
	if cfg.runID == "" {
		cfg.runID = ctx.RunID()
	}
	if cfg.journalStore != nil && cfg.runID == "" {
		return state, ErrRunIDRequired
	}

	logger := ctx.Logger()
	startTime := time.Now()

	observability.LogRunStart(logger, cfg.runID)

	var execCtx context.Context = ctx
	var runSpan trace.Span
	if cfg.tracingEnabled {
		execCtx, runSpan = cfg.spans.StartRunSpan(ctx, "tripflow", cfg.runID)
		defer func() {
			cfg.spans.EndSpanWithError(runSpan, runErr)
		}()
	}

	var nodeCount int
	result, nodeCount, runErr = cg.execute(execCtx, ctx, state, &cfg)

	duration := time.Since(startTime)
	durationMs := float64(duration.Milliseconds())

	cfg.metrics.RecordGraphRun(ctx, runErr == nil, duration)

	if runErr != nil {
		lastNode := ""
		switch e := runErr.(type) {
		case *NodeError:
			lastNode = e.NodeID
		case *PanicError:
			lastNode = e.NodeID
		case *MaxIterationsError:
			lastNode = e.LastNodeID
		case *CancellationError:
			lastNode = e.NodeID
		}
		observability.LogRunError(logger, cfg.runID, runErr, durationMs, lastNode)
	} else {
		observability.LogRunComplete(logger, cfg.runID, durationMs, nodeCount)
	}

	return result, runErr
}

// execute drives the node loop from the entry point.
// tracingCtx carries span context; fc is the flow Context.
// Returns the final state, node count, and any error.
func (cg *CompiledGraph[S]) execute(tracingCtx context.Context, fc Context, state S, cfg *runConfig[S]) (S, int, error) {
	logger := fc.Logger()
	current := cg.entryPoint
	iterations := 0
	prevNode := ""
	nodeCount := 0

	for current != END {
		iterations++
		if iterations > cfg.maxIterations {
			return state, nodeCount, &MaxIterationsError{
				Max:        cfg.maxIterations,
				LastNodeID: current,
				State:      state,
			}
		}

		// Check for cancellation before executing node
		select {
		case <-fc.Done():
			return state, nodeCount, &CancellationError{
				NodeID:       current,
				State:        state,
				Cause:        fc.Err(),
				WasExecuting: false,
			}
		default:
		}

		observability.LogNodeStart(logger, current)

		nodeTracingCtx := tracingCtx
		var nodeSpan trace.Span
		if cfg.tracingEnabled {
			nodeTracingCtx, nodeSpan = cfg.spans.StartNodeSpan(tracingCtx, current)
		}

		nodeStart := time.Now()

		var nodeErr error
		state, nodeErr = cg.executeNode(fc, current, state)

		nodeDuration := time.Since(nodeStart)
		nodeDurationMs := float64(nodeDuration.Milliseconds())

		cfg.metrics.RecordNodeExecution(nodeTracingCtx, current, nodeDuration, nodeErr)

		if cfg.tracingEnabled {
			cfg.spans.EndSpanWithError(nodeSpan, nodeErr)
		}

		if nodeErr != nil {
			observability.LogNodeError(logger, current, nodeErr)
			return state, nodeCount, nodeErr
		}
		observability.LogNodeComplete(logger, current, nodeDurationMs)
		nodeCount++

		// Observer sees the state exactly as the next node will receive it
		if cfg.observer != nil {
			cfg.observer(fc, current, state)
		}

		next, err := cg.nextNode(fc, state, current)
		if err != nil {
			return state, nodeCount, err
		}

		if cfg.journalStore != nil {
			if err := cg.journalState(fc, cfg, current, prevNode, state, next); err != nil {
				return state, nodeCount, err
			}
		}

		prevNode = current
		current = next
	}

	return state, nodeCount, nil
}

// journalState persists the post-node state snapshot.
// Failures are non-fatal unless configured otherwise.
func (cg *CompiledGraph[S]) journalState(ctx Context, cfg *runConfig[S], nodeID, prevNodeID string, state S, nextNode string) error {
	logger := ctx.Logger()

	stateBytes, err := json.Marshal(state)
	if err != nil {
		if cfg.journalFatal {
			return &JournalError{NodeID: nodeID, Op: "serialize", Err: err}
		}
		observability.LogJournalError(logger, nodeID, "serialize", err)
		return nil
	}

	cfg.sequence++
	entry := journal.NewEntry(cfg.runID, nodeID, cfg.sequence, stateBytes, nextNode).
		WithPrevNode(prevNodeID)

	data, err := entry.Marshal()
	if err != nil {
		if cfg.journalFatal {
			return &JournalError{NodeID: nodeID, Op: "marshal", Err: err}
		}
		observability.LogJournalError(logger, nodeID, "marshal", err)
		return nil
	}

	if err := cfg.journalStore.Save(cfg.runID, nodeID, data); err != nil {
		if cfg.journalFatal {
			return &JournalError{NodeID: nodeID, Op: "save", Err: err}
		}
		observability.LogJournalError(logger, nodeID, "save", err)
		return nil
	}

	sizeBytes := len(data)
	observability.LogJournal(logger, nodeID, sizeBytes)
	cfg.metrics.RecordJournalWrite(ctx, nodeID, int64(sizeBytes))

	return nil
}

// executeNode executes a single node with panic recovery.
// Returns the new state and any error (including wrapped panics).
func (cg *CompiledGraph[S]) executeNode(ctx Context, nodeID string, state S) (result S, err error) {
	fn, exists := cg.getNode(nodeID)
	if !exists {
		// This shouldn't happen if compilation was successful
		return state, &NodeError{
			NodeID: nodeID,
			Op:     "lookup",
			Err:    fmt.Errorf("node not found: %s", nodeID),
		}
	}

	// Create node-specific context with enriched logger
	nodeCtx := ctx
	if ec, ok := ctx.(*executionContext); ok {
		nodeCtx = ec.withNodeID(nodeID)
	}

	// Panic recovery
	defer func() {
		if r := recover(); r != nil {
			result = state
			err = &PanicError{
				NodeID: nodeID,
				Value:  r,
				Stack:  string(debug.Stack()),
			}
		}
	}()

	result, err = fn(nodeCtx, state)
	if err != nil {
		return result, &NodeError{
			NodeID: nodeID,
			Op:     "execute",
			Err:    err,
		}
	}

	return result, nil
}

// nextNode determines the next node to execute.
// Checks conditional edges first, then simple edges.
func (cg *CompiledGraph[S]) nextNode(ctx Context, state S, current string) (string, error) {
	// Check for conditional edge first
	if router, exists := cg.getRouter(current); exists {
		routerCtx := ctx
		if ec, ok := ctx.(*executionContext); ok {
			routerCtx = ec.withNodeID(current)
		}

		next := router(routerCtx, state)

		if next == "" {
			return "", &RouterError{
				FromNode: current,
				Returned: next,
				Err:      ErrInvalidRouterResult,
			}
		}

		if next != END {
			if _, exists := cg.getNode(next); !exists {
				return "", &RouterError{
					FromNode: current,
					Returned: next,
					Err:      ErrRouterTargetNotFound,
				}
			}
		}

		return next, nil
	}

	// Use simple edges
	edges := cg.getEdges(current)
	if len(edges) == 0 {
		// No outgoing edges - this shouldn't happen if compilation was successful
		return "", &NodeError{
			NodeID: current,
			Op:     "routing",
			Err:    fmt.Errorf("no outgoing edge from node %s", current),
		}
	}

	// Simple edges carry exactly one target in a sequential graph
	return edges[0], nil
}
