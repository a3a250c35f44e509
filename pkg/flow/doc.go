/*
Package flow provides graph-based orchestration for multi-step workflows.

# Overview

flow is the execution engine behind tripflow. It builds and executes
directed graphs where nodes perform work and edges define control flow.
Workflows carry a single shared state value through the graph; each node
receives the current state and returns an updated one. Conditional edges
route on that state, which keeps control flow data-driven rather than
exception-driven.

Features:
  - Type-safe generics for state management
  - Compile-time validation of graph structure
  - Strictly sequential execution with an iteration guard
  - Per-node observer hook for incremental progress projection
  - Optional run journaling (memory or SQLite)
  - OpenTelemetry integration for metrics and tracing

# Basic Usage

Create a graph with nodes and edges, then compile and run:

	type State struct {
	    Input  string
	    Output string
	}

	func process(ctx flow.Context, s State) (State, error) {
	    s.Output = "Processed: " + s.Input
	    return s, nil
	}

	func main() {
	    graph := flow.NewGraph[State]().
	        AddNode("process", process).
	        AddEdge("process", flow.END).
	        SetEntry("process")

	    compiled, err := graph.Compile()
	    if err != nil {
	        log.Fatal(err)
	    }

	    ctx := flow.NewContext(context.Background())
	    result, err := compiled.Run(ctx, State{Input: "hello"})
	    if err != nil {
	        log.Fatal(err)
	    }
	    fmt.Println(result.Output) // "Processed: hello"
	}

# Conditional Branching

Use conditional edges for decision points:

	graph.AddConditionalEdge("parse_request", func(ctx flow.Context, s State) string {
	    if s.Error != "" {
	        return "compile_plan"
	    }
	    return "find_flights"
	})

The router function returns the ID of the next node to execute.
Invalid return values (referencing non-existent nodes) cause runtime errors.

# Observing Progress

Register an observer to project node completions as they happen:

	result, err := compiled.Run(ctx, initial,
	    flow.WithObserver[State](func(ctx flow.Context, nodeID string, s State) {
	        fmt.Println("completed:", nodeID)
	    }))

Observers run synchronously on the execution goroutine, so notifications
arrive in execution order and can be streamed to a consumer before the
run finishes.

# Error Handling

Node errors are wrapped in *NodeError with the node ID and operation.
Panics inside nodes are recovered and converted to *PanicError with a
stack trace. Cancellation is checked before each node and surfaces as
*CancellationError carrying the state at the point of cancellation.
*/
package flow
