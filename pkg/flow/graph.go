package flow

import (
	"fmt"
	"strings"
	"sync"
)

// Graph is the mutable builder half of the engine: nodes and edges are
// declared through chained calls, then Compile freezes the structure into a
// CompiledGraph for execution.
//
// Builder calls are not safe for concurrent use. Construct the graph on one
// goroutine; the CompiledGraph produced by Compile may be shared freely.
//
//	graph := flow.NewGraph[TripState]().
//	    AddNode("parse_request", parseNode).
//	    AddNode("compile_plan", compileNode).
//	    AddEdge("parse_request", "compile_plan").
//	    AddEdge("compile_plan", flow.END).
//	    SetEntry("parse_request")
//
//	compiled, err := graph.Compile()
type Graph[S any] struct {
	mu               sync.RWMutex
	nodes            map[string]NodeFunc[S]
	edges            map[string][]string
	conditionalEdges map[string]RouterFunc[S]
	entryPoint       string
}

// NewGraph creates an empty builder for state type S.
func NewGraph[S any]() *Graph[S] {
	return &Graph[S]{
		nodes:            make(map[string]NodeFunc[S]),
		edges:            make(map[string][]string),
		conditionalEdges: make(map[string]RouterFunc[S]),
	}
}

// validateNodeID panics on IDs that can never name a node: empty, reserved,
// or containing whitespace. Builder misuse is a programming error, so these
// are panics rather than deferred compile errors.
func validateNodeID(id string) {
	switch {
	case id == "":
		panic("flow: node ID cannot be empty")
	case isReservedID(id):
		panic("flow: node ID cannot be reserved word 'END'")
	case strings.ContainsAny(id, " \t\n\r"):
		panic("flow: node ID cannot contain whitespace")
	}
}

// isReservedID reports whether id collides with the END terminator,
// case-insensitively.
func isReservedID(id string) bool {
	lower := strings.ToLower(id)
	return lower == "end" || lower == END
}

// AddNode registers a named node function and returns the graph for
// chaining. Panics on an invalid ID, a nil function, or a duplicate ID.
func (g *Graph[S]) AddNode(id string, fn NodeFunc[S]) *Graph[S] {
	validateNodeID(id)
	if fn == nil {
		panic("flow: node function cannot be nil")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[id]; exists {
		panic(fmt.Sprintf("flow: duplicate node ID: %s", id))
	}
	g.nodes[id] = fn
	return g
}

// AddEdge declares an unconditional edge; the target may be a node ID or
// flow.END. Targets are checked at Compile time, not here, so edges may be
// declared before the nodes they reference.
func (g *Graph[S]) AddEdge(from, to string) *Graph[S] {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.edges[from] = append(g.edges[from], to)
	return g
}

// AddConditionalEdge attaches a router that picks the next node at runtime
// from the post-node state. The router must return a known node ID or
// flow.END; anything else fails the run.
//
// A conditional edge takes precedence over simple edges declared on the
// same node.
func (g *Graph[S]) AddConditionalEdge(from string, router RouterFunc[S]) *Graph[S] {
	if router == nil {
		panic("flow: router function cannot be nil")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.conditionalEdges[from] = router
	return g
}

// SetEntry names the node execution starts from. Checked at Compile time.
func (g *Graph[S]) SetEntry(id string) *Graph[S] {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.entryPoint = id
	return g
}
