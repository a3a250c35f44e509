package trip

import "github.com/jmallory/tripflow/pkg/flow"

// node lifts a step function into the engine's node signature: the runner
// passes the accumulated state, the step returns a delta, and Apply is the
// single merge point.
func node(step func(flow.Context, State) Update) flow.NodeFunc[State] {
	return func(ctx flow.Context, s State) (State, error) {
		return s.Apply(step(ctx, s)), nil
	}
}

// BuildGraph wires the planning workflow:
//
//	parse_user_prompt ─┬─> find_flights ─┬─> find_hotels ─┬─> find_activities ──> compile_plan ──> send_email ──> END
//	                   └───────(error)───┴────────────────┴──────────────────────────^
//
// The three conditional edges all divert to compile_plan the moment the
// state carries an error; activity search, compile and send_email proceed
// unconditionally.
func BuildGraph(steps *Steps) (*flow.CompiledGraph[State], error) {
	return flow.NewGraph[State]().
		AddNode(NodeParse, node(steps.ParseRequest)).
		AddNode(NodeFindFlights, node(steps.FindFlights)).
		AddNode(NodeFindHotels, node(steps.FindHotels)).
		AddNode(NodeFindActivities, node(steps.FindActivities)).
		AddNode(NodeCompilePlan, node(steps.CompilePlan)).
		AddNode(NodeSendEmail, node(steps.SendEmail)).
		SetEntry(NodeParse).
		AddConditionalEdge(NodeParse, routeAfter(NodeFindFlights)).
		AddConditionalEdge(NodeFindFlights, routeAfter(NodeFindHotels)).
		AddConditionalEdge(NodeFindHotels, routeAfter(NodeFindActivities)).
		AddEdge(NodeFindActivities, NodeCompilePlan).
		AddEdge(NodeCompilePlan, NodeSendEmail).
		AddEdge(NodeSendEmail, flow.END).
		Compile()
}
