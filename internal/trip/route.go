package trip

import "github.com/jmallory/tripflow/pkg/flow"

// Node identifiers in the planning graph.
const (
	NodeParse          = "parse_user_prompt"
	NodeFindFlights    = "find_flights"
	NodeFindHotels     = "find_hotels"
	NodeFindActivities = "find_activities"
	NodeCompilePlan    = "compile_plan"
	NodeSendEmail      = "send_email"
)

// routeAfter returns a router that sends a failed state straight to the
// compile node and a clean state to next. Pure: the decision depends only
// on the error field.
func routeAfter(next string) flow.RouterFunc[State] {
	return func(ctx flow.Context, s State) string {
		if s.Failed() {
			ctx.Logger().Warn("error recorded in workflow state, routing to compile",
				"error", s.Error,
			)
			return NodeCompilePlan
		}
		return next
	}
}
