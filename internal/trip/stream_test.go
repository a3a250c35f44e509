package trip

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmallory/tripflow/pkg/flow"
	"github.com/jmallory/tripflow/pkg/flow/journal"
	"github.com/jmallory/tripflow/pkg/flow/retry"
)

// collect drains a stream into a slice, failing the test on a stall.
func collect(t *testing.T, ch <-chan StreamMessage) []StreamMessage {
	t.Helper()
	var msgs []StreamMessage
	timeout := time.After(5 * time.Second)
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return msgs
			}
			msgs = append(msgs, msg)
		case <-timeout:
			t.Fatal("stream did not close in time")
		}
	}
}

// happyPlanner builds a planner whose run succeeds end to end.
func happyPlanner(t *testing.T, opts ...PlannerOption) *Planner {
	t.Helper()
	client := &stubClient{contents: []string{
		validParseJSON,
		"# Trip Plan for DEL to GOI\n\nDeparting 2026-09-01, returning 2026-09-05.\n\nHave a wonderful trip!",
	}}
	agent := &stubAgent{outputs: []string{
		"Here are the top flight options found:",
		"🏨 Hotel options in Goa:",
		"Visit the beaches.",
	}}
	emailer := &stubEmailer{result: "Email with the trip plan has been successfully sent to traveler@example.com."}

	graph, err := BuildGraph(newTestSteps(client, agent, WithEmailSender(emailer)))
	require.NoError(t, err)
	return NewPlanner(graph, opts...)
}

// TestPlanTrip_HappyPath streams one log per progress marker followed by a
// single result carrying the full plan; the email step adds no message.
func TestPlanTrip_HappyPath(t *testing.T) {
	planner := happyPlanner(t)

	msgs := collect(t, planner.PlanTrip(context.Background(), "Plan a trip from Delhi to Goa"))

	require.Len(t, msgs, 5)
	assert.Equal(t, StreamMessage{MessageLog, "✅ Validated trip details from your request."}, msgs[0])
	assert.Equal(t, StreamMessage{MessageLog, "✈️ Searched for flight options."}, msgs[1])
	assert.Equal(t, StreamMessage{MessageLog, "🏨 Searched for accommodation options."}, msgs[2])
	assert.Equal(t, StreamMessage{MessageLog, "🗺️ Researched local attractions and activities."}, msgs[3])

	final := msgs[4]
	assert.Equal(t, MessageResult, final.Type)
	assert.Contains(t, final.Content, "DEL")
	assert.Contains(t, final.Content, "GOI")
	assert.Contains(t, final.Content, "2026-09-01")
	assert.Contains(t, final.Content, "2026-09-05")
}

// TestPlanTrip_ParseFailure emits no log for the failed step and ends with
// an error message wrapping the validation failure.
func TestPlanTrip_ParseFailure(t *testing.T) {
	raw := `{"origin":"DEL","destination":"GOI","departure_date":"2026-08-20","return_date":"2026-09-05"}`
	client := &stubClient{contents: []string{raw}}
	graph, err := BuildGraph(newTestSteps(client, &stubAgent{}))
	require.NoError(t, err)
	planner := NewPlanner(graph)

	msgs := collect(t, planner.PlanTrip(context.Background(), "trip in the past"))

	require.Len(t, msgs, 1)
	assert.Equal(t, MessageError, msgs[0].Type)
	assert.Contains(t, msgs[0].Content, "I apologize, but I couldn't complete your trip plan due to an issue:")
	assert.Contains(t, msgs[0].Content, "Error: The departure date 2026-08-20 must be today or a future date.")
}

// TestPlanTrip_MidRunFailure streams the markers of the steps that
// succeeded, then the error; no message for the failed step itself.
func TestPlanTrip_MidRunFailure(t *testing.T) {
	client := &stubClient{contents: []string{validParseJSON}}
	agent := &stubAgent{outputs: []string{
		"Here are the top flight options found:",
		"Error: hotel search failed: amadeus api status 500",
	}}
	graph, err := BuildGraph(newTestSteps(client, agent))
	require.NoError(t, err)
	planner := NewPlanner(graph)

	msgs := collect(t, planner.PlanTrip(context.Background(), "plan a trip"))

	require.Len(t, msgs, 3)
	assert.Equal(t, StreamMessage{MessageLog, "✅ Validated trip details from your request."}, msgs[0])
	assert.Equal(t, StreamMessage{MessageLog, "✈️ Searched for flight options."}, msgs[1])
	assert.Equal(t, MessageError, msgs[2].Type)
	assert.Contains(t, msgs[2].Content, "Error: hotel search failed")
}

// TestPlanTrip_BusyPlanIsResult classifies the high-demand apology as a
// result because it carries no error marker.
func TestPlanTrip_BusyPlanIsResult(t *testing.T) {
	client := &stubClient{contents: []string{validParseJSON}}
	// Compile is the second model call; make it exhaust retries.
	client.errs = []error{nil, rateLimitErr(), rateLimitErr(), rateLimitErr()}
	agent := &stubAgent{outputs: []string{"flights found", "hotels found", "activities found"}}
	graph, err := BuildGraph(newTestSteps(client, agent))
	require.NoError(t, err)
	planner := NewPlanner(graph)

	msgs := collect(t, planner.PlanTrip(context.Background(), "plan a trip"))

	require.NotEmpty(t, msgs)
	final := msgs[len(msgs)-1]
	assert.Equal(t, MessageResult, final.Type)
	assert.Equal(t, compileBusyPlan, final.Content)
}

// TestPlanTrip_EngineFailureBackstop converts an engine-level failure into a
// single terminal error message.
func TestPlanTrip_EngineFailureBackstop(t *testing.T) {
	graph, err := flow.NewGraph[State]().
		AddNode("explode", func(ctx flow.Context, s State) (State, error) {
			panic("wiring bug")
		}).
		AddEdge("explode", flow.END).
		SetEntry("explode").
		Compile()
	require.NoError(t, err)
	planner := NewPlanner(graph)

	msgs := collect(t, planner.PlanTrip(context.Background(), "boom"))

	require.Len(t, msgs, 1)
	assert.Equal(t, MessageError, msgs[0].Type)
	assert.Contains(t, msgs[0].Content, "A critical error occurred:")
}

// TestPlanTrip_ContextCancelled stops emitting and closes the stream.
func TestPlanTrip_ContextCancelled(t *testing.T) {
	planner := happyPlanner(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	msgs := collect(t, planner.PlanTrip(ctx, "plan a trip"))

	// The run aborts at the first node boundary. At most the backstop error
	// message gets through; no progress logs ever do.
	require.LessOrEqual(t, len(msgs), 1)
	if len(msgs) == 1 {
		assert.Equal(t, MessageError, msgs[0].Type)
	}
}

// TestPlanTrip_Journal persists one entry per executed node under the run ID.
func TestPlanTrip_Journal(t *testing.T) {
	store := journal.NewMemoryStore()
	defer store.Close()

	planner := happyPlanner(t,
		WithJournalStore(store),
		WithRunIDFunc(func() string { return "trip-test-1" }),
	)

	collect(t, planner.PlanTrip(context.Background(), "Plan a trip from Delhi to Goa"))

	infos, err := store.List("trip-test-1")
	require.NoError(t, err)
	require.Len(t, infos, 6)
	assert.Equal(t, NodeParse, infos[0].NodeID)
	assert.Equal(t, NodeSendEmail, infos[5].NodeID)
}

// rateLimitErr builds a fresh rate-limit-class error.
func rateLimitErr() error {
	return retry.RateLimited(errors.New("429"))
}
