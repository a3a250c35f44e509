package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmallory/tripflow/internal/trip"
)

// fakePlanner streams canned messages and records the prompts it was given.
type fakePlanner struct {
	messages []trip.StreamMessage
	prompts  []string
}

func (p *fakePlanner) PlanTrip(ctx context.Context, prompt string) <-chan trip.StreamMessage {
	p.prompts = append(p.prompts, prompt)
	ch := make(chan trip.StreamMessage)
	go func() {
		defer close(ch)
		for _, msg := range p.messages {
			select {
			case ch <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

// newTestServer starts an HTTP server over the planner. SSE needs a real
// flusher, so tests go through httptest.NewServer rather than a recorder.
func newTestServer(t *testing.T, planner TripPlanner) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(New(planner).Handler())
	t.Cleanup(server.Close)
	return server
}

// TestLiveness reports the service identity.
func TestLiveness(t *testing.T) {
	server := newTestServer(t, &fakePlanner{})

	resp, err := http.Get(server.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "tripflow", body["service"])
}

// TestPlanTrip_StreamsEvents frames every planner message as one SSE data
// event, in order.
func TestPlanTrip_StreamsEvents(t *testing.T) {
	planner := &fakePlanner{messages: []trip.StreamMessage{
		{Type: trip.MessageLog, Content: "✅ Validated trip details from your request."},
		{Type: trip.MessageLog, Content: "✈️ Searched for flight options."},
		{Type: trip.MessageResult, Content: "# Your Trip Plan"},
	}}
	server := newTestServer(t, planner)

	resp, err := http.Post(server.URL+"/plan-trip", "application/json",
		strings.NewReader(`{"prompt": "Plan a trip from Delhi to Goa"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))

	assert.Equal(t, []string{"Plan a trip from Delhi to Goa"}, planner.prompts)

	var events []trip.StreamMessage
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var msg trip.StreamMessage
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &msg))
		events = append(events, msg)
	}
	require.NoError(t, scanner.Err())

	assert.Equal(t, planner.messages, events)
}

// TestPlanTrip_BadRequests rejects malformed and empty prompts with 400.
func TestPlanTrip_BadRequests(t *testing.T) {
	planner := &fakePlanner{}
	server := newTestServer(t, planner)

	testCases := []struct {
		name string
		body string
	}{
		{"invalid json", `{not json`},
		{"missing prompt", `{}`},
		{"empty prompt", `{"prompt": ""}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Post(server.URL+"/plan-trip", "application/json",
				strings.NewReader(tc.body))
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}

	assert.Empty(t, planner.prompts, "the planner must not run for rejected requests")
}

// TestPlanTrip_MethodNotAllowed rejects GET on the planning endpoint.
func TestPlanTrip_MethodNotAllowed(t *testing.T) {
	server := newTestServer(t, &fakePlanner{})

	resp, err := http.Get(server.URL + "/plan-trip")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

// TestPlanTrip_ErrorMessagesStayInStream delivers workflow failures as
// in-stream events with HTTP 200.
func TestPlanTrip_ErrorMessagesStayInStream(t *testing.T) {
	planner := &fakePlanner{messages: []trip.StreamMessage{
		{Type: trip.MessageError, Content: "I apologize, but I couldn't complete your trip plan due to an issue."},
	}}
	server := newTestServer(t, planner)

	resp, err := http.Post(server.URL+"/plan-trip", "application/json",
		strings.NewReader(`{"prompt": "doomed trip"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	scanner := bufio.NewScanner(resp.Body)
	var sawError bool
	for scanner.Scan() {
		if strings.HasPrefix(scanner.Text(), "data: ") {
			var msg trip.StreamMessage
			require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(scanner.Text(), "data: ")), &msg))
			assert.Equal(t, trip.MessageError, msg.Type)
			sawError = true
		}
	}
	assert.True(t, sawError)
}
