// Package trip implements the travel-planning workflow: the shared state
// record, the step functions, the graph wiring, and the streaming projection
// of step completions.
package trip

import "strings"

// ParsedRequest is the structured form of the traveler's free-text prompt,
// produced by the parse step. Once set, origin, destination and both dates
// are non-empty.
type ParsedRequest struct {
	Origin        string   `json:"origin"`
	Destination   string   `json:"destination"`
	DepartureDate string   `json:"departure_date"`
	ReturnDate    string   `json:"return_date"`
	Email         string   `json:"user_email,omitempty"`
	Budget        string   `json:"budget,omitempty"`
	Preferences   []string `json:"preferences,omitempty"`
	MissingInfo   []string `json:"missing_info,omitempty"`
}

// State is the workflow record threaded through the graph. One instance is
// created per request; nodes never mutate it in place, they return an
// Update which Apply merges.
type State struct {
	UserPrompt   string         `json:"user_prompt"`
	Parsed       *ParsedRequest `json:"parsed_request,omitempty"`
	FlightInfo   string         `json:"flight_info,omitempty"`
	HotelInfo    string         `json:"hotel_info,omitempty"`
	ActivityInfo string         `json:"activity_info,omitempty"`
	FinalPlan    string         `json:"final_plan,omitempty"`

	// Error marks the workflow as failed. Once set it is never cleared or
	// overwritten; routing short-circuits every later step except compile.
	Error string `json:"error,omitempty"`

	// Log is the append-only trace of progress markers, in execution order.
	Log []string `json:"log"`
}

// NewState creates the initial state for a prompt.
func NewState(prompt string) State {
	return State{UserPrompt: prompt}
}

// Failed reports whether the workflow has recorded an error.
func (s State) Failed() bool {
	return s.Error != ""
}

// Update is the partial state delta a step returns. Empty fields leave the
// corresponding state field untouched; Log entries are appended.
type Update struct {
	Parsed       *ParsedRequest
	FlightInfo   string
	HotelInfo    string
	ActivityInfo string
	FinalPlan    string
	Error        string
	Log          []string
}

// Fail builds an error-only update.
func Fail(message string) Update {
	return Update{Error: message}
}

// Apply merges an update into a copy of the state and returns it. This is
// the only place partial updates are applied.
//
// Merge rules: non-empty fields win over the current value, Log is
// concatenated, and Error is first-writer-wins: an update can set it once
// but never change or clear it.
func (s State) Apply(u Update) State {
	if u.Parsed != nil {
		s.Parsed = u.Parsed
	}
	if u.FlightInfo != "" {
		s.FlightInfo = u.FlightInfo
	}
	if u.HotelInfo != "" {
		s.HotelInfo = u.HotelInfo
	}
	if u.ActivityInfo != "" {
		s.ActivityInfo = u.ActivityInfo
	}
	if u.FinalPlan != "" {
		s.FinalPlan = u.FinalPlan
	}
	if s.Error == "" && u.Error != "" {
		s.Error = u.Error
	}
	if len(u.Log) > 0 {
		merged := make([]string, 0, len(s.Log)+len(u.Log))
		merged = append(merged, s.Log...)
		merged = append(merged, u.Log...)
		s.Log = merged
	}
	return s
}

// containsError reports whether text self-identifies as a failure.
// Agent output carries no structured success flag, so the workflow falls
// back to a case-insensitive substring match on "error".
func containsError(text string) bool {
	return strings.Contains(strings.ToLower(text), "error")
}
