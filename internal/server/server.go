// Package server exposes the planning workflow over HTTP: a server-sent
// event stream for trip planning and a liveness probe.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jmallory/tripflow/internal/trip"
)

// TripPlanner runs the workflow for a prompt and streams progress messages.
type TripPlanner interface {
	PlanTrip(ctx context.Context, prompt string) <-chan trip.StreamMessage
}

// Server is the HTTP front end.
type Server struct {
	planner TripPlanner
	logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New creates a server over a planner.
func New(planner TripPlanner, opts ...Option) *Server {
	s := &Server{
		planner: planner,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the HTTP router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleLiveness)
	r.Post("/plan-trip", s.handlePlanTrip)

	return r
}

// planTripRequest is the POST /plan-trip body.
type planTripRequest struct {
	Prompt string `json:"prompt"`
}

// handleLiveness reports the service is up.
func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "tripflow",
	})
}

// handlePlanTrip starts a planning run and streams its messages as
// server-sent events. Workflow failures arrive as in-stream error messages,
// not HTTP error codes: the stream begins before the run's outcome is known.
func (s *Server) handlePlanTrip(w http.ResponseWriter, r *http.Request) {
	var req planTripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Prompt == "" {
		http.Error(w, "prompt is required", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	messages := s.planner.PlanTrip(r.Context(), req.Prompt)

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				s.logger.Error("failed to marshal stream message", slog.String("error", err.Error()))
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}
