package tools

import (
	"context"
	"log/slog"
)

// CalendarTool is a placeholder. A real Google Calendar integration needs a
// user-facing OAuth2 consent flow, which this backend does not carry.
// The tool stays registered so the model learns the capability exists and
// receives an honest answer when it tries to use it.
type CalendarTool struct {
	logger *slog.Logger
}

// NewCalendarTool creates the calendar placeholder tool.
func NewCalendarTool(logger *slog.Logger) *CalendarTool {
	if logger == nil {
		logger = slog.Default()
	}
	return &CalendarTool{logger: logger}
}

func (t *CalendarTool) Name() string {
	return "add_event_to_calendar"
}

func (t *CalendarTool) Description() string {
	return "Adds an event to the user's primary calendar. " +
		"Provide the event title, ISO start and end times, and optionally a location."
}

func (t *CalendarTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary": map[string]any{
				"type":        "string",
				"description": "The title of the event (e.g. 'Flight to Goa').",
			},
			"start_datetime": map[string]any{
				"type":        "string",
				"description": "The start time in ISO format (e.g. '2026-09-01T09:00:00').",
			},
			"end_datetime": map[string]any{
				"type":        "string",
				"description": "The end time in ISO format (e.g. '2026-09-01T11:30:00').",
			},
			"location": map[string]any{
				"type":        "string",
				"description": "The location of the event (e.g. 'Delhi Airport (DEL)').",
			},
		},
		"required": []any{"summary", "start_datetime", "end_datetime"},
	}
}

// Call logs the requested event and reports the feature as unimplemented.
func (t *CalendarTool) Call(ctx context.Context, args map[string]any) (string, error) {
	t.logger.Warn("calendar tool called, but it is a placeholder",
		slog.String("summary", stringArg(args, "summary")),
		slog.String("start", stringArg(args, "start_datetime")),
		slog.String("end", stringArg(args, "end_datetime")),
		slog.String("location", stringArg(args, "location")),
	)
	return "Skipped adding event to calendar. This feature is not fully implemented.", nil
}
