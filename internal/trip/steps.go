package trip

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmallory/tripflow/internal/llm"
	"github.com/jmallory/tripflow/pkg/flow"
	"github.com/jmallory/tripflow/pkg/flow/retry"
)

// Agent is the tool-calling collaborator the search steps delegate to.
// It accepts a task description and returns free text; the steps inspect
// that text for an error indicator rather than relying on structure.
type Agent interface {
	Run(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

// EmailSender delivers the final plan. Matches the agent tool call shape so
// the same email tool serves both the agent and the send step.
type EmailSender interface {
	Call(ctx context.Context, args map[string]any) (string, error)
}

// User-facing failure messages. These become the error field and are later
// embedded in the compile step's apology, so they are written for the
// traveler, not the operator.
const (
	parseBusyMessage  = "The AI service is currently busy due to high demand. Please try again in a few minutes."
	searchBusyMessage = "The AI model is currently busy due to high demand. Please try again in a few minutes."

	parseGarbledMessage = "I had trouble understanding the details in your request. " +
		"Please try rephrasing with a clear origin, destination, and specific dates."
	parseCriticalMessage = "An unexpected critical error occurred while processing your request."

	compileBusyPlan   = "I apologize, but I'm currently experiencing high demand. Please try again in a few minutes."
	compileFailedPlan = "An unexpected error occurred while compiling your trip plan. Please try again."
)

// Steps holds the collaborators the workflow steps call out to.
//
// Every step follows the same contract: it receives the accumulated state,
// invokes at most one collaborator, and returns a partial Update. Failures
// never escape a step; they are converted into the update's Error field.
type Steps struct {
	llm      llm.Client
	agent    Agent
	emailer  EmailSender
	retryCfg retry.Config
	now      func() time.Time
}

// StepsOption configures Steps.
type StepsOption func(*Steps)

// WithEmailSender enables the send-email step. Without it the step logs a
// skip entry.
func WithEmailSender(sender EmailSender) StepsOption {
	return func(t *Steps) {
		t.emailer = sender
	}
}

// WithRetryConfig overrides the retry policy for direct model calls.
func WithRetryConfig(cfg retry.Config) StepsOption {
	return func(t *Steps) {
		t.retryCfg = cfg
	}
}

// WithClock overrides the time source. Used by tests to pin "today".
func WithClock(now func() time.Time) StepsOption {
	return func(t *Steps) {
		t.now = now
	}
}

// NewSteps creates the step set over a completion client and an agent.
func NewSteps(client llm.Client, ag Agent, opts ...StepsOption) *Steps {
	t := &Steps{
		llm:      client,
		agent:    ag,
		retryCfg: retry.Default,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// complete runs one direct model call through the retry layer.
func (t *Steps) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := retry.Do(ctx, t.retryCfg, func(ctx context.Context) (*llm.CompletionResponse, error) {
		return t.llm.Complete(ctx, llm.CompletionRequest{
			Messages: []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		})
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// parsedPayload is the raw extraction result before validation. Budget is
// any because models emit it as either a number or a string.
type parsedPayload struct {
	Origin        string   `json:"origin"`
	Destination   string   `json:"destination"`
	DepartureDate string   `json:"departure_date"`
	ReturnDate    string   `json:"return_date"`
	Email         string   `json:"user_email"`
	Budget        any      `json:"budget"`
	Preferences   []string `json:"preferences"`
	MissingInfo   []string `json:"missing_info"`
}

// unknownSentinel is the value the extraction prompt mandates for fields the
// model cannot determine. Its presence in a required field fails the run.
const unknownSentinel = "UNKNOWN"

// ParseRequest extracts structured trip parameters from the user prompt.
//
// The model is asked for bare JSON but routinely wraps it in code fences or
// prose, so decoding strips fences and falls back to the first balanced
// object. Required fields resolved to the UNKNOWN sentinel fail the run
// immediately: downstream steps cannot search with placeholder values.
func (t *Steps) ParseRequest(ctx flow.Context, s State) Update {
	raw, err := t.complete(ctx, parsePrompt(t.now(), s.UserPrompt))
	if err != nil {
		if retry.IsRateLimited(err) {
			ctx.Logger().Error("model rate limit exhausted during parsing", slog.String("error", err.Error()))
			return Fail(parseBusyMessage)
		}
		ctx.Logger().Error("parse model call failed", slog.String("error", err.Error()))
		return Fail(parseCriticalMessage)
	}

	var payload parsedPayload
	if err := decodeModelJSON(raw, &payload); err != nil {
		ctx.Logger().Error("failed to parse model extraction output", slog.String("error", err.Error()))
		return Fail(parseGarbledMessage)
	}

	required := []struct{ name, value string }{
		{"origin", payload.Origin},
		{"destination", payload.Destination},
		{"departure_date", payload.DepartureDate},
		{"return_date", payload.ReturnDate},
	}
	for _, field := range required {
		if field.value == "" || field.value == unknownSentinel {
			ctx.Logger().Error("model could not determine a required field", slog.String("field", field.name))
			return Fail(fmt.Sprintf("Could not determine the '%s' from your request. Please be more specific.", field.name))
		}
	}

	if errMsg := t.validateDates(payload.DepartureDate, payload.ReturnDate); errMsg != "" {
		ctx.Logger().Error("trip dates failed validation", slog.String("reason", errMsg))
		return Fail(errMsg)
	}

	parsed := &ParsedRequest{
		Origin:        payload.Origin,
		Destination:   payload.Destination,
		DepartureDate: payload.DepartureDate,
		ReturnDate:    payload.ReturnDate,
		Email:         payload.Email,
		Preferences:   payload.Preferences,
		MissingInfo:   payload.MissingInfo,
	}
	if payload.Budget != nil {
		parsed.Budget = fmt.Sprintf("%v", payload.Budget)
	}

	return Update{
		Parsed: parsed,
		Log:    []string{"✅ Validated trip details from your request."},
	}
}

// validateDates checks the extracted dates: parseable, departure not in the
// past, return strictly after departure. Returns the user-facing message,
// empty when valid. Messages carry the "Error:" prefix so the failure stays
// visibly marked in the compile apology and the final message is typed as an
// error, the same wording the flight tool uses for the past-date case.
func (t *Steps) validateDates(departureDate, returnDate string) string {
	dep, err := time.Parse("2006-01-02", departureDate)
	if err != nil {
		return fmt.Sprintf("Error: The departure date '%s' is not a valid date. Please provide dates in YYYY-MM-DD form.", departureDate)
	}
	ret, err := time.Parse("2006-01-02", returnDate)
	if err != nil {
		return fmt.Sprintf("Error: The return date '%s' is not a valid date. Please provide dates in YYYY-MM-DD form.", returnDate)
	}

	today, _ := time.Parse("2006-01-02", t.now().Format("2006-01-02"))
	if dep.Before(today) {
		return fmt.Sprintf("Error: The departure date %s must be today or a future date.", departureDate)
	}
	if !ret.After(dep) {
		return fmt.Sprintf("Error: The return date %s must be after the departure date %s.", returnDate, departureDate)
	}
	return ""
}

// FindFlights asks the agent for flight options on the parsed route.
// Agent output that self-reports failure becomes the workflow error.
func (t *Steps) FindFlights(ctx flow.Context, s State) Update {
	if s.Parsed == nil {
		return Fail("An unexpected error occurred while searching for flights.")
	}

	task := fmt.Sprintf("Find flights from %s to %s on %s.",
		s.Parsed.Origin, s.Parsed.Destination, s.Parsed.DepartureDate)

	output, err := t.agent.Run(ctx, agentSystemPrompt, task)
	if err != nil {
		if retry.IsRateLimited(err) {
			ctx.Logger().Error("model rate limit exhausted during flight search", slog.String("error", err.Error()))
			return Fail(searchBusyMessage)
		}
		ctx.Logger().Error("flight search failed", slog.String("error", err.Error()))
		return Fail("An unexpected error occurred while searching for flights.")
	}

	if containsError(output) {
		return Fail(output)
	}

	return Update{
		FlightInfo: output,
		Log:        []string{"✈️ Searched for flight options."},
	}
}

// FindHotels asks the agent for accommodation at the destination. The
// destination code is mapped to a display name so the hotel provider's
// city search gets a real name, not an airport code.
func (t *Steps) FindHotels(ctx flow.Context, s State) Update {
	if s.Parsed == nil {
		return Fail("An unexpected error occurred while searching for hotels.")
	}

	task := fmt.Sprintf("Find hotels in %s for check-in on %s and check-out on %s.",
		DisplayName(s.Parsed.Destination), s.Parsed.DepartureDate, s.Parsed.ReturnDate)

	output, err := t.agent.Run(ctx, agentSystemPrompt, task)
	if err != nil {
		if retry.IsRateLimited(err) {
			ctx.Logger().Error("model rate limit exhausted during hotel search", slog.String("error", err.Error()))
			return Fail(searchBusyMessage)
		}
		ctx.Logger().Error("hotel search failed", slog.String("error", err.Error()))
		return Fail("An unexpected error occurred while searching for hotels.")
	}

	if containsError(output) {
		return Fail(output)
	}

	return Update{
		HotelInfo: output,
		Log:       []string{"🏨 Searched for accommodation options."},
	}
}

// FindActivities asks the agent for attractions and local highlights.
// Unlike the flight and hotel steps, the output is accepted as-is: missing
// activity data does not sink the trip plan.
func (t *Steps) FindActivities(ctx flow.Context, s State) Update {
	if s.Parsed == nil {
		return Fail("An unexpected error occurred while researching activities.")
	}

	task := fmt.Sprintf("What are some top attractions, local food to try, and cultural highlights in %s?",
		DisplayName(s.Parsed.Destination))

	output, err := t.agent.Run(ctx, agentSystemPrompt, task)
	if err != nil {
		if retry.IsRateLimited(err) {
			ctx.Logger().Error("model rate limit exhausted during activity search", slog.String("error", err.Error()))
			return Fail(searchBusyMessage)
		}
		ctx.Logger().Error("activity search failed", slog.String("error", err.Error()))
		return Fail("An unexpected error occurred while researching activities.")
	}

	return Update{
		ActivityInfo: output,
		Log:          []string{"🗺️ Researched local attractions and activities."},
	}
}

// CompilePlan produces the final plan. With an error recorded it formats an
// apology around the error without calling the model; otherwise it asks the
// model to assemble the itinerary from whatever the searches gathered.
// This step always yields a final plan: its own failures degrade to an
// apology string rather than a workflow error.
func (t *Steps) CompilePlan(ctx flow.Context, s State) Update {
	if s.Failed() {
		return Update{
			FinalPlan: fmt.Sprintf(
				"I apologize, but I couldn't complete your trip plan due to an issue:\n\n**Details:** %s",
				s.Error),
		}
	}

	plan, err := t.complete(ctx, compilePrompt(s))
	if err != nil {
		if retry.IsRateLimited(err) {
			ctx.Logger().Error("model rate limit exhausted during plan compilation", slog.String("error", err.Error()))
			return Update{FinalPlan: compileBusyPlan}
		}
		ctx.Logger().Error("plan compilation failed", slog.String("error", err.Error()))
		return Update{FinalPlan: compileFailedPlan}
	}

	return Update{FinalPlan: plan}
}

// SendEmail delivers the plan to the traveler when an address was extracted.
// Strictly best-effort: skips and failures are recorded only in the log and
// never alter the error field or the final plan.
func (t *Steps) SendEmail(ctx flow.Context, s State) Update {
	if s.Failed() || s.Parsed == nil || s.Parsed.Email == "" {
		return Update{Log: []string{"📧 Skipped sending email: no recipient address was available."}}
	}
	if t.emailer == nil {
		return Update{Log: []string{"📧 Skipped sending email: email delivery is not configured."}}
	}

	subject := fmt.Sprintf("Your Trip Plan: %s to %s", s.Parsed.Origin, s.Parsed.Destination)
	result, err := t.emailer.Call(ctx, map[string]any{
		"to_email":  s.Parsed.Email,
		"subject":   subject,
		"body_html": s.FinalPlan,
	})
	if err != nil {
		ctx.Logger().Warn("email delivery failed", slog.String("error", err.Error()))
		return Update{Log: []string{"📧 Could not send the plan by email; your itinerary above is still complete."}}
	}
	if containsError(result) {
		ctx.Logger().Warn("email tool reported failure", slog.String("result", result))
		return Update{Log: []string{"📧 Could not send the plan by email; your itinerary above is still complete."}}
	}

	return Update{Log: []string{fmt.Sprintf("📧 Emailed the trip plan to %s.", s.Parsed.Email)}}
}
