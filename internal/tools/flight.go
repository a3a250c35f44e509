package tools

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// FlightSearchTool finds flight offers via the Amadeus API.
// A nil client disables the tool; it then reports the missing credentials
// to the model instead of failing the run.
type FlightSearchTool struct {
	client *AmadeusClient
	now    func() time.Time
}

// NewFlightSearchTool creates the flight search tool. Pass a nil client
// when Amadeus credentials are not configured.
func NewFlightSearchTool(client *AmadeusClient) *FlightSearchTool {
	return &FlightSearchTool{client: client, now: time.Now}
}

func (t *FlightSearchTool) Name() string {
	return "flight_search"
}

func (t *FlightSearchTool) Description() string {
	return "Finds flight offers for a given route and date. " +
		"Use 3-letter IATA codes for origin and destination " +
		"(e.g. 'DEL' for Delhi, 'GOI' for Goa) and 'YYYY-MM-DD' for the departure date."
}

func (t *FlightSearchTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"origin": map[string]any{
				"type":        "string",
				"description": "The 3-letter IATA code for the origin city (e.g. 'DEL' for Delhi).",
			},
			"destination": map[string]any{
				"type":        "string",
				"description": "The 3-letter IATA code for the destination city (e.g. 'GOI' for Goa).",
			},
			"departure_date": map[string]any{
				"type":        "string",
				"description": "The departure date in 'YYYY-MM-DD' format.",
			},
		},
		"required": []any{"origin", "destination", "departure_date"},
	}
}

// Call searches flights and formats the top offers as text for the model.
func (t *FlightSearchTool) Call(ctx context.Context, args map[string]any) (string, error) {
	if t.client == nil {
		return "", fmt.Errorf("flight search is unavailable because Amadeus API credentials are not configured")
	}

	origin := stringArg(args, "origin")
	destination := stringArg(args, "destination")
	departureDate := stringArg(args, "departure_date")

	if origin == "" || destination == "" || departureDate == "" {
		return "", fmt.Errorf("origin, destination and departure_date are required")
	}

	if !t.validDate(departureDate) {
		return "", fmt.Errorf("the departure date %s must be today or a future date", departureDate)
	}

	offers, err := t.client.FlightOffers(ctx, origin, destination, departureDate)
	if err != nil {
		return "", fmt.Errorf("flight search failed: %w", err)
	}

	if len(offers) == 0 {
		return fmt.Sprintf("No flights were found from %s to %s on %s.", origin, destination, departureDate), nil
	}

	lines := []string{"Here are the top flight options found:"}
	for _, offer := range offers {
		if len(offer.Itineraries) == 0 || len(offer.Itineraries[0].Segments) == 0 {
			continue
		}
		carrier := "unknown carrier"
		if len(offer.ValidatingAirlineCodes) > 0 {
			carrier = offer.ValidatingAirlineCodes[0]
		}
		segments := offer.Itineraries[0].Segments
		lines = append(lines, fmt.Sprintf(
			"- Flight with carrier %s departing at %s, arriving at %s. Price: %s %s.",
			carrier,
			timeOfDay(segments[0].Departure.At),
			timeOfDay(segments[len(segments)-1].Arrival.At),
			offer.Price.Total,
			offer.Price.Currency,
		))
	}

	return strings.Join(lines, "\n"), nil
}

// validDate reports whether s is a YYYY-MM-DD date that is today or later.
func (t *FlightSearchTool) validDate(s string) bool {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return false
	}
	today, _ := time.Parse("2006-01-02", t.now().Format("2006-01-02"))
	return !d.Before(today)
}

// timeOfDay extracts the time portion of an ISO timestamp like
// "2026-09-01T09:30:00".
func timeOfDay(iso string) string {
	if idx := strings.IndexByte(iso, 'T'); idx >= 0 {
		return iso[idx+1:]
	}
	return iso
}
