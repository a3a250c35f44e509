package tools

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// HotelSearchTool finds hotel offers via the Amadeus API. The model passes
// a city name; the tool resolves it to a city code before searching offers.
type HotelSearchTool struct {
	client *AmadeusClient
	now    func() time.Time
}

// NewHotelSearchTool creates the hotel search tool. Pass a nil client when
// Amadeus credentials are not configured.
func NewHotelSearchTool(client *AmadeusClient) *HotelSearchTool {
	return &HotelSearchTool{client: client, now: time.Now}
}

func (t *HotelSearchTool) Name() string {
	return "hotel_search"
}

func (t *HotelSearchTool) Description() string {
	return "Searches for hotels in a specific city for given check-in and check-out dates. " +
		"For the 'location' parameter, use a proper city name like 'Goa', 'Madrid', or 'New York'."
}

func (t *HotelSearchTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"location": map[string]any{
				"type":        "string",
				"description": "A city name like 'Goa', 'Madrid', or 'New York'.",
			},
			"check_in_date": map[string]any{
				"type":        "string",
				"description": "Check-in date in 'YYYY-MM-DD' format.",
			},
			"check_out_date": map[string]any{
				"type":        "string",
				"description": "Check-out date in 'YYYY-MM-DD' format.",
			},
		},
		"required": []any{"location", "check_in_date", "check_out_date"},
	}
}

// Call looks up the city code and formats the top hotel offers for the model.
func (t *HotelSearchTool) Call(ctx context.Context, args map[string]any) (string, error) {
	location := stringArg(args, "location")
	checkIn := stringArg(args, "check_in_date")
	checkOut := stringArg(args, "check_out_date")

	if location == "" || checkIn == "" || checkOut == "" {
		return "", fmt.Errorf("location, check_in_date and check_out_date are required")
	}

	if err := t.validateDates(checkIn, checkOut); err != nil {
		return "", err
	}

	if t.client == nil {
		return "", fmt.Errorf("hotel search is unavailable because Amadeus API credentials are not configured")
	}

	cityCode, err := t.client.CityCode(ctx, location)
	if err != nil {
		return "", fmt.Errorf("city lookup failed: %w", err)
	}
	if cityCode == "" {
		return fmt.Sprintf("Could not find a city matching '%s'. Try a major city like 'London', 'Goa', or 'New York'.", location), nil
	}

	offers, err := t.client.HotelOffers(ctx, cityCode, checkIn, checkOut)
	if err != nil {
		return "", fmt.Errorf("hotel search failed: %w", err)
	}
	if len(offers) == 0 {
		return fmt.Sprintf("No hotels found in %s for the given dates. Try changing the city or dates.", location), nil
	}

	if len(offers) > 5 {
		offers = offers[:5]
	}

	lines := []string{fmt.Sprintf("🏨 Hotel options in %s:", location)}
	for _, offer := range offers {
		name := offer.Hotel.Name
		if name == "" {
			name = "Unnamed Hotel"
		}
		address := ""
		if len(offer.Hotel.Address.Lines) > 0 {
			address = offer.Hotel.Address.Lines[0]
		}
		rating := offer.Hotel.Rating
		if rating == "" {
			rating = "No rating"
		}
		price, currency := "N/A", ""
		if len(offer.Offers) > 0 {
			price = offer.Offers[0].Price.Total
			currency = offer.Offers[0].Price.Currency
		}
		lines = append(lines, fmt.Sprintf("- %s\n  📍 %s\n  ⭐ %s\n  💰 %s %s",
			name, address, rating, price, currency))
	}

	return strings.Join(lines, "\n"), nil
}

// validateDates checks that the stay is well-formed: parseable dates,
// check-in not in the past, check-out after check-in.
func (t *HotelSearchTool) validateDates(checkIn, checkOut string) error {
	in, err := time.Parse("2006-01-02", checkIn)
	if err != nil {
		return fmt.Errorf("invalid date format, please use YYYY-MM-DD format")
	}
	out, err := time.Parse("2006-01-02", checkOut)
	if err != nil {
		return fmt.Errorf("invalid date format, please use YYYY-MM-DD format")
	}

	today, _ := time.Parse("2006-01-02", t.now().Format("2006-01-02"))
	if in.Before(today) {
		return fmt.Errorf("check-in date %s must be today or a future date", checkIn)
	}
	if !out.After(in) {
		return fmt.Errorf("check-out date %s must be after the check-in date %s", checkOut, checkIn)
	}
	return nil
}
