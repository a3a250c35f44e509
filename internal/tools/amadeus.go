// Package tools implements the agent tools the planner exposes to the model:
// flight search, hotel search, web search, email delivery, and a calendar
// placeholder.
//
// Every tool returns its failures as error values; the agent layer converts
// them to "Error: ..." text for the model, so a broken tool degrades the
// answer instead of aborting the run.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/jmallory/tripflow/pkg/flow/retry"
)

// DefaultAmadeusBaseURL is the Amadeus self-service test environment.
const DefaultAmadeusBaseURL = "https://test.api.amadeus.com"

// AmadeusClient calls the Amadeus self-service REST APIs.
//
// Authentication uses the OAuth2 client-credentials flow; the access token
// is cached until shortly before expiry and refreshed on demand.
type AmadeusClient struct {
	clientID     string
	clientSecret string
	baseURL      string
	httpClient   *http.Client
	logger       *slog.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// AmadeusOption configures an AmadeusClient.
type AmadeusOption func(*AmadeusClient)

// WithAmadeusBaseURL overrides the API base URL. Tests point this at a local
// server.
func WithAmadeusBaseURL(baseURL string) AmadeusOption {
	return func(c *AmadeusClient) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithAmadeusHTTPClient overrides the HTTP client.
func WithAmadeusHTTPClient(client *http.Client) AmadeusOption {
	return func(c *AmadeusClient) {
		c.httpClient = client
	}
}

// WithAmadeusLogger sets the logger.
func WithAmadeusLogger(logger *slog.Logger) AmadeusOption {
	return func(c *AmadeusClient) {
		c.logger = logger
	}
}

// NewAmadeusClient creates a client with the given credentials.
func NewAmadeusClient(clientID, clientSecret string, opts ...AmadeusOption) *AmadeusClient {
	c := &AmadeusClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		baseURL:      DefaultAmadeusBaseURL,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type amadeusTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// token returns a valid access token, requesting a new one if the cached
// token is missing or about to expire.
func (c *AmadeusClient) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/security/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("amadeus token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("amadeus token status %d: %s", resp.StatusCode, string(body))
	}

	var tok amadeusTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("decode amadeus token: %w", err)
	}

	c.accessToken = tok.AccessToken
	// Refresh a minute early to avoid using a token mid-expiry
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - time.Minute)

	return c.accessToken, nil
}

// get performs an authenticated GET and decodes the JSON response into out.
func (c *AmadeusClient) get(ctx context.Context, path string, query url.Values, out any) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build amadeus request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("amadeus request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		err := fmt.Errorf("amadeus api status %d: %s", resp.StatusCode, amadeusErrorDetail(body))
		if resp.StatusCode == http.StatusTooManyRequests {
			return retry.RateLimited(err)
		}
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode amadeus response: %w", err)
	}
	return nil
}

type amadeusErrorBody struct {
	Errors []struct {
		Detail string `json:"detail"`
		Title  string `json:"title"`
	} `json:"errors"`
}

// amadeusErrorDetail pulls the first error detail out of an Amadeus error
// body, falling back to the raw body.
func amadeusErrorDetail(body []byte) string {
	var e amadeusErrorBody
	if err := json.Unmarshal(body, &e); err == nil && len(e.Errors) > 0 {
		if e.Errors[0].Detail != "" {
			return e.Errors[0].Detail
		}
		if e.Errors[0].Title != "" {
			return e.Errors[0].Title
		}
	}
	return string(body)
}

// FlightOffer is one priced itinerary from the flight offers search.
type FlightOffer struct {
	Price struct {
		Total    string `json:"total"`
		Currency string `json:"currency"`
	} `json:"price"`
	ValidatingAirlineCodes []string `json:"validatingAirlineCodes"`
	Itineraries            []struct {
		Segments []struct {
			Departure struct {
				At string `json:"at"`
			} `json:"departure"`
			Arrival struct {
				At string `json:"at"`
			} `json:"arrival"`
		} `json:"segments"`
	} `json:"itineraries"`
}

// FlightOffers searches priced flight offers for one adult on the given
// route and date, capped at 3 results.
func (c *AmadeusClient) FlightOffers(ctx context.Context, origin, destination, departureDate string) ([]FlightOffer, error) {
	c.logger.Info("calling amadeus flight offers",
		slog.String("origin", origin),
		slog.String("destination", destination),
		slog.String("departure_date", departureDate),
	)

	var result struct {
		Data []FlightOffer `json:"data"`
	}
	err := c.get(ctx, "/v2/shopping/flight-offers", url.Values{
		"originLocationCode":      {origin},
		"destinationLocationCode": {destination},
		"departureDate":           {departureDate},
		"adults":                  {"1"},
		"max":                     {"3"},
	}, &result)
	if err != nil {
		return nil, err
	}
	return result.Data, nil
}

// CityCode resolves a city name to its IATA city code via the locations
// reference API. Returns an empty string when no city matches.
func (c *AmadeusClient) CityCode(ctx context.Context, keyword string) (string, error) {
	var result struct {
		Data []struct {
			IataCode string `json:"iataCode"`
		} `json:"data"`
	}
	err := c.get(ctx, "/v1/reference-data/locations", url.Values{
		"keyword": {keyword},
		"subType": {"CITY"},
	}, &result)
	if err != nil {
		return "", err
	}
	if len(result.Data) == 0 {
		return "", nil
	}
	return result.Data[0].IataCode, nil
}

// HotelOffer is one hotel with its cheapest available offer.
type HotelOffer struct {
	Hotel struct {
		Name    string `json:"name"`
		Rating  string `json:"rating"`
		Address struct {
			Lines []string `json:"lines"`
		} `json:"address"`
	} `json:"hotel"`
	Offers []struct {
		Price struct {
			Total    string `json:"total"`
			Currency string `json:"currency"`
		} `json:"price"`
	} `json:"offers"`
}

// HotelOffers searches hotel availability in a city for the given stay.
func (c *AmadeusClient) HotelOffers(ctx context.Context, cityCode, checkIn, checkOut string) ([]HotelOffer, error) {
	c.logger.Info("calling amadeus hotel offers",
		slog.String("city_code", cityCode),
		slog.String("check_in", checkIn),
		slog.String("check_out", checkOut),
	)

	var result struct {
		Data []HotelOffer `json:"data"`
	}
	err := c.get(ctx, "/v3/shopping/hotel-offers", url.Values{
		"cityCode":     {cityCode},
		"checkInDate":  {checkIn},
		"checkOutDate": {checkOut},
		"roomQuantity": {"1"},
		"adults":       {"1"},
		"view":         {"LIGHT"},
	}, &result)
	if err != nil {
		return nil, err
	}
	return result.Data, nil
}
