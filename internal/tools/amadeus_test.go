package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmallory/tripflow/pkg/flow/retry"
)

// amadeusHandler serves the token endpoint plus the given API routes.
type amadeusHandler struct {
	mux        *http.ServeMux
	tokenCalls int32
}

func newAmadeusHandler() *amadeusHandler {
	h := &amadeusHandler{mux: http.NewServeMux()}
	h.mux.HandleFunc("/v1/security/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&h.tokenCalls, 1)
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "test-token",
			"expires_in":   1799,
		})
	})
	return h
}

func (h *amadeusHandler) handle(path string, fn http.HandlerFunc) {
	h.mux.HandleFunc(path, fn)
}

// newAmadeusTestClient starts a server for h and returns a client against it.
func newAmadeusTestClient(t *testing.T, h *amadeusHandler) *AmadeusClient {
	t.Helper()
	server := httptest.NewServer(h.mux)
	t.Cleanup(server.Close)
	return NewAmadeusClient("id", "secret", WithAmadeusBaseURL(server.URL))
}

// TestAmadeusClient_TokenCached reuses the access token across calls.
func TestAmadeusClient_TokenCached(t *testing.T) {
	h := newAmadeusHandler()
	h.handle("/v1/reference-data/locations", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"iataCode": "GOI"}},
		})
	})
	client := newAmadeusTestClient(t, h)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		code, err := client.CityCode(ctx, "Goa")
		require.NoError(t, err)
		assert.Equal(t, "GOI", code)
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&h.tokenCalls))
}

// TestAmadeusClient_TokenFailure surfaces authentication failures.
func TestAmadeusClient_TokenFailure(t *testing.T) {
	h := &amadeusHandler{mux: http.NewServeMux()}
	h.mux.HandleFunc("/v1/security/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid_client"}`))
	})
	client := newAmadeusTestClient(t, h)

	_, err := client.CityCode(context.Background(), "Goa")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "amadeus token status 401")
}

// TestAmadeusClient_FlightOffers sends the expected query and decodes offers.
func TestAmadeusClient_FlightOffers(t *testing.T) {
	h := newAmadeusHandler()
	h.handle("/v2/shopping/flight-offers", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "DEL", q.Get("originLocationCode"))
		assert.Equal(t, "GOI", q.Get("destinationLocationCode"))
		assert.Equal(t, "2026-09-01", q.Get("departureDate"))
		assert.Equal(t, "1", q.Get("adults"))
		assert.Equal(t, "3", q.Get("max"))

		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{
				"price":                  map[string]any{"total": "5400.00", "currency": "INR"},
				"validatingAirlineCodes": []string{"AI"},
				"itineraries": []map[string]any{{
					"segments": []map[string]any{{
						"departure": map[string]any{"at": "2026-09-01T09:30:00"},
						"arrival":   map[string]any{"at": "2026-09-01T12:05:00"},
					}},
				}},
			}},
		})
	})
	client := newAmadeusTestClient(t, h)

	offers, err := client.FlightOffers(context.Background(), "DEL", "GOI", "2026-09-01")

	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Equal(t, "5400.00", offers[0].Price.Total)
	assert.Equal(t, "INR", offers[0].Price.Currency)
	assert.Equal(t, []string{"AI"}, offers[0].ValidatingAirlineCodes)
}

// TestAmadeusClient_HotelOffers sends the expected query and decodes offers.
func TestAmadeusClient_HotelOffers(t *testing.T) {
	h := newAmadeusHandler()
	h.handle("/v3/shopping/hotel-offers", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "GOI", q.Get("cityCode"))
		assert.Equal(t, "2026-09-01", q.Get("checkInDate"))
		assert.Equal(t, "2026-09-05", q.Get("checkOutDate"))
		assert.Equal(t, "LIGHT", q.Get("view"))

		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{
				"hotel": map[string]any{
					"name":    "Beachside Resort",
					"rating":  "4",
					"address": map[string]any{"lines": []string{"Calangute Beach Road"}},
				},
				"offers": []map[string]any{{
					"price": map[string]any{"total": "8200.00", "currency": "INR"},
				}},
			}},
		})
	})
	client := newAmadeusTestClient(t, h)

	offers, err := client.HotelOffers(context.Background(), "GOI", "2026-09-01", "2026-09-05")

	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Equal(t, "Beachside Resort", offers[0].Hotel.Name)
	assert.Equal(t, "8200.00", offers[0].Offers[0].Price.Total)
}

// TestAmadeusClient_CityCodeNoMatch returns an empty code without an error.
func TestAmadeusClient_CityCodeNoMatch(t *testing.T) {
	h := newAmadeusHandler()
	h.handle("/v1/reference-data/locations", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
	})
	client := newAmadeusTestClient(t, h)

	code, err := client.CityCode(context.Background(), "Atlantis")

	require.NoError(t, err)
	assert.Empty(t, code)
}

// TestAmadeusClient_RateLimited marks 429 responses as rate-limit-class.
func TestAmadeusClient_RateLimited(t *testing.T) {
	h := newAmadeusHandler()
	h.handle("/v2/shopping/flight-offers", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"errors":[{"title":"RATE LIMIT EXCEEDED"}]}`))
	})
	client := newAmadeusTestClient(t, h)

	_, err := client.FlightOffers(context.Background(), "DEL", "GOI", "2026-09-01")

	require.Error(t, err)
	assert.True(t, retry.IsRateLimited(err))
	assert.Contains(t, err.Error(), "RATE LIMIT EXCEEDED")
}

// TestAmadeusClient_ErrorDetail prefers the structured error detail.
func TestAmadeusClient_ErrorDetail(t *testing.T) {
	h := newAmadeusHandler()
	h.handle("/v2/shopping/flight-offers", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"errors":[{"detail":"Invalid airport code","title":"INVALID DATA"}]}`))
	})
	client := newAmadeusTestClient(t, h)

	_, err := client.FlightOffers(context.Background(), "XXX", "GOI", "2026-09-01")

	require.Error(t, err)
	assert.False(t, retry.IsRateLimited(err))
	assert.Contains(t, err.Error(), "Invalid airport code")
}
