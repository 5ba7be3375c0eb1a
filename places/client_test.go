package places

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"placescout/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(config.Google{
		APIKey:        "test-key",
		BaseURL:       server.URL,
		PhotoMaxWidth: 400,
	})

	return client, server
}

func TestSearchText(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/textsearch/json", r.URL.Path)
		assert.Equal(t, "Koramangala", r.URL.Query().Get("query"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		w.Write([]byte(`{
			"status": "OK",
			"results": [
				{
					"place_id": "loc-1",
					"name": "Koramangala",
					"formatted_address": "Koramangala, Bengaluru, Karnataka",
					"geometry": {"location": {"lat": 12.93, "lng": 77.62}}
				}
			]
		}`))
	})

	candidates, err := client.SearchText(context.Background(), "Koramangala")

	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "loc-1", candidates[0].PlaceID)
	assert.Equal(t, "Koramangala", candidates[0].Name)
	assert.Equal(t, "Koramangala, Bengaluru, Karnataka", candidates[0].Address)
	assert.Equal(t, 12.93, candidates[0].Location.Lat)
}

func TestNearby(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/nearbysearch/json", r.URL.Path)
		assert.Equal(t, "noodles", r.URL.Query().Get("keyword"))
		assert.Equal(t, "1500", r.URL.Query().Get("radius"))
		assert.NotEmpty(t, r.URL.Query().Get("location"))

		w.Write([]byte(`{
			"status": "OK",
			"results": [
				{
					"place_id": "p1",
					"name": "Sunset Cafe",
					"vicinity": "5th Block",
					"rating": 4.4,
					"user_ratings_total": 88,
					"price_level": 2,
					"geometry": {"location": {"lat": 12.9, "lng": 77.6}},
					"opening_hours": {"open_now": true},
					"photos": [{"photo_reference": "ref-1"}, {"photo_reference": "ref-2"}],
					"types": ["cafe", "food"]
				}
			]
		}`))
	})

	results, err := client.Nearby(context.Background(), LatLng{Lat: 12.93, Lng: 77.62}, "noodles", 1500)

	require.NoError(t, err)
	require.Len(t, results, 1)
	place := results[0]
	assert.Equal(t, "p1", place.PlaceID)
	assert.Equal(t, "Sunset Cafe", place.Name)
	assert.Equal(t, "5th Block", place.Vicinity)
	assert.Equal(t, 4.4, place.Rating)
	assert.Equal(t, 88, place.UserRatingsTotal)
	require.NotNil(t, place.PriceLevel)
	assert.Equal(t, 2, *place.PriceLevel)
	require.NotNil(t, place.OpenNow)
	assert.True(t, *place.OpenNow)
	assert.Equal(t, []string{"ref-1", "ref-2"}, place.PhotoReferences)
	assert.Equal(t, []string{"cafe", "food"}, place.Types)
}

func TestZeroResultsIsNotAnError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "ZERO_RESULTS", "results": []}`))
	})

	results, err := client.Nearby(context.Background(), LatLng{}, "", 500)

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestProviderRejectionCarriesMessage(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "REQUEST_DENIED", "error_message": "The provided API key is invalid."}`))
	})

	_, err := client.SearchText(context.Background(), "anywhere")

	require.Error(t, err)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, "REQUEST_DENIED", statusErr.Status)
	assert.Contains(t, statusErr.Message, "API key is invalid")
	assert.Contains(t, err.Error(), "API key is invalid")
}

func TestHTTPErrorSurfaces(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.SearchText(context.Background(), "anywhere")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestDetails(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/details/json", r.URL.Path)
		assert.Equal(t, "p1", r.URL.Query().Get("place_id"))

		w.Write([]byte(`{
			"status": "OK",
			"result": {
				"place_id": "p1",
				"name": "Sunset Cafe",
				"formatted_address": "Marine Drive",
				"international_phone_number": "+91 12345",
				"website": "https://sunset.example",
				"opening_hours": {"open_now": false, "weekday_text": ["Monday: 9-5"]},
				"reviews": [{"author_name": "A", "rating": 5, "text": "great"}]
			}
		}`))
	})

	details, err := client.Details(context.Background(), "p1")

	require.NoError(t, err)
	assert.Equal(t, "Sunset Cafe", details.Name)
	assert.Equal(t, "Marine Drive", details.Vicinity)
	assert.Equal(t, "+91 12345", details.PhoneNumber)
	assert.Equal(t, "https://sunset.example", details.Website)
	assert.Equal(t, []string{"Monday: 9-5"}, details.WeekdayText)
	require.Len(t, details.Reviews, 1)
	assert.Equal(t, "great", details.Reviews[0].Text)
	require.NotNil(t, details.OpenNow)
	assert.False(t, *details.OpenNow)
}

func TestPhotoURL(t *testing.T) {
	client := NewClient(config.Google{APIKey: "test-key", BaseURL: "https://maps.example/api"})

	url := client.PhotoURL("ref-1")

	assert.Contains(t, url, "https://maps.example/api/photo?")
	assert.Contains(t, url, "photo_reference=ref-1")
	assert.Contains(t, url, "key=test-key")
	assert.Contains(t, url, "maxwidth=400")
}
