package places

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"placescout/config"
)

const (
	statusOK          = "OK"
	statusZeroResults = "ZERO_RESULTS"

	defaultBaseURL       = "https://maps.googleapis.com/maps/api/place"
	defaultPhotoMaxWidth = 400
)

// Client talks to a Google Places style REST API.
type Client struct {
	httpClient    *http.Client
	apiKey        string
	baseURL       string
	photoMaxWidth int
}

func NewClient(cfg config.Google) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	photoMaxWidth := cfg.PhotoMaxWidth
	if photoMaxWidth <= 0 {
		photoMaxWidth = defaultPhotoMaxWidth
	}

	return &Client{
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		apiKey:        cfg.APIKey,
		baseURL:       baseURL,
		photoMaxWidth: photoMaxWidth,
	}
}

// SearchText resolves a freeform location query into zero or more candidates.
func (c *Client) SearchText(ctx context.Context, query string) ([]Candidate, error) {
	params := url.Values{}
	params.Set("query", query)

	var resp searchResponse
	if err := c.get(ctx, "/textsearch/json", params, &resp); err != nil {
		return nil, err
	}
	if err := checkStatus(resp.Status, resp.ErrorMessage); err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(resp.Results))
	for _, r := range resp.Results {
		address := r.FormattedAddress
		if address == "" {
			address = r.Vicinity
		}
		candidates = append(candidates, Candidate{
			PlaceID:  r.PlaceID,
			Name:     r.Name,
			Address:  address,
			Location: r.Geometry.Location,
		})
	}

	return candidates, nil
}

// Nearby lists places around the given point matching the keyword.
func (c *Client) Nearby(ctx context.Context, loc LatLng, keyword string, radius int) ([]Place, error) {
	params := url.Values{}
	params.Set("location", fmt.Sprintf("%f,%f", loc.Lat, loc.Lng))
	params.Set("radius", strconv.Itoa(radius))
	if keyword != "" {
		params.Set("keyword", keyword)
	}

	var resp searchResponse
	if err := c.get(ctx, "/nearbysearch/json", params, &resp); err != nil {
		return nil, err
	}
	if err := checkStatus(resp.Status, resp.ErrorMessage); err != nil {
		return nil, err
	}

	results := make([]Place, 0, len(resp.Results))
	for _, r := range resp.Results {
		results = append(results, r.toPlace())
	}

	return results, nil
}

// Details fetches the full record for a single place.
func (c *Client) Details(ctx context.Context, placeID string) (*Details, error) {
	params := url.Values{}
	params.Set("place_id", placeID)

	var resp detailsResponse
	if err := c.get(ctx, "/details/json", params, &resp); err != nil {
		return nil, err
	}
	if err := checkStatus(resp.Status, resp.ErrorMessage); err != nil {
		return nil, err
	}

	details := &Details{
		Place:       resp.Result.toPlace(),
		PhoneNumber: resp.Result.PhoneNumber,
		Website:     resp.Result.Website,
	}
	if resp.Result.OpeningHours != nil {
		details.WeekdayText = resp.Result.OpeningHours.WeekdayText
	}
	for _, r := range resp.Result.Reviews {
		details.Reviews = append(details.Reviews, Review{
			AuthorName: r.AuthorName,
			Rating:     r.Rating,
			Text:       r.Text,
		})
	}

	return details, nil
}

// PhotoURL builds the provider URL serving the given photo reference.
func (c *Client) PhotoURL(photoReference string) string {
	params := url.Values{}
	params.Set("maxwidth", strconv.Itoa(c.photoMaxWidth))
	params.Set("photo_reference", photoReference)
	params.Set("key", c.apiKey)

	return c.baseURL + "/photo?" + params.Encode()
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build places request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call places api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("places api returned http %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode places response: %w", err)
	}

	return nil
}

func checkStatus(status, message string) error {
	if status == statusOK || status == statusZeroResults {
		return nil
	}

	return &StatusError{Status: status, Message: message}
}
