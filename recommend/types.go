package recommend

import (
	"context"
	"errors"

	"placescout/places"
)

// RecommendationRecord is one recommendation parsed out of raw model output.
// Fields the model omitted carry their defaults rather than failing the parse.
type RecommendationRecord struct {
	Name           string   `json:"name"`
	Rating         int      `json:"rating"`
	Location       string   `json:"location"`
	Description    string   `json:"description"`
	Features       []string `json:"features"`
	AdditionalInfo string   `json:"additional_info"`
}

// EnrichedRecommendation merges an AI record with zero or one authoritative
// place. PlaceID and PhotoURL stay null when no authoritative match was found.
type EnrichedRecommendation struct {
	Name             string         `json:"name"`
	Description      string         `json:"description"`
	Features         []string       `json:"features"`
	PriceInfo        string         `json:"price_info,omitempty"`
	Locality         string         `json:"locality,omitempty"`
	PlaceID          *string        `json:"place_id"`
	Rating           float64        `json:"rating"`
	UserRatingsTotal int            `json:"user_ratings_total,omitempty"`
	Address          string         `json:"address,omitempty"`
	PhotoURL         *string        `json:"photo_url"`
	Location         *places.LatLng `json:"location,omitempty"`
	PriceLevel       *int           `json:"price_level,omitempty"`
	OpenNow          *bool          `json:"open_now,omitempty"`
}

// QueryComponents is the decomposition of freeform user input. Empty strings
// mean the user never mentioned that component.
type QueryComponents struct {
	Intent        string `json:"intent"`
	LocationQuery string `json:"location_query,omitempty"`
	Cuisine       string `json:"cuisine,omitempty"`
	Preferences   string `json:"preferences,omitempty"`
}

// Step names the pipeline stage a failure outcome originated from.
type Step string

const (
	StepQueryUnderstanding Step = "query understanding"
	StepLocationLookup     Step = "location lookup"
	StepGeneration         Step = "recommendation generation"
)

// Outcome is the single result type the pipeline hands back to callers:
// either a success, a request for location clarification, or a failure
// naming the step that broke.
type Outcome struct {
	OK bool `json:"ok"`

	NeedsLocationClarification bool               `json:"needs_location_clarification,omitempty"`
	LocationCandidates         []places.Candidate `json:"location_candidates,omitempty"`

	Location        string                   `json:"location,omitempty"`
	SearchQuery     string                   `json:"search_query,omitempty"`
	Recommendations []EnrichedRecommendation `json:"recommendations,omitempty"`

	FailedStep Step   `json:"failed_step,omitempty"`
	Message    string `json:"message,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

type GenerateOptions struct {
	MaxTokens   int
	Temperature float64
}

// Generator is the language-model collaborator: a prompt in, raw text out.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}

// PlaceSource is the maps collaborator as the pipeline sees it.
type PlaceSource interface {
	SearchText(ctx context.Context, query string) ([]places.Candidate, error)
	Nearby(ctx context.Context, loc places.LatLng, keyword string, radius int) ([]places.Place, error)
	PhotoURL(photoReference string) string
}

// PlaceCache persists fetched places and handled searches. Both calls are
// best effort from the pipeline's point of view.
type PlaceCache interface {
	SavePlaces(ctx context.Context, results []places.Place) error
	LogSearch(ctx context.Context, input string, components QueryComponents) error
}

var (
	// ErrGenerationTimeout marks a model call that ran out of time, as
	// opposed to one the upstream rejected.
	ErrGenerationTimeout = errors.New("generation timed out")

	// ErrNoGeneration marks a model call that succeeded but produced no content.
	ErrNoGeneration = errors.New("model returned no content")
)
