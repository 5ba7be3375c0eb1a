package recommend

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"placescout/places"
)

// Query is a recommendation request whose location is already settled.
type Query struct {
	Location    string
	Coordinates *places.LatLng
	Keyword     string
	UserQuery   string
}

type Options struct {
	GenerationTimeout time.Duration
	SearchRadius      int
	MaxCandidates     int
	DevMode           bool
}

// Pipeline wires the extractor, prompt builder, parser and reconciler to the
// two external collaborators. Every method returns an Outcome; collaborator
// failures never escape as errors.
type Pipeline struct {
	gen       Generator
	extractor *Extractor
	source    PlaceSource
	cache     PlaceCache
	opts      Options
}

// NewPipeline takes two generators because extraction and recommendation are
// typically served by different models: extraction wants a small deterministic
// model, recommendation a larger creative one.
func NewPipeline(extractGen, gen Generator, source PlaceSource, cache PlaceCache, opts Options) *Pipeline {
	if opts.GenerationTimeout <= 0 {
		opts.GenerationTimeout = 5 * time.Minute
	}
	if opts.MaxCandidates <= 0 {
		opts.MaxCandidates = 5
	}
	if opts.SearchRadius <= 0 {
		opts.SearchRadius = 1500
	}

	return &Pipeline{
		gen:       gen,
		extractor: NewExtractor(extractGen),
		source:    source,
		cache:     cache,
		opts:      opts,
	}
}

// ProcessUserInput runs the full flow on freeform text: decompose the input,
// resolve the mentioned location, then recommend. A non-nil at pins the
// search to the caller's coordinates and skips location resolution entirely.
// More than one location candidate yields a clarification outcome instead of
// guessing.
func (p *Pipeline) ProcessUserInput(ctx context.Context, input string, at *places.LatLng) *Outcome {
	components, err := p.extractor.Extract(ctx, input)
	if err != nil {
		return p.fail(StepQueryUnderstanding, "I could not understand your request.", err)
	}

	p.logSearch(ctx, input, components)

	if at != nil {
		return p.ProcessQuery(ctx, Query{
			Location:    components.LocationQuery,
			Coordinates: at,
			Keyword:     searchKeyword(components),
			UserQuery:   input,
		})
	}

	if components.LocationQuery == "" {
		return p.ProcessQuery(ctx, Query{
			Keyword:   searchKeyword(components),
			UserQuery: input,
		})
	}

	candidates, err := p.source.SearchText(ctx, components.LocationQuery)
	if err != nil {
		return p.fail(StepLocationLookup, "I could not look up that location.", err)
	}

	switch len(candidates) {
	case 0:
		return p.fail(StepLocationLookup, "I could not find the location you mentioned.", nil)
	case 1:
		return p.ProcessQuery(ctx, Query{
			Location:    candidates[0].Name,
			Coordinates: &candidates[0].Location,
			Keyword:     searchKeyword(components),
			UserQuery:   input,
		})
	default:
		return &Outcome{
			NeedsLocationClarification: true,
			LocationCandidates:         candidates,
			Message:                    "Which of these locations did you mean?",
		}
	}
}

// ProcessRecommendationQuery serves an already-typed request: an explicit
// location string plus the user's query. The location still goes through
// resolution, with the same clarification semantics as freeform input.
func (p *Pipeline) ProcessRecommendationQuery(ctx context.Context, location, query string) *Outcome {
	if strings.TrimSpace(location) == "" {
		return p.ProcessQuery(ctx, Query{Keyword: query, UserQuery: query})
	}

	candidates, err := p.source.SearchText(ctx, location)
	if err != nil {
		return p.fail(StepLocationLookup, "I could not look up that location.", err)
	}

	switch len(candidates) {
	case 0:
		return p.fail(StepLocationLookup, "I could not find the location you mentioned.", nil)
	case 1:
		return p.ProcessQuery(ctx, Query{
			Location:    candidates[0].Name,
			Coordinates: &candidates[0].Location,
			Keyword:     query,
			UserQuery:   query,
		})
	default:
		return &Outcome{
			NeedsLocationClarification: true,
			LocationCandidates:         candidates,
			Message:                    "Which of these locations did you mean?",
		}
	}
}

// ClarifyLocation resumes a clarified request with the candidate the user picked.
func (p *Pipeline) ClarifyLocation(ctx context.Context, input string, chosen places.Candidate) *Outcome {
	components, err := p.extractor.Extract(ctx, input)
	if err != nil {
		return p.fail(StepQueryUnderstanding, "I could not understand your request.", err)
	}

	return p.ProcessQuery(ctx, Query{
		Location:    chosen.Name,
		Coordinates: &chosen.Location,
		Keyword:     searchKeyword(components),
		UserQuery:   input,
	})
}

// ProcessQuery fetches candidate places, generates recommendations and
// reconciles them. Unparseable model output is never a failure here; the
// parser always degrades to something usable.
func (p *Pipeline) ProcessQuery(ctx context.Context, q Query) *Outcome {
	var candidates []places.Place

	if q.Coordinates != nil {
		nearby, err := p.source.Nearby(ctx, *q.Coordinates, q.Keyword, p.opts.SearchRadius)
		if err != nil {
			return p.fail(StepLocationLookup, "I could not fetch places around that location.", err)
		}
		if len(nearby) > p.opts.MaxCandidates {
			nearby = nearby[:p.opts.MaxCandidates]
		}
		candidates = nearby

		p.savePlaces(ctx, candidates)
	}

	prompt := BuildRecommendationPrompt(q.Location, q.UserQuery, candidates)

	genCtx, cancel := context.WithTimeout(ctx, p.opts.GenerationTimeout)
	defer cancel()

	raw, err := p.gen.Generate(genCtx, prompt, GenerateOptions{Temperature: 0.7, MaxTokens: 1024})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrGenerationTimeout) {
			return p.fail(StepGeneration, "The recommendation engine took too long to answer.", err)
		}

		return p.fail(StepGeneration, "I could not generate recommendations right now.", err)
	}
	if strings.TrimSpace(raw) == "" {
		return p.fail(StepGeneration, "The recommendation engine returned nothing.", ErrNoGeneration)
	}

	records := ParseRecommendations(raw, q.UserQuery, q.Location)

	return &Outcome{
		OK:              true,
		Location:        q.Location,
		SearchQuery:     q.Keyword,
		Recommendations: Reconcile(records, candidates, p.source.PhotoURL),
	}
}

func (p *Pipeline) fail(step Step, message string, err error) *Outcome {
	outcome := &Outcome{
		FailedStep: step,
		Message:    message,
	}
	if err != nil {
		slog.Error("pipeline step failed", "step", step, "error", err)
		if p.opts.DevMode {
			outcome.Detail = err.Error()
		}
	}

	return outcome
}

func (p *Pipeline) savePlaces(ctx context.Context, results []places.Place) {
	if p.cache == nil || len(results) == 0 {
		return
	}
	if err := p.cache.SavePlaces(ctx, results); err != nil {
		slog.Warn("failed to cache places", "error", err)
	}
}

func (p *Pipeline) logSearch(ctx context.Context, input string, components *QueryComponents) {
	if p.cache == nil {
		return
	}
	if err := p.cache.LogSearch(ctx, input, *components); err != nil {
		slog.Warn("failed to log search", "error", err)
	}
}

func searchKeyword(components *QueryComponents) string {
	if components.Cuisine != "" {
		return components.Cuisine
	}

	return strings.TrimPrefix(components.Intent, "find ")
}
