package main

import (
	"context"
	"fmt"
	"io"

	"github.com/tmc/langchaingo/chains"
	"github.com/tmc/langchaingo/llms/ollama"

	"placescout/models"
	"placescout/places"
	"placescout/recommend"
)

type Handler struct {
	pipeline     *recommend.Pipeline
	summaryChain *chains.LLMChain
	embeddingLLM *ollama.LLM
	maps         *places.Client
	pg           *Pg
}

func NewHandler(
	pipeline *recommend.Pipeline,
	summaryChain *chains.LLMChain,
	embeddingLLM *ollama.LLM,
	maps *places.Client,
	pg *Pg,
) (*Handler, error) {
	return &Handler{
		pipeline:     pipeline,
		summaryChain: summaryChain,
		embeddingLLM: embeddingLLM,
		maps:         maps,
		pg:           pg,
	}, nil
}

type WebSocketsMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type ProcessingResult struct {
	Err error
	Msg WebSocketsMessage
}

// SearchByUserQuery streams the pipeline's progress over a channel: the
// clarification request or recommendations first, then the summary as chat
// chunks, then io.EOF.
func (h *Handler) SearchByUserQuery(
	ctx context.Context,
	userInput string,
	location *places.LatLng,
) chan *ProcessingResult {
	resultChan := make(chan *ProcessingResult)

	go func() {
		defer func() {
			close(resultChan)
		}()

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		outcome := h.pipeline.ProcessUserInput(ctx, userInput, location)

		if outcome.NeedsLocationClarification {
			resultChan <- &ProcessingResult{
				Msg: WebSocketsMessage{
					Type: "clarify",
					Data: outcome,
				},
			}
			resultChan <- &ProcessingResult{Err: io.EOF}

			return
		}

		if !outcome.OK {
			resultChan <- &ProcessingResult{
				Msg: WebSocketsMessage{
					Type: "failure",
					Data: outcome,
				},
			}
			resultChan <- &ProcessingResult{Err: io.EOF}

			return
		}

		resultChan <- &ProcessingResult{
			Msg: WebSocketsMessage{
				Type: "recommendations",
				Data: outcome,
			},
		}

		_, err := h.GenerateSummary(ctx, userInput, outcome, func(message []byte) error {
			resultChan <- &ProcessingResult{
				Msg: WebSocketsMessage{
					Type: "chat",
					Data: string(message),
				},
			}

			return nil
		})
		if err != nil {
			resultChan <- &ProcessingResult{
				Err: fmt.Errorf("response generation failed: %w", err),
			}

			return
		}

		resultChan <- &ProcessingResult{Err: io.EOF}
	}()

	return resultChan
}

// GenerateSummary turns a successful outcome into a conversational reply.
// The model output is streamed and returned as-is, never parsed.
func (h *Handler) GenerateSummary(
	ctx context.Context,
	userInput string,
	outcome *recommend.Outcome,
	streamHandler func(message []byte) error,
) (string, error) {
	summary := recommend.BuildSummaryPrompt(
		outcome.Location,
		userInput,
		outcome.SearchQuery,
		outcome.Recommendations,
		3,
	)

	finalResponse, err := chains.Run(
		ctx,
		h.summaryChain,
		summary,
		chains.WithTemperature(0),
		chains.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			return streamHandler(chunk)
		}),
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}

	return finalResponse, nil
}

// SimilarPlaces embeds the input and searches the place cache by vector
// similarity. Serves cached knowledge only, no provider call.
func (h *Handler) SimilarPlaces(ctx context.Context, input string, limit int) ([]models.Place, error) {
	vectors, err := h.embeddingLLM.CreateEmbedding(ctx, []string{input})
	if err != nil {
		return nil, fmt.Errorf("failed to generate query embedding: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embeddings")
	}

	return h.pg.SearchSimilar(ctx, vectors[0], limit)
}

func (h *Handler) PlaceDetails(ctx context.Context, placeID string) (*places.Details, error) {
	details, err := h.maps.Details(ctx, placeID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch place details: %w", err)
	}

	return details, nil
}
