package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/tmc/langchaingo/llms/ollama"
)

type Handler struct {
	llm *ollama.LLM
	pg  *Pg
}

func NewHandler(llm *ollama.LLM, pg *Pg) (*Handler, error) {
	return &Handler{
		llm: llm,
		pg:  pg,
	}, nil
}

func (h *Handler) GenerateTextVector(ctx context.Context, text string) ([]float32, error) {
	embeds, err := h.llm.CreateEmbedding(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}
	if len(embeds) == 0 {
		return nil, fmt.Errorf("empty embeddings")
	}

	return embeds[0], nil
}

// HandlePlaceCDCMessage updates a cached place's vector on receiving a cdc message from nats.
func (h *Handler) HandlePlaceCDCMessage(ctx context.Context, msg []byte) error {
	id, err := extractRowID(msg)
	if err != nil {
		return err
	}

	place, err := h.pg.GetPlace(ctx, id)
	if err != nil {
		return err
	}

	vector, err := h.GenerateTextVector(ctx, place.Stringify())
	if err != nil {
		return err
	}

	if err := h.pg.UpdatePlaceVector(ctx, id, pgvector.NewVector(vector)); err != nil {
		slog.Warn("Failed to update place vector", "err", err)
	}

	return nil
}

func (h *Handler) HandleSearchLogCDCMessage(ctx context.Context, msg []byte) error {
	id, err := extractRowID(msg)
	if err != nil {
		return err
	}

	search, err := h.pg.GetSearchLog(ctx, id)
	if err != nil {
		return err
	}

	vector, err := h.GenerateTextVector(ctx, search.Stringify())
	if err != nil {
		return err
	}

	if err := h.pg.UpdateSearchLogVector(ctx, id, pgvector.NewVector(vector)); err != nil {
		slog.Warn("Failed to update search log vector", "err", err)
	}

	return nil
}

func extractRowID(msg []byte) (uint64, error) {
	var data map[string]interface{}

	if err := json.Unmarshal(msg, &data); err != nil {
		return 0, err
	}

	id, ok := data["id"].(float64)
	if !ok {
		return 0, fmt.Errorf("cdc message has no numeric id")
	}

	return uint64(id), nil
}
