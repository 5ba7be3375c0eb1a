package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"

	"placescout/recommend"
)

// ollamaGenerator adapts an ollama model to the pipeline's Generator
// contract, mapping context deadlines to the pipeline's timeout sentinel so
// callers can tell a slow model from a broken one.
type ollamaGenerator struct {
	llm *ollama.LLM
}

func NewOllamaGenerator(llm *ollama.LLM) recommend.Generator {
	return &ollamaGenerator{llm: llm}
}

func (g *ollamaGenerator) Generate(ctx context.Context, prompt string, opts recommend.GenerateOptions) (string, error) {
	messages := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(prompt),
			},
		},
	}

	callOptions := []llms.CallOption{
		llms.WithTemperature(opts.Temperature),
	}
	if opts.MaxTokens > 0 {
		callOptions = append(callOptions, llms.WithMaxTokens(opts.MaxTokens))
	}

	content, err := g.llm.GenerateContent(ctx, messages, callOptions...)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %v", recommend.ErrGenerationTimeout, err)
		}

		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if content == nil || len(content.Choices) == 0 {
		return "", recommend.ErrNoGeneration
	}

	return content.Choices[0].Content, nil
}
