package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
)

var ErrEmptyCompletion = errors.New("completion returned no choices")

// TextGenerator produces text for a single user prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

type openAITextGenerator struct {
	client *openai.Client
	model  string
	logger zerolog.Logger
}

// NewOpenAITextGenerator creates a TextGenerator backed by the chat
// completions API. An empty baseURL keeps the library default.
func NewOpenAITextGenerator(apiKey, baseURL, model string, logger zerolog.Logger) TextGenerator {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if model == "" {
		model = openai.GPT4
	}
	return &openAITextGenerator{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		logger: logger.With().Str("service", "TextGenerator").Logger(),
	}
}

// Generate sends prompt as the only user message and returns the trimmed
// first choice. Upstream errors are returned as is; there is no retry.
func (g *openAITextGenerator) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens: maxTokens,
	})
	if err != nil {
		g.logger.Error().Err(err).Str("model", g.model).Msg("Chat completion failed")
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	g.logger.Debug().
		Str("model", g.model).
		Int("total_tokens", resp.Usage.TotalTokens).
		Str("finish_reason", string(resp.Choices[0].FinishReason)).
		Msg("Chat completion succeeded")
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
