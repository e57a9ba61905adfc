package llm

import (
	"context"
	"fmt"

	"github.com/aktagon/llmkit/anthropic"
	"github.com/aktagon/llmkit/anthropic/types"

	"ArticleClassifier/internal/config"
	"ArticleClassifier/internal/ports"
)

const systemPrompt = "You label scientific articles. Answer with the category name only."

// promptFunc sends one system/user prompt pair and returns the first text block.
type promptFunc func(system, user, apiKey string, settings types.RequestSettings) (string, error)

// AnthropicClient implements ports.TextGenerator through llmkit.
type AnthropicClient struct {
	apiKey   string
	settings types.RequestSettings
	prompt   promptFunc
}

var _ ports.TextGenerator = (*AnthropicClient)(nil)

// NewAnthropicClient builds a client from configuration.
func NewAnthropicClient(cfg config.ClassifierConfig) *AnthropicClient {
	return &AnthropicClient{
		apiKey: cfg.APIKey,
		settings: types.RequestSettings{
			Model:       cfg.Model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		},
		prompt: llmkitPrompt,
	}
}

func llmkitPrompt(system, user, apiKey string, settings types.RequestSettings) (string, error) {
	response, err := anthropic.PromptWithSettings(system, user, "", apiKey, settings)
	if err != nil {
		return "", err
	}
	if len(response.Content) == 0 {
		return "", ErrEmptyResponse
	}
	return response.Content[0].Text, nil
}

// Generate runs one prompt. llmkit calls are not cancellable, so the context
// is only checked before the call.
func (c *AnthropicClient) Generate(ctx context.Context, prompt string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("anthropic client is nil")
	}
	if c.apiKey == "" {
		return "", fmt.Errorf("anthropic client misconfigured")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	text, err := c.prompt(systemPrompt, prompt, c.apiKey, c.settings)
	if err != nil {
		return "", providerError("anthropic", err)
	}
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
