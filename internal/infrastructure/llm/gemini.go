package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/aktagon/llmkit/google"
	gtypes "github.com/aktagon/llmkit/google/types"

	"ArticleClassifier/internal/config"
	"ArticleClassifier/internal/ports"
)

// geminiPromptFunc sends one user prompt and returns the first candidate's text.
type geminiPromptFunc func(user, apiKey string, settings gtypes.RequestSettings) (string, error)

// GeminiClient implements ports.TextGenerator through llmkit's Google client.
type GeminiClient struct {
	apiKey   string
	settings gtypes.RequestSettings
	prompt   geminiPromptFunc
}

var _ ports.TextGenerator = (*GeminiClient)(nil)

// NewGeminiClient builds a client from configuration. llmkit always targets
// the public Generative Language API, so cfg.Endpoint is not used.
func NewGeminiClient(cfg config.ClassifierConfig) *GeminiClient {
	return &GeminiClient{
		apiKey: cfg.APIKey,
		settings: gtypes.RequestSettings{
			Model:       cfg.Model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		},
		prompt: llmkitGeminiPrompt,
	}
}

// The prompt goes out verbatim: llmkit folds a non-empty system prompt into
// the user text.
func llmkitGeminiPrompt(user, apiKey string, settings gtypes.RequestSettings) (string, error) {
	response, err := google.PromptWithSettings("", user, "", apiKey, settings)
	if err != nil {
		return "", err
	}
	if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}
	return response.Candidates[0].Content.Parts[0].Text, nil
}

// Generate sends the prompt as one content part. The context is only checked
// before the call.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("gemini client is nil")
	}
	if c.apiKey == "" || c.settings.Model == "" {
		return "", fmt.Errorf("gemini client misconfigured")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	text, err := c.prompt(prompt, c.apiKey, c.settings)
	if err != nil {
		return "", providerError("gemini", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
