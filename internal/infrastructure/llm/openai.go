package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/aktagon/llmkit/openai"
	otypes "github.com/aktagon/llmkit/openai/types"

	"ArticleClassifier/internal/config"
	"ArticleClassifier/internal/ports"
)

// openaiPromptFunc sends one system/user prompt pair and returns the first
// choice's text.
type openaiPromptFunc func(system, user, apiKey string, settings otypes.RequestSettings) (string, error)

// OpenAIClient implements ports.TextGenerator against OpenAI and
// OpenAI-compatible APIs.
//
// The public API with llmkit's pinned model goes through llmkit. A custom
// endpoint or model is posted as a plain chat completion, since llmkit fixes
// both the URL and the model of its requests.
type OpenAIClient struct {
	endpoint    string
	model       string
	apiKey      string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
	prompt      openaiPromptFunc
}

var _ ports.TextGenerator = (*OpenAIClient)(nil)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// NewOpenAIClient builds a client from configuration.
func NewOpenAIClient(cfg config.ClassifierConfig) *OpenAIClient {
	return &OpenAIClient{
		endpoint:    cfg.Endpoint,
		model:       cfg.Model,
		apiKey:      cfg.APIKey,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		prompt:      llmkitOpenAIPrompt,
	}
}

func llmkitOpenAIPrompt(system, user, apiKey string, settings otypes.RequestSettings) (string, error) {
	response, err := openai.PromptWithSettings(system, user, "", apiKey, settings)
	if err != nil {
		return "", err
	}
	if len(response.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return response.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) viaLLMKit() bool {
	return c.endpoint == "" && (c.model == "" || c.model == otypes.Model)
}

// Generate sends the prompt as a single user turn.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("openai client is nil")
	}
	if c.apiKey == "" {
		return "", fmt.Errorf("openai client misconfigured")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var (
		text string
		err  error
	)
	if c.viaLLMKit() {
		text, err = c.prompt(systemPrompt, prompt, c.apiKey, otypes.RequestSettings{
			MaxTokens:   c.maxTokens,
			Temperature: c.temperature,
		})
		if err != nil {
			return "", providerError("openai", err)
		}
	} else {
		text, err = c.chat(ctx, prompt)
		if err != nil {
			return "", err
		}
	}

	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func (c *OpenAIClient) chat(ctx context.Context, prompt string) (string, error) {
	endpoint := c.endpoint
	if endpoint == "" {
		endpoint = otypes.EndpointCompletions
	}

	req := chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	var resp chatResponse
	headers := map[string]string{"Authorization": "Bearer " + c.apiKey}
	if err := postJSON(ctx, c.httpClient, "openai", endpoint, headers, req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}
