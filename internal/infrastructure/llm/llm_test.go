package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aktagon/llmkit/anthropic/types"
	llmerrors "github.com/aktagon/llmkit/errors"
	gtypes "github.com/aktagon/llmkit/google/types"
	otypes "github.com/aktagon/llmkit/openai/types"

	"ArticleClassifier/internal/config"
)

func testConfig(provider, endpoint string) config.ClassifierConfig {
	return config.ClassifierConfig{
		Provider:  provider,
		Endpoint:  endpoint,
		Model:     "test-model",
		APIKey:    "secret",
		MaxTokens: 16,
		Timeout:   5 * time.Second,
	}
}

func TestGeminiGenerate(t *testing.T) {
	t.Parallel()

	client := NewGeminiClient(testConfig(config.ProviderGemini, ""))
	client.prompt = func(user, apiKey string, settings gtypes.RequestSettings) (string, error) {
		if user != "classify me" || apiKey != "secret" {
			t.Errorf("unexpected call %q %q", user, apiKey)
		}
		if settings.Model != "test-model" || settings.MaxTokens != 16 {
			t.Errorf("settings not forwarded: %+v", settings)
		}
		return "Bio.", nil
	}

	text, err := client.Generate(context.Background(), "classify me")
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if text != "Bio." {
		t.Fatalf("unexpected text %q", text)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.Generate(ctx, "x"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestGeminiEmptyCandidates(t *testing.T) {
	t.Parallel()

	client := NewGeminiClient(testConfig(config.ProviderGemini, ""))
	client.prompt = func(string, string, gtypes.RequestSettings) (string, error) {
		return "", ErrEmptyResponse
	}
	if _, err := client.Generate(context.Background(), "x"); !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}

	client.prompt = func(string, string, gtypes.RequestSettings) (string, error) {
		return "  ", nil
	}
	if _, err := client.Generate(context.Background(), "x"); !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("blank text should be ErrEmptyResponse, got %v", err)
	}
}

func TestGeminiMapsAPIError(t *testing.T) {
	t.Parallel()

	client := NewGeminiClient(testConfig(config.ProviderGemini, ""))
	client.prompt = func(string, string, gtypes.RequestSettings) (string, error) {
		return "", fmt.Errorf("calling Google API: %w", &llmerrors.APIError{
			Provider:   "Google",
			StatusCode: http.StatusForbidden,
			Message:    " key rejected\n",
		})
	}

	_, err := client.Generate(context.Background(), "x")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Provider != "gemini" || apiErr.StatusCode != http.StatusForbidden || apiErr.Message != "key rejected" {
		t.Fatalf("unexpected APIError %+v", apiErr)
	}
}

func TestOpenAIDefaultModelUsesLLMKit(t *testing.T) {
	t.Parallel()

	cfg := testConfig(config.ProviderOpenAI, "")
	cfg.Model = otypes.Model
	client := NewOpenAIClient(cfg)
	client.prompt = func(system, user, apiKey string, settings otypes.RequestSettings) (string, error) {
		if system != systemPrompt || user != "prompt" || apiKey != "secret" || settings.MaxTokens != 16 {
			t.Errorf("unexpected call %q %q %q %+v", system, user, apiKey, settings)
		}
		return "Physics", nil
	}

	text, err := client.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if text != "Physics" {
		t.Fatalf("unexpected text %q", text)
	}

	client.prompt = func(string, string, string, otypes.RequestSettings) (string, error) {
		return "", &llmerrors.ValidationError{Field: "apiKey", Message: "API key is required"}
	}
	_, err = client.Generate(context.Background(), "prompt")
	var validation *llmerrors.ValidationError
	if !errors.As(err, &validation) || !strings.Contains(err.Error(), "openai prompt") {
		t.Fatalf("expected wrapped validation error, got %v", err)
	}
}

func TestOpenAICompatibleEndpoint(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header %q", got)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.Model != "test-model" || len(req.Messages) != 1 || req.Messages[0].Role != "user" {
			t.Errorf("unexpected request %+v", req)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Physics"}}]}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(testConfig(config.ProviderOpenAI, server.URL))
	client.prompt = func(string, string, string, otypes.RequestSettings) (string, error) {
		t.Error("custom endpoint must not go through llmkit")
		return "", nil
	}
	text, err := client.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if text != "Physics" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestProviderErrorStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exhausted", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewOpenAIClient(testConfig(config.ProviderOpenAI, server.URL))
	_, err := client.Generate(context.Background(), "prompt")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusTooManyRequests || !strings.Contains(apiErr.Message, "quota") {
		t.Fatalf("unexpected APIError %+v", apiErr)
	}
}

func TestMisconfiguredClient(t *testing.T) {
	t.Parallel()

	cfg := testConfig(config.ProviderGemini, "")
	cfg.APIKey = ""
	if _, err := NewGeminiClient(cfg).Generate(context.Background(), "x"); err == nil {
		t.Fatalf("expected error without api key")
	}
}

func TestAnthropicGenerate(t *testing.T) {
	t.Parallel()

	client := NewAnthropicClient(testConfig(config.ProviderAnthropic, ""))
	client.prompt = func(system, user, apiKey string, settings types.RequestSettings) (string, error) {
		if user != "prompt" || apiKey != "secret" || settings.Model != "test-model" {
			t.Errorf("unexpected call %q %q %+v", user, apiKey, settings)
		}
		return "Chemistry", nil
	}

	text, err := client.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if text != "Chemistry" {
		t.Fatalf("unexpected text %q", text)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.Generate(ctx, "prompt"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewFactory(t *testing.T) {
	t.Parallel()

	for _, provider := range []string{config.ProviderGemini, config.ProviderOpenAI, config.ProviderAnthropic} {
		gen, err := New(testConfig(provider, ""))
		if err != nil || gen == nil {
			t.Fatalf("New(%s) = %v, %v", provider, gen, err)
		}
	}

	if _, err := New(testConfig("unknown", "")); err == nil || !strings.Contains(err.Error(), "unknown") {
		t.Fatalf("expected unsupported provider error, got %v", err)
	}
}
