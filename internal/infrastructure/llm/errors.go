package llm

import (
	"errors"
	"fmt"
	"strings"

	llmerrors "github.com/aktagon/llmkit/errors"
)

// ErrEmptyResponse is returned when the provider answered without any text.
var ErrEmptyResponse = errors.New("model returned no text")

// APIError represents a non-success response from a model provider.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: API error (status %d)", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s: API error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// providerError maps llmkit failures onto this package's errors so callers
// see one APIError type whichever provider is configured.
func providerError(provider string, err error) error {
	if errors.Is(err, ErrEmptyResponse) {
		return err
	}
	var apiErr *llmerrors.APIError
	if errors.As(err, &apiErr) {
		return &APIError{
			Provider:   provider,
			StatusCode: apiErr.StatusCode,
			Message:    strings.TrimSpace(apiErr.Message),
		}
	}
	return fmt.Errorf("%s prompt: %w", provider, err)
}
