package scopus

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by the Scopus client.
var (
	// ErrJournalNotFound indicates the ISSN resolved to no serial title.
	ErrJournalNotFound = errors.New("journal not found in Scopus")

	// ErrAuth indicates a missing or rejected API key.
	ErrAuth = errors.New("Scopus authentication error")

	// ErrRateLimited indicates the API quota was exceeded.
	ErrRateLimited = errors.New("Scopus rate limit exceeded")

	errMalformed = errors.New("malformed Scopus payload")
)

// APIError represents a non-success response from an Elsevier endpoint.
type APIError struct {
	StatusCode int
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Scopus %s returned status %d", e.Endpoint, e.StatusCode)
}

// IsNotFound returns true if the error indicates an unknown journal or resource.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrJournalNotFound) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return false
}

func checkStatus(resp *http.Response, endpoint string) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %w", ErrAuth, &APIError{StatusCode: resp.StatusCode, Endpoint: endpoint})
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", ErrRateLimited, &APIError{StatusCode: resp.StatusCode, Endpoint: endpoint})
	default:
		return &APIError{StatusCode: resp.StatusCode, Endpoint: endpoint}
	}
}
