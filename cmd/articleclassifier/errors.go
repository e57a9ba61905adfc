package main

import (
	"errors"
	"net/http"

	"ArticleClassifier/internal/infrastructure/llm"
	"ArticleClassifier/internal/infrastructure/scopus"
	"ArticleClassifier/internal/infrastructure/storage"
	"ArticleClassifier/internal/usecase"
	"ArticleClassifier/internal/wordcloud"
)

// configError marks failures to load or validate the configuration.
type configError struct {
	err error
}

func (e *configError) Error() string { return e.err.Error() }

func (e *configError) Unwrap() error { return e.err }

// exitCodeFor maps a command error to the process exit code.
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var cfgErr *configError
	if errors.As(err, &cfgErr) {
		return ExitConfigError
	}

	if errors.Is(err, scopus.ErrAuth) {
		return ExitAuthError
	}
	var llmErr *llm.APIError
	if errors.As(err, &llmErr) && (llmErr.StatusCode == http.StatusUnauthorized || llmErr.StatusCode == http.StatusForbidden) {
		return ExitAuthError
	}

	if errors.Is(err, scopus.ErrJournalNotFound) {
		return ExitNotFound
	}

	switch {
	case errors.Is(err, storage.ErrMissingDOIColumn),
		errors.Is(err, usecase.ErrNoEligibleArticles),
		errors.Is(err, wordcloud.ErrNoWords):
		return ExitDataError
	}
	return ExitError
}
