package main

// Exit codes returned by articleclassifier.
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (unreadable or invalid config)
	ExitDataError   = 3 // Data error (malformed article file, nothing to draw)
	ExitAuthError   = 4 // Missing or rejected Scopus or model API key
	ExitNotFound    = 5 // Journal not found in Scopus
)
