package domain

import (
	"regexp"
	"strconv"
	"strings"
)

var digitRun = regexp.MustCompile(`\d+`)

// ParseCitationCount converts a citation count that crossed a text boundary
// (CSV cell, API string). A clean integer parses directly; otherwise the first
// run of digits is used. When nothing usable remains it returns 0 and false.
func ParseCitationCount(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}

	if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
		return n, true
	}

	match := digitRun.FindString(raw)
	if match == "" {
		return 0, false
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	return n, true
}
