// Package hscode holds the format rules for Harmonized System codes.
package hscode

import (
	"regexp"
	"strings"

	"github.com/tradelens/hts-tracker/internal/tracker/model"
)

const (
	PrefixLength    = 6
	TrackableLength = 10
)

// Go's \d is ASCII-only, so Unicode digits are rejected rather than coerced.
var (
	searchPattern    = regexp.MustCompile(`^\d{6}(\d{4})?$`)
	trackablePattern = regexp.MustCompile(`^\d{10}$`)
)

// ValidateSearch accepts exactly 6 or exactly 10 digits. The input is not trimmed.
func ValidateSearch(code string) error {
	if !searchPattern.MatchString(code) {
		return model.NewError(model.KindInvalidFormat, "HTS code must be 6 or 10 digits", nil)
	}
	return nil
}

// ValidateTrackable trims surrounding whitespace and accepts exactly 10 digits.
// It returns the trimmed code.
func ValidateTrackable(code string) (string, error) {
	trimmed := strings.TrimSpace(code)
	if !trackablePattern.MatchString(trimmed) {
		return "", model.NewError(model.KindInvalidFormat, "Invalid HTS code format. Must be exactly 10 digits.", nil)
	}
	return trimmed, nil
}

// IsPrefix reports whether a validated search query should match as a prefix.
func IsPrefix(code string) bool {
	return len(code) == PrefixLength
}

// SearchPattern returns the SQL LIKE pattern for a validated search query.
func SearchPattern(code string) string {
	if IsPrefix(code) {
		return code + "%"
	}
	return code
}
