package utils

import (
	"regexp"
	"strings"
)

var nonKeyChars = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// NormalizeCategoryKey maps free text to a category key: every character
// outside [a-zA-Z0-9_] becomes '_', the result is lowercased and trimmed.
// Runs of underscores are kept, so "Fee-Type!" becomes "fee_type_".
func NormalizeCategoryKey(s string) string {
	return strings.TrimSpace(strings.ToLower(nonKeyChars.ReplaceAllString(s, "_")))
}

// ValueKey is the case-insensitive identity of a dropdown value.
func ValueKey(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
