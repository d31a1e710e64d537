package utils

import (
	"strings"
	"unicode/utf8"
)

// LastNonEmptyLine returns the last line of s that is not blank, trimmed.
// Returns "" when every line is blank.
func LastNonEmptyLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

// Truncate shortens s to at most maxLen bytes, marking the cut with "...".
// The cut never splits a UTF-8 sequence.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:runeBoundary(s, maxLen)]
	}
	return s[:runeBoundary(s, maxLen-3)] + "..."
}

// ShortID returns at most the first n bytes of an identifier for display,
// without splitting a UTF-8 sequence.
func ShortID(id string, n int) string {
	if len(id) <= n {
		return id
	}
	return id[:runeBoundary(id, n)]
}

// runeBoundary moves i back to the start of the rune it falls in.
func runeBoundary(s string, i int) int {
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}
