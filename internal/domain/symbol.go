package domain

import (
	"regexp"
	"strings"
)

// Symbol is a ticker in normalized form: trimmed and uppercased.
type Symbol string

var symbolRe = regexp.MustCompile(`^[A-Z0-9.\-:/]{1,15}$`)

// NormalizeSymbol trims surrounding whitespace and uppercases s.
// The result is used both as cache key and as the provider query parameter.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ValidateSymbol reports whether s, once normalized, looks like a ticker.
func ValidateSymbol(s string) bool {
	return symbolRe.MatchString(NormalizeSymbol(s))
}
