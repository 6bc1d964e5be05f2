// Package strings provides small text and slice helpers
package strings

import (
	std "strings"
	"unicode/utf8"
)

// IfEmpty returns def if in is empty, otherwise returns in
func IfEmpty[T any](in []T, def []T) []T {
	if len(in) == 0 {
		return def
	}
	return in
}

// FirstNonEmpty returns the first argument with non whitespace content, or ""
func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if std.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// RuneLen counts code points, not bytes
func RuneLen(s string) int { return utf8.RuneCountInString(s) }

// Truncate cuts s to at most n runes
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// HasURLPrefix reports whether s starts with http:// or https://, case-insensitively
func HasURLPrefix(s string) bool {
	if len(s) < 7 {
		return false
	}
	head := std.ToLower(s[:min(len(s), 8)])
	return std.HasPrefix(head, "http://") || std.HasPrefix(head, "https://")
}
