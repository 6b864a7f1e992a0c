// Package utils provides shared utilities for text, math, and logging.
package utils

import "strings"

// NormalizeKey lowercases and trims s for matching. Display values are never normalized.
func NormalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ContainsKey reports whether the normalized form of s contains key.
// key must already be normalized.
func ContainsKey(s, key string) bool {
	if s == "" {
		return false
	}
	return strings.Contains(strings.ToLower(s), key)
}

// Truncate returns s truncated to maxLen runes, with "..." appended if truncated.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if maxLen <= 0 || len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}

// FirstWord returns the first whitespace-separated word of s (the surname for "Surname Name").
func FirstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
