package stringsx

import (
	"strings"
	"unicode/utf8"
)

// Clip returns at most max characters of s.
// If max <= 0, an empty string is returned.
func Clip(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

// Normalize trims spaces and converts a string to lower case.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// IsEmpty reports whether s is empty after trimming spaces.
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Len counts the characters of s.
func Len(s string) int {
	return utf8.RuneCountInString(s)
}

// Words counts whitespace separated words.
func Words(s string) int {
	return len(strings.Fields(s))
}
