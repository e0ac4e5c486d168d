package util

import (
	"strings"
	"unicode/utf8"
)

// Truncate cuts value to at most limit runes.
func Truncate(value string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(value) <= limit {
		return value
	}
	runes := []rune(value)
	return string(runes[:limit])
}

// CollapseWhitespace replaces every run of whitespace with a single space
// and trims the result. Invalid UTF-8 is dropped.
func CollapseWhitespace(value string) string {
	value = strings.ToValidUTF8(value, "")
	return strings.Join(strings.Fields(value), " ")
}

// Slugify lowercases value and joins its alphanumeric words with hyphens.
func Slugify(value string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(value) {
		isWord := r == '_' || ('a' <= r && r <= 'z') || ('0' <= r && r <= '9') || r > utf8.RuneSelf
		if !isWord {
			pendingDash = b.Len() > 0
			continue
		}
		if pendingDash {
			b.WriteByte('-')
			pendingDash = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
