package codegen

import (
	"strings"
	"unicode"
)

// Identifier derives the canonical identifier for a collection name:
// surrounding whitespace trimmed, lowercased, internal whitespace runs
// collapsed to single underscores, first character uppercased. Every
// fragment derives per-collection names through this function so the
// same collection always yields the same identifier.
func Identifier(name string) string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(name)))
	joined := strings.Join(fields, "_")
	if joined == "" {
		return ""
	}
	runes := []rune(joined)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
