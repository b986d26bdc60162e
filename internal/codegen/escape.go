package codegen

import "strings"

// Escape prepares arbitrary text for embedding inside a double-quoted
// source constant. Backslash must be escaped before quote and newline;
// the reverse order double-escapes.
func Escape(text string) string {
	text = strings.ReplaceAll(text, `\`, `\\`)
	text = strings.ReplaceAll(text, `"`, `\"`)
	text = strings.ReplaceAll(text, "\n", `\n`)
	return text
}
