package llm

import (
	"strings"
	"unicode/utf8"
)

// MaxInputChars caps the CV or vacancy text placed into a prompt.
const MaxInputChars = 120_000

// TruncationMarker is appended to text cut by Truncate.
const TruncationMarker = "\n\n[...truncated for processing...]"

// Truncate cuts text to limit characters and marks the cut.
func Truncate(text string, limit int) (out string) {
	if utf8.RuneCountInString(text) <= limit {
		out = text
		return out
	}

	runes := []rune(text)
	out = string(runes[:limit]) + TruncationMarker
	return out
}

// CleanText trims generated text and removes a surrounding markdown code fence.
func CleanText(text string) (cleaned string) {
	cleaned = strings.TrimSpace(text)

	if !strings.HasPrefix(cleaned, "```") {
		return cleaned
	}

	// Drop the opening fence line, including any language tag.
	newline := strings.IndexByte(cleaned, '\n')
	if newline < 0 {
		cleaned = strings.TrimSpace(strings.Trim(cleaned, "`"))
		return cleaned
	}
	cleaned = cleaned[newline+1:]

	cleaned = strings.TrimRight(cleaned, " \t\r\n")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	return cleaned
}
