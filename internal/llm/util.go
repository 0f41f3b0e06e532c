// Package llm - util.go provides shared utilities for LLM response processing.
package llm

import (
	"errors"
	"strings"
)

// ErrNoJSONObject is returned when a response contains no '{'.
var ErrNoJSONObject = errors.New("no JSON object found in response")

// CleanJSONBlock removes markdown code block wrappers from JSON responses.
// LLMs often wrap JSON in ```json ... ``` blocks even when instructed not to.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		return strings.TrimSpace(text)
	}

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		// Skip a language identifier on the first line
		if idx := strings.Index(text, "\n"); idx >= 0 {
			firstLine := text[:idx]
			if len(firstLine) < 20 && !strings.Contains(firstLine, " ") && !strings.Contains(firstLine, "{") {
				text = text[idx+1:]
			}
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		return strings.TrimSpace(text)
	}

	return text
}

// ExtractJSONObject returns the response from its first '{' to the end.
// Leading prose is tolerated; trailing prose is not, so the caller's
// json.Unmarshal fails when the object is not the last thing in the text.
func ExtractJSONObject(text string) (string, error) {
	text = CleanJSONBlock(text)
	idx := strings.Index(text, "{")
	if idx < 0 {
		return "", ErrNoJSONObject
	}
	return strings.TrimSpace(text[idx:]), nil
}

// Truncate returns at most n runes of s without splitting a UTF-8 sequence.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
