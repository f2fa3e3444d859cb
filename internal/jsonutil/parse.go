// Package jsonutil extracts and decodes JSON from model responses, which may
// arrive wrapped in markdown code fences, surrounded by prose or slightly
// malformed even when a response schema was requested.
package jsonutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/rs/zerolog/log"
)

// ErrNoJSON is returned when the text contains no object or array.
var ErrNoJSON = errors.New("no JSON content found")

// StripMarkdownFences removes a ```json ... ``` (or bare ```) wrapper.
// Text without an opening fence is returned trimmed but otherwise unchanged.
func StripMarkdownFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	lines := strings.Split(text, "\n")
	if len(lines) < 3 {
		return text
	}

	end := len(lines)
	for i := len(lines) - 1; i > 0; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			end = i
			break
		}
	}
	return strings.TrimSpace(strings.Join(lines[1:end], "\n"))
}

// ExtractJSON returns the span from the first '{' or '[' to the last matching
// closing delimiter.
func ExtractJSON(text string) (string, error) {
	text = strings.TrimSpace(text)

	start := strings.IndexAny(text, "{[")
	if start == -1 {
		return "", ErrNoJSON
	}

	closing := "}"
	if text[start] == '[' {
		closing = "]"
	}

	text = text[start:]
	end := strings.LastIndex(text, closing)
	if end == -1 {
		return "", fmt.Errorf("no closing %s found", closing)
	}
	return text[:end+1], nil
}

// ParseJSON strips fences, extracts the JSON span and unmarshals it into T.
// If strict decoding fails the span is run through jsonrepair once before the
// error is reported.
func ParseJSON[T any](raw string) (T, error) {
	var result T

	span, err := ExtractJSON(StripMarkdownFences(raw))
	if err != nil {
		return result, fmt.Errorf("%w (raw length: %d)", err, len(raw))
	}

	strictErr := json.Unmarshal([]byte(span), &result)
	if strictErr == nil {
		return result, nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(span)
	if repairErr == nil {
		var fixed T
		if err := json.Unmarshal([]byte(repaired), &fixed); err == nil {
			log.Debug().
				Int("original_length", len(span)).
				Int("repaired_length", len(repaired)).
				Msg("Decoded model JSON after repair")
			return fixed, nil
		}
	}

	return result, fmt.Errorf("invalid JSON: %w (text: %s)", strictErr, Preview(span, 200))
}

// Preview truncates s to maxLen bytes, appending "..." when cut.
func Preview(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
