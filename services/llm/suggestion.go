// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import (
	"encoding/json"
	"strings"
	"unicode"
)

// FallbackSuggestionTitle is the title used when the answer is not structured.
const FallbackSuggestionTitle = "Etkinlik Onerisi"

const codeFence = "```"

// Suggestion is a structured event suggestion.
type Suggestion struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

// FallbackSuggestion wraps raw text as the description of a generic suggestion.
func FallbackSuggestion(text string) Suggestion {
	return Suggestion{
		Title:       FallbackSuggestionTitle,
		Description: text,
		Location:    "",
	}
}

// ParseSuggestion parses a model answer into a Suggestion.
//
// Description:
//
//	Models often wrap JSON in a Markdown code fence, so a leading fence
//	(with an optional language tag such as "json") is removed first along
//	with the last closing fence and anything after it. The remainder must
//	start with a JSON object; trailing text after the object is ignored.
//	Title, description and location are taken when they are strings and
//	default to "" otherwise.
//
// Inputs:
//   - text: The extracted model answer.
//
// Outputs:
//   - Suggestion: The parsed fields (zero value when ok is false).
//   - bool: False when the remainder is not a JSON object.
//
// Examples:
//
//	ParseSuggestion("```json\n{\"title\":\"A\",\"description\":\"B\",\"location\":\"C\"}\n```")
//	// Returns: Suggestion{"A", "B", "C"}, true
//
//	ParseSuggestion("not json")
//	// Returns: Suggestion{}, false
//
// Thread Safety: This function is safe for concurrent use.
func ParseSuggestion(text string) (Suggestion, bool) {
	cleaned := stripCodeFence(text)
	if cleaned == "" {
		return Suggestion{}, false
	}

	var obj map[string]any
	if err := json.NewDecoder(strings.NewReader(cleaned)).Decode(&obj); err != nil || obj == nil {
		return Suggestion{}, false
	}

	return Suggestion{
		Title:       stringField(obj, "title"),
		Description: stringField(obj, "description"),
		Location:    stringField(obj, "location"),
	}, true
}

// stripCodeFence removes one surrounding Markdown code fence, if present,
// dropping any text after the closing fence.
func stripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, codeFence) {
		return s
	}

	s = strings.TrimPrefix(s, codeFence)
	s = stripLanguageTag(s)
	if end := strings.LastIndex(s, codeFence); end >= 0 {
		s = s[:end]
	}
	return strings.TrimSpace(s)
}

// stripLanguageTag drops an info string like "json" that directly follows
// the opening fence. A tag is a run of letters, digits, '-', '_' or '+'.
func stripLanguageTag(s string) string {
	end := 0
	for end < len(s) {
		r := rune(s[end])
		if r >= unicode.MaxASCII {
			break
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '+' {
			end++
			continue
		}
		break
	}
	return s[end:]
}

func stringField(obj map[string]any, key string) string {
	if v, ok := obj[key].(string); ok {
		return v
	}
	return ""
}
