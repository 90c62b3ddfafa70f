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
	"bytes"
	"encoding/json"
	"strings"
)

// ExtractText returns the text of the first part of the first candidate.
//
// Description:
//
//	Reads candidates[0].content.parts[0].text from a generateContent response
//	body. Only the elements on that path are decoded, so sibling candidates,
//	parts and fields of any shape are ignored. A missing or wrongly typed
//	segment, or an unparsable body, yields the empty string, never an error.
//
// Inputs:
//   - body: Raw response body. May be nil or empty.
//
// Outputs:
//   - string: The trimmed text, or "".
//
// Thread Safety: This function is safe for concurrent use.
func ExtractText(body []byte) string {
	if len(bytes.TrimSpace(body)) == 0 {
		return ""
	}

	var resp geminiResponse
	if err := json.Unmarshal(body, &resp); err != nil || len(resp.Candidates) == 0 {
		return ""
	}

	var candidate geminiCandidate
	if err := json.Unmarshal(resp.Candidates[0], &candidate); err != nil || len(candidate.Content) == 0 {
		return ""
	}

	var content geminiAnswerContent
	if err := json.Unmarshal(candidate.Content, &content); err != nil || len(content.Parts) == 0 {
		return ""
	}

	var part geminiAnswerPart
	if err := json.Unmarshal(content.Parts[0], &part); err != nil || len(part.Text) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(part.Text, &text); err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}
