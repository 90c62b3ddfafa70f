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
	"regexp"
	"strings"
)

// redactionPattern pairs a compiled regex with its replacement label.
type redactionPattern struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// redactionPatterns is applied in order. The query-parameter rule comes first
// so a key inside a URL is reported as "key=[REDACTED]" rather than by type.
//
// Thread Safety: Initialized once and never modified.
var redactionPatterns = []redactionPattern{
	// API key in a URL query parameter, the way every provider call carries it.
	{
		Pattern:     regexp.MustCompile(`([?&]key=)[^&\s"']+`),
		Replacement: "${1}[REDACTED]",
	},
	// Google API key: AIza<base62, 30+ chars>
	{
		Pattern:     regexp.MustCompile(`AIza[A-Za-z0-9_-]{30,}`),
		Replacement: "[REDACTED:google_key]",
	},
	// Bearer token in Authorization header values
	{
		Pattern:     regexp.MustCompile(`Bearer\s+[A-Za-z0-9._-]{10,}`),
		Replacement: "[REDACTED:bearer_token]",
	},
}

// SafeLogString redacts known secret patterns from a string before logging.
//
// Description:
//
//	Provider calls carry the API key in the URL, and Go's *url.Error embeds
//	that URL in its message. Everything that might contain a URL or a
//	provider error body goes through this function before reaching a log
//	line or a span attribute.
//
// Inputs:
//   - s: The string to redact. Empty string returns empty string.
//
// Outputs:
//   - string: The input with matched secrets replaced.
//
// Examples:
//
//	SafeLogString(`Post "https://host/v1/models/m:generateContent?key=abc123": EOF`)
//	// Returns: `Post "https://host/v1/models/m:generateContent?key=[REDACTED]": EOF`
//
// Limitations:
//   - Pattern-based only. A key that is not in a query string and does not
//     look like a Google key is not caught; use RedactSecret for that.
//
// Thread Safety: This function is safe for concurrent use.
func SafeLogString(s string) string {
	if s == "" {
		return s
	}
	for _, p := range redactionPatterns {
		s = p.Pattern.ReplaceAllString(s, p.Replacement)
	}
	return s
}

// RedactSecret replaces every literal occurrence of secret in s, then applies
// SafeLogString.
func RedactSecret(s, secret string) string {
	if secret != "" {
		s = strings.ReplaceAll(s, secret, "[REDACTED]")
	}
	return SafeLogString(s)
}

// truncate shortens s to at most n bytes for log output.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
