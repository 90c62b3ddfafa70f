// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package generation

import "github.com/AleutianAI/genrouter/services/llm"

// attemptLedger records the candidates tried during one Route call.
// It is owned by a single call and never shared.
type attemptLedger struct {
	tried map[llm.Candidate]struct{}
	order []llm.Candidate
}

func newAttemptLedger() *attemptLedger {
	return &attemptLedger{tried: make(map[llm.Candidate]struct{})}
}

// tryAdd marks c as tried. It returns false if c was already tried.
func (l *attemptLedger) tryAdd(c llm.Candidate) bool {
	if _, ok := l.tried[c]; ok {
		return false
	}
	l.tried[c] = struct{}{}
	l.order = append(l.order, c)
	return true
}

func (l *attemptLedger) attempts() []llm.Candidate {
	return append([]llm.Candidate(nil), l.order...)
}
