// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package generation routes one prompt across the provider's API versions and
// models until a candidate answers.
package generation

import (
	"strings"

	"github.com/AleutianAI/genrouter/services/llm"
)

// wellKnownVersions are tried after the preferred version, in this order.
var wellKnownVersions = []string{"v1", "v1beta"}

// fallbackModels are tried after the preferred model, in this order.
var fallbackModels = []string{
	"gemini-1.5-flash-latest",
	"gemini-1.5-flash",
	"gemini-1.5-flash-8b",
	"gemini-1.5-pro-latest",
	"gemini-1.5-pro",
	"gemini-1.0-pro",
	"gemini-pro",
}

// WellKnownVersions returns a copy of the fixed API version list.
func WellKnownVersions() []string {
	return append([]string(nil), wellKnownVersions...)
}

// FallbackModels returns a copy of the fixed model fallback list.
func FallbackModels() []string {
	return append([]string(nil), fallbackModels...)
}

// CandidateSpace is the ordered static search space for one request.
type CandidateSpace struct {
	// Versions lists API versions, preferred first, without duplicates.
	Versions []string

	// Models lists model names, preferred first, without duplicates.
	Models []string
}

// BuildCandidateSpace derives the static search space from cfg.
//
// Description:
//
//	Versions are the trimmed preferred version (when non-blank) followed by
//	the well-known versions. Models are the trimmed preferred model (when
//	non-blank) followed by the fallback list. Duplicates are dropped by exact,
//	case-sensitive comparison, keeping the first occurrence.
//
// Inputs:
//   - cfg: Provider configuration. Nil is treated as "no preferences".
//
// Outputs:
//   - CandidateSpace: Never empty.
//
// Thread Safety: Pure function, safe for concurrent use.
func BuildCandidateSpace(cfg *llm.ProviderConfig) CandidateSpace {
	var version, model string
	if cfg != nil {
		version, model = cfg.APIVersion, cfg.Model
	}
	return CandidateSpace{
		Versions: versionsFor(version),
		Models:   orderedUnique(model, fallbackModels),
	}
}

// Candidates expands the space into the phase-one attempt order: versions
// outer, models inner.
func (s CandidateSpace) Candidates() []llm.Candidate {
	out := make([]llm.Candidate, 0, len(s.Versions)*len(s.Models))
	for _, v := range s.Versions {
		for _, m := range s.Models {
			out = append(out, llm.Candidate{APIVersion: v, Model: m})
		}
	}
	return out
}

func versionsFor(preferred string) []string {
	return orderedUnique(preferred, wellKnownVersions)
}

func orderedUnique(preferred string, defaults []string) []string {
	out := make([]string, 0, len(defaults)+1)
	seen := make(map[string]struct{}, len(defaults)+1)
	add := func(s string) {
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	if p := strings.TrimSpace(preferred); p != "" {
		add(p)
	}
	for _, d := range defaults {
		add(d)
	}
	return out
}
