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
	"errors"
	"fmt"
	"strings"
)

// User-facing messages. These strings are what the application shows to the
// end user, so they are part of the contract and must not change casually.
const (
	MessageNotConfigured   = "AI ayari yapilmamis. Yoneticiye bildirin."
	MessageNotPrepared     = "AI istegi hazirlanamadi."
	MessageUnreachable     = "AI servisine ulasilamadi."
	MessageRetryLater      = "Su an yanit veremiyorum. Daha sonra tekrar deneyin."
	MessageNoModel         = "AI modeli bulunamadi. API ayarlarini kontrol edin."
	messageServiceErrorFmt = "AI servis hatasi (%d)."
)

// ServiceErrorMessage is the message surfaced for a non-404 provider status.
func ServiceErrorMessage(status int) string {
	return fmt.Sprintf(messageServiceErrorFmt, status)
}

// ErrEmptyPrompt is returned by NewGenerationRequest for a blank prompt.
var ErrEmptyPrompt = errors.New("llm: prompt is empty")

// OutputFormat tells the caller how the answer will be post-processed.
// It never changes what is sent to the provider.
type OutputFormat int

const (
	// FormatText returns the answer as free text.
	FormatText OutputFormat = iota
	// FormatSuggestion parses the answer as a title/description/location object.
	FormatSuggestion
)

// String implements fmt.Stringer.
func (f OutputFormat) String() string {
	switch f {
	case FormatSuggestion:
		return "suggestion"
	default:
		return "text"
	}
}

// GenerationRequest is one inbound prompt. Immutable once built.
type GenerationRequest struct {
	prompt string
	format OutputFormat
}

// NewGenerationRequest validates and builds a GenerationRequest.
//
// The prompt is kept verbatim (it is untrusted and may contain any Unicode);
// it only has to be non-blank after trimming.
func NewGenerationRequest(prompt string, format OutputFormat) (GenerationRequest, error) {
	if strings.TrimSpace(prompt) == "" {
		return GenerationRequest{}, ErrEmptyPrompt
	}
	return GenerationRequest{prompt: prompt, format: format}, nil
}

// Prompt returns the prompt text.
func (r GenerationRequest) Prompt() string { return r.prompt }

// Format returns the output-format hint.
func (r GenerationRequest) Format() OutputFormat { return r.format }

// Candidate is one (API version, model) pair. Comparable; used as a set key.
type Candidate struct {
	APIVersion string
	Model      string
}

// String renders the candidate as "version/model".
func (c Candidate) String() string {
	return c.APIVersion + "/" + c.Model
}

// ErrorKind names the failure taxonomy of a generation request.
type ErrorKind string

const (
	ErrorKindNone                 ErrorKind = ""
	ErrorKindNotConfigured        ErrorKind = "not_configured"
	ErrorKindInvalidRequest       ErrorKind = "invalid_request"
	ErrorKindCandidateNotFound    ErrorKind = "candidate_not_found"
	ErrorKindEmptyAnswer          ErrorKind = "empty_answer"
	ErrorKindServiceError         ErrorKind = "service_error"
	ErrorKindConnectivityError    ErrorKind = "connectivity_error"
	ErrorKindUnexpectedError      ErrorKind = "unexpected_error"
	ErrorKindNoCandidateSucceeded ErrorKind = "no_candidate_succeeded"
)

// OutcomeKind tags an Outcome.
type OutcomeKind int

const (
	// OutcomeSuccess carries a usable answer.
	OutcomeSuccess OutcomeKind = iota
	// OutcomeSkip means the candidate is unusable for this key; try the next one.
	OutcomeSkip
	// OutcomeFatal ends the request; Message is shown to the user.
	OutcomeFatal
)

// String implements fmt.Stringer.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeSkip:
		return "skip"
	case OutcomeFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Outcome is the result of one Attempt.
//
// Exactly one of Text (Success) or Message (Fatal) is meaningful; Skip carries
// neither. ErrorKind is empty for Success.
type Outcome struct {
	Kind      OutcomeKind
	Text      string
	Message   string
	ErrorKind ErrorKind
	Status    int
}

// Success builds a Success outcome.
func Success(text string) Outcome {
	return Outcome{Kind: OutcomeSuccess, Text: text}
}

// Skip builds a Skip outcome.
func Skip(kind ErrorKind, status int) Outcome {
	return Outcome{Kind: OutcomeSkip, ErrorKind: kind, Status: status}
}

// Fatal builds a Fatal outcome.
func Fatal(kind ErrorKind, message string) Outcome {
	return Outcome{Kind: OutcomeFatal, ErrorKind: kind, Message: message}
}

// ModelDescriptor is one catalog entry.
type ModelDescriptor struct {
	RawName            string
	SupportsGeneration bool
}
