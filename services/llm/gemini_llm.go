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
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
)

// modelPrefix is the namespace the catalog puts in front of every model name.
const modelPrefix = "models/"

// GeminiClient talks to the Generative Language REST API.
//
// Description:
//
//	Issues exactly one HTTP call per Attempt or ListModels invocation and
//	never retries. The API version and the model are chosen per call by the
//	caller (the generation router); the client itself only knows the base URL
//	and the key from ProviderConfig.
//
// Thread Safety: GeminiClient is safe for concurrent use.
type GeminiClient struct {
	httpClient *http.Client
	cfg        *ProviderConfig
	logger     *slog.Logger
}

// GeminiOption customizes a GeminiClient.
type GeminiOption func(*GeminiClient)

// WithHTTPClient replaces the default HTTP client (used by tests).
func WithHTTPClient(hc *http.Client) GeminiOption {
	return func(g *GeminiClient) {
		if hc != nil {
			g.httpClient = hc
		}
	}
}

// WithLogger sets the logger used for provider diagnostics.
func WithLogger(logger *slog.Logger) GeminiOption {
	return func(g *GeminiClient) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGeminiClient creates a client bound to cfg.
//
// Inputs:
//   - cfg: Provider configuration. Must not be nil. Not copied; callers must
//     not mutate it afterwards.
//   - opts: Optional overrides.
//
// Outputs:
//   - *GeminiClient: The configured client. Never nil.
func NewGeminiClient(cfg *ProviderConfig, opts ...GeminiOption) *GeminiClient {
	g := &GeminiClient{
		// Per-attempt deadlines come from the request context; this is a
		// backstop for callers that pass context.Background().
		httpClient: &http.Client{Timeout: 2 * cfg.AttemptTimeout},
		cfg:        cfg,
		logger:     slog.Default(),
	}
	if cfg.AttemptTimeout <= 0 {
		g.httpClient.Timeout = 2 * DefaultAttemptTimeout
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Config returns the configuration the client was built with.
func (g *GeminiClient) Config() *ProviderConfig {
	return g.cfg
}

// generateURL builds {base}/{version}/models/{model}:generateContent?key={key}.
func (g *GeminiClient) generateURL(version, model string) string {
	return fmt.Sprintf("%s/%s/models/%s:generateContent?key=%s",
		g.cfg.BaseURL, version, model, url.QueryEscape(g.cfg.APIKey))
}

// catalogURL builds {base}/{version}/models?key={key}.
func (g *GeminiClient) catalogURL(version string) string {
	return fmt.Sprintf("%s/%s/models?key=%s",
		g.cfg.BaseURL, version, url.QueryEscape(g.cfg.APIKey))
}

// geminiRequest is the request payload for generateContent.
type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

// geminiContent is one content block.
type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

// geminiPart is one part of a content block.
type geminiPart struct {
	Text string `json:"text"`
}

// geminiResponse, geminiCandidate and geminiAnswerContent keep every
// element raw so that only the path to the answer text is decoded.
type geminiResponse struct {
	Candidates []json.RawMessage `json:"candidates"`
}

type geminiCandidate struct {
	Content json.RawMessage `json:"content"`
}

type geminiAnswerContent struct {
	Parts []json.RawMessage `json:"parts"`
}

type geminiAnswerPart struct {
	Text json.RawMessage `json:"text"`
}

// geminiModelList is the response of the models listing endpoint.
type geminiModelList struct {
	Models []geminiModel `json:"models"`
}

type geminiModel struct {
	Name                       string   `json:"name"`
	SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
}

// newUserRequest wraps a prompt as a single user turn.
func newUserRequest(prompt string) geminiRequest {
	return geminiRequest{
		Contents: []geminiContent{
			{
				Role:  "user",
				Parts: []geminiPart{{Text: prompt}},
			},
		},
	}
}
