// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package assistant

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AleutianAI/genrouter/services/llm"
)

// requestIDHeader carries the correlation ID on requests and responses.
const requestIDHeader = "X-Request-ID"

// requestIDKey is the gin context key holding the request ID.
const requestIDKey = "request_id"

// Generator is the part of the generation router the handlers use.
type Generator interface {
	Generate(ctx context.Context, prompt string) string
	GenerateSuggestion(ctx context.Context, prompt string) llm.Suggestion
	ListCatalog(ctx context.Context, versionHint string) map[string][]string
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ClubRequest is the body of the club description and event suggestion
// endpoints.
type ClubRequest struct {
	ClubName string `json:"clubName"`
}

// AssistantRequest is the body of the assistant endpoint.
type AssistantRequest struct {
	Message string `json:"message"`
}

// ClubDescriptionResponse carries a generated club description.
type ClubDescriptionResponse struct {
	Description string `json:"description"`
}

// AssistantResponse carries the assistant's reply.
type AssistantResponse struct {
	Reply string `json:"reply"`
}

// HealthResponse reports liveness and whether a provider key is configured.
type HealthResponse struct {
	Status     string `json:"status"`
	Configured bool   `json:"configured"`
}

// Handlers serves the /ai endpoints.
//
// Thread Safety: Safe for concurrent use. Handlers holds no mutable state.
type Handlers struct {
	gen        Generator
	configured bool
}

// NewHandlers creates the AI handlers.
//
// Inputs:
//   - gen: The generation router. Must not be nil.
//   - cfg: Provider configuration, used only for the health report.
func NewHandlers(gen Generator, cfg *llm.ProviderConfig) *Handlers {
	return &Handlers{gen: gen, configured: cfg.IsConfigured()}
}

// HandleClubDescription generates a short description for a club.
//
// Request Body: ClubRequest
//
// Response:
//
//	200 OK: ClubDescriptionResponse. Provider failures are reported as the
//	        description text, never as an HTTP error.
//	400 Bad Request: Malformed JSON body
func (h *Handlers) HandleClubDescription(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleClubDescription")

	var req ClubRequest
	if !bindJSON(c, &req) {
		return
	}

	text := h.gen.Generate(c.Request.Context(), ClubDescriptionPrompt(req.ClubName))
	logger.Debug("Club description generated", slog.Int("length", len(text)))
	c.JSON(http.StatusOK, ClubDescriptionResponse{Description: text})
}

// HandleEventSuggestion generates one event idea for a club.
//
// Request Body: ClubRequest
//
// Response:
//
//	200 OK: llm.Suggestion. An answer that is not a JSON object becomes the
//	        description under the fallback title.
//	400 Bad Request: Malformed JSON body
func (h *Handlers) HandleEventSuggestion(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleEventSuggestion")

	var req ClubRequest
	if !bindJSON(c, &req) {
		return
	}

	suggestion := h.gen.GenerateSuggestion(c.Request.Context(), EventSuggestionPrompt(req.ClubName))
	logger.Debug("Event suggestion generated", slog.String("title", suggestion.Title))
	c.JSON(http.StatusOK, suggestion)
}

// HandleAssistant answers a visitor question about the site.
//
// Request Body: AssistantRequest
//
// Response:
//
//	200 OK: AssistantResponse
//	400 Bad Request: Malformed JSON body or blank message
func (h *Handlers) HandleAssistant(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleAssistant")

	var req AssistantRequest
	if !bindJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "message is required",
			Code:  "MISSING_PARAMETER",
		})
		return
	}

	reply := h.gen.Generate(c.Request.Context(), AssistantPrompt(req.Message))
	logger.Debug("Assistant replied", slog.Int("length", len(reply)))
	c.JSON(http.StatusOK, AssistantResponse{Reply: reply})
}

// HandleModels lists the generation-capable models per API version.
//
// Query Parameters:
//
//	version: Extra API version to list before the well-known ones (optional)
//
// Response:
//
//	200 OK: map of version to raw model names
func (h *Handlers) HandleModels(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleModels")

	catalog := h.gen.ListCatalog(c.Request.Context(), c.Query("version"))
	logger.Debug("Model catalog listed", slog.Int("versions", len(catalog)))
	c.JSON(http.StatusOK, catalog)
}

// HandleHealth reports liveness.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Configured: h.configured})
}

// bindJSON decodes the request body into dst, writing a 400 on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid request body: " + err.Error(),
			Code:  "INVALID_REQUEST",
		})
		return false
	}
	return true
}

// getOrCreateRequestID returns the request ID set by RequestID middleware,
// the inbound header, or a fresh UUID.
func getOrCreateRequestID(c *gin.Context) string {
	if v, ok := c.Get(requestIDKey); ok {
		if id, ok := v.(string); ok && id != "" {
			return id
		}
	}
	id := c.GetHeader(requestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	c.Set(requestIDKey, id)
	c.Header(requestIDHeader, id)
	return id
}
