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
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// maxResponseBytes caps how much of a provider response body is read.
const maxResponseBytes = 8 << 20

// Attempt issues one generateContent call for candidate c and classifies it.
//
// Description:
//
//	Only HTTP 404 means "this version/model does not exist for this key" and
//	yields a Skip. Every other failure is assumed to hit all candidates alike
//	and yields a Fatal with the user-facing message for its kind:
//
//	  404                     -> Skip(CandidateNotFound)
//	  other non-2xx           -> Fatal(ServiceError, "AI servis hatasi (<status>).")
//	  transport failure       -> Fatal(ConnectivityError, "AI servisine ulasilamadi.")
//	  request not buildable   -> Fatal(UnexpectedError, ...)
//	  2xx with text           -> Success(text)
//	  2xx without text        -> Skip(EmptyAnswer)
//
//	The call is bounded by ProviderConfig.AttemptTimeout and is never retried.
//
// Inputs:
//   - ctx: Parent context. Its cancellation surfaces as ConnectivityError.
//   - c: The candidate to call.
//   - req: The generation request.
//
// Outputs:
//   - Outcome: Never a zero value; always one of Success, Skip, Fatal.
//
// Thread Safety: This method is safe for concurrent use.
func (g *GeminiClient) Attempt(ctx context.Context, c Candidate, req GenerationRequest) Outcome {
	ctx, span := otel.Tracer(providerTracerName).Start(ctx, "llm.GeminiClient.Attempt",
		trace.WithAttributes(
			attribute.String("api_version", c.APIVersion),
			attribute.String("model", c.Model),
			attribute.Int("prompt_len", len(req.Prompt())),
		),
	)
	defer span.End()

	start := time.Now()
	out := g.attempt(ctx, c, req)
	duration := time.Since(start)

	recordAttemptMetrics(c.APIVersion, duration, out)
	span.SetAttributes(
		attribute.String("outcome", out.Kind.String()),
		attribute.String("error_kind", errorKindLabel(out.ErrorKind)),
		attribute.Int("http.status_code", out.Status),
	)
	if out.Kind == OutcomeFatal {
		span.SetStatus(codes.Error, string(out.ErrorKind))
	}
	return out
}

func (g *GeminiClient) attempt(ctx context.Context, c Candidate, req GenerationRequest) Outcome {
	logger := g.logger.With(
		slog.String("api_version", c.APIVersion),
		slog.String("model", c.Model),
	)

	body, err := json.Marshal(newUserRequest(req.Prompt()))
	if err != nil {
		logger.Warn("AI request could not be serialized", slog.String("error", err.Error()))
		return Fatal(ErrorKindUnexpectedError, MessageNotPrepared)
	}

	timeout := g.cfg.AttemptTimeout
	if timeout <= 0 {
		timeout = DefaultAttemptTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.generateURL(c.APIVersion, c.Model), bytes.NewReader(body))
	if err != nil {
		logger.Warn("AI unexpected error", slog.String("error", RedactSecret(err.Error(), g.cfg.APIKey)))
		return Fatal(ErrorKindUnexpectedError, MessageRetryLater)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	logger.Debug("Sending generateContent request", slog.Int("body_len", len(body)))

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		logger.Warn("AI network error", slog.String("error", RedactSecret(err.Error(), g.cfg.APIKey)))
		return Fatal(ErrorKindConnectivityError, MessageUnreachable)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		logger.Warn("AI network error reading response", slog.String("error", RedactSecret(err.Error(), g.cfg.APIKey)))
		return Fatal(ErrorKindConnectivityError, MessageUnreachable)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		logger.Warn("AI model not found")
		return Skip(ErrorKindCandidateNotFound, resp.StatusCode)

	case resp.StatusCode < 200 || resp.StatusCode > 299:
		logger.Warn("AI error status",
			slog.Int("status", resp.StatusCode),
			slog.String("body", truncate(RedactSecret(string(respBody), g.cfg.APIKey), 512)),
		)
		out := Fatal(ErrorKindServiceError, ServiceErrorMessage(resp.StatusCode))
		out.Status = resp.StatusCode
		return out
	}

	text := ExtractText(respBody)
	if text == "" {
		logger.Warn("AI returned no text, trying next candidate", slog.Int("status", resp.StatusCode))
		return Skip(ErrorKindEmptyAnswer, resp.StatusCode)
	}

	logger.Debug("Received generateContent response", slog.Int("response_len", len(text)))
	out := Success(text)
	out.Status = resp.StatusCode
	return out
}
