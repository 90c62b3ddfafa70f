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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// generationMethod is the capability a catalog entry must list to be usable.
const generationMethod = "generateContent"

// ListModels fetches the provider catalog for one API version.
//
// Description:
//
//	Calls GET {base}/{version}/models?key={key} and returns one descriptor per
//	named entry, with SupportsGeneration set when the entry lists
//	generateContent (case-insensitive) among its supported methods.
//
// Inputs:
//   - ctx: Context for cancellation. The call is bounded by AttemptTimeout.
//   - version: API version path segment.
//
// Outputs:
//   - []ModelDescriptor: Catalog entries in provider order.
//   - error: Non-nil on transport failure, non-2xx status or a malformed body.
//
// Thread Safety: This method is safe for concurrent use.
func (g *GeminiClient) ListModels(ctx context.Context, version string) ([]ModelDescriptor, error) {
	ctx, span := otel.Tracer(providerTracerName).Start(ctx, "llm.GeminiClient.ListModels",
		trace.WithAttributes(attribute.String("api_version", version)),
	)
	defer span.End()

	start := time.Now()
	descriptors, err := g.listModels(ctx, version)
	generation := 0
	for _, d := range descriptors {
		if d.SupportsGeneration {
			generation++
		}
	}
	recordCatalogMetrics(version, time.Since(start), generation, err)

	if err != nil {
		msg := RedactSecret(err.Error(), g.cfg.APIKey)
		span.RecordError(errors.New(msg))
		span.SetStatus(codes.Error, msg)
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("models", len(descriptors)),
		attribute.Int("generation_models", generation),
	)
	return descriptors, nil
}

func (g *GeminiClient) listModels(ctx context.Context, version string) ([]ModelDescriptor, error) {
	timeout := g.cfg.AttemptTimeout
	if timeout <= 0 {
		timeout = DefaultAttemptTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, g.catalogURL(version), nil)
	if err != nil {
		return nil, fmt.Errorf("gemini: creating catalog request: %w", err)
	}

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gemini: catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("gemini: reading catalog body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("gemini: catalog returned status %d: %s",
			resp.StatusCode, truncate(RedactSecret(string(body), g.cfg.APIKey), 512))
	}

	var list geminiModelList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("gemini: parsing catalog JSON: %w", err)
	}

	descriptors := make([]ModelDescriptor, 0, len(list.Models))
	for _, m := range list.Models {
		name := strings.TrimSpace(m.Name)
		if name == "" {
			continue
		}
		descriptors = append(descriptors, ModelDescriptor{
			RawName:            name,
			SupportsGeneration: supportsGeneration(m.SupportedGenerationMethods),
		})
	}
	return descriptors, nil
}

// ListGenerationModels returns the catalog entries usable for generation.
//
// Description:
//
//	Wraps ListModels for the router's discovery phase. Discovery must degrade
//	gracefully, so every error is logged and turned into an empty result.
//	Entries without generateContent support are dropped. A blank API key
//	returns nothing without calling out.
//
// Inputs:
//   - ctx: Context for cancellation.
//   - version: API version path segment.
//
// Outputs:
//   - []ModelDescriptor: Generation-capable entries; empty on any error.
//
// Thread Safety: This method is safe for concurrent use.
func (g *GeminiClient) ListGenerationModels(ctx context.Context, version string) []ModelDescriptor {
	if !g.cfg.IsConfigured() {
		return nil
	}

	all, err := g.ListModels(ctx, version)
	if err != nil {
		g.logger.Warn("AI model list error",
			slog.String("api_version", version),
			slog.String("error", RedactSecret(err.Error(), g.cfg.APIKey)),
		)
		return nil
	}

	usable := make([]ModelDescriptor, 0, len(all))
	for _, d := range all {
		if d.SupportsGeneration {
			usable = append(usable, d)
		}
	}
	return usable
}

// StripModelPrefix trims name and removes the catalog's "models/" namespace.
func StripModelPrefix(name string) string {
	return strings.TrimPrefix(strings.TrimSpace(name), modelPrefix)
}

func supportsGeneration(methods []string) bool {
	for _, m := range methods {
		if strings.EqualFold(strings.TrimSpace(m), generationMethod) {
			return true
		}
	}
	return false
}
