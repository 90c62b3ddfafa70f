// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/AleutianAI/genrouter/services/assistant"
	"github.com/AleutianAI/genrouter/services/generation"
	"github.com/AleutianAI/genrouter/services/llm"
)

func newUnconfiguredEngine(t *testing.T) http.Handler {
	t.Helper()
	cfg := llm.DefaultProviderConfig()
	client := llm.NewGeminiClient(&cfg)
	router := generation.NewRouter(&cfg, client, client)
	return newEngine(assistant.NewHandlers(router, &cfg), nil)
}

func TestNewEngine_HealthAndMetrics(t *testing.T) {
	engine := newUnconfiguredEngine(t)

	req, _ := http.NewRequest(http.MethodGet, "/v1/ai/health", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","configured":false}`, w.Body.String())

	req, _ = http.NewRequest(http.MethodGet, "/metrics", nil)
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestNewEngine_UnconfiguredAssistantAnswers(t *testing.T) {
	engine := newUnconfiguredEngine(t)

	req, _ := http.NewRequest(http.MethodPost, "/v1/ai/assistant", strings.NewReader(`{"message":"Merhaba"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), llm.MessageNotConfigured)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestNewEngine_UnversionedPaths(t *testing.T) {
	engine := newUnconfiguredEngine(t)

	req, _ := http.NewRequest(http.MethodGet, "/ai/health", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","configured":false}`, w.Body.String())

	req, _ = http.NewRequest(http.MethodPost, "/ai/club-description", strings.NewReader(`{"clubName":"Satranc"}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), llm.MessageNotConfigured)
}

func TestPrintRouteResult(t *testing.T) {
	res := generation.RouteResult{
		Text:      llm.MessageNoModel,
		ErrorKind: llm.ErrorKindNoCandidateSucceeded,
		Phase:     generation.PhaseDiscovery,
		Attempts: []llm.Candidate{
			{APIVersion: "v1beta", Model: "gemini-pro"},
			{APIVersion: "v1", Model: "gemini-pro"},
		},
	}

	var quiet bytes.Buffer
	printRouteResult(&quiet, res, false)
	assert.Equal(t, llm.MessageNoModel+"\n", quiet.String())

	var verbose bytes.Buffer
	printRouteResult(&verbose, res, true)
	out := verbose.String()
	assert.Contains(t, out, "phase: discovery  error_kind: no_candidate_succeeded  attempts: 2")
	assert.Contains(t, out, "  1. v1beta/gemini-pro")
	assert.Contains(t, out, "  2. v1/gemini-pro")
}

func TestWriteJSON_KeepsNonASCII(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, llm.Suggestion{Title: "Gezi <Kampus>", Description: "ğüş"}))
	assert.Contains(t, buf.String(), `"title": "Gezi <Kampus>"`)
	assert.Contains(t, buf.String(), "ğüş")
}

func TestWithCommandTelemetry_ConsoleExportGoesToStderr(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	prevTP, prevMP := otel.GetTracerProvider(), otel.GetMeterProvider()
	prevStdout := telemetryStdout
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetMeterProvider(prevMP)
		telemetryStdout = prevStdout
	})
	telemetryStdout = true

	var stdout, stderr bytes.Buffer
	cmd := &cobra.Command{Use: "ask"}
	cmd.SetContext(context.Background())
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	err := withCommandTelemetry(cmd, func(ctx context.Context) error {
		_, span := otel.Tracer("test").Start(ctx, "cli-answer-span")
		span.End()
		fmt.Fprintln(cmd.OutOrStdout(), "Merhaba")
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, "Merhaba\n", stdout.String())
	assert.Contains(t, stderr.String(), "cli-answer-span")
}
