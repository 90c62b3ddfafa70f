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
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalog = `{"models":[
  {"name":"models/gemini-2.0-flash","supportedGenerationMethods":["generateContent","countTokens"]},
  {"name":"models/embedding-001","supportedGenerationMethods":["embedContent"]},
  {"name":"models/gemini-pro","supportedGenerationMethods":["GENERATECONTENT"]},
  {"name":"   ","supportedGenerationMethods":["generateContent"]},
  {"name":"models/aqa"}
]}`

func TestListModels_ParsesCatalog(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1beta/models", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		_, _ = w.Write([]byte(testCatalog))
	})

	models, err := client.ListModels(context.Background(), "v1beta")
	require.NoError(t, err)

	assert.Equal(t, []ModelDescriptor{
		{RawName: "models/gemini-2.0-flash", SupportsGeneration: true},
		{RawName: "models/embedding-001", SupportsGeneration: false},
		{RawName: "models/gemini-pro", SupportsGeneration: true},
		{RawName: "models/aqa", SupportsGeneration: false},
	}, models)
}

func TestListModels_ErrorStatus(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"message":"API key test-key not valid"}}`))
	})

	_, err := client.ListModels(context.Background(), "v1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.NotContains(t, err.Error(), "test-key")
}

func TestListModels_MalformedBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"models":`))
	})

	_, err := client.ListModels(context.Background(), "v1")
	assert.Error(t, err)
}

func TestListGenerationModels_FiltersToGeneration(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(testCatalog))
	})

	models := client.ListGenerationModels(context.Background(), "v1beta")
	require.Len(t, models, 2)
	assert.Equal(t, "models/gemini-2.0-flash", models[0].RawName)
	assert.Equal(t, "models/gemini-pro", models[1].RawName)
}

func TestListGenerationModels_ErrorIsEmpty(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	assert.Empty(t, client.ListGenerationModels(context.Background(), "v1"))
}

func TestListGenerationModels_BlankKeyMakesNoCall(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(testCatalog))
	})
	client.cfg.APIKey = "  "

	assert.Empty(t, client.ListGenerationModels(context.Background(), "v1"))
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestStripModelPrefix(t *testing.T) {
	tests := map[string]string{
		"models/gemini-pro":   "gemini-pro",
		" models/gemini-pro ": "gemini-pro",
		"gemini-pro":          "gemini-pro",
		"tunedModels/x":       "tunedModels/x",
		"":                    "",
	}
	for in, want := range tests {
		assert.Equal(t, want, StripModelPrefix(in), "StripModelPrefix(%q)", in)
	}
}
