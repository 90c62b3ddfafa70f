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
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/AleutianAI/genrouter/services/llm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeGenerator records prompts and returns canned answers.
type fakeGenerator struct {
	mu         sync.Mutex
	prompts    []string
	reply      string
	suggestion llm.Suggestion
	catalog    map[string][]string
	hint       string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.reply
}

func (f *fakeGenerator) GenerateSuggestion(_ context.Context, prompt string) llm.Suggestion {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.suggestion
}

func (f *fakeGenerator) ListCatalog(_ context.Context, versionHint string) map[string][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hint = versionHint
	return f.catalog
}

func setupTestRouter(gen Generator, limiter *rate.Limiter) *gin.Engine {
	cfg := llm.DefaultProviderConfig()
	cfg.APIKey = "k"
	router := gin.New()
	RegisterRoutes(router.Group("/v1"), NewHandlers(gen, &cfg), limiter)
	return router
}

func postJSON(t *testing.T, router http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleClubDescription(t *testing.T) {
	gen := &fakeGenerator{reply: "Satranc kulubu strateji sever."}
	router := setupTestRouter(gen, nil)

	w := postJSON(t, router, "/v1/ai/club-description", `{"clubName":"  Satranc  "}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp ClubDescriptionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Satranc kulubu strateji sever.", resp.Description)
	require.Len(t, gen.prompts, 1)
	assert.Equal(t, "Kulup adi: Satranc. 2-3 cumlelik kisa ve net bir kulup aciklamasi yaz. Sadece aciklama metnini ver.", gen.prompts[0])
}

func TestHandleClubDescription_FailureIsStill200(t *testing.T) {
	gen := &fakeGenerator{reply: llm.MessageNotConfigured}
	router := setupTestRouter(gen, nil)

	w := postJSON(t, router, "/v1/ai/club-description", `{}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), llm.MessageNotConfigured)
}

func TestHandleEventSuggestion(t *testing.T) {
	gen := &fakeGenerator{suggestion: llm.Suggestion{Title: "A", Description: "B", Location: "C"}}
	router := setupTestRouter(gen, nil)

	w := postJSON(t, router, "/v1/ai/event-suggestion", `{"clubName":"Doga"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"title":"A","description":"B","location":"C"}`, w.Body.String())
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Kulup adi: Doga.")
	assert.True(t, strings.HasSuffix(gen.prompts[0], `{"title":"...","description":"...","location":"..."}.`))
}

func TestHandleAssistant(t *testing.T) {
	gen := &fakeGenerator{reply: "Aidatlar Aidat sayfasindan odenir."}
	router := setupTestRouter(gen, nil)

	w := postJSON(t, router, "/v1/ai/assistant", `{"message":" Aidat nasil odenir? "}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"reply":"Aidatlar Aidat sayfasindan odenir."}`, w.Body.String())
	require.Len(t, gen.prompts, 1)
	assert.True(t, strings.HasSuffix(gen.prompts[0], "Soru: Aidat nasil odenir?"))
	assert.True(t, strings.HasPrefix(gen.prompts[0], "Sen Kulup Yonetimi sitesinin yapay zeka asistanisin."))
}

func TestHandleAssistant_BlankMessage(t *testing.T) {
	gen := &fakeGenerator{}
	router := setupTestRouter(gen, nil)

	w := postJSON(t, router, "/v1/ai/assistant", `{"message":"   "}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "MISSING_PARAMETER", resp.Code)
	assert.Empty(t, gen.prompts)
}

func TestHandlers_MalformedBody(t *testing.T) {
	for _, path := range []string{"/v1/ai/club-description", "/v1/ai/event-suggestion", "/v1/ai/assistant"} {
		t.Run(path, func(t *testing.T) {
			gen := &fakeGenerator{}
			router := setupTestRouter(gen, nil)

			w := postJSON(t, router, path, `{"clubName":`)

			require.Equal(t, http.StatusBadRequest, w.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "INVALID_REQUEST", resp.Code)
			assert.Empty(t, gen.prompts)
		})
	}
}

func TestHandleModels(t *testing.T) {
	gen := &fakeGenerator{catalog: map[string][]string{"v1": {"models/gemini-pro"}, "v1beta": {}}}
	router := setupTestRouter(gen, nil)

	req, _ := http.NewRequest(http.MethodGet, "/v1/ai/models?version=v2", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"v1":["models/gemini-pro"],"v1beta":[]}`, w.Body.String())
	assert.Equal(t, "v2", gen.hint)
}

func TestHandleHealth(t *testing.T) {
	router := setupTestRouter(&fakeGenerator{}, nil)

	req, _ := http.NewRequest(http.MethodGet, "/v1/ai/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","configured":true}`, w.Body.String())
}

func TestRequestID_EchoedOrGenerated(t *testing.T) {
	router := setupTestRouter(&fakeGenerator{}, nil)

	req, _ := http.NewRequest(http.MethodGet, "/v1/ai/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))

	req, _ = http.NewRequest(http.MethodGet, "/v1/ai/health", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Len(t, w.Header().Get("X-Request-ID"), 36)
}

func TestPrompts(t *testing.T) {
	assert.Equal(t,
		`Bir universite kulubu icin etkinlik onerisi ver. Kulup adi: Muzik. Cevabi sadece JSON olarak ver: {"title":"...","description":"...","location":"..."}.`,
		EventSuggestionPrompt(" Muzik "))
	assert.Equal(t,
		"Sen Kulup Yonetimi sitesinin yapay zeka asistanisin. Kisa ve net cevap ver. Sadece site ozellikleri, roller (Uye/Baskan/Admin), kulup uyeligi, etkinlikler, gorevler ve aidatlar hakkinda bilgi ver. Site disi sorulari nazikce reddet. Soru: Nasil uye olurum?",
		AssistantPrompt("Nasil uye olurum?"))
}
