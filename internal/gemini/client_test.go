// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/agent-architect/internal/analyzer"
	"github.com/jeranaias/agent-architect/internal/model"
)

func TestClient_NotConfiguredFailsFast(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL})
	_, err := c.Analyze(context.Background(), analyzer.Request{PromptText: "hi"})

	assert.True(t, errors.Is(err, analyzer.ErrNotConfigured))
	assert.Zero(t, atomic.LoadInt32(&hits), "no request may be sent without a key")
}

func TestClient_Defaults(t *testing.T) {
	c := NewClient(Config{APIKey: "k"})
	assert.Equal(t, DefaultModel, c.Model())
	assert.Equal(t, "gemini", c.Name())

	cfg := c.generateConfig()
	require.NotNil(t, cfg.Temperature)
	assert.InDelta(t, 0.2, *cfg.Temperature, 1e-6)
	require.NotNil(t, cfg.ThinkingConfig)
	assert.Equal(t, int32(2048), *cfg.ThinkingConfig.ThinkingBudget)
	require.NotNil(t, cfg.SystemInstruction)
	assert.Equal(t, analyzer.SystemInstruction, cfg.SystemInstruction.Parts[0].Text)
}

func TestClient_ContentsOrder(t *testing.T) {
	c := NewClient(Config{APIKey: "k"})
	img := &model.ImagePayload{MIMEType: "image/jpeg", Data: []byte{0xff, 0xd8}}

	contents := c.contents(analyzer.Request{PromptText: "p", CodeSnippet: "c", Image: img})
	require.Len(t, contents, 1)
	parts := contents[0].Parts
	require.Len(t, parts, 2)
	require.NotNil(t, parts[0].InlineData)
	assert.Equal(t, "image/jpeg", parts[0].InlineData.MIMEType)
	assert.Equal(t, img.Data, parts[0].InlineData.Data)
	assert.Equal(t, "Here is the code to analyze:\n```\nc\n```\n\np", parts[1].Text)

	textOnly := c.contents(analyzer.Request{PromptText: "p"})
	require.Len(t, textOnly[0].Parts, 1)
	assert.Equal(t, "p", textOnly[0].Parts[0].Text)
}

func TestClient_Analyze(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "gemini-3-pro-preview:generateContent")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"## Findings\nNone."}]}}]}`)
	}))
	defer server.Close()

	c := NewClient(Config{APIKey: "test-key", BaseURL: server.URL})
	got, err := c.Analyze(context.Background(), analyzer.Request{CodeSnippet: "function f(){}"})
	require.NoError(t, err)
	assert.Equal(t, "## Findings\nNone.", got)
	assert.Contains(t, body, "systemInstruction")
}

func TestClient_EmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[]}}]}`)
	}))
	defer server.Close()

	c := NewClient(Config{APIKey: "test-key", BaseURL: server.URL})
	got, err := c.Analyze(context.Background(), analyzer.Request{PromptText: "x"})
	require.NoError(t, err)
	assert.Equal(t, analyzer.EmptyResponseFallback, got)
}

func TestClient_ServerErrorIsUniform(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"error":{"code":403,"message":"API key not valid","status":"PERMISSION_DENIED"}}`)
	}))
	defer server.Close()

	c := NewClient(Config{APIKey: "bad", BaseURL: server.URL})
	_, err := c.Analyze(context.Background(), analyzer.Request{PromptText: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, analyzer.ErrAnalysisFailed))
	assert.False(t, strings.Contains(err.Error(), "API key not valid"))
}
