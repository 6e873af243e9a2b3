// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jeranaias/agent-architect/internal/analyzer"
	"github.com/jeranaias/agent-architect/internal/model"
)

func newTestClient(url string) *Client {
	return NewClientWithConfig(&ClientConfig{BaseURL: url, DefaultModel: "llava"})
}

func TestNewClientWithConfig_Defaults(t *testing.T) {
	c := NewClientWithConfig(&ClientConfig{})
	if c.config.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q", c.config.BaseURL)
	}
	if c.Model() != DefaultModel {
		t.Errorf("Model() = %q", c.Model())
	}
	if c.config.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v", c.config.Timeout)
	}
}

func TestBuildMessages(t *testing.T) {
	img := &model.ImagePayload{MIMEType: "image/png", Data: []byte{1, 2, 3}}
	msgs := BuildMessages(analyzer.Request{PromptText: "p", Image: img})

	if len(msgs) != 2 {
		t.Fatalf("got %d messages", len(msgs))
	}
	if msgs[0].Role != "system" {
		t.Errorf("first role = %q", msgs[0].Role)
	}
	if msgs[1].Content != "p" {
		t.Errorf("user content = %q", msgs[1].Content)
	}
	if len(msgs[1].Images) != 1 || msgs[1].Images[0] != "AQID" {
		t.Errorf("images = %v", msgs[1].Images)
	}

	noImage := BuildMessages(analyzer.Request{CodeSnippet: "x"})
	if noImage[1].Images != nil {
		t.Error("images should be omitted without an image")
	}
}

func TestAnalyze(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req ChatRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Stream {
			t.Error("stream must be false")
		}
		if req.Model != "llava" {
			t.Errorf("model = %s", req.Model)
		}
		if req.Options == nil || req.Options.Temperature != analyzer.DefaultTemperature {
			t.Errorf("options = %+v", req.Options)
		}
		json.NewEncoder(w).Encode(ChatResponse{
			Message:      Message{Role: "assistant", Content: "Looks fine."},
			Done:         true,
			EvalCount:    10,
			EvalDuration: 1e9,
		})
	}))
	defer server.Close()

	got, err := newTestClient(server.URL).Analyze(context.Background(), analyzer.Request{PromptText: "review"})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if got != "Looks fine." {
		t.Errorf("got %q", got)
	}
}

func TestAnalyze_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		check   func(error) bool
	}{
		{
			name: "model not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			check: IsModelNotFound,
		},
		{
			name: "server error message",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"error":"out of memory"}`))
			},
			check: func(err error) bool {
				var ce *ClientError
				return errors.As(err, &ce) && ce.Message == "out of memory"
			},
		},
		{
			name: "bad json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{`))
			},
			check: func(err error) bool {
				var ce *ClientError
				return errors.As(err, &ce) && ce.Type == ErrTypeInvalidResponse
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(tc.handler)
			defer server.Close()

			_, err := newTestClient(server.URL).Analyze(context.Background(), analyzer.Request{PromptText: "x"})
			if !errors.Is(err, analyzer.ErrAnalysisFailed) {
				t.Fatalf("expected uniform failure, got %v", err)
			}
			if !tc.check(err) {
				t.Errorf("cause not preserved: %v", analyzer.Cause(err))
			}
		})
	}
}

func TestAnalyze_NotRunning(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c := newTestClient(url)
	if err := c.CheckRunning(context.Background()); !IsNotRunning(err) {
		t.Errorf("CheckRunning() = %v, want not running", err)
	}
	_, err := c.Analyze(context.Background(), analyzer.Request{PromptText: "x"})
	if !IsNotRunning(err) || !errors.Is(err, analyzer.ErrAnalysisFailed) {
		t.Errorf("Analyze() = %v", err)
	}
}

func TestListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"models":[{"name":"llava:13b","size":100}]}`))
	}))
	defer server.Close()

	models, err := newTestClient(server.URL).ListModels(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(models) != 1 || models[0].Name != "llava:13b" {
		t.Errorf("models = %+v", models)
	}
}
