// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/jeranaias/agent-architect/internal/analyzer"
	"github.com/jeranaias/agent-architect/internal/model"
)

func TestAnalyze_NotConfigured(t *testing.T) {
	client := NewOpenRouterClient("  ")
	_, err := client.Analyze(context.Background(), analyzer.Request{PromptText: "x"})
	if !errors.Is(err, analyzer.ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestBuildMessages(t *testing.T) {
	img := &model.ImagePayload{MIMEType: "image/png", Data: []byte{1, 2, 3}}
	msgs := BuildMessages(analyzer.Request{PromptText: "p", CodeSnippet: "c", Image: img})

	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != "system" || msgs[0].Content != analyzer.SystemInstruction {
		t.Error("first message should carry the system instruction")
	}
	parts := msgs[1].Parts
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(parts))
	}
	if parts[0].Type != "image_url" || parts[0].ImageURL.URL != "data:image/png;base64,AQID" {
		t.Errorf("unexpected image part: %+v", parts[0])
	}
	if parts[1].Text != "Here is the code to analyze:\n```\nc\n```\n\np" {
		t.Errorf("unexpected text part: %q", parts[1].Text)
	}
}

func TestChatMessage_JSON(t *testing.T) {
	plain, _ := json.Marshal(NewUserMessage("hi"))
	if string(plain) != `{"role":"user","content":"hi"}` {
		t.Errorf("plain message = %s", plain)
	}

	var m ChatMessage
	if err := json.Unmarshal([]byte(`{"role":"assistant","content":[{"type":"text","text":"a"},{"type":"text","text":"b"}]}`), &m); err != nil {
		t.Fatal(err)
	}
	if m.Content != "ab" {
		t.Errorf("Content = %q, want ab", m.Content)
	}
}

func TestAnalyze_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-or-test" {
			t.Errorf("missing bearer token")
		}
		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Stream {
			t.Error("request must not stream")
		}
		if req.Temperature != analyzer.DefaultTemperature {
			t.Errorf("temperature = %v", req.Temperature)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "# Review"}},
			},
		})
	}))
	defer server.Close()

	client := NewOpenRouterClient("sk-or-test").WithBaseURL(server.URL)
	got, err := client.Analyze(context.Background(), analyzer.Request{PromptText: "review"})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if got != "# Review" {
		t.Errorf("got %q", got)
	}
}

func TestAnalyze_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	got, err := NewOpenRouterClient("k").WithBaseURL(server.URL).Analyze(context.Background(), analyzer.Request{PromptText: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if got != analyzer.EmptyResponseFallback {
		t.Errorf("got %q, want fallback", got)
	}
}

func TestAnalyze_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantCause error
		wantCalls int32
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":{"code":401,"message":"bad key"}}`, ErrAuthFailed, 1},
		{"no credits", http.StatusPaymentRequired, `{"error":{"message":"top up"}}`, ErrInsufficientCredits, 1},
		{"unknown model", http.StatusNotFound, `not found`, ErrModelNotFound, 1},
		{"server error retried", http.StatusBadGateway, `{"error":{"message":"upstream"}}`, nil, 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var calls int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			client := NewOpenRouterClient("k").WithBaseURL(server.URL).WithMaxRetries(2)
			_, err := client.Analyze(context.Background(), analyzer.Request{PromptText: "x"})

			if !errors.Is(err, analyzer.ErrAnalysisFailed) {
				t.Fatalf("expected uniform failure, got %v", err)
			}
			if err.Error() != "Failed to analyze code. Please try again." {
				t.Errorf("error text leaked the cause: %q", err.Error())
			}
			if tc.wantCause != nil && !errors.Is(err, tc.wantCause) {
				t.Errorf("cause = %v, want %v", analyzer.Cause(err), tc.wantCause)
			}
			if got := atomic.LoadInt32(&calls); got != tc.wantCalls {
				t.Errorf("calls = %d, want %d", got, tc.wantCalls)
			}
		})
	}
}

func TestCalculateBackoff(t *testing.T) {
	c := NewOpenRouterClient("k")
	if got := c.calculateBackoff(1); got != retryBaseDelay*2 {
		t.Errorf("backoff(1) = %v", got)
	}
	if got := c.calculateBackoff(10); got != retryMaxDelay {
		t.Errorf("backoff(10) = %v, want cap", got)
	}
}
