// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestComposeText(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want string
	}{
		{
			name: "code and prompt",
			req:  Request{CodeSnippet: "x := 1", PromptText: "review"},
			want: "Here is the code to analyze:\n```\nx := 1\n```\n\nreview",
		},
		{
			name: "code only",
			req:  Request{CodeSnippet: "function f(){}"},
			want: "Here is the code to analyze:\n```\nfunction f(){}\n```\n\n",
		},
		{
			name: "prompt only omits fence",
			req:  Request{PromptText: "explain CQRS"},
			want: "explain CQRS",
		},
		{
			name: "nothing",
			req:  Request{},
			want: "",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ComposeText(tc.req))
		})
	}
}

func TestSystemInstruction(t *testing.T) {
	for _, want := range []string{
		"bugs", "security vulnerabilities", "performance", "anti-patterns",
		"corrected version", "Markdown", "```mermaid",
	} {
		assert.Contains(t, SystemInstruction, want)
	}
}

func TestOrFallback(t *testing.T) {
	assert.Equal(t, EmptyResponseFallback, OrFallback(""))
	assert.Equal(t, EmptyResponseFallback, OrFallback(" \n"))
	assert.Equal(t, "ok", OrFallback("ok"))
}

func TestFail(t *testing.T) {
	cause := errors.New("HTTP 503: overloaded")

	err := Fail("gemini", cause)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAnalysisFailed))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "Failed to analyze code. Please try again.", err.Error())
	assert.NotContains(t, err.Error(), "503")
	assert.Equal(t, cause, Cause(err))

	assert.Same(t, err, Fail("gemini", err), "already uniform errors pass through")
	assert.Equal(t, ErrNotConfigured, Fail("gemini", fmt.Errorf("setup: %w", ErrNotConfigured)))
	assert.Nil(t, Fail("gemini", nil))
}

type countingAnalyzer struct {
	calls int
	reply string
}

func (c *countingAnalyzer) Analyze(ctx context.Context, req Request) (string, error) {
	c.calls++
	return c.reply, nil
}

func (c *countingAnalyzer) Name() string { return "counting" }

func TestRateLimited(t *testing.T) {
	inner := &countingAnalyzer{reply: "ok"}
	assert.Same(t, Analyzer(inner), RateLimited(inner, nil))
	assert.Nil(t, PerMinute(0))

	limited := RateLimited(inner, rate.NewLimiter(rate.Every(time.Hour), 1))
	assert.Equal(t, "counting", limited.Name())

	got, err := limited.Analyze(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = limited.Analyze(ctx, Request{})
	assert.True(t, errors.Is(err, ErrAnalysisFailed))
	assert.Equal(t, 1, inner.calls)
}

func TestReloadable(t *testing.T) {
	r := NewReloadable(nil)
	_, err := r.Analyze(context.Background(), Request{})
	assert.Equal(t, ErrNotConfigured, err)
	assert.Equal(t, "none", r.Name())

	first := Func(func(ctx context.Context, req Request) (string, error) {
		return "first:" + req.PromptText, nil
	})
	r.Swap(first)
	got, err := r.Analyze(context.Background(), Request{PromptText: "p"})
	require.NoError(t, err)
	assert.Equal(t, "first:p", got)

	prev := r.Swap(&countingAnalyzer{reply: "second"})
	assert.NotNil(t, prev)
	got, _ = r.Analyze(context.Background(), Request{})
	assert.True(t, strings.HasPrefix(got, "second"))
	assert.Equal(t, "counting", r.Name())
}
