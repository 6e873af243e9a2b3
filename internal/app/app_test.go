// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/agent-architect/internal/analyzer"
	"github.com/jeranaias/agent-architect/internal/config"
	"github.com/jeranaias/agent-architect/internal/diagram"
	"github.com/jeranaias/agent-architect/internal/logging"
)

func TestNewAnalyzer_Providers(t *testing.T) {
	tests := []struct {
		provider string
		want     string
	}{
		{config.ProviderGemini, "gemini"},
		{config.ProviderOpenRouter, "openrouter"},
		{config.ProviderOllama, "ollama"},
		{"GEMINI", "gemini"},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			cfg := config.Default()
			cfg.Provider = tt.provider
			az, err := NewAnalyzer(cfg, logging.Discard())
			require.NoError(t, err)
			assert.Equal(t, tt.want, az.Name())
		})
	}
}

func TestNewAnalyzer_UnknownProvider(t *testing.T) {
	cfg := config.Default()
	cfg.Provider = "openai"
	_, err := NewAnalyzer(cfg, logging.Discard())
	assert.Error(t, err)
}

func TestNewAnalyzer_MissingKeyFailsFast(t *testing.T) {
	cfg := config.Default()
	cfg.Gemini.APIKey = ""
	cfg.Analysis.RequestsPerMinute = 0

	az, err := NewAnalyzer(cfg, logging.Discard())
	require.NoError(t, err)

	_, err = az.Analyze(context.Background(), analyzer.Request{PromptText: "hi"})
	assert.True(t, errors.Is(err, analyzer.ErrNotConfigured))
}

func TestNewEngine(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, "builtin", NewEngine(cfg, nil).Name())

	cfg.Diagram.Engine = "mmdc"
	assert.Equal(t, "mmdc", NewEngine(cfg, logging.Discard()).Name())

	_, cached := NewEngine(cfg, nil).(*diagram.CachedEngine)
	assert.True(t, cached)
}

func TestApp_Reload(t *testing.T) {
	cfg := config.Default()
	a, err := New(cfg, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, "gemini", a.Analyzer.Name())
	assert.False(t, a.Orchestrator.Busy())
	assert.Equal(t, 0, a.Store.Len())

	next := config.Default()
	next.Provider = config.ProviderOllama
	require.NoError(t, a.Reload(next))
	assert.Equal(t, "ollama", a.Analyzer.Name())
	assert.Same(t, next, a.Config())

	bad := config.Default()
	bad.Provider = "nope"
	assert.Error(t, a.Reload(bad))
	assert.Equal(t, "ollama", a.Analyzer.Name())
	assert.Same(t, next, a.Config())
}
