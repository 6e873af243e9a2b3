// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app assembles the session store, draft, analyzer and
// orchestrator from configuration. The TUI, the one-shot command and the
// REPL all run on an App.
package app

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/jeranaias/agent-architect/internal/analysis"
	"github.com/jeranaias/agent-architect/internal/analyzer"
	"github.com/jeranaias/agent-architect/internal/cloud"
	"github.com/jeranaias/agent-architect/internal/config"
	"github.com/jeranaias/agent-architect/internal/diagram"
	"github.com/jeranaias/agent-architect/internal/draft"
	"github.com/jeranaias/agent-architect/internal/gemini"
	"github.com/jeranaias/agent-architect/internal/ollama"
	"github.com/jeranaias/agent-architect/internal/session"
)

// =============================================================================
// FACTORIES
// =============================================================================

// NewAnalyzer builds the backend named by cfg.Provider, wrapped in the
// configured rate limit.
func NewAnalyzer(cfg *config.Config, logger *slog.Logger) (analyzer.Analyzer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var az analyzer.Analyzer
	switch strings.ToLower(cfg.Provider) {
	case config.ProviderGemini, "":
		az = gemini.NewClient(gemini.Config{
			APIKey:         cfg.Gemini.APIKey,
			Model:          cfg.Gemini.Model,
			Temperature:    float32(cfg.Gemini.Temperature),
			ThinkingBudget: int32(cfg.Gemini.ThinkingBudget),
			Logger:         logger,
		})
	case config.ProviderOpenRouter:
		az = cloud.NewOpenRouterClient(cfg.Cloud.APIKey).
			WithBaseURL(cfg.Cloud.BaseURL).
			WithModel(cfg.Cloud.Model).
			WithLogger(logger)
	case config.ProviderOllama:
		az = ollama.NewClientWithConfig(&ollama.ClientConfig{
			BaseURL:      cfg.Local.OllamaURL,
			DefaultModel: cfg.Local.OllamaModel,
			Logger:       logger,
		})
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}

	return analyzer.RateLimited(az, analyzer.PerMinute(cfg.Analysis.RequestsPerMinute)), nil
}

// NewEngine builds the diagram engine named by cfg.Diagram.Engine behind a
// render cache.
func NewEngine(cfg *config.Config, logger *slog.Logger) diagram.Engine {
	var inner diagram.Engine = diagram.NewBuiltinEngine()
	if strings.EqualFold(cfg.Diagram.Engine, "mmdc") {
		inner = diagram.NewExecEngine(cfg.Diagram.MmdcPath, cfg.Diagram.OutDir, cfg.Diagram.TimeoutDuration(), logger)
	}
	return diagram.NewCachedEngine(inner)
}

// =============================================================================
// APP
// =============================================================================

// App holds the long-lived state shared by every front end.
type App struct {
	Store        *session.Store
	Draft        *draft.Holder
	Analyzer     *analyzer.Reloadable
	Orchestrator *analysis.Orchestrator
	Engine       diagram.Engine
	Logger       *slog.Logger

	mu  sync.RWMutex
	cfg *config.Config
}

// New builds an App from cfg.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	az, err := NewAnalyzer(cfg, logger)
	if err != nil {
		return nil, err
	}

	store := session.NewStore(session.DefaultConfig())
	reloadable := analyzer.NewReloadable(az)

	a := &App{
		Store:    store,
		Draft:    draft.NewHolder(),
		Analyzer: reloadable,
		Engine:   NewEngine(cfg, logger),
		Logger:   logger,
		cfg:      cfg,
	}
	a.Orchestrator = analysis.New(store, reloadable,
		analysis.WithLogger(logger),
		analysis.WithTitleLength(cfg.Analysis.TitleLength),
	)

	logger.Info("app ready", "provider", az.Name(), "diagram_engine", a.Engine.Name())
	return a, nil
}

// Config returns the active configuration.
func (a *App) Config() *config.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg
}

// Reload swaps in a backend built from cfg. An in-flight analysis keeps the
// backend it started with. On error the current backend stays.
func (a *App) Reload(cfg *config.Config) error {
	az, err := NewAnalyzer(cfg, a.Logger)
	if err != nil {
		return err
	}
	a.Analyzer.Swap(az)

	a.mu.Lock()
	a.cfg = cfg
	a.mu.Unlock()

	a.Logger.Info("config reloaded", "provider", az.Name())
	return nil
}
