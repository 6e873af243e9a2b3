// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gemini implements the analysis call against the Gemini API.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"google.golang.org/genai"

	"github.com/jeranaias/agent-architect/internal/analyzer"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "gemini-3-pro-preview"

	// DefaultThinkingBudget is the token budget for model reasoning.
	DefaultThinkingBudget = 2048

	// DefaultTimeout bounds a single request.
	DefaultTimeout = 3 * time.Minute
)

// =============================================================================
// CONFIG
// =============================================================================

// Config holds Gemini client settings.
type Config struct {
	APIKey         string
	Model          string
	Temperature    float32
	ThinkingBudget int32
	BaseURL        string // overrides the API endpoint, for tests and proxies
	Timeout        time.Duration
	Logger         *slog.Logger
}

// DefaultConfig returns the default configuration without a key.
func DefaultConfig() Config {
	return Config{
		Model:          DefaultModel,
		Temperature:    analyzer.DefaultTemperature,
		ThinkingBudget: DefaultThinkingBudget,
		Timeout:        DefaultTimeout,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client calls generateContent once per analysis.
type Client struct {
	cfg Config

	once    sync.Once
	client  *genai.Client
	initErr error
}

// NewClient creates a client. No connection is made until the first call.
func NewClient(cfg Config) *Client {
	def := DefaultConfig()
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = def.Temperature
	}
	if cfg.ThinkingBudget == 0 {
		cfg.ThinkingBudget = def.ThinkingBudget
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Client{cfg: cfg}
}

// Name returns "gemini".
func (c *Client) Name() string {
	return "gemini"
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.cfg.Model
}

// IsConfigured reports whether an API key is set.
func (c *Client) IsConfigured() bool {
	return c.cfg.APIKey != ""
}

func (c *Client) genaiClient(ctx context.Context) (*genai.Client, error) {
	c.once.Do(func() {
		cc := &genai.ClientConfig{
			APIKey:     c.cfg.APIKey,
			Backend:    genai.BackendGeminiAPI,
			HTTPClient: &http.Client{Timeout: c.cfg.Timeout},
		}
		if c.cfg.BaseURL != "" {
			cc.HTTPOptions = genai.HTTPOptions{BaseURL: c.cfg.BaseURL}
		}
		c.client, c.initErr = genai.NewClient(ctx, cc)
	})
	return c.client, c.initErr
}

// Analyze sends the image (if any) and the composed text as one user turn.
func (c *Client) Analyze(ctx context.Context, req analyzer.Request) (string, error) {
	if !c.IsConfigured() {
		return "", analyzer.ErrNotConfigured
	}

	client, err := c.genaiClient(ctx)
	if err != nil {
		return "", analyzer.Fail(c.Name(), fmt.Errorf("creating Gemini client: %w", err))
	}

	start := time.Now()
	res, err := client.Models.GenerateContent(ctx, c.cfg.Model, c.contents(req), c.generateConfig())
	if err != nil {
		c.cfg.Logger.Warn("gemini request failed",
			"model", c.cfg.Model,
			"duration", time.Since(start),
			"error", err)
		return "", analyzer.Fail(c.Name(), fmt.Errorf("calling Gemini model: %w", err))
	}

	c.cfg.Logger.Debug("gemini request complete",
		"model", c.cfg.Model,
		"duration", time.Since(start))
	return analyzer.OrFallback(res.Text()), nil
}

func (c *Client) contents(req analyzer.Request) []*genai.Content {
	parts := make([]*genai.Part, 0, 2)
	if req.HasImage() {
		mime := req.Image.MIMEType
		if mime == "" {
			mime = "image/png"
		}
		parts = append(parts, genai.NewPartFromBytes(req.Image.Data, mime))
	}
	parts = append(parts, genai.NewPartFromText(analyzer.ComposeText(req)))
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
}

func (c *Client) generateConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(analyzer.SystemInstruction, genai.RoleUser),
		Temperature:       genai.Ptr(c.cfg.Temperature),
		ThinkingConfig: &genai.ThinkingConfig{
			ThinkingBudget: genai.Ptr(c.cfg.ThinkingBudget),
		},
	}
}
