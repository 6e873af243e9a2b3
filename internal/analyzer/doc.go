// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package analyzer defines the external analysis call.
//
// An Analyzer sends one request (prompt, code, optional image) to a model
// provider and returns Markdown. Every backend attaches the same system
// instruction, composes the text block with ComposeText, and reports any
// failure as ErrAnalysisFailed or ErrNotConfigured.
//
// # Key Types
//
//   - Analyzer: Interface implemented by the gemini, cloud and ollama backends
//   - Request: Prompt text, code snippet and optional image
//   - Error: Uniform failure wrapping the provider cause
//   - Reloadable: Analyzer whose backend can be swapped at runtime
//
// # Usage
//
//	text, err := az.Analyze(ctx, analyzer.Request{
//	    CodeSnippet: src,
//	    PromptText:  "Find the race",
//	})
//	if errors.Is(err, analyzer.ErrNotConfigured) {
//	    // prompt for an API key
//	}
//
// Limit request rate:
//
//	az = analyzer.RateLimited(az, rate.NewLimiter(rate.Every(6*time.Second), 1))
package analyzer
