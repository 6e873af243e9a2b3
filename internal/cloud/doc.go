// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloud provides an OpenRouter backend for the analysis call.
//
// OpenRouter exposes many hosted models behind an OpenAI-compatible chat
// completions API. The client sends the system instruction and one user
// turn whose content is an image part (as a data URL) followed by the
// composed text.
//
// # Key Types
//
//   - OpenRouterClient: Analyzer backed by /chat/completions
//   - ChatRequest, ChatResponse: Wire types
//   - OpenRouterError: API error with code and HTTP status
//
// # Usage
//
//	client := cloud.NewOpenRouterClient(apiKey).
//	    WithModel("google/gemini-2.5-pro").
//	    WithMaxRetries(2)
//	text, err := client.Analyze(ctx, analyzer.Request{PromptText: "Review"})
package cloud
