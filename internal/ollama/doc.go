// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides a backend for the analysis call against a
// self-hosted Ollama server.
//
// Requests go to /api/chat with streaming disabled. Images are sent in the
// user message's images field, which vision models such as llava and
// qwen2.5vl read.
//
// # Key Types
//
//   - Client: Analyzer backed by /api/chat
//   - ClientConfig: Base URL, model, timeout
//   - ClientError: Error with a categorized ErrorType
//
// # Usage
//
//	client := ollama.NewClientWithConfig(&ollama.ClientConfig{
//	    BaseURL:      "http://127.0.0.1:11434",
//	    DefaultModel: "qwen2.5vl:7b",
//	})
//	if err := client.CheckRunning(ctx); err != nil {
//	    return err
//	}
//	text, err := client.Analyze(ctx, req)
package ollama
