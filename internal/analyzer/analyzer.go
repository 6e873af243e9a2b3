// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package analyzer

import (
	"context"
	"strings"

	"github.com/jeranaias/agent-architect/internal/model"
)

// EmptyResponseFallback replaces an empty model response.
const EmptyResponseFallback = "No response generated."

// DefaultTemperature keeps answers close to deterministic.
const DefaultTemperature = 0.2

// SystemInstruction is attached to every request.
const SystemInstruction = `You are Agent Architect, an elite senior software engineer and system architect.
Your goal is to analyze code or architecture diagrams provided by the user.

1. Identify bugs, security vulnerabilities, performance bottlenecks, and anti-patterns.
2. Provide a corrected version of the code or a detailed architectural improvement plan.
3. Explain your reasoning clearly using Markdown.
4. If the explanation involves system relationships, flows, or state changes, YOU MUST generate a Mermaid.js diagram to visualize it.
   Wrap Mermaid code in a code block like this:
   ` + "```mermaid" + `
   graph TD;
     A-->B;
   ` + "```" + `

Be concise but thorough. Use a professional, technical tone.`

// Analyzer performs the external analysis call.
type Analyzer interface {
	// Analyze sends one request and returns the Markdown response.
	// Errors are always ErrNotConfigured or wrap ErrAnalysisFailed.
	Analyze(ctx context.Context, req Request) (string, error)

	// Name identifies the backend for logs and the status bar.
	Name() string
}

// Request is the input to one analysis call. Each field may be empty.
type Request struct {
	PromptText  string
	CodeSnippet string
	Image       *model.ImagePayload
}

// HasImage reports whether an image is attached.
func (r Request) HasImage() bool {
	return r.Image != nil && len(r.Image.Data) > 0
}

// ComposeText builds the text block: the code in a fence, then the prompt.
// The fence is omitted when there is no code.
func ComposeText(req Request) string {
	var sb strings.Builder
	if req.CodeSnippet != "" {
		sb.WriteString("Here is the code to analyze:\n```\n")
		sb.WriteString(req.CodeSnippet)
		sb.WriteString("\n```\n\n")
	}
	sb.WriteString(req.PromptText)
	return sb.String()
}

// OrFallback returns text, or EmptyResponseFallback when text is blank.
func OrFallback(text string) string {
	if strings.TrimSpace(text) == "" {
		return EmptyResponseFallback
	}
	return text
}

// Func adapts a function to the Analyzer interface.
type Func func(ctx context.Context, req Request) (string, error)

// Analyze calls f.
func (f Func) Analyze(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// Name returns "func".
func (f Func) Name() string {
	return "func"
}
