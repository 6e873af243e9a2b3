// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/agent-architect/internal/model"
)

// =============================================================================
// MARKDOWN EXPORT
// =============================================================================

// Markdown renders sess as a Markdown document: the title, a short
// metadata list, then one "## You" or "## Architect" section per message.
// Model replies are written verbatim so their mermaid fences survive.
func Markdown(sess model.Session) []byte {
	var sb strings.Builder

	title := strings.TrimSpace(sess.Title)
	if title == "" {
		title = "Untitled analysis"
	}
	sb.WriteString(fmt.Sprintf("# %s\n\n", escapeMarkdown(title)))

	if !sess.CreatedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("- **Created**: %s\n", formatTimestamp(sess.CreatedAt)))
	}
	sb.WriteString(fmt.Sprintf("- **Messages**: %d\n", len(sess.Messages)))
	sb.WriteString("\n---\n\n")

	for i, msg := range sess.Messages {
		sb.WriteString(fmt.Sprintf("## %s\n\n", msg.Role.DisplayName()))

		for _, img := range msg.Images {
			sb.WriteString(imageLine(img))
			sb.WriteString("\n")
		}
		if len(msg.Images) > 0 {
			sb.WriteString("\n")
		}

		if content := strings.TrimSpace(msg.Content); content != "" {
			sb.WriteString(content)
			sb.WriteString("\n\n")
		}

		if i < len(sess.Messages)-1 {
			sb.WriteString("---\n\n")
		}
	}

	sb.WriteString("\n---\n\n")
	sb.WriteString(fmt.Sprintf("*Exported from Agent Architect on %s*\n",
		time.Now().Format("January 2, 2006 at 3:04 PM")))

	return []byte(sb.String())
}

// imageLine describes an attachment without embedding it.
func imageLine(img model.ImagePayload) string {
	return fmt.Sprintf("[image: %s, %d bytes]", img.MIMEType, len(img.Data))
}

// escapeMarkdown escapes the characters that would turn a title into
// something other than plain heading text.
func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	replacer := strings.NewReplacer(
		"\\", "\\\\",
		"*", "\\*",
		"_", "\\_",
		"`", "\\`",
		"[", "\\[",
		"]", "\\]",
		"#", "\\#",
	)
	return replacer.Replace(s)
}
