// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/agent-architect/internal/model"
	"github.com/jeranaias/agent-architect/internal/ui/styles"
)

// =============================================================================
// MESSAGE BUBBLES
// =============================================================================

// UserBubble renders a user message: the prompt text and a badge per
// attached image, right aligned within width.
func UserBubble(t *styles.Theme, msg model.Message, width int) string {
	bubbleWidth := max(min(width*3/4, width-2), 10)

	parts := make([]string, 0, len(msg.Images)+2)
	parts = append(parts, t.RoleLabel.Render(msg.Role.DisplayName()))
	for i := range msg.Images {
		parts = append(parts, t.ImageBadge.Render("[image] "+msg.Images[i].Label()))
	}
	if text := strings.TrimSpace(msg.Content); text != "" {
		parts = append(parts, text)
	}

	bubble := t.UserBubble.Width(bubbleWidth).Render(strings.Join(parts, "\n"))
	return lipgloss.PlaceHorizontal(width, lipgloss.Right, bubble)
}

// ModelBubble frames an already rendered model reply.
func ModelBubble(t *styles.Theme, msg model.Message, rendered string, width int) string {
	header := t.RoleLabel.Render(msg.Role.DisplayName())
	return t.ModelBubble.Width(max(width-2, 10)).Render(header + "\n" + strings.TrimRight(rendered, "\n"))
}
