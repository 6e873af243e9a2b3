// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the architect TUI.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection. A theme can be forced to light or dark from configuration.

# Color System (colors.go)

  - Indigo - Brand accent, the active tab and the focused pane
  - Sky - User messages and the sidebar selection
  - Emerald - Success toasts
  - Amber - Warnings and the busy indicator
  - Rose - Errors

# Theme (theme.go)

Theme holds every lipgloss.Style used by the UI: sidebar, session items,
message bubbles, input tabs, welcome cards, code blocks, diagram frames and
toasts.

# Usage

	theme := styles.NewTheme(styles.ModeAuto)
	view := theme.UserBubble.Render("Analyze this code.")
*/
package styles
