// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/agent-architect/internal/ui/styles"
)

// Shortcut is one key hint in the status bar.
type Shortcut struct {
	Key  string
	Desc string
}

// StatusBar is the one-line footer: backend and state on the left, key
// hints on the right. Hints are dropped from the end until the bar fits.
type StatusBar struct {
	Left      string
	Shortcuts []Shortcut
}

// View renders the bar at width.
func (s StatusBar) View(t *styles.Theme, width int) string {
	left := t.StatusBar.Render(" " + s.Left + " ")

	hints := make([]string, 0, len(s.Shortcuts))
	for _, sc := range s.Shortcuts {
		hints = append(hints, t.ShortcutKey.Render(sc.Key)+" "+t.ShortcutDesc.Render(sc.Desc))
	}

	right := strings.Join(hints, "  ")
	for len(hints) > 0 && width > 0 && lipgloss.Width(left)+lipgloss.Width(right)+1 > width {
		hints = hints[:len(hints)-1]
		right = strings.Join(hints, "  ")
	}

	gap := 1
	if width > 0 {
		gap = max(width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	}
	return left + strings.Repeat(" ", gap) + right
}
