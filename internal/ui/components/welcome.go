// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/agent-architect/internal/ui/styles"
)

// Card is one capability tile on the welcome screen.
type Card struct {
	Title string
	Body  string
}

// WelcomeCards are the capabilities shown before the first analysis.
var WelcomeCards = []Card{
	{Title: "Analyze Code", Body: "Paste a snippet to find bugs and design flaws."},
	{Title: "Process Diagrams", Body: "Attach an architecture diagram and get it reviewed and redrawn."},
	{Title: "Architect Mode", Body: "Ask for a design and get a plan with mermaid diagrams inline."},
}

// Welcome is the empty-state screen.
type Welcome struct {
	width  int
	height int
	theme  *styles.Theme
}

// NewWelcome creates a welcome screen.
func NewWelcome(theme *styles.Theme) Welcome {
	return Welcome{theme: theme}
}

// SetSize sets the area the screen is centered in.
func (w *Welcome) SetSize(width, height int) {
	w.width = width
	w.height = height
}

// View renders the title and the cards. Cards stack vertically when the
// area is too narrow to lay them side by side.
func (w Welcome) View() string {
	t := w.theme
	title := t.WelcomeTitle.Render("Awaiting Input")
	subtitle := t.WelcomeSubtitle.Render("Provide code or schemas to initiate.")

	cards := make([]string, 0, len(WelcomeCards))
	for _, c := range WelcomeCards {
		cards = append(cards, t.Card.Render(
			t.CardTitle.Render(c.Title)+"\n\n"+t.CardBody.Render(c.Body),
		))
	}

	var row string
	if w.width > 0 && lipgloss.Width(lipgloss.JoinHorizontal(lipgloss.Top, cards...)) > w.width {
		row = lipgloss.JoinVertical(lipgloss.Center, cards...)
	} else {
		row = lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	}

	content := lipgloss.JoinVertical(lipgloss.Center, title, subtitle, "", row)
	if w.width <= 0 || w.height <= 0 {
		return content
	}
	return lipgloss.Place(w.width, w.height, lipgloss.Center, lipgloss.Center, content)
}
