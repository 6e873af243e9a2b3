// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/agent-architect/internal/draft"
	"github.com/jeranaias/agent-architect/internal/model"
	"github.com/jeranaias/agent-architect/internal/ui/styles"
)

// AnalyzeLabel is the text of the submit action.
const AnalyzeLabel = "Analyze"

// =============================================================================
// FOCUS
// =============================================================================

// Focus is the input element that receives keys.
type Focus int

const (
	FocusField  Focus = iota // code textarea or image path, by tab
	FocusPrompt              // instructions line
	FocusButton              // analyze action
)

// =============================================================================
// INPUT PANEL
// =============================================================================

// InputPanel is the bottom input area. The Source Code tab edits a code
// snippet; the Visual Diagram tab takes an image path that is loaded on
// enter. Both tabs share the prompt line and the Analyze action.
type InputPanel struct {
	theme *styles.Theme
	width int

	tab   draft.Tab
	focus Focus
	busy  bool

	code      textarea.Model
	imagePath textinput.Model
	prompt    textinput.Model

	image *model.ImagePayload
}

// NewInputPanel creates the panel with the code field focused.
func NewInputPanel(theme *styles.Theme) InputPanel {
	ta := textarea.New()
	ta.Placeholder = "// Paste problematic code or architecture specs here..."
	ta.ShowLineNumbers = true
	ta.CharLimit = 0
	ta.SetHeight(8)

	img := textinput.New()
	img.Prompt = "image: "
	img.Placeholder = "path/to/diagram.png (enter to load)"
	img.CharLimit = 1024

	pr := textinput.New()
	pr.Prompt = "> "
	pr.Placeholder = "Specific instructions (e.g., 'Check for race conditions')"
	pr.CharLimit = 4096

	p := InputPanel{
		theme:     theme,
		code:      ta,
		imagePath: img,
		prompt:    pr,
	}
	p.applyFocus()
	return p
}

// SetWidth resizes the fields.
func (p *InputPanel) SetWidth(width int) {
	p.width = width
	inner := max(width-6, 10)
	p.code.SetWidth(inner)
	p.imagePath.Width = inner - len(p.imagePath.Prompt)
	p.prompt.Width = inner - len(p.prompt.Prompt)
}

// Height returns the rendered height of the panel.
func (p InputPanel) Height() int {
	return lipgloss.Height(p.View())
}

// Tab returns the active tab.
func (p InputPanel) Tab() draft.Tab {
	return p.tab
}

// SetTab switches tabs. Focus moves to the tab's main field.
func (p *InputPanel) SetTab(tab draft.Tab) tea.Cmd {
	p.tab = tab
	p.focus = FocusField
	return p.applyFocus()
}

// FocusedOn returns the focused element.
func (p InputPanel) FocusedOn() Focus {
	return p.focus
}

// CycleFocus moves focus to the next element, wrapping around.
func (p *InputPanel) CycleFocus() tea.Cmd {
	p.focus = (p.focus + 1) % 3
	return p.applyFocus()
}

// SetBusy greys out the Analyze action while a request is outstanding.
func (p *InputPanel) SetBusy(busy bool) {
	p.busy = busy
}

// SetImage sets the attached image shown as a badge.
func (p *InputPanel) SetImage(img *model.ImagePayload) {
	p.image = img
}

// Load copies a draft into the fields.
func (p *InputPanel) Load(d draft.Draft) tea.Cmd {
	p.code.SetValue(d.CodeText)
	p.prompt.SetValue(d.PromptText)
	p.image = d.Image
	if p.tab != d.ActiveTab {
		return p.SetTab(d.ActiveTab)
	}
	return nil
}

// Code returns the code text.
func (p InputPanel) Code() string { return p.code.Value() }

// Prompt returns the prompt text.
func (p InputPanel) Prompt() string { return p.prompt.Value() }

// ImagePath returns the typed image path.
func (p InputPanel) ImagePath() string { return strings.TrimSpace(p.imagePath.Value()) }

// ClearImagePath empties the path field.
func (p *InputPanel) ClearImagePath() { p.imagePath.SetValue("") }

func (p *InputPanel) applyFocus() tea.Cmd {
	p.code.Blur()
	p.imagePath.Blur()
	p.prompt.Blur()

	switch p.focus {
	case FocusField:
		if p.tab == draft.TabVisual {
			return p.imagePath.Focus()
		}
		return p.code.Focus()
	case FocusPrompt:
		return p.prompt.Focus()
	}
	return nil
}

// Update routes a message to the focused field.
func (p InputPanel) Update(msg tea.Msg) (InputPanel, tea.Cmd) {
	var cmd tea.Cmd
	switch p.focus {
	case FocusField:
		if p.tab == draft.TabVisual {
			p.imagePath, cmd = p.imagePath.Update(msg)
		} else {
			p.code, cmd = p.code.Update(msg)
		}
	case FocusPrompt:
		p.prompt, cmd = p.prompt.Update(msg)
	}
	return p, cmd
}

// =============================================================================
// RENDERING
// =============================================================================

// View renders the tabs, the active field, the prompt and the action.
func (p InputPanel) View() string {
	t := p.theme

	tabs := make([]string, 0, 2)
	for _, tab := range []draft.Tab{draft.TabSource, draft.TabVisual} {
		style := t.Tab
		if tab == p.tab {
			style = t.TabActive
		}
		tabs = append(tabs, style.Render(tab.String()))
	}

	var field string
	if p.tab == draft.TabVisual {
		field = p.imagePath.View()
		if p.image != nil {
			field += "\n" + t.ImageBadge.Render("[image] "+p.image.Label())
		} else {
			field += "\n" + t.SessionMeta.Render("PNG, JPG, GIF or WEBP")
		}
	} else {
		field = p.code.View()
	}

	button := t.AnalyzeButton
	if p.busy {
		button = t.ButtonDisabled
	}
	label := AnalyzeLabel
	if p.focus == FocusButton {
		label = "[ " + label + " ]"
	}
	actions := lipgloss.JoinHorizontal(lipgloss.Center,
		p.prompt.View(), "  ", button.Render(label))

	container := t.InputContainer
	if p.focus != FocusButton {
		container = t.InputFocused
	}
	if p.width > 0 {
		container = container.Width(p.width - 2)
	}
	return container.Render(lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, tabs...),
		field,
		actions,
	))
}
