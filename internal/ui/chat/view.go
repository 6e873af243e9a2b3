// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/agent-architect/internal/model"
	"github.com/jeranaias/agent-architect/internal/ui/components"
	"github.com/jeranaias/agent-architect/internal/ui/styles"
	"github.com/jeranaias/agent-architect/internal/util"
)

// headerHeight is the title line plus its rule.
const headerHeight = 2

// =============================================================================
// LAYOUT
// =============================================================================

// sidebarVisible reports whether there is room for the sidebar.
func (m Model) sidebarVisible() bool {
	return m.theme.GetLayoutMode() != styles.LayoutNarrow
}

// mainWidth is the width of the conversation column.
func (m Model) mainWidth() int {
	if m.sidebarVisible() {
		return max(m.width-m.sidebar.Width(), 20)
	}
	return max(m.width, 20)
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.ready = true
	m.theme.SetSize(width, height)

	sw := m.app.Config().UI.SidebarWidth
	if sw <= 0 {
		sw = 28
	}
	m.sidebar.SetSize(sw, max(height-1, 1))

	mw := m.mainWidth()
	m.input.SetWidth(mw)
	m.welcome.SetSize(mw, m.conversationHeight())
	m.viewport.Width = mw
	m.viewport.Height = m.conversationHeight()

	if m.renderer.Width() != mw-6 {
		_ = m.renderer.SetWidth(max(mw-6, 20))
		clear(m.rendered)
	}
	m.refresh(false)
}

// conversationHeight is what remains after the header, the spinner line,
// the input panel and the status bar.
func (m Model) conversationHeight() int {
	return max(m.height-headerHeight-1-m.input.Height()-1, 3)
}

// =============================================================================
// CONTENT
// =============================================================================

// refresh re-reads the store into the sidebar and the conversation pane.
func (m *Model) refresh(gotoBottom bool) {
	m.sidebar.SetSessions(m.app.Store.Sessions(), m.app.Store.CurrentID())
	m.input.SetBusy(m.app.Orchestrator.Busy())
	m.status = m.statusBar()

	m.viewport.SetContent(m.renderConversation())
	if gotoBottom {
		m.viewport.GotoBottom()
	}
}

// renderConversation draws every message of the current session. Replies
// are cached per message until a diagram in them settles or the width
// changes.
func (m *Model) renderConversation() string {
	sess, ok := m.app.Store.Current()
	if !ok || sess.IsEmpty() {
		return ""
	}

	width := m.mainWidth()
	parts := make([]string, 0, len(sess.Messages))
	for i, msg := range sess.Messages {
		if msg.Role == model.RoleUser {
			parts = append(parts, components.UserBubble(m.theme, msg, width))
			continue
		}
		key := messageKey(sess.ID, i)
		body, ok := m.rendered[key]
		if !ok {
			body = m.renderer.Render(key, msg.Content)
			m.rendered[key] = body
		}
		parts = append(parts, components.ModelBubble(m.theme, msg, body, width))
	}
	return strings.Join(parts, "\n\n")
}

func (m Model) statusBar() components.StatusBar {
	left := m.app.Analyzer.Name() + " | " + m.app.Orchestrator.State().String()
	if act, ok := m.app.Orchestrator.Active(); ok {
		left = m.app.Analyzer.Name() + " | " + act.State.String() + " " + time.Since(act.StartedAt).Round(time.Second).String()
	}
	hints := m.keys.ShortHelp()
	shortcuts := make([]components.Shortcut, 0, len(hints))
	for _, b := range hints {
		shortcuts = append(shortcuts, components.Shortcut{Key: b.Help().Key, Desc: b.Help().Desc})
	}
	return components.StatusBar{Left: left, Shortcuts: shortcuts}
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the screen.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	mw := m.mainWidth()
	main := lipgloss.JoinVertical(lipgloss.Left,
		m.headerView(mw),
		m.conversationView(),
		m.spinnerLine(mw),
		m.input.View(),
	)

	body := main
	if m.sidebarVisible() {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.sidebar.View(), main)
	}

	footer := m.status.View(m.theme, m.width)
	if toasts := m.toasts.View(m.theme, m.width); toasts != "" {
		footer = toasts + "\n" + footer
	}
	return body + "\n" + footer
}

func (m Model) headerView(width int) string {
	title := "Agent Architect"
	if sess, ok := m.app.Store.Current(); ok {
		title = sess.Title
	}
	title = util.TruncateWidth(title, max(width-4, 8))
	return m.theme.Header.Width(width).Render(m.theme.HeaderTitle.Render(title)) + "\n" +
		m.theme.Divider.Render(strings.Repeat("-", max(width, 1)))
}

func (m Model) conversationView() string {
	sess, ok := m.app.Store.Current()
	if !ok || sess.IsEmpty() {
		return m.welcome.View()
	}
	return m.viewport.View()
}

func (m Model) spinnerLine(width int) string {
	if !m.spinner.IsActive() {
		return ""
	}
	return lipgloss.NewStyle().Width(width).Render(m.spinner.View(m.theme))
}
