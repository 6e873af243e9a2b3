// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"

	"github.com/jeranaias/agent-architect/internal/model"
	"github.com/jeranaias/agent-architect/internal/ui/styles"
	"github.com/jeranaias/agent-architect/internal/util"
)

// NewAnalysisLabel is the sidebar action that starts a session.
const NewAnalysisLabel = "+ New Analysis"

// =============================================================================
// FUZZY SOURCE
// =============================================================================

// sessionTitles adapts a session slice to fuzzy.Source.
type sessionTitles []model.Session

func (s sessionTitles) String(i int) string { return s[i].Title }
func (s sessionTitles) Len() int            { return len(s) }

// FilterSessions returns the sessions whose titles fuzzy-match query, best
// first. An empty query returns every session in order.
func FilterSessions(query string, sessions []model.Session) []fuzzy.Match {
	if strings.TrimSpace(query) == "" {
		out := make([]fuzzy.Match, len(sessions))
		for i, s := range sessions {
			out[i] = fuzzy.Match{Str: s.Title, Index: i}
		}
		return out
	}
	return fuzzy.FindFrom(query, sessionTitles(sessions))
}

// =============================================================================
// SIDEBAR
// =============================================================================

// Sidebar lists the sessions, newest first, with the current one
// highlighted. Pressing / opens a fuzzy filter over titles.
type Sidebar struct {
	theme *styles.Theme

	width  int
	height int

	sessions  []model.Session
	currentID string

	filtering bool
	filter    textinput.Model
	matches   []fuzzy.Match
	cursor    int
}

// NewSidebar creates an empty sidebar.
func NewSidebar(theme *styles.Theme) Sidebar {
	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "filter sessions"
	ti.CharLimit = 64

	return Sidebar{theme: theme, filter: ti}
}

// SetSize sets the sidebar dimensions.
func (s *Sidebar) SetSize(width, height int) {
	s.width = width
	s.height = height
	s.filter.Width = max(width-6, 4)
}

// Width returns the configured width.
func (s *Sidebar) Width() int {
	return s.width
}

// SetSessions replaces the listed sessions.
func (s *Sidebar) SetSessions(sessions []model.Session, currentID string) {
	s.sessions = sessions
	s.currentID = currentID
	s.refilter()
}

// Filtering reports whether the filter input has focus.
func (s *Sidebar) Filtering() bool {
	return s.filtering
}

// StartFilter focuses the filter input.
func (s *Sidebar) StartFilter() tea.Cmd {
	s.filtering = true
	s.cursor = 0
	s.refilter()
	return s.filter.Focus()
}

// StopFilter closes the filter and clears its query.
func (s *Sidebar) StopFilter() {
	s.filtering = false
	s.filter.Blur()
	s.filter.SetValue("")
	s.cursor = 0
	s.refilter()
}

// Query returns the current filter text.
func (s *Sidebar) Query() string {
	return s.filter.Value()
}

// Matches returns the sessions currently listed.
func (s *Sidebar) Matches() []model.Session {
	out := make([]model.Session, 0, len(s.matches))
	for _, m := range s.matches {
		out = append(out, s.sessions[m.Index])
	}
	return out
}

// MoveCursor moves the filter cursor by delta, clamped to the matches.
func (s *Sidebar) MoveCursor(delta int) {
	if len(s.matches) == 0 {
		s.cursor = 0
		return
	}
	s.cursor = min(max(s.cursor+delta, 0), len(s.matches)-1)
}

// Selected returns the session under the filter cursor.
func (s *Sidebar) Selected() (model.Session, bool) {
	if s.cursor < 0 || s.cursor >= len(s.matches) {
		return model.Session{}, false
	}
	return s.sessions[s.matches[s.cursor].Index], true
}

// Update feeds key presses to the filter while it is open.
func (s Sidebar) Update(msg tea.Msg) (Sidebar, tea.Cmd) {
	if !s.filtering {
		return s, nil
	}
	before := s.filter.Value()
	var cmd tea.Cmd
	s.filter, cmd = s.filter.Update(msg)
	if s.filter.Value() != before {
		s.cursor = 0
		s.refilter()
	}
	return s, cmd
}

func (s *Sidebar) refilter() {
	query := ""
	if s.filtering {
		query = s.filter.Value()
	}
	s.matches = FilterSessions(query, s.sessions)
	if s.cursor >= len(s.matches) {
		s.cursor = max(len(s.matches)-1, 0)
	}
}

// =============================================================================
// RENDERING
// =============================================================================

// View renders the sidebar.
func (s Sidebar) View() string {
	t := s.theme
	inner := max(s.width-4, 8)

	var b strings.Builder
	b.WriteString(t.SidebarTitle.Render("Agent Architect"))
	b.WriteString("\n\n")
	b.WriteString(t.NewButton.Render(NewAnalysisLabel))
	b.WriteString("\n\n")
	b.WriteString(t.SessionMeta.Render("PROJECTS"))
	b.WriteString("\n")

	if s.filtering {
		b.WriteString(t.FilterPrompt.Render(s.filter.View()))
		b.WriteString("\n")
	}

	if len(s.sessions) == 0 {
		b.WriteString(t.SessionMeta.Render("No active sessions."))
	} else if len(s.matches) == 0 {
		b.WriteString(t.SessionMeta.Render("No matches."))
	}

	for i, m := range s.matches {
		sess := s.sessions[m.Index]
		title := highlight(util.TruncateWidth(sess.Title, inner-2), m.MatchedIndexes, t)

		style := t.SessionItem
		marker := "  "
		if sess.ID == s.currentID {
			style = t.SessionItemSelected
			marker = "> "
		}
		if s.filtering && i == s.cursor {
			marker = "* "
		}
		b.WriteString(style.Render(marker + title))
		b.WriteString("\n")
		b.WriteString(t.SessionMeta.Render(fmt.Sprintf("    %s", sessionMeta(sess))))
		b.WriteString("\n")
	}

	return t.Sidebar.Width(s.width).Height(max(s.height, 1)).Render(b.String())
}

// sessionMeta is the dim line under a session title.
func sessionMeta(sess model.Session) string {
	n := sess.MessageCount()
	unit := "messages"
	if n == 1 {
		unit = "message"
	}
	return fmt.Sprintf("%s - %d %s", sess.CreatedAt.Format("Jan 2 15:04"), n, unit)
}

// highlight styles the runes of s at the matched byte offsets.
func highlight(s string, matched []int, t *styles.Theme) string {
	if len(matched) == 0 {
		return s
	}
	set := make(map[int]bool, len(matched))
	for _, i := range matched {
		set[i] = true
	}
	var b strings.Builder
	for i, r := range s {
		if set[i] {
			b.WriteString(t.FilterMatch.Render(string(r)))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
