// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/agent-architect/internal/draft"
	"github.com/jeranaias/agent-architect/internal/model"
	"github.com/jeranaias/agent-architect/internal/ui/styles"
)

func testTheme() *styles.Theme {
	return styles.NewTheme(styles.ModeDark)
}

// =============================================================================
// SPINNER TESTS
// =============================================================================

func TestSpinner_StartStop(t *testing.T) {
	s := NewSpinner()
	if s.IsActive() {
		t.Fatal("new spinner should be inactive")
	}
	if s.View(testTheme()) != "" {
		t.Error("inactive spinner should render nothing")
	}

	if cmd := s.Start(); cmd == nil {
		t.Error("Start should return a tick command")
	}
	if !strings.Contains(s.View(testTheme()), ThinkingMessage) {
		t.Errorf("view should contain %q", ThinkingMessage)
	}

	s.Stop()
	if _, cmd := s.Update(nil); cmd != nil {
		t.Error("stopped spinner should not keep ticking")
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{1500 * time.Millisecond, "1.5s"},
		{65 * time.Second, "1m05s"},
	}
	for _, tt := range tests {
		if got := formatElapsed(tt.in); got != tt.want {
			t.Errorf("formatElapsed(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// =============================================================================
// TOAST TESTS
// =============================================================================

func TestToastManager_Expiry(t *testing.T) {
	now := time.Unix(1000, 0)
	m := NewToastManager()
	m.clock = func() time.Time { return now }

	m.Info("saved")
	m.Error("failed")
	if m.Len() != 2 {
		t.Fatalf("Len = %d, want 2", m.Len())
	}
	if got := m.Toasts()[0].Message; got != "failed" {
		t.Errorf("newest first: got %q", got)
	}

	now = now.Add(DefaultToastDuration)
	if !m.Tick() {
		t.Fatal("error toast should outlive the info toast")
	}
	if m.Len() != 1 || m.Toasts()[0].Kind != ToastError {
		t.Errorf("unexpected toasts after tick: %+v", m.Toasts())
	}

	now = now.Add(ErrorToastDuration)
	if m.Tick() {
		t.Error("all toasts should have expired")
	}
}

func TestToastManager_Cap(t *testing.T) {
	m := NewToastManager()
	for i := 0; i < 5; i++ {
		m.Success("ok")
	}
	if m.Len() != 3 {
		t.Errorf("Len = %d, want 3", m.Len())
	}
	id := m.Toasts()[0].ID
	m.Remove(id)
	if m.Len() != 2 {
		t.Errorf("Len after Remove = %d, want 2", m.Len())
	}
}

// =============================================================================
// SIDEBAR TESTS
// =============================================================================

func sessions(titles ...string) []model.Session {
	out := make([]model.Session, len(titles))
	for i, title := range titles {
		out[i] = model.Session{ID: title, Title: title, CreatedAt: time.Unix(0, 0)}
	}
	return out
}

func TestFilterSessions(t *testing.T) {
	all := sessions("Payment gateway", "Search index", "Rate limiter")

	if got := FilterSessions("", all); len(got) != 3 || got[1].Index != 1 {
		t.Errorf("empty query should keep order, got %+v", got)
	}

	got := FilterSessions("rl", all)
	if len(got) != 1 || all[got[0].Index].Title != "Rate limiter" {
		t.Errorf("FilterSessions(rl) = %+v", got)
	}

	if got := FilterSessions("zzz", all); len(got) != 0 {
		t.Errorf("expected no matches, got %+v", got)
	}
}

func TestSidebar_FilterFlow(t *testing.T) {
	s := NewSidebar(testTheme())
	s.SetSize(30, 20)
	s.SetSessions(sessions("Payment gateway", "Search index"), "Search index")

	view := s.View()
	if !strings.Contains(view, NewAnalysisLabel) || !strings.Contains(view, "Search index") {
		t.Errorf("sidebar view missing content:\n%s", view)
	}

	s.StartFilter()
	s, _ = s.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("pay")})
	if s.Query() != "pay" {
		t.Fatalf("Query = %q", s.Query())
	}
	sel, ok := s.Selected()
	if !ok || sel.Title != "Payment gateway" {
		t.Errorf("Selected = %+v, %v", sel, ok)
	}

	s.StopFilter()
	if s.Filtering() || len(s.Matches()) != 2 {
		t.Error("StopFilter should restore the full list")
	}
}

func TestSidebar_Empty(t *testing.T) {
	s := NewSidebar(testTheme())
	s.SetSize(30, 10)
	if !strings.Contains(s.View(), "No active sessions.") {
		t.Error("empty sidebar should say so")
	}
	if _, ok := s.Selected(); ok {
		t.Error("nothing should be selected")
	}
}

// =============================================================================
// INPUT PANEL TESTS
// =============================================================================

func TestInputPanel_TabsAndFocus(t *testing.T) {
	p := NewInputPanel(testTheme())
	p.SetWidth(80)

	if p.FocusedOn() != FocusField || p.Tab() != draft.TabSource {
		t.Fatal("panel should start on the code field")
	}

	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x := 1")})
	if p.Code() != "x := 1" {
		t.Errorf("Code = %q", p.Code())
	}

	p.CycleFocus()
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("why?")})
	if p.Prompt() != "why?" {
		t.Errorf("Prompt = %q", p.Prompt())
	}

	p.CycleFocus()
	if p.FocusedOn() != FocusButton {
		t.Error("third element should be the button")
	}
	p.CycleFocus()
	if p.FocusedOn() != FocusField {
		t.Error("focus should wrap")
	}

	p.SetTab(draft.TabVisual)
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(" a.png ")})
	if p.ImagePath() != "a.png" {
		t.Errorf("ImagePath = %q", p.ImagePath())
	}
	if !strings.Contains(p.View(), "Visual Diagram") {
		t.Error("view should show the tab labels")
	}
}

func TestInputPanel_Load(t *testing.T) {
	p := NewInputPanel(testTheme())
	img := &model.ImagePayload{MIMEType: "image/png", Data: []byte{1, 2, 3}, Name: "arch.png"}
	p.Load(draft.Draft{CodeText: "code", PromptText: "prompt", Image: img, ActiveTab: draft.TabVisual})

	if p.Code() != "code" || p.Prompt() != "prompt" || p.Tab() != draft.TabVisual {
		t.Errorf("Load did not copy the draft")
	}
	if !strings.Contains(p.View(), "arch.png") {
		t.Error("attached image should show as a badge")
	}
}

// =============================================================================
// STATUS BAR TESTS
// =============================================================================

func TestStatusBar_DropsHintsToFit(t *testing.T) {
	bar := StatusBar{
		Left:      "gemini | idle",
		Shortcuts: []Shortcut{{"C-s", "analyze"}, {"C-n", "new"}, {"C-c", "quit"}},
	}
	wide := bar.View(testTheme(), 120)
	if !strings.Contains(wide, "quit") {
		t.Error("wide bar should show every hint")
	}
	narrow := bar.View(testTheme(), 30)
	if strings.Contains(narrow, "quit") {
		t.Error("narrow bar should drop trailing hints")
	}
}
