// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/agent-architect/internal/analysis"
	"github.com/jeranaias/agent-architect/internal/analyzer"
	"github.com/jeranaias/agent-architect/internal/config"
	"github.com/jeranaias/agent-architect/internal/draft"
	"github.com/jeranaias/agent-architect/internal/ui/components"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles one message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case AnalysisDoneMsg:
		return m.handleAnalysisDone(msg)

	case StoreChangedMsg:
		m.refresh(false)
		return m, waitForStoreChange(m.changes)

	case DiagramReadyMsg:
		delete(m.rendered, msg.Key.Owner)
		m.refresh(false)
		return m, nil

	case ConfigReloadedMsg:
		return m.handleConfigReloaded(msg)

	case ExportedMsg:
		if msg.Err != nil {
			return m, m.toast(components.ToastError, "Export failed: "+msg.Err.Error())
		}
		return m, m.toast(components.ToastSuccess, "Exported to "+msg.Path)

	case CopiedMsg:
		if msg.Err != nil {
			return m, m.toast(components.ToastError, "Copy failed: "+msg.Err.Error())
		}
		return m, m.toast(components.ToastSuccess, "Reply copied to clipboard")

	case components.ToastTickMsg:
		if m.toasts.Tick() {
			return m, components.ToastTickCmd()
		}
		m.toastTicking = false
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	if m.sidebar.Filtering() {
		return m.handleFilterKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.NewSession):
		m.newSession()
		return m, nil

	case key.Matches(msg, m.keys.DeleteSession):
		return m, m.deleteCurrent()

	case key.Matches(msg, m.keys.PrevSession):
		m.selectRelative(-1)
		return m, nil

	case key.Matches(msg, m.keys.NextSession):
		m.selectRelative(1)
		return m, nil

	case key.Matches(msg, m.keys.CycleFocus):
		return m, m.input.CycleFocus()

	case key.Matches(msg, m.keys.ToggleTab):
		m.syncDraft()
		_ = m.app.Draft.Update(func(d *draft.Draft) error {
			d.ToggleTab()
			return nil
		})
		return m, m.input.SetTab(m.app.Draft.Get().ActiveTab)

	case key.Matches(msg, m.keys.Analyze):
		return m, m.analyze()

	case key.Matches(msg, m.keys.Enter):
		switch {
		case m.input.FocusedOn() == components.FocusField && m.input.Tab() == draft.TabVisual:
			return m, m.loadImage()
		case m.input.FocusedOn() != components.FocusField:
			return m, m.analyze()
		}

	case key.Matches(msg, m.keys.Copy):
		return m, m.copyLastReply()

	case key.Matches(msg, m.keys.Export):
		sess, ok := m.app.Store.Current()
		if !ok || sess.IsEmpty() {
			return m, m.toast(components.ToastInfo, "Nothing to export")
		}
		return m, exportCmd(sess, m.opts.ExportDir)

	case key.Matches(msg, m.keys.Filter) && (msg.String() != "/" || m.input.FocusedOn() == components.FocusButton):
		m.refresh(false)
		return m, m.sidebar.StartFilter()

	case key.Matches(msg, m.keys.ClearImage):
		_ = m.app.Draft.Update(func(d *draft.Draft) error {
			d.ClearImage()
			return nil
		})
		m.input.SetImage(nil)
		m.input.ClearImagePath()
		return m, nil

	case key.Matches(msg, m.keys.ScrollUp), key.Matches(msg, m.keys.ScrollDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.syncDraft()
	return m, cmd
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.sidebar.StopFilter()
		return m, nil
	case "enter":
		if sess, ok := m.sidebar.Selected(); ok {
			m.app.Store.Select(sess.ID)
		}
		m.sidebar.StopFilter()
		m.refresh(true)
		return m, nil
	case "up", "ctrl+p":
		m.sidebar.MoveCursor(-1)
		return m, nil
	case "down", "ctrl+n":
		m.sidebar.MoveCursor(1)
		return m, nil
	}

	var cmd tea.Cmd
	m.sidebar, cmd = m.sidebar.Update(msg)
	return m, cmd
}

// =============================================================================
// ACTIONS
// =============================================================================

// syncDraft copies the text fields into the shared draft.
func (m *Model) syncDraft() {
	code, prompt := m.input.Code(), m.input.Prompt()
	_ = m.app.Draft.Update(func(d *draft.Draft) error {
		d.CodeText = code
		d.PromptText = prompt
		return nil
	})
}

// reloadDraft copies the shared draft into the fields.
func (m *Model) reloadDraft() tea.Cmd {
	return m.input.Load(m.app.Draft.Get())
}

func (m *Model) newSession() {
	m.app.Store.Create()
	m.app.Draft.Clear()
	m.reloadDraft()
	m.refresh(true)
}

func (m *Model) deleteCurrent() tea.Cmd {
	sess, ok := m.app.Store.Current()
	if !ok {
		return m.toast(components.ToastInfo, "No session selected")
	}
	for i := range sess.Messages {
		key := messageKey(sess.ID, i)
		m.renderer.Forget(key)
		delete(m.rendered, key)
	}
	if m.app.Store.Delete(sess.ID) {
		m.app.Draft.Clear()
		m.reloadDraft()
	}
	m.refresh(true)
	return nil
}

// selectRelative moves the selection delta steps through the list, which
// is ordered newest first.
func (m *Model) selectRelative(delta int) {
	sessions := m.app.Store.Sessions()
	if len(sessions) == 0 {
		return
	}
	idx := m.app.Store.Index(m.app.Store.CurrentID())
	if idx < 0 {
		idx = 0
	} else {
		idx = min(max(idx+delta, 0), len(sessions)-1)
	}
	m.app.Store.Select(sessions[idx].ID)
	m.refresh(true)
}

// analyze submits the draft. Empty drafts and a second submit while one
// is outstanding are ignored.
func (m *Model) analyze() tea.Cmd {
	m.syncDraft()
	sub, err := m.app.Orchestrator.Begin(m.app.Draft.Get(), m.app.Draft.Clear)
	switch {
	case errors.Is(err, analysis.ErrBusy):
		return nil
	case errors.Is(err, analysis.ErrEmptyDraft):
		return m.toast(components.ToastInfo, "Add code, a prompt or an image first")
	case err != nil:
		return m.toast(components.ToastError, err.Error())
	}

	if sub.CreatedSession {
		m.reloadDraft()
	}
	m.input.SetBusy(true)
	m.refresh(true)
	return tea.Batch(m.spinner.Start(), runAnalysisCmd(m.ctx, sub))
}

func (m Model) handleAnalysisDone(msg AnalysisDoneMsg) (tea.Model, tea.Cmd) {
	m.spinner.Stop()
	m.input.SetBusy(false)
	m.refresh(true)

	res := msg.Result
	var cmds []tea.Cmd
	if res.Err != nil {
		text := analyzer.ErrAnalysisFailed.Error()
		if errors.Is(res.Err, analyzer.ErrNotConfigured) {
			text = analyzer.ErrNotConfigured.Error()
		}
		cmds = append(cmds, m.toast(components.ToastError, text))
	}
	if !res.Delivered {
		cmds = append(cmds, m.toast(components.ToastInfo, "Session was deleted; reply discarded"))
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) loadImage() tea.Cmd {
	path := m.input.ImagePath()
	if path == "" {
		return nil
	}
	err := m.app.Draft.Update(func(d *draft.Draft) error {
		return d.LoadImage(path)
	})
	if err != nil {
		return m.toast(components.ToastError, err.Error())
	}
	img := m.app.Draft.Get().Image
	m.input.SetImage(img)
	m.input.ClearImagePath()
	return m.toast(components.ToastSuccess, "Attached "+img.Label())
}

func (m *Model) copyLastReply() tea.Cmd {
	sess, ok := m.app.Store.Current()
	if !ok {
		return m.toast(components.ToastInfo, "Nothing to copy")
	}
	reply, ok := sess.LastReply()
	if !ok {
		return m.toast(components.ToastInfo, "Nothing to copy")
	}
	return copyCmd(reply.Content)
}

func (m Model) handleConfigReloaded(msg ConfigReloadedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		return m, m.toast(components.ToastError, "Config reload failed: "+msg.Err.Error())
	}
	if err := m.app.Reload(msg.Config); err != nil {
		return m, m.toast(components.ToastError, "Config reload failed: "+err.Error())
	}
	config.SetGlobal(msg.Config)
	m.resize(m.width, m.height)
	return m, m.toast(components.ToastInfo, fmt.Sprintf("Config reloaded (%s)", m.app.Analyzer.Name()))
}

// toast shows a notification and starts the expiry tick if idle.
func (m *Model) toast(kind components.ToastKind, text string) tea.Cmd {
	m.toasts.Add(kind, text)
	if m.toastTicking {
		return nil
	}
	m.toastTicking = true
	return components.ToastTickCmd()
}
