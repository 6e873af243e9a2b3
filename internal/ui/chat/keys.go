// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines the keyboard bindings of the screen.
type KeyMap struct {
	NewSession    key.Binding
	DeleteSession key.Binding
	PrevSession   key.Binding
	NextSession   key.Binding
	CycleFocus    key.Binding
	ToggleTab     key.Binding
	Analyze       key.Binding
	Enter         key.Binding
	Copy          key.Binding
	Export        key.Binding
	Filter        key.Binding
	ClearImage    key.Binding
	Escape        key.Binding
	ScrollUp      key.Binding
	ScrollDown    key.Binding
	Quit          key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		NewSession: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("C-n", "new"),
		),
		DeleteSession: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("C-x", "delete"),
		),
		PrevSession: key.NewBinding(
			key.WithKeys("ctrl+up"),
			key.WithHelp("C-up", "prev"),
		),
		NextSession: key.NewBinding(
			key.WithKeys("ctrl+down"),
			key.WithHelp("C-down", "next"),
		),
		CycleFocus: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("Tab", "focus"),
		),
		ToggleTab: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("C-t", "code/diagram"),
		),
		Analyze: key.NewBinding(
			key.WithKeys("ctrl+s", "ctrl+enter"),
			key.WithHelp("C-s", "analyze"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "submit"),
		),
		Copy: key.NewBinding(
			key.WithKeys("ctrl+y"),
			key.WithHelp("C-y", "copy reply"),
		),
		Export: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("C-e", "export"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/", "ctrl+f"),
			key.WithHelp("C-f", "filter"),
		),
		ClearImage: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("C-r", "clear image"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "close"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "scroll up"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "scroll down"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("C-c", "quit"),
		),
	}
}

// ShortHelp returns the bindings shown in the status bar.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Analyze, k.ToggleTab, k.NewSession, k.DeleteSession, k.Filter, k.Copy, k.Export, k.Quit}
}

// FullHelp returns every binding, grouped.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NewSession, k.DeleteSession, k.PrevSession, k.NextSession, k.Filter},
		{k.CycleFocus, k.ToggleTab, k.Analyze, k.ClearImage},
		{k.Copy, k.Export, k.ScrollUp, k.ScrollDown, k.Quit},
	}
}
