// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/agent-architect/internal/app"
	"github.com/jeranaias/agent-architect/internal/config"
	"github.com/jeranaias/agent-architect/internal/diagram"
	"github.com/jeranaias/agent-architect/internal/markdown"
	"github.com/jeranaias/agent-architect/internal/ui/components"
	"github.com/jeranaias/agent-architect/internal/ui/styles"
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures the screen.
type Options struct {
	// Context is passed to analyses. Defaults to context.Background.
	Context context.Context

	// ExportDir receives ctrl+e exports. Defaults to the working directory.
	ExportDir string

	// ConfigPath is watched for changes when set.
	ConfigPath string

	// Plain disables glamour and syntax highlighting in replies.
	Plain bool
}

// =============================================================================
// PROGRAM SENDER
// =============================================================================

// sender forwards messages from background goroutines to the program once
// it exists. Sends before that are dropped.
type sender struct {
	mu sync.Mutex
	p  *tea.Program
}

func (s *sender) set(p *tea.Program) {
	s.mu.Lock()
	s.p = p
	s.mu.Unlock()
}

func (s *sender) Send(msg tea.Msg) {
	s.mu.Lock()
	p := s.p
	s.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the whole screen.
type Model struct {
	app  *app.App
	ctx  context.Context
	opts Options

	theme *styles.Theme
	keys  KeyMap

	width  int
	height int
	ready  bool

	sidebar  components.Sidebar
	input    components.InputPanel
	spinner  components.Spinner
	toasts   *components.ToastManager
	welcome  components.Welcome
	viewport viewport.Model
	status   components.StatusBar

	renderer *markdown.Renderer
	rendered map[string]string // message key -> rendered reply
	sender   *sender

	changes     <-chan uint64
	unsubscribe func()

	toastTicking bool
}

// New builds the screen over a.
func New(a *app.App, opts Options) (Model, error) {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}

	cfg := a.Config()
	theme := styles.NewTheme(styles.ParseMode(cfg.UI.Theme))
	s := &sender{}

	r, err := markdown.NewRenderer(markdown.Options{
		Style:  string(theme.Mode),
		Plain:  opts.Plain,
		Engine: a.Engine,
		OnDiagram: func(key diagram.CellKey) {
			s.Send(DiagramReadyMsg{Key: key})
		},
		Logger: a.Logger,
	})
	if err != nil {
		return Model{}, err
	}

	changes, unsubscribe := a.Store.Subscribe()

	m := Model{
		app:      a,
		ctx:      opts.Context,
		opts:     opts,
		theme:    theme,
		keys:     DefaultKeyMap(),
		sidebar:  components.NewSidebar(theme),
		input:    components.NewInputPanel(theme),
		spinner:  components.NewSpinner(),
		toasts:   components.NewToastManager(),
		welcome:  components.NewWelcome(theme),
		viewport: viewport.New(80, 20),
		renderer: r,
		rendered: make(map[string]string),
		sender:   s,

		changes:     changes,
		unsubscribe: unsubscribe,
	}
	m.input.Load(a.Draft.Get())
	m.refresh(true)
	return m, nil
}

// Init starts the cursor blink of the focused field and listens for store
// changes.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, waitForStoreChange(m.changes))
}

// Close stops the store subscription and cancels in-flight diagram renders.
func (m Model) Close() {
	m.unsubscribe()
	m.renderer.Close()
}

// messageKey identifies one message for diagram cells and the render cache.
func messageKey(sessionID string, index int) string {
	return fmt.Sprintf("%s#%d", sessionID, index)
}

// =============================================================================
// RUN
// =============================================================================

// Run starts the full-screen program and blocks until it exits.
func Run(a *app.App, opts Options) error {
	m, err := New(a, opts)
	if err != nil {
		return err
	}
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	m.sender.set(p)

	if opts.ConfigPath != "" {
		err := config.Watch(m.ctx, opts.ConfigPath, func(cfg *config.Config, err error) {
			p.Send(ConfigReloadedMsg{Config: cfg, Err: err})
		})
		if err != nil {
			a.Logger.Warn("config watch disabled", "path", opts.ConfigPath, "error", err)
		}
	}

	_, err = p.Run()
	return err
}
