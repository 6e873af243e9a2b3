// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markdown

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/agent-architect/internal/diagram"
	"github.com/jeranaias/agent-architect/internal/ui/styles"
)

// DefaultWidth is the wrap width when none is given.
const DefaultWidth = 80

// Options configures a Renderer.
type Options struct {
	// Width is the wrap width for prose and the max width of code blocks.
	Width int

	// Style is a glamour standard style name, or "auto".
	Style string

	// Plain disables glamour and syntax highlighting.
	Plain bool

	// Engine renders diagrams. Defaults to the builtin engine.
	Engine diagram.Engine

	// OnDiagram is called when a diagram finishes rendering.
	OnDiagram func(key diagram.CellKey)

	Logger *slog.Logger
}

// Renderer turns response content into terminal text. Diagram cells are
// kept per (message key, block index) across calls.
type Renderer struct {
	opts   Options
	cells  *diagram.Cells
	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	term *glamour.TermRenderer
}

// NewRenderer creates a renderer.
func NewRenderer(opts Options) (*Renderer, error) {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Style == "" {
		opts.Style = "auto"
	}
	if opts.Engine == nil {
		opts.Engine = diagram.NewBuiltinEngine()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &Renderer{
		opts:   opts,
		cells:  diagram.NewCells(opts.Engine, opts.Logger),
		ctx:    ctx,
		cancel: cancel,
	}
	if !opts.Plain {
		term, err := newTermRenderer(opts.Style, opts.Width)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("create markdown renderer: %w", err)
		}
		r.term = term
	}
	return r, nil
}

func newTermRenderer(style string, width int) (*glamour.TermRenderer, error) {
	styleOpt := glamour.WithStandardStyle(style)
	if style == "auto" {
		styleOpt = glamour.WithAutoStyle()
	}
	return glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
}

// SetWidth changes the wrap width.
func (r *Renderer) SetWidth(width int) error {
	if width <= 0 || width == r.Width() {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opts.Width = width
	if r.opts.Plain {
		return nil
	}
	term, err := newTermRenderer(r.opts.Style, width)
	if err != nil {
		return err
	}
	r.term = term
	return nil
}

// Width returns the wrap width.
func (r *Renderer) Width() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opts.Width
}

// Render draws content. key identifies the owning message so its diagram
// cells survive re-renders; diagrams still in flight show a placeholder.
func (r *Renderer) Render(key, content string) string {
	segments := Segments(content)
	parts := make([]string, 0, len(segments))

	for _, seg := range segments {
		switch seg.Kind {
		case KindText:
			parts = append(parts, r.renderText(seg.Text))
		case KindCode:
			cb := NewCodeBlock(seg.Lang, seg.Text)
			cb.MaxWidth = r.Width()
			cb.Plain = r.opts.Plain
			parts = append(parts, cb.Render())
		case KindDiagram:
			if view := r.renderDiagram(key, seg); view != "" {
				parts = append(parts, view)
			}
		}
	}
	return strings.Join(parts, "\n\n")
}

func (r *Renderer) renderText(text string) string {
	r.mu.Lock()
	term := r.term
	r.mu.Unlock()

	if term == nil {
		return strings.Trim(text, "\n")
	}
	out, err := term.Render(text)
	if err != nil {
		r.opts.Logger.Debug("markdown render failed", "error", err)
		return strings.Trim(text, "\n")
	}
	return strings.Trim(out, "\n")
}

func (r *Renderer) renderDiagram(key string, seg Segment) string {
	ck := diagram.CellKey{Owner: key, Index: seg.Index}
	cell, created := r.cells.Get(ck)
	if created && r.opts.OnDiagram != nil {
		cell.OnDone(func(string) { r.opts.OnDiagram(ck) })
	}
	if created || cell.Source() != seg.Text {
		cell.Render(r.ctx, seg.Text)
	}

	view := cell.View()
	if view == "" {
		return ""
	}
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.Indigo).
		Padding(0, 1).
		Render(view)
}

// WaitDiagrams blocks until every diagram cell of content under key has
// finished. Call it after Render.
func (r *Renderer) WaitDiagrams(ctx context.Context, key, content string) error {
	for _, b := range diagram.Extract(content) {
		cell, _ := r.cells.Get(diagram.CellKey{Owner: key, Index: b.Index})
		if err := cell.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Forget drops the diagram cells of a message.
func (r *Renderer) Forget(key string) {
	r.cells.Drop(key)
}

// Cells exposes the diagram cells.
func (r *Renderer) Cells() *diagram.Cells {
	return r.cells
}

// Close cancels all in-flight diagram renders.
func (r *Renderer) Close() {
	r.cancel()
	r.cells.Reset()
}
