// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package diagram

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/jeranaias/agent-architect/internal/logging"
)

// ErrorPlaceholder replaces a diagram that failed to render.
const ErrorPlaceholder = "Error rendering diagram: Invalid diagram syntax."

// RenderingPlaceholder is shown while an attempt is in flight.
const RenderingPlaceholder = "Rendering diagram..."

// Status is the render state of a Cell.
type Status int

const (
	StatusPending Status = iota
	StatusRendering
	StatusRendered
	StatusFailed
	StatusEmpty
)

func (s Status) String() string {
	switch s {
	case StatusRendering:
		return "rendering"
	case StatusRendered:
		return "rendered"
	case StatusFailed:
		return "failed"
	case StatusEmpty:
		return "empty"
	default:
		return "pending"
	}
}

// Cell owns the render state of one diagram occurrence. Only the latest
// attempt may change it; results of superseded attempts are discarded.
type Cell struct {
	engine Engine
	logger *slog.Logger

	mu       sync.Mutex
	status   Status
	source   string
	renderID string
	artifact Artifact
	err      error
	done     chan struct{}
	cancel   context.CancelFunc
	onDone   func(renderID string)
}

// NewCell creates a cell rendering with engine. A nil logger uses the
// default logger.
func NewCell(engine Engine, logger *slog.Logger) *Cell {
	if logger == nil {
		logger = slog.Default()
	}
	done := make(chan struct{})
	close(done)
	return &Cell{engine: engine, logger: logger, done: done}
}

// OnDone registers fn to run after each attempt that is still current when
// it finishes. fn runs on the render goroutine.
func (c *Cell) OnDone(fn func(renderID string)) {
	c.mu.Lock()
	c.onDone = fn
	c.mu.Unlock()
}

// Render starts a new attempt for src and returns its render id. Any
// in-flight attempt is cancelled and its result ignored. Blank source is
// not rendered: the cell becomes empty and the returned id is "".
func (c *Cell) Render(ctx context.Context, src string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.source = src
	c.artifact = Artifact{}
	c.err = nil

	if strings.TrimSpace(src) == "" {
		c.status = StatusEmpty
		c.renderID = ""
		done := make(chan struct{})
		close(done)
		c.done = done
		return ""
	}

	id := uuid.NewString()
	attemptCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	c.status = StatusRendering
	c.renderID = id
	c.cancel = cancel
	c.done = done

	go c.run(attemptCtx, cancel, id, src, done)
	return id
}

func (c *Cell) run(ctx context.Context, cancel context.CancelFunc, id, src string, done chan struct{}) {
	defer close(done)
	defer cancel()

	var art Artifact
	rh := logging.NewRecoveryHandler("diagram", c.logger)
	err := rh.WrapError(func() error {
		var err error
		art, err = c.engine.Render(ctx, id, src)
		return err
	})

	c.mu.Lock()
	if c.renderID != id {
		c.mu.Unlock()
		c.logger.Debug("discarding stale diagram render", "render_id", id)
		return
	}
	c.cancel = nil
	switch {
	case err == nil:
		c.status = StatusRendered
		c.artifact = art
	case errors.Is(err, ErrEmptyDiagram):
		c.status = StatusEmpty
	default:
		c.status = StatusFailed
		c.err = err
		c.logger.Debug("diagram render failed", "render_id", id, "error", err)
	}
	onDone := c.onDone
	c.mu.Unlock()

	if onDone != nil {
		onDone(id)
	}
}

// Wait blocks until the current attempt finishes or ctx is done.
func (c *Cell) Wait(ctx context.Context) error {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel stops the in-flight attempt, if any.
func (c *Cell) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// Status returns the current state.
func (c *Cell) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// RenderID returns the id of the latest attempt.
func (c *Cell) RenderID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.renderID
}

// Source returns the source of the latest attempt.
func (c *Cell) Source() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.source
}

// Artifact returns the rendered output when Status is StatusRendered.
func (c *Cell) Artifact() (Artifact, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.artifact, c.status == StatusRendered
}

// Err returns the failure of the latest attempt.
func (c *Cell) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// View returns what to display for the cell.
func (c *Cell) View() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.status {
	case StatusRendered:
		if c.artifact.Path != "" {
			return c.artifact.Text + "\n\nsvg: " + c.artifact.Path
		}
		return c.artifact.Text
	case StatusFailed:
		return ErrorPlaceholder
	case StatusEmpty:
		return ""
	default:
		return RenderingPlaceholder
	}
}
