// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package diagram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Artifact is the output of one render attempt.
type Artifact struct {
	RenderID string
	Kind     Kind
	Text     string // plain-text drawing
	Width    int
	Height   int
	Path     string // file written by an external renderer, if any
}

// Engine renders diagram source. Implementations must be safe for
// concurrent use and return ErrEmptyDiagram or an error matching ErrSyntax
// for blank or malformed input.
type Engine interface {
	Render(ctx context.Context, renderID, src string) (Artifact, error)
	Name() string
}

// =============================================================================
// BUILTIN ENGINE
// =============================================================================

// BuiltinEngine draws diagrams as text without external tools.
type BuiltinEngine struct{}

// NewBuiltinEngine returns the text renderer.
func NewBuiltinEngine() *BuiltinEngine {
	return &BuiltinEngine{}
}

// Name returns "builtin".
func (*BuiltinEngine) Name() string { return "builtin" }

// Render parses and draws src.
func (*BuiltinEngine) Render(ctx context.Context, renderID, src string) (Artifact, error) {
	if err := ctx.Err(); err != nil {
		return Artifact{}, err
	}
	d, err := Parse(src)
	if err != nil {
		return Artifact{}, err
	}
	text := Render(d)
	return Artifact{
		RenderID: renderID,
		Kind:     d.Type,
		Text:     text,
		Width:    lipgloss.Width(text),
		Height:   lipgloss.Height(text),
	}, nil
}

// =============================================================================
// EXEC ENGINE
// =============================================================================

// DefaultExecTimeout bounds one mmdc run.
const DefaultExecTimeout = 30 * time.Second

// ExecEngine runs mermaid-cli to write an SVG next to the text drawing.
// Without the binary it behaves like BuiltinEngine.
type ExecEngine struct {
	Binary  string
	OutDir  string
	Timeout time.Duration
	Logger  *slog.Logger

	builtin *BuiltinEngine
}

// NewExecEngine creates an engine for the mmdc binary. An empty binary
// means "mmdc" from PATH; an empty outDir uses the system temp directory.
func NewExecEngine(binary, outDir string, timeout time.Duration, logger *slog.Logger) *ExecEngine {
	if binary == "" {
		binary = "mmdc"
	}
	if outDir == "" {
		outDir = filepath.Join(os.TempDir(), "architect-diagrams")
	}
	if timeout <= 0 {
		timeout = DefaultExecTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecEngine{
		Binary:  binary,
		OutDir:  outDir,
		Timeout: timeout,
		Logger:  logger,
		builtin: NewBuiltinEngine(),
	}
}

// Name returns "mmdc".
func (e *ExecEngine) Name() string { return "mmdc" }

// Available reports whether the binary can be found.
func (e *ExecEngine) Available() bool {
	_, err := exec.LookPath(e.Binary)
	return err == nil
}

// Render validates and draws src, then writes <OutDir>/<renderID>.svg with
// mmdc. A failed mmdc run is logged and leaves Path empty.
func (e *ExecEngine) Render(ctx context.Context, renderID, src string) (Artifact, error) {
	art, err := e.builtin.Render(ctx, renderID, src)
	if err != nil {
		return Artifact{}, err
	}

	bin, err := exec.LookPath(e.Binary)
	if err != nil {
		return art, nil
	}

	path, err := e.run(ctx, bin, renderID, src)
	if err != nil {
		e.Logger.Warn("mmdc render failed", "render_id", renderID, "error", err)
		return art, nil
	}
	art.Path = path
	return art, nil
}

func (e *ExecEngine) run(ctx context.Context, bin, renderID, src string) (string, error) {
	if err := os.MkdirAll(e.OutDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	in := filepath.Join(e.OutDir, renderID+".mmd")
	out := filepath.Join(e.OutDir, renderID+".svg")
	if err := os.WriteFile(in, []byte(src), 0o644); err != nil {
		return "", fmt.Errorf("write source: %w", err)
	}
	defer os.Remove(in)

	ctx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, bin, "-q", "-i", in, "-o", out)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("mmdc timed out after %s", e.Timeout)
		}
		return "", fmt.Errorf("mmdc: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}
