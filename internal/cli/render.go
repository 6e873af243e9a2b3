// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jeranaias/agent-architect/internal/app"
	"github.com/jeranaias/agent-architect/internal/diagram"
)

func newRenderCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "render FILE|-",
		Short: "Draw the mermaid diagrams of a Markdown or .mmd file",
		Long: `Draw the mermaid diagrams of a file in the terminal.

Markdown input has each mermaid fence drawn in order. A .mmd file, or input
without any fence, is treated as a single diagram. "-" reads standard input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, name, err := readSource(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			engine := app.NewEngine(e.cfg, e.logger)
			return renderDiagrams(cmd.Context(), cmd.OutOrStdout(), engine, name, src)
		},
	}
}

func readSource(stdin io.Reader, arg string) (src, name string, err error) {
	if arg == "-" {
		data, err := io.ReadAll(stdin)
		return string(data), "stdin", err
	}
	data, err := os.ReadFile(arg)
	return string(data), arg, err
}

// diagramSources returns the diagrams of a file: every mermaid fence, or
// the whole text when the file is a bare diagram.
func diagramSources(name, src string) []string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".mmd" || ext == ".mermaid" {
		return []string{src}
	}
	blocks := diagram.Extract(src)
	if len(blocks) == 0 {
		return []string{src}
	}
	out := make([]string, len(blocks))
	for i, b := range blocks {
		out[i] = b.Source
	}
	return out
}

// renderDiagrams draws each diagram. A failing diagram prints the error
// placeholder and the rest are still drawn; the command then fails.
func renderDiagrams(ctx context.Context, w io.Writer, engine diagram.Engine, name, src string) error {
	sources := diagramSources(name, src)
	failed := 0
	for i, s := range sources {
		if len(sources) > 1 {
			fmt.Fprintln(w, headingColor.Sprintf("diagram %d/%d", i+1, len(sources)))
		}
		art, err := engine.Render(ctx, uuid.NewString(), s)
		if err != nil {
			failed++
			fmt.Fprintln(w, errorColor.Sprint(diagram.ErrorPlaceholder))
			fmt.Fprintln(w, dimColor.Sprint(err.Error()))
			continue
		}
		fmt.Fprintln(w, art.Text)
		if art.Path != "" {
			fmt.Fprintln(w, dimColor.Sprint("svg: "+art.Path))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d diagrams failed to render", failed, len(sources))
	}
	return nil
}
