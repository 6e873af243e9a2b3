// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/agent-architect/internal/analysis"
	"github.com/jeranaias/agent-architect/internal/analyzer"
	"github.com/jeranaias/agent-architect/internal/app"
	"github.com/jeranaias/agent-architect/internal/draft"
	"github.com/jeranaias/agent-architect/internal/markdown"
)

type askOptions struct {
	files    []string
	image    string
	provider string
	model    string
	raw      bool
}

func newAskCmd(e *env) *cobra.Command {
	o := &askOptions{}
	cmd := &cobra.Command{
		Use:   "ask [prompt]",
		Short: "Run one analysis and print the reply",
		Long: `Run one analysis and print the reply.

Code comes from --file patterns (doublestar globs such as "internal/**/*.go")
or from standard input when it is not a terminal. The reply is rendered as
Markdown with mermaid diagrams drawn inline; --raw prints it unchanged.`,
		Example: `  architect ask "Check for race conditions" --file "pkg/**/*.go"
  architect ask --image arch.png "Is this design sound?"
  cat main.go | architect ask --raw`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := e.cfg.Clone()
			if o.provider != "" {
				cfg.Provider = strings.ToLower(o.provider)
			}
			if o.model != "" {
				cfg.SetModel(o.model)
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			a, err := buildApp(cfg, e.logger)
			if err != nil {
				return err
			}

			var stdin io.Reader
			if f, ok := cmd.InOrStdin().(*os.File); !ok || !IsTerminal(f) {
				stdin = cmd.InOrStdin()
			}
			d, err := buildDraft(strings.Join(args, " "), o.files, o.image, stdin)
			if err != nil {
				return err
			}

			return runAsk(cmd.Context(), a, d, cmd.OutOrStdout(), renderOptions{
				raw:   o.raw,
				plain: e.noColor,
			})
		},
	}

	f := cmd.Flags()
	f.StringArrayVarP(&o.files, "file", "f", nil, "code file or doublestar glob (repeatable)")
	f.StringVarP(&o.image, "image", "i", "", "diagram image to attach")
	f.StringVar(&o.provider, "provider", "", "backend: gemini, openrouter or ollama")
	f.StringVarP(&o.model, "model", "m", "", "model for the selected backend")
	f.BoolVar(&o.raw, "raw", false, "print the Markdown reply without rendering")
	return cmd
}

// buildDraft assembles the input of a one-shot analysis.
func buildDraft(prompt string, patterns []string, image string, stdin io.Reader) (draft.Draft, error) {
	d := draft.Draft{PromptText: strings.TrimSpace(prompt)}

	if len(patterns) > 0 {
		code, _, err := GatherFiles(patterns...)
		if err != nil {
			return d, err
		}
		d.CodeText = code
	} else if stdin != nil {
		data, err := io.ReadAll(io.LimitReader(stdin, MaxCodeBytes+1))
		if err != nil {
			return d, fmt.Errorf("read stdin: %w", err)
		}
		if len(data) > MaxCodeBytes {
			return d, fmt.Errorf("stdin exceeds %d bytes", MaxCodeBytes)
		}
		d.CodeText = string(data)
	}

	if image != "" {
		if err := d.LoadImage(image); err != nil {
			return d, err
		}
		d.ActiveTab = draft.TabVisual
	}

	if d.IsEmpty() {
		return d, analysis.ErrEmptyDraft
	}
	return d, nil
}

// runAsk submits d and prints the reply.
func runAsk(ctx context.Context, a *app.App, d draft.Draft, w io.Writer, ro renderOptions) error {
	a.Draft.Set(d)
	results, err := a.Orchestrator.Submit(ctx, a.Draft.Get(), a.Draft.Clear)
	if err != nil {
		return err
	}
	res := <-results

	if err := printReply(ctx, w, a, res.SubmissionID, res.Reply.Content, ro); err != nil {
		return err
	}
	if res.Err != nil {
		return userError(res.Err)
	}
	return nil
}

// userError maps an analyzer failure to its user-facing message.
func userError(err error) error {
	if errors.Is(err, analyzer.ErrNotConfigured) {
		return analyzer.ErrNotConfigured
	}
	return analyzer.ErrAnalysisFailed
}

// =============================================================================
// REPLY RENDERING
// =============================================================================

type renderOptions struct {
	raw   bool
	plain bool
}

// printReply renders content to w. Diagrams are awaited so the output
// holds the drawings rather than the pending placeholder.
func printReply(ctx context.Context, w io.Writer, a *app.App, key, content string, ro renderOptions) error {
	if ro.raw {
		_, err := fmt.Fprintln(w, content)
		return err
	}

	r, err := markdown.NewRenderer(markdown.Options{
		Width:  TerminalWidth(w),
		Style:  glamourStyle(w, ro.plain),
		Plain:  ro.plain,
		Engine: a.Engine,
		Logger: loggerOr(a.Logger),
	})
	if err != nil {
		return err
	}
	defer r.Close()

	r.Render(key, content)
	if err := r.WaitDiagrams(ctx, key, content); err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, r.Render(key, content))
	return err
}

// glamourStyle picks "auto" on a terminal and "notty" elsewhere.
func glamourStyle(w io.Writer, plain bool) string {
	if f, ok := w.(*os.File); ok && !plain && IsTerminal(f) {
		return "auto"
	}
	return "notty"
}

func loggerOr(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
