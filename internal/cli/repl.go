// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/jeranaias/agent-architect/internal/app"
	"github.com/jeranaias/agent-architect/internal/config"
	"github.com/jeranaias/agent-architect/internal/draft"
	"github.com/jeranaias/agent-architect/internal/export"
	"github.com/jeranaias/agent-architect/internal/model"
	"github.com/jeranaias/agent-architect/internal/ui/components"
)

// errQuit ends the REPL loop.
var errQuit = errors.New("quit")

const replHelp = `Commands:
  :new                      start a new analysis
  :list                     list sessions, newest first
  :select N                 make session N current
  :delete                   delete the current session
  :code <glob>...           load code from files (no args clears it)
  :image <path>             attach a diagram image (no args clears it)
  :clear                    clear code, prompt and image
  :tab                      toggle Source Code / Visual Diagram
  :export md|json [file]    export the current session
  :help                     show this help
  :quit                     exit

Any other line is sent as the prompt together with the loaded code and image.`

func newReplCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Line-oriented analysis session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(e.cfg, e.logger)
			if err != nil {
				return err
			}
			r := NewREPL(cmd.Context(), a, cmd.OutOrStdout(), renderOptions{plain: e.noColor})
			return r.Run()
		},
	}
}

// =============================================================================
// REPL
// =============================================================================

// REPL reads commands and prompts line by line.
type REPL struct {
	ctx context.Context
	app *app.App
	out io.Writer
	ro  renderOptions

	historyFile string
}

// NewREPL creates a REPL writing to out.
func NewREPL(ctx context.Context, a *app.App, out io.Writer, ro renderOptions) *REPL {
	if ctx == nil {
		ctx = context.Background()
	}
	r := &REPL{ctx: ctx, app: a, out: out, ro: ro}
	if dir, err := config.ConfigDir(); err == nil {
		r.historyFile = filepath.Join(dir, "repl_history")
	}
	return r
}

// Run reads lines until :quit, EOF or ctrl+c.
func (r *REPL) Run() error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	r.loadHistory(line)
	defer r.saveHistory(line)

	fmt.Fprintln(r.out, headingColor.Sprint("Agent Architect"), dimColor.Sprint("- type :help for commands"))
	for {
		input, err := line.Prompt(r.prompt())
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out)
				return nil
			}
			return err
		}
		if strings.TrimSpace(input) == "" {
			continue
		}
		line.AppendHistory(input)

		if err := r.Handle(input); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			fmt.Fprintln(r.out, errorColor.Sprint("error:"), err)
		}
	}
}

func (r *REPL) prompt() string {
	d := r.app.Draft.Get()
	var flags []string
	if d.HasCode() {
		flags = append(flags, "code")
	}
	if d.Image != nil {
		flags = append(flags, "image")
	}
	if len(flags) == 0 {
		return "architect> "
	}
	return fmt.Sprintf("architect[%s]> ", strings.Join(flags, "+"))
}

func (r *REPL) loadHistory(line *liner.State) {
	if r.historyFile == "" {
		return
	}
	if f, err := os.Open(r.historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
}

func (r *REPL) saveHistory(line *liner.State) {
	if r.historyFile == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(r.historyFile), 0o700); err != nil {
		return
	}
	f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return
	}
	defer f.Close()
	line.WriteHistory(f)
}

// =============================================================================
// COMMANDS
// =============================================================================

// Handle runs one input line. It returns errQuit for :quit.
func (r *REPL) Handle(input string) error {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, ":") {
		return r.submit(input)
	}

	fields := strings.Fields(input)
	name, args := fields[0], fields[1:]
	switch name {
	case ":new", ":n":
		sess := r.app.Store.Create()
		r.app.Draft.Clear()
		r.printf("%s %s\n", okColor.Sprint("created"), sess.Title)

	case ":list", ":ls":
		r.list()

	case ":select", ":s":
		if len(args) != 1 {
			return errors.New("usage: :select N")
		}
		return r.selectN(args[0])

	case ":delete", ":rm":
		sess, ok := r.app.Store.Current()
		if !ok {
			return errors.New("no current session")
		}
		if r.app.Store.Delete(sess.ID) {
			r.app.Draft.Clear()
		}
		r.printf("%s %s\n", okColor.Sprint("deleted"), sess.Title)

	case ":code":
		return r.loadCode(args)

	case ":image":
		return r.loadImage(args)

	case ":clear":
		r.app.Draft.Clear()
		r.printf("draft cleared\n")

	case ":tab":
		_ = r.app.Draft.Update(func(d *draft.Draft) error {
			d.ToggleTab()
			return nil
		})
		r.printf("tab: %s\n", r.app.Draft.Get().ActiveTab)

	case ":export":
		return r.export(args)

	case ":help", ":h", ":?":
		r.printf("%s\n", replHelp)

	case ":quit", ":q", ":exit":
		return errQuit

	default:
		return fmt.Errorf("unknown command %s (try :help)", name)
	}
	return nil
}

func (r *REPL) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}

func (r *REPL) list() {
	sessions := r.app.Store.Sessions()
	if len(sessions) == 0 {
		r.printf("%s\n", dimColor.Sprint("No active sessions."))
		return
	}
	current := r.app.Store.CurrentID()
	for i, s := range sessions {
		marker := " "
		if s.ID == current {
			marker = "*"
		}
		r.printf("%s %s %s %s\n",
			marker,
			keyColor.Sprintf("%2d", i+1),
			s.Title,
			dimColor.Sprintf("(%d messages)", s.MessageCount()))
	}
	r.printf("%s\n", dimColor.Sprintf("%d sessions, %d messages", len(sessions), r.app.Store.MessageCount()))
}

func (r *REPL) selectN(arg string) error {
	n, err := strconv.Atoi(arg)
	sessions := r.app.Store.Sessions()
	if err != nil || n < 1 || n > len(sessions) {
		return fmt.Errorf("no session %s (have %d)", arg, len(sessions))
	}
	sess := sessions[n-1]
	r.app.Store.Select(sess.ID)
	r.printf("%s %s\n", okColor.Sprint("selected"), sess.Title)
	for _, msg := range sess.Messages {
		r.printMessage(sess.ID, msg)
	}
	return nil
}

func (r *REPL) loadCode(patterns []string) error {
	if len(patterns) == 0 {
		_ = r.app.Draft.Update(func(d *draft.Draft) error {
			d.CodeText = ""
			return nil
		})
		r.printf("code cleared\n")
		return nil
	}
	code, files, err := GatherFiles(patterns...)
	if err != nil {
		return err
	}
	_ = r.app.Draft.Update(func(d *draft.Draft) error {
		d.CodeText = code
		d.ActiveTab = draft.TabSource
		return nil
	})
	r.printf("%s %d file(s), %s\n", okColor.Sprint("loaded"), len(files), model.FormatBytes(len(code)))
	return nil
}

func (r *REPL) loadImage(args []string) error {
	if len(args) == 0 {
		_ = r.app.Draft.Update(func(d *draft.Draft) error {
			d.ClearImage()
			return nil
		})
		r.printf("image cleared\n")
		return nil
	}
	path := strings.Join(args, " ")
	err := r.app.Draft.Update(func(d *draft.Draft) error {
		if err := d.LoadImage(path); err != nil {
			return err
		}
		d.ActiveTab = draft.TabVisual
		return nil
	})
	if err != nil {
		return err
	}
	r.printf("%s %s\n", okColor.Sprint("attached"), r.app.Draft.Get().Image.Label())
	return nil
}

func (r *REPL) export(args []string) error {
	if len(args) == 0 || len(args) > 2 {
		return errors.New("usage: :export md|json [file]")
	}
	format, err := export.ParseFormat(args[0])
	if err != nil {
		return err
	}
	sess, ok := r.app.Store.Current()
	if !ok {
		return errors.New("no current session")
	}

	var path string
	if len(args) == 2 {
		data, err := export.Render(sess, format)
		if err != nil {
			return err
		}
		path = args[1]
		err = export.WriteFile(path, data)
		if err != nil {
			return err
		}
	} else {
		path, err = export.ToDir(sess, format, ".")
		if err != nil {
			return err
		}
	}
	r.printf("%s %s\n", okColor.Sprint("exported"), path)
	return nil
}

// submit sends the draft with line as its prompt and prints the reply.
func (r *REPL) submit(line string) error {
	_ = r.app.Draft.Update(func(d *draft.Draft) error {
		d.PromptText = line
		return nil
	})

	results, err := r.app.Orchestrator.Submit(r.ctx, r.app.Draft.Get(), r.app.Draft.Clear)
	if err != nil {
		return err
	}
	r.printf("%s\n", dimColor.Sprint(components.ThinkingMessage))
	res := <-results

	r.printMessage(res.SessionID, res.Reply)
	if res.Err != nil {
		return userError(res.Err)
	}
	return nil
}

func (r *REPL) printMessage(sessionID string, msg model.Message) {
	label := promptColor.Sprint(msg.Role.DisplayName() + ":")
	if msg.IsUser() {
		r.printf("%s %s\n", label, msg.Content)
		for i := range msg.Images {
			r.printf("  %s\n", dimColor.Sprint("[image] "+msg.Images[i].Label()))
		}
		return
	}
	r.printf("%s\n", label)
	if err := printReply(r.ctx, r.out, r.app, sessionID+"/"+msg.CreatedAt.String(), msg.Content, r.ro); err != nil {
		r.printf("%s %v\n", errorColor.Sprint("render:"), err)
	}
}
