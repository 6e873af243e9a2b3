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

	"github.com/spf13/cobra"

	"github.com/jeranaias/agent-architect/internal/app"
	"github.com/jeranaias/agent-architect/internal/config"
	"github.com/jeranaias/agent-architect/internal/logging"
	"github.com/jeranaias/agent-architect/internal/ui/chat"
	"github.com/jeranaias/agent-architect/internal/ui/styles"
)

// buildApp assembles the application. Tests replace it to inject a fake
// analyzer.
var buildApp = app.New

// =============================================================================
// SHARED STATE
// =============================================================================

// env is the state resolved from persistent flags before a command runs.
type env struct {
	configPath string
	logFile    string
	logLevel   string
	noColor    bool

	cfg     *config.Config
	cfgPath string // file the config came from, "" when defaults
	logger  *slog.Logger
	closer  io.Closer
}

// setup loads the configuration and opens the log.
func (e *env) setup(cmd *cobra.Command) error {
	if e.noColor {
		disableColor()
		styles.DisableColor()
	}

	if e.configPath != "" && !exists(e.configPath) {
		// config init writes this file; everything else runs on defaults.
		e.cfg = config.Default()
		e.cfg.ApplyEnvOverrides()
		e.cfg.SetDefaults()
	} else if e.configPath != "" {
		cfg, err := config.LoadFromPath(e.configPath)
		if err != nil {
			return err
		}
		e.cfg, e.cfgPath = cfg, e.configPath
	} else {
		cfg, err := config.Load()
		if cfg == nil {
			return err
		}
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %v (using defaults)\n", errorColor.Sprint("config:"), err)
		}
		e.cfg = cfg
		if path, perr := config.ActivePath(); perr == nil && exists(path) {
			e.cfgPath = path
		}
	}
	config.SetGlobal(e.cfg)

	logCfg := logging.Config{Level: e.cfg.Log.Level, File: e.cfg.Log.File}
	if e.logLevel != "" {
		logCfg.Level = e.logLevel
	}
	if e.logFile != "" {
		logCfg.File = e.logFile
	}
	logger, closer, err := logging.Setup(logCfg)
	if err != nil {
		return err
	}
	e.logger = logger.With("cmd", cmd.Name())
	e.closer = closer
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (e *env) close() {
	if e.closer != nil {
		e.closer.Close()
	}
}

// =============================================================================
// ROOT COMMAND
// =============================================================================

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	e := &env{}

	root := &cobra.Command{
		Use:   "architect",
		Short: "Agent Architect - code and diagram analysis in the terminal",
		Long: `Agent Architect reviews code snippets and architecture diagrams with a
hosted model and answers in Markdown with mermaid diagrams drawn inline.

Run without arguments for the full-screen interface.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			e.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(e.cfg, e.logger)
			if err != nil {
				return err
			}
			return chat.Run(a, chat.Options{
				Context:    cmd.Context(),
				ConfigPath: e.cfgPath,
				Plain:      e.noColor,
			})
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&e.configPath, "config", "", "config file (default ~/.architect/config.toml)")
	pf.StringVar(&e.logFile, "log-file", "", "write logs to this file")
	pf.StringVar(&e.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.BoolVar(&e.noColor, "no-color", false, "disable colors and syntax highlighting")

	root.AddCommand(
		newAskCmd(e),
		newReplCmd(e),
		newRenderCmd(e),
		newConfigCmd(e),
		newModelsCmd(e),
		newVersionCmd(),
	)
	return root
}

// Execute runs the command line and prints a failing command's error.
func Execute(ctx context.Context) int {
	root := NewRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, errorColor.Sprint("Error:"), err)
		}
		return 1
	}
	return 0
}
