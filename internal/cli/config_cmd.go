// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/agent-architect/internal/config"
)

func newConfigCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show, locate or initialize the configuration",
	}

	var showSecrets bool
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Global()
			if !showSecrets {
				cfg = cfg.Redacted()
			}
			data, err := config.EncodeTOML(cfg)
			if err != nil {
				return err
			}
			writeTOML(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	show.Flags().BoolVar(&showSecrets, "show-secrets", false, "print API keys unmasked")

	path := &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := configFile(e)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), p)
			return nil
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := configFile(e)
			if err != nil {
				return err
			}
			if _, err := os.Stat(p); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", p)
			}
			if err := config.SaveTOML(config.Default(), p); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okColor.Sprint("wrote"), p)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	get := &cobra.Command{
		Use:   "get KEY",
		Short: "Print one value, e.g. analysis.title_length",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := config.Global().Redacted().Get(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Change one value and save the config file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := configFile(e)
			if err != nil {
				return err
			}
			isJSON := strings.HasSuffix(strings.ToLower(p), ".json")
			// Decode the file alone so environment overrides are not saved.
			cfg := config.Default()
			if _, statErr := os.Stat(p); statErr == nil {
				if isJSON {
					err = config.LoadJSON(cfg, p)
				} else {
					err = config.LoadTOML(cfg, p)
				}
				if err != nil {
					return err
				}
			}
			if err := cfg.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if isJSON {
				err = config.SaveJSON(cfg, p)
			} else {
				err = config.SaveTOML(cfg, p)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s = %s\n", okColor.Sprint("set"), args[0], args[1])
			return nil
		},
	}

	cmd.AddCommand(show, path, initCmd, get, set)
	return cmd
}

// configFile is the --config path, else the file Load reads.
func configFile(e *env) (string, error) {
	if e.configPath != "" {
		return e.configPath, nil
	}
	return config.ActivePath()
}

// writeTOML prints TOML with section headers, keys, values and comments
// colored.
func writeTOML(w io.Writer, text string) {
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			fmt.Fprintln(w)
		case strings.HasPrefix(trimmed, "#"):
			fmt.Fprintln(w, commentColor.Sprint(line))
		case strings.HasPrefix(trimmed, "["):
			fmt.Fprintln(w, headingColor.Sprint(line))
		default:
			k, v, ok := strings.Cut(line, "=")
			if !ok {
				fmt.Fprintln(w, line)
				continue
			}
			fmt.Fprintf(w, "%s=%s\n", keyColor.Sprint(k), valueColor.Sprint(v))
		}
	}
}
