// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/agent-architect/internal/model"
	"github.com/jeranaias/agent-architect/internal/ollama"
)

func newModelsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the models of the local Ollama server",
		Long: `List the models pulled into the Ollama server at local.ollama_url.
The configured local.ollama_model is marked with "*".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := ollama.NewClientWithConfig(&ollama.ClientConfig{
				BaseURL:      e.cfg.Local.OllamaURL,
				DefaultModel: e.cfg.Local.OllamaModel,
				Logger:       e.logger,
			})
			models, err := client.ListModels(cmd.Context())
			if err != nil {
				return fmt.Errorf("%s: %w", e.cfg.Local.OllamaURL, err)
			}
			printModels(cmd.OutOrStdout(), models, e.cfg.Local.OllamaModel)
			return nil
		},
	}
}

func printModels(w io.Writer, models []ollama.ModelInfo, configured string) {
	if len(models) == 0 {
		fmt.Fprintln(w, dimColor.Sprint("No local models. Pull one with: ollama pull "+configured))
		return
	}
	found := false
	for _, m := range models {
		marker := " "
		if m.Name == configured {
			marker = "*"
			found = true
		}
		modified := ""
		if !m.ModifiedAt.IsZero() {
			modified = m.ModifiedAt.Format(time.DateOnly)
		}
		fmt.Fprintf(w, "%s %s %s %s\n",
			marker,
			keyColor.Sprintf("%-32s", m.Name),
			valueColor.Sprintf("%8s", model.FormatBytes(int(m.Size))),
			dimColor.Sprint(modified))
	}
	if !found {
		fmt.Fprintln(w, errorColor.Sprintf("configured model %s is not pulled", configured))
	}
}
