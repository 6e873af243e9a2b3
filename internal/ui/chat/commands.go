// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/agent-architect/internal/analysis"
	"github.com/jeranaias/agent-architect/internal/export"
	"github.com/jeranaias/agent-architect/internal/model"
)

// =============================================================================
// COMMAND CREATORS
// =============================================================================

// runAnalysisCmd performs the external call for an accepted submission.
// The closure owns sub; nothing else runs it.
func runAnalysisCmd(ctx context.Context, sub *analysis.Submission) tea.Cmd {
	return func() tea.Msg {
		return AnalysisDoneMsg{Result: sub.Run(ctx)}
	}
}

// waitForStoreChange delivers the next store version. It returns nil once
// the subscription is cancelled.
func waitForStoreChange(changes <-chan uint64) tea.Cmd {
	return func() tea.Msg {
		v, ok := <-changes
		if !ok {
			return nil
		}
		return StoreChangedMsg{Version: v}
	}
}

// writeClipboard is swapped in tests.
var writeClipboard = clipboard.WriteAll

// copyCmd writes text to the system clipboard.
func copyCmd(text string) tea.Cmd {
	return func() tea.Msg {
		return CopiedMsg{Err: writeClipboard(text)}
	}
}

// exportCmd writes sess as Markdown into dir.
func exportCmd(sess model.Session, dir string) tea.Cmd {
	return func() tea.Msg {
		path, err := export.ToDir(sess, export.FormatMarkdown, dir)
		return ExportedMsg{Path: path, Err: err}
	}
}
