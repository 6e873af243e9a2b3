// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/agent-architect/internal/analysis"
	"github.com/jeranaias/agent-architect/internal/config"
	"github.com/jeranaias/agent-architect/internal/diagram"
)

// =============================================================================
// ASYNC RESULTS
// =============================================================================

// AnalysisDoneMsg carries the outcome of the outstanding analysis.
type AnalysisDoneMsg struct {
	Result analysis.Result
}

// DiagramReadyMsg is sent when a diagram cell settles.
type DiagramReadyMsg struct {
	Key diagram.CellKey
}

// ConfigReloadedMsg is sent when the config file changes on disk. Err is
// set when the new file could not be loaded.
type ConfigReloadedMsg struct {
	Config *config.Config
	Err    error
}

// StoreChangedMsg is sent after the session store changes, including
// changes made off the UI goroutine such as a reply landing.
type StoreChangedMsg struct {
	Version uint64
}

// ExportedMsg reports a finished export.
type ExportedMsg struct {
	Path string
	Err  error
}

// CopiedMsg reports a finished clipboard write.
type CopiedMsg struct {
	Err error
}
