// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat is the Agent Architect screen: the session sidebar, the
// conversation pane and the input panel, driven by Bubble Tea.
//
// The model never blocks in Update. An analysis is accepted synchronously
// by the orchestrator, which appends the user message, and the external
// call then runs as a tea.Cmd whose result arrives as AnalysisDoneMsg.
// Diagram cells finish on their own goroutines and ask for a redraw with
// DiagramReadyMsg through the running program.
package chat
