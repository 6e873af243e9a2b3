// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the building blocks of the Agent Architect
// screen: the session sidebar, the input panel with its Source Code and
// Visual Diagram tabs, the thinking spinner, toasts, the welcome cards and
// the status bar.
//
// Components are plain Bubble Tea style values. Stateful ones expose
// Update(msg) returning the updated value and a command; all of them render
// through View and take their colors from a *styles.Theme.
package components
