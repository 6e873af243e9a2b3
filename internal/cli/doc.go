// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the architect command line.
//
// # Commands
//
//	architect               full-screen interface
//	architect ask [prompt]  one-shot analysis
//	architect repl          line-oriented session
//	architect render FILE   draw the mermaid blocks of a file
//	architect config ...    show, locate or initialize the config file
//	architect version       build information
//
// Every command shares the persistent flags --config, --log-file,
// --log-level and --no-color. Analyses from ask and repl go through the
// same session store and orchestrator as the full-screen interface.
package cli
