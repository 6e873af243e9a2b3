// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package diagram renders Mermaid blocks found in model responses.
//
// Each fenced ```mermaid block is handled by its own Cell. A Cell renders
// asynchronously under a fresh render id per attempt and keeps only the
// result of its latest attempt. Blank input is never rendered; malformed
// input yields a short error placeholder and never affects the rest of
// the response.
//
// The built-in engine understands flowcharts, state diagrams and sequence
// diagrams and draws them as boxes and arrows in plain text. An external
// mmdc binary can be used instead when installed.
//
// # Key Types
//
//   - Block: A diagram fence located in Markdown content
//   - Engine: Renders source into an Artifact
//   - BuiltinEngine: Pure Go text renderer
//   - ExecEngine: Runs mermaid-cli
//   - Cell: One diagram occurrence with its own render state
//   - Cells: Cells keyed by owning message and block index
//
// # Usage
//
//	for _, b := range diagram.Extract(reply) {
//	    cell := diagram.NewCell(diagram.NewBuiltinEngine(), nil)
//	    cell.Render(ctx, b.Source)
//	    cell.Wait(ctx)
//	    fmt.Println(cell.View())
//	}
package diagram
