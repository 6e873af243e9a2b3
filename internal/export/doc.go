// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes a session to Markdown or JSON.
//
// Exports are one-way. Nothing in the application reads them back.
//
// # Usage
//
//	data, err := export.Render(sess, export.FormatMarkdown)
//	path, err := export.ToDir(sess, export.FormatJSON, ".")
package export
