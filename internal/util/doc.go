// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small string and file helpers.
//
// # Key Functions
//
//   - TruncateRunes: UTF-8 safe truncation with ellipsis
//   - TruncateWidth, PadWidth: Column-accurate truncation and padding
//   - TitleFromText: Short single-line title from free text
//   - Slugify: File-name-safe slug
//   - AtomicWriteFile: Crash-safe file writing
//
// # Usage
//
//	title := util.TitleFromText(prompt, 30)
//	cell := util.PadWidth(util.TruncateWidth(name, 20), 20)
//	err := util.AtomicWriteFile(path, data, 0o644)
package util
