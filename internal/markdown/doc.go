// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package markdown renders model responses for the terminal.
//
// Content is split into segments: prose goes through glamour, fenced code
// through chroma, and mermaid fences through diagram cells. Each diagram is
// rendered independently, so a slow or broken diagram never holds back the
// surrounding text.
package markdown
