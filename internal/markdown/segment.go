// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markdown

import (
	"strings"

	"github.com/jeranaias/agent-architect/internal/diagram"
)

// Kind is the type of a Segment.
type Kind int

const (
	KindText Kind = iota
	KindCode
	KindDiagram
)

func (k Kind) String() string {
	switch k {
	case KindCode:
		return "code"
	case KindDiagram:
		return "diagram"
	default:
		return "text"
	}
}

// Segment is a contiguous piece of a response.
type Segment struct {
	Kind  Kind
	Text  string // prose, code or diagram source
	Lang  string // fence language for code
	Index int    // position among diagram segments
}

// Segments splits content into prose, code and diagram segments in order.
// Whitespace-only prose between fences is dropped.
func Segments(content string) []Segment {
	var out []Segment
	pos := 0
	diagrams := 0

	addText := func(s string) {
		if strings.TrimSpace(s) != "" {
			out = append(out, Segment{Kind: KindText, Text: s})
		}
	}

	for _, f := range diagram.Fences(content) {
		addText(content[pos:f.Start])
		if diagram.IsDiagramLang(f.Lang) {
			out = append(out, Segment{Kind: KindDiagram, Text: f.Body, Lang: f.Lang, Index: diagrams})
			diagrams++
		} else {
			out = append(out, Segment{Kind: KindCode, Text: f.Body, Lang: f.Lang})
		}
		pos = f.End
	}
	addText(content[pos:])
	return out
}
