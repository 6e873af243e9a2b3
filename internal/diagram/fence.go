// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package diagram

import (
	"strings"
)

// Fence is a fenced code block in Markdown content. Start and End are byte
// offsets of the whole fence, including the delimiter lines.
type Fence struct {
	Info   string // full info string, trimmed
	Lang   string // first word of Info, lowercased
	Body   string
	Start  int
	End    int
	Closed bool
}

// Block is a diagram fence.
type Block struct {
	Index  int // position among diagram blocks in the content
	Source string
	Start  int
	End    int
}

// IsDiagramLang reports whether a fence language marks a diagram.
func IsDiagramLang(lang string) bool {
	return strings.EqualFold(strings.TrimSpace(lang), "mermaid")
}

// Extract returns every diagram block in content, in order.
func Extract(content string) []Block {
	var blocks []Block
	for _, f := range Fences(content) {
		if !IsDiagramLang(f.Lang) {
			continue
		}
		blocks = append(blocks, Block{
			Index:  len(blocks),
			Source: f.Body,
			Start:  f.Start,
			End:    f.End,
		})
	}
	return blocks
}

// Fences scans content for ``` and ~~~ fences. A fence closes on a line of
// at least as many of the same character; an unclosed fence runs to the end
// of the content.
func Fences(content string) []Fence {
	var fences []Fence

	offset := 0
	var open *Fence
	var openChar byte
	var openLen int
	var body strings.Builder

	for offset < len(content) {
		end := strings.IndexByte(content[offset:], '\n')
		lineEnd := len(content)
		next := len(content)
		if end >= 0 {
			lineEnd = offset + end
			next = lineEnd + 1
		}
		line := strings.TrimSuffix(content[offset:lineEnd], "\r")

		if open == nil {
			if ch, n, info, ok := fenceOpen(line); ok {
				open = &Fence{Info: info, Lang: langOf(info), Start: offset}
				openChar, openLen = ch, n
				body.Reset()
			}
		} else if fenceClose(line, openChar, openLen) {
			open.Body = strings.TrimSuffix(body.String(), "\n")
			open.End = next
			open.Closed = true
			fences = append(fences, *open)
			open = nil
		} else {
			body.WriteString(line)
			body.WriteByte('\n')
		}
		offset = next
	}

	if open != nil {
		open.Body = strings.TrimSuffix(body.String(), "\n")
		open.End = len(content)
		fences = append(fences, *open)
	}
	return fences
}

func fenceOpen(line string) (ch byte, n int, info string, ok bool) {
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 || len(trimmed) < 3 {
		return 0, 0, "", false
	}
	ch = trimmed[0]
	if ch != '`' && ch != '~' {
		return 0, 0, "", false
	}
	for n < len(trimmed) && trimmed[n] == ch {
		n++
	}
	if n < 3 {
		return 0, 0, "", false
	}
	info = strings.TrimSpace(trimmed[n:])
	if ch == '`' && strings.Contains(info, "`") {
		return 0, 0, "", false
	}
	return ch, n, info, true
}

func fenceClose(line string, ch byte, minLen int) bool {
	trimmed := strings.TrimSpace(line)
	if len(line)-len(strings.TrimLeft(line, " ")) > 3 || len(trimmed) < minLen {
		return false
	}
	for i := 0; i < len(trimmed); i++ {
		if trimmed[i] != ch {
			return false
		}
	}
	return true
}

func langOf(info string) string {
	if i := strings.IndexAny(info, " \t{"); i >= 0 {
		info = info[:i]
	}
	return strings.ToLower(info)
}
