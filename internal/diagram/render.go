// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package diagram

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// =============================================================================
// BOXES
// =============================================================================

var (
	diamondBorder = lipgloss.Border{
		Top: "─", Bottom: "─", Left: "<", Right: ">",
		TopLeft: "╱", TopRight: "╲", BottomLeft: "╲", BottomRight: "╱",
	}
	circleBorder = lipgloss.Border{
		Top: "─", Bottom: "─", Left: "(", Right: ")",
		TopLeft: "╭", TopRight: "╮", BottomLeft: "╰", BottomRight: "╯",
	}
	flagBorder = lipgloss.Border{
		Top: "─", Bottom: "─", Left: "▷", Right: "│",
		TopLeft: "┌", TopRight: "┐", BottomLeft: "└", BottomRight: "┘",
	}
)

func boxStyle(shape Shape) lipgloss.Style {
	s := lipgloss.NewStyle().Padding(0, 1)
	switch shape {
	case ShapeRound:
		return s.Border(lipgloss.RoundedBorder())
	case ShapeDiamond:
		return s.Border(diamondBorder)
	case ShapeCircle:
		return s.Border(circleBorder)
	case ShapeFlag:
		return s.Border(flagBorder)
	case ShapeStart, ShapeEnd:
		return lipgloss.NewStyle()
	default:
		return s.Border(lipgloss.NormalBorder())
	}
}

func renderBox(n Node) string {
	return boxStyle(n.Shape).Render(n.Label)
}

// =============================================================================
// GRAPH LAYOUT
// =============================================================================

// Render draws a parsed diagram as plain text. The output depends only on
// the diagram.
func Render(d *Diagram) string {
	if d.Type == KindSequence {
		return renderSequence(d)
	}
	return renderGraph(d)
}

// RenderSource parses and renders src.
func RenderSource(src string) (string, error) {
	d, err := Parse(src)
	if err != nil {
		return "", err
	}
	return Render(d), nil
}

// layers assigns each node the length of the longest path reaching it,
// ignoring edges that close a cycle. Nodes keep declaration order within a
// layer.
func layers(d *Diagram) [][]int {
	n := len(d.Nodes)
	adj := make([][]int, n)
	for _, e := range d.Edges {
		from, to := d.nodeIndex[e.From], d.nodeIndex[e.To]
		adj[from] = append(adj[from], to)
	}

	const (
		unvisited = iota
		onStack
		finished
	)
	mark := make([]int, n)
	forward := make([][]int, n)
	var order []int

	var visit func(v int)
	visit = func(v int) {
		mark[v] = onStack
		for _, w := range adj[v] {
			switch mark[w] {
			case onStack:
				// back edge
			case unvisited:
				forward[v] = append(forward[v], w)
				visit(w)
			default:
				forward[v] = append(forward[v], w)
			}
		}
		mark[v] = finished
		order = append(order, v)
	}
	for v := 0; v < n; v++ {
		if mark[v] == unvisited {
			visit(v)
		}
	}

	level := make([]int, n)
	for i := len(order) - 1; i >= 0; i-- {
		v := order[i]
		for _, w := range forward[v] {
			if level[v]+1 > level[w] {
				level[w] = level[v] + 1
			}
		}
	}

	maxLevel := 0
	for _, l := range level {
		if l > maxLevel {
			maxLevel = l
		}
	}
	out := make([][]int, maxLevel+1)
	for v := 0; v < n; v++ {
		out[level[v]] = append(out[level[v]], v)
	}
	return out
}

func renderGraph(d *Diagram) string {
	rows := layers(d)

	hasOut := make([]bool, len(d.Nodes))
	for _, e := range d.Edges {
		hasOut[d.nodeIndex[e.From]] = true
	}

	var body string
	switch d.Direction() {
	case DirLeftRight, DirRightLeft:
		body = renderColumns(d, rows, d.Direction() == DirRightLeft)
	default:
		body = renderRows(d, rows, hasOut, d.Direction() == DirBottomUp)
	}

	legend := renderEdgeList(d)
	if legend == "" {
		return body
	}
	return body + "\n\n" + legend
}

const nodeGap = 3

func renderRows(d *Diagram, rows [][]int, hasOut []bool, bottomUp bool) string {
	blocks := make([]string, 0, len(rows))
	for li, row := range rows {
		boxes := make([]string, 0, len(row)*2)
		var arrows []int
		x := 0
		for i, v := range row {
			if i > 0 {
				boxes = append(boxes, strings.Repeat(" ", nodeGap))
				x += nodeGap
			}
			b := renderBox(d.Nodes[v])
			w := lipgloss.Width(b)
			if hasOut[v] && li < len(rows)-1 {
				arrows = append(arrows, x+w/2)
			}
			boxes = append(boxes, b)
			x += w
		}
		line := lipgloss.JoinHorizontal(lipgloss.Center, boxes...)

		if len(arrows) > 0 {
			stem, head := connector(arrows, "│"), connector(arrows, "▼")
			if bottomUp {
				head = connector(arrows, "▲")
				line = lipgloss.JoinVertical(lipgloss.Left, head, stem, line)
			} else {
				line = lipgloss.JoinVertical(lipgloss.Left, line, stem, head)
			}
		}
		blocks = append(blocks, line)
	}

	if bottomUp {
		for i, j := 0, len(blocks)-1; i < j; i, j = i+1, j-1 {
			blocks[i], blocks[j] = blocks[j], blocks[i]
		}
	}
	return trimLines(lipgloss.JoinVertical(lipgloss.Center, blocks...))
}

// connector places glyph at each column of xs.
func connector(xs []int, glyph string) string {
	var b strings.Builder
	col := 0
	for _, x := range xs {
		if x < col {
			continue
		}
		b.WriteString(strings.Repeat(" ", x-col))
		b.WriteString(glyph)
		col = x + 1
	}
	return b.String()
}

func renderColumns(d *Diagram, cols [][]int, rightToLeft bool) string {
	parts := make([]string, 0, len(cols)*2)
	arrow := " ──▶ "
	if rightToLeft {
		arrow = " ◀── "
	}
	for ci, col := range cols {
		boxes := make([]string, 0, len(col)*2)
		for i, v := range col {
			if i > 0 {
				boxes = append(boxes, "")
			}
			boxes = append(boxes, renderBox(d.Nodes[v]))
		}
		if ci > 0 {
			parts = append(parts, arrow)
		}
		parts = append(parts, lipgloss.JoinVertical(lipgloss.Center, boxes...))
	}
	if rightToLeft {
		for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
			parts[i], parts[j] = parts[j], parts[i]
		}
	}
	return trimLines(lipgloss.JoinHorizontal(lipgloss.Center, parts...))
}

func renderEdgeList(d *Diagram) string {
	if len(d.Edges) == 0 {
		return ""
	}
	lines := make([]string, 0, len(d.Edges))
	for _, e := range d.Edges {
		from, _ := d.Node(e.From)
		to, _ := d.Node(e.To)
		lines = append(lines, "  "+from.Label+" "+edgeGlyph(e)+" "+to.Label)
	}
	return strings.Join(lines, "\n")
}

func edgeGlyph(e Edge) string {
	stroke := "─"
	switch e.Style {
	case LinkDotted:
		stroke = "┄"
	case LinkThick:
		stroke = "━"
	}
	head := stroke
	if e.Arrow {
		head = "▶"
	}
	if e.Label == "" {
		return strings.Repeat(stroke, 2) + head
	}
	return stroke + stroke + " " + e.Label + " " + stroke + head
}

// trimLines removes trailing spaces that lipgloss joins pad in.
func trimLines(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	return strings.Join(lines, "\n")
}

// =============================================================================
// SEQUENCE LAYOUT
// =============================================================================

// canvas is a grid of cells addressed by terminal column. A zero rune marks
// the second column of a wide character.
type canvas struct {
	rows [][]rune
}

func (c *canvas) put(x, y int, s string) {
	x = max(x, 0)
	for len(c.rows) <= y {
		c.rows = append(c.rows, nil)
	}
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		for len(c.rows[y]) < x+w {
			c.rows[y] = append(c.rows[y], ' ')
		}
		c.rows[y][x] = r
		if w == 2 {
			c.rows[y][x+1] = 0
		}
		x += w
	}
}

func (c *canvas) String() string {
	lines := make([]string, len(c.rows))
	for i, row := range c.rows {
		var b strings.Builder
		for _, r := range row {
			if r != 0 {
				b.WriteRune(r)
			}
		}
		lines[i] = strings.TrimRight(b.String(), " ")
	}
	return strings.Join(lines, "\n")
}

func renderSequence(d *Diagram) string {
	n := len(d.Nodes)
	boxes := make([][]string, n)
	widths := make([]int, n)
	for i, node := range d.Nodes {
		b := renderBox(node)
		boxes[i] = strings.Split(b, "\n")
		widths[i] = lipgloss.Width(b)
	}

	centers := make([]int, n)
	centers[0] = widths[0] / 2
	for i := 1; i < n; i++ {
		centers[i] = centers[i-1] + widths[i-1] - widths[i-1]/2 + widths[i]/2 + nodeGap
	}

	// Widen gaps so every message label fits between its lifelines.
	for _, s := range d.Steps {
		if s.Kind != StepMessage && s.Kind != StepNote {
			continue
		}
		from, to := d.nodeIndex[s.From], d.nodeIndex[s.To]
		if from > to {
			from, to = to, from
		}
		need := runewidth.StringWidth(s.Text) + 4
		if s.Kind == StepNote {
			need = runewidth.StringWidth(s.Text) + 2
		}
		if from == to {
			if to+1 < n {
				to++
				need += 4
			} else {
				continue
			}
		}
		if have := centers[to] - centers[from]; have < need {
			shift := need - have
			for i := to; i < n; i++ {
				centers[i] += shift
			}
		}
	}

	c := &canvas{}
	y := 0
	for i := range d.Nodes {
		left := centers[i] - widths[i]/2
		for dy, line := range boxes[i] {
			c.put(left, y+dy, line)
		}
	}
	for _, b := range boxes {
		y = max(y, len(b))
	}

	lifelines := func(y int) {
		for _, x := range centers {
			c.put(x, y, "│")
		}
	}
	width := centers[n-1] + widths[n-1]/2 + 1

	for _, s := range d.Steps {
		switch s.Kind {
		case StepMessage:
			from, to := centers[d.nodeIndex[s.From]], centers[d.nodeIndex[s.To]]
			stroke := "─"
			if s.Style == LinkDotted {
				stroke = "┄"
			}
			lifelines(y)
			lifelines(y + 1)
			if from == to {
				c.put(from+1, y, stroke+stroke+"┐ "+s.Text)
				c.put(from+1, y+1, headGlyph(s.Head, true)+stroke+"┘")
				y += 2
				continue
			}
			lo, hi := from, to
			if lo > hi {
				lo, hi = hi, lo
			}
			textW := runewidth.StringWidth(s.Text)
			c.put(lo+(hi-lo-textW)/2+1, y, s.Text)

			line := []rune(strings.Repeat(stroke, hi-lo-1))
			head := []rune(headGlyph(s.Head, from > to))[0]
			if from < to {
				line[len(line)-1] = head
			} else {
				line[0] = head
			}
			c.put(lo+1, y+1, string(line))
			y += 2

		case StepNote:
			lifelines(y)
			from, to := centers[d.nodeIndex[s.From]], centers[d.nodeIndex[s.To]]
			if from > to {
				from, to = to, from
			}
			note := "[" + s.Text + "]"
			mid := (from + to) / 2
			c.put(mid-runewidth.StringWidth(note)/2, y, note)
			y++

		case StepBlockStart, StepBlockElse:
			c.put(0, y, "┄ "+s.Text+" "+strings.Repeat("┄", max(width-runewidth.StringWidth(s.Text)-3, 1)))
			y++

		case StepBlockEnd:
			c.put(0, y, strings.Repeat("┄", width))
			y++
		}
	}
	lifelines(y)
	return c.String()
}

func headGlyph(head string, leftward bool) string {
	switch head {
	case "cross":
		return "x"
	case "async":
		if leftward {
			return "("
		}
		return ")"
	case "open":
		return "─"
	}
	if leftward {
		return "◀"
	}
	return "▶"
}
