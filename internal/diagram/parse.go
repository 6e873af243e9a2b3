// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package diagram

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrEmptyDiagram is returned for blank input. It is not a render failure.
	ErrEmptyDiagram = errors.New("empty diagram")

	// ErrSyntax matches every *SyntaxError.
	ErrSyntax = errors.New("invalid diagram syntax")
)

// SyntaxError reports the first statement that could not be parsed.
type SyntaxError struct {
	Line int
	Text string
	Msg  string
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s: %q", e.Line, e.Msg, e.Text)
	}
	return e.Msg
}

// Is matches ErrSyntax.
func (e *SyntaxError) Is(target error) bool {
	return target == ErrSyntax
}

// =============================================================================
// TYPES
// =============================================================================

// Kind is the diagram type.
type Kind int

const (
	KindFlowchart Kind = iota
	KindState
	KindSequence
)

func (k Kind) String() string {
	switch k {
	case KindState:
		return "stateDiagram"
	case KindSequence:
		return "sequenceDiagram"
	default:
		return "flowchart"
	}
}

// Direction is the flow direction of a flowchart or state diagram.
type Direction string

const (
	DirTopDown   Direction = "TD"
	DirBottomUp  Direction = "BT"
	DirLeftRight Direction = "LR"
	DirRightLeft Direction = "RL"
)

// Shape is a node outline.
type Shape int

const (
	ShapeRect Shape = iota
	ShapeRound
	ShapeDiamond
	ShapeCircle
	ShapeFlag
	ShapeStart
	ShapeEnd
)

// Node is a flowchart node, state or sequence participant.
type Node struct {
	ID    string
	Label string
	Shape Shape
}

// LinkStyle is the stroke of an edge or message.
type LinkStyle int

const (
	LinkSolid LinkStyle = iota
	LinkDotted
	LinkThick
)

// Edge connects two nodes.
type Edge struct {
	From  string
	To    string
	Label string
	Style LinkStyle
	Arrow bool
}

// StepKind distinguishes sequence diagram rows.
type StepKind int

const (
	StepMessage StepKind = iota
	StepNote
	StepBlockStart
	StepBlockElse
	StepBlockEnd
)

// Step is one row of a sequence diagram.
type Step struct {
	Kind  StepKind
	From  string
	To    string
	Text  string
	Style LinkStyle // LinkSolid or LinkDotted
	Head  string    // "arrow", "open", "cross", "async"
}

// Diagram is a parsed Mermaid source.
type Diagram struct {
	Type      Kind
	Flow      Direction
	Nodes     []Node
	Edges     []Edge
	Steps     []Step
	nodeIndex map[string]int
}

// Direction returns the flow direction, defaulting to top-down.
func (d *Diagram) Direction() Direction {
	if d.Flow == "" {
		return DirTopDown
	}
	return d.Flow
}

// Node returns the node with the given id.
func (d *Diagram) Node(id string) (Node, bool) {
	i, ok := d.nodeIndex[id]
	if !ok {
		return Node{}, false
	}
	return d.Nodes[i], true
}

func (d *Diagram) addNode(n Node, explicitLabel bool) {
	if i, ok := d.nodeIndex[n.ID]; ok {
		if explicitLabel {
			d.Nodes[i].Label = n.Label
			d.Nodes[i].Shape = n.Shape
		}
		return
	}
	if n.Label == "" {
		n.Label = n.ID
	}
	d.nodeIndex[n.ID] = len(d.Nodes)
	d.Nodes = append(d.Nodes, n)
}

// =============================================================================
// PARSE
// =============================================================================

// Parse parses Mermaid source. Blank input (including comment-only input)
// returns ErrEmptyDiagram; anything unrecognized returns a *SyntaxError.
func Parse(src string) (*Diagram, error) {
	lines := strings.Split(strings.ReplaceAll(src, "\r\n", "\n"), "\n")

	p := &parser{d: &Diagram{nodeIndex: make(map[string]int)}}
	headerSeen := false

	for i, raw := range lines {
		lineNo := i + 1
		line := strings.TrimSpace(stripComment(raw))
		if line == "" {
			continue
		}

		if p.inNote {
			if strings.EqualFold(line, "end note") {
				p.inNote = false
			}
			continue
		}

		stmts, err := splitStatements(line, p.d.Type)
		if err != nil {
			return nil, &SyntaxError{Line: lineNo, Text: raw, Msg: err.Error()}
		}
		for _, stmt := range stmts {
			if !headerSeen {
				if err := p.header(stmt); err != nil {
					return nil, &SyntaxError{Line: lineNo, Text: raw, Msg: err.Error()}
				}
				headerSeen = true
				continue
			}
			if err := p.statement(stmt); err != nil {
				return nil, &SyntaxError{Line: lineNo, Text: raw, Msg: err.Error()}
			}
		}
	}

	if !headerSeen {
		return nil, ErrEmptyDiagram
	}
	if p.depth > 0 {
		return nil, &SyntaxError{Msg: "unclosed block at end of diagram"}
	}
	if p.inNote {
		return nil, &SyntaxError{Msg: "unclosed note at end of diagram"}
	}
	if len(p.d.Nodes) == 0 {
		return nil, &SyntaxError{Msg: "diagram has no content"}
	}
	return p.d, nil
}

type parser struct {
	d      *Diagram
	depth  int
	inNote bool
}

func (p *parser) header(stmt string) error {
	fields := strings.Fields(stmt)
	switch strings.ToLower(fields[0]) {
	case "graph", "flowchart":
		p.d.Type = KindFlowchart
		p.d.Flow = DirTopDown
		if len(fields) > 1 {
			dir, err := parseDirection(fields[1])
			if err != nil {
				return err
			}
			p.d.Flow = dir
		}
		if len(fields) > 2 {
			return fmt.Errorf("unexpected tokens after direction")
		}
	case "statediagram", "statediagram-v2":
		p.d.Type = KindState
		p.d.Flow = DirTopDown
		if len(fields) > 1 {
			return fmt.Errorf("unexpected tokens after diagram type")
		}
	case "sequencediagram":
		p.d.Type = KindSequence
		if len(fields) > 1 {
			return fmt.Errorf("unexpected tokens after diagram type")
		}
	default:
		return fmt.Errorf("unknown diagram type %q", fields[0])
	}
	return nil
}

func (p *parser) statement(stmt string) error {
	switch p.d.Type {
	case KindState:
		return p.stateStatement(stmt)
	case KindSequence:
		return p.sequenceStatement(stmt)
	default:
		return p.flowStatement(stmt)
	}
}

func parseDirection(s string) (Direction, error) {
	switch strings.ToUpper(s) {
	case "TD", "TB":
		return DirTopDown, nil
	case "BT":
		return DirBottomUp, nil
	case "LR":
		return DirLeftRight, nil
	case "RL":
		return DirRightLeft, nil
	default:
		return "", fmt.Errorf("unknown direction %q", s)
	}
}

// stripComment removes a %% comment, ignoring %% inside quotes.
func stripComment(line string) string {
	inQuote := false
	for i := 0; i+1 < len(line); i++ {
		switch {
		case line[i] == '"':
			inQuote = !inQuote
		case !inQuote && line[i] == '%' && line[i+1] == '%':
			return line[:i]
		}
	}
	return line
}

// splitStatements splits on semicolons outside quotes and brackets and
// checks that brackets and quotes balance. State diagrams use braces as
// block delimiters spanning lines, so they are excluded there. In
// flowcharts "id>" opens a flag shape closed by "]".
func splitStatements(line string, kind Kind) ([]string, error) {
	var out []string
	var stack []rune
	inQuote := false
	start := 0

	pairs := map[rune]rune{']': '[', ')': '(', '}': '{'}
	for i, r := range line {
		if r == '"' {
			inQuote = !inQuote
			continue
		}
		if inQuote {
			continue
		}
		if kind == KindState && (r == '{' || r == '}') {
			continue
		}
		if kind == KindFlowchart && len(stack) == 0 && r == '>' && i > 0 && isIDByte(line[i-1]) {
			stack = append(stack, '[')
			continue
		}
		switch r {
		case '[', '(', '{':
			stack = append(stack, r)
		case ']', ')', '}':
			// "-)" and "--)" are sequence arrows, not closers.
			if r == ')' && i > 0 && line[i-1] == '-' {
				continue
			}
			if len(stack) == 0 || stack[len(stack)-1] != pairs[r] {
				return nil, fmt.Errorf("unbalanced %q", r)
			}
			stack = stack[:len(stack)-1]
		case ';':
			if len(stack) == 0 {
				if s := strings.TrimSpace(line[start:i]); s != "" {
					out = append(out, s)
				}
				start = i + 1
			}
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated quote")
	}
	if len(stack) > 0 {
		return nil, fmt.Errorf("unclosed %q", stack[len(stack)-1])
	}
	if s := strings.TrimSpace(line[start:]); s != "" {
		out = append(out, s)
	}
	return out, nil
}

// =============================================================================
// FLOWCHART
// =============================================================================

var flowIgnored = map[string]bool{
	"classdef": true, "class": true, "style": true, "linkstyle": true, "click": true,
}

func (p *parser) flowStatement(stmt string) error {
	first := strings.ToLower(strings.Fields(stmt)[0])
	switch {
	case flowIgnored[first]:
		return nil
	case first == "subgraph":
		p.depth++
		return nil
	case first == "end" && stmt == "end":
		if p.depth == 0 {
			return fmt.Errorf("end without subgraph")
		}
		p.depth--
		return nil
	case first == "direction":
		return nil
	}

	s := &scanner{src: stmt}
	group, err := p.nodeGroup(s)
	if err != nil {
		return err
	}
	for {
		s.skipSpace()
		if s.done() {
			return nil
		}
		link, err := s.link()
		if err != nil {
			return err
		}
		next, err := p.nodeGroup(s)
		if err != nil {
			return err
		}
		for _, from := range group {
			for _, to := range next {
				p.d.Edges = append(p.d.Edges, Edge{From: from, To: to, Label: link.Label, Style: link.Style, Arrow: link.Arrow})
			}
		}
		group = next
	}
}

// nodeGroup parses "A", "A[label]" or "A & B & C".
func (p *parser) nodeGroup(s *scanner) ([]string, error) {
	var ids []string
	for {
		s.skipSpace()
		n, explicit, err := s.node()
		if err != nil {
			return nil, err
		}
		p.d.addNode(n, explicit)
		ids = append(ids, n.ID)

		s.skipSpace()
		if !s.consume("&") {
			return ids, nil
		}
	}
}

type scanner struct {
	src string
	pos int
}

func (s *scanner) done() bool { return s.pos >= len(s.src) }

func (s *scanner) skipSpace() {
	for s.pos < len(s.src) && (s.src[s.pos] == ' ' || s.src[s.pos] == '\t') {
		s.pos++
	}
}

func (s *scanner) consume(tok string) bool {
	if strings.HasPrefix(s.src[s.pos:], tok) {
		s.pos += len(tok)
		return true
	}
	return false
}

func isIDByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') || b >= 0x80
}

var shapeDelims = []struct {
	open, close string
	shape       Shape
}{
	{"(((", ")))", ShapeCircle},
	{"((", "))", ShapeCircle},
	{"([", "])", ShapeRound},
	{"[[", "]]", ShapeRect},
	{"[(", ")]", ShapeRect},
	{"[/", "/]", ShapeRect},
	{"[\\", "\\]", ShapeRect},
	{"{{", "}}", ShapeDiamond},
	{"[", "]", ShapeRect},
	{"(", ")", ShapeRound},
	{"{", "}", ShapeDiamond},
	{">", "]", ShapeFlag},
}

func (s *scanner) node() (Node, bool, error) {
	start := s.pos
	for s.pos < len(s.src) && isIDByte(s.src[s.pos]) {
		s.pos++
	}
	// Allow dashes inside ids such as "api-gw", but never a link start.
	for s.pos < len(s.src) && s.src[s.pos] == '-' && s.pos+1 < len(s.src) && isIDByte(s.src[s.pos+1]) {
		s.pos++
		for s.pos < len(s.src) && isIDByte(s.src[s.pos]) {
			s.pos++
		}
	}
	id := s.src[start:s.pos]
	if id == "" {
		return Node{}, false, fmt.Errorf("expected node id at %q", s.rest())
	}

	for _, d := range shapeDelims {
		if !strings.HasPrefix(s.src[s.pos:], d.open) {
			continue
		}
		bodyStart := s.pos + len(d.open)
		label, end, err := readLabel(s.src, bodyStart, d.close)
		if err != nil {
			return Node{}, false, err
		}
		s.pos = end
		return Node{ID: id, Label: label, Shape: d.shape}, true, nil
	}
	return Node{ID: id, Label: id, Shape: ShapeRect}, false, nil
}

// readLabel reads a label up to close, honoring a quoted label.
func readLabel(src string, from int, close string) (string, int, error) {
	rest := src[from:]
	if strings.HasPrefix(rest, "\"") {
		q := strings.IndexByte(rest[1:], '"')
		if q < 0 {
			return "", 0, fmt.Errorf("unterminated quote")
		}
		label := rest[1 : q+1]
		after := from + q + 2
		if !strings.HasPrefix(src[after:], close) {
			return "", 0, fmt.Errorf("expected %q after label", close)
		}
		return cleanLabel(label), after + len(close), nil
	}
	i := strings.Index(rest, close)
	if i < 0 {
		return "", 0, fmt.Errorf("missing %q", close)
	}
	return cleanLabel(rest[:i]), from + i + len(close), nil
}

func cleanLabel(s string) string {
	s = strings.ReplaceAll(s, "<br/>", " ")
	s = strings.ReplaceAll(s, "<br>", " ")
	return strings.TrimSpace(s)
}

func (s *scanner) rest() string {
	return s.src[s.pos:]
}

type link struct {
	Label string
	Style LinkStyle
	Arrow bool
}

// link parses an edge: -->, ---, -.->, ==>, --x, --o, with an optional
// "-- text -->" or "-->|text|" label.
func (s *scanner) link() (link, error) {
	start := s.pos
	for s.pos < len(s.src) && strings.IndexByte("-=.<>", s.src[s.pos]) >= 0 {
		s.pos++
	}
	run := s.src[start:s.pos]
	if (s.pos < len(s.src)) && (s.src[s.pos] == 'x' || s.src[s.pos] == 'o') &&
		strings.HasSuffix(run, "-") && (s.pos+1 == len(s.src) || s.src[s.pos+1] == ' ') {
		run += string(s.src[s.pos])
		s.pos++
	}

	var l link
	switch run {
	case "--", "-.", "==":
		// "-- text -->" form
		closers := map[string][]string{
			"--": {"-->", "---"},
			"-.": {".->", ".-"},
			"==": {"==>", "==="},
		}[run]
		rest := s.src[s.pos:]
		best, bestIdx := "", -1
		for _, c := range closers {
			if i := strings.Index(rest, c); i >= 0 && (bestIdx < 0 || i < bestIdx) {
				best, bestIdx = c, i
			}
		}
		if bestIdx < 0 {
			return link{}, fmt.Errorf("unterminated link label at %q", s.src[start:])
		}
		l.Label = strings.TrimSpace(rest[:bestIdx])
		s.pos += bestIdx + len(best)
		run = run + best
	default:
		if len(run) < 3 || !validRun(run) {
			return link{}, fmt.Errorf("expected link at %q", s.src[start:])
		}
	}

	l.Arrow = strings.ContainsAny(run, ">xo")
	switch {
	case strings.Contains(run, "."):
		l.Style = LinkDotted
	case strings.Contains(run, "="):
		l.Style = LinkThick
	default:
		l.Style = LinkSolid
	}

	s.skipSpace()
	if s.consume("|") {
		end := strings.IndexByte(s.src[s.pos:], '|')
		if end < 0 {
			return link{}, fmt.Errorf("unterminated link label")
		}
		l.Label = strings.Trim(strings.TrimSpace(s.src[s.pos:s.pos+end]), "\"")
		s.pos += end + 1
	}
	return l, nil
}

func validRun(run string) bool {
	body := strings.TrimLeft(run, "<")
	body = strings.TrimRight(body, ">xo")
	if body == "" {
		return false
	}
	switch {
	case strings.Trim(body, "-") == "":
		return len(run) >= 3
	case strings.Trim(body, "=") == "":
		return len(run) >= 3
	case strings.HasPrefix(body, "-") && strings.HasSuffix(body, "-") && strings.Trim(body, "-.") == "" && strings.Contains(body, "."):
		return true
	}
	return false
}

// =============================================================================
// STATE DIAGRAM
// =============================================================================

var (
	stateAlias      = regexp.MustCompile(`^state\s+"([^"]*)"\s+as\s+([\w.]+)\s*(\{)?$`)
	stateComposite  = regexp.MustCompile(`^state\s+([\w.]+)\s*(<<\w+>>)?\s*(\{)?$`)
	stateTransition = regexp.MustCompile(`^(\[\*\]|[\w.]+)\s*-->\s*(\[\*\]|[\w.]+)\s*(?::\s*(.*))?$`)
	stateDescribe   = regexp.MustCompile(`^([\w.]+)\s*:\s*(.+)$`)
	stateBare       = regexp.MustCompile(`^[\w.]+$`)
)

func (p *parser) stateStatement(stmt string) error {
	lower := strings.ToLower(stmt)
	switch {
	case stmt == "}":
		if p.depth == 0 {
			return fmt.Errorf("unexpected }")
		}
		p.depth--
		return nil
	case stmt == "--", strings.HasPrefix(lower, "direction "), strings.HasPrefix(lower, "classdef "), strings.HasPrefix(lower, "class "):
		return nil
	case strings.HasPrefix(lower, "note "):
		if !strings.Contains(stmt, ":") {
			p.inNote = true
		}
		return nil
	}

	if m := stateAlias.FindStringSubmatch(stmt); m != nil {
		p.d.addNode(Node{ID: m[2], Label: m[1], Shape: ShapeRound}, true)
		if m[3] != "" {
			p.depth++
		}
		return nil
	}
	if m := stateComposite.FindStringSubmatch(stmt); m != nil {
		shape := ShapeRound
		if strings.EqualFold(m[2], "<<choice>>") {
			shape = ShapeDiamond
		}
		p.d.addNode(Node{ID: m[1], Label: m[1], Shape: shape}, m[2] != "")
		if m[3] != "" {
			p.depth++
		}
		return nil
	}
	if m := stateTransition.FindStringSubmatch(stmt); m != nil {
		from := p.stateRef(m[1], true)
		to := p.stateRef(m[2], false)
		p.d.Edges = append(p.d.Edges, Edge{From: from, To: to, Label: strings.TrimSpace(m[3]), Arrow: true})
		return nil
	}
	if m := stateDescribe.FindStringSubmatch(stmt); m != nil {
		p.d.addNode(Node{ID: m[1], Label: m[1], Shape: ShapeRound}, false)
		i := p.d.nodeIndex[m[1]]
		p.d.Nodes[i].Label = m[1] + ": " + strings.TrimSpace(m[2])
		return nil
	}
	if stateBare.MatchString(stmt) {
		p.d.addNode(Node{ID: stmt, Label: stmt, Shape: ShapeRound}, false)
		return nil
	}
	return fmt.Errorf("unrecognized statement")
}

func (p *parser) stateRef(ref string, isSource bool) string {
	if ref != "[*]" {
		p.d.addNode(Node{ID: ref, Label: ref, Shape: ShapeRound}, false)
		return ref
	}
	if isSource {
		p.d.addNode(Node{ID: "[*]start", Label: "●", Shape: ShapeStart}, false)
		return "[*]start"
	}
	p.d.addNode(Node{ID: "[*]end", Label: "◉", Shape: ShapeEnd}, false)
	return "[*]end"
}

// =============================================================================
// SEQUENCE DIAGRAM
// =============================================================================

var (
	seqParticipant = regexp.MustCompile(`^(participant|actor)\s+(\S+)(?:\s+as\s+(.+))?$`)
	seqMessage     = regexp.MustCompile(`^([^\s:>-]+)\s*(-->>|->>|-->|->|--x|-x|--\)|-\))\s*[+-]?\s*([^\s:]+)\s*(?::\s*(.*))?$`)
	seqNote        = regexp.MustCompile(`(?i)^note\s+(?:left of|right of|over)\s+([^:]+?)\s*:\s*(.*)$`)
	seqBlock       = regexp.MustCompile(`^(loop|alt|opt|par|critical|break|rect)\b\s*(.*)$`)
	seqElse        = regexp.MustCompile(`^(else|and|option)\b\s*(.*)$`)
)

var seqIgnored = map[string]bool{
	"autonumber": true, "activate": true, "deactivate": true, "title": true,
}

func (p *parser) sequenceStatement(stmt string) error {
	first := strings.ToLower(strings.Fields(stmt)[0])
	if seqIgnored[first] {
		return nil
	}

	if m := seqParticipant.FindStringSubmatch(stmt); m != nil {
		label := m[2]
		if m[3] != "" {
			label = strings.TrimSpace(m[3])
		}
		p.d.addNode(Node{ID: m[2], Label: label, Shape: ShapeRect}, true)
		return nil
	}
	if m := seqNote.FindStringSubmatch(stmt); m != nil {
		refs := strings.Split(m[1], ",")
		from := strings.TrimSpace(refs[0])
		to := strings.TrimSpace(refs[len(refs)-1])
		p.participant(from)
		p.participant(to)
		p.d.Steps = append(p.d.Steps, Step{Kind: StepNote, From: from, To: to, Text: m[2]})
		return nil
	}
	if m := seqBlock.FindStringSubmatch(stmt); m != nil {
		p.depth++
		p.d.Steps = append(p.d.Steps, Step{Kind: StepBlockStart, Text: strings.TrimSpace(m[1] + " " + m[2])})
		return nil
	}
	if m := seqElse.FindStringSubmatch(stmt); m != nil {
		if p.depth == 0 {
			return fmt.Errorf("%s outside a block", m[1])
		}
		p.d.Steps = append(p.d.Steps, Step{Kind: StepBlockElse, Text: strings.TrimSpace(m[1] + " " + m[2])})
		return nil
	}
	if stmt == "end" {
		if p.depth == 0 {
			return fmt.Errorf("end without block")
		}
		p.depth--
		p.d.Steps = append(p.d.Steps, Step{Kind: StepBlockEnd, Text: "end"})
		return nil
	}
	if m := seqMessage.FindStringSubmatch(stmt); m != nil {
		p.participant(m[1])
		p.participant(m[3])
		step := Step{Kind: StepMessage, From: m[1], To: m[3], Text: strings.TrimSpace(m[4])}
		arrow := m[2]
		if strings.HasPrefix(arrow, "--") {
			step.Style = LinkDotted
		}
		switch {
		case strings.HasSuffix(arrow, ">>"):
			step.Head = "arrow"
		case strings.HasSuffix(arrow, "x"):
			step.Head = "cross"
		case strings.HasSuffix(arrow, ")"):
			step.Head = "async"
		default:
			step.Head = "open"
		}
		p.d.Steps = append(p.d.Steps, step)
		return nil
	}
	return fmt.Errorf("unrecognized statement")
}

func (p *parser) participant(id string) {
	p.d.addNode(Node{ID: id, Label: id, Shape: ShapeRect}, false)
}
