// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package diagram

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const flowSrc = `graph TD
    A[Start] --> B{Ok?}
    B -->|yes| C((Done))
    B -- no --> A`

// =============================================================================
// FENCES
// =============================================================================

func TestExtract(t *testing.T) {
	content := "intro\n```mermaid\ngraph TD\nA-->B\n```\ntext\n```go\nx := 1\n```\n~~~Mermaid\nsequenceDiagram\n~~~\n"

	blocks := Extract(content)
	require.Len(t, blocks, 2)
	assert.Equal(t, 0, blocks[0].Index)
	assert.Equal(t, "graph TD\nA-->B", blocks[0].Source)
	assert.Equal(t, 1, blocks[1].Index)
	assert.Equal(t, "sequenceDiagram", blocks[1].Source)
	assert.True(t, strings.HasPrefix(content[blocks[0].Start:], "```mermaid"))
}

func TestFences_UnclosedRunsToEnd(t *testing.T) {
	fences := Fences("```python\nprint(1)\n")
	require.Len(t, fences, 1)
	assert.False(t, fences[0].Closed)
	assert.Equal(t, "python", fences[0].Lang)
	assert.Equal(t, "print(1)", fences[0].Body)
}

func TestFences_ShorterCloserDoesNotClose(t *testing.T) {
	fences := Fences("````md\n```\ninner\n```\n````\n")
	require.Len(t, fences, 1)
	assert.True(t, fences[0].Closed)
	assert.Equal(t, "```\ninner\n```", fences[0].Body)
}

func TestIsDiagramLang(t *testing.T) {
	assert.True(t, IsDiagramLang("mermaid"))
	assert.True(t, IsDiagramLang(" Mermaid "))
	assert.False(t, IsDiagramLang("go"))
	assert.False(t, IsDiagramLang(""))
}

// =============================================================================
// PARSE
// =============================================================================

func TestParse_Flowchart(t *testing.T) {
	d, err := Parse(flowSrc)
	require.NoError(t, err)

	assert.Equal(t, KindFlowchart, d.Type)
	assert.Equal(t, DirTopDown, d.Direction())
	require.Len(t, d.Nodes, 3)

	a, _ := d.Node("A")
	b, _ := d.Node("B")
	c, _ := d.Node("C")
	assert.Equal(t, Node{ID: "A", Label: "Start", Shape: ShapeRect}, a)
	assert.Equal(t, ShapeDiamond, b.Shape)
	assert.Equal(t, ShapeCircle, c.Shape)

	require.Len(t, d.Edges, 3)
	assert.Equal(t, Edge{From: "A", To: "B", Arrow: true}, d.Edges[0])
	assert.Equal(t, "yes", d.Edges[1].Label)
	assert.Equal(t, "no", d.Edges[2].Label)
}

func TestParse_FlowchartVariants(t *testing.T) {
	d, err := Parse("flowchart LR; A & B --> C; C -.-> D; D ==> E; E --- F")
	require.NoError(t, err)

	assert.Equal(t, DirLeftRight, d.Direction())
	require.Len(t, d.Edges, 5)
	assert.Equal(t, "A", d.Edges[0].From)
	assert.Equal(t, "B", d.Edges[1].From)
	assert.Equal(t, LinkDotted, d.Edges[2].Style)
	assert.Equal(t, LinkThick, d.Edges[3].Style)
	assert.False(t, d.Edges[4].Arrow)
}

func TestParse_State(t *testing.T) {
	d, err := Parse("stateDiagram-v2\n[*] --> Idle\nIdle --> Busy : submit\nBusy --> [*]")
	require.NoError(t, err)

	assert.Equal(t, KindState, d.Type)
	require.Len(t, d.Edges, 3)
	assert.Equal(t, "[*]start", d.Edges[0].From)
	assert.Equal(t, "submit", d.Edges[1].Label)
	assert.Equal(t, "[*]end", d.Edges[2].To)
}

func TestParse_Sequence(t *testing.T) {
	src := "sequenceDiagram\nparticipant U as User\nU->>API: POST /analyze\nloop retry\nAPI-->>U: 200 OK\nend\nNote over U,API: done"
	d, err := Parse(src)
	require.NoError(t, err)

	assert.Equal(t, KindSequence, d.Type)
	require.Len(t, d.Nodes, 2)
	assert.Equal(t, "User", d.Nodes[0].Label)
	require.Len(t, d.Steps, 5)
	assert.Equal(t, StepMessage, d.Steps[0].Kind)
	assert.Equal(t, "arrow", d.Steps[0].Head)
	assert.Equal(t, StepBlockStart, d.Steps[1].Kind)
	assert.Equal(t, LinkDotted, d.Steps[2].Style)
	assert.Equal(t, StepBlockEnd, d.Steps[3].Kind)
	assert.Equal(t, StepNote, d.Steps[4].Kind)
}

func TestParse_Empty(t *testing.T) {
	for _, src := range []string{"", "   ", "\n\n", "%% only a comment"} {
		_, err := Parse(src)
		assert.ErrorIs(t, err, ErrEmptyDiagram, "src=%q", src)
	}
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown type", "pie title Pets"},
		{"bad direction", "graph XY\nA-->B"},
		{"unclosed bracket", "graph TD\nA[Start --> B"},
		{"short arrow", "graph TD\nA -> B"},
		{"dangling link", "graph TD\nA -->"},
		{"stray end", "graph TD\nA-->B\nend"},
		{"unclosed subgraph", "graph TD\nsubgraph one\nA-->B"},
		{"unterminated quote", "graph TD\nA[\"Start] --> B"},
		{"header only", "graph TD"},
		{"sequence prose", "sequenceDiagram\nAlice says hi"},
		{"state garbage", "stateDiagram\nA => B"},
		{"plain prose", "this is not a diagram"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSyntax)

			var se *SyntaxError
			assert.True(t, errors.As(err, &se))
		})
	}
}

// =============================================================================
// RENDER
// =============================================================================

func TestRender_Flowchart(t *testing.T) {
	out, err := RenderSource(flowSrc)
	require.NoError(t, err)

	assert.Contains(t, out, "│ Start │")
	assert.Contains(t, out, "Ok?")
	assert.Contains(t, out, "Done")
	assert.Contains(t, out, "▼")
	assert.Contains(t, out, "Ok? ── yes ─▶ Done")
	assert.Contains(t, out, "Ok? ── no ─▶ Start")

	// Start is drawn above Ok?.
	assert.Less(t, strings.Index(out, "Start"), strings.Index(out, "Ok?"))
}

func TestRender_Deterministic(t *testing.T) {
	sources := []string{
		flowSrc,
		"graph LR\nA-->B-->C\nA-->C",
		"graph BT\nA-->B",
		"stateDiagram\n[*] --> S\nS --> [*]",
		"sequenceDiagram\nA->>B: hi\nB-->>A: hello\nA->>A: think",
	}
	for _, src := range sources {
		first, err := RenderSource(src)
		require.NoError(t, err)
		for i := 0; i < 3; i++ {
			again, err := RenderSource(src)
			require.NoError(t, err)
			assert.Equal(t, first, again)
		}
	}
}

func TestRender_LeftRight(t *testing.T) {
	out, err := RenderSource("graph LR\nA[Client]-->B[Server]")
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	assert.Contains(t, lines[1], "Client")
	assert.Contains(t, lines[1], "──▶")
	assert.Contains(t, lines[1], "Server")
}

func TestRender_CycleTerminates(t *testing.T) {
	out, err := RenderSource("graph TD\nA-->B\nB-->C\nC-->A")
	require.NoError(t, err)
	assert.Contains(t, out, "C ──▶ A")
}

func TestRender_Sequence(t *testing.T) {
	out, err := RenderSource("sequenceDiagram\nparticipant U as User\nU->>API: POST /analyze\nAPI-->>U: 200 OK\nNote over U,API: done")
	require.NoError(t, err)

	assert.Contains(t, out, "User")
	assert.Contains(t, out, "POST /analyze")
	assert.Contains(t, out, "▶")
	assert.Contains(t, out, "◀")
	assert.Contains(t, out, "[done]")
}

// =============================================================================
// CELL
// =============================================================================

type engineFunc func(ctx context.Context, id, src string) (Artifact, error)

func (f engineFunc) Render(ctx context.Context, id, src string) (Artifact, error) {
	return f(ctx, id, src)
}

func (engineFunc) Name() string { return "test" }

func waitCell(t *testing.T, c *Cell) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, c.Wait(ctx))
}

func TestCell_EmptyIsNotRendered(t *testing.T) {
	called := false
	c := NewCell(engineFunc(func(context.Context, string, string) (Artifact, error) {
		called = true
		return Artifact{}, nil
	}), nil)

	id := c.Render(context.Background(), "  \n ")
	waitCell(t, c)

	assert.Empty(t, id)
	assert.False(t, called)
	assert.Equal(t, StatusEmpty, c.Status())
	assert.Empty(t, c.View())
}

func TestCell_MalformedShowsPlaceholder(t *testing.T) {
	c := NewCell(NewBuiltinEngine(), nil)
	c.Render(context.Background(), "graph TD\nA[oops")
	waitCell(t, c)

	assert.Equal(t, StatusFailed, c.Status())
	assert.Equal(t, ErrorPlaceholder, c.View())
	assert.ErrorIs(t, c.Err(), ErrSyntax)
}

func TestCell_Rendered(t *testing.T) {
	c := NewCell(NewBuiltinEngine(), nil)
	done := make(chan string, 1)
	c.OnDone(func(id string) { done <- id })

	id := c.Render(context.Background(), flowSrc)
	waitCell(t, c)

	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, id, <-done)
	assert.Equal(t, StatusRendered, c.Status())

	art, ok := c.Artifact()
	require.True(t, ok)
	assert.Equal(t, id, art.RenderID)
	assert.Equal(t, KindFlowchart, art.Kind)
	assert.Contains(t, c.View(), "Start")
}

func TestCell_FreshIDPerAttempt(t *testing.T) {
	c := NewCell(NewBuiltinEngine(), nil)

	first := c.Render(context.Background(), flowSrc)
	waitCell(t, c)
	second := c.Render(context.Background(), flowSrc)
	waitCell(t, c)

	assert.NotEqual(t, first, second)
	assert.Equal(t, second, c.RenderID())
}

func TestCell_StaleResultDiscarded(t *testing.T) {
	release := make(chan struct{})
	engine := engineFunc(func(_ context.Context, id, src string) (Artifact, error) {
		if src == "slow" {
			<-release
		}
		return Artifact{RenderID: id, Text: src}, nil
	})

	c := NewCell(engine, nil)
	c.Render(context.Background(), "slow")
	latest := c.Render(context.Background(), "fast")
	waitCell(t, c)
	require.Equal(t, "fast", c.View())

	close(release)
	assert.Never(t, func() bool { return c.View() != "fast" }, 100*time.Millisecond, 10*time.Millisecond)
	assert.Equal(t, latest, c.RenderID())
}

func TestCell_PanicBecomesFailure(t *testing.T) {
	c := NewCell(engineFunc(func(context.Context, string, string) (Artifact, error) {
		panic("boom")
	}), nil)

	c.Render(context.Background(), "graph TD\nA-->B")
	waitCell(t, c)

	assert.Equal(t, StatusFailed, c.Status())
	assert.Equal(t, ErrorPlaceholder, c.View())
}

func TestCell_PendingPlaceholder(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	c := NewCell(engineFunc(func(context.Context, string, string) (Artifact, error) {
		<-release
		return Artifact{}, nil
	}), nil)

	c.Render(context.Background(), "graph TD\nA-->B")
	assert.Equal(t, StatusRendering, c.Status())
	assert.Equal(t, RenderingPlaceholder, c.View())
}

func TestCells_GetAndDrop(t *testing.T) {
	cells := NewCells(NewBuiltinEngine(), nil)

	a, created := cells.Get(CellKey{Owner: "m1", Index: 0})
	assert.True(t, created)
	again, created := cells.Get(CellKey{Owner: "m1", Index: 0})
	assert.False(t, created)
	assert.Same(t, a, again)

	cells.Get(CellKey{Owner: "m1", Index: 1})
	cells.Get(CellKey{Owner: "m2", Index: 0})
	assert.Equal(t, 3, cells.Len())

	cells.Drop("m1")
	assert.Equal(t, 1, cells.Len())

	cells.Reset()
	assert.Equal(t, 0, cells.Len())
}

// =============================================================================
// EXEC ENGINE
// =============================================================================

func TestExecEngine_FallsBackWithoutBinary(t *testing.T) {
	e := NewExecEngine("architect-no-such-mmdc", t.TempDir(), time.Second, nil)
	assert.False(t, e.Available())

	art, err := e.Render(context.Background(), "rid", "graph TD\nA-->B")
	require.NoError(t, err)
	assert.Empty(t, art.Path)
	assert.Contains(t, art.Text, "A")

	_, err = e.Render(context.Background(), "rid", "nonsense")
	assert.ErrorIs(t, err, ErrSyntax)
}

func TestCachedEngine(t *testing.T) {
	calls := 0
	inner := engineFunc(func(_ context.Context, id, src string) (Artifact, error) {
		calls++
		if src == "bad" {
			return Artifact{}, &SyntaxError{Msg: "bad"}
		}
		return Artifact{RenderID: id, Text: "drawn " + src}, nil
	})
	c := NewCachedEngine(inner)

	a, err := c.Render(context.Background(), "r1", "graph")
	require.NoError(t, err)
	b, err := c.Render(context.Background(), "r2", "graph")
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, a.Text, b.Text)
	assert.Equal(t, "r2", b.RenderID)

	_, err = c.Render(context.Background(), "r3", "bad")
	assert.ErrorIs(t, err, ErrSyntax)
	_, err = c.Render(context.Background(), "r4", "bad")
	assert.Error(t, err)
	assert.Equal(t, 3, calls)

	assert.Equal(t, 1, c.Len(), "failures are not cached")
}
