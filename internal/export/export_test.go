// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/agent-architect/internal/model"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func sampleSession() model.Session {
	created := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	return model.Session{
		ID:        "01HZZ",
		Title:     "Refactor the auth flow...",
		CreatedAt: created,
		Messages: []model.Message{
			{
				Role:      model.RoleUser,
				Content:   "Here is the diagram",
				Images:    []model.ImagePayload{{MIMEType: "image/png", Data: pngHeader}},
				CreatedAt: created,
			},
			{
				Role:      model.RoleModel,
				Content:   "Plan:\n\n```mermaid\ngraph TD\nA-->B\n```",
				CreatedAt: created.Add(time.Minute),
			},
		},
	}
}

func TestMarkdown(t *testing.T) {
	out := string(Markdown(sampleSession()))

	assert.True(t, strings.HasPrefix(out, "# Refactor the auth flow...\n"))
	assert.Contains(t, out, "## You\n\n[image: image/png, 12 bytes]\n")
	assert.Contains(t, out, "Here is the diagram")
	assert.Contains(t, out, "## Architect\n\nPlan:")
	assert.Contains(t, out, "```mermaid\ngraph TD\nA-->B\n```")
	assert.Less(t, strings.Index(out, "## You"), strings.Index(out, "## Architect"))
}

func TestMarkdown_EscapesTitle(t *testing.T) {
	sess := sampleSession()
	sess.Title = "# fix *all*\nthings"
	out := string(Markdown(sess))
	assert.True(t, strings.HasPrefix(out, "# \\# fix \\*all\\* things\n"), out)
}

func TestJSON(t *testing.T) {
	data, err := JSON(sampleSession())
	require.NoError(t, err)

	var got jsonSession
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "01HZZ", got.ID)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "model", got.Messages[1].Role)
	require.Len(t, got.Messages[0].Images, 1)

	img := got.Messages[0].Images[0]
	assert.Equal(t, 12, img.Size)
	raw, err := base64.StdEncoding.DecodeString(img.Data)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, raw)
}

func TestRender_Empty(t *testing.T) {
	_, err := Render(model.Session{Title: "New Analysis"}, FormatMarkdown)
	assert.ErrorIs(t, err, ErrEmptySession)
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"md": FormatMarkdown, "Markdown": FormatMarkdown, ".json": FormatJSON} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("html")
	assert.Error(t, err)

	assert.Equal(t, FormatJSON, FormatFromPath("out/a.JSON"))
	assert.Equal(t, FormatMarkdown, FormatFromPath("notes.txt"))
}

func TestDefaultFilename(t *testing.T) {
	sess := sampleSession()
	assert.Equal(t, "refactor-the-auth-flow-2025-03-14.md", DefaultFilename(sess, FormatMarkdown))

	sess.Title = "!!!"
	assert.Equal(t, "analysis-2025-03-14.json", DefaultFilename(sess, FormatJSON))
}

func TestToDirAndToFile(t *testing.T) {
	dir := t.TempDir()
	sess := sampleSession()

	path, err := ToDir(sess, FormatJSON, filepath.Join(dir, "nested"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "nested", "refactor-the-auth-flow-2025-03-14.json"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))

	mdPath := filepath.Join(dir, "session.md")
	require.NoError(t, ToFile(sess, mdPath))
	data, err = os.ReadFile(mdPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "## Architect")
}
