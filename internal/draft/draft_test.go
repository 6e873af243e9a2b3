// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package draft

import (
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/agent-architect/internal/model"
)

const pngPixel = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

func TestDraft_IsEmpty(t *testing.T) {
	img := &model.ImagePayload{MIMEType: "image/png", Data: []byte{1}}
	tests := []struct {
		name  string
		draft Draft
		want  bool
	}{
		{"zero value", Draft{}, true},
		{"whitespace only", Draft{CodeText: "  \n", PromptText: "\t"}, true},
		{"code", Draft{CodeText: "function f(){}"}, false},
		{"prompt", Draft{PromptText: "why?"}, false},
		{"image", Draft{Image: img}, false},
		{"visual tab alone", Draft{ActiveTab: TabVisual}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.draft.IsEmpty())
		})
	}
}

func TestDraft_WhitespaceIsNotInput(t *testing.T) {
	d := Draft{CodeText: " \n\t", PromptText: "   "}
	assert.False(t, d.HasCode())
	assert.False(t, d.HasPrompt())
	assert.True(t, d.IsEmpty())

	d.PromptText = " why? "
	assert.True(t, d.HasPrompt())
	assert.False(t, d.IsEmpty())
}

func TestDraft_CloneIsIndependent(t *testing.T) {
	d := Draft{Image: &model.ImagePayload{MIMEType: "image/png", Data: []byte{1, 2}}}
	c := d.Clone()
	c.Image.Data[0] = 9
	assert.Equal(t, byte(1), d.Image.Data[0])
}

func TestDraft_ToggleTab(t *testing.T) {
	var d Draft
	assert.Equal(t, TabSource, d.ActiveTab)
	d.ToggleTab()
	assert.Equal(t, TabVisual, d.ActiveTab)
	assert.Equal(t, "Visual Diagram", d.ActiveTab.String())
	d.ToggleTab()
	assert.Equal(t, TabSource, d.ActiveTab)
}

func TestDraft_SetImageDataURL(t *testing.T) {
	var d Draft
	require.NoError(t, d.SetImageDataURL("data:image/png;base64,"+pngPixel))
	require.NotNil(t, d.Image)
	assert.Equal(t, "image/png", d.Image.MIMEType)

	err := d.SetImageDataURL("data:text/plain;base64,aGk=")
	assert.True(t, errors.Is(err, model.ErrUnsupportedImage))
	assert.NotNil(t, d.Image, "failed load keeps the previous image")

	d.ClearImage()
	assert.Nil(t, d.Image)
}

func TestReadImage(t *testing.T) {
	dir := t.TempDir()
	raw, err := base64.StdEncoding.DecodeString(pngPixel)
	require.NoError(t, err)

	good := filepath.Join(dir, "arch.png")
	require.NoError(t, os.WriteFile(good, raw, 0o600))
	text := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(text, []byte("hello"), 0o600))

	img, err := ReadImage(good)
	require.NoError(t, err)
	assert.Equal(t, "arch.png", img.Name)
	assert.Equal(t, "image/png", img.MIMEType)

	_, err = ReadImage(text)
	assert.ErrorIs(t, err, model.ErrUnsupportedImage)

	_, err = ReadImage(filepath.Join(dir, "missing.png"))
	assert.Error(t, err)

	_, err = ReadImage(dir)
	assert.Error(t, err)

	_, err = ReadImage("  ")
	assert.Error(t, err)
}

func TestHolder(t *testing.T) {
	h := NewHolder()
	require.NoError(t, h.Update(func(d *Draft) error {
		d.CodeText = "x := 1"
		d.PromptText = "review"
		d.ActiveTab = TabVisual
		return nil
	}))

	got := h.Get()
	assert.Equal(t, "x := 1", got.CodeText)

	got.CodeText = "changed"
	assert.Equal(t, "x := 1", h.Get().CodeText, "Get must return a copy")

	h.Clear()
	cleared := h.Get()
	assert.True(t, cleared.IsEmpty())
	assert.Equal(t, TabVisual, cleared.ActiveTab)

	wantErr := errors.New("boom")
	assert.Equal(t, wantErr, h.Update(func(*Draft) error { return wantErr }))
}
