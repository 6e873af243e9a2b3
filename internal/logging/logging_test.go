// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestSetup_WritesJSONFile(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	path := filepath.Join(t.TempDir(), "logs", "architect.log")
	l, closer, err := Setup(Config{Level: "debug", File: path})
	require.NoError(t, err)
	l.Info("hello", "k", "v")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"k":"v"`)
}

func TestSetup_NoFile(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	l, closer, err := Setup(Config{})
	require.NoError(t, err)
	assert.NotNil(t, l)
	assert.NoError(t, closer.Close())
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "info")
	ctx := WithContext(context.Background(), l)

	FromContext(ctx).Info("scoped")
	assert.Contains(t, buf.String(), "scoped")
	assert.Equal(t, slog.Default(), FromContext(context.Background()))
}

func TestRecoveryHandler(t *testing.T) {
	var buf bytes.Buffer
	h := NewRecoveryHandler("diagram", New(&buf, "info"))

	var seen *PanicError
	h.OnPanic = func(pe *PanicError) { seen = pe }

	err := h.WrapError(func() error { panic("boom") })
	var pe *PanicError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "panic in diagram: boom", pe.Error())
	assert.NotEmpty(t, pe.Stack)
	assert.Same(t, pe, seen)
	assert.Contains(t, buf.String(), "panic recovered")

	assert.NotPanics(t, func() { h.Wrap(func() { panic(1) }) })

	plain := errors.New("plain")
	assert.Equal(t, plain, h.WrapError(func() error { return plain }))
}
