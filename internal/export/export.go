// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/agent-architect/internal/model"
	"github.com/jeranaias/agent-architect/internal/util"
)

// ErrEmptySession is returned when there is nothing to export.
var ErrEmptySession = errors.New("session has no messages")

// =============================================================================
// FORMATS
// =============================================================================

// Format is an export format.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatJSON     Format = "json"
)

// ParseFormat accepts "md", "markdown" or "json".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "md", "markdown":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want md or json)", s)
	}
}

// FormatFromPath picks the format from a file extension, defaulting to
// Markdown.
func FormatFromPath(path string) Format {
	if f, err := ParseFormat(filepath.Ext(path)); err == nil {
		return f
	}
	return FormatMarkdown
}

// Extension returns the file extension including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// MimeType returns the MIME type of the format.
func (f Format) MimeType() string {
	if f == FormatJSON {
		return "application/json"
	}
	return "text/markdown"
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// Render encodes sess in the given format.
func Render(sess model.Session, f Format) ([]byte, error) {
	if sess.IsEmpty() {
		return nil, ErrEmptySession
	}
	switch f {
	case FormatJSON:
		return JSON(sess)
	case FormatMarkdown, "":
		return Markdown(sess), nil
	default:
		return nil, fmt.Errorf("unknown export format %q", f)
	}
}

// WriteFile writes data to path atomically, creating parent directories.
func WriteFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := util.AtomicWriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

// ToFile renders sess and writes it to path. The format follows the
// extension of path.
func ToFile(sess model.Session, path string) error {
	data, err := Render(sess, FormatFromPath(path))
	if err != nil {
		return err
	}
	return WriteFile(path, data)
}

// ToDir renders sess into dir under DefaultFilename and returns the path.
func ToDir(sess model.Session, f Format, dir string) (string, error) {
	data, err := Render(sess, f)
	if err != nil {
		return "", err
	}
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, DefaultFilename(sess, f))
	if err := WriteFile(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// DefaultFilename is the slug of the session title plus the creation date.
func DefaultFilename(sess model.Session, f Format) string {
	slug := util.Slugify(util.TruncateRunes(sess.Title, 50))
	if slug == "" {
		slug = "analysis"
	}
	created := sess.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	return fmt.Sprintf("%s-%s%s", slug, created.Format("2006-01-02"), f.Extension())
}

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}
