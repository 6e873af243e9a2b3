// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package draft holds the user's not-yet-submitted input.
//
// A Draft is a value: code text, a free prompt, at most one image and the
// active input tab. Holder is the single owner of the live draft and is
// shared by whichever front end is editing it.
package draft

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jeranaias/agent-architect/internal/model"
)

// MaxImageBytes caps image files loaded from disk.
const MaxImageBytes = 20 << 20

// =============================================================================
// TAB
// =============================================================================

// Tab selects which input is shown: source code or a diagram image.
type Tab int

const (
	TabSource Tab = iota
	TabVisual
)

// String returns the tab label.
func (t Tab) String() string {
	switch t {
	case TabVisual:
		return "Visual Diagram"
	default:
		return "Source Code"
	}
}

// =============================================================================
// DRAFT
// =============================================================================

// Draft is the pending input.
type Draft struct {
	CodeText   string
	PromptText string
	Image      *model.ImagePayload
	ActiveTab  Tab
}

// IsEmpty reports whether there is nothing to submit.
func (d Draft) IsEmpty() bool {
	return strings.TrimSpace(d.CodeText) == "" &&
		strings.TrimSpace(d.PromptText) == "" &&
		d.Image == nil
}

// HasCode reports whether code text is present.
func (d Draft) HasCode() bool {
	return strings.TrimSpace(d.CodeText) != ""
}

// HasPrompt reports whether prompt text is present.
func (d Draft) HasPrompt() bool {
	return strings.TrimSpace(d.PromptText) != ""
}

// Clone returns a copy that shares no memory with d.
func (d Draft) Clone() Draft {
	out := d
	if d.Image != nil {
		img := d.Image.Clone()
		out.Image = &img
	}
	return out
}

// ToggleTab switches between the source and visual tabs.
func (d *Draft) ToggleTab() {
	if d.ActiveTab == TabSource {
		d.ActiveTab = TabVisual
	} else {
		d.ActiveTab = TabSource
	}
}

// ClearImage drops the pending image.
func (d *Draft) ClearImage() {
	d.Image = nil
}

// SetImageDataURL replaces the pending image with a decoded data URL.
func (d *Draft) SetImageDataURL(s string) error {
	img, err := model.ParseDataURL(s)
	if err != nil {
		return err
	}
	d.Image = img
	return nil
}

// LoadImage reads an image file and makes it the pending image.
func (d *Draft) LoadImage(path string) error {
	img, err := ReadImage(path)
	if err != nil {
		return err
	}
	d.Image = img
	return nil
}

// ReadImage reads and validates an image file.
func ReadImage(path string) (*model.ImagePayload, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("image path is empty")
	}
	if strings.HasPrefix(path, "~"+string(filepath.Separator)) || path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("read image: %s is a directory", path)
	}
	if info.Size() > MaxImageBytes {
		return nil, fmt.Errorf("read image: %s exceeds %s", path, model.FormatBytes(MaxImageBytes))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return model.NewImagePayload(filepath.Base(path), data)
}

// =============================================================================
// HOLDER
// =============================================================================

// Holder owns the live draft.
type Holder struct {
	mu sync.Mutex
	d  Draft
}

// NewHolder creates a holder with an empty draft.
func NewHolder() *Holder {
	return &Holder{}
}

// Get returns a copy of the current draft.
func (h *Holder) Get() Draft {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.d.Clone()
}

// Set replaces the draft with a copy of d.
func (h *Holder) Set(d Draft) {
	h.mu.Lock()
	h.d = d.Clone()
	h.mu.Unlock()
}

// Update applies fn to the draft under the lock.
func (h *Holder) Update(fn func(*Draft) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return fn(&h.d)
}

// Clear resets code, prompt and image. The active tab is kept.
func (h *Holder) Clear() {
	h.mu.Lock()
	h.d = Draft{ActiveTab: h.d.ActiveTab}
	h.mu.Unlock()
}
