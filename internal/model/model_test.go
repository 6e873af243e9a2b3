// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"errors"
	"testing"
)

const pngPixel = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

// =============================================================================
// ROLE TESTS
// =============================================================================

func TestRole_DisplayName(t *testing.T) {
	tests := []struct {
		role Role
		want string
	}{
		{RoleUser, "You"},
		{RoleModel, "Architect"},
		{Role("other"), "other"},
	}
	for _, tc := range tests {
		t.Run(string(tc.role), func(t *testing.T) {
			if got := tc.role.DisplayName(); got != tc.want {
				t.Errorf("DisplayName() = %q, want %q", got, tc.want)
			}
		})
	}
}

// =============================================================================
// IMAGE TESTS
// =============================================================================

func TestParseDataURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantMIME string
		wantErr  bool
	}{
		{"data url", "data:image/png;base64," + pngPixel, "image/png", false},
		{"bare base64", pngPixel, "image/png", false},
		{"declared type wins", "data:image/x-custom;base64," + pngPixel, "image/x-custom", false},
		{"no comma", "data:image/png;base64" + pngPixel, "", true},
		{"not base64", "data:image/png," + pngPixel, "", true},
		{"bad encoding", "data:image/png;base64,!!!", "", true},
		{"not an image", "aGVsbG8gd29ybGQ=", "", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			img, err := ParseDataURL(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ParseDataURL() expected error, got %+v", img)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDataURL() error = %v", err)
			}
			if img.MIMEType != tc.wantMIME {
				t.Errorf("MIMEType = %q, want %q", img.MIMEType, tc.wantMIME)
			}
			if img.Base64() != pngPixel {
				t.Errorf("Base64() did not round-trip the payload")
			}
		})
	}
}

func TestNewImagePayload_Unsupported(t *testing.T) {
	_, err := NewImagePayload("notes.txt", []byte("plain text"))
	if !errors.Is(err, ErrUnsupportedImage) {
		t.Errorf("error = %v, want ErrUnsupportedImage", err)
	}
	_, err = NewImagePayload("empty.png", nil)
	if !errors.Is(err, ErrUnsupportedImage) {
		t.Errorf("error = %v, want ErrUnsupportedImage", err)
	}
}

func TestImagePayload_DataURL(t *testing.T) {
	img, err := ParseDataURL(pngPixel)
	if err != nil {
		t.Fatal(err)
	}
	want := "data:image/png;base64," + pngPixel
	if got := img.DataURL(); got != want {
		t.Errorf("DataURL() = %q, want %q", got, want)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{2048, "2.0 KB"},
		{3 << 20, "3.0 MB"},
	}
	for _, tc := range tests {
		if got := FormatBytes(tc.n); got != tc.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tc.n, got, tc.want)
		}
	}
}

// =============================================================================
// MESSAGE / SESSION TESTS
// =============================================================================

func TestNewUserMessage_CopiesImage(t *testing.T) {
	img := &ImagePayload{MIMEType: "image/png", Data: []byte{1, 2, 3}}
	msg := NewUserMessage("look", img, nil)

	img.Data[0] = 9
	if len(msg.Images) != 1 {
		t.Fatalf("len(Images) = %d, want 1", len(msg.Images))
	}
	if msg.Images[0].Data[0] != 1 {
		t.Error("message image aliases the source payload")
	}
}

func TestSession_Clone(t *testing.T) {
	s := Session{ID: "a", Title: "t"}
	s.Messages = append(s.Messages, NewUserMessage("q", &ImagePayload{MIMEType: "image/png", Data: []byte{7}}))

	c := s.Clone()
	c.Messages[0].Content = "changed"
	c.Messages[0].Images[0].Data[0] = 0
	c.Messages = append(c.Messages, NewModelMessage("a"))

	if s.Messages[0].Content != "q" || s.Messages[0].Images[0].Data[0] != 7 {
		t.Error("Clone() shares message memory with the original")
	}
	if len(s.Messages) != 1 {
		t.Errorf("original grew to %d messages", len(s.Messages))
	}
}

func TestSession_Replies(t *testing.T) {
	s := Session{}
	if s.HasReply() {
		t.Error("empty session reports a reply")
	}
	if _, ok := s.LastReply(); ok {
		t.Error("LastReply() on empty session returned ok")
	}

	s.Messages = []Message{NewUserMessage("one"), NewModelMessage("r1"), NewUserMessage("two")}
	if !s.HasReply() {
		t.Error("HasReply() = false, want true")
	}
	if got, _ := s.LastReply(); got.Content != "r1" {
		t.Errorf("LastReply() = %q, want r1", got.Content)
	}
	if got := s.Exchanges(); got != 1 {
		t.Errorf("Exchanges() = %d, want 1", got)
	}
	if last, _ := s.LastMessage(); last.Content != "two" {
		t.Errorf("LastMessage() = %q, want two", last.Content)
	}
}
