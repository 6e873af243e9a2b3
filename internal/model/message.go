// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the author of a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleModel:
		return "Architect"
	default:
		return string(r)
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleModel
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is one turn in a session.
// A model message always answers the user message directly before it.
type Message struct {
	Role      Role           `json:"role"`
	Content   string         `json:"content"`
	Images    []ImagePayload `json:"images,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewUserMessage creates a user message. Images are copied.
func NewUserMessage(content string, images ...*ImagePayload) Message {
	msg := Message{
		Role:      RoleUser,
		Content:   content,
		CreatedAt: time.Now(),
	}
	for _, img := range images {
		if img == nil {
			continue
		}
		msg.Images = append(msg.Images, img.Clone())
	}
	return msg
}

// NewModelMessage creates a model message.
func NewModelMessage(content string) Message {
	return Message{
		Role:      RoleModel,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// IsUser returns true if this is a user message.
func (m Message) IsUser() bool {
	return m.Role == RoleUser
}

// IsModel returns true if this is a model message.
func (m Message) IsModel() bool {
	return m.Role == RoleModel
}

// HasImages returns true if the message carries at least one image.
func (m Message) HasImages() bool {
	return len(m.Images) > 0
}

// Clone returns a deep copy of the message.
func (m Message) Clone() Message {
	out := m
	if m.Images != nil {
		out.Images = make([]ImagePayload, len(m.Images))
		for i, img := range m.Images {
			out.Images[i] = img.Clone()
		}
	}
	return out
}
