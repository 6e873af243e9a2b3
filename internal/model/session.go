// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"
)

// =============================================================================
// SESSION TYPE
// =============================================================================

// Session is one analysis thread.
// ID never changes after creation and Messages only grows.
type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	Messages  []Message `json:"messages"`
}

// MessageCount returns the number of messages.
func (s Session) MessageCount() int {
	return len(s.Messages)
}

// IsEmpty returns true if the session has no messages.
func (s Session) IsEmpty() bool {
	return len(s.Messages) == 0
}

// HasReply returns true once any model message has been appended.
func (s Session) HasReply() bool {
	for _, m := range s.Messages {
		if m.Role == RoleModel {
			return true
		}
	}
	return false
}

// LastMessage returns the most recent message, if any.
func (s Session) LastMessage() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// LastReply returns the most recent model message, if any.
func (s Session) LastReply() (Message, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleModel {
			return s.Messages[i], true
		}
	}
	return Message{}, false
}

// Exchanges returns the number of completed user/model pairs.
func (s Session) Exchanges() int {
	n := 0
	for _, m := range s.Messages {
		if m.Role == RoleModel {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of the session.
func (s Session) Clone() Session {
	out := s
	if s.Messages != nil {
		out.Messages = make([]Message, len(s.Messages))
		for i, m := range s.Messages {
			out.Messages[i] = m.Clone()
		}
	}
	return out
}
