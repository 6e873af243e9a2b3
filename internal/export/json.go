// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"time"

	"github.com/jeranaias/agent-architect/internal/model"
)

// =============================================================================
// JSON EXPORT
// =============================================================================

type jsonSession struct {
	ID         string        `json:"id"`
	Title      string        `json:"title"`
	CreatedAt  time.Time     `json:"created_at"`
	ExportedAt time.Time     `json:"exported_at"`
	Messages   []jsonMessage `json:"messages"`
}

type jsonMessage struct {
	Role      string      `json:"role"`
	Content   string      `json:"content"`
	Images    []jsonImage `json:"images,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

type jsonImage struct {
	MIMEType string `json:"mime_type"`
	Name     string `json:"name,omitempty"`
	Size     int    `json:"size"`
	Data     string `json:"data"`
}

// JSON renders sess as indented JSON. Image bytes are base64 encoded.
func JSON(sess model.Session) ([]byte, error) {
	out := jsonSession{
		ID:         sess.ID,
		Title:      sess.Title,
		CreatedAt:  sess.CreatedAt,
		ExportedAt: time.Now().UTC(),
		Messages:   make([]jsonMessage, 0, len(sess.Messages)),
	}
	for _, msg := range sess.Messages {
		jm := jsonMessage{
			Role:      msg.Role.String(),
			Content:   msg.Content,
			CreatedAt: msg.CreatedAt,
		}
		for _, img := range msg.Images {
			jm.Images = append(jm.Images, jsonImage{
				MIMEType: img.MIMEType,
				Name:     img.Name,
				Size:     len(img.Data),
				Data:     img.Base64(),
			})
		}
		out.Messages = append(out.Messages, jm)
	}
	return json.MarshalIndent(out, "", "  ")
}
