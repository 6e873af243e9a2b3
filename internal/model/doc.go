// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for analysis sessions and messages.
//
// # Key Types
//
//   - Session: One analysis thread with a title and an append-only message log
//   - Message: Single turn authored by the user or the model
//   - ImagePayload: Decoded image bytes with their MIME type
//   - Role: Message author (user, model)
//
// # Usage
//
// Build a user message carrying an image:
//
//	img, err := model.ParseDataURL("data:image/png;base64,iVBORw0...")
//	if err != nil {
//	    return err
//	}
//	msg := model.NewUserMessage("Explain this diagram", img)
//
// Sessions handed out by the store are deep copies:
//
//	snap := sess.Clone()
//	snap.Messages = append(snap.Messages, msg) // does not affect sess
package model
