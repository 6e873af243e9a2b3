// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session provides the in-memory store of analysis sessions.
//
// The store owns every Session and Message. Sessions are kept newest-first
// and at most one of them is current. The current session is held as an id
// and resolved on read, so deleting it simply leaves no current session.
//
// # Key Types
//
//   - Store: Mutex-guarded session collection with append-only message logs
//   - Config: Store options (default title format)
//
// # Usage
//
//	store := session.NewStore(session.DefaultConfig())
//	sess := store.Create()
//	store.Append(sess.ID, model.NewUserMessage("Review this handler"))
//
// Appending to a session that no longer exists is a silent no-op:
//
//	store.Delete(sess.ID)
//	ok := store.Append(sess.ID, model.NewModelMessage("late reply")) // ok == false
//
// Observe changes from another goroutine:
//
//	ch, cancel := store.Subscribe()
//	defer cancel()
//	for v := range ch {
//	    redraw(v)
//	}
package session
