// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jeranaias/agent-architect/internal/model"
)

// =============================================================================
// CONFIG
// =============================================================================

// Config holds options for the session store.
type Config struct {
	// TitleFormat is the default title, formatted with the creation counter.
	TitleFormat string

	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
}

// DefaultConfig returns the default store configuration.
func DefaultConfig() Config {
	return Config{
		TitleFormat: "Analysis #%d",
		Clock:       time.Now,
	}
}

// =============================================================================
// STORE
// =============================================================================

// Store is the ordered collection of sessions.
type Store struct {
	mu sync.RWMutex

	sessions  []*model.Session // newest first
	currentID string           // "" means no current session
	created   int
	version   uint64

	titleFormat string
	clock       func() time.Time

	subMu  sync.Mutex
	subs   map[int]chan uint64
	nextID int
}

// NewStore creates an empty store.
func NewStore(cfg Config) *Store {
	if cfg.TitleFormat == "" {
		cfg.TitleFormat = DefaultConfig().TitleFormat
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Store{
		titleFormat: cfg.TitleFormat,
		clock:       cfg.Clock,
		subs:        make(map[int]chan uint64),
	}
}

// ===== MUTATIONS =====

// Create inserts a new empty session at the front and makes it current.
func (s *Store) Create() model.Session {
	s.mu.Lock()
	s.created++
	now := s.clock()
	sess := &model.Session{
		ID:        ulid.Make().String(),
		Title:     fmt.Sprintf(s.titleFormat, s.created),
		CreatedAt: now,
		Messages:  []model.Message{},
	}
	s.sessions = append([]*model.Session{sess}, s.sessions...)
	s.currentID = sess.ID
	snap := sess.Clone()
	v := s.bumpLocked()
	s.mu.Unlock()

	s.notify(v)
	return snap
}

// Delete removes the session with the given id. Missing ids are ignored.
// Deleting the current session leaves no session current.
// It reports whether the deleted session was current.
func (s *Store) Delete(id string) (wasCurrent bool) {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	s.sessions = append(s.sessions[:idx], s.sessions[idx+1:]...)
	if s.currentID == id {
		s.currentID = ""
		wasCurrent = true
	}
	v := s.bumpLocked()
	s.mu.Unlock()

	s.notify(v)
	return wasCurrent
}

// Select makes id current. The id is not validated; an unknown id
// resolves to no session on read.
func (s *Store) Select(id string) {
	s.mu.Lock()
	if s.currentID == id {
		s.mu.Unlock()
		return
	}
	s.currentID = id
	v := s.bumpLocked()
	s.mu.Unlock()

	s.notify(v)
}

// Append adds msg to the session. It returns false without error when the
// session no longer exists.
func (s *Store) Append(id string, msg model.Message) bool {
	return s.AppendAll(id, msg)
}

// AppendAll adds every message in one observable update, or none of them
// if the session no longer exists.
func (s *Store) AppendAll(id string, msgs ...model.Message) bool {
	s.mu.Lock()
	sess := s.findLocked(id)
	if sess == nil {
		s.mu.Unlock()
		return false
	}
	if len(msgs) == 0 {
		s.mu.Unlock()
		return true
	}
	for _, m := range msgs {
		sess.Messages = append(sess.Messages, m.Clone())
	}
	v := s.bumpLocked()
	s.mu.Unlock()

	s.notify(v)
	return true
}

// Retitle sets the title only while the session has no messages.
func (s *Store) Retitle(id, title string) bool {
	s.mu.Lock()
	sess := s.findLocked(id)
	if sess == nil || len(sess.Messages) > 0 || title == "" {
		s.mu.Unlock()
		return false
	}
	sess.Title = title
	v := s.bumpLocked()
	s.mu.Unlock()

	s.notify(v)
	return true
}

// Reply appends a model message. If title is non-empty and the session has
// not received a reply yet, the title is replaced in the same update.
func (s *Store) Reply(id string, msg model.Message, title string) bool {
	s.mu.Lock()
	sess := s.findLocked(id)
	if sess == nil {
		s.mu.Unlock()
		return false
	}
	if title != "" && !sess.HasReply() {
		sess.Title = title
	}
	sess.Messages = append(sess.Messages, msg.Clone())
	v := s.bumpLocked()
	s.mu.Unlock()

	s.notify(v)
	return true
}

// ===== QUERIES =====

// Sessions returns a deep copy of all sessions, newest first.
func (s *Store) Sessions() []model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Session, len(s.sessions))
	for i, sess := range s.sessions {
		out[i] = sess.Clone()
	}
	return out
}

// Get returns a copy of the session with the given id.
func (s *Store) Get(id string) (model.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess := s.findLocked(id)
	if sess == nil {
		return model.Session{}, false
	}
	return sess.Clone(), true
}

// Current resolves the current id. It returns false when nothing is
// selected or the selected id no longer exists.
func (s *Store) Current() (model.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.currentID == "" {
		return model.Session{}, false
	}
	sess := s.findLocked(s.currentID)
	if sess == nil {
		return model.Session{}, false
	}
	return sess.Clone(), true
}

// CurrentID returns the selected id, which may not resolve.
func (s *Store) CurrentID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentID
}

// Len returns the number of sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// MessageCount returns the total number of messages across sessions.
func (s *Store) MessageCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, sess := range s.sessions {
		n += len(sess.Messages)
	}
	return n
}

// Index returns the position of id in the newest-first order, or -1.
func (s *Store) Index(id string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexLocked(id)
}

// Version increases by one for every observable mutation.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// ===== INTERNAL =====

func (s *Store) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	for i, sess := range s.sessions {
		if sess.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) findLocked(id string) *model.Session {
	if i := s.indexLocked(id); i >= 0 {
		return s.sessions[i]
	}
	return nil
}

func (s *Store) bumpLocked() uint64 {
	s.version++
	return s.version
}
