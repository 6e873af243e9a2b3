// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/agent-architect/internal/model"
)

func ids(sessions []model.Session) []string {
	out := make([]string, len(sessions))
	for i, s := range sessions {
		out[i] = s.ID
	}
	return out
}

// =============================================================================
// CREATE / DELETE / SELECT
// =============================================================================

func TestStore_CreateNewestFirst(t *testing.T) {
	s := NewStore(DefaultConfig())

	a := s.Create()
	b := s.Create()
	c := s.Create()

	assert.Equal(t, []string{c.ID, b.ID, a.ID}, ids(s.Sessions()))
	assert.Equal(t, c.ID, s.CurrentID())
	assert.Equal(t, "Analysis #1", a.Title)
	assert.Equal(t, "Analysis #3", c.Title)
	assert.Empty(t, c.Messages)
	assert.Less(t, a.ID, c.ID, "ids should sort in creation order")
}

func TestStore_DeleteCurrentLeavesNoCurrent(t *testing.T) {
	s := NewStore(DefaultConfig())
	a := s.Create()
	b := s.Create()

	wasCurrent := s.Delete(b.ID)
	assert.True(t, wasCurrent)
	assert.Equal(t, "", s.CurrentID())

	_, ok := s.Current()
	assert.False(t, ok, "current must not fall back to %s", a.ID)
	assert.Equal(t, []string{a.ID}, ids(s.Sessions()))
}

func TestStore_DeleteNonCurrentKeepsCurrent(t *testing.T) {
	s := NewStore(DefaultConfig())
	a := s.Create()
	b := s.Create()

	assert.False(t, s.Delete(a.ID))
	assert.Equal(t, b.ID, s.CurrentID())
}

func TestStore_DeleteMissingIsNoop(t *testing.T) {
	s := NewStore(DefaultConfig())
	s.Create()
	v := s.Version()

	assert.False(t, s.Delete("missing"))
	assert.Equal(t, v, s.Version())
	assert.Equal(t, 1, s.Len())
}

func TestStore_SelectUnknownResolvesToNothing(t *testing.T) {
	s := NewStore(DefaultConfig())
	s.Create()

	s.Select("nope")
	assert.Equal(t, "nope", s.CurrentID())
	_, ok := s.Current()
	assert.False(t, ok)
}

// For any sequence of create/delete/select the store holds exactly the
// created-and-not-deleted sessions, newest first.
func TestStore_RandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 50; round++ {
		s := NewStore(DefaultConfig())
		var live []string // newest first
		current := ""

		for step := 0; step < 40; step++ {
			switch op := rng.Intn(3); {
			case op == 0 || len(live) == 0:
				sess := s.Create()
				live = append([]string{sess.ID}, live...)
				current = sess.ID
			case op == 1:
				victim := live[rng.Intn(len(live))]
				prev := s.CurrentID()
				s.Delete(victim)
				for i, id := range live {
					if id == victim {
						live = append(live[:i], live[i+1:]...)
						break
					}
				}
				if prev == victim {
					current = ""
				}
			default:
				target := live[rng.Intn(len(live))]
				s.Select(target)
				current = target
			}

			require.Equal(t, live, ids(s.Sessions()), "round %d step %d", round, step)
			require.Equal(t, current, s.CurrentID(), "round %d step %d", round, step)
		}
	}
}

// =============================================================================
// APPEND
// =============================================================================

func TestStore_AppendToDeletedIsSilent(t *testing.T) {
	s := NewStore(DefaultConfig())
	sess := s.Create()
	s.Delete(sess.ID)

	assert.False(t, s.Append(sess.ID, model.NewUserMessage("late")))
	assert.False(t, s.AppendAll(sess.ID, model.NewUserMessage("a"), model.NewModelMessage("b")))
	assert.False(t, s.Reply(sess.ID, model.NewModelMessage("b"), "title"))
	assert.Equal(t, 0, s.MessageCount())
}

func TestStore_AppendAllIsOneUpdate(t *testing.T) {
	s := NewStore(DefaultConfig())
	sess := s.Create()
	before := s.Version()

	ok := s.AppendAll(sess.ID, model.NewUserMessage("q"), model.NewModelMessage("a"))
	require.True(t, ok)
	assert.Equal(t, before+1, s.Version())

	got, _ := s.Get(sess.ID)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, model.RoleUser, got.Messages[0].Role)
	assert.Equal(t, model.RoleModel, got.Messages[1].Role)
}

func TestStore_AppendAllNeverPartial(t *testing.T) {
	s := NewStore(DefaultConfig())
	sess := s.Create()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			s.AppendAll(sess.ID, model.NewUserMessage("q"), model.NewModelMessage("a"))
		}
	}()
	for i := 0; i < 200; i++ {
		got, _ := s.Get(sess.ID)
		require.Zero(t, len(got.Messages)%2, "observed a partial batch")
	}
	wg.Wait()
}

func TestStore_SnapshotsAreIsolated(t *testing.T) {
	s := NewStore(DefaultConfig())
	sess := s.Create()
	s.Append(sess.ID, model.NewUserMessage("first"))

	snap, _ := s.Get(sess.ID)
	s.Append(sess.ID, model.NewModelMessage("second"))
	snap.Messages[0].Content = "mutated"

	assert.Len(t, snap.Messages, 1)
	got, _ := s.Get(sess.ID)
	assert.Equal(t, "first", got.Messages[0].Content)
}

// =============================================================================
// RETITLE
// =============================================================================

func TestStore_Retitle(t *testing.T) {
	s := NewStore(DefaultConfig())
	sess := s.Create()

	assert.True(t, s.Retitle(sess.ID, "Named"))
	s.Append(sess.ID, model.NewUserMessage("q"))
	assert.False(t, s.Retitle(sess.ID, "Renamed"))

	got, _ := s.Get(sess.ID)
	assert.Equal(t, "Named", got.Title)
	assert.False(t, s.Retitle("missing", "x"))
}

func TestStore_ReplyRetitlesFirstExchangeOnly(t *testing.T) {
	s := NewStore(DefaultConfig())
	sess := s.Create()

	s.Append(sess.ID, model.NewUserMessage("q1"))
	require.True(t, s.Reply(sess.ID, model.NewModelMessage("a1"), "First"))
	s.Append(sess.ID, model.NewUserMessage("q2"))
	require.True(t, s.Reply(sess.ID, model.NewModelMessage("a2"), "Second"))

	got, _ := s.Get(sess.ID)
	assert.Equal(t, "First", got.Title)
	assert.Len(t, got.Messages, 4)
}

// =============================================================================
// SUBSCRIBE
// =============================================================================

func TestStore_SubscribeCoalesces(t *testing.T) {
	s := NewStore(DefaultConfig())
	ch, cancel := s.Subscribe()

	s.Create()
	s.Create()
	s.Create()

	select {
	case v := <-ch:
		assert.Equal(t, s.Version(), v)
	case <-time.After(time.Second):
		t.Fatal("no notification received")
	}

	cancel()
	_, open := <-ch
	assert.False(t, open)
	cancel()
}

func TestStore_CustomConfig(t *testing.T) {
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	s := NewStore(Config{TitleFormat: "Run %d", Clock: func() time.Time { return fixed }})

	sess := s.Create()
	assert.Equal(t, "Run 1", sess.Title)
	assert.Equal(t, fixed, sess.CreatedAt)
}
