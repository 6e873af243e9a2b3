// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package analysis

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/agent-architect/internal/analyzer"
	"github.com/jeranaias/agent-architect/internal/draft"
	"github.com/jeranaias/agent-architect/internal/model"
	"github.com/jeranaias/agent-architect/internal/session"
	"github.com/jeranaias/agent-architect/internal/util"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// CodePrompt is the user message content for code without a prompt.
	CodePrompt = "Analyze this code."

	// ImagePrompt is the user message content for an image without a prompt.
	ImagePrompt = "Analyze this image."

	// ErrorReply is appended in place of a reply when the call fails.
	ErrorReply = "I encountered an error analyzing your request. Please check your API key and try again."

	// FallbackTitle names a session whose first prompt was empty.
	FallbackTitle = "Code Analysis"

	// DefaultTitleLength is the number of prompt runes used as a title.
	DefaultTitleLength = 30
)

// Sentinel errors returned by Begin. Neither has side effects.
var (
	ErrEmptyDraft = errors.New("nothing to analyze: add code, a prompt or an image")
	ErrBusy       = errors.New("an analysis is already in progress")
)

// =============================================================================
// OPTIONS
// =============================================================================

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithTitleLength sets how many prompt runes become the session title.
func WithTitleLength(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.titleLength = n
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// =============================================================================
// ORCHESTRATOR
// =============================================================================

// Orchestrator serializes analysis requests process-wide.
type Orchestrator struct {
	store *session.Store
	az    analyzer.Analyzer

	logger      *slog.Logger
	titleLength int
	now         func() time.Time

	mu     sync.Mutex
	active *Submission // nil when idle
	last   State
}

// Active describes the submission holding the slot.
type Active struct {
	SubmissionID string
	SessionID    string
	State        State
	StartedAt    time.Time
}

// New creates an orchestrator writing to store and calling az.
func New(store *session.Store, az analyzer.Analyzer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:       store,
		az:          az,
		logger:      slog.Default(),
		titleLength: DefaultTitleLength,
		now:         time.Now,
		last:        StateIdle,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Busy reports whether a submission holds the slot.
func (o *Orchestrator) Busy() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.active != nil
}

// State returns the active submission's state, or the last terminal state
// (Idle before the first submission).
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active != nil {
		return o.active.state
	}
	return o.last
}

// Active returns the submission holding the slot, if any.
func (o *Orchestrator) Active() (Active, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active == nil {
		return Active{}, false
	}
	return Active{
		SubmissionID: o.active.ID,
		SessionID:    o.active.SessionID,
		State:        o.active.state,
		StartedAt:    o.active.StartedAt,
	}, true
}

// Begin accepts d if it is non-empty and nothing is in flight. When no
// session is current it creates one and calls onNewSession, which the
// caller uses to clear its draft. The user message is appended before
// Begin returns.
func (o *Orchestrator) Begin(d draft.Draft, onNewSession func()) (*Submission, error) {
	o.mu.Lock()
	if o.active != nil {
		o.mu.Unlock()
		return nil, ErrBusy
	}
	if d.IsEmpty() {
		o.mu.Unlock()
		return nil, ErrEmptyDraft
	}

	d = d.Clone()
	target, ok := o.store.Current()
	created := false
	if !ok {
		target = o.store.Create()
		created = true
	}

	userMsg := model.NewUserMessage(UserContent(d), d.Image)
	sub := &Submission{
		ID:             uuid.NewString(),
		SessionID:      target.ID,
		Request:        analyzer.Request{PromptText: d.PromptText, CodeSnippet: d.CodeText, Image: d.Image},
		UserMessage:    userMsg,
		FirstExchange:  target.IsEmpty(),
		CreatedSession: created,
		StartedAt:      o.now(),
		title:          o.titleFor(d),
		orch:           o,
		state:          StateIdle,
		done:           make(chan struct{}),
	}
	o.store.Append(sub.SessionID, userMsg)
	sub.transition(StateSubmitting)
	o.active = sub
	o.mu.Unlock()

	if created && onNewSession != nil {
		onNewSession()
	}

	o.logger.Info("analysis submitted",
		"submission_id", sub.ID,
		"session_id", sub.SessionID,
		"backend", o.az.Name(),
		"has_code", d.HasCode(),
		"has_image", d.Image != nil,
		"created_session", created)
	return sub, nil
}

// Submit is Begin followed by Run on a new goroutine. The channel receives
// exactly one Result and is then closed.
func (o *Orchestrator) Submit(ctx context.Context, d draft.Draft, onNewSession func()) (<-chan Result, error) {
	sub, err := o.Begin(d, onNewSession)
	if err != nil {
		return nil, err
	}
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		out <- sub.Run(ctx)
	}()
	return out, nil
}

// release frees the slot held by sub.
func (o *Orchestrator) release(sub *Submission) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active == sub {
		o.active = nil
	}
	o.last = sub.state
}

func (o *Orchestrator) titleFor(d draft.Draft) string {
	if t := util.TitleFromText(d.PromptText, o.titleLength); t != "" {
		return t
	}
	return FallbackTitle
}

// UserContent picks the user message text for a draft: the prompt, or a
// generic request based on whether code was supplied.
func UserContent(d draft.Draft) string {
	if d.HasPrompt() {
		return d.PromptText
	}
	if d.HasCode() {
		return CodePrompt
	}
	return ImagePrompt
}
