// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package analysis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jeranaias/agent-architect/internal/analyzer"
	"github.com/jeranaias/agent-architect/internal/logging"
	"github.com/jeranaias/agent-architect/internal/model"
)

// Submission is one accepted request. Its target session never changes.
type Submission struct {
	ID             string
	SessionID      string
	Request        analyzer.Request
	UserMessage    model.Message
	FirstExchange  bool
	CreatedSession bool
	StartedAt      time.Time

	title string
	orch  *Orchestrator
	state State // guarded by orch.mu

	once   sync.Once
	result Result
	done   chan struct{}
}

// Result is the outcome of a finished submission.
type Result struct {
	SubmissionID string
	SessionID    string
	State        State
	Reply        model.Message
	// Delivered is false when the target session was deleted before the
	// reply arrived; the reply was then discarded.
	Delivered bool
	// Err is the analyzer error for failed submissions. It is never shown
	// in the session.
	Err      error
	Duration time.Duration
}

// State returns the submission's current state.
func (s *Submission) State() State {
	s.orch.mu.Lock()
	defer s.orch.mu.Unlock()
	return s.state
}

// Done is closed once Run has finished.
func (s *Submission) Done() <-chan struct{} {
	return s.done
}

// Run performs the external call once and records the outcome. Later calls
// return the first result without calling again.
func (s *Submission) Run(ctx context.Context) Result {
	s.once.Do(func() {
		defer close(s.done)
		s.result = s.run(ctx)
	})
	return s.result
}

func (s *Submission) run(ctx context.Context) (res Result) {
	o := s.orch
	logger := o.logger.With("submission_id", s.ID, "session_id", s.SessionID)

	res = Result{SubmissionID: s.ID, SessionID: s.SessionID}
	defer func() {
		res.State = s.State()
		res.Duration = o.now().Sub(s.StartedAt)
		o.release(s)
		logger.Info("analysis finished",
			"state", res.State.String(),
			"delivered", res.Delivered,
			"duration", res.Duration)
	}()

	s.setState(StateAwaitingResult)

	text, err := s.call(ctx)
	if err != nil {
		logger.Warn("analysis failed", "backend", o.az.Name(), "error", err, "cause", analyzer.Cause(err))
		res.Err = err
		res.Reply = model.NewModelMessage(ErrorReply)
		res.Delivered = o.store.Append(s.SessionID, res.Reply)
		s.setState(StateFailed)
		return res
	}

	title := ""
	if s.FirstExchange {
		title = s.title
	}
	res.Reply = model.NewModelMessage(text)
	res.Delivered = o.store.Reply(s.SessionID, res.Reply, title)
	s.setState(StateCompleted)
	return res
}

// call invokes the analyzer, turning a panic into an error.
func (s *Submission) call(ctx context.Context) (text string, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	rh := logging.NewRecoveryHandler("analysis", s.orch.logger)
	err = rh.WrapError(func() error {
		var callErr error
		text, callErr = s.orch.az.Analyze(ctx, s.Request)
		return callErr
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", s.orch.az.Name(), err)
	}
	return text, nil
}

func (s *Submission) setState(next State) {
	s.orch.mu.Lock()
	defer s.orch.mu.Unlock()
	s.transition(next)
}

// transition moves to next. Callers hold orch.mu.
func (s *Submission) transition(next State) {
	if !s.state.CanTransitionTo(next) {
		s.orch.logger.Error("invalid submission transition",
			"submission_id", s.ID,
			"from", s.state.String(),
			"to", next.String())
		return
	}
	prev := s.state
	s.state = next
	s.orch.logger.Debug("submission transition",
		"submission_id", s.ID,
		"session_id", s.SessionID,
		"from", prev.String(),
		"to", next.String(),
		"elapsed", s.orch.now().Sub(s.StartedAt))
}
