// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package analysis

// State is the phase of a submission.
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateAwaitingResult
	StateCompleted
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateAwaitingResult:
		return "awaiting_result"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// InFlight reports whether the state holds the submission slot.
func (s State) InFlight() bool {
	return s == StateSubmitting || s == StateAwaitingResult
}

// IsTerminal reports whether the submission has finished.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}

// validTransitions lists the allowed moves between states.
var validTransitions = map[State][]State{
	StateIdle:           {StateSubmitting},
	StateSubmitting:     {StateAwaitingResult, StateFailed},
	StateAwaitingResult: {StateCompleted, StateFailed},
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s State) CanTransitionTo(next State) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
