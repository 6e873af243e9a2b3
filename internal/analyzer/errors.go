// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package analyzer

import (
	"errors"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrNotConfigured is returned before any network call when no
	// credential or endpoint is available.
	ErrNotConfigured = errors.New("API key is missing. Please check your environment configuration.")

	// ErrAnalysisFailed is the uniform failure for everything else.
	ErrAnalysisFailed = errors.New("Failed to analyze code. Please try again.")
)

// =============================================================================
// ERROR TYPE
// =============================================================================

// Error is a failed analysis call. Its message never includes the cause;
// the cause is kept for logging.
type Error struct {
	Backend string
	Cause   error
}

// Error returns the uniform failure text.
func (e *Error) Error() string {
	return ErrAnalysisFailed.Error()
}

// Unwrap exposes the cause to errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches ErrAnalysisFailed.
func (e *Error) Is(target error) bool {
	return target == ErrAnalysisFailed
}

// Fail converts any error into the uniform failure. ErrNotConfigured and
// errors that are already uniform pass through unchanged.
func Fail(backend string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotConfigured) {
		return ErrNotConfigured
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Backend: backend, Cause: err}
}

// Cause returns the underlying provider error, if any.
func Cause(err error) error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Cause
	}
	return err
}
