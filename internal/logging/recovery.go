// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"fmt"
	"log/slog"
	"runtime/debug"
)

// PanicError is returned by WrapError when fn panics.
type PanicError struct {
	Component string
	Value     any
	Stack     string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Component, e.Value)
}

// RecoveryHandler turns panics into logged errors.
type RecoveryHandler struct {
	Component string
	Logger    *slog.Logger
	OnPanic   func(err *PanicError)
}

// NewRecoveryHandler creates a recovery handler for a component.
func NewRecoveryHandler(component string, logger *slog.Logger) *RecoveryHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecoveryHandler{Component: component, Logger: logger}
}

// Wrap executes fn, swallowing and logging any panic.
func (r *RecoveryHandler) Wrap(fn func()) {
	_ = r.WrapError(func() error {
		fn()
		return nil
	})
}

// WrapError executes fn, converting a panic into a *PanicError.
func (r *RecoveryHandler) WrapError(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = r.handle(rec, string(debug.Stack()))
		}
	}()
	return fn()
}

func (r *RecoveryHandler) handle(rec any, stack string) error {
	pe := &PanicError{Component: r.Component, Value: rec, Stack: stack}
	r.Logger.Error("panic recovered",
		"component", r.Component,
		"error", fmt.Sprint(rec),
		"stack", stack)
	if r.OnPanic != nil {
		r.OnPanic(pe)
	}
	return pe
}
