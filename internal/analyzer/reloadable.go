// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package analyzer

import (
	"context"
	"sync"
)

// Reloadable forwards to a backend that can be replaced while running,
// for example after the config file changes. A call already in flight
// finishes on the backend it started with.
type Reloadable struct {
	mu      sync.RWMutex
	current Analyzer
}

// NewReloadable wraps an initial backend.
func NewReloadable(az Analyzer) *Reloadable {
	return &Reloadable{current: az}
}

// Swap replaces the backend and returns the previous one.
func (r *Reloadable) Swap(az Analyzer) Analyzer {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.current
	r.current = az
	return prev
}

// Current returns the active backend.
func (r *Reloadable) Current() Analyzer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Analyze forwards to the active backend.
func (r *Reloadable) Analyze(ctx context.Context, req Request) (string, error) {
	az := r.Current()
	if az == nil {
		return "", ErrNotConfigured
	}
	return az.Analyze(ctx, req)
}

// Name returns the active backend's name.
func (r *Reloadable) Name() string {
	az := r.Current()
	if az == nil {
		return "none"
	}
	return az.Name()
}
