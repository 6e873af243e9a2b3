// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package diagram

import (
	"context"
	"crypto/sha256"
	"sync"
)

// CachedEngine memoizes successful renders of an engine by source hash.
// Each hit is returned under the caller's render id.
type CachedEngine struct {
	inner Engine

	mu      sync.RWMutex
	entries map[[sha256.Size]byte]Artifact
}

// NewCachedEngine wraps inner.
func NewCachedEngine(inner Engine) *CachedEngine {
	return &CachedEngine{inner: inner, entries: make(map[[sha256.Size]byte]Artifact)}
}

// Name returns the wrapped engine's name.
func (c *CachedEngine) Name() string { return c.inner.Name() }

// Render returns a cached artifact for src or renders and stores it.
func (c *CachedEngine) Render(ctx context.Context, renderID, src string) (Artifact, error) {
	key := sha256.Sum256([]byte(src))

	c.mu.RLock()
	art, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		art.RenderID = renderID
		return art, nil
	}

	art, err := c.inner.Render(ctx, renderID, src)
	if err != nil {
		return Artifact{}, err
	}

	c.mu.Lock()
	c.entries[key] = art
	c.mu.Unlock()
	return art, nil
}

// Len returns the number of cached entries.
func (c *CachedEngine) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
