// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package analyzer

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// rateLimited waits for a token before each call.
type rateLimited struct {
	next    Analyzer
	limiter *rate.Limiter
}

// RateLimited wraps az so calls are spaced by limiter. A nil limiter
// returns az unchanged.
func RateLimited(az Analyzer, limiter *rate.Limiter) Analyzer {
	if limiter == nil {
		return az
	}
	return &rateLimited{next: az, limiter: limiter}
}

// PerMinute builds a limiter allowing n requests per minute with a burst
// of one. n <= 0 disables limiting.
func PerMinute(n int) *rate.Limiter {
	if n <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)
}

// Analyze waits for the limiter, then forwards the call.
func (r *rateLimited) Analyze(ctx context.Context, req Request) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", Fail(r.next.Name(), err)
	}
	return r.next.Analyze(ctx, req)
}

// Name returns the wrapped backend's name.
func (r *rateLimited) Name() string {
	return r.next.Name()
}
