// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package analysis runs submissions from the draft to the session store.
//
// The Orchestrator holds a single active-submission slot. Begin validates
// the draft, fixes the target session, appends the user message and claims
// the slot. Run performs the external call exactly once and appends the
// reply or a fixed error message to that same target, then frees the slot
// on every exit path.
//
// # Key Types
//
//   - Orchestrator: Owner of the active-submission slot
//   - Submission: One accepted request bound to a target session
//   - Result: Outcome of a finished submission
//   - State: Idle, Submitting, AwaitingResult, Completed, Failed
//
// # Usage
//
//	orch := analysis.New(store, az)
//	sub, err := orch.Begin(holder.Get(), holder.Clear)
//	if err != nil {
//	    return // empty draft or already busy
//	}
//	res := sub.Run(ctx)
//
// Or asynchronously:
//
//	done, err := orch.Submit(ctx, holder.Get(), holder.Clear)
//	res := <-done
package analysis
