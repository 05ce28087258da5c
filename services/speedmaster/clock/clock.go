// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package clock provides cancellable one-shot timers for single-threaded
// state machines.
//
// # Description
//
// The game state machines never touch time.AfterFunc directly. They arm
// timers through a Scheduler so that:
//
//   - tests drive time deterministically with Manual
//   - the interactive program runs callbacks on its own event loop with
//     Dispatcher, never on a timer goroutine
//
// # Thread Safety
//
// Manual is not safe for concurrent use; it is meant for tests that run
// the state machine on one goroutine. Dispatcher may arm and stop timers
// from any goroutine, but callbacks run wherever the post hook runs them.
package clock

import (
	"time"
)

// Timer is a handle to a pending callback.
type Timer interface {
	// Stop cancels the callback. It returns true if the call prevented the
	// callback from running, false if it already ran or was stopped.
	Stop() bool
}

// Scheduler arms one-shot callbacks and reports the current time.
type Scheduler interface {
	// Now returns the scheduler's notion of the current time.
	Now() time.Time

	// AfterFunc arranges for fn to run once d has elapsed.
	AfterFunc(d time.Duration, fn func()) Timer
}

// StopTimer stops t if it is non-nil and reports whether it was pending.
func StopTimer(t Timer) bool {
	if t == nil {
		return false
	}
	return t.Stop()
}
