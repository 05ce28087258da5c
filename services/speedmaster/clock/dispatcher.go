// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package clock

import (
	"sync"
	"time"
)

// PostFunc hands a callback to the event loop that owns the state machine.
type PostFunc func(fn func())

// Dispatcher is a real-time Scheduler whose callbacks are posted to an
// event loop instead of running on the timer goroutine.
//
// # Description
//
// When a timer expires, Dispatcher calls post with a wrapper. The wrapper
// re-checks cancellation when the loop executes it, so a Stop issued on
// the loop before the wrapper runs still suppresses the callback even if
// the underlying time.Timer had already fired.
type Dispatcher struct {
	post PostFunc
	now  func() time.Time
}

// NewDispatcher creates a Dispatcher that delivers callbacks through post.
func NewDispatcher(post PostFunc) *Dispatcher {
	return &Dispatcher{post: post, now: time.Now}
}

// Now returns the wall-clock time.
func (d *Dispatcher) Now() time.Time { return d.now() }

// AfterFunc arms a real timer that posts fn to the loop when it expires.
func (d *Dispatcher) AfterFunc(delay time.Duration, fn func()) Timer {
	t := &dispatchedTimer{}
	t.timer = time.AfterFunc(delay, func() {
		d.post(func() {
			if t.claim() {
				fn()
			}
		})
	})
	return t
}

type dispatchedTimer struct {
	mu    sync.Mutex
	done  bool
	timer *time.Timer
}

// claim marks the timer as fired. It returns false if it was stopped.
func (t *dispatchedTimer) claim() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}

// Stop cancels the timer, including a callback already posted but not
// yet executed.
func (t *dispatchedTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	t.timer.Stop()
	return true
}
