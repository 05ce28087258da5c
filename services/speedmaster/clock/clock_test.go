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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func TestManual_FiresInDeadlineOrder(t *testing.T) {
	m := NewManual(epoch)
	var order []string

	m.AfterFunc(300*time.Millisecond, func() { order = append(order, "c") })
	m.AfterFunc(100*time.Millisecond, func() { order = append(order, "a") })
	m.AfterFunc(200*time.Millisecond, func() { order = append(order, "b") })

	m.Advance(250 * time.Millisecond)
	assert.Equal(t, []string{"a", "b"}, order)
	assert.Equal(t, 1, m.Pending())

	m.Advance(50 * time.Millisecond)
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, epoch.Add(300*time.Millisecond), m.Now())
}

func TestManual_Stop(t *testing.T) {
	m := NewManual(epoch)
	fired := false

	timer := m.AfterFunc(time.Second, func() { fired = true })
	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())

	m.Advance(2 * time.Second)
	assert.False(t, fired)
	assert.Equal(t, 0, m.Pending())
}

func TestManual_StopAfterFire(t *testing.T) {
	m := NewManual(epoch)
	timer := m.AfterFunc(time.Millisecond, func() {})

	m.Advance(time.Millisecond)
	assert.False(t, timer.Stop())
}

func TestManual_CallbackArmsAnotherTimer(t *testing.T) {
	m := NewManual(epoch)
	var at []time.Time

	m.AfterFunc(100*time.Millisecond, func() {
		at = append(at, m.Now())
		m.AfterFunc(100*time.Millisecond, func() {
			at = append(at, m.Now())
		})
	})

	m.Advance(time.Second)
	require.Len(t, at, 2)
	assert.Equal(t, epoch.Add(100*time.Millisecond), at[0])
	assert.Equal(t, epoch.Add(200*time.Millisecond), at[1])
}

func TestManual_CallbackStopsSibling(t *testing.T) {
	m := NewManual(epoch)
	var second Timer
	secondFired := false

	m.AfterFunc(100*time.Millisecond, func() { second.Stop() })
	second = m.AfterFunc(100*time.Millisecond, func() { secondFired = true })

	m.Advance(time.Second)
	assert.False(t, secondFired)
}

func TestStopTimer_Nil(t *testing.T) {
	assert.False(t, StopTimer(nil))
}

func TestDispatcher_PostsToLoop(t *testing.T) {
	loop := make(chan func(), 1)
	d := NewDispatcher(func(fn func()) { loop <- fn })

	fired := false
	d.AfterFunc(time.Millisecond, func() { fired = true })

	select {
	case fn := <-loop:
		assert.False(t, fired, "callback must not run on the timer goroutine")
		fn()
		assert.True(t, fired)
	case <-time.After(time.Second):
		t.Fatal("timer never posted")
	}
}

func TestDispatcher_StopAfterPostSuppresses(t *testing.T) {
	loop := make(chan func(), 1)
	d := NewDispatcher(func(fn func()) { loop <- fn })

	fired := false
	timer := d.AfterFunc(time.Millisecond, func() { fired = true })

	var posted func()
	select {
	case posted = <-loop:
	case <-time.After(time.Second):
		t.Fatal("timer never posted")
	}

	// The loop cancels before it gets around to the posted callback.
	assert.True(t, timer.Stop())
	posted()
	assert.False(t, fired)
}

func TestDispatcher_StopBeforeExpiry(t *testing.T) {
	loop := make(chan func(), 1)
	d := NewDispatcher(func(fn func()) { loop <- fn })

	timer := d.AfterFunc(50*time.Millisecond, func() {})
	assert.True(t, timer.Stop())

	select {
	case <-loop:
		t.Fatal("stopped timer was posted")
	case <-time.After(100 * time.Millisecond):
	}
}
