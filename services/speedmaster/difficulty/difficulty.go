// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package difficulty derives level and response window from score.
//
// All functions are pure. The response window shrinks linearly per level
// and never leaves [MinTimeWindow, InitialTimeWindow].
package difficulty

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidThreshold is returned when LevelThreshold is not positive.
	ErrInvalidThreshold = errors.New("level threshold must be positive")

	// ErrInvalidDecrease is returned when TimeWindowDecrease is negative.
	ErrInvalidDecrease = errors.New("time window decrease must not be negative")

	// ErrInvalidWindow is returned when the window bounds are inconsistent.
	ErrInvalidWindow = errors.New("time window bounds are invalid")
)

// Model holds the difficulty parameters.
type Model struct {
	// InitialTimeWindow is the response window at level 1.
	InitialTimeWindow time.Duration

	// MinTimeWindow is the floor the window never drops below.
	MinTimeWindow time.Duration

	// TimeWindowDecrease is subtracted once per level above 1.
	TimeWindowDecrease time.Duration

	// LevelThreshold is the number of points per level.
	LevelThreshold int
}

// Default returns the standard parameters: 3s window shrinking by 200ms
// per 100 points, floored at 800ms.
func Default() Model {
	return Model{
		InitialTimeWindow:  3000 * time.Millisecond,
		MinTimeWindow:      800 * time.Millisecond,
		TimeWindowDecrease: 200 * time.Millisecond,
		LevelThreshold:     100,
	}
}

// Validate checks the parameter constraints.
func (m Model) Validate() error {
	if m.LevelThreshold <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidThreshold, m.LevelThreshold)
	}
	if m.TimeWindowDecrease < 0 {
		return fmt.Errorf("%w: %s", ErrInvalidDecrease, m.TimeWindowDecrease)
	}
	if m.MinTimeWindow <= 0 || m.MinTimeWindow > m.InitialTimeWindow {
		return fmt.Errorf("%w: min %s, initial %s", ErrInvalidWindow, m.MinTimeWindow, m.InitialTimeWindow)
	}
	return nil
}

// LevelForScore returns floor(score / LevelThreshold) + 1.
//
// Negative scores are treated as zero.
func (m Model) LevelForScore(score int) int {
	if score < 0 {
		score = 0
	}
	return score/m.LevelThreshold + 1
}

// TimeWindowForLevel returns
// max(MinTimeWindow, InitialTimeWindow - (level-1) * TimeWindowDecrease).
//
// Levels below 1 are treated as level 1.
func (m Model) TimeWindowForLevel(level int) time.Duration {
	if level < 1 {
		level = 1
	}
	steps := level - 1
	// Avoid overflow on absurd levels: once the floor is reached the
	// answer cannot change.
	if m.TimeWindowDecrease > 0 {
		maxSteps := int((m.InitialTimeWindow-m.MinTimeWindow)/m.TimeWindowDecrease) + 1
		if steps > maxSteps {
			steps = maxSteps
		}
	}
	w := m.InitialTimeWindow - time.Duration(steps)*m.TimeWindowDecrease
	if w < m.MinTimeWindow {
		return m.MinTimeWindow
	}
	return w
}

// TimeWindowForScore is TimeWindowForLevel(LevelForScore(score)).
func (m Model) TimeWindowForScore(score int) time.Duration {
	return m.TimeWindowForLevel(m.LevelForScore(score))
}
