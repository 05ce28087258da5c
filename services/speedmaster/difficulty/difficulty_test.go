// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package difficulty

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLevelForScore(t *testing.T) {
	m := Default()

	tests := []struct {
		score int
		want  int
	}{
		{0, 1},
		{10, 1},
		{99, 1},
		{100, 2},
		{190, 2},
		{200, 3},
		{1000, 11},
		{-50, 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, m.LevelForScore(tt.score), "score %d", tt.score)
	}
}

func TestTimeWindowForLevel(t *testing.T) {
	m := Default()

	tests := []struct {
		level int
		want  time.Duration
	}{
		{1, 3000 * time.Millisecond},
		{2, 2800 * time.Millisecond},
		{6, 2000 * time.Millisecond},
		{11, 1000 * time.Millisecond},
		{12, 800 * time.Millisecond},
		{13, 800 * time.Millisecond},
		{math.MaxInt32, 800 * time.Millisecond},
		{0, 3000 * time.Millisecond},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, m.TimeWindowForLevel(tt.level), "level %d", tt.level)
	}
}

// TestScoreProperties walks every score reachable in steps of one and
// checks the level formula, the window bounds and monotonicity.
func TestScoreProperties(t *testing.T) {
	m := Default()
	prev := m.InitialTimeWindow

	for s := 0; s <= 5000; s++ {
		level := m.LevelForScore(s)
		assert.Equal(t, int(math.Floor(float64(s)/float64(m.LevelThreshold)))+1, level)

		w := m.TimeWindowForLevel(level)
		if w < m.MinTimeWindow || w > m.InitialTimeWindow {
			t.Fatalf("score %d: window %s out of bounds", s, w)
		}
		if w > prev {
			t.Fatalf("score %d: window grew from %s to %s", s, prev, w)
		}
		prev = w
	}
}

func TestTimeWindowForScore_Examples(t *testing.T) {
	m := Default()

	assert.Equal(t, 2800*time.Millisecond, m.TimeWindowForScore(100))
	assert.Equal(t, 800*time.Millisecond, m.TimeWindowForScore(1000))
}

func TestTimeWindow_ZeroDecrease(t *testing.T) {
	m := Default()
	m.TimeWindowDecrease = 0

	assert.Equal(t, m.InitialTimeWindow, m.TimeWindowForLevel(50))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Default().Validate())

	m := Default()
	m.LevelThreshold = 0
	assert.ErrorIs(t, m.Validate(), ErrInvalidThreshold)

	m = Default()
	m.TimeWindowDecrease = -time.Millisecond
	assert.ErrorIs(t, m.Validate(), ErrInvalidDecrease)

	m = Default()
	m.MinTimeWindow = 4 * time.Second
	assert.ErrorIs(t, m.Validate(), ErrInvalidWindow)

	m = Default()
	m.MinTimeWindow = 0
	assert.ErrorIs(t, m.Validate(), ErrInvalidWindow)
}
