// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package session

import (
	"time"

	"github.com/AleutianAI/speedmaster/services/speedmaster/notes"
)

// =============================================================================
// Screens
// =============================================================================

// Screen is the top-level UI mode. Exactly one is active at a time.
type Screen string

const (
	// ScreenMenu is the initial screen.
	ScreenMenu Screen = "menu"

	// ScreenTutorial hands input to the tutorial sequencer.
	ScreenTutorial Screen = "tutorial"

	// ScreenGame is an active run.
	ScreenGame Screen = "game"

	// ScreenGameOver shows the final score.
	ScreenGameOver Screen = "gameover"
)

// =============================================================================
// Outcomes
// =============================================================================

// Outcome describes what a press did.
type Outcome int

const (
	// OutcomeIgnored means the press arrived with no active note.
	OutcomeIgnored Outcome = iota

	// OutcomeCorrect means the press matched and scored.
	OutcomeCorrect

	// OutcomeWrong means the press ended the run.
	OutcomeWrong
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeCorrect:
		return "correct"
	case OutcomeWrong:
		return "wrong"
	default:
		return "unknown"
	}
}

// MissReason is why a run ended.
type MissReason string

const (
	// MissTimeout means the response window elapsed.
	MissTimeout MissReason = "timeout"

	// MissWrongKey means a non-matching key was pressed.
	MissWrongKey MissReason = "wrong_key"
)

// =============================================================================
// State
// =============================================================================

// State is an immutable snapshot of the game.
type State struct {
	Score      int
	Level      int
	TimeWindow time.Duration

	// CurrentNote is nil when no challenge is active.
	CurrentNote *notes.Note

	IsPlaying bool
	Screen    Screen
	HighScore int

	// RunID identifies the current or last run. Empty before the first run.
	RunID string

	// NoteDeadline is when the active note times out. Zero when no note
	// is active.
	NoteDeadline time.Time
}

// clone returns a deep copy so callers cannot reach the session's note.
func (s State) clone() State {
	if s.CurrentNote != nil {
		n := *s.CurrentNote
		s.CurrentNote = &n
	}
	return s
}

// Remaining returns the time left on the active note at now.
func (s State) Remaining(now time.Time) time.Duration {
	if s.CurrentNote == nil || s.NoteDeadline.IsZero() {
		return 0
	}
	if d := s.NoteDeadline.Sub(now); d > 0 {
		return d
	}
	return 0
}
