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

// Metrics receives gameplay events for instrumentation.
//
// Implementations must not block; they are called on the game loop.
type Metrics interface {
	// GameStarted is called when a run begins.
	GameStarted()

	// NotePresented is called when a note is drawn.
	NotePresented(key notes.Key)

	// NoteHit is called for a correct press with the time since the note
	// was presented and the level after scoring.
	NoteHit(key notes.Key, reaction time.Duration, level int)

	// NoteMissed is called when a run ends on a note.
	NoteMissed(key notes.Key, reason MissReason)

	// GameOver is called with the final score and level.
	GameOver(score, level int)

	// HighScore reports the current high score.
	HighScore(v int)
}

// NoOpMetrics discards all events.
type NoOpMetrics struct{}

func (NoOpMetrics) GameStarted()                          {}
func (NoOpMetrics) NotePresented(notes.Key)               {}
func (NoOpMetrics) NoteHit(notes.Key, time.Duration, int) {}
func (NoOpMetrics) NoteMissed(notes.Key, MissReason)      {}
func (NoOpMetrics) GameOver(int, int)                     {}
func (NoOpMetrics) HighScore(int)                         {}

var _ Metrics = NoOpMetrics{}
