// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package gateway declares the side-effect capabilities the game state
// machines call into.
//
// # Description
//
// Every method is fire-and-forget from the caller's point of view:
// implementations swallow and log their own failures. A missing audio
// device, a failed speech process, or an unreadable score file must never
// interrupt a run.
package gateway

import (
	"context"

	"github.com/AleutianAI/speedmaster/services/speedmaster/notes"
)

// Audio plays short effects.
type Audio interface {
	// PlayNote plays the tone for a note.
	PlayNote(n notes.Note)

	// PlayCorrect plays the correct-answer sting.
	PlayCorrect()

	// PlayWrong plays the failure sting.
	PlayWrong()
}

// Ambient controls the background track that plays during a run.
type Ambient interface {
	// StartAmbient starts the track from the beginning.
	StartAmbient()

	// StopAmbient pauses the track and rewinds it. Safe to call when
	// nothing is playing.
	StopAmbient()
}

// Speech narrates text.
//
// Only one utterance may be in flight; Speak while busy drops the text.
type Speech interface {
	Speak(text string)
}

// HighScores persists the best score.
type HighScores interface {
	// HighScore returns the stored high score, or 0 when absent or unreadable.
	HighScore(ctx context.Context) int

	// SaveHighScore stores v. Failures are logged, not returned.
	SaveHighScore(ctx context.Context, v int)
}
