// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package gateway

import (
	"context"
	"sync"

	"github.com/AleutianAI/speedmaster/services/speedmaster/notes"
)

// =============================================================================
// No-Op implementations
// =============================================================================

// NoOpAudio discards every effect. Used for --mute.
type NoOpAudio struct{}

// PlayNote does nothing.
func (NoOpAudio) PlayNote(notes.Note) {}

// PlayCorrect does nothing.
func (NoOpAudio) PlayCorrect() {}

// PlayWrong does nothing.
func (NoOpAudio) PlayWrong() {}

// StartAmbient does nothing.
func (NoOpAudio) StartAmbient() {}

// StopAmbient does nothing.
func (NoOpAudio) StopAmbient() {}

// NoOpSpeech discards every utterance. Used for --no-speech.
type NoOpSpeech struct{}

// Speak does nothing.
func (NoOpSpeech) Speak(string) {}

// MemoryHighScores keeps the high score in memory only.
type MemoryHighScores struct {
	mu    sync.Mutex
	value int
}

// HighScore returns the stored value.
func (m *MemoryHighScores) HighScore(context.Context) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value
}

// SaveHighScore stores v.
func (m *MemoryHighScores) SaveHighScore(_ context.Context, v int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = v
}

var (
	_ Audio      = NoOpAudio{}
	_ Ambient    = NoOpAudio{}
	_ Speech     = NoOpSpeech{}
	_ HighScores = (*MemoryHighScores)(nil)
)
