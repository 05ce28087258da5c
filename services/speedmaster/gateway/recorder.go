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

// Effect kinds recorded by Recorder.
const (
	EffectNote         = "note"
	EffectCorrect      = "correct"
	EffectWrong        = "wrong"
	EffectAmbientStart = "ambient_start"
	EffectAmbientStop  = "ambient_stop"
	EffectSpeak        = "speak"
	EffectSave         = "save"
)

// Effect is one recorded gateway call.
type Effect struct {
	Kind  string
	Key   notes.Key // for EffectNote
	Text  string    // for EffectSpeak
	Value int       // for EffectSave
}

// Recorder implements every gateway and records calls in order.
//
// Useful for testing state machines:
//
//	rec := gateway.NewRecorder()
//	s, _ := session.New(ctx, cfg, session.Deps{Audio: rec, Ambient: rec, Speech: rec, Scores: rec, Scheduler: clk})
//	...
//	assert.Equal(t, 1, rec.Count(gateway.EffectWrong))
//
// Speech is always accepted; busy-dropping belongs to real speech backends.
type Recorder struct {
	mu        sync.Mutex
	effects   []Effect
	highScore int
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// NewRecorderWithHighScore creates a Recorder whose store starts at v.
func NewRecorderWithHighScore(v int) *Recorder {
	return &Recorder{highScore: v}
}

func (r *Recorder) add(e Effect) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.effects = append(r.effects, e)
}

// PlayNote records the note.
func (r *Recorder) PlayNote(n notes.Note) { r.add(Effect{Kind: EffectNote, Key: n.Key}) }

// PlayCorrect records the sting.
func (r *Recorder) PlayCorrect() { r.add(Effect{Kind: EffectCorrect}) }

// PlayWrong records the sting.
func (r *Recorder) PlayWrong() { r.add(Effect{Kind: EffectWrong}) }

// StartAmbient records the start.
func (r *Recorder) StartAmbient() { r.add(Effect{Kind: EffectAmbientStart}) }

// StopAmbient records the stop.
func (r *Recorder) StopAmbient() { r.add(Effect{Kind: EffectAmbientStop}) }

// Speak records the text.
func (r *Recorder) Speak(text string) { r.add(Effect{Kind: EffectSpeak, Text: text}) }

// HighScore returns the last saved value.
func (r *Recorder) HighScore(context.Context) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.highScore
}

// SaveHighScore records and stores v.
func (r *Recorder) SaveHighScore(_ context.Context, v int) {
	r.mu.Lock()
	r.highScore = v
	r.mu.Unlock()
	r.add(Effect{Kind: EffectSave, Value: v})
}

// Effects returns a copy of all recorded effects.
func (r *Recorder) Effects() []Effect {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Effect, len(r.effects))
	copy(out, r.effects)
	return out
}

// Count returns how many effects of kind were recorded.
func (r *Recorder) Count(kind string) int {
	n := 0
	for _, e := range r.Effects() {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Spoken returns all spoken texts in order.
func (r *Recorder) Spoken() []string {
	var out []string
	for _, e := range r.Effects() {
		if e.Kind == EffectSpeak {
			out = append(out, e.Text)
		}
	}
	return out
}

// LastNote returns the key of the most recent PlayNote, or "".
func (r *Recorder) LastNote() notes.Key {
	effects := r.Effects()
	for i := len(effects) - 1; i >= 0; i-- {
		if effects[i].Kind == EffectNote {
			return effects[i].Key
		}
	}
	return ""
}

// Reset clears the recorded effects but keeps the stored high score.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.effects = nil
}

var (
	_ Audio      = (*Recorder)(nil)
	_ Ambient    = (*Recorder)(nil)
	_ Speech     = (*Recorder)(nil)
	_ HighScores = (*Recorder)(nil)
)
