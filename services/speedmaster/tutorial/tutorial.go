// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package tutorial walks the player through every note in the catalog.
//
// # Description
//
// The sequence has len(catalog)+2 steps: an intro, one step per note in
// catalog order, and an outro. Each note step names the note, plays it
// after ToneDelay, and waits for the matching key. A correct key plays
// the correct sting and advances after ConfirmPause.
//
// # Thread Safety
//
// Sequencer is NOT safe for concurrent use. Calls and timer callbacks
// must share one goroutine, as with session.Session.
package tutorial

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AleutianAI/speedmaster/services/speedmaster/clock"
	"github.com/AleutianAI/speedmaster/services/speedmaster/gateway"
	"github.com/AleutianAI/speedmaster/services/speedmaster/notes"
)

// Narration lines.
const (
	introText       = "Welcome to the SpeedMaster tutorial! Tap anywhere to begin."
	stepEntryFmt    = "This is the %s note. Listen carefully."
	instructionFmt  = "When you hear this sound, tap the %s button. Try it now."
	affirmationText = "Correct! Well done!"
	outroText       = "Excellent! You've learned all the notes. During the game, " +
		"you'll need to tap the correct button quickly when you hear each note. " +
		"Press Space to start playing or Escape to return to the menu."
)

// ErrInvalidDelay is returned when a configured delay is negative.
var ErrInvalidDelay = errors.New("tutorial delays must not be negative")

// Config holds the tutorial pacing.
type Config struct {
	// ToneDelay is the pause between naming a note and playing it.
	ToneDelay time.Duration

	// ConfirmPause is the pause after a correct key before the next step.
	ConfirmPause time.Duration
}

// DefaultConfig returns 2s tone delay and 1.5s confirm pause.
func DefaultConfig() Config {
	return Config{
		ToneDelay:    2 * time.Second,
		ConfirmPause: 1500 * time.Millisecond,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.ToneDelay < 0 || c.ConfirmPause < 0 {
		return fmt.Errorf("%w: tone %s, confirm %s", ErrInvalidDelay, c.ToneDelay, c.ConfirmPause)
	}
	return nil
}

// State is a snapshot of the tutorial.
type State struct {
	// StepIndex is 0 for the intro, 1..N for notes and N+1 for the outro.
	StepIndex int

	// ExpectedKey is the key being taught; empty on intro and outro.
	ExpectedKey notes.Key

	AwaitingInput bool
	Animating     bool

	// Message is the last narration line.
	Message string
}

// Deps are the collaborators of a Sequencer.
type Deps struct {
	Catalog   notes.Catalog
	Audio     gateway.Audio
	Speech    gateway.Speech
	Scheduler clock.Scheduler
	Logger    *slog.Logger

	// OnChange receives a snapshot after every state change.
	OnChange func(State)

	// OnComplete is called once when the player confirms the outro.
	OnComplete func()

	// OnExit is called once when the player cancels.
	OnExit func()
}

// Sequencer runs one tutorial. Create a new one for every visit.
type Sequencer struct {
	cfg  Config
	deps Deps
	log  *slog.Logger

	state   State
	entered int

	toneTimer    clock.Timer
	advanceTimer clock.Timer

	done bool
}

// New creates a Sequencer. Call Start to enter the intro.
func New(cfg Config, deps Deps) (*Sequencer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Catalog.Len() == 0 {
		return nil, notes.ErrEmptyCatalog
	}
	if deps.Scheduler == nil {
		return nil, fmt.Errorf("tutorial requires a scheduler")
	}
	if deps.Audio == nil {
		deps.Audio = gateway.NoOpAudio{}
	}
	if deps.Speech == nil {
		deps.Speech = gateway.NoOpSpeech{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Sequencer{
		cfg:     cfg,
		deps:    deps,
		log:     deps.Logger.With(slog.String("component", "tutorial")),
		entered: -1,
	}, nil
}

// Start enters the intro step.
func (q *Sequencer) Start() {
	q.enterStep(0)
}

// State returns a snapshot.
func (q *Sequencer) State() State {
	return q.state
}

// Steps returns the total number of steps including intro and outro.
func (q *Sequencer) Steps() int {
	return q.deps.Catalog.Len() + 2
}

func (q *Sequencer) outroIndex() int {
	return q.deps.Catalog.Len() + 1
}

// =============================================================================
// Input
// =============================================================================

// Note handles a catalog key.
func (q *Sequencer) Note(key notes.Key) {
	if q.done {
		return
	}
	switch idx := q.state.StepIndex; {
	case idx == 0:
		q.enterStep(1)
	case idx == q.outroIndex():
		q.log.Debug("note ignored on outro", slog.String("note", key.String()))
	default:
		if !q.state.AwaitingInput || key != q.state.ExpectedKey {
			return
		}
		q.accept()
	}
}

// Confirm handles the confirm command (space or enter).
func (q *Sequencer) Confirm() {
	if q.done {
		return
	}
	switch q.state.StepIndex {
	case 0:
		q.enterStep(1)
	case q.outroIndex():
		q.finish(q.deps.OnComplete)
		q.log.Info("tutorial completed")
	}
}

// Cancel leaves the tutorial from any step.
func (q *Sequencer) Cancel() {
	if q.done {
		return
	}
	q.finish(q.deps.OnExit)
	q.log.Info("tutorial exited", slog.Int("step", q.state.StepIndex))
}

// Close cancels pending timers without calling back. Safe to call more
// than once.
func (q *Sequencer) Close() {
	if q.done {
		return
	}
	q.stopTimers()
	q.done = true
}

// =============================================================================
// Steps
// =============================================================================

// accept handles the expected key on a note step.
func (q *Sequencer) accept() {
	clock.StopTimer(q.toneTimer)
	q.toneTimer = nil

	q.deps.Audio.PlayCorrect()
	q.say(affirmationText)
	q.state.AwaitingInput = false
	q.state.Animating = true
	q.publish()

	next := q.state.StepIndex + 1
	q.advanceTimer = q.deps.Scheduler.AfterFunc(q.cfg.ConfirmPause, func() {
		if q.done {
			return
		}
		q.advanceTimer = nil
		q.state.Animating = false
		q.enterStep(next)
	})
}

// enterStep makes idx the active step. Entering the active step again is
// a no-op, so delayed callbacks are armed once per step.
func (q *Sequencer) enterStep(idx int) {
	if q.done || idx == q.entered {
		return
	}
	q.stopTimers()
	q.entered = idx

	q.state = State{StepIndex: idx}

	switch {
	case idx == 0:
		q.say(introText)
	case idx == q.outroIndex():
		q.say(outroText)
	default:
		note := q.deps.Catalog.At(idx - 1)
		q.state.ExpectedKey = note.Key
		q.state.AwaitingInput = true
		q.say(fmt.Sprintf(stepEntryFmt, note.Name))
		q.toneTimer = q.deps.Scheduler.AfterFunc(q.cfg.ToneDelay, func() {
			if q.done || q.entered != idx {
				return
			}
			q.toneTimer = nil
			q.deps.Audio.PlayNote(note)
			q.say(fmt.Sprintf(instructionFmt, note.Key))
			q.publish()
		})
	}

	q.log.Debug("tutorial step", slog.Int("step", idx), slog.String("note", q.state.ExpectedKey.String()))
	q.publish()
}

func (q *Sequencer) finish(cb func()) {
	q.stopTimers()
	q.done = true
	if cb != nil {
		cb()
	}
}

func (q *Sequencer) stopTimers() {
	clock.StopTimer(q.toneTimer)
	clock.StopTimer(q.advanceTimer)
	q.toneTimer = nil
	q.advanceTimer = nil
}

func (q *Sequencer) say(text string) {
	q.state.Message = text
	q.deps.Speech.Speak(text)
}

func (q *Sequencer) publish() {
	if q.deps.OnChange != nil {
		q.deps.OnChange(q.state)
	}
}
