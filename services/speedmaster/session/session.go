// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package session implements the game progression state machine.
//
// # Description
//
// A Session owns the screen, score, level, response window and the active
// note. It drives the loop
//
//	advanceToNextNote -> await press -> correct (score, advance) | miss (game over)
//
// and calls out to gateways for every side effect.
//
// # Screens
//
//	menu --StartGame--> game
//	menu --EnterTutorial--> tutorial
//	tutorial --CompleteTutorial--> game
//	tutorial --ExitToMenu--> menu
//	game --timeout | wrong key--> gameover
//	gameover --StartGame--> game
//	gameover --ExitToMenu--> menu
//
// Requests that do not match a listed transition are ignored.
//
// # Thread Safety
//
// Session is NOT safe for concurrent use. Every method, and every timer
// callback armed through the Scheduler, must run on the same goroutine.
// clock.Dispatcher provides that guarantee for the interactive program.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/speedmaster/services/speedmaster/clock"
	"github.com/AleutianAI/speedmaster/services/speedmaster/gateway"
	"github.com/AleutianAI/speedmaster/services/speedmaster/notes"
)

// Rand draws uniform integers in [0, n).
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Deps are the collaborators of a Session. Nil fields get safe defaults.
type Deps struct {
	Audio   gateway.Audio
	Ambient gateway.Ambient
	Speech  gateway.Speech
	Scores  gateway.HighScores

	// Scheduler arms the countdown. Required.
	Scheduler clock.Scheduler

	// Rand picks notes and encouragements. Defaults to math/rand/v2.
	Rand Rand

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Metrics defaults to NoOpMetrics.
	Metrics Metrics

	// Tracer opens one span per run. Defaults to the global provider,
	// which is a no-op until one is installed.
	Tracer trace.Tracer

	// OnChange receives a snapshot after every transition.
	OnChange func(State)
}

// Session is the game state machine.
type Session struct {
	ctx  context.Context
	cfg  Config
	deps Deps
	log  *slog.Logger

	state State

	// countdown is the single outstanding timeout for the active note.
	countdown clock.Timer
	// noteSeq increments for every note; a timeout only applies to the
	// note it was armed for.
	noteSeq     uint64
	noteShownAt time.Time

	// announcedLevel is the highest level announced this run.
	announcedLevel int

	// runSpan covers the current run; nil outside a run.
	runSpan trace.Span

	closed bool
}

// New creates a Session on the menu screen with the stored high score.
//
// # Inputs
//
//   - ctx: Parent of run spans and persistence calls. Saves outlive its
//     cancellation so Close after a signal still records the score.
//   - cfg: Game configuration; validated.
//   - deps: Collaborators; Scheduler is required.
//
// # Outputs
//
//   - *Session: Ready on the menu screen. Call AnnounceMenu to narrate it.
//   - error: Non-nil if cfg is invalid or Scheduler is missing.
func New(ctx context.Context, cfg Config, deps Deps) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session config: %w", err)
	}
	if deps.Scheduler == nil {
		return nil, fmt.Errorf("session requires a scheduler")
	}
	if deps.Audio == nil {
		deps.Audio = gateway.NoOpAudio{}
	}
	if deps.Ambient == nil {
		deps.Ambient = gateway.NoOpAudio{}
	}
	if deps.Speech == nil {
		deps.Speech = gateway.NoOpSpeech{}
	}
	if deps.Scores == nil {
		deps.Scores = &gateway.MemoryHighScores{}
	}
	if deps.Rand == nil {
		deps.Rand = globalRand{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Metrics == nil {
		deps.Metrics = NoOpMetrics{}
	}
	if deps.Tracer == nil {
		deps.Tracer = otel.Tracer("speedmaster.session")
	}

	s := &Session{
		ctx:  ctx,
		cfg:  cfg,
		deps: deps,
		log:  deps.Logger.With(slog.String("component", "session")),
	}
	s.state = State{
		Level:      1,
		TimeWindow: cfg.Difficulty.InitialTimeWindow,
		Screen:     ScreenMenu,
		HighScore:  max(0, deps.Scores.HighScore(ctx)),
	}
	deps.Metrics.HighScore(s.state.HighScore)
	return s, nil
}

// State returns a snapshot of the current state.
func (s *Session) State() State {
	return s.state.clone()
}

// Config returns the session configuration.
func (s *Session) Config() Config {
	return s.cfg
}

// =============================================================================
// Screen transitions
// =============================================================================

// AnnounceMenu narrates the menu. Call once after New and it is also
// called on every return to the menu.
func (s *Session) AnnounceMenu() {
	if s.closed || s.state.Screen != ScreenMenu {
		return
	}
	s.deps.Speech.Speak(fmt.Sprintf(
		"Welcome to SpeedMaster! Your high score is %d points. "+
			"Press the Space bar to start a new game. "+
			"Press T to start the tutorial and learn how to play.",
		s.state.HighScore))
}

// StartGame begins a fresh run from the menu, the tutorial or game over.
func (s *Session) StartGame() {
	if s.closed {
		return
	}
	switch s.state.Screen {
	case ScreenMenu, ScreenTutorial, ScreenGameOver:
	default:
		s.log.Debug("start ignored", slog.String("screen", string(s.state.Screen)))
		return
	}
	s.reset()
}

// CompleteTutorial starts a run once the tutorial finishes.
func (s *Session) CompleteTutorial() {
	if s.closed || s.state.Screen != ScreenTutorial {
		return
	}
	s.reset()
}

// EnterTutorial switches from the menu to the tutorial.
func (s *Session) EnterTutorial() bool {
	if s.closed || s.state.Screen != ScreenMenu {
		return false
	}
	s.state.Screen = ScreenTutorial
	s.log.Info("tutorial entered")
	s.publish()
	return true
}

// ExitToMenu returns to the menu from the tutorial or game over.
func (s *Session) ExitToMenu() {
	if s.closed {
		return
	}
	switch s.state.Screen {
	case ScreenTutorial, ScreenGameOver:
	default:
		s.log.Debug("exit ignored", slog.String("screen", string(s.state.Screen)))
		return
	}
	s.state.Screen = ScreenMenu
	s.publish()
	s.AnnounceMenu()
}

// reset starts a run: score 0, level 1, initial window, no note.
func (s *Session) reset() {
	s.cancelCountdown()

	s.announcedLevel = 1
	s.state.Score = 0
	s.state.Level = 1
	s.state.TimeWindow = s.cfg.Difficulty.InitialTimeWindow
	s.state.CurrentNote = nil
	s.state.NoteDeadline = time.Time{}
	s.state.IsPlaying = true
	s.state.Screen = ScreenGame
	s.state.RunID = uuid.NewString()

	s.endRunSpan()
	_, s.runSpan = s.deps.Tracer.Start(s.ctx, "Session.run",
		trace.WithAttributes(attribute.String("run_id", s.state.RunID)),
	)

	s.deps.Ambient.StartAmbient()
	s.deps.Metrics.GameStarted()
	s.log.Info("run started", slog.String("run_id", s.state.RunID))

	s.publish()
	s.advanceToNextNote()
}

// =============================================================================
// Note loop
// =============================================================================

// advanceToNextNote draws a note and arms its countdown when the run has
// no active challenge. It is a no-op otherwise.
func (s *Session) advanceToNextNote() {
	if s.closed || s.state.Screen != ScreenGame || !s.state.IsPlaying || s.state.CurrentNote != nil {
		return
	}

	note := s.cfg.Catalog.At(s.deps.Rand.IntN(s.cfg.Catalog.Len()))

	s.cancelCountdown()
	s.noteSeq++
	seq := s.noteSeq
	window := s.state.TimeWindow

	s.noteShownAt = s.deps.Scheduler.Now()
	s.state.CurrentNote = &note
	s.state.NoteDeadline = s.noteShownAt.Add(window)
	s.countdown = s.deps.Scheduler.AfterFunc(window, func() { s.onTimeout(seq) })

	s.deps.Audio.PlayNote(note)
	s.deps.Metrics.NotePresented(note.Key)
	s.runEvent("note_presented",
		attribute.String("note", note.Key.String()),
		attribute.Int64("window_ms", window.Milliseconds()),
	)
	s.log.Debug("note presented",
		slog.String("run_id", s.state.RunID),
		slog.String("note", note.Key.String()),
		slog.Duration("window", window),
	)
	s.publish()
}

// Press resolves a key press against the active note.
//
// Presses outside an active challenge are ignored and return
// OutcomeIgnored without changing state.
func (s *Session) Press(key notes.Key) Outcome {
	if s.closed || s.state.Screen != ScreenGame || !s.state.IsPlaying || s.state.CurrentNote == nil {
		return OutcomeIgnored
	}
	if key != s.state.CurrentNote.Key {
		s.endGame(MissWrongKey)
		return OutcomeWrong
	}
	s.scoreHit()
	return OutcomeCorrect
}

// scoreHit applies a correct press. The countdown is cancelled before any
// state changes so the timeout can never fire for this note.
func (s *Session) scoreHit() {
	s.cancelCountdown()
	hit := *s.state.CurrentNote
	reaction := s.deps.Scheduler.Now().Sub(s.noteShownAt)

	s.deps.Audio.PlayCorrect()

	newScore := s.state.Score + s.cfg.PointsPerNote
	newLevel := s.cfg.Difficulty.LevelForScore(newScore)
	newWindow := s.cfg.Difficulty.TimeWindowForLevel(newLevel)

	if newLevel > s.announcedLevel {
		s.deps.Speech.Speak(fmt.Sprintf("Level %d! Speed increased!", newLevel))
		s.announcedLevel = newLevel
		s.log.Info("level up",
			slog.String("run_id", s.state.RunID),
			slog.Int("level", newLevel),
			slog.Duration("window", newWindow),
		)
	}
	if s.cfg.EncouragementInterval > 0 && newScore%s.cfg.EncouragementInterval == 0 && len(s.cfg.Encouragements) > 0 {
		s.deps.Speech.Speak(s.cfg.Encouragements[s.deps.Rand.IntN(len(s.cfg.Encouragements))])
	}

	s.state.Score = newScore
	s.state.Level = newLevel
	s.state.TimeWindow = newWindow
	s.state.HighScore = max(s.state.HighScore, newScore)
	s.state.CurrentNote = nil
	s.state.NoteDeadline = time.Time{}

	s.deps.Metrics.NoteHit(hit.Key, reaction, newLevel)
	s.runEvent("note_hit",
		attribute.String("note", hit.Key.String()),
		attribute.Int64("reaction_ms", reaction.Milliseconds()),
		attribute.Int("score", newScore),
		attribute.Int("level", newLevel),
	)
	s.publish()
	s.advanceToNextNote()
}

// onTimeout is the countdown callback for note seq.
func (s *Session) onTimeout(seq uint64) {
	if seq != s.noteSeq || s.state.CurrentNote == nil {
		s.log.Debug("stale timeout ignored", slog.Uint64("seq", seq))
		return
	}
	s.countdown = nil
	s.endGame(MissTimeout)
}

// endGame moves to game over and persists the high score.
func (s *Session) endGame(reason MissReason) {
	s.cancelCountdown()

	missed := notes.Key("")
	if s.state.CurrentNote != nil {
		missed = s.state.CurrentNote.Key
	}

	s.deps.Audio.PlayWrong()
	s.deps.Ambient.StopAmbient()

	high := max(s.state.Score, s.state.HighScore)
	s.deps.Scores.SaveHighScore(s.persistCtx(), high)

	s.state.HighScore = high
	s.state.IsPlaying = false
	s.state.Screen = ScreenGameOver
	s.state.CurrentNote = nil
	s.state.NoteDeadline = time.Time{}

	s.deps.Metrics.NoteMissed(missed, reason)
	s.deps.Metrics.GameOver(s.state.Score, s.state.Level)
	s.deps.Metrics.HighScore(high)
	s.runEvent("note_missed",
		attribute.String("note", missed.String()),
		attribute.String("reason", string(reason)),
	)
	if s.runSpan != nil {
		s.runSpan.SetAttributes(
			attribute.Int("score", s.state.Score),
			attribute.Int("level", s.state.Level),
			attribute.Int("high_score", high),
		)
	}
	s.endRunSpan()
	s.log.Info("run ended",
		slog.String("run_id", s.state.RunID),
		slog.String("reason", string(reason)),
		slog.Int("score", s.state.Score),
		slog.Int("level", s.state.Level),
		slog.Int("high_score", high),
	)

	s.publish()
	s.deps.Speech.Speak(fmt.Sprintf(
		"Game Over! Your score is %d points. Your high score is %d points. "+
			"Press Space bar to play again, or Escape to return to the main menu.",
		s.state.Score, high))
}

// persistCtx carries the run span but not the cancellation of the
// session context, so a save during shutdown still commits.
func (s *Session) persistCtx() context.Context {
	ctx := context.WithoutCancel(s.ctx)
	if s.runSpan != nil {
		ctx = trace.ContextWithSpan(ctx, s.runSpan)
	}
	return ctx
}

func (s *Session) runEvent(name string, attrs ...attribute.KeyValue) {
	if s.runSpan != nil {
		s.runSpan.AddEvent(name, trace.WithAttributes(attrs...))
	}
}

func (s *Session) endRunSpan() {
	if s.runSpan != nil {
		s.runSpan.End()
		s.runSpan = nil
	}
}

// cancelCountdown stops the outstanding countdown, if any.
func (s *Session) cancelCountdown() {
	clock.StopTimer(s.countdown)
	s.countdown = nil
}

// =============================================================================
// Lifecycle
// =============================================================================

// Close tears the session down from any screen: the countdown is
// cancelled, ambient audio stops and an unsaved high score from an
// interrupted run is persisted. Safe to call more than once.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.cancelCountdown()
	s.deps.Ambient.StopAmbient()

	if s.state.IsPlaying && s.state.Score > 0 && s.state.Score >= s.state.HighScore {
		s.deps.Scores.SaveHighScore(s.persistCtx(), s.state.Score)
	}
	s.runEvent("closed", attribute.Int("score", s.state.Score))
	s.endRunSpan()

	s.state.IsPlaying = false
	s.state.CurrentNote = nil
	s.state.NoteDeadline = time.Time{}
	s.closed = true
	s.log.Info("session closed")
}

func (s *Session) publish() {
	if s.deps.OnChange != nil {
		s.deps.OnChange(s.state.clone())
	}
}
