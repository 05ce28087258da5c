// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package app wires the game session and the tutorial together and routes
// player input to whichever of them owns the current screen.
//
// # Description
//
// Game is the composition root used by every front end. It normalizes
// key and pointer activations, forwards them to the session or the
// tutorial, creates a fresh tutorial sequencer on every visit and
// publishes a combined View after every change.
//
// # Thread Safety
//
// Game is NOT safe for concurrent use; see session.Session.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AleutianAI/speedmaster/services/speedmaster/clock"
	"github.com/AleutianAI/speedmaster/services/speedmaster/gateway"
	"github.com/AleutianAI/speedmaster/services/speedmaster/session"
	"github.com/AleutianAI/speedmaster/services/speedmaster/tutorial"
)

// Config combines the session and tutorial configuration.
type Config struct {
	Session  session.Config
	Tutorial tutorial.Config
}

// DefaultConfig returns the standard game and tutorial pacing.
func DefaultConfig() Config {
	return Config{
		Session:  session.DefaultConfig(),
		Tutorial: tutorial.DefaultConfig(),
	}
}

// Deps are the collaborators shared by the session and the tutorial.
type Deps struct {
	Audio     gateway.Audio
	Ambient   gateway.Ambient
	Speech    gateway.Speech
	Scores    gateway.HighScores
	Scheduler clock.Scheduler
	Rand      session.Rand
	Logger    *slog.Logger
	Metrics   session.Metrics

	// OnChange receives a View after every state change.
	OnChange func(View)
}

// View is what a front end renders.
type View struct {
	Game session.State

	// Tutorial is nil unless the tutorial screen is active.
	Tutorial *tutorial.State
}

// Game owns one session and at most one live tutorial.
type Game struct {
	cfg  Config
	deps Deps
	log  *slog.Logger

	session  *session.Session
	tutorial *tutorial.Sequencer
}

// New builds the session and returns a Game on the menu screen.
//
// # Inputs
//
//   - ctx: Used for high-score persistence for the lifetime of the game.
//   - cfg: Session and tutorial configuration.
//   - deps: Collaborators; Scheduler is required.
//
// # Outputs
//
//   - *Game: Call Start to announce the menu.
//   - error: Non-nil if either configuration is invalid.
func New(ctx context.Context, cfg Config, deps Deps) (*Game, error) {
	if err := cfg.Tutorial.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tutorial config: %w", err)
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	g := &Game{
		cfg:  cfg,
		deps: deps,
		log:  deps.Logger.With(slog.String("component", "app")),
	}
	s, err := session.New(ctx, cfg.Session, session.Deps{
		Audio:     deps.Audio,
		Ambient:   deps.Ambient,
		Speech:    deps.Speech,
		Scores:    deps.Scores,
		Scheduler: deps.Scheduler,
		Rand:      deps.Rand,
		Logger:    deps.Logger,
		Metrics:   deps.Metrics,
		OnChange:  func(session.State) { g.emit() },
	})
	if err != nil {
		return nil, err
	}
	g.session = s
	return g, nil
}

// Start announces the menu.
func (g *Game) Start() {
	g.session.AnnounceMenu()
	g.emit()
}

// View returns the current view.
func (g *Game) View() View {
	v := View{Game: g.session.State()}
	if g.tutorial != nil {
		st := g.tutorial.State()
		v.Tutorial = &st
	}
	return v
}

// Now returns the scheduler time, for drawing countdowns.
func (g *Game) Now() time.Time {
	return g.deps.Scheduler.Now()
}

// Config returns the game configuration.
func (g *Game) Config() Config {
	return g.cfg
}

// KeyActivation handles a keyboard identifier.
func (g *Game) KeyActivation(id string) {
	g.Dispatch(NormalizeKey(id, g.cfg.Session.Catalog))
}

// PointerActivation handles a pointer target identifier.
func (g *Game) PointerActivation(id string) {
	g.Dispatch(NormalizePointer(id, g.cfg.Session.Catalog))
}

// Dispatch routes a normalized input to the owner of the current screen.
// Inputs with no meaning on that screen are dropped.
func (g *Game) Dispatch(in Input) {
	if in.IsZero() {
		return
	}
	switch screen := g.session.State().Screen; screen {
	case session.ScreenMenu:
		switch in.Command {
		case CmdConfirm:
			g.session.StartGame()
		case CmdTutorial:
			g.enterTutorial()
		}

	case session.ScreenTutorial:
		if g.tutorial == nil {
			return
		}
		switch {
		case in.Command == CmdCancel:
			g.tutorial.Cancel()
		case in.Key != "":
			g.tutorial.Note(in.Key)
		case in.Command == CmdConfirm:
			g.tutorial.Confirm()
		case in.Command == CmdTap:
			// A background tap only begins the tutorial; the outro needs
			// an explicit confirm.
			if g.tutorial.State().StepIndex == 0 {
				g.tutorial.Confirm()
			}
		}

	case session.ScreenGame:
		if in.Key != "" {
			g.session.Press(in.Key)
		}

	case session.ScreenGameOver:
		switch in.Command {
		case CmdConfirm:
			g.session.StartGame()
		case CmdCancel:
			g.session.ExitToMenu()
		}
	}
}

// enterTutorial switches screens and starts a fresh sequencer.
func (g *Game) enterTutorial() {
	if !g.session.EnterTutorial() {
		return
	}
	seq, err := tutorial.New(g.cfg.Tutorial, tutorial.Deps{
		Catalog:    g.cfg.Session.Catalog,
		Audio:      g.deps.Audio,
		Speech:     g.deps.Speech,
		Scheduler:  g.deps.Scheduler,
		Logger:     g.deps.Logger,
		OnChange:   func(tutorial.State) { g.emit() },
		OnComplete: g.tutorialCompleted,
		OnExit:     g.tutorialExited,
	})
	if err != nil {
		// Both configurations were validated in New.
		g.log.Error("tutorial unavailable", slog.String("error", err.Error()))
		g.session.ExitToMenu()
		return
	}
	g.tutorial = seq
	seq.Start()
}

func (g *Game) tutorialCompleted() {
	g.tutorial = nil
	g.session.CompleteTutorial()
}

func (g *Game) tutorialExited() {
	g.tutorial = nil
	g.session.ExitToMenu()
}

// Close tears down the tutorial and the session.
func (g *Game) Close() {
	if g.tutorial != nil {
		g.tutorial.Close()
		g.tutorial = nil
	}
	g.session.Close()
}

func (g *Game) emit() {
	if g.deps.OnChange != nil {
		g.deps.OnChange(g.View())
	}
}
