// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/speedmaster/services/speedmaster/clock"
	"github.com/AleutianAI/speedmaster/services/speedmaster/gateway"
	"github.com/AleutianAI/speedmaster/services/speedmaster/notes"
	"github.com/AleutianAI/speedmaster/services/speedmaster/session"
	"github.com/AleutianAI/speedmaster/services/speedmaster/tutorial"
)

type firstRand struct{}

func (firstRand) IntN(int) int { return 0 }

func newTestGame(t *testing.T) (*Game, *clock.Manual, *gateway.Recorder, *[]View) {
	t.Helper()
	clk := clock.NewManual(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	rec := gateway.NewRecorder()
	var views []View
	g, err := New(context.Background(), DefaultConfig(), Deps{
		Audio:     rec,
		Ambient:   rec,
		Speech:    rec,
		Scores:    rec,
		Scheduler: clk,
		Rand:      firstRand{},
		OnChange:  func(v View) { views = append(views, v) },
	})
	require.NoError(t, err)
	return g, clk, rec, &views
}

func TestNormalizeKey(t *testing.T) {
	cat := notes.Default()
	tests := []struct {
		id   string
		want Input
	}{
		{"a", Input{Key: "A"}},
		{"G", Input{Key: "G"}},
		{" ", Input{Command: CmdConfirm}},
		{"space", Input{Command: CmdConfirm}},
		{"enter", Input{Command: CmdConfirm}},
		{"esc", Input{Command: CmdCancel}},
		{"t", Input{Command: CmdTutorial}},
		{"T", Input{Command: CmdTutorial}},
		{"q", Input{}},
		{"shift", Input{}},
		{"", Input{}},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeKey(tt.id, cat))
		})
	}
}

func TestNormalizeKey_CatalogKeyDoublesAsShortcut(t *testing.T) {
	cat, err := notes.NewCatalog([]notes.Note{
		{Key: "T", Frequency: 440, Color: notes.MustRGB("#FFFFFF")},
	})
	require.NoError(t, err)
	assert.Equal(t, Input{Command: CmdTutorial, Key: "T"}, NormalizeKey("t", cat))
}

func TestNormalizePointer(t *testing.T) {
	cat := notes.Default()
	assert.Equal(t, Input{Key: "D"}, NormalizePointer("D", cat))
	assert.Equal(t, Input{Command: CmdConfirm}, NormalizePointer(PointerStart, cat))
	assert.Equal(t, Input{Command: CmdConfirm}, NormalizePointer(PointerRestart, cat))
	assert.Equal(t, Input{Command: CmdTutorial}, NormalizePointer(PointerTutorial, cat))
	assert.Equal(t, Input{Command: CmdCancel}, NormalizePointer(PointerMenu, cat))
	assert.Equal(t, Input{Command: CmdTap}, NormalizePointer(PointerBackground, cat))
	assert.True(t, NormalizePointer("nowhere", cat).IsZero())
}

func TestGame_MenuSpaceStartsRun(t *testing.T) {
	g, _, rec, _ := newTestGame(t)
	g.Start()
	require.Len(t, rec.Spoken(), 1)

	g.KeyActivation("space")
	v := g.View()
	assert.Equal(t, session.ScreenGame, v.Game.Screen)
	require.NotNil(t, v.Game.CurrentNote)
	assert.Nil(t, v.Tutorial)
}

func TestGame_NonCatalogKeysDoNotEndRun(t *testing.T) {
	g, _, _, _ := newTestGame(t)
	g.KeyActivation("space")

	g.KeyActivation("shift")
	g.KeyActivation("esc")
	g.KeyActivation("t")
	assert.Equal(t, session.ScreenGame, g.View().Game.Screen)

	g.KeyActivation("a")
	assert.Equal(t, 10, g.View().Game.Score)

	g.KeyActivation("s")
	assert.Equal(t, session.ScreenGameOver, g.View().Game.Screen)
}

func TestGame_PointerPlaysNotes(t *testing.T) {
	g, _, _, _ := newTestGame(t)
	g.PointerActivation(PointerStart)
	g.PointerActivation("A")
	assert.Equal(t, 10, g.View().Game.Score)
}

func TestGame_GameOverRouting(t *testing.T) {
	g, clk, _, _ := newTestGame(t)
	g.KeyActivation("enter")
	clk.Advance(3 * time.Second)
	require.Equal(t, session.ScreenGameOver, g.View().Game.Screen)

	g.KeyActivation("a")
	assert.Equal(t, session.ScreenGameOver, g.View().Game.Screen)

	g.KeyActivation("space")
	assert.Equal(t, session.ScreenGame, g.View().Game.Screen)

	clk.Advance(3 * time.Second)
	g.KeyActivation("esc")
	assert.Equal(t, session.ScreenMenu, g.View().Game.Screen)
}

func TestGame_TutorialCompletesIntoRun(t *testing.T) {
	g, clk, _, views := newTestGame(t)
	g.KeyActivation("t")

	v := g.View()
	require.Equal(t, session.ScreenTutorial, v.Game.Screen)
	require.NotNil(t, v.Tutorial)
	assert.Equal(t, 0, v.Tutorial.StepIndex)

	g.PointerActivation(PointerBackground)
	for _, k := range notes.Default().Keys() {
		clk.Advance(2 * time.Second)
		g.KeyActivation(string(k))
		clk.Advance(1500 * time.Millisecond)
	}
	require.Equal(t, 6, g.View().Tutorial.StepIndex)

	g.KeyActivation("space")
	v = g.View()
	assert.Equal(t, session.ScreenGame, v.Game.Screen)
	assert.Nil(t, v.Tutorial)
	assert.NotNil(t, v.Game.CurrentNote)
	assert.NotEmpty(t, *views)
}

func TestGame_TutorialBackgroundTapOnlyBegins(t *testing.T) {
	g, clk, _, _ := newTestGame(t)
	g.KeyActivation("t")
	g.PointerActivation(PointerBackground)
	require.Equal(t, 1, g.View().Tutorial.StepIndex)

	clk.Advance(2 * time.Second)
	g.PointerActivation(PointerBackground)
	assert.Equal(t, 1, g.View().Tutorial.StepIndex, "tap does not answer a note step")

	for _, k := range notes.Default().Keys() {
		clk.Advance(2 * time.Second)
		g.KeyActivation(string(k))
		clk.Advance(1500 * time.Millisecond)
	}
	require.Equal(t, 6, g.View().Tutorial.StepIndex)

	g.PointerActivation(PointerBackground)
	v := g.View()
	assert.Equal(t, session.ScreenTutorial, v.Game.Screen, "stray tap on the outro does not start a run")
	require.NotNil(t, v.Tutorial)
	assert.Equal(t, 6, v.Tutorial.StepIndex)

	g.PointerActivation(PointerStart)
	assert.Equal(t, session.ScreenGame, g.View().Game.Screen)
}

func TestGame_TutorialCancelReturnsToMenu(t *testing.T) {
	g, clk, rec, _ := newTestGame(t)
	g.KeyActivation("t")
	g.KeyActivation("space")
	g.KeyActivation("esc")

	v := g.View()
	assert.Equal(t, session.ScreenMenu, v.Game.Screen)
	assert.Nil(t, v.Tutorial)

	rec.Reset()
	clk.Advance(10 * time.Second)
	assert.Empty(t, rec.Effects(), "tutorial timers cancelled")

	g.KeyActivation("t")
	require.NotNil(t, g.View().Tutorial)
	assert.Equal(t, 0, g.View().Tutorial.StepIndex, "fresh tutorial on every visit")
}

func TestGame_CloseDuringTutorial(t *testing.T) {
	g, clk, rec, _ := newTestGame(t)
	g.KeyActivation("t")
	g.KeyActivation("space")
	g.Close()

	rec.Reset()
	clk.Advance(10 * time.Second)
	assert.Equal(t, 0, rec.Count(gateway.EffectNote))
	assert.Equal(t, 0, clk.Pending())
}

func TestNew_RejectsInvalidTutorialConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tutorial = tutorial.Config{ToneDelay: -1}
	_, err := New(context.Background(), cfg, Deps{Scheduler: clock.NewManual(time.Now())})
	assert.ErrorIs(t, err, tutorial.ErrInvalidDelay)
}
