// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/speedmaster/services/speedmaster/app"
	"github.com/AleutianAI/speedmaster/services/speedmaster/clock"
	"github.com/AleutianAI/speedmaster/services/speedmaster/gateway"
	"github.com/AleutianAI/speedmaster/services/speedmaster/notes"
	"github.com/AleutianAI/speedmaster/services/speedmaster/session"
	"github.com/AleutianAI/speedmaster/services/speedmaster/tutorial"
)

type firstRand struct{}

func (firstRand) IntN(int) int { return 0 }

func newTestModel(t *testing.T) (Model, *clock.Manual, *gateway.Recorder) {
	t.Helper()
	clk := clock.NewManual(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	rec := gateway.NewRecorder()
	g, err := app.New(context.Background(), app.DefaultConfig(), app.Deps{
		Audio:     rec,
		Ambient:   rec,
		Speech:    rec,
		Scores:    rec,
		Scheduler: clk,
		Rand:      firstRand{},
	})
	require.NoError(t, err)
	t.Cleanup(g.Close)

	m := NewModel(g)
	m = update(t, m, startMsg{})
	return m, clk, rec
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func click(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
}

// buttonCenter returns a point inside the i-th button.
func buttonCenter(i int) (int, int) {
	return i*(buttonWidth+buttonGap) + buttonWidth/2, buttonRowTop + 1
}

func TestModel_StartAnnouncesMenu(t *testing.T) {
	m, _, rec := newTestModel(t)
	assert.Equal(t, session.ScreenMenu, m.game.View().Game.Screen)
	require.Len(t, rec.Spoken(), 1)
	assert.Contains(t, m.View(), "Start")
}

func TestModel_SpaceStartsAndKeysPlay(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = update(t, m, tea.KeyMsg{Type: tea.KeySpace})
	v := m.game.View().Game
	require.Equal(t, session.ScreenGame, v.Screen)
	require.NotNil(t, v.CurrentNote)
	assert.Equal(t, notes.Key("A"), v.CurrentNote.Key)

	m = update(t, m, runeKey('a'))
	assert.Equal(t, 10, m.game.View().Game.Score)
	assert.Contains(t, m.View(), "Score 10")
}

func TestModel_CallbackRunsOnLoop(t *testing.T) {
	m, _, _ := newTestModel(t)
	ran := false
	m = update(t, m, callbackMsg{fn: func() { ran = true }})
	assert.True(t, ran)
}

func TestModel_TimeoutEndsRun(t *testing.T) {
	m, clk, _ := newTestModel(t)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	clk.Advance(3 * time.Second)
	assert.Equal(t, session.ScreenGameOver, m.game.View().Game.Screen)
	assert.Contains(t, m.View(), "Game over")
}

func TestModel_CountdownShrinks(t *testing.T) {
	m, clk, _ := newTestModel(t)
	m = update(t, m, tea.KeyMsg{Type: tea.KeySpace})
	full := m.renderCountdown(m.game.View())
	require.NotEmpty(t, full)

	clk.Advance(1500 * time.Millisecond)
	half := m.renderCountdown(m.game.View())
	assert.NotEqual(t, full, half)
}

func TestModel_MouseStartsAndPlaysNotes(t *testing.T) {
	m, _, rec := newTestModel(t)

	x, y := buttonCenter(0)
	m = update(t, m, click(x, y))
	require.Equal(t, session.ScreenGame, m.game.View().Game.Screen)

	// Buttons follow catalog order, so "A" is first.
	m = update(t, m, click(x, y))
	assert.Equal(t, 10, m.game.View().Game.Score)
	assert.Equal(t, 1, rec.Count(gateway.EffectCorrect))
}

func TestModel_MouseReleaseIgnored(t *testing.T) {
	m, _, _ := newTestModel(t)
	x, y := buttonCenter(0)
	m = update(t, m, tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	assert.Equal(t, session.ScreenMenu, m.game.View().Game.Screen)
}

func TestModel_MouseTutorialFlow(t *testing.T) {
	m, _, _ := newTestModel(t)

	x, y := buttonCenter(1)
	m = update(t, m, click(x, y))
	view := m.game.View()
	require.Equal(t, session.ScreenTutorial, view.Game.Screen)
	require.NotNil(t, view.Tutorial)
	assert.Equal(t, 0, view.Tutorial.StepIndex)

	// A background click advances the intro.
	m = update(t, m, click(200, 0))
	assert.Equal(t, 1, m.game.View().Tutorial.StepIndex)

	// Menu button sits after the five note buttons.
	x, y = buttonCenter(5)
	m = update(t, m, click(x, y))
	assert.Equal(t, session.ScreenMenu, m.game.View().Game.Screen)
	assert.Nil(t, m.game.View().Tutorial)
}

func TestModel_QuitClosesGame(t *testing.T) {
	m, _, rec := newTestModel(t)
	m = update(t, m, tea.KeyMsg{Type: tea.KeySpace})

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, 1, rec.Count(gateway.EffectAmbientStop))
	assert.Contains(t, next.View(), "Thanks for playing")
}

func TestModel_WindowSize(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	assert.Equal(t, 100, m.width)
	assert.Equal(t, 100, m.help.Width)
}

func TestHitTest(t *testing.T) {
	buttons := []button{{id: "start"}, {id: "tutorial"}}
	stride := buttonWidth + buttonGap

	tests := []struct {
		name string
		x, y int
		want string
	}{
		{"first button", 1, buttonRowTop, "start"},
		{"first button bottom", buttonWidth - 1, buttonRowTop + buttonHeight - 1, "start"},
		{"gap", buttonWidth, buttonRowTop + 1, app.PointerBackground},
		{"second button", stride, buttonRowTop + 1, "tutorial"},
		{"past last", 2 * stride, buttonRowTop + 1, app.PointerBackground},
		{"above row", 1, buttonRowTop - 1, app.PointerBackground},
		{"below row", 1, buttonRowTop + buttonHeight, app.PointerBackground},
		{"negative", -1, buttonRowTop, app.PointerBackground},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, hitTest(buttons, tt.x, tt.y))
		})
	}
}

func TestButtonsFor_TutorialSteps(t *testing.T) {
	cat := notes.Default()
	menu := app.View{Game: session.State{Screen: session.ScreenMenu}}
	assert.Len(t, buttonsFor(menu, cat), 2)

	tut := app.View{Game: session.State{Screen: session.ScreenTutorial}}
	assert.Nil(t, buttonsFor(tut, cat))

	tut.Tutorial = &tutorial.State{StepIndex: 2, ExpectedKey: "S"}
	got := buttonsFor(tut, cat)
	require.Len(t, got, cat.Len()+1)
	assert.True(t, got[1].active)
	assert.False(t, got[0].active)

	tut.Tutorial = &tutorial.State{StepIndex: cat.Len() + 1}
	got = buttonsFor(tut, cat)
	require.Len(t, got, 2)
	assert.Equal(t, app.PointerStart, got[0].id)
}

func TestRun_BuildError(t *testing.T) {
	boom := errors.New("boom")
	err := Run(context.Background(), func(clock.Scheduler) (*app.Game, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
}
