// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package tui is the terminal front end of SpeedMaster.
//
// # Description
//
// The bubbletea event loop is the single goroutine that owns the game.
// Key presses, mouse clicks and timer callbacks all arrive as messages
// and are applied to the app.Game inside Update.
//
// # Thread Safety
//
// Model is designed for single-threaded use within the bubbletea event
// loop. Timer callbacks reach it only through Program.Send.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/AleutianAI/speedmaster/services/speedmaster/app"
	"github.com/AleutianAI/speedmaster/services/speedmaster/session"
)

// frameInterval is the countdown bar refresh rate.
const frameInterval = 50 * time.Millisecond

// =============================================================================
// Messages
// =============================================================================

// callbackMsg carries a timer callback onto the event loop.
type callbackMsg struct {
	fn func()
}

// startMsg announces the menu once the program is running.
type startMsg struct{}

// frameMsg redraws the countdown.
type frameMsg time.Time

func frame() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return frameMsg(t) })
}

// =============================================================================
// Key bindings
// =============================================================================

type keyMap struct {
	Start    key.Binding
	Tutorial key.Binding
	Back     key.Binding
	Notes    key.Binding
	Quit     key.Binding
}

func newKeyMap(g *app.Game) keyMap {
	var keys, labels []string
	for _, k := range g.Config().Session.Catalog.Keys() {
		keys = append(keys, strings.ToLower(k.String()))
		labels = append(labels, k.String())
	}
	return keyMap{
		Start:    key.NewBinding(key.WithKeys(" ", "space", "enter"), key.WithHelp("space", "start")),
		Tutorial: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "tutorial")),
		Back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "menu")),
		Notes:    key.NewBinding(key.WithKeys(keys...), key.WithHelp(strings.Join(labels, " "), "play note")),
		Quit:     key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k keyMap) forScreen(s session.Screen) []key.Binding {
	switch s {
	case session.ScreenMenu:
		return []key.Binding{k.Start, k.Tutorial, k.Quit}
	case session.ScreenTutorial:
		return []key.Binding{k.Notes, k.Start, k.Back, k.Quit}
	case session.ScreenGame:
		return []key.Binding{k.Notes, k.Quit}
	default:
		return []key.Binding{k.Start, k.Back, k.Quit}
	}
}

// =============================================================================
// Model
// =============================================================================

// Model is the bubbletea model for a game.
type Model struct {
	game *app.Game

	keys keyMap
	help help.Model
	bar  progress.Model

	width    int
	quitting bool
}

// NewModel creates a Model driving g.
//
// # Inputs
//
//   - g: The game. Its Scheduler must post callbacks through Program.Send
//     as callbackMsg; see Run.
//
// # Outputs
//
//   - Model: Ready-to-use model for tea.NewProgram.
func NewModel(g *app.Game) Model {
	return Model{
		game: g,
		keys: newKeyMap(g),
		help: help.New(),
		bar: progress.New(
			progress.WithGradient("#FF69B4", "#FF0000"),
			progress.WithWidth(buttonWidth*5+buttonGap*4),
			progress.WithoutPercentage(),
		),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(func() tea.Msg { return startMsg{} }, frame())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case startMsg:
		m.game.Start()

	case callbackMsg:
		msg.fn()

	case frameMsg:
		return m, frame()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			m.game.Close()
			return m, tea.Quit
		}
		m.game.KeyActivation(msg.String())

	case tea.MouseMsg:
		if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		buttons := buttonsFor(m.game.View(), m.game.Config().Session.Catalog)
		m.game.PointerActivation(hitTest(buttons, msg.X, msg.Y))
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return "Thanks for playing SpeedMaster.\n"
	}
	v := m.game.View()
	buttons := buttonsFor(v, m.game.Config().Session.Catalog)

	lines := []string{
		m.renderHeader(v),
		m.renderIndicator(v),
		m.renderCountdown(v),
		"",
		renderButtons(buttons),
		"",
		messageStyle.Render(m.message(v)),
		m.help.ShortHelpView(m.keys.forScreen(v.Game.Screen)),
	}
	return strings.Join(lines, "\n")
}

// =============================================================================
// Rendering
// =============================================================================

func (m Model) renderHeader(v app.View) string {
	g := v.Game
	stats := fmt.Sprintf("Score %d   Level %d   High %d", g.Score, g.Level, g.HighScore)
	return titleStyle.Render("SpeedMaster") + "   " + statsStyle.Render(stats)
}

func (m Model) renderIndicator(v app.View) string {
	switch v.Game.Screen {
	case session.ScreenGame:
		n := v.Game.CurrentNote
		if n == nil {
			return ""
		}
		return noteStyle.
			Background(lipgloss.Color(n.Color.Hex())).
			Render(n.Name)
	case session.ScreenTutorial:
		if v.Tutorial == nil {
			return ""
		}
		return statsStyle.Render(fmt.Sprintf("Tutorial %d/%d",
			v.Tutorial.StepIndex+1, m.game.Config().Session.Catalog.Len()+2))
	case session.ScreenGameOver:
		return gameOverStyle.Render(fmt.Sprintf("Game over: %d points", v.Game.Score))
	default:
		return ""
	}
}

func (m Model) renderCountdown(v app.View) string {
	g := v.Game
	if g.Screen != session.ScreenGame || g.CurrentNote == nil || g.TimeWindow <= 0 {
		return ""
	}
	left := g.Remaining(m.game.Now())
	return m.bar.ViewAs(float64(left) / float64(g.TimeWindow))
}

func (m Model) message(v app.View) string {
	switch v.Game.Screen {
	case session.ScreenMenu:
		return "Press Space to start a new game, or T to learn the notes."
	case session.ScreenTutorial:
		if v.Tutorial != nil {
			return v.Tutorial.Message
		}
	case session.ScreenGame:
		return fmt.Sprintf("Window %.1fs", v.Game.TimeWindow.Seconds())
	case session.ScreenGameOver:
		return "Press Space to play again, or Escape for the menu."
	}
	return ""
}

func renderButtons(buttons []button) string {
	parts := make([]string, 0, len(buttons)*2)
	for i, b := range buttons {
		if i > 0 {
			parts = append(parts, strings.Repeat(" ", buttonGap))
		}
		parts = append(parts, renderButton(b))
	}
	if len(parts) == 0 {
		return strings.Repeat("\n", buttonHeight-1)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func renderButton(b button) string {
	style := buttonStyle
	if b.note {
		style = style.BorderForeground(b.color)
		if b.active {
			style = style.Background(b.color).Foreground(lipgloss.Color("0")).Bold(true)
		}
	}
	return style.Render(b.label)
}

// =============================================================================
// Styles
// =============================================================================

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	statsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	noteStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("0")).
			Padding(0, 2)

	gameOverStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	buttonStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Width(buttonInner).
			Align(lipgloss.Center)
)
