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
	"github.com/charmbracelet/lipgloss"

	"github.com/AleutianAI/speedmaster/services/speedmaster/app"
	"github.com/AleutianAI/speedmaster/services/speedmaster/notes"
	"github.com/AleutianAI/speedmaster/services/speedmaster/session"
)

// Screen geometry. The view is a fixed stack of lines so pointer
// positions map to buttons without measuring rendered output.
const (
	buttonRowTop = 4  // first line of the button row
	buttonHeight = 3  // border, label, border
	buttonInner  = 10 // label width inside the border
	buttonWidth  = buttonInner + 2
	buttonGap    = 1
)

// button is one clickable control.
type button struct {
	id     string
	label  string
	color  lipgloss.Color
	active bool
	note   bool
}

// buttonsFor lists the controls shown for v, left to right.
func buttonsFor(v app.View, catalog notes.Catalog) []button {
	switch v.Game.Screen {
	case session.ScreenMenu:
		return []button{
			{id: app.PointerStart, label: "Start"},
			{id: app.PointerTutorial, label: "Tutorial"},
		}

	case session.ScreenTutorial:
		if v.Tutorial == nil {
			return nil
		}
		switch step := v.Tutorial.StepIndex; {
		case step == 0:
			return []button{
				{id: app.PointerContinue, label: "Begin"},
				{id: app.PointerMenu, label: "Menu"},
			}
		case step > catalog.Len():
			return []button{
				{id: app.PointerStart, label: "Play"},
				{id: app.PointerMenu, label: "Menu"},
			}
		default:
			return append(noteButtons(catalog, v.Tutorial.ExpectedKey),
				button{id: app.PointerMenu, label: "Menu"})
		}

	case session.ScreenGame:
		var active notes.Key
		if v.Game.CurrentNote != nil {
			active = v.Game.CurrentNote.Key
		}
		return noteButtons(catalog, active)

	case session.ScreenGameOver:
		return []button{
			{id: app.PointerRestart, label: "Play again"},
			{id: app.PointerMenu, label: "Menu"},
		}
	}
	return nil
}

func noteButtons(catalog notes.Catalog, active notes.Key) []button {
	out := make([]button, 0, catalog.Len())
	for _, n := range catalog.Notes() {
		out = append(out, button{
			id:     n.Key.String(),
			label:  n.Key.String(),
			color:  lipgloss.Color(n.Color.Hex()),
			active: n.Key == active,
			note:   true,
		})
	}
	return out
}

// hitTest returns the id of the button under (x, y), or
// app.PointerBackground.
func hitTest(buttons []button, x, y int) string {
	if y < buttonRowTop || y >= buttonRowTop+buttonHeight || x < 0 {
		return app.PointerBackground
	}
	stride := buttonWidth + buttonGap
	i := x / stride
	if i >= len(buttons) || x%stride >= buttonWidth {
		return app.PointerBackground
	}
	return buttons[i].id
}
