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
	"strings"

	"github.com/AleutianAI/speedmaster/services/speedmaster/notes"
)

// Command is a non-note action.
type Command int

const (
	// CmdNone carries no command.
	CmdNone Command = iota

	// CmdConfirm starts, restarts or continues.
	CmdConfirm

	// CmdCancel goes back to the menu.
	CmdCancel

	// CmdTutorial opens the tutorial from the menu.
	CmdTutorial

	// CmdTap is a pointer activation outside any control.
	CmdTap
)

// String returns the command name.
func (c Command) String() string {
	switch c {
	case CmdNone:
		return "none"
	case CmdConfirm:
		return "confirm"
	case CmdCancel:
		return "cancel"
	case CmdTutorial:
		return "tutorial"
	case CmdTap:
		return "tap"
	default:
		return "unknown"
	}
}

// Input is a normalized activation. Key is set when the activation names
// a catalog note; an input may carry both a Key and a Command when a
// catalog key doubles as a shortcut.
type Input struct {
	Command Command
	Key     notes.Key
}

// IsZero reports whether the input carries nothing.
func (in Input) IsZero() bool {
	return in.Command == CmdNone && in.Key == ""
}

// Pointer identifiers understood by NormalizePointer. Note buttons use the
// note key itself.
const (
	PointerStart      = "start"
	PointerRestart    = "restart"
	PointerContinue   = "continue"
	PointerTutorial   = "tutorial"
	PointerMenu       = "menu"
	PointerBackground = "background"
)

// NormalizeKey maps a keyboard identifier, as reported by the terminal
// ("a", "space", "enter", "esc", ...), into an Input. Identifiers that
// mean nothing to the game yield the zero Input.
func NormalizeKey(id string, catalog notes.Catalog) Input {
	var in Input
	if k := notes.NormalizeKey(id); catalog.Contains(k) {
		in.Key = k
	}
	switch strings.ToLower(id) {
	case " ", "space":
		in.Command = CmdConfirm
	case "enter":
		in.Command = CmdConfirm
	case "esc", "escape":
		in.Command = CmdCancel
	case "t":
		in.Command = CmdTutorial
	}
	return in
}

// NormalizePointer maps a pointer target identifier into an Input.
func NormalizePointer(id string, catalog notes.Catalog) Input {
	if k := notes.NormalizeKey(id); catalog.Contains(k) {
		return Input{Key: k}
	}
	switch strings.ToLower(id) {
	case PointerStart, PointerRestart, PointerContinue:
		return Input{Command: CmdConfirm}
	case PointerTutorial:
		return Input{Command: CmdTutorial}
	case PointerMenu:
		return Input{Command: CmdCancel}
	case PointerBackground:
		return Input{Command: CmdTap}
	}
	return Input{}
}
