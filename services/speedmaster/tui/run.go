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
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/AleutianAI/speedmaster/services/speedmaster/app"
	"github.com/AleutianAI/speedmaster/services/speedmaster/clock"
)

// BuildFunc constructs the game on the scheduler that Run provides.
type BuildFunc func(sched clock.Scheduler) (*app.Game, error)

// Run builds the game and blocks until the player quits or ctx is done.
//
// # Description
//
// Timer callbacks fire on runtime goroutines. Run hands the game a
// clock.Dispatcher whose callbacks are delivered back through
// Program.Send, so every state change happens inside Update.
//
// # Inputs
//
//   - ctx: Cancelling it stops the program.
//   - build: Creates the game on the dispatcher.
//   - opts: Extra program options, appended after the defaults.
//
// # Outputs
//
//   - error: Non-nil if the game cannot be built or the program fails.
func Run(ctx context.Context, build BuildFunc, opts ...tea.ProgramOption) error {
	var p *tea.Program
	ready := make(chan struct{})
	sched := clock.NewDispatcher(func(fn func()) {
		<-ready
		p.Send(callbackMsg{fn: fn})
	})

	game, err := build(sched)
	if err != nil {
		return fmt.Errorf("build game: %w", err)
	}
	defer game.Close()

	options := append([]tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	}, opts...)
	p = tea.NewProgram(NewModel(game), options...)
	close(ready)

	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
