// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/AleutianAI/speedmaster/services/speedmaster/gateway"
)

// ErrNoSpeechEngine is returned when no text-to-speech command is found.
var ErrNoSpeechEngine = errors.New("no text-to-speech command found")

// baseWordsPerMinute is the engines' normal speaking rate.
const baseWordsPerMinute = 175

// speechCandidates are probed in order when no command is configured.
var speechCandidates = []string{"espeak-ng", "espeak", "say"}

// Runner executes a command to completion.
type Runner func(ctx context.Context, name string, args ...string) error

// ExecRunner runs the command with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, out)
	}
	return nil
}

// SpeechConfig configures a Narrator.
type SpeechConfig struct {
	// Command is the TTS binary. Empty probes espeak-ng, espeak and say.
	Command string

	// Rate multiplies the normal speaking rate.
	Rate float64

	// Voice is the language passed to espeak. Ignored by say.
	Voice string
}

// DefaultSpeechConfig returns rate 1.2 in US English.
func DefaultSpeechConfig() SpeechConfig {
	return SpeechConfig{Rate: 1.2, Voice: "en-us"}
}

// Narrator implements gateway.Speech by running a TTS command.
//
// # Description
//
// One utterance is in flight at a time. Speak while busy drops the text;
// the busy flag clears when the command exits, successfully or not.
//
// # Thread Safety
//
// Safe for concurrent use.
type Narrator struct {
	cfg     SpeechConfig
	command string
	run     Runner
	log     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	busy   atomic.Bool
	wg     sync.WaitGroup
}

// ResolveSpeechCommand returns the configured command or the first
// candidate found on PATH.
func ResolveSpeechCommand(configured string) (string, error) {
	if configured != "" {
		path, err := exec.LookPath(configured)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrNoSpeechEngine, err)
		}
		return path, nil
	}
	for _, c := range speechCandidates {
		if path, err := exec.LookPath(c); err == nil {
			return path, nil
		}
	}
	return "", ErrNoSpeechEngine
}

// NewNarrator creates a Narrator that runs command through run. A nil run
// uses ExecRunner.
func NewNarrator(cfg SpeechConfig, command string, run Runner, logger *slog.Logger) *Narrator {
	if run == nil {
		run = ExecRunner
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Rate <= 0 {
		cfg.Rate = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Narrator{
		cfg:     cfg,
		command: command,
		run:     run,
		log:     logger.With(slog.String("component", "speech")),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Speak starts narrating text unless an utterance is already in flight.
func (n *Narrator) Speak(text string) {
	if text == "" || n.ctx.Err() != nil {
		return
	}
	if !n.busy.CompareAndSwap(false, true) {
		n.log.Debug("speech dropped while busy", slog.String("text", text))
		return
	}
	args := n.args(text)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer n.busy.Store(false)
		if err := n.run(n.ctx, n.command, args...); err != nil && n.ctx.Err() == nil {
			n.log.Warn("speech failed", slog.String("error", err.Error()))
		}
	}()
}

// Busy reports whether an utterance is in flight.
func (n *Narrator) Busy() bool {
	return n.busy.Load()
}

// Close interrupts the current utterance and waits for it to exit.
func (n *Narrator) Close() {
	n.cancel()
	n.wg.Wait()
}

func (n *Narrator) args(text string) []string {
	wpm := strconv.Itoa(int(math.Round(baseWordsPerMinute * n.cfg.Rate)))
	switch filepath.Base(n.command) {
	case "say":
		return []string{"-r", wpm, text}
	default:
		args := []string{"-s", wpm}
		if n.cfg.Voice != "" {
			args = append(args, "-v", n.cfg.Voice)
		}
		return append(args, text)
	}
}

var _ gateway.Speech = (*Narrator)(nil)
