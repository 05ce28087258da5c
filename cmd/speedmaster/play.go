// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gopxl/beep/v2"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/speedmaster/cmd/speedmaster/config"
	"github.com/AleutianAI/speedmaster/pkg/logging"
	"github.com/AleutianAI/speedmaster/pkg/ux"
	"github.com/AleutianAI/speedmaster/services/speedmaster/app"
	"github.com/AleutianAI/speedmaster/services/speedmaster/audio"
	"github.com/AleutianAI/speedmaster/services/speedmaster/clock"
	"github.com/AleutianAI/speedmaster/services/speedmaster/gateway"
	"github.com/AleutianAI/speedmaster/services/speedmaster/session"
	"github.com/AleutianAI/speedmaster/services/speedmaster/storage/badger"
	"github.com/AleutianAI/speedmaster/services/speedmaster/telemetry"
	"github.com/AleutianAI/speedmaster/services/speedmaster/tui"
)

// speakerLatency is the output buffer length handed to the speaker.
const speakerLatency = 100 * time.Millisecond

var errNotTerminal = errors.New("speedmaster play needs an interactive terminal")

// runPlay wires storage, audio, speech and metrics around the game and
// runs the terminal UI until the player quits.
func runPlay(ctx context.Context, cfg config.SpeedMasterConfig, seed int64) error {
	if !ux.IsTerminal(os.Stdin) || !ux.IsTerminal(os.Stdout) {
		return errNotTerminal
	}

	appCfg, err := cfg.AppConfig()
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	// The TUI owns the terminal, so logs only go to the file.
	logger := logging.New(logging.Config{
		Level:   level,
		LogDir:  cfg.Logging.Dir,
		Service: "speedmaster",
		Quiet:   true,
	})
	defer logger.Close()
	log := logger.Slog()

	closeTracing, err := openTracing(cfg, log)
	if err != nil {
		return err
	}
	defer closeTracing()

	dbCfg := badger.DefaultConfig(config.ExpandPath(cfg.Storage.DataDir))
	dbCfg.Logger = log
	db, err := badger.Open(dbCfg)
	if err != nil {
		return fmt.Errorf("open high-score database: %w", err)
	}
	defer db.Close()
	scores := badger.NewHighScoreStore(db, log)

	engine, closeAudio := openAudio(cfg, log)
	defer closeAudio()

	speech, closeSpeech := openSpeech(cfg, log)
	defer closeSpeech()

	metrics := telemetry.New()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	runCtx, cancel := context.WithCancel(gctx)
	defer cancel()

	if addr := cfg.Telemetry.MetricsAddr; addr != "" {
		g.Go(func() error {
			return metrics.Serve(runCtx, addr, log)
		})
	}

	g.Go(func() error {
		defer cancel()
		return tui.Run(runCtx, func(sched clock.Scheduler) (*app.Game, error) {
			return app.New(runCtx, appCfg, app.Deps{
				Audio:     engine,
				Ambient:   engine,
				Speech:    speech,
				Scores:    scores,
				Scheduler: sched,
				Rand:      newRand(seed),
				Logger:    log,
				Metrics:   metrics,
			})
		})
	})

	err = g.Wait()
	log.Info("speedmaster exiting", slog.Any("error", err))
	return err
}

// openTracing installs a file-backed tracer provider when a trace file is
// configured. The returned func flushes and closes it.
func openTracing(cfg config.SpeedMasterConfig, log *slog.Logger) (func(), error) {
	path := cfg.Telemetry.TraceFile
	if path == "" {
		return func() {}, nil
	}
	path = config.ExpandPath(path)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create trace directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	tp, err := telemetry.NewTracerProvider(f, version)
	if err != nil {
		f.Close()
		return nil, err
	}
	otel.SetTracerProvider(tp)
	log.Info("tracing enabled", slog.String("path", path))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Warn("trace flush failed", slog.String("error", err.Error()))
		}
		f.Close()
	}, nil
}

// openAudio opens the speaker unless audio is disabled. A missing device
// leaves the engine silent.
func openAudio(cfg config.SpeedMasterConfig, log *slog.Logger) (*audio.Engine, func()) {
	engCfg := cfg.AudioEngineConfig()
	if !cfg.Audio.Enabled {
		e := audio.NewEngine(engCfg, nil, log)
		return e, func() { e.Close() }
	}

	out, err := audio.OpenSpeaker(beep.SampleRate(engCfg.SampleRate), speakerLatency)
	if err != nil {
		log.Warn("audio output unavailable, playing silently", slog.String("error", err.Error()))
		e := audio.NewEngine(engCfg, nil, log)
		return e, func() { e.Close() }
	}
	e := audio.NewEngine(engCfg, out, log)
	return e, func() {
		e.Close()
		audio.CloseSpeaker()
	}
}

// openSpeech starts the narrator unless speech is disabled or no TTS
// command is installed.
func openSpeech(cfg config.SpeedMasterConfig, log *slog.Logger) (gateway.Speech, func()) {
	if !cfg.Speech.Enabled {
		return gateway.NoOpSpeech{}, func() {}
	}
	if err := cfg.Speech.Validate(); err != nil {
		log.Warn("speech disabled by invalid settings", slog.String("error", err.Error()))
		return gateway.NoOpSpeech{}, func() {}
	}
	spCfg := cfg.SpeechEngineConfig()
	command, err := audio.ResolveSpeechCommand(spCfg.Command)
	if err != nil {
		log.Warn("speech unavailable", slog.String("error", err.Error()))
		return gateway.NoOpSpeech{}, func() {}
	}
	n := audio.NewNarrator(spCfg, command, audio.ExecRunner, log)
	return n, n.Close
}

// newRand returns a seeded source, or nil for the session's default.
func newRand(seed int64) session.Rand {
	if seed == 0 {
		return nil
	}
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
}
