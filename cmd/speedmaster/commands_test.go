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
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/AleutianAI/speedmaster/cmd/speedmaster/config"
	"github.com/AleutianAI/speedmaster/services/speedmaster/storage/badger"
)

// execute runs the CLI with args and returns its standard output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func tempConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "speedmaster.yaml")
	require.NoError(t, config.WriteDefault(path, false))
	return path
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "speedmaster dev\n", out)
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "speedmaster.yaml")

	out, err := execute(t, "config", "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "OK: Wrote "+path)
	_, err = os.Stat(path)
	require.NoError(t, err)

	_, err = execute(t, "config", "init", "--config", path)
	assert.ErrorIs(t, err, config.ErrConfigExists)

	_, err = execute(t, "config", "init", "--config", path, "--force")
	assert.NoError(t, err)
}

func TestNotes_ListsCatalog(t *testing.T) {
	out, err := execute(t, "notes", "--config", tempConfig(t))
	require.NoError(t, err)

	assert.Contains(t, out, "A\tA red\t440.00 Hz\t#FF0000\n")
	assert.Contains(t, out, "G\tG pink\t659.25 Hz\t#FF69B4\n")
}

func TestNotes_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "speedmaster.yaml")
	require.NoError(t, os.WriteFile(path, []byte("game:\n  level_threshold: 0\n"), 0644))

	_, err := execute(t, "notes", "--config", path)
	assert.Error(t, err)
}

func TestHighScore_ShowAndReset(t *testing.T) {
	cfgPath := tempConfig(t)
	dataDir := t.TempDir()

	db, err := badger.Open(badger.DefaultConfig(dataDir))
	require.NoError(t, err)
	require.NoError(t, badger.NewHighScoreStore(db, nil).Store(context.Background(), 120))
	require.NoError(t, db.Close())

	out, err := execute(t, "highscore", "--config", cfgPath, "--data-dir", dataDir)
	require.NoError(t, err)
	assert.Equal(t, "high_score\t120\n", out)

	out, err = execute(t, "highscore", "--config", cfgPath, "--data-dir", dataDir, "--reset")
	require.NoError(t, err)
	assert.Equal(t, "OK: High score reset\n", out)

	out, err = execute(t, "highscore", "--config", cfgPath, "--data-dir", dataDir)
	require.NoError(t, err)
	assert.Equal(t, "high_score\t0\n", out)
}

func TestPlay_RequiresTerminal(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	oldIn := os.Stdin
	os.Stdin = r
	t.Cleanup(func() { os.Stdin = oldIn })

	_, err = execute(t, "play", "--config", tempConfig(t), "--data-dir", t.TempDir())
	assert.ErrorIs(t, err, errNotTerminal)
}

func TestApplyFlags(t *testing.T) {
	cmd := newRootCmd()
	play, _, err := cmd.Find([]string{"play"})
	require.NoError(t, err)
	require.NoError(t, play.ParseFlags([]string{"--mute", "--no-speech", "--metrics-addr", ":9464", "--log-level", "debug", "--data-dir", "/tmp/sm"}))

	opts := &cliOptions{cfg: config.DefaultConfig()}
	flags := play.Flags()
	opts.mute, _ = flags.GetBool("mute")
	opts.noSpeech, _ = flags.GetBool("no-speech")
	opts.metricsAddr, _ = flags.GetString("metrics-addr")
	opts.logLevel, _ = flags.GetString("log-level")
	opts.dataDir, _ = flags.GetString("data-dir")
	opts.applyFlags(play)

	assert.False(t, opts.cfg.Audio.Enabled)
	assert.False(t, opts.cfg.Speech.Enabled)
	assert.Equal(t, ":9464", opts.cfg.Telemetry.MetricsAddr)
	assert.Equal(t, "debug", opts.cfg.Logging.Level)
	assert.Equal(t, "/tmp/sm", opts.cfg.Storage.DataDir)
}

func TestApplyFlags_UnsetKeepsConfig(t *testing.T) {
	cmd := newRootCmd()
	play, _, err := cmd.Find([]string{"play"})
	require.NoError(t, err)

	opts := &cliOptions{cfg: config.DefaultConfig()}
	opts.applyFlags(play)
	assert.Equal(t, config.DefaultConfig(), opts.cfg)
}

func TestNewRand(t *testing.T) {
	assert.Nil(t, newRand(0))

	a, b := newRand(42), newRand(42)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.IntN(5), b.IntN(5))
	}
}

func TestOpenTracing_Disabled(t *testing.T) {
	closeFn, err := openTracing(config.DefaultConfig(), slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	closeFn()
}

func TestOpenTracing_WritesFile(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	cfg := config.DefaultConfig()
	cfg.Telemetry.TraceFile = filepath.Join(t.TempDir(), "traces", "spans.json")

	closeFn, err := openTracing(cfg, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "Session.run")
	span.End()
	closeFn()

	data, err := os.ReadFile(cfg.Telemetry.TraceFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Name":"Session.run"`)
}
