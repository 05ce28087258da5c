// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/AleutianAI/speedmaster/pkg/validation"
	"github.com/AleutianAI/speedmaster/services/speedmaster/app"
	"github.com/AleutianAI/speedmaster/services/speedmaster/audio"
	"github.com/AleutianAI/speedmaster/services/speedmaster/difficulty"
	"github.com/AleutianAI/speedmaster/services/speedmaster/notes"
	"github.com/AleutianAI/speedmaster/services/speedmaster/session"
	"github.com/AleutianAI/speedmaster/services/speedmaster/tutorial"
)

// SpeedMasterConfig is the on-disk configuration. Every leaf can be
// overridden by the SPEEDMASTER_* variable named in its env tag.
type SpeedMasterConfig struct {
	Game      GameConfig      `yaml:"game"`
	Tutorial  TutorialConfig  `yaml:"tutorial"`
	Audio     AudioConfig     `yaml:"audio"`
	Speech    SpeechConfig    `yaml:"speech"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type GameConfig struct {
	InitialTimeWindow     Duration     `yaml:"initial_time_window"    env:"SPEEDMASTER_INITIAL_TIME_WINDOW"`
	MinTimeWindow         Duration     `yaml:"min_time_window"        env:"SPEEDMASTER_MIN_TIME_WINDOW"`
	TimeWindowDecrease    Duration     `yaml:"time_window_decrease"   env:"SPEEDMASTER_TIME_WINDOW_DECREASE"`
	PointsPerNote         int          `yaml:"points_per_note"        env:"SPEEDMASTER_POINTS_PER_NOTE"`
	LevelThreshold        int          `yaml:"level_threshold"        env:"SPEEDMASTER_LEVEL_THRESHOLD"`
	EncouragementInterval int          `yaml:"encouragement_interval" env:"SPEEDMASTER_ENCOURAGEMENT_INTERVAL"`
	Notes                 []NoteConfig `yaml:"notes,omitempty"`
}

// NoteConfig overrides one catalog entry. Color is "#RRGGBB".
type NoteConfig struct {
	Key       string  `yaml:"key"`
	Frequency float64 `yaml:"frequency"`
	Color     string  `yaml:"color"`
	Name      string  `yaml:"name,omitempty"`
}

type TutorialConfig struct {
	ToneDelay    Duration `yaml:"tone_delay"    env:"SPEEDMASTER_TUTORIAL_TONE_DELAY"`
	ConfirmPause Duration `yaml:"confirm_pause" env:"SPEEDMASTER_TUTORIAL_CONFIRM_PAUSE"`
}

type AudioConfig struct {
	Enabled       bool    `yaml:"enabled"        env:"SPEEDMASTER_AUDIO_ENABLED"`
	Volume        float64 `yaml:"volume"         env:"SPEEDMASTER_AUDIO_VOLUME"`
	AmbientVolume float64 `yaml:"ambient_volume" env:"SPEEDMASTER_AUDIO_AMBIENT_VOLUME"`
	AmbientTrack  string  `yaml:"ambient_track"  env:"SPEEDMASTER_AUDIO_AMBIENT_TRACK"`
}

type SpeechConfig struct {
	Enabled bool    `yaml:"enabled" env:"SPEEDMASTER_SPEECH_ENABLED"`
	Command string  `yaml:"command" env:"SPEEDMASTER_SPEECH_COMMAND"`
	Rate    float64 `yaml:"rate"    env:"SPEEDMASTER_SPEECH_RATE"`
	Voice   string  `yaml:"voice"   env:"SPEEDMASTER_SPEECH_VOICE"`
}

type StorageConfig struct {
	// DataDir holds the Badger database. A leading ~ is expanded.
	DataDir string `yaml:"data_dir" env:"SPEEDMASTER_DATA_DIR"`
}

type LoggingConfig struct {
	Level string `yaml:"level" env:"SPEEDMASTER_LOG_LEVEL"`
	Dir   string `yaml:"dir"   env:"SPEEDMASTER_LOG_DIR"`
}

type TelemetryConfig struct {
	// MetricsAddr exposes /metrics when set, e.g. "127.0.0.1:9464".
	MetricsAddr string `yaml:"metrics_addr" env:"SPEEDMASTER_METRICS_ADDR"`

	// TraceFile receives run and storage spans as JSON when set.
	TraceFile string `yaml:"trace_file" env:"SPEEDMASTER_TRACE_FILE"`
}

// Duration is a time.Duration that reads and writes as "1.5s".
type Duration time.Duration

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(v)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// DefaultConfig mirrors the built-in game pacing.
func DefaultConfig() SpeedMasterConfig {
	sess := session.DefaultConfig()
	tut := tutorial.DefaultConfig()
	aud := audio.DefaultConfig()
	sp := audio.DefaultSpeechConfig()
	return SpeedMasterConfig{
		Game: GameConfig{
			InitialTimeWindow:     Duration(sess.Difficulty.InitialTimeWindow),
			MinTimeWindow:         Duration(sess.Difficulty.MinTimeWindow),
			TimeWindowDecrease:    Duration(sess.Difficulty.TimeWindowDecrease),
			PointsPerNote:         sess.PointsPerNote,
			LevelThreshold:        sess.Difficulty.LevelThreshold,
			EncouragementInterval: sess.EncouragementInterval,
		},
		Tutorial: TutorialConfig{
			ToneDelay:    Duration(tut.ToneDelay),
			ConfirmPause: Duration(tut.ConfirmPause),
		},
		Audio: AudioConfig{
			Enabled:       true,
			Volume:        aud.Volume,
			AmbientVolume: aud.AmbientVolume,
		},
		Speech: SpeechConfig{
			Enabled: true,
			Rate:    sp.Rate,
			Voice:   sp.Voice,
		},
		Storage: StorageConfig{DataDir: "~/.speedmaster/data"},
		Logging: LoggingConfig{Level: "info", Dir: "~/.speedmaster/logs"},
	}
}

// AppConfig converts the file values into validated game configuration.
func (c SpeedMasterConfig) AppConfig() (app.Config, error) {
	cfg := app.DefaultConfig()
	cfg.Session.Difficulty = difficulty.Model{
		InitialTimeWindow:  c.Game.InitialTimeWindow.Std(),
		MinTimeWindow:      c.Game.MinTimeWindow.Std(),
		TimeWindowDecrease: c.Game.TimeWindowDecrease.Std(),
		LevelThreshold:     c.Game.LevelThreshold,
	}
	cfg.Session.PointsPerNote = c.Game.PointsPerNote
	cfg.Session.EncouragementInterval = c.Game.EncouragementInterval

	if len(c.Game.Notes) > 0 {
		cat, err := c.Game.catalog()
		if err != nil {
			return app.Config{}, err
		}
		cfg.Session.Catalog = cat
	}

	cfg.Tutorial = tutorial.Config{
		ToneDelay:    c.Tutorial.ToneDelay.Std(),
		ConfirmPause: c.Tutorial.ConfirmPause.Std(),
	}

	if err := cfg.Session.Validate(); err != nil {
		return app.Config{}, fmt.Errorf("game config: %w", err)
	}
	if err := cfg.Tutorial.Validate(); err != nil {
		return app.Config{}, fmt.Errorf("tutorial config: %w", err)
	}
	return cfg, nil
}

func (g GameConfig) catalog() (notes.Catalog, error) {
	list := make([]notes.Note, 0, len(g.Notes))
	for _, n := range g.Notes {
		color, err := notes.ParseRGB(n.Color)
		if err != nil {
			return notes.Catalog{}, fmt.Errorf("note %q: %w", n.Key, err)
		}
		list = append(list, notes.Note{
			Key:       notes.Key(n.Key),
			Frequency: n.Frequency,
			Color:     color,
			Name:      n.Name,
		})
	}
	cat, err := notes.NewCatalog(list)
	if err != nil {
		return notes.Catalog{}, fmt.Errorf("note catalog: %w", err)
	}
	return cat, nil
}

// AudioEngineConfig returns the synthesizer settings.
func (c SpeedMasterConfig) AudioEngineConfig() audio.Config {
	cfg := audio.DefaultConfig()
	cfg.Volume = c.Audio.Volume
	cfg.AmbientVolume = c.Audio.AmbientVolume
	cfg.AmbientTrack = ExpandPath(c.Audio.AmbientTrack)
	return cfg
}

// SpeechEngineConfig returns the narrator settings.
func (c SpeedMasterConfig) SpeechEngineConfig() audio.SpeechConfig {
	return audio.SpeechConfig{
		Command: c.Speech.Command,
		Rate:    c.Speech.Rate,
		Voice:   c.Speech.Voice,
	}
}

// Validate checks the values that end up on the TTS command line.
func (s SpeechConfig) Validate() error {
	if err := validation.ValidateCommand(s.Command); err != nil {
		return err
	}
	if err := validation.ValidateVoice(s.Voice); err != nil {
		return err
	}
	return validation.ValidateRate(s.Rate)
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
