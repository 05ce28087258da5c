// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package audio implements the audio and speech gateways.
//
// # Description
//
// Engine synthesizes the note cues and stings with gopxl/beep and plays
// an ambient loop during runs. Narrator speaks through a local
// text-to-speech command. Both degrade to silence, with a logged
// warning, when the device or the command is missing.
package audio

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"

	"github.com/AleutianAI/speedmaster/services/speedmaster/gateway"
	"github.com/AleutianAI/speedmaster/services/speedmaster/notes"
)

// DefaultSampleRate is used when Config.SampleRate is zero.
const DefaultSampleRate = beep.SampleRate(44100)

// Config configures an Engine.
type Config struct {
	// SampleRate of the output device.
	SampleRate beep.SampleRate

	// Volume is the linear gain of cues and stings, in [0, 1].
	Volume float64

	// AmbientVolume is the linear gain of the ambient loop, in [0, 1].
	AmbientVolume float64

	// AmbientTrack is an optional .mp3 or .wav file. A synthesized drone
	// plays when empty or unreadable.
	AmbientTrack string
}

// DefaultConfig returns 0.8 effect volume and 0.2 ambient volume.
func DefaultConfig() Config {
	return Config{
		SampleRate:    DefaultSampleRate,
		Volume:        0.8,
		AmbientVolume: 0.2,
	}
}

// Engine implements gateway.Audio and gateway.Ambient.
//
// # Thread Safety
//
// Safe for concurrent use.
type Engine struct {
	cfg Config
	out Output
	log *slog.Logger

	mu      sync.Mutex
	ambient *ambientTrack
	closed  bool
}

// NewEngine creates an Engine playing to out. A nil out yields a silent
// Engine.
func NewEngine(cfg Config, out Output, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	e := &Engine{
		cfg: cfg,
		out: out,
		log: logger.With(slog.String("component", "audio")),
	}
	if out == nil {
		e.log.Warn("audio output unavailable, effects are silent")
		return e
	}
	e.ambient = e.loadAmbient()
	return e
}

func (e *Engine) loadAmbient() *ambientTrack {
	sr := e.cfg.SampleRate
	if e.cfg.AmbientTrack != "" {
		track, err := e.loadTrack(e.cfg.AmbientTrack)
		if err == nil {
			e.log.Info("ambient track loaded", slog.String("path", e.cfg.AmbientTrack))
			return track
		}
		e.log.Warn("ambient track unavailable, using drone",
			slog.String("path", e.cfg.AmbientTrack),
			slog.String("error", err.Error()),
		)
	}
	track, err := newAmbientTrack(newDrone(sr), sr, sr, e.cfg.AmbientVolume, nil)
	if err != nil {
		e.log.Warn("ambient drone unavailable", slog.String("error", err.Error()))
		return nil
	}
	return track
}

func (e *Engine) loadTrack(path string) (*ambientTrack, error) {
	s, format, err := decodeTrack(path)
	if err != nil {
		return nil, err
	}
	track, err := newAmbientTrack(s, format.SampleRate, e.cfg.SampleRate, e.cfg.AmbientVolume, s.Close)
	if err != nil {
		s.Close()
		return nil, err
	}
	return track, nil
}

// PlayNote plays the cue for n.
func (e *Engine) PlayNote(n notes.Note) {
	e.play(noteTone(e.cfg.SampleRate, n.Frequency, e.cfg.Volume))
}

// PlayCorrect plays a short high sine.
func (e *Engine) PlayCorrect() {
	e.playSting(false, correctFreq, correctLength)
}

// PlayWrong plays a low square buzz.
func (e *Engine) PlayWrong() {
	e.playSting(true, wrongFreq, wrongLength)
}

func (e *Engine) playSting(square bool, freq float64, d time.Duration) {
	s, err := stingTone(e.cfg.SampleRate, square, freq, d, e.cfg.Volume)
	if err != nil {
		e.log.Warn("sting synthesis failed", slog.String("error", err.Error()))
		return
	}
	e.play(s)
}

func (e *Engine) play(s beep.Streamer) {
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if e.out == nil || closed {
		return
	}
	e.out.Play(s)
}

// StartAmbient resumes the ambient loop from the beginning.
func (e *Engine) StartAmbient() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.out == nil || e.ambient == nil || e.closed {
		return
	}
	if !e.ambient.added {
		e.ambient.start()
		e.ambient.added = true
		e.out.Play(e.ambient.ctrl)
		return
	}
	e.out.Lock()
	e.ambient.start()
	e.out.Unlock()
}

// StopAmbient pauses and rewinds the ambient loop.
func (e *Engine) StopAmbient() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.out == nil || e.ambient == nil || !e.ambient.added {
		return
	}
	e.out.Lock()
	err := e.ambient.stop()
	e.out.Unlock()
	if err != nil {
		e.log.Warn("ambient rewind failed", slog.String("error", err.Error()))
	}
}

// Close stops the ambient loop and releases the track. Later calls play
// nothing.
func (e *Engine) Close() error {
	e.StopAmbient()
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	if e.ambient != nil {
		return e.ambient.close()
	}
	return nil
}

var (
	_ gateway.Audio   = (*Engine)(nil)
	_ gateway.Ambient = (*Engine)(nil)
)
