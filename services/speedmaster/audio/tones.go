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
	"math"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/generators"
)

// Sting pitches and lengths.
const (
	correctFreq = 523.25 // C5
	wrongFreq   = 130.81 // C3

	noteLength    = 250 * time.Millisecond // eighth note at 120 bpm
	correctLength = 125 * time.Millisecond // sixteenth
	wrongLength   = 250 * time.Millisecond
)

// membrane is a sine voice whose pitch falls from twice freq to freq over
// the first few milliseconds, with an exponential amplitude decay.
type membrane struct {
	sr     beep.SampleRate
	freq   float64
	phase  float64
	pos    int
	length int
}

func newMembrane(sr beep.SampleRate, freq float64, d time.Duration) *membrane {
	return &membrane{sr: sr, freq: freq, length: sr.N(d)}
}

func (m *membrane) Stream(samples [][2]float64) (n int, ok bool) {
	const twoPi = 2 * math.Pi
	if m.pos >= m.length {
		return 0, false
	}
	rate := float64(m.sr)
	sweep := rate * 0.05
	for i := range samples {
		if m.pos >= m.length {
			return i, true
		}
		t := float64(m.pos)
		pitch := m.freq * (1 + math.Exp(-t/sweep))
		env := math.Exp(-3 * t / float64(m.length))

		v := math.Sin(m.phase) * env
		samples[i][0] = v
		samples[i][1] = v

		m.phase += twoPi * pitch / rate
		if m.phase >= twoPi {
			m.phase -= twoPi
		}
		m.pos++
	}
	return len(samples), true
}

func (m *membrane) Err() error { return nil }

// noteTone renders the cue for a note.
func noteTone(sr beep.SampleRate, freq, volume float64) beep.Streamer {
	return withVolume(newMembrane(sr, freq, noteLength), volume)
}

// stingTone renders a fixed-length generator tone.
func stingTone(sr beep.SampleRate, square bool, freq float64, d time.Duration, volume float64) (beep.Streamer, error) {
	var (
		s   beep.Streamer
		err error
	)
	if square {
		s, err = generators.SquareTone(sr, freq)
	} else {
		s, err = generators.SineTone(sr, freq)
	}
	if err != nil {
		return nil, err
	}
	return withVolume(beep.Take(sr.N(d), s), volume), nil
}

// withVolume scales s by a linear gain in [0, 1].
func withVolume(s beep.Streamer, gain float64) beep.Streamer {
	v := &effects.Volume{Streamer: s, Base: 2}
	switch {
	case gain <= 0:
		v.Silent = true
	case gain < 1:
		v.Volume = math.Log2(gain)
	}
	return v
}
