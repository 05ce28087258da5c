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
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/wav"
)

// ErrUnsupportedTrack is returned for ambient files that are neither mp3
// nor wav.
var ErrUnsupportedTrack = errors.New("unsupported ambient track format")

// drone is a looping synthesized pad: a soft minor chord with a slow
// swell, one bar long.
type drone struct {
	sr     beep.SampleRate
	pos    int
	length int
	freqs  []float64
}

func newDrone(sr beep.SampleRate) *drone {
	return &drone{
		sr:     sr,
		length: sr.N(4 * time.Second),
		freqs:  []float64{110.00, 130.81, 164.81}, // A2 C3 E3
	}
}

func (d *drone) Stream(samples [][2]float64) (n int, ok bool) {
	if d.pos >= d.length {
		return 0, false
	}
	rate := float64(d.sr)
	for i := range samples {
		if d.pos >= d.length {
			return i, true
		}
		t := float64(d.pos) / rate
		swell := 0.5 - 0.5*math.Cos(2*math.Pi*float64(d.pos)/float64(d.length))
		var v float64
		for _, f := range d.freqs {
			v += math.Sin(2 * math.Pi * f * t)
		}
		v = v / float64(len(d.freqs)) * (0.4 + 0.6*swell)
		samples[i][0] = v
		samples[i][1] = v
		d.pos++
	}
	return len(samples), true
}

func (d *drone) Err() error    { return nil }
func (d *drone) Len() int      { return d.length }
func (d *drone) Position() int { return d.pos }

func (d *drone) Seek(p int) error {
	if p < 0 || p > d.length {
		return fmt.Errorf("seek %d out of range [0, %d]", p, d.length)
	}
	d.pos = p
	return nil
}

// decodeTrack opens an mp3 or wav file.
func decodeTrack(path string) (beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("open ambient track: %w", err)
	}
	var (
		s      beep.StreamSeekCloser
		format beep.Format
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		s, format, err = mp3.Decode(f)
	case ".wav":
		s, format, err = wav.Decode(f)
	default:
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("%w: %s", ErrUnsupportedTrack, path)
	}
	if err != nil {
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("decode ambient track: %w", err)
	}
	return s, format, nil
}

// ambientTrack is a paused-by-default looping streamer. Stop pauses and
// rewinds; Start resumes from the beginning.
type ambientTrack struct {
	source beep.StreamSeeker
	closer func() error
	ctrl   *beep.Ctrl
	added  bool
}

func newAmbientTrack(source beep.StreamSeeker, format, target beep.SampleRate, gain float64, closer func() error) (*ambientTrack, error) {
	s, err := beep.Loop2(source)
	if err != nil {
		return nil, fmt.Errorf("loop ambient track: %w", err)
	}
	if format != target {
		s = beep.Resample(4, format, target, s)
	}
	return &ambientTrack{
		source: source,
		closer: closer,
		ctrl:   &beep.Ctrl{Streamer: withVolume(s, gain), Paused: true},
	}, nil
}

// start must be called with the output locked when added is true.
func (a *ambientTrack) start() {
	a.ctrl.Paused = false
}

// stop must be called with the output locked.
func (a *ambientTrack) stop() error {
	a.ctrl.Paused = true
	return a.source.Seek(0)
}

func (a *ambientTrack) close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer()
}
