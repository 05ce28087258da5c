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
	"fmt"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// Output is where streamers are sent for playback.
//
// Lock and Unlock guard changes to streamers that are already playing.
type Output interface {
	Play(s beep.Streamer)
	Lock()
	Unlock()
}

// speakerOutput plays through the system audio device.
type speakerOutput struct{}

// OpenSpeaker initializes the system audio device at sr with the given
// buffer latency.
//
// # Outputs
//
//   - Output: Plays through the default device.
//   - error: Non-nil if the device could not be opened. Callers fall back
//     to a silent Engine.
func OpenSpeaker(sr beep.SampleRate, latency time.Duration) (Output, error) {
	if err := speaker.Init(sr, sr.N(latency)); err != nil {
		return nil, fmt.Errorf("init speaker: %w", err)
	}
	return speakerOutput{}, nil
}

func (speakerOutput) Play(s beep.Streamer) { speaker.Play(s) }
func (speakerOutput) Lock()                { speaker.Lock() }
func (speakerOutput) Unlock()              { speaker.Unlock() }

// CloseSpeaker releases the system audio device.
func CloseSpeaker() {
	speaker.Clear()
	speaker.Close()
}
