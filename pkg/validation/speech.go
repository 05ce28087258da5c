// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation checks user-provided values before they reach a
// subprocess.
//
// Speech settings come from the config file and the environment and end up
// as argv entries of the TTS binary. Nothing goes through a shell, but a
// voice starting with "-" would still be read as a flag.
package validation

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// voicePattern matches espeak voice names such as "en", "en-us" or
// "en-gb-x-rp", and macOS say names such as "Samantha".
var voicePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_+\-]{0,31}$`)

// commandPattern matches a bare executable name like "espeak-ng".
var commandPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._+\-]{0,63}$`)

// ValidateVoice validates a TTS voice name.
//
// Valid voices:
//   - 1-32 characters
//   - Start with a letter
//   - Letters, digits, '-', '_' and '+'
//
// Example:
//
//	if err := validation.ValidateVoice(cfg.Voice); err != nil {
//	    return fmt.Errorf("speech: %w", err)
//	}
func ValidateVoice(voice string) error {
	if voice == "" {
		return fmt.Errorf("voice cannot be empty")
	}
	if !voicePattern.MatchString(voice) {
		return fmt.Errorf("invalid voice: %q (must be 1-32 letters, digits, '-', '_' or '+', starting with a letter)", voice)
	}
	return nil
}

// SanitizeVoice trims and lower-cases an espeak voice, then validates it.
func SanitizeVoice(voice string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(voice))
	if err := ValidateVoice(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}

// ValidateCommand validates a configured TTS command. Empty means
// auto-detect and is allowed. Otherwise it is either a bare executable
// name or a clean absolute path; arguments and shell syntax are rejected.
func ValidateCommand(command string) error {
	if command == "" {
		return nil
	}
	if filepath.IsAbs(command) {
		if filepath.Clean(command) != command {
			return fmt.Errorf("invalid command path: %q (must be clean)", command)
		}
		if !commandPattern.MatchString(filepath.Base(command)) {
			return fmt.Errorf("invalid command name: %q", filepath.Base(command))
		}
		return nil
	}
	if !commandPattern.MatchString(command) {
		return fmt.Errorf("invalid command: %q (must be an executable name or an absolute path)", command)
	}
	return nil
}

// ValidateRate checks the speech rate multiplier is within 0.25x to 4x.
func ValidateRate(rate float64) error {
	if rate < 0.25 || rate > 4 {
		return fmt.Errorf("invalid speech rate: %v (must be between 0.25 and 4)", rate)
	}
	return nil
}
