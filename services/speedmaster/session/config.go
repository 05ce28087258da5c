// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package session

import (
	"errors"
	"fmt"

	"github.com/AleutianAI/speedmaster/services/speedmaster/difficulty"
	"github.com/AleutianAI/speedmaster/services/speedmaster/notes"
)

// ErrInvalidPoints is returned when PointsPerNote is not positive.
var ErrInvalidPoints = errors.New("points per note must be positive")

// DefaultEncouragements are spoken at score milestones.
var DefaultEncouragements = []string{
	"Great job!",
	"You're on fire!",
	"Keep it up!",
	"Fantastic!",
	"Amazing speed!",
	"You're crushing it!",
	"Incredible!",
	"Perfect timing!",
	"You're a natural!",
	"Outstanding!",
}

// Config holds every tunable of a session.
type Config struct {
	// Catalog is the set of notes that can be drawn.
	Catalog notes.Catalog

	// Difficulty maps score to level and response window.
	Difficulty difficulty.Model

	// PointsPerNote is awarded for each correct press.
	PointsPerNote int

	// EncouragementInterval speaks a random encouragement whenever the
	// score reaches a positive multiple of it. 0 disables encouragements.
	EncouragementInterval int

	// Encouragements is the phrase pool for milestones.
	Encouragements []string
}

// DefaultConfig returns the standard game: five notes, 10 points per
// note, 100 points per level, encouragement every 60 points.
func DefaultConfig() Config {
	return Config{
		Catalog:               notes.Default(),
		Difficulty:            difficulty.Default(),
		PointsPerNote:         10,
		EncouragementInterval: 60,
		Encouragements:        append([]string(nil), DefaultEncouragements...),
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Catalog.Len() == 0 {
		return notes.ErrEmptyCatalog
	}
	if err := c.Difficulty.Validate(); err != nil {
		return fmt.Errorf("difficulty: %w", err)
	}
	if c.PointsPerNote <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPoints, c.PointsPerNote)
	}
	return nil
}
