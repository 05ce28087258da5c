// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package notes defines the fixed set of playable notes.
//
// A Catalog is an ordered, immutable sequence of notes. Order matters: the
// tutorial teaches notes in catalog order and the presentation lays out
// note buttons in catalog order.
package notes

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrEmptyCatalog is returned when a catalog has no notes.
	ErrEmptyCatalog = errors.New("catalog has no notes")

	// ErrDuplicateKey is returned when two notes share a key.
	ErrDuplicateKey = errors.New("duplicate note key")

	// ErrInvalidKey is returned for keys that are not a single printable character.
	ErrInvalidKey = errors.New("invalid note key")

	// ErrInvalidFrequency is returned for non-positive frequencies.
	ErrInvalidFrequency = errors.New("invalid note frequency")

	// ErrInvalidColor is returned when a color string cannot be parsed.
	ErrInvalidColor = errors.New("invalid color")
)

// Key identifies a note. Keys are upper-case single characters ("A", "S").
type Key string

// NormalizeKey upper-cases and trims a raw key identifier.
func NormalizeKey(raw string) Key {
	return Key(strings.ToUpper(strings.TrimSpace(raw)))
}

// String returns the key as a string.
func (k Key) String() string { return string(k) }

// RGB is a 24-bit color.
type RGB struct {
	R, G, B uint8
}

// ParseRGB parses "#RRGGBB" or "RRGGBB".
func ParseRGB(s string) (RGB, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return RGB{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("%w: %q: %v", ErrInvalidColor, s, err)
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// MustRGB is ParseRGB for package-level literals.
func MustRGB(s string) RGB {
	c, err := ParseRGB(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Hex returns the color as "#RRGGBB".
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// Note is one playable symbol.
type Note struct {
	Key       Key
	Frequency float64
	Color     RGB
	Name      string
}

// Catalog is an ordered set of notes with unique keys.
//
// The zero value is an empty catalog. Catalogs are immutable after
// construction; accessors return copies.
type Catalog struct {
	notes []Note
	index map[Key]int
}

// NewCatalog validates and builds a catalog, keeping the given order.
func NewCatalog(list []Note) (Catalog, error) {
	if len(list) == 0 {
		return Catalog{}, ErrEmptyCatalog
	}
	c := Catalog{
		notes: make([]Note, 0, len(list)),
		index: make(map[Key]int, len(list)),
	}
	for _, n := range list {
		n.Key = NormalizeKey(string(n.Key))
		if len([]rune(string(n.Key))) != 1 {
			return Catalog{}, fmt.Errorf("%w: %q", ErrInvalidKey, n.Key)
		}
		if n.Frequency <= 0 {
			return Catalog{}, fmt.Errorf("%w: %s has %v Hz", ErrInvalidFrequency, n.Key, n.Frequency)
		}
		if _, dup := c.index[n.Key]; dup {
			return Catalog{}, fmt.Errorf("%w: %s", ErrDuplicateKey, n.Key)
		}
		if n.Name == "" {
			n.Name = string(n.Key)
		}
		c.index[n.Key] = len(c.notes)
		c.notes = append(c.notes, n)
	}
	return c, nil
}

// Default returns the standard five-note catalog.
func Default() Catalog {
	c, err := NewCatalog([]Note{
		{Key: "A", Frequency: 440.00, Color: MustRGB("#FF0000"), Name: "A red"},
		{Key: "S", Frequency: 493.88, Color: MustRGB("#00FF00"), Name: "S green"},
		{Key: "D", Frequency: 523.25, Color: MustRGB("#0000FF"), Name: "D blue"},
		{Key: "F", Frequency: 587.33, Color: MustRGB("#FFD700"), Name: "F yellow"},
		{Key: "G", Frequency: 659.25, Color: MustRGB("#FF69B4"), Name: "G pink"},
	})
	if err != nil {
		panic(err)
	}
	return c
}

// Len returns the number of notes.
func (c Catalog) Len() int { return len(c.notes) }

// At returns the i-th note in catalog order.
func (c Catalog) At(i int) Note { return c.notes[i] }

// Notes returns a copy of the notes in catalog order.
func (c Catalog) Notes() []Note {
	out := make([]Note, len(c.notes))
	copy(out, c.notes)
	return out
}

// Keys returns the note keys in catalog order.
func (c Catalog) Keys() []Key {
	out := make([]Key, len(c.notes))
	for i, n := range c.notes {
		out[i] = n.Key
	}
	return out
}

// Lookup returns the note for key.
func (c Catalog) Lookup(key Key) (Note, bool) {
	i, ok := c.index[key]
	if !ok {
		return Note{}, false
	}
	return c.notes[i], true
}

// Contains reports whether key is in the catalog.
func (c Catalog) Contains(key Key) bool {
	_, ok := c.index[key]
	return ok
}
