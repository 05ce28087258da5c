// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/speedmaster/services/speedmaster/gateway"
)

// highScoreKey holds the best score as a decimal string.
var highScoreKey = []byte("speedmaster/high_score")

// ErrCorruptHighScore is returned when the stored value is not a
// non-negative integer.
var ErrCorruptHighScore = errors.New("stored high score is corrupt")

// HighScoreStore persists the high score.
//
// # Description
//
// The gateway methods (HighScore, SaveHighScore) never fail: read errors
// yield 0 and write errors are logged. Load, Store and Reset return
// errors for CLI use.
//
// # Thread Safety
//
// Safe for concurrent use.
type HighScoreStore struct {
	db  *DB
	log *slog.Logger
}

// NewHighScoreStore wraps db.
func NewHighScoreStore(db *DB, logger *slog.Logger) *HighScoreStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &HighScoreStore{
		db:  db,
		log: logger.With(slog.String("component", "highscores")),
	}
}

// Load returns the stored high score. A missing record is 0, nil.
func (s *HighScoreStore) Load(ctx context.Context) (int, error) {
	var v int
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get(highScoreKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			n, err := strconv.Atoi(strings.TrimSpace(string(val)))
			if err != nil || n < 0 {
				return fmt.Errorf("%w: %q", ErrCorruptHighScore, val)
			}
			v = n
			return nil
		})
	})
	if err != nil {
		return 0, fmt.Errorf("load high score: %w", err)
	}
	return v, nil
}

// Store writes v. Negative values are rejected.
func (s *HighScoreStore) Store(ctx context.Context, v int) error {
	if v < 0 {
		return fmt.Errorf("store high score: negative value %d", v)
	}
	err := s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		return txn.Set(highScoreKey, []byte(strconv.Itoa(v)))
	})
	if err != nil {
		return fmt.Errorf("store high score: %w", err)
	}
	return nil
}

// Reset deletes the stored high score.
func (s *HighScoreStore) Reset(ctx context.Context) error {
	err := s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		return txn.Delete(highScoreKey)
	})
	if err != nil {
		return fmt.Errorf("reset high score: %w", err)
	}
	return nil
}

// HighScore implements gateway.HighScores.
func (s *HighScoreStore) HighScore(ctx context.Context) int {
	v, err := s.Load(ctx)
	if err != nil {
		s.log.Warn("high score unreadable, using 0", slog.String("error", err.Error()))
		return 0
	}
	return v
}

// SaveHighScore implements gateway.HighScores.
func (s *HighScoreStore) SaveHighScore(ctx context.Context, v int) {
	if err := s.Store(ctx, v); err != nil {
		s.log.Warn("high score not saved", slog.Int("value", v), slog.String("error", err.Error()))
		return
	}
	s.log.Debug("high score saved", slog.Int("value", v))
}

var _ gateway.HighScores = (*HighScoreStore)(nil)
