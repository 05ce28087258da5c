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
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func openMemory(t *testing.T) *DB {
	t.Helper()
	db, err := Open(InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// TestOpen_InMemory verifies writes are readable in the same database.
func TestOpen_InMemory(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()

	err := db.WithTxn(ctx, func(txn *badger.Txn) error {
		return txn.Set([]byte("k"), []byte("v"))
	})
	require.NoError(t, err)

	err = db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("k"))
		require.NoError(t, err)
		return item.Value(func(val []byte) error {
			assert.Equal(t, []byte("v"), val)
			return nil
		})
	})
	require.NoError(t, err)
	assert.Empty(t, db.Path())
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(Config{})
	assert.Error(t, err)
}

// TestOpen_PersistsAcrossReopen verifies the on-disk layout survives a close.
func TestOpen_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	db, err := Open(DefaultConfig(dir))
	require.NoError(t, err)
	assert.Equal(t, dir, db.Path())

	store := NewHighScoreStore(db, nil)
	require.NoError(t, store.Store(ctx, 420))
	require.NoError(t, db.Close())

	db2, err := Open(DefaultConfig(dir))
	require.NoError(t, err)
	defer db2.Close()

	v, err := NewHighScoreStore(db2, nil).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 420, v)
}

func TestOpen_WithLoggerAndGC(t *testing.T) {
	cfg := DefaultConfig(t.TempDir())
	cfg.Logger = slog.New(slog.DiscardHandler)
	cfg.GCInterval = 10 * time.Millisecond

	db, err := Open(cfg)
	require.NoError(t, err)
	require.NotNil(t, db.gc)

	time.Sleep(30 * time.Millisecond)
	require.NoError(t, db.Close())
}

func TestWithTxn_RollsBackOnError(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := db.WithTxn(ctx, func(txn *badger.Txn) error {
		if err := txn.Set([]byte("k"), []byte("v")); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	err = db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		_, err := txn.Get([]byte("k"))
		return err
	})
	assert.ErrorIs(t, err, badger.ErrKeyNotFound)
}

func TestWithTxn_CancelledContext(t *testing.T) {
	db := openMemory(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := db.WithTxn(ctx, func(*badger.Txn) error { called = true; return nil })
	assert.ErrorIs(t, err, context.Canceled)
	err = db.WithReadTxn(ctx, func(*badger.Txn) error { called = true; return nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

// =============================================================================
// High scores
// =============================================================================

func TestHighScoreStore_MissingIsZero(t *testing.T) {
	store := NewHighScoreStore(openMemory(t), nil)

	v, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Zero(t, v)
	assert.Zero(t, store.HighScore(context.Background()))
}

func TestHighScoreStore_SaveAndReset(t *testing.T) {
	store := NewHighScoreStore(openMemory(t), nil)
	ctx := context.Background()

	store.SaveHighScore(ctx, 130)
	assert.Equal(t, 130, store.HighScore(ctx))

	store.SaveHighScore(ctx, 90)
	assert.Equal(t, 90, store.HighScore(ctx), "the store keeps what it is given")

	require.NoError(t, store.Reset(ctx))
	assert.Zero(t, store.HighScore(ctx))
	require.NoError(t, store.Reset(ctx), "reset of a missing record succeeds")
}

func TestHighScoreStore_RejectsNegative(t *testing.T) {
	store := NewHighScoreStore(openMemory(t), nil)
	ctx := context.Background()

	assert.Error(t, store.Store(ctx, -1))
	store.SaveHighScore(ctx, -5)
	assert.Zero(t, store.HighScore(ctx))
}

func TestHighScoreStore_CorruptValueReadsAsZero(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()
	require.NoError(t, db.WithTxn(ctx, func(txn *badger.Txn) error {
		return txn.Set(highScoreKey, []byte("lots"))
	}))

	store := NewHighScoreStore(db, nil)
	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ErrCorruptHighScore)
	assert.Zero(t, store.HighScore(ctx))

	store.SaveHighScore(ctx, 40)
	assert.Equal(t, 40, store.HighScore(ctx))
}

func TestTxn_Spans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer tp.Shutdown(context.Background())

	cfg := InMemoryConfig()
	cfg.TracerProvider = tp
	db, err := Open(cfg)
	require.NoError(t, err)
	defer db.Close()

	ctx, parent := tp.Tracer("test").Start(context.Background(), "parent")
	require.NoError(t, NewHighScoreStore(db, nil).Store(ctx, 70))

	boom := errors.New("boom")
	err = db.WithReadTxn(context.Background(), func(*badger.Txn) error { return boom })
	require.ErrorIs(t, err, boom)
	parent.End()

	spans := recorder.Ended()
	require.Len(t, spans, 3)

	write := spans[0]
	assert.Equal(t, "DB.WithTxn", write.Name())
	assert.Equal(t, parent.SpanContext().SpanID(), write.Parent().SpanID())
	assert.Equal(t, codes.Unset, write.Status().Code)

	read := spans[1]
	assert.Equal(t, "DB.WithReadTxn", read.Name())
	assert.Equal(t, codes.Error, read.Status().Code)
	assert.Equal(t, "boom", read.Status().Description)
}
