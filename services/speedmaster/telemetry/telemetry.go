// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry exports gameplay metrics to Prometheus.
//
// # Description
//
// Metrics implements session.Metrics on a private registry. Serve
// exposes the registry on /metrics when the player asks for it with
// --metrics-addr; otherwise the counters are still collected and cost
// nothing to read.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AleutianAI/speedmaster/services/speedmaster/notes"
	"github.com/AleutianAI/speedmaster/services/speedmaster/session"
)

const (
	metricsNamespace = "speedmaster"
	gameSubsystem    = "game"
)

// Metrics holds the gameplay collectors.
type Metrics struct {
	registry *prometheus.Registry

	// GamesTotal counts started runs.
	GamesTotal prometheus.Counter

	// NotesPresentedTotal counts drawn notes. Labels: note
	NotesPresentedTotal *prometheus.CounterVec

	// NotesHitTotal counts correct presses. Labels: note
	NotesHitTotal *prometheus.CounterVec

	// MissesTotal counts run-ending misses. Labels: note, reason
	MissesTotal *prometheus.CounterVec

	// ReactionSeconds measures time from note to correct press. Labels: note
	ReactionSeconds *prometheus.HistogramVec

	// FinalScore records the score of every finished run.
	FinalScore prometheus.Histogram

	// Level is the level of the current or last run.
	Level prometheus.Gauge

	// HighScoreValue mirrors the stored high score.
	HighScoreValue prometheus.Gauge
}

// New creates Metrics on a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return newOn(reg)
}

func newOn(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		GamesTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: gameSubsystem,
			Name:      "runs_total",
			Help:      "Total runs started",
		}),
		NotesPresentedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: gameSubsystem,
			Name:      "notes_presented_total",
			Help:      "Notes presented by key",
		}, []string{"note"}),
		NotesHitTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: gameSubsystem,
			Name:      "notes_hit_total",
			Help:      "Correct presses by key",
		}, []string{"note"}),
		MissesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: gameSubsystem,
			Name:      "misses_total",
			Help:      "Run-ending misses by key and reason",
		}, []string{"note", "reason"}),
		ReactionSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: gameSubsystem,
			Name:      "reaction_seconds",
			Help:      "Time from note presentation to correct press",
			Buckets:   []float64{0.2, 0.4, 0.6, 0.8, 1.0, 1.5, 2.0, 2.5, 3.0},
		}, []string{"note"}),
		FinalScore: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: gameSubsystem,
			Name:      "final_score",
			Help:      "Score at the end of each run",
			Buckets:   prometheus.LinearBuckets(0, 100, 11),
		}),
		Level: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: gameSubsystem,
			Name:      "level",
			Help:      "Level of the current or last run",
		}),
		HighScoreValue: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: gameSubsystem,
			Name:      "high_score",
			Help:      "Stored high score",
		}),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// GameStarted implements session.Metrics.
func (m *Metrics) GameStarted() {
	m.GamesTotal.Inc()
	m.Level.Set(1)
}

// NotePresented implements session.Metrics.
func (m *Metrics) NotePresented(key notes.Key) {
	m.NotesPresentedTotal.WithLabelValues(key.String()).Inc()
}

// NoteHit implements session.Metrics.
func (m *Metrics) NoteHit(key notes.Key, reaction time.Duration, level int) {
	m.NotesHitTotal.WithLabelValues(key.String()).Inc()
	m.ReactionSeconds.WithLabelValues(key.String()).Observe(reaction.Seconds())
	m.Level.Set(float64(level))
}

// NoteMissed implements session.Metrics.
func (m *Metrics) NoteMissed(key notes.Key, reason session.MissReason) {
	m.MissesTotal.WithLabelValues(key.String(), string(reason)).Inc()
}

// GameOver implements session.Metrics.
func (m *Metrics) GameOver(score, level int) {
	m.FinalScore.Observe(float64(score))
	m.Level.Set(float64(level))
}

// HighScore implements session.Metrics.
func (m *Metrics) HighScore(v int) {
	m.HighScoreValue.Set(float64(v))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Serve exposes /metrics on addr until ctx is cancelled.
//
// # Outputs
//
//   - error: Non-nil if the listener fails. A clean shutdown returns nil.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return m.serve(ctx, ln, logger)
}

func (m *Metrics) serve(ctx context.Context, ln net.Listener, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	logger.Info("metrics server listening", slog.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics server shutdown: %w", err)
		}
		return nil
	}
}

var _ session.Metrics = (*Metrics)(nil)
