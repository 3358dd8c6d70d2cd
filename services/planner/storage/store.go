// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package storage persists planner artifacts in an embedded BadgerDB:
// plan analyses, decision events, and execution records. Artifacts are
// stored as JSON under typed key prefixes and read back by id.
//
// License: BadgerDB is Apache 2.0 licensed (github.com/dgraph-io/badger).
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/AleutianPlan/services/planner/datatypes"
	"github.com/AleutianAI/AleutianPlan/services/planner/telemetry"
)

// Key prefixes. One prefix per artifact type keeps iteration cheap.
const (
	prefixAnalysis  = "plan/analysis/"
	prefixDecision  = "plan/decision/"
	prefixExecution = "plan/execution/"
)

// ErrNotFound is returned when no artifact exists under the requested id.
var ErrNotFound = errors.New("artifact not found")

// Config holds configuration for the plan store.
type Config struct {
	// Path is the directory for database files. Required unless InMemory.
	Path string

	// InMemory disables disk persistence. Useful for testing.
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// GCInterval is how often to run value log garbage collection.
	// Zero disables GC. Ignored for in-memory stores.
	GCInterval time.Duration

	// GCDiscardRatio is the minimum discardable ratio before GC runs.
	GCDiscardRatio float64

	// Logger receives the database's internal log output. Nil silences it.
	Logger *slog.Logger
}

// DefaultConfig returns production defaults: synchronous writes and GC
// every five minutes at a 0.5 discard ratio.
func DefaultConfig(path string) Config {
	return Config{
		Path:           path,
		SyncWrites:     true,
		GCInterval:     5 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

// InMemoryConfig returns a disk-free configuration for tests.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Store is the planner's artifact store.
//
// Thread Safety: Safe for concurrent use.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
	stopGC chan struct{}
	doneGC chan struct{}
}

// Open opens the store, creating the directory if needed, and starts the
// GC loop when configured. Call Close when done.
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create store directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open plan store: %w", err)
	}

	s := &Store{db: db, logger: cfg.Logger}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		s.stopGC = make(chan struct{})
		s.doneGC = make(chan struct{})
		go s.runGC(cfg.GCInterval, cfg.GCDiscardRatio)
	}
	return s, nil
}

// Close stops the GC loop and closes the database.
func (s *Store) Close() error {
	if s.stopGC != nil {
		close(s.stopGC)
		<-s.doneGC
		s.stopGC = nil
	}
	return s.db.Close()
}

func (s *Store) runGC(interval time.Duration, ratio float64) {
	defer close(s.doneGC)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopGC:
			return
		case <-ticker.C:
			err := s.db.RunValueLogGC(ratio)
			switch {
			case err == nil:
				if s.logger != nil {
					s.logger.Debug("plan store value log GC completed")
				}
			case errors.Is(err, badger.ErrNoRewrite):
				// Nothing to collect.
			default:
				if s.logger != nil {
					s.logger.Warn("plan store value log GC error",
						slog.String("error", err.Error()))
				}
			}
		}
	}
}

// SaveAnalysis stores a plan analysis under its plan id, replacing any
// previous analysis for the plan.
func (s *Store) SaveAnalysis(ctx context.Context, analysis *datatypes.PlanAnalysis) error {
	if analysis.PlanID == "" {
		return errors.New("analysis has no plan id")
	}
	return s.put(ctx, prefixAnalysis+analysis.PlanID, analysis)
}

// GetAnalysis loads the analysis stored for the given plan id.
func (s *Store) GetAnalysis(ctx context.Context, planID string) (*datatypes.PlanAnalysis, error) {
	var analysis datatypes.PlanAnalysis
	if err := s.get(ctx, prefixAnalysis+planID, &analysis); err != nil {
		return nil, err
	}
	return &analysis, nil
}

// SaveDecision stores a decision event under its event id.
func (s *Store) SaveDecision(ctx context.Context, event *datatypes.DecisionEvent) error {
	return s.put(ctx, prefixDecision+event.ID.String(), event)
}

// GetDecision loads a decision event by event id.
func (s *Store) GetDecision(ctx context.Context, id string) (*datatypes.DecisionEvent, error) {
	var event datatypes.DecisionEvent
	if err := s.get(ctx, prefixDecision+id, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// SaveExecutionRecord stores an execution record under its execution id.
func (s *Store) SaveExecutionRecord(ctx context.Context, rec *telemetry.ExecutionRecord) error {
	if rec.ExecutionID == "" {
		return errors.New("execution record has no execution id")
	}
	return s.put(ctx, prefixExecution+rec.ExecutionID, rec)
}

// GetExecutionRecord loads an execution record by execution id.
func (s *Store) GetExecutionRecord(ctx context.Context, executionID string) (*telemetry.ExecutionRecord, error) {
	var rec telemetry.ExecutionRecord
	if err := s.get(ctx, prefixExecution+executionID, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListAnalyzedPlans returns the plan ids with a stored analysis, in key
// order.
func (s *Store) ListAnalyzedPlans(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefixAnalysis)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			ids = append(ids, key[len(prefixAnalysis):])
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list analyzed plans: %w", err)
	}
	return ids, nil
}

func (s *Store) put(ctx context.Context, key string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	return nil
}

func (s *Store) get(ctx context.Context, key string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(data []byte) error {
			return json.Unmarshal(data, value)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	return nil
}
