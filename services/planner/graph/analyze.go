// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/AleutianPlan/services/planner/datatypes"
)

var analyzerTracer = otel.Tracer("planner.graph.analyzer")

// AnalyzerOptions configures an Analyzer.
type AnalyzerOptions struct {
	// MaxSteps caps the number of steps in one plan. Zero or negative
	// means DefaultMaxSteps.
	MaxSteps int
}

// Analyzer runs the full structural analysis pipeline: build, cycle check,
// leveling, critical path, depth, and resequencing.
//
// Thread Safety: Immutable after NewAnalyzer; safe for concurrent use.
type Analyzer struct {
	maxSteps int
}

// NewAnalyzer constructs an Analyzer with the given options.
func NewAnalyzer(opts AnalyzerOptions) *Analyzer {
	maxSteps := opts.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	return &Analyzer{maxSteps: maxSteps}
}

// Analyze runs the pipeline over the given steps and assembles the
// PlanAnalysis artifact.
//
// Description:
//
//	Validates and builds the dependency graph, proves it acyclic, then
//	computes parallel groups, critical path, and max depth, and rewrites
//	each step's sequence_order to its group index (stable within a
//	group). The pipeline is deterministic: identical input yields a
//	byte-identical artifact. On any error nothing is returned; there is
//	no partial artifact and the caller's steps are not mutated.
//
// Inputs:
//   - ctx: Context for tracing. Must not be nil.
//   - planID: Plan identifier copied into the artifact. May be empty.
//   - steps: The plan's steps. Mutated (sequence_order, slice order)
//     only on success.
//
// Outputs:
//   - *datatypes.PlanAnalysis: The analysis artifact. Nil on error.
//   - error: ErrMaxStepsExceeded, or a validation error from BuildGraph,
//     DetectCycles, or PartitionLevels.
//
// Thread Safety: Safe for concurrent calls over distinct step slices.
func (a *Analyzer) Analyze(ctx context.Context, planID string, steps []*datatypes.Step) (*datatypes.PlanAnalysis, error) {
	ctx, span := analyzerTracer.Start(ctx, "graph.Analyze")
	defer span.End()
	span.SetAttributes(
		attribute.String("plan_id", planID),
		attribute.Int("step_count", len(steps)),
	)
	start := time.Now()

	if len(steps) > a.maxSteps {
		err := fmt.Errorf("%w: %d steps, limit %d", ErrMaxStepsExceeded, len(steps), a.maxSteps)
		return nil, a.fail(span, err)
	}

	g, err := BuildGraph(ctx, steps)
	if err != nil {
		return nil, a.fail(span, err)
	}

	if err := DetectCycles(g); err != nil {
		return nil, a.fail(span, err)
	}

	levels, err := PartitionLevels(g)
	if err != nil {
		return nil, a.fail(span, err)
	}

	critical := CriticalPath(g)
	depth := 0
	if len(critical) > 0 {
		depth = len(critical) - 1
	}

	Resequence(steps, levels)

	elapsed := time.Since(start)
	analysis := &datatypes.PlanAnalysis{
		PlanID:          planID,
		DependencyGraph: g.Adjacency(),
		CriticalPath:    critical,
		ParallelGroups:  levels,
		Steps:           steps,
		Analysis: datatypes.AnalysisStats{
			MaxDepth:             depth,
			TotalSteps:           len(steps),
			LevelCount:           len(levels),
			ProcessingDurationMs: elapsed.Milliseconds(),
		},
	}

	span.SetAttributes(
		attribute.Int("level_count", len(levels)),
		attribute.Int("max_depth", depth),
	)
	span.SetStatus(codes.Ok, "")
	analyzeTotal.WithLabelValues("ok").Inc()
	analyzeDuration.Observe(elapsed.Seconds())
	analyzeSteps.Observe(float64(len(steps)))

	slog.Debug("plan analyzed",
		slog.String("plan_id", planID),
		slog.Int("steps", len(steps)),
		slog.Int("levels", len(levels)),
		slog.Int("max_depth", depth),
		slog.Duration("elapsed", elapsed),
	)
	return analysis, nil
}

// fail records the error on the span and the outcome counter, then returns
// the error unchanged.
func (a *Analyzer) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	analyzeTotal.WithLabelValues(outcomeLabel(err)).Inc()
	return err
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, ErrDanglingDependency):
		return "dangling"
	case errors.Is(err, ErrCyclicDependency):
		return "cycle"
	case errors.Is(err, ErrMaxStepsExceeded):
		return "too_large"
	case errors.Is(err, ErrInvariantViolation):
		return "invariant"
	default:
		return "invalid"
	}
}
