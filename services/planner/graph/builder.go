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
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/AleutianPlan/services/planner/datatypes"
)

var builderTracer = otel.Tracer("planner.graph.builder")

// BuildGraph converts an ordered step list into a validated DependencyGraph.
//
// Description:
//
//	Pure transform: registers every step id, then records each step's
//	dependency ids in declaration order. Every dependency target must
//	resolve to a known step id; on the first unresolved target the build
//	aborts with a DanglingDependencyError and no graph is returned.
//
// Inputs:
//   - ctx: Context for tracing. Must not be nil.
//   - steps: Ordered step list. Step ids must be non-empty and unique.
//
// Outputs:
//   - *DependencyGraph: The validated graph. Nil on error.
//   - error: ErrEmptyStepID, ErrDuplicateStep, or ErrDanglingDependency.
//
// Acyclicity is NOT checked here; run DetectCycles on the result before
// leveling or path analysis.
//
// Thread Safety: Safe for concurrent use; no shared state.
func BuildGraph(ctx context.Context, steps []*datatypes.Step) (*DependencyGraph, error) {
	_, span := builderTracer.Start(ctx, "graph.BuildGraph")
	defer span.End()
	span.SetAttributes(attribute.Int("step_count", len(steps)))

	g := &DependencyGraph{
		order: make([]string, 0, len(steps)),
		deps:  make(map[string][]string, len(steps)),
	}

	// First pass: register ids so forward references resolve.
	for _, s := range steps {
		if s.StepID == "" {
			err := fmt.Errorf("%w: step at position %d", ErrEmptyStepID, len(g.order))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		if _, exists := g.deps[s.StepID]; exists {
			err := fmt.Errorf("%w: %q", ErrDuplicateStep, s.StepID)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		g.order = append(g.order, s.StepID)
		g.deps[s.StepID] = nil
	}

	// Second pass: link dependencies in declaration order.
	edges := 0
	for _, s := range steps {
		for _, d := range s.Dependencies {
			if _, ok := g.deps[d.DependsOn]; !ok {
				err := &DanglingDependencyError{StepID: s.StepID, DependsOn: d.DependsOn}
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return nil, err
			}
			g.deps[s.StepID] = append(g.deps[s.StepID], d.DependsOn)
			edges++
		}
	}

	span.SetAttributes(attribute.Int("edge_count", edges))
	span.SetStatus(codes.Ok, "")

	slog.Debug("dependency graph built",
		slog.Int("steps", len(g.order)),
		slog.Int("edges", edges),
	)
	return g, nil
}
