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
	"reflect"
	"testing"

	"github.com/AleutianAI/AleutianPlan/services/planner/datatypes"
)

// step builds a test step depending on the given ids, in order.
func step(id string, deps ...string) *datatypes.Step {
	s := &datatypes.Step{StepID: id, Name: id}
	for _, d := range deps {
		s.Dependencies = append(s.Dependencies, datatypes.Dependency{
			DependsOn: d,
			Kind:      datatypes.DependencyBlocking,
		})
	}
	return s
}

// diamond is A <- {B, C} <- D.
func diamond() []*datatypes.Step {
	return []*datatypes.Step{
		step("A"),
		step("B", "A"),
		step("C", "A"),
		step("D", "B", "C"),
	}
}

func TestBuildGraph(t *testing.T) {
	ctx := context.Background()

	t.Run("builds adjacency in declaration order", func(t *testing.T) {
		g, err := BuildGraph(ctx, diamond())
		if err != nil {
			t.Fatalf("BuildGraph: %v", err)
		}
		if g.Len() != 4 {
			t.Fatalf("Len = %d, want 4", g.Len())
		}
		if got := g.DependsOn("D"); !reflect.DeepEqual(got, []string{"B", "C"}) {
			t.Errorf("DependsOn(D) = %v, want [B C]", got)
		}
		if got := g.DependsOn("A"); len(got) != 0 {
			t.Errorf("DependsOn(A) = %v, want empty", got)
		}
		if got := g.Order(); !reflect.DeepEqual(got, []string{"A", "B", "C", "D"}) {
			t.Errorf("Order = %v, want input order", got)
		}
		if g.EdgeCount() != 4 {
			t.Errorf("EdgeCount = %d, want 4", g.EdgeCount())
		}
	})

	t.Run("forward references resolve", func(t *testing.T) {
		g, err := BuildGraph(ctx, []*datatypes.Step{
			step("first", "second"),
			step("second"),
		})
		if err != nil {
			t.Fatalf("BuildGraph: %v", err)
		}
		if !g.Contains("second") {
			t.Error("graph should contain forward-referenced step")
		}
	})

	t.Run("dangling dependency fails with both ids", func(t *testing.T) {
		_, err := BuildGraph(ctx, []*datatypes.Step{step("A", "Z")})
		if !errors.Is(err, ErrDanglingDependency) {
			t.Fatalf("err = %v, want ErrDanglingDependency", err)
		}
		var dangling *DanglingDependencyError
		if !errors.As(err, &dangling) {
			t.Fatalf("err = %T, want *DanglingDependencyError", err)
		}
		if dangling.StepID != "A" || dangling.DependsOn != "Z" {
			t.Errorf("got %q -> %q, want A -> Z", dangling.StepID, dangling.DependsOn)
		}
	})

	t.Run("duplicate step id rejected", func(t *testing.T) {
		_, err := BuildGraph(ctx, []*datatypes.Step{step("A"), step("A")})
		if !errors.Is(err, ErrDuplicateStep) {
			t.Fatalf("err = %v, want ErrDuplicateStep", err)
		}
	})

	t.Run("empty step id rejected", func(t *testing.T) {
		_, err := BuildGraph(ctx, []*datatypes.Step{step("")})
		if !errors.Is(err, ErrEmptyStepID) {
			t.Fatalf("err = %v, want ErrEmptyStepID", err)
		}
	})

	t.Run("empty input yields empty graph", func(t *testing.T) {
		g, err := BuildGraph(ctx, nil)
		if err != nil {
			t.Fatalf("BuildGraph: %v", err)
		}
		if g.Len() != 0 {
			t.Errorf("Len = %d, want 0", g.Len())
		}
	})
}

func TestAdjacencyArtifact(t *testing.T) {
	g, err := BuildGraph(context.Background(), diamond())
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}
	adj := g.Adjacency()
	if len(adj) != 4 {
		t.Fatalf("adjacency has %d keys, want 4", len(adj))
	}
	if adj["A"] == nil {
		t.Error("independent step must map to empty non-nil slice")
	}

	// Mutating the copy must not leak back into the graph.
	adj["D"][0] = "X"
	if g.DependsOn("D")[0] != "B" {
		t.Error("Adjacency must return copies")
	}
}
