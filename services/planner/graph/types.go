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

// Default configuration values.
const (
	// DefaultMaxSteps is the default maximum number of steps a single plan
	// may contain. Real plans rarely exceed a few hundred steps; the cap
	// exists to bound memory for hostile or broken callers.
	DefaultMaxSteps = 10_000
)

// DependencyGraph is the validated adjacency-list form of a plan: each step
// id maps to the ordered list of step ids it depends on, in declaration
// order. The graph also remembers the original step input order, which
// every traversal uses for deterministic output.
//
// A DependencyGraph is immutable after BuildGraph returns it and is safe
// for concurrent reads.
type DependencyGraph struct {
	// order holds all step ids in original input order.
	order []string

	// deps maps step id to its dependency ids in declaration order.
	deps map[string][]string
}

// Len returns the number of steps in the graph.
func (g *DependencyGraph) Len() int { return len(g.order) }

// Order returns the step ids in original input order. The returned slice
// is owned by the graph and must not be modified.
func (g *DependencyGraph) Order() []string { return g.order }

// DependsOn returns the dependency ids of the given step in declaration
// order, or nil if the step has no dependencies. The returned slice is
// owned by the graph and must not be modified.
func (g *DependencyGraph) DependsOn(id string) []string { return g.deps[id] }

// Contains reports whether the graph has a step with the given id.
func (g *DependencyGraph) Contains(id string) bool {
	_, ok := g.deps[id]
	return ok
}

// EdgeCount returns the total number of dependency edges.
func (g *DependencyGraph) EdgeCount() int {
	n := 0
	for _, d := range g.deps {
		n += len(d)
	}
	return n
}

// Adjacency returns a fresh step_id -> depends_on map suitable for the
// PlanAnalysis artifact. Every step appears as a key; steps without
// dependencies map to an empty (non-nil) slice so the serialized artifact
// is stable.
func (g *DependencyGraph) Adjacency() map[string][]string {
	adj := make(map[string][]string, len(g.order))
	for _, id := range g.order {
		deps := g.deps[id]
		out := make([]string, len(deps))
		copy(out, deps)
		adj[id] = out
	}
	return adj
}
