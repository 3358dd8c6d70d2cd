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

// CriticalPath returns the longest dependency chain in the graph, ordered
// from the chain's root (a step with no dependencies) to its final step.
//
// Description:
//
//	Memoized longest-path over the acyclic graph. For each step the chain
//	length is 1 plus the longest chain among its dependencies; ties keep
//	the first dependency in declaration order. The overall winner is the
//	first step in input order whose chain is strictly longest, so the
//	result is deterministic. The DFS is iterative with an explicit stack;
//	deep chains cannot blow the goroutine stack.
//
// Outputs:
//   - []string: The critical path, root first. Nil for an empty graph.
//
// Precondition: g is acyclic. Run DetectCycles first.
//
// Thread Safety: Safe for concurrent use; all state is per-call.
func CriticalPath(g *DependencyGraph) []string {
	if g.Len() == 0 {
		return nil
	}

	// length[id] is the node count of the longest chain ending at id.
	// pred[id] is the dependency that chain arrives through, "" at roots.
	length := make(map[string]int, g.Len())
	pred := make(map[string]string, g.Len())

	for _, root := range g.Order() {
		if _, done := length[root]; done {
			continue
		}

		// Post-order: a step is resolved only after all its dependencies.
		type frame struct {
			id       string
			expanded bool
		}
		stack := []frame{{id: root}}

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if !top.expanded {
				top.expanded = true
				for _, dep := range g.DependsOn(top.id) {
					if _, done := length[dep]; !done {
						stack = append(stack, frame{id: dep})
					}
				}
				continue
			}

			id := top.id
			stack = stack[:len(stack)-1]
			if _, done := length[id]; done {
				continue
			}

			best, bestDep := 0, ""
			for _, dep := range g.DependsOn(id) {
				if length[dep] > best {
					best = length[dep]
					bestDep = dep
				}
			}
			length[id] = best + 1
			pred[id] = bestDep
		}
	}

	// First strictly-longest step in input order terminates the path.
	tail, bestLen := "", 0
	for _, id := range g.Order() {
		if length[id] > bestLen {
			bestLen = length[id]
			tail = id
		}
	}

	path := make([]string, 0, bestLen)
	for id := tail; id != ""; id = pred[id] {
		path = append(path, id)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
