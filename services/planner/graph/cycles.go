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

// dfsColor is the three-color marking used by the cycle scan.
type dfsColor uint8

const (
	colorWhite dfsColor = iota // unvisited
	colorGray                  // on the current DFS path
	colorBlack                 // fully explored, proven cycle-free
)

// DetectCycles scans the graph for dependency cycles.
//
// Description:
//
//	Depth-first search with three-color marking. Traversal starts from
//	every step in input order and follows dependencies in declaration
//	order, so the reported cycle is deterministic for a given input.
//	Hitting a gray node means the current path loops; the cycle chain is
//	recovered from the path stack starting at the repeated node.
//
// Outputs:
//   - error: Nil when the graph is acyclic. A *CyclicDependencyError
//     carrying the first detected cycle otherwise.
//
// Thread Safety: Safe for concurrent use; all state is per-call.
func DetectCycles(g *DependencyGraph) error {
	colors := make(map[string]dfsColor, g.Len())
	// path is the gray chain from the current root to the node being
	// expanded, used only to reconstruct the cycle.
	path := make([]string, 0, g.Len())

	var visit func(id string) *CyclicDependencyError
	visit = func(id string) *CyclicDependencyError {
		colors[id] = colorGray
		path = append(path, id)

		for _, dep := range g.DependsOn(id) {
			switch colors[dep] {
			case colorGray:
				return newCycleError(path, dep)
			case colorWhite:
				if cycErr := visit(dep); cycErr != nil {
					return cycErr
				}
			}
		}

		path = path[:len(path)-1]
		colors[id] = colorBlack
		return nil
	}

	for _, id := range g.Order() {
		if colors[id] != colorWhite {
			continue
		}
		if cycErr := visit(id); cycErr != nil {
			return cycErr
		}
	}
	return nil
}

// newCycleError builds the error for a back edge from the top of path to
// repeated, which is known to be gray and therefore somewhere on path.
func newCycleError(path []string, repeated string) *CyclicDependencyError {
	start := 0
	for i, id := range path {
		if id == repeated {
			start = i
			break
		}
	}

	involved := make([]string, len(path)-start)
	copy(involved, path[start:])

	chain := make([]string, 0, len(involved)+1)
	chain = append(chain, involved...)
	chain = append(chain, repeated)

	return &CyclicDependencyError{Chain: chain, Involved: involved}
}
