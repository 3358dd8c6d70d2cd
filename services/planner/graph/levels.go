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

// PartitionLevels partitions an acyclic graph into ordered parallel groups.
//
// Description:
//
//	Kahn-style topological leveling. Each round collects, in input order,
//	every unplaced step whose dependencies have all been placed in an
//	earlier round; that frontier becomes the next level. Steps inside a
//	level are mutually independent and may execute concurrently; a step
//	never shares a level with any of its dependencies.
//
// Outputs:
//   - [][]string: The levels in execution order. Level 0 holds the steps
//     with no dependencies. Empty (nil) for an empty graph; no level is
//     ever empty.
//   - error: An *InvariantViolationError if a round places nothing while
//     steps remain. Unreachable after DetectCycles has passed; returned
//     loudly rather than dropping the unplaced steps.
//
// Precondition: g is acyclic. Run DetectCycles first.
//
// Thread Safety: Safe for concurrent use; all state is per-call.
func PartitionLevels(g *DependencyGraph) ([][]string, error) {
	if g.Len() == 0 {
		return nil, nil
	}

	placed := make(map[string]bool, g.Len())
	var levels [][]string

	for len(placed) < g.Len() {
		var frontier []string
		for _, id := range g.Order() {
			if placed[id] {
				continue
			}
			ready := true
			for _, dep := range g.DependsOn(id) {
				if !placed[dep] {
					ready = false
					break
				}
			}
			if ready {
				frontier = append(frontier, id)
			}
		}

		if len(frontier) == 0 {
			var unplaced []string
			for _, id := range g.Order() {
				if !placed[id] {
					unplaced = append(unplaced, id)
				}
			}
			return nil, &InvariantViolationError{Unplaced: unplaced}
		}

		for _, id := range frontier {
			placed[id] = true
		}
		levels = append(levels, frontier)
	}

	return levels, nil
}
