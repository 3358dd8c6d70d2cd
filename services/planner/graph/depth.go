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

// MaxDepth returns the number of edges on the longest dependency chain:
// 0 for a plan with no dependencies, and always exactly one less than the
// critical path's step count for non-empty graphs.
//
// Precondition: g is acyclic. Run DetectCycles first.
func MaxDepth(g *DependencyGraph) int {
	if g.Len() == 0 {
		return 0
	}
	return len(CriticalPath(g)) - 1
}
