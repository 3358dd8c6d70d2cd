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
	"sort"

	"github.com/AleutianAI/AleutianPlan/services/planner/datatypes"
)

// Resequence rewrites each step's SequenceOrder to its level index and
// stable-sorts the slice by that order.
//
// Description:
//
//	Steps in the same level share a sequence_order value; a step always
//	carries a strictly greater order than every step it depends on. The
//	sort is stable, so steps within a level keep their relative input
//	order. This is the only mutation the engine performs on caller data.
//
// Inputs:
//   - steps: The caller's steps, mutated in place.
//   - levels: The output of PartitionLevels for the same steps.
//
// A step id missing from levels is left untouched; Analyzer.Analyze never
// produces that state because PartitionLevels fails loudly instead.
//
// Thread Safety: NOT safe for concurrent calls over the same slice.
func Resequence(steps []*datatypes.Step, levels [][]string) {
	levelOf := make(map[string]int, len(steps))
	for i, level := range levels {
		for _, id := range level {
			levelOf[id] = i
		}
	}

	for _, s := range steps {
		if lvl, ok := levelOf[s.StepID]; ok {
			s.SequenceOrder = lvl
		}
	}

	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].SequenceOrder < steps[j].SequenceOrder
	})
}
