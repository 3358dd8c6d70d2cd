// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package decomposer

import "github.com/AleutianAI/AleutianPlan/services/planner/datatypes"

// kindFor maps prerequisite relation types onto dependency edge kinds.
func kindFor(t PrerequisiteType) datatypes.DependencyKind {
	switch t {
	case PrerequisiteData:
		return datatypes.DependencyData
	case PrerequisiteResource:
		return datatypes.DependencyResource
	case PrerequisiteSoft:
		return datatypes.DependencySequential
	default:
		return datatypes.DependencyBlocking
	}
}

// Steps converts a decomposition into the step list the graph engine
// consumes. Tasks keep their output order; each prerequisite relation
// becomes a dependency edge on the dependent task, deduplicated by target
// with the first relation's kind winning.
func (o *Output) Steps() []*datatypes.Step {
	steps := make([]*datatypes.Step, 0, len(o.Tasks))
	byID := make(map[string]*datatypes.Step, len(o.Tasks))

	for _, t := range o.Tasks {
		s := &datatypes.Step{
			StepID:      t.ID,
			Name:        t.Name,
			Description: t.Description,
			Tags:        t.Tags,
			Criticality: t.Complexity,
		}
		steps = append(steps, s)
		byID[t.ID] = s
	}

	seen := make(map[string]map[string]bool)
	for _, p := range o.Prerequisites {
		dependent, ok := byID[p.DependentTaskID]
		if !ok {
			continue
		}
		if _, ok := byID[p.PrerequisiteTaskID]; !ok {
			continue
		}
		if seen[p.DependentTaskID] == nil {
			seen[p.DependentTaskID] = make(map[string]bool)
		}
		if seen[p.DependentTaskID][p.PrerequisiteTaskID] {
			continue
		}
		seen[p.DependentTaskID][p.PrerequisiteTaskID] = true
		dependent.Dependencies = append(dependent.Dependencies, datatypes.Dependency{
			DependsOn: p.PrerequisiteTaskID,
			Kind:      kindFor(p.Type),
		})
	}

	return steps
}
