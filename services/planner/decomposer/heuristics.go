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

import (
	"fmt"
	"sort"
	"strings"

	"github.com/AleutianAI/AleutianPlan/services/planner/datatypes"
)

// analyzeComplexity scores an objective. A context hint wins outright;
// otherwise word count, multi-part structure, and technical vocabulary
// drive the score.
func analyzeComplexity(objective string, dctx *Context) datatypes.Criticality {
	if dctx != nil && dctx.Complexity != "" {
		return dctx.Complexity
	}

	words := len(strings.Fields(objective))
	multiPart := strings.Contains(objective, " and ") || strings.Contains(objective, ", ")

	technical := false
	lower := strings.ToLower(objective)
	for _, term := range []string{"integrate", "migrate", "refactor", "security", "performance"} {
		if strings.Contains(lower, term) {
			technical = true
			break
		}
	}

	switch {
	case technical && multiPart:
		return datatypes.CriticalityCritical
	case multiPart && words > 20:
		return datatypes.CriticalityHigh
	case technical && words > 10:
		return datatypes.CriticalityHigh
	case multiPart && words > 10:
		return datatypes.CriticalityMedium
	case words > 15:
		return datatypes.CriticalityMedium
	default:
		return datatypes.CriticalityLow
	}
}

// splitParts breaks an objective on commas and semicolons, dropping bare
// connectives and fragments under three words.
func splitParts(objective string) []string {
	var parts []string
	for _, part := range strings.FieldsFunc(objective, func(r rune) bool {
		return r == ',' || r == ';'
	}) {
		part = strings.TrimSpace(part)
		if part == "" || strings.EqualFold(part, "and") {
			continue
		}
		if len(strings.Fields(part)) < 3 {
			continue
		}
		parts = append(parts, part)
	}
	return parts
}

// tagRules maps keyword sets to domain tags, checked in order so tag
// output is deterministic.
var tagRules = []struct {
	tag      string
	keywords []string
}{
	{"api", []string{"api", "endpoint"}},
	{"data", []string{"database", "sql", "data"}},
	{"testing", []string{"test"}},
	{"security", []string{"security", "auth"}},
	{"frontend", []string{"ui", "frontend", "user interface"}},
	{"backend", []string{"backend", "server"}},
	{"devops", []string{"deploy", "ci", "cd"}},
	{"documentation", []string{"document", "readme"}},
}

func extractTags(text string) []string {
	lower := strings.ToLower(text)
	var tags []string
	for _, rule := range tagRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				tags = append(tags, rule.tag)
				break
			}
		}
	}
	return tags
}

func extractInputs(text string) []TaskInput {
	lower := strings.ToLower(text)
	var inputs []TaskInput
	if strings.Contains(lower, "using") || strings.Contains(lower, "from") {
		inputs = append(inputs, TaskInput{
			Name:        "source_data",
			Description: "Input data or configuration required",
		})
	}
	if strings.Contains(lower, "based on") || strings.Contains(lower, "according to") {
		inputs = append(inputs, TaskInput{
			Name:        "requirements",
			Description: "Requirements or specifications",
		})
	}
	return inputs
}

func extractOutputs(text string) []TaskOutput {
	lower := strings.ToLower(text)
	var outputs []TaskOutput
	if strings.Contains(lower, "create") || strings.Contains(lower, "implement") || strings.Contains(lower, "build") {
		outputs = append(outputs, TaskOutput{
			Name:        "deliverable",
			Description: "Created artifact or implementation",
		})
	}
	if strings.Contains(lower, "document") || strings.Contains(lower, "report") {
		outputs = append(outputs, TaskOutput{
			Name:        "documentation",
			Description: "Documentation or report",
		})
	}
	if strings.Contains(lower, "test") || strings.Contains(lower, "verify") {
		outputs = append(outputs, TaskOutput{
			Name:        "validation_results",
			Description: "Test or validation results",
		})
	}
	return outputs
}

func acceptanceCriteria(text string) []string {
	return []string{
		fmt.Sprintf("Task completed as described: %s", truncate(text, 100)),
		"All outputs are produced",
		"No blocking issues remain",
	}
}

// detectBoundaries groups tasks by shared tag (domain boundaries) and by
// decomposition depth (phase boundaries). Groups are emitted in sorted key
// order so the output is stable.
func detectBoundaries(tasks []AtomicTask) []TaskBoundary {
	var boundaries []TaskBoundary

	tagGroups := make(map[string][]string)
	for _, t := range tasks {
		for _, tag := range t.Tags {
			tagGroups[tag] = append(tagGroups[tag], t.ID)
		}
	}
	for _, tag := range sortedKeys(tagGroups) {
		ids := tagGroups[tag]
		if len(ids) < 2 {
			continue
		}
		boundaries = append(boundaries, TaskBoundary{
			ID:        fmt.Sprintf("boundary-%s", tag),
			Name:      fmt.Sprintf("%s tasks", tag),
			Type:      BoundaryDomain,
			TaskIDs:   ids,
			Rationale: fmt.Sprintf("Tasks related to %s", tag),
		})
	}

	depthGroups := make(map[int][]string)
	maxDepth := 0
	for _, t := range tasks {
		depthGroups[t.Depth] = append(depthGroups[t.Depth], t.ID)
		if t.Depth > maxDepth {
			maxDepth = t.Depth
		}
	}
	for depth := 0; depth <= maxDepth; depth++ {
		ids := depthGroups[depth]
		if len(ids) < 2 {
			continue
		}
		boundaries = append(boundaries, TaskBoundary{
			ID:        fmt.Sprintf("boundary-depth%d", depth),
			Name:      fmt.Sprintf("Level %d tasks", depth),
			Type:      BoundaryPhase,
			TaskIDs:   ids,
			Rationale: fmt.Sprintf("Tasks at decomposition depth %d", depth),
		})
	}

	return boundaries
}

// detectPrerequisites derives prerequisite relations. Subtasks are hard
// prerequisites of their parent; a task whose output name overlaps a later
// task's input name becomes a data prerequisite.
func detectPrerequisites(tasks []AtomicTask) []Prerequisite {
	var prerequisites []Prerequisite

	for _, t := range tasks {
		if t.ParentID == "" {
			continue
		}
		prerequisites = append(prerequisites, Prerequisite{
			PrerequisiteTaskID: t.ID,
			DependentTaskID:    t.ParentID,
			Type:               PrerequisiteHard,
			Confidence:         0.95,
		})
	}

	for i, t := range tasks {
		for _, out := range t.Outputs {
			for _, other := range tasks[i+1:] {
				for _, in := range other.Inputs {
					outName := strings.ToLower(out.Name)
					inName := strings.ToLower(in.Name)
					if strings.Contains(outName, inName) || strings.Contains(inName, outName) {
						prerequisites = append(prerequisites, Prerequisite{
							PrerequisiteTaskID: t.ID,
							DependentTaskID:    other.ID,
							Type:               PrerequisiteData,
							Confidence:         0.7,
						})
					}
				}
			}
		}
	}

	return prerequisites
}

// taskConfidence scores the decomposition. Starts at 0.9; large task sets
// and uniform complexity reduce it, well-attributed prerequisites pull it
// toward their average.
func taskConfidence(tasks []AtomicTask, prerequisites []Prerequisite) float64 {
	if len(tasks) == 0 {
		return 0
	}

	confidence := 0.9
	if len(tasks) > 50 {
		confidence -= 0.1
	}

	if len(prerequisites) > 0 {
		sum := 0.0
		for _, p := range prerequisites {
			sum += p.Confidence
		}
		confidence = (confidence + sum/float64(len(prerequisites))) / 2
	}

	unique := make(map[datatypes.Criticality]struct{})
	for _, t := range tasks {
		unique[t.Complexity] = struct{}{}
	}
	if len(unique) == 1 && len(tasks) > 5 {
		confidence -= 0.05
	}

	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}
	return confidence
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// truncate shortens s to at most maxLen bytes, appending an ellipsis when
// anything was cut.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
