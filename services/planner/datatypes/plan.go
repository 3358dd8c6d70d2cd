// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes defines the wire types shared by the planner service:
// plan steps, dependency edges, analysis artifacts, and the DecisionEvent
// contract emitted by the decomposer.
package datatypes

// DependencyKind classifies a dependency edge. The graph engine treats all
// kinds uniformly; the kind is metadata for downstream consumers.
type DependencyKind string

const (
	DependencyBlocking   DependencyKind = "blocking"
	DependencyData       DependencyKind = "data"
	DependencyResource   DependencyKind = "resource"
	DependencySequential DependencyKind = "sequential"
)

// Valid reports whether the kind is one of the four declared values.
func (k DependencyKind) Valid() bool {
	switch k {
	case DependencyBlocking, DependencyData, DependencyResource, DependencySequential:
		return true
	}
	return false
}

// Dependency is a directed reference from a step to another step that must
// logically precede it.
type Dependency struct {
	DependsOn string         `json:"depends_on" binding:"required"`
	Kind      DependencyKind `json:"kind,omitempty"`
}

// Criticality mirrors the complexity/criticality scale used by the
// decomposer heuristics.
type Criticality string

const (
	CriticalityLow      Criticality = "low"
	CriticalityMedium   Criticality = "medium"
	CriticalityHigh     Criticality = "high"
	CriticalityCritical Criticality = "critical"
)

// Step is a unit of planned work. StepID is caller-assigned and must be
// unique within a plan. SequenceOrder is overwritten by the graph engine's
// resequencer; everything else is carried through unchanged.
type Step struct {
	StepID        string       `json:"step_id" binding:"required"`
	Name          string       `json:"name,omitempty"`
	Description   string       `json:"description,omitempty"`
	Tags          []string     `json:"tags,omitempty"`
	Criticality   Criticality  `json:"criticality,omitempty"`
	SequenceOrder int          `json:"sequence_order"`
	Dependencies  []Dependency `json:"dependencies,omitempty"`
}

// AnalysisStats summarizes structural properties of an analyzed plan.
type AnalysisStats struct {
	// MaxDepth is the number of edges in the longest dependency chain.
	// Always equal to len(CriticalPath)-1 for a non-empty plan.
	MaxDepth int `json:"max_depth"`

	// TotalSteps is the number of steps in the plan.
	TotalSteps int `json:"total_steps"`

	// LevelCount is the number of parallel groups.
	LevelCount int `json:"level_count"`

	// ProcessingDurationMs is the wall-clock time the analysis took.
	ProcessingDurationMs int64 `json:"processing_duration_ms"`
}

// PlanAnalysis is the artifact produced by one run of the graph engine.
// It is the complete, self-contained output consumed by persistence and
// telemetry collaborators.
type PlanAnalysis struct {
	// PlanID identifies the plan this analysis belongs to.
	PlanID string `json:"plan_id,omitempty"`

	// DependencyGraph maps each step id to the ordered list of step ids it
	// depends on, preserving per-step declaration order.
	DependencyGraph map[string][]string `json:"dependency_graph"`

	// CriticalPath is the longest dependency chain, oldest dependency first.
	CriticalPath []string `json:"critical_path"`

	// ParallelGroups partitions the steps into ordered levels. Every
	// dependency of every member lies in a strictly earlier group.
	ParallelGroups [][]string `json:"parallel_groups"`

	// Steps is the input step list with sequence_order populated, sorted
	// ascending by sequence_order (stable within a level).
	Steps []*Step `json:"steps"`

	// Analysis holds summary statistics.
	Analysis AnalysisStats `json:"analysis"`
}

// AnalyzePlanRequest is the payload for POST /v1/plans/analyze.
type AnalyzePlanRequest struct {
	PlanID string  `json:"plan_id" binding:"required"`
	Steps  []*Step `json:"steps" binding:"required,min=1,dive"`

	// ExecutionRef is an optional external execution reference used to key
	// telemetry spans. Generated when absent.
	ExecutionRef string `json:"execution_ref,omitempty"`

	// Persist stores the resulting analysis under PlanID when true.
	Persist bool `json:"persist,omitempty"`
}

// DecomposePlanRequest is the payload for POST /v1/plans/decompose.
type DecomposePlanRequest struct {
	PlanID       string   `json:"plan_id" binding:"required"`
	Name         string   `json:"name" binding:"required"`
	Description  string   `json:"description,omitempty"`
	Objectives   []string `json:"objectives" binding:"required,min=1"`
	Constraints  []string `json:"constraints,omitempty"`
	ExecutionRef string   `json:"execution_ref,omitempty"`
	Persist      bool     `json:"persist,omitempty"`
}

// DecomposePlanResponse bundles the decomposition decision with the graph
// analysis of the generated steps.
type DecomposePlanResponse struct {
	Decision *DecisionEvent `json:"decision"`
	Plan     *PlanAnalysis  `json:"plan"`
}
