// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package decomposer breaks a high-level plan into atomic, bounded tasks
// with boundaries and prerequisite relations.
//
// The agent is stateless and deterministic: identical input produces an
// identical output payload, and every invocation emits exactly one
// DecisionEvent. It informs planning; it never executes anything.
package decomposer

import (
	"errors"

	"github.com/AleutianAI/AleutianPlan/services/planner/datatypes"
)

// Agent identity stamped on every emitted DecisionEvent.
const (
	AgentID      = "decomposer-agent"
	AgentVersion = "1.0.0"
)

// Sentinel errors.
var (
	// ErrInvalidInput is returned when the plan is missing required fields.
	ErrInvalidInput = errors.New("invalid decomposer input")

	// ErrMaxTasksExceeded is returned when decomposition produces more
	// tasks than the configured cap.
	ErrMaxTasksExceeded = errors.New("maximum task limit exceeded")
)

// Config controls decomposition behavior.
type Config struct {
	// MaxDepth bounds the decomposition tree depth.
	MaxDepth int

	// MaxTasks caps the number of generated tasks.
	MaxTasks int

	// MinConfidence is the advisory confidence floor, recorded in the
	// applied constraints.
	MinConfidence float64

	// DetectPrerequisites enables prerequisite relation detection.
	DetectPrerequisites bool

	// DetectBoundaries enables task boundary detection.
	DetectBoundaries bool
}

// DefaultConfig returns the standard decomposition configuration.
func DefaultConfig() Config {
	return Config{
		MaxDepth:            5,
		MaxTasks:            100,
		MinConfidence:       0.7,
		DetectPrerequisites: true,
		DetectBoundaries:    true,
	}
}

// Plan is the high-level plan to decompose.
type Plan struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Objectives  []string `json:"objectives"`
	Constraints []string `json:"constraints,omitempty"`
}

// Context carries optional hints for decomposition.
type Context struct {
	// Domain of the plan, e.g. "software" or "infrastructure".
	Domain string `json:"domain,omitempty"`

	// Complexity overrides the heuristic complexity analysis when set.
	Complexity datatypes.Criticality `json:"complexity,omitempty"`

	// Hints are free-form decomposition hints.
	Hints []string `json:"hints,omitempty"`
}

// Input is the full input to one Decompose call. The whole struct is
// hashed into the DecisionEvent's inputs_hash.
type Input struct {
	Plan         Plan    `json:"plan"`
	Context      Context `json:"context"`
	ExecutionRef string  `json:"execution_ref,omitempty"`
}

// TaskInput is a read-only input reference a task needs.
type TaskInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Source      string `json:"source,omitempty"`
}

// TaskOutput is an artifact a task is expected to produce.
type TaskOutput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// AtomicTask is a bounded unit of work that is not decomposed further.
type AtomicTask struct {
	ID                 string                `json:"id"`
	Name               string                `json:"name"`
	Description        string                `json:"description"`
	Complexity         datatypes.Criticality `json:"complexity"`
	Tags               []string              `json:"tags,omitempty"`
	Inputs             []TaskInput           `json:"inputs,omitempty"`
	Outputs            []TaskOutput          `json:"outputs,omitempty"`
	AcceptanceCriteria []string              `json:"acceptance_criteria,omitempty"`
	Depth              int                   `json:"depth"`
	ParentID           string                `json:"parent_id,omitempty"`
}

// BoundaryType classifies a task boundary.
type BoundaryType string

const (
	BoundaryDomain     BoundaryType = "domain"
	BoundaryPhase      BoundaryType = "phase"
	BoundaryDependency BoundaryType = "dependency"
	BoundaryRisk       BoundaryType = "risk"
	BoundaryResource   BoundaryType = "resource"
)

// TaskBoundary groups related tasks.
type TaskBoundary struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Type      BoundaryType `json:"boundary_type"`
	TaskIDs   []string     `json:"task_ids"`
	Rationale string       `json:"rationale"`
}

// PrerequisiteType classifies a prerequisite relation.
type PrerequisiteType string

const (
	PrerequisiteHard     PrerequisiteType = "hard_dependency"
	PrerequisiteSoft     PrerequisiteType = "soft_dependency"
	PrerequisiteData     PrerequisiteType = "data_dependency"
	PrerequisiteResource PrerequisiteType = "resource_dependency"
)

// Prerequisite records that one task must logically precede another.
type Prerequisite struct {
	PrerequisiteTaskID string           `json:"prerequisite_task_id"`
	DependentTaskID    string           `json:"dependent_task_id"`
	Type               PrerequisiteType `json:"relation_type"`
	Confidence         float64          `json:"confidence"`
}

// Analysis summarizes one decomposition run.
type Analysis struct {
	TotalTasks             int            `json:"total_tasks"`
	MaxDepthReached        int            `json:"max_depth_reached"`
	BoundaryCount          int            `json:"boundary_count"`
	PrerequisiteCount      int            `json:"prerequisite_count"`
	ComplexityDistribution map[string]int `json:"complexity_distribution"`
	ProcessingDurationMs   int64          `json:"processing_duration_ms"`
}

// Output is the payload carried in the DecisionEvent's outputs field.
type Output struct {
	PlanID        string         `json:"plan_id"`
	Tasks         []AtomicTask   `json:"tasks"`
	Boundaries    []TaskBoundary `json:"boundaries"`
	Prerequisites []Prerequisite `json:"prerequisites"`
	Confidence    float64        `json:"confidence"`
	Analysis      Analysis       `json:"analysis"`
}
