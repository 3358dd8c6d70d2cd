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
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/AleutianPlan/services/planner/datatypes"
)

var tracer = otel.Tracer("planner.decomposer")

// Agent decomposes plans into atomic tasks. Stateless; safe for concurrent
// use.
type Agent struct {
	config Config
}

// New returns an Agent with the default configuration.
func New() *Agent {
	return &Agent{config: DefaultConfig()}
}

// WithConfig returns an Agent with the given configuration. Zero values for
// MaxDepth and MaxTasks fall back to the defaults.
func WithConfig(config Config) *Agent {
	def := DefaultConfig()
	if config.MaxDepth <= 0 {
		config.MaxDepth = def.MaxDepth
	}
	if config.MaxTasks <= 0 {
		config.MaxTasks = def.MaxTasks
	}
	return &Agent{config: config}
}

// Decompose breaks the input plan into atomic tasks and emits exactly one
// DecisionEvent carrying the full Output payload.
//
// Description:
//
//	Validates the plan, decomposes each objective in order, then runs
//	boundary and prerequisite detection over the generated tasks. The
//	whole pipeline is a pure function of the input: identical inputs
//	produce identical outputs and identical inputs_hash values.
//
// Inputs:
//   - ctx: Context for tracing. Must not be nil.
//   - input: The plan plus optional context hints. Not mutated.
//
// Outputs:
//   - *datatypes.DecisionEvent: The decision, outputs field holding the
//     JSON-encoded Output.
//   - *Output: The decoded payload, for callers feeding the graph engine.
//   - error: ErrInvalidInput or ErrMaxTasksExceeded.
//
// Thread Safety: Safe for concurrent use.
func (a *Agent) Decompose(ctx context.Context, input *Input) (*datatypes.DecisionEvent, *Output, error) {
	_, span := tracer.Start(ctx, "decomposer.Decompose")
	defer span.End()
	start := time.Now()

	if err := a.validate(input); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, nil, err
	}
	span.SetAttributes(
		attribute.String("plan_id", input.Plan.ID),
		attribute.Int("objective_count", len(input.Plan.Objectives)),
	)

	inputsHash := datatypes.ComputeInputsHash(input)

	output, err := a.run(input, start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, nil, err
	}

	payload, err := json.Marshal(output)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, nil, fmt.Errorf("encoding decomposer output: %w", err)
	}

	event := datatypes.NewDecisionEvent(
		AgentID, AgentVersion,
		datatypes.DecisionTaskDecomposition,
		inputsHash, payload, output.Confidence,
	)
	event.ConstraintsApplied = a.appliedConstraints()
	event.Telemetry = datatypes.TelemetryMetadata{
		DurationMs: output.Analysis.ProcessingDurationMs,
	}.WithLabel("plan_id", input.Plan.ID).
		WithLabel("task_count", strconv.Itoa(len(output.Tasks)))
	if input.ExecutionRef != "" {
		event.ExecutionRef = input.ExecutionRef
	}

	if err := event.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, nil, err
	}

	span.SetAttributes(attribute.Int("task_count", len(output.Tasks)))
	span.SetStatus(codes.Ok, "")
	slog.Debug("plan decomposed",
		slog.String("plan_id", input.Plan.ID),
		slog.Int("tasks", len(output.Tasks)),
		slog.Int("boundaries", len(output.Boundaries)),
		slog.Int("prerequisites", len(output.Prerequisites)),
		slog.Float64("confidence", output.Confidence),
	)
	return event, output, nil
}

func (a *Agent) validate(input *Input) error {
	switch {
	case input == nil:
		return fmt.Errorf("%w: input is nil", ErrInvalidInput)
	case input.Plan.ID == "":
		return fmt.Errorf("%w: plan id is required", ErrInvalidInput)
	case input.Plan.Name == "":
		return fmt.Errorf("%w: plan name is required", ErrInvalidInput)
	case len(input.Plan.Objectives) == 0:
		return fmt.Errorf("%w: plan needs at least one objective", ErrInvalidInput)
	}
	return nil
}

// run is the pure decomposition pipeline.
func (a *Agent) run(input *Input, start time.Time) (*Output, error) {
	var tasks []AtomicTask
	distribution := make(map[string]int)

	for idx, objective := range input.Plan.Objectives {
		objectiveTasks := a.decomposeObjective(objective, input.Plan.ID, idx, 0, &input.Context)
		for _, t := range objectiveTasks {
			distribution[string(t.Complexity)]++
		}
		tasks = append(tasks, objectiveTasks...)
	}

	if len(tasks) > a.config.MaxTasks {
		return nil, fmt.Errorf("%w: %d tasks, limit %d", ErrMaxTasksExceeded, len(tasks), a.config.MaxTasks)
	}

	var boundaries []TaskBoundary
	if a.config.DetectBoundaries {
		boundaries = detectBoundaries(tasks)
	}

	var prerequisites []Prerequisite
	if a.config.DetectPrerequisites {
		prerequisites = detectPrerequisites(tasks)
	}

	maxDepth := 0
	for _, t := range tasks {
		if t.Depth > maxDepth {
			maxDepth = t.Depth
		}
	}

	return &Output{
		PlanID:        input.Plan.ID,
		Tasks:         tasks,
		Boundaries:    boundaries,
		Prerequisites: prerequisites,
		Confidence:    taskConfidence(tasks, prerequisites),
		Analysis: Analysis{
			TotalTasks:             len(tasks),
			MaxDepthReached:        maxDepth,
			BoundaryCount:          len(boundaries),
			PrerequisiteCount:      len(prerequisites),
			ComplexityDistribution: distribution,
			ProcessingDurationMs:   time.Since(start).Milliseconds(),
		},
	}, nil
}

// decomposeObjective produces the main task for an objective plus, for
// high and critical complexity, one subtask per comma/semicolon part.
func (a *Agent) decomposeObjective(objective, planID string, objectiveIdx, depth int, dctx *Context) []AtomicTask {
	complexity := analyzeComplexity(objective, dctx)

	mainID := fmt.Sprintf("%s-obj%d-main", planID, objectiveIdx)
	tasks := []AtomicTask{{
		ID:                 mainID,
		Name:               fmt.Sprintf("Objective %d: %s", objectiveIdx+1, truncate(objective, 50)),
		Description:        objective,
		Complexity:         complexity,
		Tags:               extractTags(objective),
		Inputs:             extractInputs(objective),
		Outputs:            extractOutputs(objective),
		AcceptanceCriteria: acceptanceCriteria(objective),
		Depth:              depth,
	}}

	needsSplit := complexity == datatypes.CriticalityHigh || complexity == datatypes.CriticalityCritical
	if needsSplit && depth < a.config.MaxDepth {
		tasks = append(tasks, a.createSubtasks(objective, mainID, planID, objectiveIdx, depth+1, dctx)...)
	}
	return tasks
}

func (a *Agent) createSubtasks(objective, parentID, planID string, objectiveIdx, depth int, dctx *Context) []AtomicTask {
	var subtasks []AtomicTask
	for subIdx, part := range splitParts(objective) {
		subtasks = append(subtasks, AtomicTask{
			ID:          fmt.Sprintf("%s-obj%d-sub%d", planID, objectiveIdx, subIdx),
			Name:        fmt.Sprintf("Subtask %d.%d: %s", objectiveIdx+1, subIdx+1, truncate(part, 40)),
			Description: part,
			Complexity:  analyzeComplexity(part, dctx),
			Tags:        extractTags(part),
			Inputs:      extractInputs(part),
			Outputs:     extractOutputs(part),
			AcceptanceCriteria: []string{
				fmt.Sprintf("Complete: %s", truncate(part, 100)),
			},
			Depth:    depth,
			ParentID: parentID,
		})
	}
	return subtasks
}

func (a *Agent) appliedConstraints() []string {
	constraints := []string{
		fmt.Sprintf("max_depth:%d", a.config.MaxDepth),
		fmt.Sprintf("max_tasks:%d", a.config.MaxTasks),
		fmt.Sprintf("min_confidence:%g", a.config.MinConfidence),
	}
	if a.config.DetectPrerequisites {
		constraints = append(constraints, "prerequisite_detection:enabled")
	}
	if a.config.DetectBoundaries {
		constraints = append(constraints, "boundary_detection:enabled")
	}
	// Invariants of the agent itself, always recorded.
	constraints = append(constraints,
		"stateless:true",
		"read_only:true",
		"non_executing:true",
	)
	return constraints
}
