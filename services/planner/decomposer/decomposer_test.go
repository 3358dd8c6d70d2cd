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
	"errors"
	"reflect"
	"testing"

	"github.com/AleutianAI/AleutianPlan/services/planner/datatypes"
	"github.com/AleutianAI/AleutianPlan/services/planner/graph"
)

func simpleInput() *Input {
	return &Input{
		Plan: Plan{
			ID:         "plan-1",
			Name:       "Bootstrap",
			Objectives: []string{"Set up repository"},
		},
	}
}

func complexInput() *Input {
	return &Input{
		Plan: Plan{
			ID:   "plan-2",
			Name: "Payments integration",
			Objectives: []string{
				"Integrate the payment api with the billing backend, " +
					"migrate existing customer data, and verify security controls",
			},
		},
	}
}

func TestDecompose(t *testing.T) {
	ctx := context.Background()
	agent := New()

	t.Run("simple objective yields single task", func(t *testing.T) {
		event, output, err := agent.Decompose(ctx, simpleInput())
		if err != nil {
			t.Fatalf("Decompose: %v", err)
		}
		if len(output.Tasks) != 1 {
			t.Fatalf("got %d tasks, want 1", len(output.Tasks))
		}
		task := output.Tasks[0]
		if task.ID != "plan-1-obj0-main" {
			t.Errorf("task id = %q", task.ID)
		}
		if task.Complexity != datatypes.CriticalityLow {
			t.Errorf("complexity = %s, want low", task.Complexity)
		}
		if task.Depth != 0 || task.ParentID != "" {
			t.Errorf("task depth/parent = %d/%q", task.Depth, task.ParentID)
		}

		if event.AgentID != AgentID || event.DecisionType != datatypes.DecisionTaskDecomposition {
			t.Errorf("event identity = %s/%s", event.AgentID, event.DecisionType)
		}
		if len(event.InputsHash) != 64 {
			t.Errorf("inputs hash = %q, want 64 hex chars", event.InputsHash)
		}
		if err := event.Validate(); err != nil {
			t.Errorf("event invalid: %v", err)
		}
	})

	t.Run("complex objective splits into subtasks", func(t *testing.T) {
		_, output, err := agent.Decompose(ctx, complexInput())
		if err != nil {
			t.Fatalf("Decompose: %v", err)
		}
		if len(output.Tasks) != 4 {
			t.Fatalf("got %d tasks, want main + 3 subtasks: %+v", len(output.Tasks), output.Tasks)
		}
		main := output.Tasks[0]
		if main.Complexity != datatypes.CriticalityCritical {
			t.Errorf("main complexity = %s, want critical", main.Complexity)
		}
		for _, sub := range output.Tasks[1:] {
			if sub.ParentID != main.ID {
				t.Errorf("subtask %s parent = %q, want %q", sub.ID, sub.ParentID, main.ID)
			}
			if sub.Depth != 1 {
				t.Errorf("subtask %s depth = %d, want 1", sub.ID, sub.Depth)
			}
		}

		// Each subtask is a hard prerequisite of its parent.
		hard := 0
		for _, p := range output.Prerequisites {
			if p.Type == PrerequisiteHard {
				hard++
				if p.DependentTaskID != main.ID {
					t.Errorf("hard prerequisite points at %q", p.DependentTaskID)
				}
			}
		}
		if hard != 3 {
			t.Errorf("got %d hard prerequisites, want 3", hard)
		}

		if output.Analysis.MaxDepthReached != 1 || output.Analysis.TotalTasks != 4 {
			t.Errorf("analysis = %+v", output.Analysis)
		}
	})

	t.Run("context complexity hint suppresses splitting", func(t *testing.T) {
		input := complexInput()
		input.Context.Complexity = datatypes.CriticalityLow
		_, output, err := agent.Decompose(ctx, input)
		if err != nil {
			t.Fatalf("Decompose: %v", err)
		}
		if len(output.Tasks) != 1 {
			t.Errorf("got %d tasks, want 1 with low hint", len(output.Tasks))
		}
	})

	t.Run("deterministic outputs and hash", func(t *testing.T) {
		e1, o1, err := agent.Decompose(ctx, complexInput())
		if err != nil {
			t.Fatalf("Decompose: %v", err)
		}
		e2, o2, err := agent.Decompose(ctx, complexInput())
		if err != nil {
			t.Fatalf("Decompose: %v", err)
		}
		if e1.InputsHash != e2.InputsHash {
			t.Errorf("hashes differ: %s vs %s", e1.InputsHash, e2.InputsHash)
		}
		o1.Analysis.ProcessingDurationMs = 0
		o2.Analysis.ProcessingDurationMs = 0
		if !reflect.DeepEqual(o1, o2) {
			t.Errorf("outputs differ:\n%+v\n%+v", o1, o2)
		}
	})

	t.Run("invalid input", func(t *testing.T) {
		cases := map[string]*Input{
			"nil":           nil,
			"no id":         {Plan: Plan{Name: "x", Objectives: []string{"a b c"}}},
			"no name":       {Plan: Plan{ID: "p", Objectives: []string{"a b c"}}},
			"no objectives": {Plan: Plan{ID: "p", Name: "x"}},
		}
		for name, input := range cases {
			if _, _, err := agent.Decompose(ctx, input); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("%s: err = %v, want ErrInvalidInput", name, err)
			}
		}
	})

	t.Run("task cap enforced", func(t *testing.T) {
		capped := WithConfig(Config{MaxTasks: 2, DetectBoundaries: true, DetectPrerequisites: true})
		_, _, err := capped.Decompose(ctx, complexInput())
		if !errors.Is(err, ErrMaxTasksExceeded) {
			t.Fatalf("err = %v, want ErrMaxTasksExceeded", err)
		}
	})
}

func TestExtractTags(t *testing.T) {
	got := extractTags("Deploy the api server and document results")
	want := []string{"api", "backend", "devops", "documentation"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("tags = %v, want %v", got, want)
	}
}

func TestAnalyzeComplexity(t *testing.T) {
	cases := []struct {
		objective string
		want      datatypes.Criticality
	}{
		{"Set up repository", datatypes.CriticalityLow},
		{"Migrate the primary database to the new cluster, then validate replicas", datatypes.CriticalityCritical},
		{"Refactor the session handling layer for the public gateway", datatypes.CriticalityLow},
		{"Refactor the session handling layer for the public gateway service endpoints", datatypes.CriticalityHigh},
	}
	for _, tc := range cases {
		if got := analyzeComplexity(tc.objective, nil); got != tc.want {
			t.Errorf("complexity(%q) = %s, want %s", tc.objective, got, tc.want)
		}
	}
}

func TestStepsFeedGraphEngine(t *testing.T) {
	ctx := context.Background()
	_, output, err := New().Decompose(ctx, complexInput())
	if err != nil {
		t.Fatalf("Decompose: %v", err)
	}

	steps := output.Steps()
	if len(steps) != len(output.Tasks) {
		t.Fatalf("got %d steps for %d tasks", len(steps), len(output.Tasks))
	}

	analysis, err := graph.NewAnalyzer(graph.AnalyzerOptions{}).Analyze(ctx, output.PlanID, steps)
	if err != nil {
		t.Fatalf("Analyze over decomposed steps: %v", err)
	}
	// Subtasks carry no dependencies, so they form the first group; the
	// main task depends on all of them and lands in the second.
	if analysis.Analysis.LevelCount != 2 {
		t.Errorf("level count = %d, want 2: %v", analysis.Analysis.LevelCount, analysis.ParallelGroups)
	}
	last := analysis.ParallelGroups[len(analysis.ParallelGroups)-1]
	if len(last) != 1 || last[0] != "plan-2-obj0-main" {
		t.Errorf("final group = %v, want the main task", last)
	}
}
