// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/AleutianAI/AleutianPlan/services/planner/datatypes"
	"github.com/AleutianAI/AleutianPlan/services/planner/telemetry"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(InMemoryConfig())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return s
}

func sampleAnalysis(planID string) *datatypes.PlanAnalysis {
	return &datatypes.PlanAnalysis{
		PlanID: planID,
		DependencyGraph: map[string][]string{
			"A": {},
			"B": {"A"},
		},
		CriticalPath:   []string{"A", "B"},
		ParallelGroups: [][]string{{"A"}, {"B"}},
		Steps: []*datatypes.Step{
			{StepID: "A"},
			{StepID: "B", SequenceOrder: 1, Dependencies: []datatypes.Dependency{{DependsOn: "A"}}},
		},
		Analysis: datatypes.AnalysisStats{MaxDepth: 1, TotalSteps: 2, LevelCount: 2},
	}
}

func TestStoreAnalysis(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	t.Run("round trip", func(t *testing.T) {
		want := sampleAnalysis("plan-1")
		if err := s.SaveAnalysis(ctx, want); err != nil {
			t.Fatalf("SaveAnalysis: %v", err)
		}
		got, err := s.GetAnalysis(ctx, "plan-1")
		if err != nil {
			t.Fatalf("GetAnalysis: %v", err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("loaded analysis differs:\n%+v\n%+v", got, want)
		}
	})

	t.Run("save replaces previous analysis", func(t *testing.T) {
		first := sampleAnalysis("plan-2")
		if err := s.SaveAnalysis(ctx, first); err != nil {
			t.Fatalf("SaveAnalysis: %v", err)
		}
		second := sampleAnalysis("plan-2")
		second.Analysis.MaxDepth = 7
		if err := s.SaveAnalysis(ctx, second); err != nil {
			t.Fatalf("SaveAnalysis: %v", err)
		}
		got, err := s.GetAnalysis(ctx, "plan-2")
		if err != nil {
			t.Fatalf("GetAnalysis: %v", err)
		}
		if got.Analysis.MaxDepth != 7 {
			t.Errorf("MaxDepth = %d, want replacement", got.Analysis.MaxDepth)
		}
	})

	t.Run("missing plan", func(t *testing.T) {
		if _, err := s.GetAnalysis(ctx, "nope"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("empty plan id rejected", func(t *testing.T) {
		if err := s.SaveAnalysis(ctx, &datatypes.PlanAnalysis{}); err == nil {
			t.Fatal("expected error for empty plan id")
		}
	})

	t.Run("list analyzed plans", func(t *testing.T) {
		ids, err := s.ListAnalyzedPlans(ctx)
		if err != nil {
			t.Fatalf("ListAnalyzedPlans: %v", err)
		}
		want := []string{"plan-1", "plan-2"}
		if !reflect.DeepEqual(ids, want) {
			t.Errorf("ids = %v, want %v", ids, want)
		}
	})
}

func TestStoreDecision(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	event := datatypes.NewDecisionEvent(
		"decomposer-agent", "1.0.0",
		datatypes.DecisionTaskDecomposition,
		datatypes.ComputeInputsHash("input"),
		json.RawMessage(`{"tasks":[]}`),
		0.85,
	)
	if err := s.SaveDecision(ctx, event); err != nil {
		t.Fatalf("SaveDecision: %v", err)
	}
	got, err := s.GetDecision(ctx, event.ID.String())
	if err != nil {
		t.Fatalf("GetDecision: %v", err)
	}
	if got.InputsHash != event.InputsHash || got.Confidence != event.Confidence {
		t.Errorf("loaded decision differs: %+v", got)
	}
	if _, err := s.GetDecision(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestStoreExecutionRecord(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	rec, err := telemetry.NewExecutionRecord("exec-9", "core-span", "trace-1")
	if err != nil {
		t.Fatalf("NewExecutionRecord: %v", err)
	}
	spanID := rec.StartAgentSpan("graph-analyzer")
	if err := rec.CompleteAgentSpan(spanID, nil); err != nil {
		t.Fatalf("CompleteAgentSpan: %v", err)
	}

	if err := s.SaveExecutionRecord(ctx, rec); err != nil {
		t.Fatalf("SaveExecutionRecord: %v", err)
	}
	got, err := s.GetExecutionRecord(ctx, "exec-9")
	if err != nil {
		t.Fatalf("GetExecutionRecord: %v", err)
	}
	if got.ExecutionID != "exec-9" || len(got.Spans) != 2 {
		t.Errorf("loaded record = %+v", got)
	}
}

func TestStoreContextCancellation(t *testing.T) {
	s := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.SaveAnalysis(ctx, sampleAnalysis("p")); !errors.Is(err, context.Canceled) {
		t.Errorf("save err = %v, want context.Canceled", err)
	}
	if _, err := s.GetAnalysis(ctx, "p"); !errors.Is(err, context.Canceled) {
		t.Errorf("get err = %v, want context.Canceled", err)
	}
}
