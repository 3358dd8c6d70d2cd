// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianPlan/services/planner/datatypes"
	"github.com/AleutianAI/AleutianPlan/services/planner/graph"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadPlanFile(t *testing.T) {
	t.Run("depends_on becomes blocking edges", func(t *testing.T) {
		path := writeTempFile(t, "plan.yaml", `
plan_id: release-1
steps:
  - id: build
    name: Build artifacts
  - id: test
    depends_on: [build]
  - id: deploy
    depends_on: [test]
`)
		planID, steps, err := loadPlanFile(path)
		require.NoError(t, err)
		assert.Equal(t, "release-1", planID)
		require.Len(t, steps, 3)
		require.Len(t, steps[1].Dependencies, 1)
		assert.Equal(t, "build", steps[1].Dependencies[0].DependsOn)
		assert.Equal(t, datatypes.DependencyBlocking, steps[1].Dependencies[0].Kind)
	})

	t.Run("typed dependencies keep their kind", func(t *testing.T) {
		path := writeTempFile(t, "plan.yaml", `
plan_id: release-2
steps:
  - id: extract
  - id: load
    dependencies:
      - on: extract
        kind: data
`)
		_, steps, err := loadPlanFile(path)
		require.NoError(t, err)
		require.Len(t, steps[1].Dependencies, 1)
		assert.Equal(t, datatypes.DependencyData, steps[1].Dependencies[0].Kind)
	})

	t.Run("unknown dependency kind rejected", func(t *testing.T) {
		path := writeTempFile(t, "plan.yaml", `
plan_id: release-3
steps:
  - id: a
  - id: b
    dependencies:
      - on: a
        kind: psychic
`)
		_, _, err := loadPlanFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "psychic")
	})

	t.Run("empty plan rejected", func(t *testing.T) {
		path := writeTempFile(t, "plan.yaml", "plan_id: empty\nsteps: []\n")
		_, _, err := loadPlanFile(path)
		assert.Error(t, err)
	})

	t.Run("missing file rejected", func(t *testing.T) {
		_, _, err := loadPlanFile(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestLoadedPlanAnalyzes(t *testing.T) {
	path := writeTempFile(t, "plan.yaml", `
plan_id: diamond
steps:
  - id: A
  - id: B
    depends_on: [A]
  - id: C
    depends_on: [A]
  - id: D
    depends_on: [B, C]
`)
	planID, steps, err := loadPlanFile(path)
	require.NoError(t, err)

	analysis, err := graph.NewAnalyzer(graph.AnalyzerOptions{}).
		Analyze(context.Background(), planID, steps)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"A"}, {"B", "C"}, {"D"}}, analysis.ParallelGroups)
	assert.Equal(t, []string{"A", "B", "D"}, analysis.CriticalPath)
	assert.Equal(t, 2, analysis.Analysis.MaxDepth)
}

func TestReadYAMLFileSizeCap(t *testing.T) {
	big := make([]byte, maxPlanFileBytes+1)
	path := filepath.Join(t.TempDir(), "big.yaml")
	require.NoError(t, os.WriteFile(path, big, 0o644))

	var pf planFile
	err := readYAMLFile(path, &pf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "limit")
}
