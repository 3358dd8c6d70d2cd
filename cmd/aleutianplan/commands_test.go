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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianPlan/services/planner/datatypes"
	"github.com/AleutianAI/AleutianPlan/services/planner/graph"
	"github.com/AleutianAI/AleutianPlan/services/planner/storage"
)

// seedStore writes one analyzed plan into a fresh store directory.
func seedStore(t *testing.T, planID string) string {
	t.Helper()
	dir := t.TempDir()

	analysis, err := graph.NewAnalyzer(graph.AnalyzerOptions{}).
		Analyze(context.Background(), planID, []*datatypes.Step{
			{StepID: "one"},
			{StepID: "two", Dependencies: []datatypes.Dependency{
				{DependsOn: "one", Kind: datatypes.DependencyBlocking},
			}},
		})
	require.NoError(t, err)

	store, err := storage.Open(storage.DefaultConfig(dir))
	require.NoError(t, err)
	require.NoError(t, store.SaveAnalysis(context.Background(), analysis))
	require.NoError(t, store.Close())
	return dir
}

func TestRunShow(t *testing.T) {
	prevDataDir := dataDir
	t.Cleanup(func() { dataDir = prevDataDir })

	t.Run("trims the plan id before lookup", func(t *testing.T) {
		dataDir = seedStore(t, "plan-1")
		require.NoError(t, runShow(showCmd, []string{"  plan-1  "}))
	})

	t.Run("hostile plan id rejected before the store opens", func(t *testing.T) {
		dataDir = ""
		err := runShow(showCmd, []string{"../../etc"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "plan id")
	})

	t.Run("no store configured", func(t *testing.T) {
		dataDir = ""
		err := runShow(showCmd, []string{"plan-1"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no plan store configured")
	})
}
