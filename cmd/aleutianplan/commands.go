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
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianPlan/pkg/validation"
	"github.com/AleutianAI/AleutianPlan/services/planner/datatypes"
	"github.com/AleutianAI/AleutianPlan/services/planner/decomposer"
	"github.com/AleutianAI/AleutianPlan/services/planner/graph"
	"github.com/AleutianAI/AleutianPlan/services/planner/storage"
)

var (
	jsonOutput bool
	planIDFlag string
	persist    bool
	dataDir    string

	rootCmd = &cobra.Command{
		Use:   "aleutianplan",
		Short: "Analyze and decompose plan dependency graphs",
		Long: `aleutianplan runs the plan graph engine locally: it validates a
plan's dependency graph, partitions it into parallel groups, and computes
the critical path, without needing the planner service.`,
	}

	analyzeCmd = &cobra.Command{
		Use:   "analyze PLAN_FILE",
		Short: "Analyze a plan's dependency structure",
		Long: `Analyze reads a YAML plan file, validates its dependency graph,
and prints the parallel groups, critical path, and depth.

Plan file format:
  plan_id: release-1
  steps:
    - id: build
      name: Build artifacts
    - id: test
      depends_on: [build]
    - id: deploy
      depends_on: [test]

Examples:
  aleutianplan analyze plan.yaml
  aleutianplan analyze plan.yaml --json
  aleutianplan analyze plan.yaml --persist --data-dir ~/.aleutianplan`,
		Args: cobra.ExactArgs(1),
		RunE: runAnalyze,
	}

	decomposeCmd = &cobra.Command{
		Use:   "decompose OBJECTIVES_FILE",
		Short: "Decompose plan objectives into atomic tasks",
		Long: `Decompose reads a YAML objectives file, breaks each objective
into atomic tasks, derives prerequisites, and analyzes the resulting
dependency graph.

Objectives file format:
  plan_id: payments-1
  name: Payments integration
  objectives:
    - Integrate the payment api with the billing backend
    - Migrate existing customer data

Examples:
  aleutianplan decompose objectives.yaml
  aleutianplan decompose objectives.yaml --json`,
		Args: cobra.ExactArgs(1),
		RunE: runDecompose,
	}

	showCmd = &cobra.Command{
		Use:   "show PLAN_ID",
		Short: "Show a stored plan analysis",
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"Emit raw JSON instead of a summary")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "",
		"Plan store directory (defaults to data_dir from aleutianplan.yaml)")

	analyzeCmd.Flags().StringVar(&planIDFlag, "plan-id", "",
		"Override the plan id from the plan file")
	analyzeCmd.Flags().BoolVar(&persist, "persist", false,
		"Store the analysis in the local plan store")
	decomposeCmd.Flags().BoolVar(&persist, "persist", false,
		"Store the decision and analysis in the local plan store")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(decomposeCmd)
	rootCmd.AddCommand(showCmd)
}

func newAnalyzer() *graph.Analyzer {
	return graph.NewAnalyzer(graph.AnalyzerOptions{MaxSteps: config.MaxSteps})
}

// openStore opens the local plan store, preferring the --data-dir flag
// over the config file.
func openStore() (*storage.Store, error) {
	dir := dataDir
	if dir == "" {
		dir = config.DataDir
	}
	if dir == "" {
		return nil, fmt.Errorf("no plan store configured: pass --data-dir or set data_dir in aleutianplan.yaml")
	}
	return storage.Open(storage.DefaultConfig(dir))
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	planID, steps, err := loadPlanFile(args[0])
	if err != nil {
		return err
	}
	if planIDFlag != "" {
		planID = planIDFlag
	}

	analysis, err := newAnalyzer().Analyze(context.Background(), planID, steps)
	if err != nil {
		return fmt.Errorf("plan rejected: %w", err)
	}

	if persist {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.SaveAnalysis(context.Background(), analysis); err != nil {
			return err
		}
	}

	if jsonOutput {
		return printJSON(analysis)
	}
	printAnalysisSummary(analysis)
	return nil
}

func runDecompose(cmd *cobra.Command, args []string) error {
	var of objectivesFile
	if err := readYAMLFile(args[0], &of); err != nil {
		return err
	}

	event, output, err := decomposer.New().Decompose(context.Background(), &decomposer.Input{
		Plan: decomposer.Plan{
			ID:          of.PlanID,
			Name:        of.Name,
			Description: of.Description,
			Objectives:  of.Objectives,
			Constraints: of.Constraints,
		},
	})
	if err != nil {
		return err
	}

	analysis, err := newAnalyzer().Analyze(context.Background(), of.PlanID, output.Steps())
	if err != nil {
		return fmt.Errorf("analyzing decomposed plan: %w", err)
	}

	if persist {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		ctx := context.Background()
		if err := store.SaveDecision(ctx, event); err != nil {
			return err
		}
		if err := store.SaveAnalysis(ctx, analysis); err != nil {
			return err
		}
	}

	if jsonOutput {
		return printJSON(datatypes.DecomposePlanResponse{Decision: event, Plan: analysis})
	}
	fmt.Printf("Decomposed %q into %d tasks (confidence %.2f, decision %s)\n",
		of.Name, len(output.Tasks), event.Confidence, event.ID)
	printAnalysisSummary(analysis)
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	planID, err := validation.SanitizePlanID(args[0])
	if err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	analysis, err := store.GetAnalysis(context.Background(), planID)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(analysis)
	}
	printAnalysisSummary(analysis)
	return nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, string(data))
	return err
}

func printAnalysisSummary(analysis *datatypes.PlanAnalysis) {
	fmt.Printf("Plan: %s\n", analysis.PlanID)
	fmt.Printf("Steps: %d  Levels: %d  Max depth: %d\n",
		analysis.Analysis.TotalSteps,
		analysis.Analysis.LevelCount,
		analysis.Analysis.MaxDepth,
	)
	fmt.Printf("Critical path: %s\n", strings.Join(analysis.CriticalPath, " -> "))
	for i, group := range analysis.ParallelGroups {
		fmt.Printf("  Level %d: %s\n", i, strings.Join(group, ", "))
	}
}
