// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package graph implements the plan graph engine: validation and structural
// analysis of step dependency graphs produced by the planner and decomposer.
//
// Given an ordered list of steps with typed dependency declarations, the
// engine computes:
//
//   - a validated adjacency-list dependency graph (BuildGraph)
//   - an acyclicity proof, or the full offending cycle (DetectCycles)
//   - ordered parallel groups via Kahn-style topological leveling
//     (PartitionLevels)
//   - the critical path: the longest dependency chain by step count
//     (CriticalPath)
//   - the graph depth: edges on the longest chain (MaxDepth)
//   - a deterministic resequencing of the caller's steps (Resequence)
//
// Analyzer.Analyze runs the full pipeline and assembles the PlanAnalysis
// artifact consumed by the HTTP handlers, the CLI, and the plan store.
//
// # Ordering and Determinism
//
// All traversals iterate steps in their original input order and each step's
// dependencies in declaration order. Two runs over identical input produce
// byte-identical artifacts: graph adjacency lists, parallel groups, critical
// path, and sequence_order assignments. Ties for the longest chain resolve
// to the first step encountered in input order.
//
// # Preconditions
//
// PartitionLevels, CriticalPath, and MaxDepth are defined only for acyclic
// graphs. DetectCycles is the single gate: Analyzer.Analyze always runs it
// before any of the three, and callers composing the primitives directly
// must do the same. Behavior on cyclic input is undefined.
//
// # Lifecycle
//
// Every invocation builds its state from scratch; nothing persists across
// calls and no package state is mutated. The only caller-visible mutation
// in the whole engine is Resequence writing Step.SequenceOrder.
//
// # Thread Safety
//
// Analyzer is immutable after construction and safe for concurrent use.
// Concurrent Analyze calls over different step slices share nothing.
package graph
