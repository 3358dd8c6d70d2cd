// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the plan graph engine. Typed errors below unwrap to
// these, so callers can branch with errors.Is and recover detail with
// errors.As.
var (
	// ErrDanglingDependency is returned when a step references a step id
	// that does not exist in the submitted step set.
	ErrDanglingDependency = errors.New("dangling dependency")

	// ErrCyclicDependency is returned when the dependency graph contains
	// at least one cycle.
	ErrCyclicDependency = errors.New("cyclic dependency")

	// ErrInvariantViolation is returned when level partitioning stalls with
	// unplaced steps remaining. Unreachable if BuildGraph and DetectCycles
	// ran first; treated as fatal rather than silently truncating output.
	ErrInvariantViolation = errors.New("internal invariant violation")

	// ErrDuplicateStep is returned when two steps share a step id.
	ErrDuplicateStep = errors.New("duplicate step id")

	// ErrEmptyStepID is returned when a step has an empty step id.
	ErrEmptyStepID = errors.New("empty step id")

	// ErrMaxStepsExceeded is returned when a plan exceeds the analyzer's
	// configured step capacity.
	ErrMaxStepsExceeded = errors.New("maximum step count exceeded")
)

// DanglingDependencyError identifies a dependency whose target step id is
// unknown. No graph is produced when this is returned.
type DanglingDependencyError struct {
	// StepID is the step declaring the bad dependency.
	StepID string

	// DependsOn is the referenced id that does not exist.
	DependsOn string
}

func (e *DanglingDependencyError) Error() string {
	return fmt.Sprintf("step %q depends on unknown step %q", e.StepID, e.DependsOn)
}

func (e *DanglingDependencyError) Unwrap() error { return ErrDanglingDependency }

// CyclicDependencyError carries one detected cycle in chain order plus the
// distinct set of participating steps, so callers can surface a precise
// diagnostic instead of a single arbitrary node.
type CyclicDependencyError struct {
	// Chain is the cycle in dependency order. The first id repeats at the
	// end to close the loop, e.g. [a b c a].
	Chain []string

	// Involved is the distinct set of step ids on the cycle, in the order
	// they appear on the chain.
	Involved []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("dependency cycle: %s", strings.Join(e.Chain, " -> "))
}

func (e *CyclicDependencyError) Unwrap() error { return ErrCyclicDependency }

// InvariantViolationError reports the steps that could not be placed when
// level partitioning made no progress. This indicates an engine bug, not
// bad caller input.
type InvariantViolationError struct {
	// Unplaced lists the step ids left out of every level, in input order.
	Unplaced []string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("level partitioning stalled with %d unplaced steps: %s",
		len(e.Unplaced), strings.Join(e.Unplaced, ", "))
}

func (e *InvariantViolationError) Unwrap() error { return ErrInvariantViolation }
