// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DecisionType labels the kind of decision an agent made.
type DecisionType string

const (
	DecisionTaskDecomposition  DecisionType = "task_decomposition"
	DecisionStructuralAnalysis DecisionType = "structural_analysis"
	DecisionDependencyAnalysis DecisionType = "dependency_identification"
)

// Sentinel errors for DecisionEvent validation.
var (
	// ErrMissingField is returned when a required DecisionEvent field is empty.
	ErrMissingField = errors.New("missing required field")

	// ErrInvalidConfidence is returned when confidence is outside [0, 1].
	ErrInvalidConfidence = errors.New("confidence must be in [0.0, 1.0]")
)

// TelemetryMetadata carries optional tracing context and labels alongside a
// decision event.
type TelemetryMetadata struct {
	TraceID      string            `json:"trace_id,omitempty"`
	SpanID       string            `json:"span_id,omitempty"`
	ParentSpanID string            `json:"parent_span_id,omitempty"`
	DurationMs   int64             `json:"duration_ms,omitempty"`
	Labels       map[string]string `json:"labels,omitempty"`
}

// WithLabel adds a label, allocating the map on first use.
func (t TelemetryMetadata) WithLabel(key, value string) TelemetryMetadata {
	if t.Labels == nil {
		t.Labels = make(map[string]string)
	}
	t.Labels[key] = value
	return t
}

// DecisionEvent is the single output an analysis agent emits per invocation.
//
// The inputs hash makes determinism checkable: identical inputs must produce
// identical hashes, and replaying an input set against a newer agent version
// can be diffed against the recorded outputs.
type DecisionEvent struct {
	ID                 uuid.UUID         `json:"id"`
	AgentID            string            `json:"agent_id"`
	AgentVersion       string            `json:"agent_version"`
	DecisionType       DecisionType      `json:"decision_type"`
	InputsHash         string            `json:"inputs_hash"`
	Outputs            json.RawMessage   `json:"outputs"`
	Confidence         float64           `json:"confidence"`
	ConstraintsApplied []string          `json:"constraints_applied"`
	ExecutionRef       string            `json:"execution_ref"`
	Timestamp          time.Time         `json:"timestamp"`
	Telemetry          TelemetryMetadata `json:"telemetry"`
}

// NewDecisionEvent builds a DecisionEvent with a fresh id and timestamp.
// Confidence is clamped to [0, 1].
func NewDecisionEvent(agentID, agentVersion string, decisionType DecisionType,
	inputsHash string, outputs json.RawMessage, confidence float64) *DecisionEvent {
	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}
	return &DecisionEvent{
		ID:           uuid.New(),
		AgentID:      agentID,
		AgentVersion: agentVersion,
		DecisionType: decisionType,
		InputsHash:   inputsHash,
		Outputs:      outputs,
		Confidence:   confidence,
		ExecutionRef: uuid.NewString(),
		Timestamp:    time.Now().UTC(),
	}
}

// Validate checks the event satisfies the contract before it leaves the
// producing agent.
func (e *DecisionEvent) Validate() error {
	if e.AgentID == "" {
		return fmt.Errorf("%w: agent_id", ErrMissingField)
	}
	if e.AgentVersion == "" {
		return fmt.Errorf("%w: agent_version", ErrMissingField)
	}
	if e.InputsHash == "" {
		return fmt.Errorf("%w: inputs_hash", ErrMissingField)
	}
	if e.Confidence < 0 || e.Confidence > 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidConfidence, e.Confidence)
	}
	return nil
}

// ComputeInputsHash returns the hex SHA-256 of the canonical JSON encoding
// of the inputs. Identical inputs always hash identically.
func ComputeInputsHash(inputs any) string {
	data, err := json.Marshal(inputs)
	if err != nil {
		data = nil
	}
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%x", sum)
}
