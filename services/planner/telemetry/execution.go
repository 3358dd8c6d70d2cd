// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry records the hierarchical execution spans emitted for
// every externally invoked planner operation.
//
// Every invocation produces one repo-level span holding one or more
// agent-level spans: Core (the external caller) -> Repo -> Agent. The
// record is append-only and causally ordered through parent span ids; it
// is a durable artifact, distinct from the live OpenTelemetry traces the
// service also emits.
package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RepoName identifies this repository in execution records.
const RepoName = "aleutian-plan"

// SpanType places a span in the Core -> Repo -> Agent hierarchy.
type SpanType string

const (
	SpanCore  SpanType = "core"
	SpanRepo  SpanType = "repo"
	SpanAgent SpanType = "agent"
)

// Status of an execution span.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Sentinel errors.
var (
	// ErrMissingParentSpan is returned when a record is created without a
	// parent span id from the caller.
	ErrMissingParentSpan = errors.New("missing parent span id")

	// ErrNoAgentSpans is returned when a record is completed without any
	// agent-level spans; such an execution is invalid.
	ErrNoAgentSpans = errors.New("no agent-level spans emitted")

	// ErrSpanNotFound is returned for operations on unknown span ids.
	ErrSpanNotFound = errors.New("span not found")

	// ErrSpanFinished is returned when completing or failing a span that
	// already finished.
	ErrSpanFinished = errors.New("span already finished")
)

// Artifact is machine-verifiable evidence attached to an agent-level span.
// Artifacts never attach to the core span.
type Artifact struct {
	// Name is the human-readable artifact name.
	Name string `json:"name"`

	// Type classifies the artifact, e.g. "decision_event" or "plan_analysis".
	Type string `json:"artifact_type"`

	// Reference is a stable id, URI, hash, or filename.
	Reference string `json:"reference"`

	// Data holds the artifact payload verbatim.
	Data json.RawMessage `json:"data"`
}

// Span is one node in the execution record. Every span carries a parent
// span id; the root core span belongs to the external caller.
type Span struct {
	SpanID        string            `json:"span_id"`
	ParentSpanID  string            `json:"parent_span_id"`
	TraceID       string            `json:"trace_id"`
	Type          SpanType          `json:"span_type"`
	RepoName      string            `json:"repo_name,omitempty"`
	AgentName     string            `json:"agent_name,omitempty"`
	Status        Status            `json:"status"`
	StartTime     time.Time         `json:"start_time"`
	EndTime       *time.Time        `json:"end_time,omitempty"`
	FailureReason string            `json:"failure_reason,omitempty"`
	Artifacts     []Artifact        `json:"artifacts,omitempty"`
	Attributes    map[string]string `json:"attributes,omitempty"`
}

// ExecutionRecord is the complete span record for one invocation.
//
// Thread Safety: NOT safe for concurrent use; each invocation owns its
// record.
type ExecutionRecord struct {
	// ExecutionID is provided by the external caller.
	ExecutionID string `json:"execution_id"`

	// RepoSpanID is the span id of the repo-level span, the root of this
	// repository's subgraph.
	RepoSpanID string `json:"repo_span_id"`

	// Spans holds all spans, append-only, causally ordered.
	Spans []Span `json:"spans"`
}

// NewExecutionRecord opens a record with its repo-level span running,
// parented on the caller's span.
func NewExecutionRecord(executionID, parentSpanID, traceID string) (*ExecutionRecord, error) {
	if parentSpanID == "" {
		return nil, ErrMissingParentSpan
	}

	repoSpanID := newSpanID()
	return &ExecutionRecord{
		ExecutionID: executionID,
		RepoSpanID:  repoSpanID,
		Spans: []Span{{
			SpanID:       repoSpanID,
			ParentSpanID: parentSpanID,
			TraceID:      traceID,
			Type:         SpanRepo,
			RepoName:     RepoName,
			Status:       StatusRunning,
			StartTime:    time.Now().UTC(),
		}},
	}, nil
}

// StartAgentSpan opens an agent-level span under the repo span and returns
// its id for later completion or failure.
func (r *ExecutionRecord) StartAgentSpan(agentName string) string {
	spanID := newSpanID()
	r.Spans = append(r.Spans, Span{
		SpanID:       spanID,
		ParentSpanID: r.RepoSpanID,
		TraceID:      r.Spans[0].TraceID,
		Type:         SpanAgent,
		RepoName:     RepoName,
		AgentName:    agentName,
		Status:       StatusRunning,
		StartTime:    time.Now().UTC(),
	})
	return spanID
}

// CompleteAgentSpan finishes an agent span successfully, attaching its
// artifacts.
func (r *ExecutionRecord) CompleteAgentSpan(spanID string, artifacts []Artifact) error {
	span, err := r.findSpan(spanID)
	if err != nil {
		return err
	}
	if span.Status != StatusRunning {
		return fmt.Errorf("%w: %s", ErrSpanFinished, spanID)
	}
	now := time.Now().UTC()
	span.Status = StatusCompleted
	span.EndTime = &now
	span.Artifacts = artifacts
	return nil
}

// FailAgentSpan marks an agent span failed with the given reason.
func (r *ExecutionRecord) FailAgentSpan(spanID, reason string) error {
	span, err := r.findSpan(spanID)
	if err != nil {
		return err
	}
	if span.Status != StatusRunning {
		return fmt.Errorf("%w: %s", ErrSpanFinished, spanID)
	}
	now := time.Now().UTC()
	span.Status = StatusFailed
	span.EndTime = &now
	span.FailureReason = reason
	return nil
}

// CompleteRepo finishes the repo span. The record must hold at least one
// agent span or the execution is invalid.
func (r *ExecutionRecord) CompleteRepo() error {
	if err := r.Validate(); err != nil {
		return err
	}
	repo, err := r.findSpan(r.RepoSpanID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	repo.Status = StatusCompleted
	repo.EndTime = &now
	return nil
}

// FailRepo marks the repo span failed. Already-emitted agent spans are
// preserved untouched.
func (r *ExecutionRecord) FailRepo(reason string) {
	repo, err := r.findSpan(r.RepoSpanID)
	if err != nil {
		return
	}
	now := time.Now().UTC()
	repo.Status = StatusFailed
	repo.EndTime = &now
	repo.FailureReason = reason
}

// Validate checks the record's invariants: at least one agent span must
// exist.
func (r *ExecutionRecord) Validate() error {
	for _, s := range r.Spans {
		if s.Type == SpanAgent {
			return nil
		}
	}
	return ErrNoAgentSpans
}

// HasAgentSpans reports whether any agent-level span was emitted.
func (r *ExecutionRecord) HasAgentSpans() bool {
	return r.Validate() == nil
}

// RepoSpan returns the repo-level span, or nil if the record is corrupt.
func (r *ExecutionRecord) RepoSpan() *Span {
	span, err := r.findSpan(r.RepoSpanID)
	if err != nil {
		return nil
	}
	return span
}

// AgentSpans returns the agent-level spans in emission order.
func (r *ExecutionRecord) AgentSpans() []*Span {
	var agents []*Span
	for i := range r.Spans {
		if r.Spans[i].Type == SpanAgent {
			agents = append(agents, &r.Spans[i])
		}
	}
	return agents
}

// SetRepoAttribute adds a metadata attribute to the repo span.
func (r *ExecutionRecord) SetRepoAttribute(key, value string) {
	repo := r.RepoSpan()
	if repo == nil {
		return
	}
	if repo.Attributes == nil {
		repo.Attributes = make(map[string]string)
	}
	repo.Attributes[key] = value
}

func (r *ExecutionRecord) findSpan(spanID string) (*Span, error) {
	for i := range r.Spans {
		if r.Spans[i].SpanID == spanID {
			return &r.Spans[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrSpanNotFound, spanID)
}

// newSpanID returns a 16-hex-character span id, the CorrelationContext
// format.
func newSpanID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}
