// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers implements the planner service's HTTP handlers.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianPlan/pkg/validation"
	"github.com/AleutianAI/AleutianPlan/services/planner/datatypes"
	"github.com/AleutianAI/AleutianPlan/services/planner/decomposer"
	"github.com/AleutianAI/AleutianPlan/services/planner/graph"
	"github.com/AleutianAI/AleutianPlan/services/planner/observability"
	"github.com/AleutianAI/AleutianPlan/services/planner/storage"
	"github.com/AleutianAI/AleutianPlan/services/planner/telemetry"
)

// Execution lineage headers. When the caller supplies both, handlers emit
// a durable execution record alongside the live trace.
const (
	HeaderParentSpanID = "X-Parent-Span-Id"
	HeaderTraceID      = "X-Trace-Id"
)

// AnalyzePlan handles POST /v1/plans/analyze: runs the graph engine over
// the submitted steps and returns the full analysis artifact.
func AnalyzePlan(analyzer *graph.Analyzer, store *storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		var req datatypes.AnalyzePlanRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			recordRequest(observability.EndpointAnalyze, http.StatusBadRequest, start)
			return
		}
		if err := validation.ValidatePlanID(req.PlanID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			recordRequest(observability.EndpointAnalyze, http.StatusBadRequest, start)
			return
		}
		for _, step := range req.Steps {
			if err := validation.ValidateStepID(step.StepID); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				recordRequest(observability.EndpointAnalyze, http.StatusBadRequest, start)
				return
			}
		}

		rec := openExecutionRecord(c, req.ExecutionRef)
		var agentSpan string
		if rec != nil {
			agentSpan = rec.StartAgentSpan("graph-analyzer")
		}

		analysis, err := analyzer.Analyze(c.Request.Context(), req.PlanID, req.Steps)
		if err != nil {
			if rec != nil {
				_ = rec.FailAgentSpan(agentSpan, err.Error())
				rec.FailRepo(err.Error())
				saveExecutionRecord(c, store, rec)
			}
			status := engineErrorStatus(err)
			slog.Warn("plan analysis rejected",
				slog.String("plan_id", req.PlanID),
				slog.Int("status", status),
				slog.String("error", err.Error()),
			)
			c.JSON(status, gin.H{"error": err.Error()})
			recordRequest(observability.EndpointAnalyze, status, start)
			return
		}

		if req.Persist && store != nil {
			if err := store.SaveAnalysis(c.Request.Context(), analysis); err != nil {
				slog.Error("failed to persist analysis",
					slog.String("plan_id", req.PlanID),
					slog.String("error", err.Error()),
				)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist analysis"})
				recordRequest(observability.EndpointAnalyze, http.StatusInternalServerError, start)
				return
			}
			recordPersisted("analysis")
		}

		if rec != nil {
			data, _ := json.Marshal(analysis)
			_ = rec.CompleteAgentSpan(agentSpan, []telemetry.Artifact{{
				Name:      "analysis",
				Type:      "plan_analysis",
				Reference: req.PlanID,
				Data:      data,
			}})
			if err := rec.CompleteRepo(); err == nil {
				saveExecutionRecord(c, store, rec)
			}
		}

		c.JSON(http.StatusOK, analysis)
		recordRequest(observability.EndpointAnalyze, http.StatusOK, start)
	}
}

// DecomposePlan handles POST /v1/plans/decompose: decomposes the plan into
// atomic tasks, analyzes the resulting step graph, and returns both the
// decision event and the analysis.
func DecomposePlan(agent *decomposer.Agent, analyzer *graph.Analyzer, store *storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		var req datatypes.DecomposePlanRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			recordRequest(observability.EndpointDecompose, http.StatusBadRequest, start)
			return
		}
		if err := validation.ValidatePlanID(req.PlanID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			recordRequest(observability.EndpointDecompose, http.StatusBadRequest, start)
			return
		}

		rec := openExecutionRecord(c, req.ExecutionRef)
		var agentSpan string
		if rec != nil {
			agentSpan = rec.StartAgentSpan(decomposer.AgentID)
		}

		event, output, err := agent.Decompose(c.Request.Context(), &decomposer.Input{
			Plan: decomposer.Plan{
				ID:          req.PlanID,
				Name:        req.Name,
				Description: req.Description,
				Objectives:  req.Objectives,
				Constraints: req.Constraints,
			},
			ExecutionRef: req.ExecutionRef,
		})
		if err != nil {
			if rec != nil {
				_ = rec.FailAgentSpan(agentSpan, err.Error())
				rec.FailRepo(err.Error())
				saveExecutionRecord(c, store, rec)
			}
			status := http.StatusUnprocessableEntity
			if errors.Is(err, decomposer.ErrInvalidInput) {
				status = http.StatusBadRequest
			}
			c.JSON(status, gin.H{"error": err.Error()})
			recordRequest(observability.EndpointDecompose, status, start)
			return
		}

		analysis, err := analyzer.Analyze(c.Request.Context(), req.PlanID, output.Steps())
		if err != nil {
			// Decomposed steps are acyclic by construction; reaching
			// this is an engine defect.
			if rec != nil {
				_ = rec.FailAgentSpan(agentSpan, err.Error())
				rec.FailRepo(err.Error())
				saveExecutionRecord(c, store, rec)
			}
			slog.Error("analysis of decomposed plan failed",
				slog.String("plan_id", req.PlanID),
				slog.String("error", err.Error()),
			)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis of decomposed plan failed"})
			recordRequest(observability.EndpointDecompose, http.StatusInternalServerError, start)
			return
		}

		recordConfidence(event.Confidence)

		if req.Persist && store != nil {
			ctx := c.Request.Context()
			if err := store.SaveDecision(ctx, event); err == nil {
				recordPersisted("decision")
			} else {
				slog.Error("failed to persist decision", slog.String("error", err.Error()))
			}
			if err := store.SaveAnalysis(ctx, analysis); err == nil {
				recordPersisted("analysis")
			} else {
				slog.Error("failed to persist analysis", slog.String("error", err.Error()))
			}
		}

		if rec != nil {
			_ = rec.CompleteAgentSpan(agentSpan, []telemetry.Artifact{{
				Name:      "decision",
				Type:      "decision_event",
				Reference: event.ID.String(),
				Data:      event.Outputs,
			}})
			if err := rec.CompleteRepo(); err == nil {
				saveExecutionRecord(c, store, rec)
			}
		}

		c.JSON(http.StatusOK, datatypes.DecomposePlanResponse{
			Decision: event,
			Plan:     analysis,
		})
		recordRequest(observability.EndpointDecompose, http.StatusOK, start)
	}
}

// GetPlanAnalysis handles GET /v1/plans/:planId/analysis.
func GetPlanAnalysis(store *storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		if store == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "persistence is not configured"})
			recordRequest(observability.EndpointGetAnalysis, http.StatusServiceUnavailable, start)
			return
		}

		planID := c.Param("planId")
		if err := validation.ValidatePlanID(planID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			recordRequest(observability.EndpointGetAnalysis, http.StatusBadRequest, start)
			return
		}
		analysis, err := store.GetAnalysis(c.Request.Context(), planID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "no analysis for plan"})
				recordRequest(observability.EndpointGetAnalysis, http.StatusNotFound, start)
				return
			}
			slog.Error("failed to load analysis",
				slog.String("plan_id", planID),
				slog.String("error", err.Error()),
			)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load analysis"})
			recordRequest(observability.EndpointGetAnalysis, http.StatusInternalServerError, start)
			return
		}

		c.JSON(http.StatusOK, analysis)
		recordRequest(observability.EndpointGetAnalysis, http.StatusOK, start)
	}
}

// ListPlans handles GET /v1/plans: the plan ids with stored analyses.
func ListPlans(store *storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		if store == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "persistence is not configured"})
			recordRequest(observability.EndpointListPlans, http.StatusServiceUnavailable, start)
			return
		}

		ids, err := store.ListAnalyzedPlans(c.Request.Context())
		if err != nil {
			slog.Error("failed to list plans", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list plans"})
			recordRequest(observability.EndpointListPlans, http.StatusInternalServerError, start)
			return
		}
		if ids == nil {
			ids = []string{}
		}

		c.JSON(http.StatusOK, gin.H{"plan_ids": ids})
		recordRequest(observability.EndpointListPlans, http.StatusOK, start)
	}
}

// engineErrorStatus maps graph engine errors onto HTTP status codes.
// Structural defects the caller can fix are 422; malformed step sets are
// 400; a partition stall is an engine bug and stays 500.
func engineErrorStatus(err error) int {
	switch {
	case errors.Is(err, graph.ErrDanglingDependency),
		errors.Is(err, graph.ErrCyclicDependency),
		errors.Is(err, graph.ErrMaxStepsExceeded):
		return http.StatusUnprocessableEntity
	case errors.Is(err, graph.ErrDuplicateStep),
		errors.Is(err, graph.ErrEmptyStepID):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// openExecutionRecord builds a durable execution record when the caller
// supplied an execution ref and span lineage headers. Returns nil when
// lineage is absent; the live OTLP trace still covers the request.
func openExecutionRecord(c *gin.Context, executionRef string) *telemetry.ExecutionRecord {
	if executionRef == "" {
		return nil
	}
	parentSpan := c.GetHeader(HeaderParentSpanID)
	if parentSpan == "" {
		return nil
	}
	rec, err := telemetry.NewExecutionRecord(executionRef, parentSpan, c.GetHeader(HeaderTraceID))
	if err != nil {
		slog.Warn("could not open execution record", slog.String("error", err.Error()))
		return nil
	}
	return rec
}

func saveExecutionRecord(c *gin.Context, store *storage.Store, rec *telemetry.ExecutionRecord) {
	if store == nil {
		return
	}
	if err := store.SaveExecutionRecord(c.Request.Context(), rec); err != nil {
		slog.Error("failed to persist execution record",
			slog.String("execution_id", rec.ExecutionID),
			slog.String("error", err.Error()),
		)
		return
	}
	recordPersisted("execution_record")
}

func recordRequest(endpoint observability.Endpoint, status int, start time.Time) {
	if observability.DefaultMetrics == nil {
		return
	}
	observability.DefaultMetrics.RecordRequest(endpoint, status, time.Since(start).Seconds())
}

func recordPersisted(kind string) {
	if observability.DefaultMetrics == nil {
		return
	}
	observability.DefaultMetrics.RecordPersisted(kind)
}

func recordConfidence(confidence float64) {
	if observability.DefaultMetrics == nil {
		return
	}
	observability.DefaultMetrics.RecordConfidence(confidence)
}
