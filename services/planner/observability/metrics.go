// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for the planner's HTTP
// surface. Engine-level metrics live with the graph package; these cover
// the request path: counts, latency, persistence, and decision confidence.
//
// Metrics are exposed on /metrics for Prometheus scraping.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "aleutian"
	plannerSubsystem = "planner_http"
)

// PlannerMetrics holds the Prometheus metrics for the planner service.
// Initialize once at startup via InitMetrics.
type PlannerMetrics struct {
	// RequestsTotal counts API requests by endpoint and status.
	// Labels: endpoint (analyze, decompose, get_analysis, list_plans),
	// status (success, client_error, server_error)
	RequestsTotal *prometheus.CounterVec

	// RequestDurationSeconds measures end-to-end handler latency.
	// Labels: endpoint
	RequestDurationSeconds *prometheus.HistogramVec

	// PersistedArtifactsTotal counts artifacts written to the plan store.
	// Labels: kind (analysis, decision, execution_record)
	PersistedArtifactsTotal *prometheus.CounterVec

	// DecisionConfidence observes the confidence of emitted decisions.
	DecisionConfidence prometheus.Histogram
}

// DefaultMetrics is the singleton instance, set by InitMetrics.
var DefaultMetrics *PlannerMetrics

// InitMetrics creates and registers all planner metrics. Call once at
// startup; a second call panics on duplicate registration.
func InitMetrics() *PlannerMetrics {
	DefaultMetrics = &PlannerMetrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: plannerSubsystem,
				Name:      "requests_total",
				Help:      "Total planner API requests by endpoint and status",
			},
			[]string{"endpoint", "status"},
		),

		RequestDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: plannerSubsystem,
				Name:      "request_duration_seconds",
				Help:      "Planner handler latency in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"endpoint"},
		),

		PersistedArtifactsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: plannerSubsystem,
				Name:      "persisted_artifacts_total",
				Help:      "Artifacts written to the plan store by kind",
			},
			[]string{"kind"},
		),

		DecisionConfidence: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: plannerSubsystem,
				Name:      "decision_confidence",
				Help:      "Confidence of emitted decision events",
				Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
			},
		),
	}
	return DefaultMetrics
}

// Endpoint names used as metric labels.
type Endpoint string

const (
	EndpointAnalyze     Endpoint = "analyze"
	EndpointDecompose   Endpoint = "decompose"
	EndpointGetAnalysis Endpoint = "get_analysis"
	EndpointListPlans   Endpoint = "list_plans"
)

// RecordRequest records a completed request. Status codes under 500 with
// ok=false count as client errors.
func (m *PlannerMetrics) RecordRequest(endpoint Endpoint, statusCode int, seconds float64) {
	status := "success"
	switch {
	case statusCode >= 500:
		status = "server_error"
	case statusCode >= 400:
		status = "client_error"
	}
	m.RequestsTotal.WithLabelValues(string(endpoint), status).Inc()
	m.RequestDurationSeconds.WithLabelValues(string(endpoint)).Observe(seconds)
}

// RecordPersisted counts one stored artifact of the given kind.
func (m *PlannerMetrics) RecordPersisted(kind string) {
	m.PersistedArtifactsTotal.WithLabelValues(kind).Inc()
}

// RecordConfidence observes a decision confidence value.
func (m *PlannerMetrics) RecordConfidence(confidence float64) {
	m.DecisionConfidence.Observe(confidence)
}
