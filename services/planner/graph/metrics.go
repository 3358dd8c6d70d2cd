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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	analyzeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aleutian",
		Subsystem: "planner",
		Name:      "analyze_total",
		Help:      "Plan analyses by outcome (ok, dangling, cycle, too_large, invariant).",
	}, []string{"outcome"})

	analyzeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "aleutian",
		Subsystem: "planner",
		Name:      "analyze_duration_seconds",
		Help:      "Wall time of a full plan analysis.",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
	})

	analyzeSteps = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "aleutian",
		Subsystem: "planner",
		Name:      "analyze_plan_steps",
		Help:      "Step count of analyzed plans.",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
	})
)
