// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AleutianAI/AleutianPlan/services/planner/decomposer"
	"github.com/AleutianAI/AleutianPlan/services/planner/graph"
	"github.com/AleutianAI/AleutianPlan/services/planner/handlers"
	"github.com/AleutianAI/AleutianPlan/services/planner/middleware"
	"github.com/AleutianAI/AleutianPlan/services/planner/storage"
)

// Deps carries the collaborators the route handlers close over.
type Deps struct {
	Analyzer *graph.Analyzer
	Agent    *decomposer.Agent
	Store    *storage.Store

	// Auth validates bearer tokens on the /v1 group. Nil means the
	// NopProvider (every request authenticates as local-user).
	Auth middleware.AuthProvider
}

// SetupRoutes registers all planner endpoints on the router.
func SetupRoutes(router *gin.Engine, deps Deps) {
	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := deps.Auth
	if auth == nil {
		auth = middleware.NopProvider{}
	}

	v1 := router.Group("/v1")
	v1.Use(middleware.AuthMiddleware(auth))
	{
		plans := v1.Group("/plans")
		{
			plans.POST("/analyze", handlers.AnalyzePlan(deps.Analyzer, deps.Store))
			plans.POST("/decompose", handlers.DecomposePlan(deps.Agent, deps.Analyzer, deps.Store))
			plans.GET("", handlers.ListPlans(deps.Store))
			plans.GET("/:planId/analysis", handlers.GetPlanAnalysis(deps.Store))
		}
	}
}
