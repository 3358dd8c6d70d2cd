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
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianPlan/services/planner/decomposer"
	"github.com/AleutianAI/AleutianPlan/services/planner/graph"
	"github.com/AleutianAI/AleutianPlan/services/planner/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(auth middleware.AuthProvider) *gin.Engine {
	router := gin.New()
	SetupRoutes(router, Deps{
		Analyzer: graph.NewAnalyzer(graph.AnalyzerOptions{}),
		Agent:    decomposer.New(),
		Auth:     auth,
	})
	return router
}

func TestSetupRoutes(t *testing.T) {
	t.Run("health and metrics are open", func(t *testing.T) {
		router := newRouter(middleware.StaticTokenProvider{Token: "tok"})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("v1 requires auth when a token provider is set", func(t *testing.T) {
		router := newRouter(middleware.StaticTokenProvider{Token: "tok"})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/plans", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		req := httptest.NewRequest(http.MethodGet, "/v1/plans", nil)
		req.Header.Set("Authorization", "Bearer tok")
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)
		// No store is wired; the handler answers 503, not 401.
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("nil provider defaults to open access", func(t *testing.T) {
		router := newRouter(nil)

		body := strings.NewReader(`{"plan_id":"p","steps":[{"step_id":"a"}]}`)
		req := httptest.NewRequest(http.MethodPost, "/v1/plans/analyze", body)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})
}
