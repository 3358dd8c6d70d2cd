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
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/AleutianAI/AleutianPlan/pkg/logging"
	"github.com/AleutianAI/AleutianPlan/services/planner/decomposer"
	"github.com/AleutianAI/AleutianPlan/services/planner/graph"
	"github.com/AleutianAI/AleutianPlan/services/planner/middleware"
	"github.com/AleutianAI/AleutianPlan/services/planner/observability"
	"github.com/AleutianAI/AleutianPlan/services/planner/routes"
	"github.com/AleutianAI/AleutianPlan/services/planner/storage"
)

func initTracer() (func(context.Context), error) {
	ctx := context.Background()

	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint == "" {
		otelEndpoint = "aleutian-otel-collector:4317"
	}
	conn, err := grpc.NewClient(otelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("planner-service")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.
		TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

// openStore opens the plan store from PLANNER_DATA_DIR. An empty value
// means no persistence; analyze/decompose still work, retrieval returns
// 503.
func openStore(logger *slog.Logger) (*storage.Store, error) {
	dataDir := os.Getenv("PLANNER_DATA_DIR")
	if dataDir == "" {
		slog.Info("PLANNER_DATA_DIR not set, running without persistence")
		return nil, nil
	}
	cfg := storage.DefaultConfig(dataDir)
	cfg.Logger = logger
	return storage.Open(cfg)
}

func maxStepsFromEnv() int {
	raw := os.Getenv("PLANNER_MAX_STEPS")
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		slog.Warn("invalid PLANNER_MAX_STEPS, using default", "value", raw)
		return 0
	}
	return n
}

func main() {
	port := os.Getenv("PLANNER_PORT")
	if port == "" {
		port = "12230"
	}

	appLogger := logging.New(logging.Config{
		Level:   logging.ParseLevel(os.Getenv("PLANNER_LOG_LEVEL")),
		LogDir:  os.Getenv("PLANNER_LOG_DIR"),
		Service: "planner",
		JSON:    true,
	})
	defer appLogger.Close()
	logger := appLogger.Slog()
	slog.SetDefault(logger)

	cleanup, err := initTracer()
	if err != nil {
		log.Fatalf("failed to setup the OTLP tracer: %v", err)
	}
	defer cleanup(context.Background())

	observability.InitMetrics()

	store, err := openStore(logger)
	if err != nil {
		log.Fatalf("FATAL: could not open the plan store: %v", err)
	}

	var auth middleware.AuthProvider
	if token := os.Getenv("PLANNER_API_TOKEN"); token != "" {
		auth = middleware.StaticTokenProvider{Token: token}
		slog.Info("API token authentication enabled")
	}

	router := gin.Default()
	router.Use(otelgin.Middleware("planner-service"))
	routes.SetupRoutes(router, routes.Deps{
		Analyzer: graph.NewAnalyzer(graph.AnalyzerOptions{MaxSteps: maxStepsFromEnv()}),
		Agent:    decomposer.New(),
		Store:    store,
		Auth:     auth,
	})

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting the planner server", "port", port)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("planner server failed: %v", err)
	}

	if store != nil {
		if err := store.Close(); err != nil {
			slog.Error("failed to close the plan store", "error", err)
		}
	}
	slog.Info("planner server stopped")
}
