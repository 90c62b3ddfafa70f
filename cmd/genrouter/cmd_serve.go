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
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/time/rate"

	"github.com/AleutianAI/genrouter/services/assistant"
)

var (
	servePort       int
	rateLimitPerMin int
	rateLimitBurst  int
	shutdownTimeout time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the AI endpoints over HTTP",
	Long: `Starts an HTTP server exposing:

  POST /v1/ai/club-description
  POST /v1/ai/event-suggestion
  POST /v1/ai/assistant
  GET  /v1/ai/models
  GET  /v1/ai/health
  GET  /metrics

The /ai/* endpoints are also served without the /v1 prefix.`,
	Args: cobra.NoArgs,
	RunE: runServeCommand,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	serveCmd.Flags().IntVar(&rateLimitPerMin, "rate-limit", 60, "AI requests allowed per minute (0 disables)")
	serveCmd.Flags().IntVar(&rateLimitBurst, "rate-burst", 10, "AI request burst size")
	serveCmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 15*time.Second, "Graceful shutdown timeout")
}

func runServeCommand(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := setupTelemetry(ctx, telemetryOptions{Stdout: telemetryStdout, Prometheus: true})
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			slog.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	router, cfg, err := newRouter()
	if err != nil {
		return err
	}

	engine := newEngine(assistant.NewHandlers(router, cfg), assistant.NewLimiter(rateLimitPerMin, rateLimitBurst))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", servePort),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting genrouter server",
			slog.String("address", srv.Addr),
			slog.Bool("configured", cfg.IsConfigured()),
			slog.Int("rate_limit_per_min", rateLimitPerMin),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down genrouter server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

// newEngine builds the gin engine with middleware and all routes.
func newEngine(handlers *assistant.Handlers, limiter *rate.Limiter) *gin.Engine {
	if debugMode {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(otelgin.Middleware(serviceName))
	engine.Use(assistant.AccessLog())

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := engine.Group("/v1")
	assistant.RegisterRoutes(v1, handlers, limiter)

	// Unversioned paths used by the existing web and mobile clients.
	assistant.RegisterRoutes(&engine.RouterGroup, handlers, limiter)
	return engine
}
