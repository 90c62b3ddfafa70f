// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// providerTracerName is the OTel tracer name for provider calls.
const providerTracerName = "genrouter.llm"

// Package-level Prometheus metrics for provider calls.
// Auto-registered via promauto so no explicit registry wiring is needed.
var (
	// providerCallDuration measures the duration of provider HTTP calls.
	//
	// Labels:
	//   - operation: "generate" or "list_models"
	//   - outcome: "success", "skip", "fatal" (generate) or "ok", "error" (list_models)
	providerCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "genrouter",
			Subsystem: "provider",
			Name:      "call_duration_seconds",
			Help:      "Duration of provider API calls in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"operation", "outcome"},
	)

	// providerAttemptsTotal counts generation attempts by API version and result.
	//
	// Labels:
	//   - api_version: the version path segment, e.g. "v1beta"
	//   - error_kind: ErrorKind value, or "none" on success
	providerAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "genrouter",
			Subsystem: "provider",
			Name:      "attempts_total",
			Help:      "Generation attempts by API version and error kind.",
		},
		[]string{"api_version", "error_kind"},
	)

	// providerCatalogModels reports how many generation-capable models the
	// last catalog call returned per API version.
	providerCatalogModels = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "genrouter",
			Subsystem: "provider",
			Name:      "catalog_generation_models",
			Help:      "Generation-capable models returned by the last catalog call.",
		},
		[]string{"api_version"},
	)
)

// errorKindLabel maps an ErrorKind to a label-safe value.
func errorKindLabel(kind ErrorKind) string {
	if kind == ErrorKindNone {
		return "none"
	}
	return string(kind)
}

// recordAttemptMetrics records one finished generation attempt.
//
// Thread Safety: Safe for concurrent use.
func recordAttemptMetrics(version string, duration time.Duration, out Outcome) {
	providerCallDuration.WithLabelValues("generate", out.Kind.String()).Observe(duration.Seconds())
	providerAttemptsTotal.WithLabelValues(version, errorKindLabel(out.ErrorKind)).Inc()
}

// recordCatalogMetrics records one finished catalog call.
func recordCatalogMetrics(version string, duration time.Duration, generationModels int, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	providerCallDuration.WithLabelValues("list_models", outcome).Observe(duration.Seconds())
	if err == nil {
		providerCatalogModels.WithLabelValues(version).Set(float64(generationModels))
	}
}
