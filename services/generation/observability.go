// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package generation

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/AleutianAI/genrouter/services/llm"
)

// routerTracerName is the OTel tracer and meter name for the router.
const routerTracerName = "genrouter.generation"

var (
	// routerRequestsTotal counts finished Route calls.
	//
	// Labels:
	//   - phase: "precheck", "static" or "discovery"
	//   - error_kind: ErrorKind of the final outcome, "none" on success
	routerRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "genrouter",
		Subsystem: "router",
		Name:      "requests_total",
		Help:      "Routed generation requests by final phase and error kind.",
	}, []string{"phase", "error_kind"})

	routerRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "genrouter",
		Subsystem: "router",
		Name:      "request_duration_seconds",
		Help:      "End-to-end duration of routed generation requests.",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	})

	routerDiscoveryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "genrouter",
		Subsystem: "router",
		Name:      "discovery_total",
		Help:      "Discovery phase entries by API version.",
	}, []string{"api_version"})
)

// routerInstruments holds the OTel instruments created from the injected meter.
type routerInstruments struct {
	attempts metric.Int64Histogram
}

func newRouterInstruments(meter metric.Meter) (routerInstruments, error) {
	attempts, err := meter.Int64Histogram("genrouter.router.attempts",
		metric.WithDescription("Provider calls made for one routed request."),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return routerInstruments{}, err
	}
	return routerInstruments{attempts: attempts}, nil
}

func errorKindLabel(kind llm.ErrorKind) string {
	if kind == llm.ErrorKindNone {
		return "none"
	}
	return string(kind)
}

// record publishes the metrics for one finished Route call.
func (r *Router) record(ctx context.Context, res RouteResult, duration time.Duration) {
	kind := errorKindLabel(res.ErrorKind)
	routerRequestsTotal.WithLabelValues(string(res.Phase), kind).Inc()
	routerRequestDuration.Observe(duration.Seconds())
	r.instruments.attempts.Record(ctx, int64(len(res.Attempts)),
		metric.WithAttributes(
			attribute.String("phase", string(res.Phase)),
			attribute.String("error_kind", kind),
		),
	)
}
