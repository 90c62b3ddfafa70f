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
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const serviceName = "genrouter"

// telemetryOptions selects the exporters installed by setupTelemetry.
type telemetryOptions struct {
	// Stdout exports spans and metrics to the console.
	Stdout bool

	// Console receives the stdout exporters' output. Nil means os.Stdout.
	// CLI commands pass stderr so telemetry never mixes with their answers.
	Console io.Writer

	// Prometheus bridges OTel metrics into the default Prometheus registry.
	Prometheus bool
}

// setupTelemetry installs the global tracer and meter providers.
//
// Description:
//
//	Spans go to OTLP/gRPC when OTEL_EXPORTER_OTLP_ENDPOINT is set, else to
//	the console when requested, else nowhere. Metrics are read by the
//	Prometheus exporter and, when requested, a periodic console reader.
//
// Outputs:
//   - func(context.Context) error: Flushes and stops both providers.
//   - error: Non-nil if an exporter could not be created.
func setupTelemetry(ctx context.Context, opts telemetryOptions) (func(context.Context) error, error) {
	res := resource.NewSchemaless(attribute.String("service.name", serviceName))

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	console := opts.Console
	if console == nil {
		console = os.Stdout
	}

	tpOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	switch {
	case os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "":
		exporter, err := otlptracegrpc.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("creating OTLP trace exporter: %w", err)
		}
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exporter))
	case opts.Stdout:
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(console), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("creating stdout trace exporter: %w", err)
		}
		tpOpts = append(tpOpts, sdktrace.WithSyncer(exporter))
	}
	tp := sdktrace.NewTracerProvider(tpOpts...)
	otel.SetTracerProvider(tp)

	mpOpts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	if opts.Prometheus {
		reader, err := otelprom.New()
		if err != nil {
			_ = tp.Shutdown(ctx)
			return nil, fmt.Errorf("creating prometheus metric exporter: %w", err)
		}
		mpOpts = append(mpOpts, sdkmetric.WithReader(reader))
	}
	if opts.Stdout {
		exporter, err := stdoutmetric.New(stdoutmetric.WithWriter(console))
		if err != nil {
			_ = tp.Shutdown(ctx)
			return nil, fmt.Errorf("creating stdout metric exporter: %w", err)
		}
		mpOpts = append(mpOpts, sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(time.Minute)),
		))
	}
	mp := sdkmetric.NewMeterProvider(mpOpts...)
	otel.SetMeterProvider(mp)

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}
