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
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/genrouter/services/llm"
)

// Attempter performs one generation call against one candidate.
type Attempter interface {
	Attempt(ctx context.Context, c llm.Candidate, req llm.GenerationRequest) llm.Outcome
}

// Discoverer lists the generation-capable models of one API version.
// Implementations must absorb their own errors and return an empty result.
type Discoverer interface {
	ListGenerationModels(ctx context.Context, version string) []llm.ModelDescriptor
}

// Phase names the stage of Route that produced the final outcome.
type Phase string

const (
	// PhasePrecheck means no provider call was made.
	PhasePrecheck Phase = "precheck"
	// PhaseStatic is the walk over the configured and fallback candidates.
	PhaseStatic Phase = "static"
	// PhaseDiscovery is the walk over models listed by the provider catalog.
	PhaseDiscovery Phase = "discovery"
)

// RouteResult is the full answer of one Route call.
type RouteResult struct {
	// Text is the answer on success, otherwise the user-facing message.
	// It is never empty.
	Text string

	// ErrorKind is ErrorKindNone on success.
	ErrorKind llm.ErrorKind

	// Attempts lists every candidate called, in call order.
	Attempts []llm.Candidate

	// Phase is the stage that produced the final outcome.
	Phase Phase
}

// OK reports whether the result carries a provider answer.
func (r RouteResult) OK() bool {
	return r.ErrorKind == llm.ErrorKindNone
}

// Router turns one prompt into one answer by walking the candidate space.
//
// Description:
//
//	Phase one walks BuildCandidateSpace(cfg).Candidates() in order. Phase two,
//	entered only when every static candidate was skipped, asks the
//	Discoverer for each version's catalog and tries the models not yet
//	attempted. A Success or Fatal outcome ends the walk at once; only Skip
//	continues it. No candidate is attempted twice within one call.
//
// Thread Safety: Safe for concurrent use. All per-request state is local to
// the Route call.
type Router struct {
	cfg         *llm.ProviderConfig
	attempter   Attempter
	discoverer  Discoverer
	logger      *slog.Logger
	meter       metric.Meter
	instruments routerInstruments
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithLogger sets the router logger. Nil is ignored.
func WithLogger(logger *slog.Logger) RouterOption {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMeter sets the OTel meter used for router instruments. Nil is ignored.
func WithMeter(meter metric.Meter) RouterOption {
	return func(r *Router) {
		if meter != nil {
			r.meter = meter
		}
	}
}

// NewRouter creates a Router.
//
// Inputs:
//   - cfg: Provider configuration. Must not be nil. Read, never modified.
//   - attempter: Executes single candidate calls. Must not be nil.
//   - discoverer: Lists catalog models for phase two. Must not be nil.
//   - opts: Optional logger and meter.
//
// Outputs:
//   - *Router: Never nil.
func NewRouter(cfg *llm.ProviderConfig, attempter Attempter, discoverer Discoverer, opts ...RouterOption) *Router {
	r := &Router{
		cfg:        cfg,
		attempter:  attempter,
		discoverer: discoverer,
		logger:     slog.Default(),
		meter:      otel.Meter(routerTracerName),
	}
	for _, opt := range opts {
		opt(r)
	}

	instruments, err := newRouterInstruments(r.meter)
	if err != nil {
		r.logger.Warn("Router metrics disabled", slog.String("error", err.Error()))
		instruments, _ = newRouterInstruments(noop.NewMeterProvider().Meter(routerTracerName))
	}
	r.instruments = instruments
	return r
}

// Route runs the two-phase candidate walk for req.
//
// Description:
//
//	Returns the not-configured message without any call when the API key is
//	blank, and the not-prepared message when the prompt is blank. Otherwise
//	follows the walk described on Router. When both phases are exhausted the
//	result carries the "no model" message.
//
// Inputs:
//   - ctx: Context for cancellation. A cancelled context surfaces as a
//     connectivity failure on the next attempt.
//   - req: The generation request.
//
// Outputs:
//   - RouteResult: Text is never empty.
//
// Thread Safety: Safe for concurrent use.
func (r *Router) Route(ctx context.Context, req llm.GenerationRequest) RouteResult {
	ctx, span := otel.Tracer(routerTracerName).Start(ctx, "generation.Router.Route",
		trace.WithAttributes(
			attribute.String("format", req.Format().String()),
			attribute.Int("prompt_len", len(req.Prompt())),
		),
	)
	defer span.End()

	start := time.Now()
	res := r.route(ctx, req)
	duration := time.Since(start)
	r.record(ctx, res, duration)

	span.SetAttributes(
		attribute.String("phase", string(res.Phase)),
		attribute.Int("attempts", len(res.Attempts)),
		attribute.String("error_kind", errorKindLabel(res.ErrorKind)),
	)
	if !res.OK() {
		span.SetStatus(codes.Error, string(res.ErrorKind))
	}

	r.logger.Debug("Route finished",
		slog.String("phase", string(res.Phase)),
		slog.Int("attempts", len(res.Attempts)),
		slog.String("error_kind", errorKindLabel(res.ErrorKind)),
		slog.Duration("duration", duration),
	)
	return res
}

func (r *Router) route(ctx context.Context, req llm.GenerationRequest) RouteResult {
	if !r.cfg.IsConfigured() {
		return RouteResult{
			Text:      llm.MessageNotConfigured,
			ErrorKind: llm.ErrorKindNotConfigured,
			Phase:     PhasePrecheck,
		}
	}
	if strings.TrimSpace(req.Prompt()) == "" {
		return RouteResult{
			Text:      llm.MessageNotPrepared,
			ErrorKind: llm.ErrorKindInvalidRequest,
			Phase:     PhasePrecheck,
		}
	}

	space := BuildCandidateSpace(r.cfg)
	ledger := newAttemptLedger()

	for _, c := range space.Candidates() {
		if !ledger.tryAdd(c) {
			continue
		}
		if res, done := r.try(ctx, c, req, ledger, PhaseStatic); done {
			return res
		}
	}

	for _, version := range space.Versions {
		routerDiscoveryTotal.WithLabelValues(version).Inc()
		for _, d := range r.discoverer.ListGenerationModels(ctx, version) {
			if !d.SupportsGeneration {
				continue
			}
			model := llm.StripModelPrefix(d.RawName)
			if model == "" {
				continue
			}
			c := llm.Candidate{APIVersion: version, Model: model}
			if !ledger.tryAdd(c) {
				continue
			}
			if res, done := r.try(ctx, c, req, ledger, PhaseDiscovery); done {
				return res
			}
		}
	}

	r.logger.Warn("No AI candidate succeeded", slog.Int("attempts", len(ledger.order)))
	return RouteResult{
		Text:      llm.MessageNoModel,
		ErrorKind: llm.ErrorKindNoCandidateSucceeded,
		Attempts:  ledger.attempts(),
		Phase:     PhaseDiscovery,
	}
}

// try attempts c and reports whether its outcome ends the walk.
func (r *Router) try(ctx context.Context, c llm.Candidate, req llm.GenerationRequest, ledger *attemptLedger, phase Phase) (RouteResult, bool) {
	out := r.attempter.Attempt(ctx, c, req)
	switch out.Kind {
	case llm.OutcomeSuccess:
		return RouteResult{Text: out.Text, Attempts: ledger.attempts(), Phase: phase}, true
	case llm.OutcomeFatal:
		return RouteResult{Text: out.Message, ErrorKind: out.ErrorKind, Attempts: ledger.attempts(), Phase: phase}, true
	default:
		r.logger.Debug("Candidate skipped",
			slog.String("candidate", c.String()),
			slog.String("error_kind", string(out.ErrorKind)),
			slog.String("phase", string(phase)),
		)
		return RouteResult{}, false
	}
}

// Generate returns the free-text answer for prompt, or a user-facing message.
// It never returns an empty string.
func (r *Router) Generate(ctx context.Context, prompt string) string {
	return r.Route(ctx, r.newRequest(prompt, llm.FormatText)).Text
}

// GenerateSuggestion asks for a structured suggestion. When the answer does
// not parse as an object the raw text becomes the description under the
// fallback title.
func (r *Router) GenerateSuggestion(ctx context.Context, prompt string) llm.Suggestion {
	text := r.Route(ctx, r.newRequest(prompt, llm.FormatSuggestion)).Text
	if s, ok := llm.ParseSuggestion(text); ok {
		return s
	}
	return llm.FallbackSuggestion(text)
}

// newRequest builds a request. A blank prompt yields the zero request, which
// Route answers with the not-prepared message.
func (r *Router) newRequest(prompt string, format llm.OutputFormat) llm.GenerationRequest {
	req, err := llm.NewGenerationRequest(prompt, format)
	if err != nil {
		r.logger.Debug("Rejecting generation request", slog.String("error", err.Error()))
	}
	return req
}

// ListCatalog reports the generation-capable models of each API version.
//
// Description:
//
//	Versions are versionHint (when non-blank) followed by the well-known
//	versions. Catalogs are fetched concurrently. Model names are returned
//	raw, with their "models/" prefix. A version whose catalog cannot be read
//	maps to an empty list.
//
// Inputs:
//   - ctx: Context for cancellation.
//   - versionHint: Optional extra version to list first.
//
// Outputs:
//   - map[string][]string: One entry per version; lists are never nil.
//
// Thread Safety: Safe for concurrent use.
func (r *Router) ListCatalog(ctx context.Context, versionHint string) map[string][]string {
	versions := versionsFor(versionHint)

	var (
		mu      sync.Mutex
		catalog = make(map[string][]string, len(versions))
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, version := range versions {
		version := version
		g.Go(func() error {
			models := r.discoverer.ListGenerationModels(gctx, version)
			names := make([]string, 0, len(models))
			for _, m := range models {
				names = append(names, m.RawName)
			}
			mu.Lock()
			catalog[version] = names
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return catalog
}
