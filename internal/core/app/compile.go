package app

import (
	"cirgen/internal/core/errors"
	"cirgen/internal/engine/header"
	"cirgen/internal/engine/inference"
	"cirgen/internal/engine/ir"
	"cirgen/internal/engine/translate"
	"cirgen/internal/shared/observability"
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Stats summarizes one compile.
type Stats struct {
	translate.Stats
	// Filtered counts declarations removed by the symbol filters.
	Filtered int
	// PatternsByPass counts tags added by each inference pass.
	PatternsByPass map[string]int
	Patterns       int
}

type Result struct {
	Module *ir.Module
	Stats  Stats
}

// Compile runs the IR pipeline over h: symbol filters, the size cap,
// translation and pattern inference.
func (a *App) Compile(ctx context.Context, h *header.Header) (Result, error) {
	return a.compile(ctx, a.current(), h)
}

func (a *App) compile(ctx context.Context, s *settings, h *header.Header) (Result, error) {
	if h == nil {
		return Result{}, errors.New(errors.CodeValidationError, "header must not be nil")
	}
	_, span := observability.Tracer.Start(ctx, "app.Compile", trace.WithAttributes(
		attribute.String("module", h.Name),
	))
	defer span.End()

	var stats Stats
	if s.filtering() {
		before := h.DeclarationCount()
		h = h.Filter(s.keep)
		stats.Filtered = before - h.DeclarationCount()
		if stats.Filtered > 0 {
			observability.DroppedDeclarationsTotal.WithLabelValues("filtered").Add(float64(stats.Filtered))
		}
	}

	if limit := s.cfg.Build.MaxDeclarations; limit > 0 && h.DeclarationCount() > limit {
		return Result{}, errors.AddContext(
			errors.New(errors.CodeValidationError,
				fmt.Sprintf("header declares %d symbols, limit is %d", h.DeclarationCount(), limit)),
			errors.CtxModule, h.Name)
	}

	start := time.Now()
	m, tstats, err := translate.Build(h)
	if err != nil {
		return Result{}, errors.AddContext(err, errors.CtxModule, h.Name)
	}
	observability.StageDuration.WithLabelValues("translate").Observe(time.Since(start).Seconds())
	stats.Stats = tstats

	for _, name := range tstats.DroppedAnonymous {
		slog.Debug("dropped anonymous declaration", "module", m.Name, "symbol", name)
	}
	if n := len(tstats.DroppedAnonymous); n > 0 {
		observability.DroppedDeclarationsTotal.WithLabelValues("anonymous").Add(float64(n))
	}
	if tstats.Duplicates > 0 {
		observability.DroppedDeclarationsTotal.WithLabelValues("duplicate").Add(float64(tstats.Duplicates))
	}
	observability.UnknownTypesTotal.Add(float64(tstats.UnknownTypes))

	start = time.Now()
	stats.PatternsByPass = make(map[string]int)
	s.engine.RunObserved(m, func(r inference.PassResult) {
		stats.PatternsByPass[r.Pass] += r.Added
		observability.PassDuration.WithLabelValues(r.Pass).Observe(r.Duration.Seconds())
		observability.PatternsTotal.WithLabelValues(r.Pass).Add(float64(r.Added))
	})
	observability.StageDuration.WithLabelValues("infer").Observe(time.Since(start).Seconds())
	stats.Patterns = m.PatternCount()

	span.SetAttributes(
		attribute.Int("functions", stats.Functions),
		attribute.Int("patterns", stats.Patterns),
		attribute.Int("unknown_types", stats.UnknownTypes),
	)
	return Result{Module: m, Stats: stats}, nil
}
