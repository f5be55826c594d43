package heapgraph

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/heapscope/heapanalysis/pkg/telemetry"
)

const tracerName = "github.com/heapscope/heapanalysis/internal/heapgraph"

var (
	telemetryOnce     sync.Once
	telemetryShutdown telemetry.ShutdownFunc = func(context.Context) error { return nil }
)

// initTelemetry sets up the global TracerProvider from the standard
// OTEL_* environment variables the first time a traced operation runs.
// If OTEL_ENABLED is unset, telemetry.Init leaves the no-op provider in
// place, so tracer() stays cheap regardless.
func initTelemetry() {
	telemetryOnce.Do(func() {
		shutdown, err := telemetry.Init(context.Background())
		if err != nil {
			return
		}
		telemetryShutdown = shutdown
	})
}

// ShutdownTelemetry flushes and tears down the TracerProvider set up by
// initTelemetry, for callers that want a clean exit. It is a no-op if
// telemetry was never enabled.
func ShutdownTelemetry(ctx context.Context) error {
	return telemetryShutdown(ctx)
}

func tracer() trace.Tracer {
	initTelemetry()
	return otel.Tracer(tracerName)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	}
	span.End()
}

// IngestTraced wraps Ingest with a span recording the resulting
// processed/skipped counters.
func (s *Snapshot) IngestTraced(ctx context.Context) error {
	ctx, span := tracer().Start(ctx, "Snapshot.Ingest")
	err := s.Ingest(ctx)
	processed, skipped := s.Stats()
	span.SetAttributes(
		attribute.Int64("heap.processed", processed),
		attribute.Int64("heap.skipped", skipped),
	)
	endSpan(span, err)
	return err
}

// DiscoverRootsTraced wraps DiscoverRoots with a span recording the
// discovered root count and whether the refcount fallback was used.
func (s *Snapshot) DiscoverRootsTraced(ctx context.Context) error {
	ctx, span := tracer().Start(ctx, "Snapshot.DiscoverRoots")
	err := s.DiscoverRoots(ctx)
	span.SetAttributes(
		attribute.Int("heap.root_count", len(s.Roots())),
		attribute.Bool("heap.roots_via_refcount", s.Warnings().RootsViaRefcount),
	)
	endSpan(span, err)
	return err
}

// AnalyzeTraced wraps Analyze with a span covering the whole
// root-discovery -> dominator-tree -> retained-size pipeline. It defers
// the actual skip/non-skip branching to Analyze itself, so the two
// never drift, and only adds span attributes from the resulting state.
func (s *Snapshot) AnalyzeTraced(ctx context.Context) error {
	ctx, span := tracer().Start(ctx, "Snapshot.Analyze")
	err := s.Analyze(ctx)
	span.SetAttributes(
		attribute.Int("heap.root_count", len(s.Roots())),
		attribute.Bool("heap.retained_approximate", s.Warnings().RetainedIsApproximate),
	)
	endSpan(span, err)
	return err
}
