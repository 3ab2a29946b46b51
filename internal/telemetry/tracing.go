// Package telemetry is the span/event emission boundary: it wraps
// OpenTelemetry tracing and Prometheus metrics scoped to the concerns this
// runtime actually has: provider calls, tool execution, retries, circuit
// breaker transitions, and context recovery.
//
// Export logic (CloudWatch/OTLP sampling, signing, batching) is an
// external collaborator's concern, not the core's: Tracer never constructs
// an exporter or a TracerProvider. It rides whichever TracerProvider the
// embedding host installed via otel.SetTracerProvider, falling back to
// OpenTelemetry's own no-op provider when the host installed none.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer provides span creation for the agent runtime's boundaries.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer binds a Tracer to the named instrumentation scope on whichever
// TracerProvider is globally configured. With no provider configured, every
// span produced is a no-op, so call sites never need to branch on whether
// tracing is enabled.
func NewTracer(serviceName string) *Tracer {
	if serviceName == "" {
		serviceName = "agentcore"
	}
	return &Tracer{tracer: otel.Tracer(serviceName)}
}

// Start creates a new span with the given kind and attributes.
func (t *Tracer) Start(ctx context.Context, name string, kind trace.SpanKind, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	opts := []trace.SpanStartOption{trace.WithAttributes(attrs...)}
	if kind != 0 {
		opts = append(opts, trace.WithSpanKind(kind))
	}
	return t.tracer.Start(ctx, name, opts...)
}

// RecordError records err on span and marks it as failed. A nil err is a
// no-op, so callers can call this unconditionally after every traced call.
func (t *Tracer) RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// TraceProviderCall opens a span for one provider request.
func (t *Tracer) TraceProviderCall(ctx context.Context, providerType, modelID string) (context.Context, trace.Span) {
	return t.Start(ctx, fmt.Sprintf("provider.%s", providerType), trace.SpanKindClient,
		attribute.String("provider.type", providerType),
		attribute.String("provider.model", modelID),
	)
}

// TraceToolExecution opens a span for one tool invocation.
func (t *Tracer) TraceToolExecution(ctx context.Context, toolName string) (context.Context, trace.Span) {
	return t.Start(ctx, fmt.Sprintf("tool.%s", toolName), trace.SpanKindInternal,
		attribute.String("tool.name", toolName),
	)
}

// TraceRecovery opens a span for one context-recovery pass.
func (t *Tracer) TraceRecovery(ctx context.Context, strategy string) (context.Context, trace.Span) {
	return t.Start(ctx, "recovery.run", trace.SpanKindInternal,
		attribute.String("recovery.strategy", strategy),
	)
}

// SpanFromContext returns the active span, or a non-recording span if none.
func SpanFromContext(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}
