package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/agentcore/runtime/internal/circuit"
	"go.opentelemetry.io/otel/trace"
)

func TestNewTracerEmitsUsableSpans(t *testing.T) {
	tracer := NewTracer("agentcore-test")

	ctx, span := tracer.TraceProviderCall(context.Background(), "openai_compat", "local-model")
	if ctx == nil {
		t.Fatal("expected a non-nil context")
	}
	span.End()
}

func TestNewTracerDefaultsServiceName(t *testing.T) {
	tracer := NewTracer("")
	if tracer == nil {
		t.Fatal("expected a non-nil tracer")
	}
}

func TestRecordErrorIsNoOpOnNilError(t *testing.T) {
	tracer := NewTracer("agentcore-test")

	_, span := tracer.Start(context.Background(), "op", trace.SpanKindInternal)
	defer span.End()

	tracer.RecordError(span, nil)
	tracer.RecordError(span, errors.New("boom"))
}

// TestMetricsObserveDoesNotPanic exercises every Observe* helper against a
// single NewMetrics() instance; NewMetrics uses promauto against the
// default registry, so only one
// instance may be constructed per test binary.
func TestMetricsObserveDoesNotPanic(t *testing.T) {
	m := NewMetrics()
	m.ObserveProviderRequest("openai_compat", "local-model", time.Now(), nil)
	m.ObserveProviderRequest("openai_compat", "local-model", time.Now(), errors.New("fail"))
	m.ObserveToolExecution("calculator", time.Now(), nil)
	m.ObserveToolExecution("calculator", time.Now(), errors.New("fail"))
	m.ObserveRetryOutcome("succeeded")
	m.ObserveCircuitTransition("provider.bedrock", circuit.Closed, circuit.Open)
}
