package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/agentcore/runtime/internal/circuit"
)

// Metrics is the Prometheus surface for the agent runtime: provider request
// performance, tool execution, and retry/circuit/recovery behavior.
type Metrics struct {
	// ProviderRequestDuration measures provider call latency in seconds.
	// Labels: provider_type, model.
	ProviderRequestDuration *prometheus.HistogramVec

	// ProviderRequestCounter counts provider calls by outcome.
	// Labels: provider_type, model, status (success|error).
	ProviderRequestCounter *prometheus.CounterVec

	// ProviderTokensUsed tracks token consumption.
	// Labels: provider_type, model, kind (input|output).
	ProviderTokensUsed *prometheus.CounterVec

	// ToolExecutionDuration measures tool execution latency in seconds.
	// Labels: tool_name.
	ToolExecutionDuration *prometheus.HistogramVec

	// ToolExecutionCounter counts tool invocations by outcome.
	// Labels: tool_name, status (success|error).
	ToolExecutionCounter *prometheus.CounterVec

	// RetryAttempts counts retry executor runs by terminal outcome.
	// Labels: outcome (succeeded|exhausted_attempts|exhausted_duration|non_retryable).
	RetryAttempts *prometheus.CounterVec

	// CircuitStateChanges counts circuit breaker transitions.
	// Labels: name, from, to.
	CircuitStateChanges *prometheus.CounterVec

	// RecoveryInvocations counts context-recovery passes by strategy.
	// Labels: strategy (truncate_or_evict|exhausted).
	RecoveryInvocations *prometheus.CounterVec
}

// NewMetrics registers all metrics with Prometheus's default registry. Call
// once at process startup.
func NewMetrics() *Metrics {
	return &Metrics{
		ProviderRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agentcore_provider_request_duration_seconds",
				Help:    "Provider call latency in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"provider_type", "model"},
		),
		ProviderRequestCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentcore_provider_requests_total",
				Help: "Total provider calls by outcome",
			},
			[]string{"provider_type", "model", "status"},
		),
		ProviderTokensUsed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentcore_provider_tokens_total",
				Help: "Total tokens consumed by provider calls",
			},
			[]string{"provider_type", "model", "kind"},
		),
		ToolExecutionDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agentcore_tool_execution_duration_seconds",
				Help:    "Tool execution latency in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
			},
			[]string{"tool_name"},
		),
		ToolExecutionCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentcore_tool_executions_total",
				Help: "Total tool executions by outcome",
			},
			[]string{"tool_name", "status"},
		),
		RetryAttempts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentcore_retry_outcomes_total",
				Help: "Total retry executor terminal outcomes",
			},
			[]string{"outcome"},
		),
		CircuitStateChanges: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentcore_circuit_state_changes_total",
				Help: "Total circuit breaker state transitions",
			},
			[]string{"name", "from", "to"},
		),
		RecoveryInvocations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentcore_recovery_invocations_total",
				Help: "Total context-recovery passes by strategy",
			},
			[]string{"strategy"},
		),
	}
}

// ObserveProviderRequest records one provider call's latency and outcome.
func (m *Metrics) ObserveProviderRequest(providerType, model string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.ProviderRequestDuration.WithLabelValues(providerType, model).Observe(time.Since(start).Seconds())
	m.ProviderRequestCounter.WithLabelValues(providerType, model, status).Inc()
}

// ObserveToolExecution records one tool execution's latency and outcome.
func (m *Metrics) ObserveToolExecution(toolName string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.ToolExecutionDuration.WithLabelValues(toolName).Observe(time.Since(start).Seconds())
	m.ToolExecutionCounter.WithLabelValues(toolName, status).Inc()
}

// ObserveRetryOutcome records one retry executor's terminal outcome.
func (m *Metrics) ObserveRetryOutcome(outcome string) {
	m.RetryAttempts.WithLabelValues(outcome).Inc()
}

// ObserveCircuitTransition records one circuit breaker state transition.
// Intended to be passed as a circuit.Config.OnStateChange callback so the
// circuit package never needs to import telemetry.
func (m *Metrics) ObserveCircuitTransition(name string, from, to circuit.State) {
	m.CircuitStateChanges.WithLabelValues(name, string(from), string(to)).Inc()
}
