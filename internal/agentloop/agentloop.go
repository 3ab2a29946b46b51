// Package agentloop implements the turn-loop boundary: it appends
// the user message, calls the provider, executes any requested tools, and
// loops, recovering from context overflow and retrying other retryable
// failures. It is deliberately thin: tool business logic, persistence, and
// telemetry export stay outside this package.
package agentloop

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/agentcore/runtime/internal/circuit"
	"github.com/agentcore/runtime/internal/classify"
	"github.com/agentcore/runtime/internal/conversation"
	"github.com/agentcore/runtime/internal/obslog"
	"github.com/agentcore/runtime/internal/provider"
	"github.com/agentcore/runtime/internal/recovery"
	"github.com/agentcore/runtime/internal/retry"
	"github.com/agentcore/runtime/internal/telemetry"
	"github.com/agentcore/runtime/internal/toolconv"
	"github.com/agentcore/runtime/pkg/canon"

	"go.opentelemetry.io/otel/trace"
)

// ToolHandle executes one named tool and returns its result content. A
// non-nil error is treated as a tool failure: the result is still appended
// to the conversation, with IsError set. Tool business logic lives behind
// this handle, not in the runtime.
type ToolHandle interface {
	Execute(ctx context.Context, name string, input json.RawMessage) (canon.ToolResultContent, error)
}

// ToolHandleFunc adapts a function to ToolHandle.
type ToolHandleFunc func(ctx context.Context, name string, input json.RawMessage) (canon.ToolResultContent, error)

func (f ToolHandleFunc) Execute(ctx context.Context, name string, input json.RawMessage) (canon.ToolResultContent, error) {
	return f(ctx, name, input)
}

// Phase names a point in the turn loop, for error attribution.
type Phase string

const (
	PhaseProvider Phase = "provider"
	PhaseRecovery Phase = "recovery"
	PhaseTools    Phase = "tools"
	PhaseMaxTurns Phase = "max_turns"
)

// Error wraps a failure with the phase and iteration it occurred in,
// so callers can tell a provider failure from a tool failure.
type Error struct {
	Phase     Phase
	Iteration int
	Cause     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("agent loop error at %s (iteration %d): %v", e.Phase, e.Iteration, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// Config parameterizes a Loop.
type Config struct {
	// MaxIterations bounds the number of provider calls in a single
	// RunTurn, preventing an unbounded tool-call loop.
	MaxIterations int

	// RetryConfig governs retries of non-context-overflow retryable
	// failures. Zero value uses retry.DefaultConfig().
	RetryConfig retry.Config
}

// Loop orchestrates one multi-step agent turn against a single provider.
type Loop struct {
	Provider provider.Provider
	Tools    []canon.ToolSpec
	Handle   ToolHandle
	Config   Config

	// Logger receives structured diagnostics for provider calls, tool
	// validation failures, and recovery passes. Nil disables logging.
	Logger *obslog.Logger

	// Tracer, if set, wraps provider calls and tool executions in spans.
	// Nil disables span emission.
	Tracer *telemetry.Tracer

	// Metrics, if set, records provider/tool/recovery outcomes.
	Metrics *telemetry.Metrics

	// Breaker, if set, short-circuits provider calls once it has opened,
	// on top of the retry executor's own classification.
	Breaker *circuit.Breaker
}

// New constructs a Loop with sane defaults: 10 max iterations, the shared
// default retry policy.
func New(p provider.Provider, tools []canon.ToolSpec, handle ToolHandle) *Loop {
	return &Loop{
		Provider: p,
		Tools:    tools,
		Handle:   handle,
		Config: Config{
			MaxIterations: 10,
			RetryConfig:   retry.DefaultConfig(),
		},
	}
}

// RunTurn appends userText as a user message, then drives the provider/tool
// loop to completion: calling the provider, executing any requested tools,
// appending their results, and repeating until the provider returns no
// further tool calls or MaxIterations is reached.
func (l *Loop) RunTurn(ctx context.Context, conv *conversation.Conversation, modelID, userText string, cfg canon.ChatConfig) (canon.ChatResponse, error) {
	conv.AddUser(userText)

	maxIter := l.Config.MaxIterations
	if maxIter <= 0 {
		maxIter = 10
	}

	for iteration := 1; iteration <= maxIter; iteration++ {
		resp, err := l.callProvider(ctx, conv, modelID, cfg, iteration)
		if err != nil {
			return canon.ChatResponse{}, err
		}

		conv.AddMessage(assistantMessage(resp))

		if len(resp.ToolCalls) == 0 {
			return resp, nil
		}

		if l.Handle == nil {
			return resp, &Error{Phase: PhaseTools, Iteration: iteration, Cause: fmt.Errorf("provider requested %d tool calls but no ToolHandle is configured", len(resp.ToolCalls))}
		}

		results := make([]canon.ContentBlock, 0, len(resp.ToolCalls))
		for _, tc := range resp.ToolCalls {
			content, execErr := l.executeTool(ctx, tc)
			isErr := execErr != nil
			if execErr != nil {
				content = canon.TextContent(execErr.Error())
			}
			results = append(results, canon.ToolResult{ToolUseID: tc.ID, Content: content, IsError: isErr})
		}
		conv.AddMessage(canon.NewMessage(canon.RoleUser, results...))
	}

	return canon.ChatResponse{}, &Error{Phase: PhaseMaxTurns, Iteration: maxIter, Cause: fmt.Errorf("exceeded max iterations (%d) without a final response", maxIter)}
}

// callProvider calls the provider once, running context recovery on
// ContextOverflow (one resubmission) and the shared retry executor on other
// retryable failures.
func (l *Loop) callProvider(ctx context.Context, conv *conversation.Conversation, modelID string, cfg canon.ChatConfig, iteration int) (result canon.ChatResponse, resultErr error) {
	providerType := string(l.Provider.ProviderType())
	start := time.Now()

	if l.Tracer != nil {
		var span trace.Span
		ctx, span = l.Tracer.TraceProviderCall(ctx, providerType, modelID)
		defer func() {
			l.Tracer.RecordError(span, resultErr)
			span.End()
		}()
	}

	resp, err := l.invokeProvider(ctx, conv, modelID, cfg)
	if l.Metrics != nil {
		l.Metrics.ObserveProviderRequest(providerType, modelID, start, err)
	}
	if err == nil {
		return resp, nil
	}

	if classify.Classify(err) == classify.ContextOverflow {
		if l.Tracer != nil {
			var span trace.Span
			ctx, span = l.Tracer.TraceRecovery(ctx, "context_overflow")
			defer span.End()
		}

		recovered, ok := recovery.Recover(conv.Messages())
		if l.Metrics != nil {
			outcome := "truncate_or_evict"
			if !ok {
				outcome = "exhausted"
			}
			l.Metrics.RecoveryInvocations.WithLabelValues(outcome).Inc()
		}
		if !ok {
			return canon.ChatResponse{}, &Error{Phase: PhaseRecovery, Iteration: iteration, Cause: err}
		}
		conv.ReplaceMessages(recovered)
		if l.Logger != nil {
			l.Logger.Warn(ctx, "context overflow, recovered and resubmitting", "iteration", iteration)
		}
		resp, err = l.invokeProvider(ctx, conv, modelID, cfg)
		if err != nil {
			return canon.ChatResponse{}, &Error{Phase: PhaseRecovery, Iteration: iteration, Cause: err}
		}
		return resp, nil
	}

	if classify.Classify(err) != classify.Retryable {
		return canon.ChatResponse{}, &Error{Phase: PhaseProvider, Iteration: iteration, Cause: err}
	}

	if l.Logger != nil {
		l.Logger.Warn(ctx, "provider call failed, entering retry executor", "iteration", iteration, "error", err.Error())
	}

	rc := l.retryConfig()
	resp, retryResult := retry.DoWithValue(ctx, rc, func(ctx context.Context) (canon.ChatResponse, error) {
		return l.invokeProvider(ctx, conv, modelID, cfg)
	})
	if retryResult.Err != nil {
		return canon.ChatResponse{}, &Error{Phase: PhaseProvider, Iteration: iteration, Cause: retryResult.Err}
	}
	return resp, nil
}

// invokeProvider issues one provider call, routed through the circuit
// breaker when one is configured.
func (l *Loop) invokeProvider(ctx context.Context, conv *conversation.Conversation, modelID string, cfg canon.ChatConfig) (canon.ChatResponse, error) {
	call := func(ctx context.Context) (canon.ChatResponse, error) {
		return l.Provider.ChatWithTools(ctx, modelID, conv.Messages(), l.Tools, cfg)
	}
	if l.Breaker == nil {
		return call(ctx)
	}
	return circuit.ExecuteWithResult(l.Breaker, ctx, call)
}

func (l *Loop) retryConfig() retry.Config {
	rc := l.Config.RetryConfig
	if rc.MaxAttempts == 0 {
		rc = retry.DefaultConfig()
	}
	if rc.Logger == nil {
		rc.Logger = l.Logger
	}
	if rc.Metrics == nil {
		rc.Metrics = l.Metrics
	}
	return rc
}

// executeTool validates tc.Input against the matching tool's schema (when
// one is registered) before executing it, tracing and recording
// metrics for the invocation either way.
func (l *Loop) executeTool(ctx context.Context, tc canon.ToolCall) (content canon.ToolResultContent, resultErr error) {
	if spec, ok := l.findTool(tc.Name); ok && len(spec.InputSchema) > 0 {
		if err := toolconv.ValidateInput(spec.InputSchema, tc.Input); err != nil {
			if l.Logger != nil {
				l.Logger.Warn(ctx, "tool input failed schema validation", "tool", tc.Name, "error", err.Error())
			}
			return nil, fmt.Errorf("invalid input for tool %q: %w", tc.Name, err)
		}
	}

	start := time.Now()
	if l.Tracer != nil {
		var span trace.Span
		ctx, span = l.Tracer.TraceToolExecution(ctx, tc.Name)
		defer func() {
			l.Tracer.RecordError(span, resultErr)
			span.End()
		}()
	}

	content, resultErr = l.Handle.Execute(ctx, tc.Name, tc.Input)
	if l.Metrics != nil {
		l.Metrics.ObserveToolExecution(tc.Name, start, resultErr)
	}
	return content, resultErr
}

func (l *Loop) findTool(name string) (canon.ToolSpec, bool) {
	for _, t := range l.Tools {
		if t.Name == name {
			return t, true
		}
	}
	return canon.ToolSpec{}, false
}

// assistantMessage converts a ChatResponse into the assistant Message
// appended to the conversation: a Text block for any content, followed by
// one ToolUse block per requested tool call.
func assistantMessage(resp canon.ChatResponse) canon.Message {
	var blocks []canon.ContentBlock
	if resp.Content != "" {
		blocks = append(blocks, canon.Text(resp.Content))
	}
	for _, tc := range resp.ToolCalls {
		blocks = append(blocks, canon.ToolUse{ID: tc.ID, Name: tc.Name, Input: tc.Input})
	}
	return canon.NewMessage(canon.RoleAssistant, blocks...)
}
