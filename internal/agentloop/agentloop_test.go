package agentloop

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/agentcore/runtime/internal/conversation"
	"github.com/agentcore/runtime/internal/provider"
	"github.com/agentcore/runtime/pkg/canon"
)

// fakeProvider scripts a sequence of ChatWithTools responses, one per call,
// so each test can drive the loop through a specific scenario.
type fakeProvider struct {
	responses []canon.ChatResponse
	errs      []error
	calls     int
}

func (f *fakeProvider) Chat(ctx context.Context, modelID string, messages []canon.Message, cfg canon.ChatConfig) (canon.ChatResponse, error) {
	return f.ChatWithTools(ctx, modelID, messages, nil, cfg)
}

func (f *fakeProvider) ChatWithTools(ctx context.Context, modelID string, messages []canon.Message, tools []canon.ToolSpec, cfg canon.ChatConfig) (canon.ChatResponse, error) {
	i := f.calls
	f.calls++
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	if err != nil {
		return canon.ChatResponse{}, err
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return canon.ChatResponse{}, errors.New("fakeProvider: no more scripted responses")
}

func (f *fakeProvider) ChatStreaming(ctx context.Context, modelID string, messages []canon.Message, cfg canon.ChatConfig) (<-chan canon.StreamEvent, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeProvider) ChatStreamingWithTools(ctx context.Context, modelID string, messages []canon.Message, tools []canon.ToolSpec, cfg canon.ChatConfig) (<-chan canon.StreamEvent, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeProvider) HealthCheck(ctx context.Context) provider.HealthStatus {
	return provider.HealthStatus{Healthy: true}
}

func (f *fakeProvider) ProviderType() provider.Type { return provider.TypeOpenAICompat }
func (f *fakeProvider) SupportedModels() []string   { return nil }
func (f *fakeProvider) Capabilities() provider.Capabilities {
	return provider.Capabilities{SupportsTools: true}
}

var _ provider.Provider = (*fakeProvider)(nil)

func TestRunTurnSimpleResponseNoTools(t *testing.T) {
	p := &fakeProvider{responses: []canon.ChatResponse{
		{Content: "4"},
	}}
	conv := conversation.New(0, 0)
	loop := New(p, nil, nil)

	resp, err := loop.RunTurn(context.Background(), conv, "test-model", "what is 2+2?", canon.ChatConfig{})
	if err != nil {
		t.Fatalf("RunTurn: %v", err)
	}
	if resp.Content != "4" {
		t.Fatalf("expected content %q, got %q", "4", resp.Content)
	}
	if conv.Len() != 2 {
		t.Fatalf("expected 2 messages (user+assistant), got %d", conv.Len())
	}
	if p.calls != 1 {
		t.Fatalf("expected exactly 1 provider call, got %d", p.calls)
	}
}

func TestRunTurnExecutesToolThenReturnsFinalAnswer(t *testing.T) {
	p := &fakeProvider{responses: []canon.ChatResponse{
		{ToolCalls: []canon.ToolCall{{ID: "call_1", Name: "calculator", Input: json.RawMessage(`{"expression":"23*47"}`)}}},
		{Content: "1081"},
	}}
	conv := conversation.New(0, 0)

	var gotName string
	var gotInput json.RawMessage
	handle := ToolHandleFunc(func(ctx context.Context, name string, input json.RawMessage) (canon.ToolResultContent, error) {
		gotName = name
		gotInput = input
		return canon.TextContent("1081"), nil
	})

	loop := New(p, []canon.ToolSpec{{Name: "calculator"}}, handle)
	resp, err := loop.RunTurn(context.Background(), conv, "test-model", "what is 23*47?", canon.ChatConfig{})
	if err != nil {
		t.Fatalf("RunTurn: %v", err)
	}
	if resp.Content != "1081" {
		t.Fatalf("expected final content %q, got %q", "1081", resp.Content)
	}
	if gotName != "calculator" {
		t.Fatalf("expected tool name %q, got %q", "calculator", gotName)
	}
	if string(gotInput) != `{"expression":"23*47"}` {
		t.Fatalf("unexpected tool input: %s", gotInput)
	}
	if p.calls != 2 {
		t.Fatalf("expected exactly 2 provider calls, got %d", p.calls)
	}

	msgs := conv.Messages()
	if len(msgs) != 4 {
		t.Fatalf("expected 4 messages (user, assistant-tool-call, user-tool-result, assistant-final), got %d", len(msgs))
	}
	if !msgs[2].HasToolResult() {
		t.Fatalf("expected message 2 to carry a tool result")
	}
}

func TestRunTurnToolFailureIsReportedAsErrorResult(t *testing.T) {
	p := &fakeProvider{responses: []canon.ChatResponse{
		{ToolCalls: []canon.ToolCall{{ID: "call_1", Name: "explode", Input: json.RawMessage(`{}`)}}},
		{Content: "handled the failure"},
	}}
	conv := conversation.New(0, 0)
	handle := ToolHandleFunc(func(ctx context.Context, name string, input json.RawMessage) (canon.ToolResultContent, error) {
		return nil, errors.New("boom")
	})
	loop := New(p, []canon.ToolSpec{{Name: "explode"}}, handle)

	_, err := loop.RunTurn(context.Background(), conv, "test-model", "trigger the failure", canon.ChatConfig{})
	if err != nil {
		t.Fatalf("RunTurn: %v", err)
	}

	msgs := conv.Messages()
	toolResultMsg := msgs[2]
	results := toolResultMsg.ToolResults()
	if len(results) != 1 {
		t.Fatalf("expected exactly 1 tool result, got %d", len(results))
	}
	if !results[0].IsError {
		t.Fatalf("expected IsError=true on a failed tool execution")
	}
}

func TestRunTurnMissingToolHandleReturnsPhaseToolsError(t *testing.T) {
	p := &fakeProvider{responses: []canon.ChatResponse{
		{ToolCalls: []canon.ToolCall{{ID: "call_1", Name: "calculator", Input: json.RawMessage(`{}`)}}},
	}}
	conv := conversation.New(0, 0)
	loop := New(p, []canon.ToolSpec{{Name: "calculator"}}, nil)

	_, err := loop.RunTurn(context.Background(), conv, "test-model", "use a tool", canon.ChatConfig{})
	if err == nil {
		t.Fatal("expected an error when no ToolHandle is configured")
	}
	var loopErr *Error
	if !errors.As(err, &loopErr) {
		t.Fatalf("expected *agentloop.Error, got %T: %v", err, err)
	}
	if loopErr.Phase != PhaseTools {
		t.Fatalf("expected PhaseTools, got %s", loopErr.Phase)
	}
}

func TestRunTurnExceedsMaxIterationsReturnsPhaseMaxTurnsError(t *testing.T) {
	responses := make([]canon.ChatResponse, 5)
	for i := range responses {
		responses[i] = canon.ChatResponse{ToolCalls: []canon.ToolCall{{ID: "call_loop", Name: "noop", Input: json.RawMessage(`{}`)}}}
	}
	p := &fakeProvider{responses: responses}
	conv := conversation.New(0, 0)
	handle := ToolHandleFunc(func(ctx context.Context, name string, input json.RawMessage) (canon.ToolResultContent, error) {
		return canon.TextContent("again"), nil
	})
	loop := New(p, []canon.ToolSpec{{Name: "noop"}}, handle)
	loop.Config.MaxIterations = 3

	_, err := loop.RunTurn(context.Background(), conv, "test-model", "loop forever", canon.ChatConfig{})
	if err == nil {
		t.Fatal("expected a max-iterations error")
	}
	var loopErr *Error
	if !errors.As(err, &loopErr) {
		t.Fatalf("expected *agentloop.Error, got %T: %v", err, err)
	}
	if loopErr.Phase != PhaseMaxTurns {
		t.Fatalf("expected PhaseMaxTurns, got %s", loopErr.Phase)
	}
	if p.calls != 3 {
		t.Fatalf("expected exactly MaxIterations (3) provider calls, got %d", p.calls)
	}
}

func TestRunTurnRecoversFromContextOverflowAndResubmitsOnce(t *testing.T) {
	overflowErr := canon.NewAgentError(canon.KindValidation, "input is too long for requested model", nil)
	p := &fakeProvider{
		errs:      []error{overflowErr, nil},
		responses: []canon.ChatResponse{{}, {Content: "recovered"}},
	}
	conv := conversation.New(0, 0)
	// Seed enough history that recovery.Recover has something to truncate or evict.
	conv.AddUser("first message establishing context")
	conv.AddAssistant("ack")
	toolMsg := canon.NewMessage(canon.RoleUser, canon.ToolResult{ToolUseID: "x", Content: canon.TextContent("a giant prior tool result"), IsError: false})
	conv.AddMessage(toolMsg)

	loop := New(p, nil, nil)
	resp, err := loop.RunTurn(context.Background(), conv, "test-model", "keep going", canon.ChatConfig{})
	if err != nil {
		t.Fatalf("RunTurn: %v", err)
	}
	if resp.Content != "recovered" {
		t.Fatalf("expected recovered content, got %q", resp.Content)
	}
	if p.calls != 2 {
		t.Fatalf("expected exactly 2 provider calls (initial + one resubmission), got %d", p.calls)
	}
}
