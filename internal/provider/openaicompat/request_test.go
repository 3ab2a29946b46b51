package openaicompat

import (
	"encoding/json"
	"testing"

	"github.com/agentcore/runtime/pkg/canon"
)

func TestBuildMessagesFlushesAssistantToolCallsThenToolResults(t *testing.T) {
	messages := []canon.Message{
		canon.NewMessage(canon.RoleSystem, canon.Text("be terse")),
		canon.NewMessage(canon.RoleUser, canon.Text("what is 23*47?")),
		canon.NewMessage(canon.RoleAssistant, canon.ToolUse{ID: "call_1", Name: "calculator", Input: json.RawMessage(`{"expression":"23 * 47"}`)}),
		canon.NewMessage(canon.RoleUser, canon.ToolResult{ToolUseID: "call_1", Content: canon.TextContent("1081")}),
	}
	wire := buildMessages(messages)

	if len(wire) != 4 {
		t.Fatalf("len(wire) = %d, want 4 (system, user, assistant-with-tool-call, tool-result)", len(wire))
	}
	if wire[0].Role != "system" || wire[1].Role != "user" {
		t.Fatalf("unexpected roles: %#v", wire[:2])
	}
	if wire[2].Role != "assistant" || len(wire[2].ToolCalls) != 1 || wire[2].ToolCalls[0].Function.Name != "calculator" {
		t.Fatalf("assistant message = %#v, want one calculator tool call", wire[2])
	}
	if wire[3].Role != "tool" || wire[3].ToolCallID != "call_1" || wire[3].Content != "1081" {
		t.Fatalf("tool-result message = %#v", wire[3])
	}
}

func TestBuildMessagesCoercesNullToolInput(t *testing.T) {
	messages := []canon.Message{
		canon.NewMessage(canon.RoleAssistant, canon.ToolUse{ID: "t1", Name: "noop", Input: json.RawMessage(`null`)}),
	}
	wire := buildMessages(messages)
	if wire[0].ToolCalls[0].Function.Arguments != "{}" {
		t.Errorf("Arguments = %q, want coerced {}", wire[0].ToolCalls[0].Function.Arguments)
	}
}

func TestBuildRequestSetsToolChoiceAutoWhenToolsPresent(t *testing.T) {
	tools := []canon.ToolSpec{{Name: "calculator", Description: "evaluate arithmetic", InputSchema: json.RawMessage(`{"type":"object"}`)}}
	req := buildRequest("gemma-3", []canon.Message{canon.NewMessage(canon.RoleUser, canon.Text("hi"))}, tools, canon.ChatConfig{}, false)

	if len(req.Tools) != 1 || req.Tools[0].Function.Name != "calculator" {
		t.Fatalf("Tools = %#v, want one calculator tool", req.Tools)
	}
	if req.ToolChoice != "auto" {
		t.Errorf("ToolChoice = %q, want auto", req.ToolChoice)
	}
	if req.Stream {
		t.Error("Stream = true, want false for unary request")
	}
}

func TestDecodeArgumentsPreservesRawStringOnParseFailure(t *testing.T) {
	raw, ok := decodeArguments("not json")
	if ok {
		t.Fatal("ok = true, want false for unparseable arguments")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s != "not json" {
		t.Errorf("raw = %s, want JSON string wrapping the original text", raw)
	}
}
