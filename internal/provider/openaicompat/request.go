package openaicompat

import (
	"encoding/json"

	"github.com/agentcore/runtime/internal/toolconv"
	"github.com/agentcore/runtime/pkg/canon"
)

// wireMessage is one entry of the chat/completions messages array.
type wireMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content,omitempty"`
	ToolCalls  []wireToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type wireToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function wireFunctionCall `json:"function"`
}

type wireFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type chatRequest struct {
	Model       string                        `json:"model"`
	Messages    []wireMessage                 `json:"messages"`
	MaxTokens   *int                          `json:"max_tokens,omitempty"`
	Temperature *float64                      `json:"temperature,omitempty"`
	Stream      bool                          `json:"stream"`
	Tools       []toolconv.OpenAIFunctionTool `json:"tools,omitempty"`
	ToolChoice  string                        `json:"tool_choice,omitempty"`
}

// buildRequest converts canonical messages and tools into the OpenAI
// chat/completions wire shape.
func buildRequest(model string, messages []canon.Message, tools []canon.ToolSpec, cfg canon.ChatConfig, stream bool) chatRequest {
	req := chatRequest{
		Model:    model,
		Messages: buildMessages(messages),
		Stream:   stream,
	}
	if cfg.MaxTokens != nil {
		req.MaxTokens = cfg.MaxTokens
	}
	if cfg.Temperature != nil {
		req.Temperature = cfg.Temperature
	}
	if len(tools) > 0 {
		inputs := make([]toolconv.Input, len(tools))
		for i, t := range tools {
			inputs[i] = toolconv.Input{Name: t.Name, Description: t.Description, InputSchema: t.InputSchema}
		}
		req.Tools = toolconv.ToOpenAI(inputs)
		req.ToolChoice = "auto"
	}
	return req
}

// buildMessages walks each canonical message and flushes its native-role
// content first (assistant content plus any tool_calls), then any
// tool-role follow-ups for ToolResult blocks it carries; the conversion's
// structural ordering the chat/completions format expects.
func buildMessages(messages []canon.Message) []wireMessage {
	var out []wireMessage
	for _, m := range messages {
		role := nativeRole(m.Role)
		text := m.Text()
		toolUses := m.ToolUses()

		if text != "" || len(toolUses) > 0 || len(m.ToolResults()) == 0 {
			wm := wireMessage{Role: role, Content: text}
			if len(toolUses) > 0 {
				wm.ToolCalls = make([]wireToolCall, len(toolUses))
				for i, tu := range toolUses {
					wm.ToolCalls[i] = wireToolCall{
						ID:   tu.ID,
						Type: "function",
						Function: wireFunctionCall{
							Name:      tu.Name,
							Arguments: string(tu.NormalizedInput()),
						},
					}
				}
			}
			out = append(out, wm)
		}

		for _, b := range m.Content {
			tr, ok := b.(canon.ToolResult)
			if !ok {
				continue
			}
			out = append(out, wireMessage{
				Role:       "tool",
				Content:    canon.Render(tr.Content),
				ToolCallID: tr.ToolUseID,
			})
		}
	}
	return out
}

func nativeRole(r canon.Role) string {
	switch r {
	case canon.RoleSystem:
		return "system"
	case canon.RoleAssistant:
		return "assistant"
	default:
		return "user"
	}
}

// decodeArguments parses a function.arguments wire string as JSON,
// best-effort: on parse failure the raw string is preserved as a JSON
// string value and the caller logs a warning.
func decodeArguments(raw string) (json.RawMessage, bool) {
	if raw == "" {
		return json.RawMessage("{}"), true
	}
	var probe any
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		encoded, _ := json.Marshal(raw)
		return json.RawMessage(encoded), false
	}
	return json.RawMessage(raw), true
}
