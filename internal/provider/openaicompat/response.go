package openaicompat

import (
	"context"
	"encoding/json"

	"github.com/agentcore/runtime/internal/obslog"
	"github.com/agentcore/runtime/pkg/canon"
)

type chatCompletionResponse struct {
	Choices []chatCompletionChoice `json:"choices"`
	Usage   *chatCompletionUsage   `json:"usage"`
}

type chatCompletionChoice struct {
	Message      chatCompletionMessage `json:"message"`
	FinishReason string                `json:"finish_reason"`
}

type chatCompletionMessage struct {
	Content   string         `json:"content"`
	ToolCalls []wireToolCall `json:"tool_calls"`
}

type chatCompletionUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// parseResponse parses an unary chat/completions response into a
// canon.ChatResponse. logger may be nil in tests.
func parseResponse(ctx context.Context, raw []byte, logger *obslog.Logger) (canon.ChatResponse, error) {
	var resp chatCompletionResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return canon.ChatResponse{}, canon.NewSerializationError("decode openai-compat response", err)
	}
	if len(resp.Choices) == 0 {
		return canon.ChatResponse{}, nil
	}

	msg := resp.Choices[0].Message
	out := canon.ChatResponse{Content: msg.Content}

	for _, tc := range msg.ToolCalls {
		args, ok := decodeArguments(tc.Function.Arguments)
		if !ok && logger != nil {
			logger.Warn(ctx, "openaicompat: tool call arguments did not parse as JSON, preserving raw string",
				"tool_call_id", tc.ID, "name", tc.Function.Name)
		}
		out.ToolCalls = append(out.ToolCalls, canon.ToolCall{ID: tc.ID, Name: tc.Function.Name, Input: args})
	}

	if resp.Usage != nil {
		out.Usage = &canon.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		}
	}

	return out, nil
}
