package bedrock

import (
	"encoding/json"

	"github.com/agentcore/runtime/internal/toolconv"
	"github.com/agentcore/runtime/pkg/canon"
)

type novaTextBlock struct {
	Text string `json:"text,omitempty"`
}

type novaToolUseBlock struct {
	ToolUseID string          `json:"toolUseId"`
	Name      string          `json:"name"`
	Input     json.RawMessage `json:"input"`
}

type novaToolResultContent struct {
	Text string `json:"text"`
}

type novaToolResultBlock struct {
	ToolUseID string                  `json:"toolUseId"`
	Content   []novaToolResultContent `json:"content"`
	Status    string                  `json:"status"`
}

type novaContentBlock struct {
	Text       string               `json:"text,omitempty"`
	ToolUse    *novaToolUseBlock    `json:"toolUse,omitempty"`
	ToolResult *novaToolResultBlock `json:"toolResult,omitempty"`
}

type novaMessage struct {
	Role    string             `json:"role"`
	Content []novaContentBlock `json:"content"`
}

type novaInferenceConfig struct {
	MaxTokens int `json:"maxTokens"`
}

type novaToolSpecWrapper struct {
	ToolSpec toolconv.BedrockNovaToolSpec `json:"toolSpec"`
}

type novaToolChoice struct {
	Auto struct{} `json:"auto"`
}

type novaToolConfig struct {
	Tools      []novaToolSpecWrapper `json:"tools"`
	ToolChoice novaToolChoice        `json:"toolChoice"`
}

type novaRequest struct {
	SchemaVersion   string              `json:"schemaVersion"`
	Messages        []novaMessage       `json:"messages"`
	System          []novaTextBlock     `json:"system,omitempty"`
	InferenceConfig novaInferenceConfig `json:"inferenceConfig"`
	ToolConfig      *novaToolConfig     `json:"toolConfig,omitempty"`
}

type novaUsage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
	TotalTokens  int `json:"totalTokens"`
}

type novaOutputMessage struct {
	Message novaMessage `json:"message"`
}

type novaResponse struct {
	Output novaOutputMessage `json:"output"`
	Usage  *novaUsage        `json:"usage"`
}

// buildNovaRequest assembles the raw Nova request body.
func buildNovaRequest(messages []canon.Message, tools []canon.ToolSpec, cfg canon.ChatConfig) novaRequest {
	maxTokens := defaultMaxTokens
	if cfg.MaxTokens != nil {
		maxTokens = *cfg.MaxTokens
	}
	req := novaRequest{
		SchemaVersion:   "messages-v1",
		InferenceConfig: novaInferenceConfig{MaxTokens: maxTokens},
	}

	for _, m := range messages {
		if m.Role == canon.RoleSystem {
			if text := m.Text(); text != "" {
				req.System = append(req.System, novaTextBlock{Text: text})
			}
			continue
		}
		req.Messages = append(req.Messages, novaMessageFrom(m))
	}

	if len(tools) > 0 {
		inputs := make([]toolconv.Input, len(tools))
		for i, t := range tools {
			inputs[i] = toolconv.Input{Name: t.Name, Description: t.Description, InputSchema: t.InputSchema}
		}
		specs := toolconv.ToBedrockNova(inputs)
		wrapped := make([]novaToolSpecWrapper, len(specs))
		for i, s := range specs {
			wrapped[i] = novaToolSpecWrapper{ToolSpec: s}
		}
		req.ToolConfig = &novaToolConfig{Tools: wrapped}
	}
	return req
}

func novaMessageFrom(m canon.Message) novaMessage {
	role := "user"
	if m.Role == canon.RoleAssistant {
		role = "assistant"
	}
	out := novaMessage{Role: role}
	for _, block := range m.Content {
		switch b := block.(type) {
		case canon.Text:
			out.Content = append(out.Content, novaContentBlock{Text: string(b)})
		case canon.ToolUse:
			out.Content = append(out.Content, novaContentBlock{ToolUse: &novaToolUseBlock{
				ToolUseID: b.ID,
				Name:      b.Name,
				Input:     b.NormalizedInput(),
			}})
		case canon.ToolResult:
			status := "success"
			if b.IsError {
				status = "error"
			}
			out.Content = append(out.Content, novaContentBlock{ToolResult: &novaToolResultBlock{
				ToolUseID: b.ToolUseID,
				Content:   []novaToolResultContent{{Text: canon.Render(b.Content)}},
				Status:    status,
			}})
		}
	}
	return out
}

// parseNovaResponse converts a unary Nova response body into a
// canon.ChatResponse.
func parseNovaResponse(body []byte) (canon.ChatResponse, error) {
	var resp novaResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return canon.ChatResponse{}, canon.NewSerializationError("decode nova response", err)
	}

	var texts []string
	var calls []canon.ToolCall
	for _, block := range resp.Output.Message.Content {
		if block.Text != "" {
			texts = append(texts, block.Text)
		}
		if block.ToolUse != nil {
			input := canon.ToolUse{Input: block.ToolUse.Input}.NormalizedInput()
			calls = append(calls, canon.ToolCall{ID: block.ToolUse.ToolUseID, Name: block.ToolUse.Name, Input: input})
		}
	}

	out := canon.ChatResponse{Content: joinWithSpace(texts), ToolCalls: calls}
	if resp.Usage != nil {
		out.Usage = &canon.Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		}
	}
	return out, nil
}
