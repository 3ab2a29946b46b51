package bedrock

import (
	"encoding/json"

	"github.com/agentcore/runtime/internal/toolconv"
	"github.com/agentcore/runtime/pkg/canon"
)

const defaultMaxTokens = 4096

// claudeContentBlock is the Claude Messages wire shape for one content
// block within a request message.
type claudeContentBlock struct {
	Type      string                    `json:"type"`
	Text      string                    `json:"text,omitempty"`
	ID        string                    `json:"id,omitempty"`
	Name      string                    `json:"name,omitempty"`
	Input     json.RawMessage           `json:"input,omitempty"`
	ToolUseID string                    `json:"tool_use_id,omitempty"`
	Content   []claudeToolResultContent `json:"content,omitempty"`
	IsError   bool                      `json:"is_error,omitempty"`
}

type claudeToolResultContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type claudeMessage struct {
	Role    string               `json:"role"`
	Content []claudeContentBlock `json:"content"`
}

type claudeTool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema any    `json:"input_schema"`
}

type claudeToolChoice struct {
	Type string `json:"type"`
}

type claudeRequest struct {
	AnthropicVersion string            `json:"anthropic_version"`
	MaxTokens        int               `json:"max_tokens"`
	Messages         []claudeMessage   `json:"messages"`
	System           string            `json:"system,omitempty"`
	Temperature      *float64          `json:"temperature,omitempty"`
	Tools            []claudeTool      `json:"tools,omitempty"`
	ToolChoice       *claudeToolChoice `json:"tool_choice,omitempty"`
}

type claudeUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type claudeResponse struct {
	Content []claudeContentBlock `json:"content"`
	Usage   *claudeUsage         `json:"usage"`
}

// buildClaudeRequest assembles the raw Claude Messages request body.
func buildClaudeRequest(messages []canon.Message, tools []canon.ToolSpec, cfg canon.ChatConfig) claudeRequest {
	req := claudeRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        defaultMaxTokens,
	}
	if cfg.MaxTokens != nil {
		req.MaxTokens = *cfg.MaxTokens
	}
	if cfg.Temperature != nil {
		req.Temperature = cfg.Temperature
	}

	var system []string
	for _, m := range messages {
		if m.Role == canon.RoleSystem {
			system = append(system, m.Text())
			continue
		}
		req.Messages = append(req.Messages, claudeMessageFrom(m))
	}
	if len(system) > 0 {
		req.System = joinNonEmpty(system)
	}

	if len(tools) > 0 {
		req.Tools = make([]claudeTool, len(tools))
		for i, t := range tools {
			req.Tools[i] = claudeTool{Name: t.Name, Description: t.Description, InputSchema: toolconv.DecodeSchema(t.InputSchema)}
		}
		req.ToolChoice = &claudeToolChoice{Type: "auto"}
	}
	return req
}

func claudeMessageFrom(m canon.Message) claudeMessage {
	role := "user"
	if m.Role == canon.RoleAssistant {
		role = "assistant"
	}
	out := claudeMessage{Role: role}
	for _, block := range m.Content {
		switch b := block.(type) {
		case canon.Text:
			out.Content = append(out.Content, claudeContentBlock{Type: "text", Text: string(b)})
		case canon.ToolUse:
			out.Content = append(out.Content, claudeContentBlock{
				Type:  "tool_use",
				ID:    b.ID,
				Name:  b.Name,
				Input: b.NormalizedInput(),
			})
		case canon.ToolResult:
			out.Content = append(out.Content, claudeContentBlock{
				Type:      "tool_result",
				ToolUseID: b.ToolUseID,
				IsError:   b.IsError,
				Content:   []claudeToolResultContent{{Type: "text", Text: canon.Render(b.Content)}},
			})
		}
	}
	return out
}

func joinNonEmpty(parts []string) string {
	out := ""
	for i, p := range parts {
		if p == "" {
			continue
		}
		if i > 0 && out != "" {
			out += "\n"
		}
		out += p
	}
	return out
}

// parseClaudeResponse converts a unary Claude response body into a
// canon.ChatResponse.
func parseClaudeResponse(body []byte) (canon.ChatResponse, error) {
	var resp claudeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return canon.ChatResponse{}, canon.NewSerializationError("decode claude response", err)
	}

	var texts []string
	var calls []canon.ToolCall
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			texts = append(texts, block.Text)
		case "tool_use":
			input := canon.ToolUse{Input: block.Input}.NormalizedInput()
			calls = append(calls, canon.ToolCall{ID: block.ID, Name: block.Name, Input: input})
		}
	}

	out := canon.ChatResponse{Content: joinWithSpace(texts), ToolCalls: calls}
	if resp.Usage != nil {
		out.Usage = &canon.Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
			TotalTokens:  resp.Usage.InputTokens + resp.Usage.OutputTokens,
		}
	}
	return out, nil
}

func joinWithSpace(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += " "
		}
		out += p
	}
	return out
}
