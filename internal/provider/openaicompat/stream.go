package openaicompat

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/agentcore/runtime/internal/obslog"
	"github.com/agentcore/runtime/internal/provider"
	"github.com/agentcore/runtime/internal/provider/usageest"
	"github.com/agentcore/runtime/pkg/canon"
)

// ChatStreaming implements provider.Provider.
func (p *Provider) ChatStreaming(ctx context.Context, modelID string, messages []canon.Message, cfg canon.ChatConfig) (<-chan canon.StreamEvent, error) {
	return p.ChatStreamingWithTools(ctx, modelID, messages, nil, cfg)
}

// ChatStreamingWithTools implements provider.Provider, running the
// SSE state machine that keeps one buffer per parallel tool call, keyed by
// server id (preferred) or delta index.
func (p *Provider) ChatStreamingWithTools(ctx context.Context, modelID string, messages []canon.Message, tools []canon.ToolSpec, cfg canon.ChatConfig) (<-chan canon.StreamEvent, error) {
	model := p.resolveModel(modelID)
	req := buildRequest(model, messages, tools, cfg, true)
	body, err := json.Marshal(req)
	if err != nil {
		return nil, canon.NewSerializationError("encode openai-compat request", err)
	}
	p.lastRawRequest.store(body)

	resp, err := p.post(ctx, body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(resp.Body)
		return nil, wrapHTTPError(resp.StatusCode, raw)
	}

	events := make(chan canon.StreamEvent)
	go pumpSSE(ctx, resp.Body, events, p.logger)
	return events, nil
}

// toolCallBuffer accumulates one parallel tool call's id/name/argument
// fragments across chunks.
type toolCallBuffer struct {
	key    string
	id     string
	name   string
	buffer []byte
}

func pumpSSE(ctx context.Context, body io.ReadCloser, events chan<- canon.StreamEvent, logger *obslog.Logger) {
	defer close(events)
	defer body.Close()

	scanner := bufio.NewScanner(body)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	calls := map[string]*toolCallBuffer{}
	indexKeys := map[int]string{}
	var order []string
	var totalText string
	var serverUsage *canon.Usage
	toolsSeen := false
	doneEmitted := false

	finalize := func() {
		for _, key := range order {
			call := calls[key]
			if call == nil || call.name == "" {
				continue
			}
			input := call.buffer
			var probe any
			if len(input) == 0 || json.Unmarshal(input, &probe) != nil {
				if logger != nil {
					logger.Warn(ctx, "openaicompat: tool call arguments did not parse as JSON, substituting empty object",
						"tool_call_id", call.id, "name", call.name)
				}
				input = []byte("{}")
			}
			events <- canon.ToolCallStartEvent(canon.ToolCall{ID: call.id, Name: call.name, Input: json.RawMessage(input)})
		}
		calls = map[string]*toolCallBuffer{}
		indexKeys = map[int]string{}
		order = nil
	}

	emitDone := func() {
		if doneEmitted {
			return
		}
		doneEmitted = true
		usage := serverUsage
		if usage == nil {
			est := usageest.Estimate(totalText, toolsSeen)
			usage = &est
		}
		events <- canon.DoneEvent(usage)
	}

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			events <- canon.ErrorEvent(ctx.Err())
			emitDone()
			return
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, "data: ") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data: "))
		if payload == "[DONE]" {
			finalize()
			emitDone()
			return
		}

		var chunk sseChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			events <- canon.ErrorEvent(canon.NewSerializationError("decode openai-compat stream chunk", err))
			continue
		}

		if chunk.Usage != nil && (chunk.Usage.PromptTokens != 0 || chunk.Usage.CompletionTokens != 0 || chunk.Usage.TotalTokens != 0) {
			serverUsage = &canon.Usage{
				InputTokens:  chunk.Usage.PromptTokens,
				OutputTokens: chunk.Usage.CompletionTokens,
				TotalTokens:  chunk.Usage.TotalTokens,
			}
		}

		if len(chunk.Choices) == 0 {
			continue
		}
		choice := chunk.Choices[0]
		delta := choice.Delta

		if delta.Content != "" {
			totalText += delta.Content
			events <- canon.ContentDeltaEvent(delta.Content)
		}

		for _, tc := range delta.ToolCalls {
			toolsSeen = true
			key := tc.ID
			if key == "" {
				key = indexKeys[tc.Index]
			}
			if key == "" {
				key = "idx:" + strconv.Itoa(tc.Index)
			}
			indexKeys[tc.Index] = key
			call, ok := calls[key]
			if !ok {
				call = &toolCallBuffer{key: key}
				calls[key] = call
				order = append(order, key)
			}
			if tc.ID != "" {
				call.id = tc.ID
			}
			if call.id == "" {
				call.id = key
			}
			if tc.Function.Name != "" {
				call.name = tc.Function.Name
			}
			if tc.Function.Arguments != "" {
				call.buffer = append(call.buffer, tc.Function.Arguments...)
				events <- canon.ToolCallDeltaEvent(call.id, tc.Function.Arguments)
			}
		}

		if choice.FinishReason != "" {
			finalize()
		}
	}

	if err := scanner.Err(); err != nil {
		events <- canon.ErrorEvent(canon.NewNetworkError("read openai-compat stream", err))
	}
	emitDone()
}

type sseChunk struct {
	Choices []sseChoice          `json:"choices"`
	Usage   *chatCompletionUsage `json:"usage"`
}

type sseChoice struct {
	Delta        sseDelta `json:"delta"`
	FinishReason string   `json:"finish_reason"`
}

type sseDelta struct {
	Content   string             `json:"content"`
	ToolCalls []sseToolCallDelta `json:"tool_calls"`
}

type sseToolCallDelta struct {
	Index    int                  `json:"index"`
	ID       string               `json:"id"`
	Function sseFunctionCallDelta `json:"function"`
}

type sseFunctionCallDelta struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

var _ provider.Provider = (*Provider)(nil)
