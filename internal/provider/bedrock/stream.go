package bedrock

import (
	"context"
	"encoding/json"

	"github.com/agentcore/runtime/internal/obslog"
	"github.com/agentcore/runtime/pkg/canon"
)

// streamState tracks the single in-flight partial tool call for one
// streamed call. Bedrock never interleaves concurrent tool calls within a
// stream, so unlike the OpenAI-compatible provider a single buffer
// (block index 0) suffices (mirroring the backend, which keeps a
// single in-flight tool call per stream).
type streamState struct {
	toolID   string
	toolName string
	buffer   []byte
	active   bool

	ctx    context.Context
	logger *obslog.Logger
}

// processChunk decodes one raw event-stream frame and returns the canonical
// events it produces, dispatching on whichever key/type tag is present so
// Claude's `type`-tagged events and Nova's key-tagged events share one state
// machine.
func (s *streamState) processChunk(raw []byte) []canon.StreamEvent {
	var frame map[string]json.RawMessage
	if err := json.Unmarshal(raw, &frame); err != nil {
		return []canon.StreamEvent{canon.ErrorEvent(canon.NewSerializationError("decode bedrock stream chunk", err))}
	}

	if typ, ok := stringField(frame, "type"); ok {
		return s.processClaudeEvent(typ, frame)
	}
	return s.processNovaEvent(frame)
}

func (s *streamState) processClaudeEvent(typ string, frame map[string]json.RawMessage) []canon.StreamEvent {
	switch typ {
	case "content_block_start":
		var contentBlock struct {
			Type string `json:"type"`
			ID   string `json:"id"`
			Name string `json:"name"`
		}
		_ = json.Unmarshal(mustRaw(frame, "content_block"), &contentBlock)
		if contentBlock.Type == "tool_use" {
			s.startTool(contentBlock.ID, contentBlock.Name)
		}
		return nil

	case "content_block_delta":
		var delta struct {
			Text        string `json:"text"`
			PartialJSON string `json:"partial_json"`
		}
		_ = json.Unmarshal(mustRaw(frame, "delta"), &delta)
		if delta.Text != "" {
			return []canon.StreamEvent{canon.ContentDeltaEvent(delta.Text)}
		}
		if s.active {
			s.buffer = append(s.buffer, delta.PartialJSON...)
			return []canon.StreamEvent{canon.ToolCallDeltaEvent(s.toolID, delta.PartialJSON)}
		}
		return nil

	case "content_block_stop":
		return s.finalizeTool()

	case "message_start", "message_delta", "message_stop":
		return nil
	default:
		return nil
	}
}

func (s *streamState) processNovaEvent(frame map[string]json.RawMessage) []canon.StreamEvent {
	if raw, ok := frame["contentBlockStart"]; ok {
		var start struct {
			Start struct {
				ToolUse struct {
					ToolUseID string `json:"toolUseId"`
					Name      string `json:"name"`
				} `json:"toolUse"`
			} `json:"start"`
		}
		_ = json.Unmarshal(raw, &start)
		if start.Start.ToolUse.ToolUseID != "" || start.Start.ToolUse.Name != "" {
			s.startTool(start.Start.ToolUse.ToolUseID, start.Start.ToolUse.Name)
		}
		return nil
	}

	if raw, ok := frame["contentBlockDelta"]; ok {
		var delta struct {
			Delta struct {
				Text    string          `json:"text"`
				ToolUse json.RawMessage `json:"toolUse"`
			} `json:"delta"`
		}
		_ = json.Unmarshal(raw, &delta)
		if delta.Delta.Text != "" {
			return []canon.StreamEvent{canon.ContentDeltaEvent(delta.Delta.Text)}
		}
		if len(delta.Delta.ToolUse) > 0 && s.active {
			return s.applyNovaToolUseDelta(delta.Delta.ToolUse)
		}
		return nil
	}

	if _, ok := frame["contentBlockStop"]; ok {
		return s.finalizeTool()
	}

	// messageStart / messageStop / metadata: informational, no emit here.
	return nil
}

// applyNovaToolUseDelta handles both wire shapes of
// contentBlockDelta.toolUse.input: a full object (set directly) or a
// string fragment (append to the buffer).
func (s *streamState) applyNovaToolUseDelta(raw json.RawMessage) []canon.StreamEvent {
	var wrapper struct {
		Input json.RawMessage `json:"input"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil || len(wrapper.Input) == 0 {
		return nil
	}

	var asString string
	if err := json.Unmarshal(wrapper.Input, &asString); err == nil {
		// toolUse.input is a JSON string: a fragment to append and parse
		// opportunistically.
		s.buffer = append(s.buffer, asString...)
		return []canon.StreamEvent{canon.ToolCallDeltaEvent(s.toolID, asString)}
	}

	// toolUse.input is already a full object: set the partial input
	// directly and emit its serialized form.
	s.buffer = append(s.buffer[:0], wrapper.Input...)
	return []canon.StreamEvent{canon.ToolCallDeltaEvent(s.toolID, string(wrapper.Input))}
}

func (s *streamState) startTool(id, name string) {
	s.active = true
	s.toolID = id
	s.toolName = name
	s.buffer = s.buffer[:0]
}

// finalizeTool implements the content_block_stop / contentBlockStop rule:
// try parsing the buffered JSON, substitute {} on failure, emit
// ToolCallStart with the complete call then a final ToolCallDelta, reset.
func (s *streamState) finalizeTool() []canon.StreamEvent {
	if !s.active {
		return nil
	}
	input := s.buffer
	var probe any
	if len(input) == 0 || json.Unmarshal(input, &probe) != nil {
		if s.logger != nil {
			s.logger.Warn(s.ctx, "bedrock: tool call input did not parse as JSON, substituting empty object",
				"tool_call_id", s.toolID, "name", s.toolName)
		}
		input = []byte("{}")
	} else if _, ok := probe.(map[string]any); !ok {
		input = []byte("{}")
	}

	call := canon.ToolCall{ID: s.toolID, Name: s.toolName, Input: json.RawMessage(input)}
	events := []canon.StreamEvent{
		canon.ToolCallStartEvent(call),
		canon.ToolCallDeltaEvent(s.toolID, string(input)),
	}

	s.active = false
	s.toolID = ""
	s.toolName = ""
	s.buffer = nil
	return events
}

func stringField(frame map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := frame[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func mustRaw(frame map[string]json.RawMessage, key string) json.RawMessage {
	if raw, ok := frame[key]; ok {
		return raw
	}
	return json.RawMessage("{}")
}
