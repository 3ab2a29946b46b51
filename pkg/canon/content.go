package canon

import "encoding/json"

// ContentBlock is a tagged union over the content kinds a Message can carry.
// Concrete variants are Text, ToolUse, ToolResult, Thinking, and
// ReasoningContent. The isContentBlock marker method keeps the union closed
// to this package's variants.
type ContentBlock interface {
	isContentBlock()
}

// Text is plain assistant or user text.
type Text string

func (Text) isContentBlock() {}

// ThinkingQuality classifies the confidence of an assistant's internal
// reasoning, when the backend reports one.
type ThinkingQuality string

const (
	ThinkingHigh    ThinkingQuality = "high"
	ThinkingMedium  ThinkingQuality = "medium"
	ThinkingLow     ThinkingQuality = "low"
	ThinkingUnknown ThinkingQuality = "unknown"
)

// Thinking is assistant-internal reasoning surfaced alongside a response.
type Thinking struct {
	Content   string
	Quality   ThinkingQuality
	Timestamp int64
}

func (Thinking) isContentBlock() {}

// ReasoningContent is backend-native reasoning, distinct from Thinking in
// that it may carry a verification signature supplied by the backend.
type ReasoningContent struct {
	Text      string
	Signature string
}

func (ReasoningContent) isContentBlock() {}

// ToolUse is a request by the assistant to execute a named tool. Input must
// be a JSON object; wire builders substitute {} when the canonical value is
// null or not an object. ID is unique within the owning message.
type ToolUse struct {
	ID    string
	Name  string
	Input json.RawMessage
}

func (ToolUse) isContentBlock() {}

// NormalizedInput returns Input coerced to a JSON object: {} if Input is
// empty, null, or does not decode to a JSON object.
func (t ToolUse) NormalizedInput() json.RawMessage {
	return coerceObject(t.Input)
}

// ToolResult is the outcome of executing a tool, tied back to a prior
// ToolUse.ID. tool_use_id need not resolve to an existing ToolUse; recovery
// may leave it dangling, and normal operations never create such a state.
type ToolResult struct {
	ToolUseID string
	Content   ToolResultContent
	IsError   bool
}

func (ToolResult) isContentBlock() {}

// coerceObject normalizes raw to a JSON object, substituting {} when raw is
// empty, literal null, or decodes to anything other than a JSON object.
func coerceObject(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage(`{}`)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return json.RawMessage(`{}`)
	}
	if _, ok := v.(map[string]any); !ok {
		return json.RawMessage(`{}`)
	}
	return raw
}
