package canon

// BlockType classifies a content block opened by a ContentBlockStart event.
type BlockType string

const (
	BlockText     BlockType = "text"
	BlockToolUse  BlockType = "tool_use"
	BlockThinking BlockType = "thinking"
)

// StreamEventKind discriminates StreamEvent. A single stream must use either
// the block-structured kinds or the legacy flat kinds consistently.
type StreamEventKind string

const (
	EventContentBlockStart StreamEventKind = "content_block_start"
	EventContentBlockDelta StreamEventKind = "content_block_delta"
	EventContentBlockStop  StreamEventKind = "content_block_stop"
	EventMessageStart      StreamEventKind = "message_start"
	EventMessageStop       StreamEventKind = "message_stop"
	EventMetadata          StreamEventKind = "metadata"
	EventError             StreamEventKind = "error"

	// Legacy flat events, maintained for consumers that have not migrated.
	EventContentDelta  StreamEventKind = "content_delta"
	EventToolCallStart StreamEventKind = "tool_call_start"
	EventToolCallDelta StreamEventKind = "tool_call_delta"
	EventThinkingDelta StreamEventKind = "thinking_delta"
	EventDone          StreamEventKind = "done"
)

// DeltaKind discriminates the payload of a ContentBlockDelta event.
type DeltaKind string

const (
	DeltaText     DeltaKind = "text"
	DeltaToolUse  DeltaKind = "tool_use"
	DeltaThinking DeltaKind = "thinking"
)

// Delta is the payload of a block-structured ContentBlockDelta event.
type Delta struct {
	Kind          DeltaKind
	Text          string
	ToolCallID    string
	InputDelta    string
	ReasoningText string
}

// StreamEvent is the canonical unit emitted by a streaming provider call.
// Exactly one field group is populated per Kind; see the constructors below.
type StreamEvent struct {
	Kind StreamEventKind

	// Block-structured fields.
	BlockType  BlockType
	BlockIndex int
	Delta      Delta
	Role       Role
	StopReason string
	Usage      *Usage
	Err        error

	// Legacy flat fields.
	ContentDelta string
	ToolCall     *ToolCall
	ThinkingText string
}

func ContentBlockStartEvent(blockType BlockType, index int) StreamEvent {
	return StreamEvent{Kind: EventContentBlockStart, BlockType: blockType, BlockIndex: index}
}

func ContentBlockDeltaEvent(d Delta, index int) StreamEvent {
	return StreamEvent{Kind: EventContentBlockDelta, Delta: d, BlockIndex: index}
}

func ContentBlockStopEvent(index int) StreamEvent {
	return StreamEvent{Kind: EventContentBlockStop, BlockIndex: index}
}

func MessageStartEvent(role Role) StreamEvent {
	return StreamEvent{Kind: EventMessageStart, Role: role}
}

func MessageStopEvent(stopReason string) StreamEvent {
	return StreamEvent{Kind: EventMessageStop, StopReason: stopReason}
}

func MetadataEvent(usage *Usage) StreamEvent {
	return StreamEvent{Kind: EventMetadata, Usage: usage}
}

func ErrorEvent(err error) StreamEvent {
	return StreamEvent{Kind: EventError, Err: err}
}

// Legacy flat constructors.

func ContentDeltaEvent(text string) StreamEvent {
	return StreamEvent{Kind: EventContentDelta, ContentDelta: text}
}

func ToolCallStartEvent(call ToolCall) StreamEvent {
	return StreamEvent{Kind: EventToolCallStart, ToolCall: &call}
}

func ToolCallDeltaEvent(toolCallID, inputDelta string) StreamEvent {
	return StreamEvent{Kind: EventToolCallDelta, Delta: Delta{Kind: DeltaToolUse, ToolCallID: toolCallID, InputDelta: inputDelta}}
}

func ThinkingDeltaEvent(text string) StreamEvent {
	return StreamEvent{Kind: EventThinkingDelta, ThinkingText: text}
}

func DoneEvent(usage *Usage) StreamEvent {
	return StreamEvent{Kind: EventDone, Usage: usage}
}
