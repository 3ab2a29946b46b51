// Package canon defines the provider-agnostic message, content-block, tool,
// and error types shared by every component of the agent runtime.
package canon

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is a single turn in a conversation. Messages are value types; the
// conversation manager exclusively owns the ordered sequence they live in.
type Message struct {
	ID        string         `json:"id"`
	Role      Role           `json:"role"`
	Content   []ContentBlock `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewMessage creates a Message with a fresh identity.
func NewMessage(role Role, content ...ContentBlock) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// Text returns the concatenation of every Text block in the message,
// joined by a single space, matching the unary-response parsing convention
// used by both providers.
func (m Message) Text() string {
	var out string
	for _, b := range m.Content {
		if t, ok := b.(Text); ok {
			if out != "" {
				out += " "
			}
			out += string(t)
		}
	}
	return out
}

// ToolUses returns every ToolUse block in the message, in order.
func (m Message) ToolUses() []ToolUse {
	var out []ToolUse
	for _, b := range m.Content {
		if tu, ok := b.(ToolUse); ok {
			out = append(out, tu)
		}
	}
	return out
}

// ToolResults returns every ToolResult block in the message, in order.
func (m Message) ToolResults() []ToolResult {
	var out []ToolResult
	for _, b := range m.Content {
		if tr, ok := b.(ToolResult); ok {
			out = append(out, tr)
		}
	}
	return out
}

// HasToolResult reports whether the message contains at least one ToolResult block.
func (m Message) HasToolResult() bool {
	for _, b := range m.Content {
		if _, ok := b.(ToolResult); ok {
			return true
		}
	}
	return false
}
