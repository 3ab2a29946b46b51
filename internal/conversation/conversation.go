// Package conversation owns the ordered message history for a single agent
// turn loop, enforcing message-count and token-budget invariants after every
// mutation.
package conversation

import (
	"github.com/agentcore/runtime/pkg/canon"
)

// messageFramingTokens is the fixed per-message overhead added to the
// estimated token count, separate from the system prompt.
const messageFramingTokens = 10

// Conversation is the ordered message history plus the limits it must
// satisfy. It is exclusively owned by its agent; callers must not share one
// across goroutines without external synchronization.
type Conversation struct {
	messages     []canon.Message
	systemPrompt *string
	maxMessages  int
	maxTokens    int
}

// New creates a Conversation bounded by maxMessages and maxTokens. A value
// of 0 for either disables that bound.
func New(maxMessages, maxTokens int) *Conversation {
	return &Conversation{maxMessages: maxMessages, maxTokens: maxTokens}
}

// SetSystemPrompt replaces the system prompt; it never appends a message.
func (c *Conversation) SetSystemPrompt(prompt *string) {
	c.systemPrompt = prompt
}

// SystemPrompt returns the current system prompt, if any.
func (c *Conversation) SystemPrompt() *string {
	return c.systemPrompt
}

// Messages returns the current ordered message slice. Callers must not
// mutate the returned slice's backing array.
func (c *Conversation) Messages() []canon.Message {
	return c.messages
}

// Len returns the current message count.
func (c *Conversation) Len() int {
	return len(c.messages)
}

// AddUser appends a user message carrying a single Text block.
func (c *Conversation) AddUser(text string) {
	c.AddMessage(canon.NewMessage(canon.RoleUser, canon.Text(text)))
}

// AddAssistant appends an assistant message carrying a single Text block.
func (c *Conversation) AddAssistant(text string) {
	c.AddMessage(canon.NewMessage(canon.RoleAssistant, canon.Text(text)))
}

// AddMessage appends msg, then enforces the context-window invariants.
func (c *Conversation) AddMessage(msg canon.Message) {
	c.messages = append(c.messages, msg)
	c.enforceLimits()
}

// ReplaceMessages overwrites the ordered message slice wholesale, then
// re-enforces the context-window invariants. This is the integration point
// for the context-recovery engine, which rewrites messages in place
// rather than appending.
func (c *Conversation) ReplaceMessages(messages []canon.Message) {
	c.messages = messages
	c.enforceLimits()
}

// RemoveLastIfRole pops the last message iff it has the given role,
// returning whether a message was removed. Used by the recovery path when
// an assistant response must be discarded.
func (c *Conversation) RemoveLastIfRole(role canon.Role) bool {
	if len(c.messages) == 0 {
		return false
	}
	last := c.messages[len(c.messages)-1]
	if last.Role != role {
		return false
	}
	c.messages = c.messages[:len(c.messages)-1]
	return true
}

// Last returns the last message, if any.
func (c *Conversation) Last() (canon.Message, bool) {
	if len(c.messages) == 0 {
		return canon.Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// LastAssistant returns the most recent assistant message, if any.
func (c *Conversation) LastAssistant() (canon.Message, bool) {
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].Role == canon.RoleAssistant {
			return c.messages[i], true
		}
	}
	return canon.Message{}, false
}

// EstimateTokenCount returns the heuristic token estimate: ceil(chars/4)
// summed over text fields, plus a fixed per-message framing overhead; the
// system prompt counts without that overhead.
func (c *Conversation) EstimateTokenCount() int {
	total := 0
	if c.systemPrompt != nil {
		total += estimateChars(len(*c.systemPrompt))
	}
	for _, m := range c.messages {
		total += messageFramingTokens
		total += estimateChars(messageCharCount(m))
	}
	return total
}

func estimateChars(chars int) int {
	return (chars + 3) / 4
}

func messageCharCount(m canon.Message) int {
	n := 0
	for _, b := range m.Content {
		switch v := b.(type) {
		case canon.Text:
			n += len(string(v))
		case canon.Thinking:
			n += len(v.Content)
		case canon.ReasoningContent:
			n += len(v.Text)
		case canon.ToolUse:
			n += len(v.Name) + len(v.Input)
		case canon.ToolResult:
			n += len(canon.Render(v.Content))
		}
	}
	return n
}

// enforceLimits applies the two-step eviction rule after any add:
//  1. If len > max_messages, drain the oldest (len - max_messages) entries.
//  2. While estimated_tokens > max_tokens and len > 1, remove the oldest
//     message.
func (c *Conversation) enforceLimits() {
	if c.maxMessages > 0 && len(c.messages) > c.maxMessages {
		drop := len(c.messages) - c.maxMessages
		c.messages = c.messages[drop:]
	}
	if c.maxTokens > 0 {
		for len(c.messages) > 1 && c.EstimateTokenCount() > c.maxTokens {
			c.messages = c.messages[1:]
		}
	}
}
