// Package recovery implements the context-window recovery engine:
// when the classifier reports ContextOverflow, two strategies run in order
// to free space before the call is resubmitted.
package recovery

import (
	"fmt"

	"github.com/agentcore/runtime/pkg/canon"
)

// DefaultTruncateChars is the default N used by Strategy A.
const DefaultTruncateChars = 1000

// maxEvictedMessages bounds Strategy B's eviction.
const maxEvictedMessages = 3

// Recover runs Strategy A then Strategy B against messages, returning the
// possibly-modified slice and whether any change was made. Callers retry
// the provider call after a successful recovery.
func Recover(messages []canon.Message) ([]canon.Message, bool) {
	if out, ok := truncateLastToolResultMessage(messages, DefaultTruncateChars); ok {
		return out, true
	}
	return evictOldest(messages, maxEvictedMessages)
}

// truncateLastToolResultMessage is Strategy A: locate the most recent
// message containing at least one ToolResult block and truncate each of
// its ToolResult contents, marking them as errors.
func truncateLastToolResultMessage(messages []canon.Message, n int) ([]canon.Message, bool) {
	idx := -1
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].HasToolResult() {
			idx = i
			break
		}
	}
	if idx == -1 {
		return messages, false
	}

	out := make([]canon.Message, len(messages))
	copy(out, messages)

	msg := out[idx]
	newContent := make([]canon.ContentBlock, len(msg.Content))
	copy(newContent, msg.Content)
	for i, b := range newContent {
		if tr, ok := b.(canon.ToolResult); ok {
			newContent[i] = canon.ToolResult{
				ToolUseID: tr.ToolUseID,
				Content:   truncateContent(tr.Content, n),
				IsError:   true,
			}
		}
	}
	msg.Content = newContent
	out[idx] = msg
	return out, true
}

// evictOldest is Strategy B: drop up to maxDrop oldest messages, preserving
// at least one.
func evictOldest(messages []canon.Message, maxDrop int) ([]canon.Message, bool) {
	if len(messages) <= 1 {
		return messages, false
	}
	drop := maxDrop
	if drop > len(messages)-1 {
		drop = len(messages) - 1
	}
	if drop <= 0 {
		return messages, false
	}
	return messages[drop:], true
}

// truncateContent truncates c to fit within roughly n characters.
func truncateContent(c canon.ToolResultContent, n int) canon.ToolResultContent {
	switch v := c.(type) {
	case canon.TextContent:
		return canon.TextContent(truncateString(string(v), n, "...[truncated for context window]"))

	case canon.JSONContent:
		s := string(v.Value)
		truncated := truncateString(s, n, "...[truncated JSON for context window]")
		return canon.TextContent(truncated)

	case canon.BinaryContent:
		return canon.TextContent(fmt.Sprintf("[Binary data (%s) truncated for context window: %d bytes]", v.MimeType, len(v.Data)))

	case canon.MultipleContent:
		keep := v.Blocks
		dropped := 0
		if len(keep) > 3 {
			dropped = len(keep) - 3
			keep = keep[:3]
		}
		perBlock := n / 3
		if perBlock < 1 {
			perBlock = 1
		}
		truncatedBlocks := make([]canon.ToolResultContent, len(keep))
		for i, b := range keep {
			truncatedBlocks[i] = truncateContent(b, perBlock)
		}
		if dropped > 0 {
			truncatedBlocks = append(truncatedBlocks, canon.TextContent(fmt.Sprintf("...[%d more blocks truncated for context window]", dropped)))
		}
		return canon.MultipleContent{Blocks: truncatedBlocks}

	default:
		return c
	}
}

func truncateString(s string, n int, marker string) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + marker
}
