package conversation

import (
	"strings"
	"testing"

	"github.com/agentcore/runtime/pkg/canon"
)

func TestInvariantsAfterEveryAdd(t *testing.T) {
	tests := []struct {
		name        string
		maxMessages int
		maxTokens   int
		adds        int
	}{
		{"small budget many adds", 3, 50, 20},
		{"generous budget", 100, 100000, 50},
		{"single message budget", 5, 1, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.maxMessages, tt.maxTokens)
			for i := 0; i < tt.adds; i++ {
				c.AddUser(strings.Repeat("x", 40))
				if tt.maxMessages > 0 && c.Len() > tt.maxMessages {
					t.Fatalf("after add %d: len=%d exceeds max_messages=%d", i, c.Len(), tt.maxMessages)
				}
				if tt.maxTokens > 0 && c.Len() > 1 && c.EstimateTokenCount() > tt.maxTokens {
					t.Fatalf("after add %d: tokens=%d exceeds max_tokens=%d with len=%d", i, c.EstimateTokenCount(), tt.maxTokens, c.Len())
				}
			}
		})
	}
}

func TestMessageOrderingPreservedAcrossEviction(t *testing.T) {
	c := New(3, 0)
	for i := 0; i < 5; i++ {
		c.AddUser(string(rune('a' + i)))
	}
	msgs := c.Messages()
	if len(msgs) != 3 {
		t.Fatalf("expected 3 survivors, got %d", len(msgs))
	}
	want := []string{"c", "d", "e"}
	for i, m := range msgs {
		if m.Text() != want[i] {
			t.Errorf("position %d: got %q want %q", i, m.Text(), want[i])
		}
	}
}

func TestRemoveLastIfRole(t *testing.T) {
	c := New(0, 0)
	c.AddUser("hi")
	c.AddAssistant("hello")

	if !c.RemoveLastIfRole(canon.RoleAssistant) {
		t.Fatal("expected removal of trailing assistant message")
	}
	if c.Len() != 1 {
		t.Fatalf("expected 1 message remaining, got %d", c.Len())
	}
	if c.RemoveLastIfRole(canon.RoleAssistant) {
		t.Fatal("expected no removal: last message is a user message")
	}
}

func TestSystemPromptExcludedFromPerMessageOverhead(t *testing.T) {
	withPrompt := New(0, 0)
	prompt := "a system prompt"
	withPrompt.SetSystemPrompt(&prompt)

	withoutPrompt := New(0, 0)

	// The system prompt should add only its own char-based cost, not the
	// fixed 10-token message framing overhead.
	diff := withPrompt.EstimateTokenCount() - withoutPrompt.EstimateTokenCount()
	if diff >= messageFramingTokens {
		t.Errorf("system prompt overhead %d should be less than per-message framing %d", diff, messageFramingTokens)
	}
}

func TestSingleMessageNeverEvictedForTokenBudget(t *testing.T) {
	c := New(0, 1)
	c.AddUser(strings.Repeat("x", 1000))
	if c.Len() != 1 {
		t.Fatalf("expected the lone message to survive despite exceeding max_tokens, got len=%d", c.Len())
	}
}

func TestReplaceMessagesReenforcesLimits(t *testing.T) {
	c := New(2, 0)
	c.ReplaceMessages([]canon.Message{
		canon.NewMessage(canon.RoleUser, canon.Text("a")),
		canon.NewMessage(canon.RoleAssistant, canon.Text("b")),
		canon.NewMessage(canon.RoleUser, canon.Text("c")),
	})
	if c.Len() != 2 {
		t.Fatalf("expected ReplaceMessages to re-enforce max_messages, got len=%d", c.Len())
	}
	if c.Messages()[0].Text() != "b" || c.Messages()[1].Text() != "c" {
		t.Fatalf("expected oldest-first eviction to keep the newest survivors, got %#v", c.Messages())
	}
}
