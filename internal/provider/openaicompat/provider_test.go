package openaicompat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/agentcore/runtime/internal/retry"
	"github.com/agentcore/runtime/pkg/canon"
)

func TestChatWithToolsEmptyToolsBehavesLikeChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"hi there"}}],"usage":{"prompt_tokens":5,"completion_tokens":2,"total_tokens":7}}`))
	}))
	defer srv.Close()

	p := New(Config{BaseURL: srv.URL, DefaultModel: "gemma-3"})
	resp, err := p.ChatWithTools(context.Background(), "gemma-3", []canon.Message{canon.NewMessage(canon.RoleUser, canon.Text("hi"))}, nil, canon.ChatConfig{})
	if err != nil {
		t.Fatalf("ChatWithTools: %v", err)
	}
	if resp.Content != "hi there" {
		t.Errorf("Content = %q", resp.Content)
	}
}

func TestChatRetriesOnServiceUnavailableThenSucceeds(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":{"message":"service unavailable"}}`))
			return
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	p := New(Config{BaseURL: srv.URL, RetryConfig: testRetryConfig()})
	resp, err := p.Chat(context.Background(), "gemma-3", []canon.Message{canon.NewMessage(canon.RoleUser, canon.Text("hi"))}, canon.ChatConfig{})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Content != "ok" {
		t.Errorf("Content = %q", resp.Content)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
}

func TestChatDoesNotRetryOnBadRequest(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"invalid request"}}`))
	}))
	defer srv.Close()

	p := New(Config{BaseURL: srv.URL, RetryConfig: testRetryConfig()})
	_, err := p.Chat(context.Background(), "gemma-3", []canon.Message{canon.NewMessage(canon.RoleUser, canon.Text("hi"))}, canon.ChatConfig{})
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want exactly 1 (non-retryable)", attempts)
	}
}

func TestHealthCheckReportsLatencyOnSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"pong"}}]}`))
	}))
	defer srv.Close()

	p := New(Config{BaseURL: srv.URL, DefaultModel: "gemma-3"})
	status := p.HealthCheck(context.Background())
	if !status.Healthy {
		t.Errorf("Healthy = false, want true: %s", status.Error)
	}
	if status.LatencyMS == nil {
		t.Error("LatencyMS = nil, want populated")
	}
}

func testRetryConfig() retry.Config {
	return retry.Config{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		Strategy:     retry.Fixed,
		Jitter:       false,
	}
}
