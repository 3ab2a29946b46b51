package obslog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestNewLoggerDefaultsAndFormats(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"json format", Config{Level: "info", Format: "json"}},
		{"text format", Config{Level: "debug", Format: "text"}},
		{"defaults", Config{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.cfg)
			if logger == nil || logger.logger == nil {
				t.Fatal("New() returned a logger with a nil slog.Logger")
			}
		})
	}
}

func TestLoggerRedactsAPIKeyInMessageAndArgs(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info", Format: "json", Output: &buf})

	logger.Info(context.Background(), "calling provider with key sk-ant-"+strings.Repeat("y", 100),
		"authorization", "Bearer sk-ant-"+strings.Repeat("x", 100),
	)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log line as JSON: %v", err)
	}
	if strings.Contains(buf.String(), "sk-ant-") {
		t.Fatalf("expected the API key to be redacted, got: %s", buf.String())
	}
}

func TestLoggerRedactsErrorArgValue(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "error", Format: "json", Output: &buf})

	secret := "sk-" + strings.Repeat("a", 48)
	logger.Error(context.Background(), "request failed", "error", errors.New("token="+secret))

	if strings.Contains(buf.String(), secret) {
		t.Fatalf("expected the embedded secret to be redacted, got: %s", buf.String())
	}
}

func TestWithContextAttachesTurnAndProviderFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info", Format: "json", Output: &buf})

	ctx := context.Background()
	ctx = context.WithValue(ctx, TurnIDKey, "turn-123")
	ctx = context.WithValue(ctx, ProviderTypeKey, "openai_compat")

	logger.WithContext(ctx).Info(ctx, "starting turn")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log line as JSON: %v", err)
	}
	if entry["turn_id"] != "turn-123" {
		t.Errorf("expected turn_id=turn-123, got %v", entry["turn_id"])
	}
	if entry["provider_type"] != "openai_compat" {
		t.Errorf("expected provider_type=openai_compat, got %v", entry["provider_type"])
	}
}

func TestWithFieldsAttachesStaticFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info", Format: "json", Output: &buf}).WithFields("component", "agentloop")

	logger.Info(context.Background(), "ready")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log line as JSON: %v", err)
	}
	if entry["component"] != "agentloop" {
		t.Errorf("expected component=agentloop, got %v", entry["component"])
	}
}
