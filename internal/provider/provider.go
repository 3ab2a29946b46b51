// Package provider defines the uniform provider contract and the
// process-wide registry that lazily constructs and shares provider
// instances.
package provider

import (
	"context"

	"github.com/agentcore/runtime/pkg/canon"
)

// Type identifies a concrete provider implementation.
type Type string

const (
	TypeBedrock      Type = "bedrock"
	TypeOpenAICompat Type = "openai_compat"
)

// HealthStatus is the result of a health check.
type HealthStatus struct {
	Healthy   bool
	LatencyMS *int64
	Error     string
}

// Capabilities describes what a provider supports.
type Capabilities struct {
	SupportsStreaming     bool
	SupportsTools         bool
	SupportsThinking      bool
	SupportsVision        bool
	SupportsPromptCaching bool
	SupportsToolCaching   bool
	MaxTokens             *int
	AvailableModels       []string
}

// Provider is the uniform contract every backend implements. Implementations
// must be reentrant: no per-call state may live on the receiver.
type Provider interface {
	Chat(ctx context.Context, modelID string, messages []canon.Message, cfg canon.ChatConfig) (canon.ChatResponse, error)
	ChatWithTools(ctx context.Context, modelID string, messages []canon.Message, tools []canon.ToolSpec, cfg canon.ChatConfig) (canon.ChatResponse, error)
	ChatStreaming(ctx context.Context, modelID string, messages []canon.Message, cfg canon.ChatConfig) (<-chan canon.StreamEvent, error)
	ChatStreamingWithTools(ctx context.Context, modelID string, messages []canon.Message, tools []canon.ToolSpec, cfg canon.ChatConfig) (<-chan canon.StreamEvent, error)
	HealthCheck(ctx context.Context) HealthStatus
	ProviderType() Type
	SupportedModels() []string
	Capabilities() Capabilities
}
