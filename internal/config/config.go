// Package config is the ambient configuration layer: a YAML file with
// environment-variable expansion, decoded strictly, supplying provider
// credentials/endpoints and the retry/circuit/conversation/telemetry
// defaults the rest of the runtime needs.
package config

import (
	"time"
)

// Config is the root configuration structure.
type Config struct {
	Version      int                `yaml:"version"`
	Providers    ProvidersConfig    `yaml:"providers"`
	Retry        RetryConfig        `yaml:"retry"`
	Circuit      CircuitConfig      `yaml:"circuit"`
	Conversation ConversationConfig `yaml:"conversation"`
	AgentLoop    AgentLoopConfig    `yaml:"agent_loop"`
	Telemetry    TelemetryConfig    `yaml:"telemetry"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// ProvidersConfig configures each backend this build can construct.
type ProvidersConfig struct {
	Bedrock      BedrockConfig      `yaml:"bedrock"`
	OpenAICompat OpenAICompatConfig `yaml:"openai_compat"`
}

// BedrockConfig configures the AWS Bedrock provider.
type BedrockConfig struct {
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	SessionToken    string `yaml:"session_token"`
}

// OpenAICompatConfig configures the OpenAI-compatible provider.
type OpenAICompatConfig struct {
	BaseURL      string        `yaml:"base_url"`
	APIKey       string        `yaml:"api_key"`
	DefaultModel string        `yaml:"default_model"`
	Timeout      time.Duration `yaml:"timeout"`
}

// RetryConfig configures the retry executor's default policy.
type RetryConfig struct {
	MaxAttempts      int           `yaml:"max_attempts"`
	InitialDelay     time.Duration `yaml:"initial_delay"`
	MaxDelay         time.Duration `yaml:"max_delay"`
	Strategy         string        `yaml:"strategy"`
	ExponentialMult  float64       `yaml:"exponential_mult"`
	Jitter           bool          `yaml:"jitter"`
	MaxTotalDuration time.Duration `yaml:"max_total_duration"`
}

// CircuitConfig configures the circuit breaker.
type CircuitConfig struct {
	FailureThreshold int           `yaml:"failure_threshold"`
	RecoveryTimeout  time.Duration `yaml:"recovery_timeout"`
}

// ConversationConfig configures context-window enforcement.
type ConversationConfig struct {
	MaxMessages int `yaml:"max_messages"`
	MaxTokens   int `yaml:"max_tokens"`
}

// AgentLoopConfig configures the turn-loop boundary.
type AgentLoopConfig struct {
	MaxIterations int `yaml:"max_iterations"`
}

// TelemetryConfig names the instrumentation scope spans and metrics are
// registered under. Export destination, sampling, and batching are an
// embedding host's concern, configured on whatever TracerProvider it
// installs, not here.
type TelemetryConfig struct {
	ServiceName string `yaml:"service_name"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"`
	AddSource bool   `yaml:"add_source"`
}

// Default returns the configuration baseline used when no file is loaded:
// the shared retry/circuit defaults plus the OpenAI-compatible timeout. The
// base URL is left blank so providerboot.Configure takes it from
// LM_STUDIO_BASE_URL, or http://localhost:1234 when that is unset.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Providers: ProvidersConfig{
			OpenAICompat: OpenAICompatConfig{
				Timeout: 2 * time.Minute,
			},
		},
		Retry: RetryConfig{
			MaxAttempts:      6,
			InitialDelay:     4 * time.Second,
			MaxDelay:         240 * time.Second,
			Strategy:         "exponential",
			ExponentialMult:  2,
			Jitter:           true,
			MaxTotalDuration: 600 * time.Second,
		},
		Circuit: CircuitConfig{
			FailureThreshold: 5,
			RecoveryTimeout:  30 * time.Second,
		},
		AgentLoop: AgentLoopConfig{MaxIterations: 10},
		Telemetry: TelemetryConfig{ServiceName: "agentcore"},
		Logging:   LoggingConfig{Level: "info", Format: "json"},
	}
}
