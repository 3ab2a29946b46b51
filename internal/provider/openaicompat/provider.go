// Package openaicompat implements the Provider contract over any
// OpenAI-compatible HTTP server (LM Studio, and by extension vLLM/Ollama's
// OpenAI-shim endpoints), talking raw JSON over net/http rather than a
// vendored SDK client.
package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/agentcore/runtime/internal/obslog"
	"github.com/agentcore/runtime/internal/provider"
	"github.com/agentcore/runtime/internal/retry"
	"github.com/agentcore/runtime/pkg/canon"
)

// Config configures provider construction. BaseURL follows LM Studio's
// default local endpoint unless overridden.
type Config struct {
	BaseURL      string
	APIKey       string
	DefaultModel string
	Timeout      time.Duration
	RetryConfig  retry.Config

	// Logger receives structured warnings (e.g. malformed tool-call
	// arguments). A nil Logger defaults to the standard JSON logger.
	Logger *obslog.Logger
}

// Provider implements internal/provider.Provider over an OpenAI-compatible
// HTTP server. It holds no per-call state on the receiver.
type Provider struct {
	client      *http.Client
	baseURL     string
	apiKey      string
	defaultMdl  string
	retryConfig retry.Config
	logger      *obslog.Logger

	lastRawRequest atomicBytes
}

// New constructs an OpenAI-compatible provider.
func New(cfg Config) *Provider {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "http://localhost:1234"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	rc := cfg.RetryConfig
	if rc.MaxAttempts == 0 {
		rc = DefaultRetryConfig()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = obslog.New(obslog.Config{})
	}
	return &Provider{
		client:      &http.Client{Timeout: timeout},
		baseURL:     baseURL,
		apiKey:      cfg.APIKey,
		defaultMdl:  strings.TrimSpace(cfg.DefaultModel),
		retryConfig: rc,
		logger:      logger,
	}
}

// DefaultRetryConfig is the provider-local retry policy: 3 attempts,
// 1s initial delay, 30s cap, exponential x2, jitter on. This is deliberately
// a separate config from internal/retry.DefaultConfig, which tunes for a
// remote cloud backend rather than a local inference server.
func DefaultRetryConfig() retry.Config {
	return retry.Config{
		MaxAttempts:     3,
		InitialDelay:    1 * time.Second,
		MaxDelay:        30 * time.Second,
		Strategy:        retry.Exponential,
		ExponentialMult: 2,
		Jitter:          true,
	}
}

// healthCheckRetryConfig is the conservative 1-retry policy health checks
// use, retrying only on connection/timeout errors.
func healthCheckRetryConfig() retry.Config {
	return retry.Config{
		MaxAttempts:  2,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Strategy:     retry.Fixed,
		Jitter:       false,
	}
}

// ProviderType implements provider.Provider.
func (p *Provider) ProviderType() provider.Type { return provider.TypeOpenAICompat }

// SupportedModels implements provider.Provider. An OpenAI-compatible server
// serves whatever model it was launched with; the only model this provider
// can name in advance is the configured default.
func (p *Provider) SupportedModels() []string {
	if p.defaultMdl == "" {
		return nil
	}
	return []string{p.defaultMdl}
}

// Capabilities implements provider.Provider.
func (p *Provider) Capabilities() provider.Capabilities {
	return provider.Capabilities{
		SupportsStreaming: true,
		SupportsTools:     true,
		SupportsThinking:  false,
		SupportsVision:    false,
		AvailableModels:   p.SupportedModels(),
	}
}

// HealthCheck implements provider.Provider with a conservative retry policy
// that only retries connection/timeout failures.
func (p *Provider) HealthCheck(ctx context.Context) provider.HealthStatus {
	start := time.Now()
	model := p.resolveModel("")

	result := retry.Do(ctx, healthCheckRetryConfig(), func(ctx context.Context) error {
		_, err := p.doChat(ctx, model, []canon.Message{canon.NewMessage(canon.RoleUser, canon.Text("ping"))}, nil, canon.ChatConfig{MaxTokens: intPtr(1)})
		if err != nil && !isConnectionOrTimeout(err) {
			// Non-connection failures (e.g. 400 from an unknown model) still
			// indicate the server is reachable.
			return nil
		}
		return err
	})

	latency := time.Since(start).Milliseconds()
	if result.Err != nil {
		return provider.HealthStatus{Healthy: false, LatencyMS: &latency, Error: result.Err.Error()}
	}
	return provider.HealthStatus{Healthy: true, LatencyMS: &latency}
}

// Chat implements provider.Provider.
func (p *Provider) Chat(ctx context.Context, modelID string, messages []canon.Message, cfg canon.ChatConfig) (canon.ChatResponse, error) {
	return p.ChatWithTools(ctx, modelID, messages, nil, cfg)
}

// ChatWithTools implements provider.Provider, wrapping the HTTP round trip
// in the provider-local retry executor.
func (p *Provider) ChatWithTools(ctx context.Context, modelID string, messages []canon.Message, tools []canon.ToolSpec, cfg canon.ChatConfig) (canon.ChatResponse, error) {
	model := p.resolveModel(modelID)
	resp, retryResult := retry.DoWithValue(ctx, p.retryConfig, func(ctx context.Context) (canon.ChatResponse, error) {
		return p.doChat(ctx, model, messages, tools, cfg)
	})
	if retryResult.Err != nil {
		return canon.ChatResponse{}, retryResult.Err
	}
	return resp, nil
}

func (p *Provider) doChat(ctx context.Context, model string, messages []canon.Message, tools []canon.ToolSpec, cfg canon.ChatConfig) (canon.ChatResponse, error) {
	req := buildRequest(model, messages, tools, cfg, false)
	body, err := json.Marshal(req)
	if err != nil {
		return canon.ChatResponse{}, canon.NewSerializationError("encode openai-compat request", err)
	}
	p.lastRawRequest.store(body)

	resp, err := p.post(ctx, body)
	if err != nil {
		return canon.ChatResponse{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return canon.ChatResponse{}, canon.NewNetworkError("read openai-compat response", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return canon.ChatResponse{}, wrapHTTPError(resp.StatusCode, raw)
	}

	return parseResponse(ctx, raw, p.logger)
}

func (p *Provider) post(ctx context.Context, body []byte) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, canon.NewNetworkError("build openai-compat request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, wrapTransportError(err)
	}
	return resp, nil
}

func (p *Provider) resolveModel(modelID string) string {
	if modelID != "" {
		return modelID
	}
	return p.defaultMdl
}

func isConnectionOrTimeout(err error) bool {
	if err == nil {
		return false
	}
	ce, ok := canon.GetCanonError(err)
	if !ok {
		return false
	}
	return ce.Kind() == canon.KindNetwork || ce.Kind() == canon.KindTimeout || ce.Kind() == canon.KindServiceUnavail
}

func intPtr(v int) *int { return &v }
