// Package bedrock implements the Provider contract over AWS Bedrock's raw
// InvokeModel / InvokeModelWithResponseStream APIs, multiplexing the
// Claude and Nova wire formats on model_id.
package bedrock

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/agentcore/runtime/internal/obslog"
	"github.com/agentcore/runtime/internal/provider"
	"github.com/agentcore/runtime/internal/provider/usageest"
	"github.com/agentcore/runtime/pkg/canon"
)

// Config configures provider construction; credentials and region follow
// the AWS default chain unless explicit values are given.
type Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string

	// Logger receives structured warnings (e.g. malformed tool-call JSON
	// during streaming). A nil Logger defaults to the standard JSON logger.
	Logger *obslog.Logger
}

// Provider implements internal/provider.Provider over AWS Bedrock. It holds
// no per-call state on the receiver: every method is reentrant.
type Provider struct {
	client *bedrockruntime.Client
	region string
	logger *obslog.Logger

	// lastRawRequest backs the downcast hook for provider-specific
	// diagnostics; it is written best-effort and never read for control
	// flow.
	lastRawRequest atomicBytes
}

// New constructs a Bedrock provider, loading AWS credentials per cfg.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	var opts []func(*config.LoadOptions) error
	opts = append(opts, config.WithRegion(region))
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken,
		)))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, canon.NewConfigurationError("load AWS config: " + err.Error())
	}

	logger := cfg.Logger
	if logger == nil {
		logger = obslog.New(obslog.Config{})
	}

	return &Provider{client: bedrockruntime.NewFromConfig(awsCfg), region: region, logger: logger}, nil
}

// ProviderType implements provider.Provider.
func (p *Provider) ProviderType() provider.Type { return provider.TypeBedrock }

// SupportedModels implements provider.Provider.
func (p *Provider) SupportedModels() []string {
	return []string{
		"anthropic.claude-3-opus-20240229-v1:0",
		"anthropic.claude-3-sonnet-20240229-v1:0",
		"anthropic.claude-3-haiku-20240307-v1:0",
		"anthropic.claude-3-5-sonnet-20240620-v1:0",
		"amazon.nova-pro-v1:0",
		"amazon.nova-lite-v1:0",
		"amazon.nova-micro-v1:0",
	}
}

// Capabilities implements provider.Provider.
func (p *Provider) Capabilities() provider.Capabilities {
	max := defaultMaxTokens
	return provider.Capabilities{
		SupportsStreaming: true,
		SupportsTools:     true,
		SupportsThinking:  false,
		SupportsVision:    false,
		MaxTokens:         &max,
		AvailableModels:   p.SupportedModels(),
	}
}

// HealthCheck implements provider.Provider by issuing a minimal unary call.
func (p *Provider) HealthCheck(ctx context.Context) provider.HealthStatus {
	start := time.Now()
	_, err := p.Chat(ctx, "anthropic.claude-3-haiku-20240307-v1:0",
		[]canon.Message{canon.NewMessage(canon.RoleUser, canon.Text("ping"))},
		canon.ChatConfig{MaxTokens: intPtr(8)})
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return provider.HealthStatus{Healthy: false, LatencyMS: &latency, Error: err.Error()}
	}
	return provider.HealthStatus{Healthy: true, LatencyMS: &latency}
}

// Chat implements provider.Provider.
func (p *Provider) Chat(ctx context.Context, modelID string, messages []canon.Message, cfg canon.ChatConfig) (canon.ChatResponse, error) {
	return p.ChatWithTools(ctx, modelID, messages, nil, cfg)
}

// ChatWithTools implements provider.Provider.
func (p *Provider) ChatWithTools(ctx context.Context, modelID string, messages []canon.Message, tools []canon.ToolSpec, cfg canon.ChatConfig) (canon.ChatResponse, error) {
	fam := detectFamily(modelID)
	if fam == familyUnknown {
		return canon.ChatResponse{}, canon.NewModelNotFound(modelID, string(provider.TypeBedrock))
	}

	var body []byte
	var err error
	switch fam {
	case familyClaude:
		body, err = json.Marshal(buildClaudeRequest(messages, tools, cfg))
	case familyNova:
		body, err = json.Marshal(buildNovaRequest(messages, tools, cfg))
	}
	if err != nil {
		return canon.ChatResponse{}, canon.NewSerializationError("encode bedrock request", err)
	}
	p.lastRawRequest.store(body)

	out, err := p.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return canon.ChatResponse{}, wrapError(err, modelID)
	}

	switch fam {
	case familyClaude:
		return parseClaudeResponse(out.Body)
	default:
		return parseNovaResponse(out.Body)
	}
}

// ChatStreaming implements provider.Provider.
func (p *Provider) ChatStreaming(ctx context.Context, modelID string, messages []canon.Message, cfg canon.ChatConfig) (<-chan canon.StreamEvent, error) {
	return p.ChatStreamingWithTools(ctx, modelID, messages, nil, cfg)
}

// ChatStreamingWithTools implements provider.Provider, running the
// unified streaming state machine over the raw Bedrock event stream.
func (p *Provider) ChatStreamingWithTools(ctx context.Context, modelID string, messages []canon.Message, tools []canon.ToolSpec, cfg canon.ChatConfig) (<-chan canon.StreamEvent, error) {
	fam := detectFamily(modelID)
	if fam == familyUnknown {
		return nil, canon.NewModelNotFound(modelID, string(provider.TypeBedrock))
	}

	var body []byte
	var err error
	switch fam {
	case familyClaude:
		body, err = json.Marshal(buildClaudeRequest(messages, tools, cfg))
	case familyNova:
		body, err = json.Marshal(buildNovaRequest(messages, tools, cfg))
	}
	if err != nil {
		return nil, canon.NewSerializationError("encode bedrock request", err)
	}
	p.lastRawRequest.store(body)

	out, err := p.client.InvokeModelWithResponseStream(ctx, &bedrockruntime.InvokeModelWithResponseStreamInput{
		ModelId:     aws.String(modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, wrapError(err, modelID)
	}

	events := make(chan canon.StreamEvent)
	go p.pumpStream(ctx, out, events)
	return events, nil
}

func (p *Provider) pumpStream(ctx context.Context, out *bedrockruntime.InvokeModelWithResponseStreamOutput, events chan<- canon.StreamEvent) {
	defer close(events)

	stream := out.GetStream()
	defer stream.Close()

	state := &streamState{ctx: ctx, logger: p.logger}
	var totalText string
	toolsSeen := false
	doneEmitted := false

	emitDone := func() {
		if doneEmitted {
			return
		}
		doneEmitted = true
		usage := usageest.Estimate(totalText, toolsSeen)
		events <- canon.DoneEvent(&usage)
	}

	for {
		select {
		case <-ctx.Done():
			events <- canon.ErrorEvent(ctx.Err())
			emitDone()
			return
		case raw, ok := <-stream.Events():
			if !ok {
				if err := stream.Err(); err != nil {
					events <- canon.ErrorEvent(wrapError(err, ""))
				}
				emitDone()
				return
			}
			chunk, ok := raw.(*types.ResponseStreamMemberChunk)
			if !ok {
				continue
			}
			for _, ev := range state.processChunk(chunk.Value.Bytes) {
				if ev.Kind == canon.EventContentDelta {
					totalText += ev.ContentDelta
				}
				if ev.Kind == canon.EventToolCallStart {
					toolsSeen = true
				}
				events <- ev
			}
		}
	}
}

func intPtr(v int) *int { return &v }

var _ provider.Provider = (*Provider)(nil)
