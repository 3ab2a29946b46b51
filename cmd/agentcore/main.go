// Package main provides the agentcore CLI: a demo harness driving the
// provider-agnostic agent runtime (canonical messages, retry/circuit/
// recovery, and the turn loop) against either provider backend.
//
// # Basic Usage
//
// Run one turn against the OpenAI-compatible backend (e.g. LM Studio):
//
//	agentcore run --provider openai_compat --model local-model "what is 23*47?"
//
// Check a provider's reachability:
//
//	agentcore health --provider openai_compat
//
// # Configuration
//
// Defaults come from config.Default(); pass --config to load a YAML file
// instead. Fields a config file leaves blank fall back to environment
// variables:
//
//   - LM_STUDIO_BASE_URL, LM_STUDIO_API_KEY, LM_STUDIO_DEFAULT_MODEL
//   - AWS_REGION, AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY, AWS_SESSION_TOKEN
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentcore/runtime/internal/agentloop"
	"github.com/agentcore/runtime/internal/circuit"
	"github.com/agentcore/runtime/internal/config"
	"github.com/agentcore/runtime/internal/conversation"
	"github.com/agentcore/runtime/internal/obslog"
	"github.com/agentcore/runtime/internal/provider"
	"github.com/agentcore/runtime/internal/providerboot"
	"github.com/agentcore/runtime/internal/telemetry"
	"github.com/agentcore/runtime/pkg/canon"
)

// Build information, populated by ldflags during release builds.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	logger := obslog.New(obslog.Config{Level: "info", Format: "json", Output: os.Stderr})

	rootCmd := buildRootCmd(logger)
	if err := rootCmd.Execute(); err != nil {
		logger.Error(context.Background(), "command failed", "error", err)
		os.Exit(1)
	}
}

func buildRootCmd(logger *obslog.Logger) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "agentcore",
		Short:        "agentcore - provider-agnostic LLM agent runtime",
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("config", "", "path to a YAML config file (default: built-in defaults)")

	rootCmd.AddCommand(
		buildRunCmd(logger),
		buildHealthCmd(logger),
		buildProvidersCmd(),
	)
	return rootCmd
}

// loadConfig resolves the --config flag, falling back to config.Default()
// when unset.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if strings.TrimSpace(path) == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// buildProvidersCmd lists the provider types this build registers.
func buildProvidersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List registered provider types",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), provider.TypeBedrock)
			fmt.Fprintln(cmd.OutOrStdout(), provider.TypeOpenAICompat)
			return nil
		},
	}
}

func buildHealthCmd(logger *obslog.Logger) *cobra.Command {
	var providerFlag string
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check a provider backend's reachability",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			registry := provider.NewRegistry()
			providerboot.Configure(registry, cfg.Providers, logger)

			p, err := registry.GetProvider(provider.Type(providerFlag))
			if err != nil {
				return fmt.Errorf("resolve provider %q: %w", providerFlag, err)
			}

			logger.Info(cmd.Context(), "checking provider health", "provider", providerFlag)
			status := p.HealthCheck(cmd.Context())
			if !status.Healthy {
				return fmt.Errorf("provider %q unhealthy: %s", providerFlag, status.Error)
			}
			latency := "unknown"
			if status.LatencyMS != nil {
				latency = fmt.Sprintf("%dms", *status.LatencyMS)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: healthy (latency=%s)\n", providerFlag, latency)
			return nil
		},
	}
	cmd.Flags().StringVar(&providerFlag, "provider", string(provider.TypeOpenAICompat), "provider type (bedrock|openai_compat)")
	return cmd
}

func buildRunCmd(logger *obslog.Logger) *cobra.Command {
	var (
		providerFlag    string
		modelFlag       string
		maxTokensFlag   int
		temperatureFlag float64
		maxTurnsFlag    int
	)

	cmd := &cobra.Command{
		Use:   "run [message]",
		Short: "Run one agent turn and print the final response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userText := strings.TrimSpace(args[0])

			cfg, err := loadConfig(cmd)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			registry := provider.NewRegistry()
			providerboot.Configure(registry, cfg.Providers, logger)

			p, err := registry.GetProvider(provider.Type(providerFlag))
			if err != nil {
				return fmt.Errorf("resolve provider %q: %w", providerFlag, err)
			}

			conv := conversation.New(cfg.Conversation.MaxMessages, cfg.Conversation.MaxTokens)
			loop := agentloop.New(p, nil, nil)
			loop.Logger = logger
			loop.Metrics = telemetry.NewMetrics()
			loop.Tracer = telemetry.NewTracer(cfg.Telemetry.ServiceName)
			loop.Breaker = circuit.New(cfg.Circuit.ToCircuitConfig("provider."+providerFlag, func(from, to circuit.State) {
				loop.Metrics.ObserveCircuitTransition("provider."+providerFlag, from, to)
			}))
			if cfg.Retry.MaxAttempts > 0 {
				loop.Config.RetryConfig = cfg.Retry.ToRetryConfig()
			}
			if cfg.AgentLoop.MaxIterations > 0 {
				loop.Config.MaxIterations = cfg.AgentLoop.MaxIterations
			}

			chatCfg := canon.ChatConfig{ModelID: modelFlag}
			if temperatureFlag > 0 {
				chatCfg.Temperature = &temperatureFlag
			}
			if maxTokensFlag > 0 {
				chatCfg.MaxTokens = &maxTokensFlag
			}
			if maxTurnsFlag > 0 {
				loop.Config.MaxIterations = maxTurnsFlag
			}

			resp, err := loop.RunTurn(cmd.Context(), conv, modelFlag, userText, chatCfg)
			if err != nil {
				return fmt.Errorf("run turn: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), resp.Content)
			return nil
		},
	}

	cmd.Flags().StringVar(&providerFlag, "provider", string(provider.TypeOpenAICompat), "provider type (bedrock|openai_compat)")
	cmd.Flags().StringVar(&modelFlag, "model", "", "model identifier")
	cmd.Flags().IntVar(&maxTokensFlag, "max-tokens", 0, "max output tokens (0 = provider default)")
	cmd.Flags().Float64Var(&temperatureFlag, "temperature", 0, "sampling temperature (0 = provider default)")
	cmd.Flags().IntVar(&maxTurnsFlag, "max-turns", 0, "max turn-loop iterations (0 = agentloop/config default)")
	return cmd
}
