package config

import (
	"github.com/agentcore/runtime/internal/circuit"
	"github.com/agentcore/runtime/internal/obslog"
	"github.com/agentcore/runtime/internal/provider/bedrock"
	"github.com/agentcore/runtime/internal/provider/openaicompat"
	"github.com/agentcore/runtime/internal/retry"
)

// ToRetryConfig converts the decoded RetryConfig into the executor's Config,
// defaulting Strategy to Exponential for any value this build doesn't
// recognize.
func (c RetryConfig) ToRetryConfig() retry.Config {
	strategy := retry.Exponential
	switch c.Strategy {
	case "fixed":
		strategy = retry.Fixed
	case "linear":
		strategy = retry.Linear
	case "exponential", "":
		strategy = retry.Exponential
	}
	return retry.Config{
		MaxAttempts:      c.MaxAttempts,
		InitialDelay:     c.InitialDelay,
		MaxDelay:         c.MaxDelay,
		Strategy:         strategy,
		ExponentialMult:  c.ExponentialMult,
		Jitter:           c.Jitter,
		MaxTotalDuration: c.MaxTotalDuration,
	}
}

// ToCircuitConfig converts the decoded CircuitConfig into a circuit.Config
// for the named breaker.
func (c CircuitConfig) ToCircuitConfig(name string, onStateChange func(from, to circuit.State)) circuit.Config {
	return circuit.Config{
		Name:             name,
		FailureThreshold: c.FailureThreshold,
		RecoveryTimeout:  c.RecoveryTimeout,
		OnStateChange:    onStateChange,
	}
}

// ToProviderConfig converts the decoded OpenAICompatConfig into the
// provider's own Config. logger may be nil.
func (c OpenAICompatConfig) ToProviderConfig(logger *obslog.Logger) openaicompat.Config {
	return openaicompat.Config{
		BaseURL:      c.BaseURL,
		APIKey:       c.APIKey,
		DefaultModel: c.DefaultModel,
		Timeout:      c.Timeout,
		Logger:       logger,
	}
}

// ToProviderConfig converts the decoded BedrockConfig into the provider's
// own Config. logger may be nil.
func (c BedrockConfig) ToProviderConfig(logger *obslog.Logger) bedrock.Config {
	return bedrock.Config{
		Region:          c.Region,
		AccessKeyID:     c.AccessKeyID,
		SecretAccessKey: c.SecretAccessKey,
		SessionToken:    c.SessionToken,
		Logger:          logger,
	}
}
