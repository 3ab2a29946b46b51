// Package retry implements the retry executor: classify, back off,
// and bound retries by attempt count or elapsed time.
package retry

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/agentcore/runtime/internal/classify"
	"github.com/agentcore/runtime/internal/obslog"
	"github.com/agentcore/runtime/internal/telemetry"
	"github.com/agentcore/runtime/pkg/canon"
)

// Strategy selects how the delay grows between attempts.
type Strategy string

const (
	Fixed       Strategy = "fixed"
	Linear      Strategy = "linear"
	Exponential Strategy = "exponential"
)

// Config parameterizes one retry executor instance. No state is shared
// between concurrent executors; each call gets its own clock.
type Config struct {
	MaxAttempts      int
	InitialDelay     time.Duration
	MaxDelay         time.Duration
	Strategy         Strategy
	LinearIncrement  time.Duration
	ExponentialMult  float64
	Jitter           bool
	MaxTotalDuration time.Duration

	// Rand supplies the jitter source; defaults to rand.Float64 when nil.
	// Tests inject a deterministic source for reproducible delays.
	Rand func() float64

	// Logger receives a warning before each backoff sleep; the terminal
	// outcome of the executor is not logged. Nil disables logging.
	Logger *obslog.Logger

	// Metrics, if set, records the executor's terminal outcome.
	Metrics *telemetry.Metrics
}

// DefaultConfig returns the default retry policy: 6 attempts, 4s
// initial delay, 240s cap, exponential x2, jitter on, 600s total budget.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:      6,
		InitialDelay:     4 * time.Second,
		MaxDelay:         240 * time.Second,
		Strategy:         Exponential,
		ExponentialMult:  2,
		Jitter:           true,
		MaxTotalDuration: 600 * time.Second,
	}
}

// Result describes how the retry executor concluded.
type Result struct {
	AttemptsMade       int
	MaxAttemptsReached bool
	MaxDurationReached bool
	Err                error
}

// Do invokes op until it succeeds, exhausts its budget, or fails with a
// non-retryable error. The attempt counter starts at 1.
func Do(ctx context.Context, cfg Config, op func(ctx context.Context) error) Result {
	start := time.Now()
	attempt := 0

	for {
		attempt++
		err := op(ctx)
		if err == nil {
			cfg.observe("succeeded")
			return Result{AttemptsMade: attempt}
		}

		if classify.Classify(err) != classify.Retryable {
			cfg.observe("non_retryable")
			return Result{AttemptsMade: attempt, Err: err}
		}

		if attempt >= cfg.MaxAttempts {
			cfg.observe("exhausted_attempts")
			return Result{AttemptsMade: attempt, MaxAttemptsReached: true, Err: err}
		}

		if cfg.MaxTotalDuration > 0 && time.Since(start) >= cfg.MaxTotalDuration {
			cfg.observe("exhausted_duration")
			return Result{AttemptsMade: attempt, MaxDurationReached: true, Err: err}
		}

		delay := computeDelay(cfg, attempt)
		if cfg.MaxTotalDuration > 0 {
			if remaining := cfg.MaxTotalDuration - time.Since(start); delay > remaining {
				delay = remaining
			}
		}

		if cfg.Logger != nil {
			cfg.Logger.Warn(ctx, friendlyMessage(err)+", retrying",
				"attempt", attempt, "max_attempts", cfg.MaxAttempts, "delay_ms", delay.Milliseconds())
		}

		select {
		case <-ctx.Done():
			cfg.observe("non_retryable")
			return Result{AttemptsMade: attempt, Err: ctx.Err()}
		case <-time.After(delay):
		}
	}
}

// observe records the executor's terminal outcome if Metrics is configured.
func (cfg Config) observe(outcome string) {
	if cfg.Metrics != nil {
		cfg.Metrics.ObserveRetryOutcome(outcome)
	}
}

// friendlyMessage paraphrases err for an operator-facing log line,
// falling back to the raw error text for kinds with no dedicated phrasing.
func friendlyMessage(err error) string {
	ce, ok := canon.GetCanonError(err)
	if !ok {
		return err.Error()
	}
	switch ce.Kind() {
	case canon.KindRateLimit, canon.KindThrottling:
		return "API rate limit exceeded"
	case canon.KindServiceUnavail:
		return "service temporarily unavailable"
	case canon.KindTimeout:
		return "request timed out"
	case canon.KindNetwork:
		return "network error contacting provider"
	default:
		return ce.Error()
	}
}

// DoWithValue is Do's generic counterpart for operations that also return a
// value on success.
func DoWithValue[T any](ctx context.Context, cfg Config, op func(ctx context.Context) (T, error)) (T, Result) {
	var val T
	result := Do(ctx, cfg, func(ctx context.Context) error {
		v, err := op(ctx)
		if err == nil {
			val = v
		}
		return err
	})
	return val, result
}

// computeDelay computes the delay before the given attempt number per the
// configured strategy, capped at MaxDelay and jittered by a
// uniform factor in [1.0, 1.25] when Jitter is enabled.
func computeDelay(cfg Config, attempt int) time.Duration {
	var delay time.Duration
	switch cfg.Strategy {
	case Linear:
		delay = cfg.InitialDelay + cfg.LinearIncrement*time.Duration(attempt-1)
	case Exponential:
		mult := cfg.ExponentialMult
		if mult <= 0 {
			mult = 2
		}
		delay = time.Duration(float64(cfg.InitialDelay) * math.Pow(mult, float64(attempt-1)))
	default: // Fixed
		delay = cfg.InitialDelay
	}

	if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}

	if cfg.Jitter {
		delay = ApplyJitter(delay, cfg.Rand)
	}

	return delay
}

// ApplyJitter multiplies delay by a uniform factor in [1.0, 1.25]. randFn
// defaults to rand.Float64 when nil, matching the injectable-random-value
// pattern used for deterministic backoff tests.
func ApplyJitter(delay time.Duration, randFn func() float64) time.Duration {
	if randFn == nil {
		randFn = rand.Float64
	}
	factor := 1.0 + 0.25*randFn()
	return time.Duration(float64(delay) * factor)
}
