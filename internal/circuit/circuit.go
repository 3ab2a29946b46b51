// Package circuit implements the circuit breaker: a guard around a
// logical endpoint that opens after a run of failures, then admits exactly
// one probe at a time while recovering.
package circuit

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State names a circuit breaker state.
type State string

const (
	Closed   State = "closed"
	Open     State = "open"
	HalfOpen State = "half-open"
)

// ErrOpen is returned when a call is short-circuited because the breaker is
// Open, or because HalfOpen already has a probe in flight.
var ErrOpen = errors.New("circuit breaker is open")

// Config configures a Breaker.
type Config struct {
	Name             string
	FailureThreshold int
	RecoveryTimeout  time.Duration
	OnStateChange    func(from, to State)
}

// Breaker implements the Closed -> Open -> HalfOpen state machine. HalfOpen
// admits exactly one probe at a time, the one place this runtime
// deliberately diverges from a looser "N successes to close" half-open
// policy.
type Breaker struct {
	config Config

	mu               sync.Mutex
	state            State
	failures         int
	openedAt         time.Time
	halfOpenInFlight bool
}

// New creates a Breaker with the given config. A zero FailureThreshold
// defaults to 5; a zero RecoveryTimeout defaults to 30s.
func New(config Config) *Breaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.RecoveryTimeout <= 0 {
		config.RecoveryTimeout = 30 * time.Second
	}
	return &Breaker{config: config, state: Closed}
}

// Execute runs fn with circuit breaker protection.
func (b *Breaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := b.admit(); err != nil {
		return err
	}
	err := fn(ctx)
	b.recordResult(err)
	return err
}

// ExecuteWithResult is Execute's generic counterpart for functions that also
// return a value.
func ExecuteWithResult[T any](b *Breaker, ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := b.admit(); err != nil {
		return zero, err
	}
	result, err := fn(ctx)
	b.recordResult(err)
	return result, err
}

// admit decides whether a call may proceed, transitioning Open -> HalfOpen
// when the recovery timeout has elapsed and claiming the single HalfOpen
// probe slot if one is free.
func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		return nil

	case Open:
		if time.Since(b.openedAt) < b.config.RecoveryTimeout {
			return ErrOpen
		}
		b.transitionTo(HalfOpen)
		b.halfOpenInFlight = true
		return nil

	case HalfOpen:
		if b.halfOpenInFlight {
			return ErrOpen
		}
		b.halfOpenInFlight = true
		return nil

	default:
		return nil
	}
}

func (b *Breaker) recordResult(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	wasHalfOpenProbe := b.state == HalfOpen
	if wasHalfOpenProbe {
		b.halfOpenInFlight = false
	}

	if err != nil {
		b.failures++
		switch b.state {
		case Closed:
			if b.failures >= b.config.FailureThreshold {
				b.transitionTo(Open)
			}
		case HalfOpen:
			b.transitionTo(Open)
		}
		return
	}

	switch b.state {
	case Closed:
		b.failures = 0
	case HalfOpen:
		b.failures = 0
		b.transitionTo(Closed)
	}
}

func (b *Breaker) transitionTo(newState State) {
	old := b.state
	b.state = newState
	if newState == Open {
		b.openedAt = time.Now()
		b.failures = 0
	}
	if b.config.OnStateChange != nil && old != newState {
		go b.config.OnStateChange(old, newState)
	}
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Reset forces the breaker back to Closed.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = Closed
	b.failures = 0
	b.halfOpenInFlight = false
}

// Registry manages named circuit breakers, lazily constructing one per
// name on first use (race-free, double-checked locking).
type Registry struct {
	mu       sync.RWMutex
	breakers map[string]*Breaker
	defaults Config
}

// NewRegistry creates a Registry using defaults for any breaker constructed
// via Get.
func NewRegistry(defaults Config) *Registry {
	return &Registry{breakers: make(map[string]*Breaker), defaults: defaults}
}

// Get returns the named breaker, constructing it with the registry's
// defaults on first use.
func (r *Registry) Get(name string) *Breaker {
	r.mu.RLock()
	b, ok := r.breakers[name]
	r.mu.RUnlock()
	if ok {
		return b
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.breakers[name]; ok {
		return b
	}
	cfg := r.defaults
	cfg.Name = name
	b = New(cfg)
	r.breakers[name] = b
	return b
}

// GetWithConfig returns the named breaker, constructing it with cfg if it
// does not already exist.
func (r *Registry) GetWithConfig(name string, cfg Config) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.breakers[name]; ok {
		return b
	}
	cfg.Name = name
	b := New(cfg)
	r.breakers[name] = b
	return b
}
