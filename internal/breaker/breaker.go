// Package breaker implements a circuit breaker guarding calls to an
// unreliable outbound transport.
package breaker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// State of the circuit.
type State int

const (
	// StateClosed passes calls through.
	StateClosed State = iota
	// StateOpen rejects calls without attempting the operation.
	StateOpen
	// StateHalfOpen admits a single trial call after the recovery timeout.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrOpen is returned when a call is rejected without being attempted.
var ErrOpen = errors.New("circuit breaker is open")

// ErrTimeout is returned when the wrapped call exceeds the per-call timeout.
var ErrTimeout = errors.New("circuit breaker call timed out")

// Options tune breaker behaviour.
type Options struct {
	Name             string
	FailureThreshold int
	RecoveryTimeout  time.Duration
	CallTimeout      time.Duration
}

// Breaker is safe for concurrent use; a single mutex serialises state
// transitions so concurrent failures cannot race past the threshold.
type Breaker struct {
	opts   Options
	logger zerolog.Logger

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	trial    bool

	now func() time.Time
}

// New constructs a Breaker in the closed state.
func New(opts Options, logger zerolog.Logger) *Breaker {
	if opts.FailureThreshold <= 0 {
		opts.FailureThreshold = 3
	}
	if opts.RecoveryTimeout <= 0 {
		opts.RecoveryTimeout = 5 * time.Minute
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 30 * time.Second
	}
	if opts.Name == "" {
		opts.Name = "default"
	}
	return &Breaker{
		opts:   opts,
		logger: logger.With().Str("component", "breaker").Str("breaker", opts.Name).Logger(),
		state:  StateClosed,
		now:    time.Now,
	}
}

// Do runs fn through the breaker. When the circuit is open the call is
// rejected immediately with ErrOpen and fn is never invoked. The call is
// bounded by the configured per-call timeout; exceeding it counts as a
// failure even though the underlying operation may still be running.
func (b *Breaker) Do(ctx context.Context, fn func(context.Context) error) error {
	if err := b.admit(); err != nil {
		return err
	}

	err := b.call(ctx, fn)
	b.record(err)
	return err
}

func (b *Breaker) call(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, b.opts.CallTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- fn(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w after %s", ErrTimeout, b.opts.CallTimeout)
		}
		return ctx.Err()
	}
}

// admit decides whether the caller may proceed, performing the
// open -> half-open transition when the recovery timeout has elapsed.
// In half-open only one trial call is admitted at a time.
func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return nil
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.opts.RecoveryTimeout {
			return ErrOpen
		}
		b.state = StateHalfOpen
		b.trial = true
		b.logger.Info().Msg("circuit breaker half-open, admitting trial call")
		return nil
	case StateHalfOpen:
		if b.trial {
			return ErrOpen
		}
		b.trial = true
		return nil
	default:
		return ErrOpen
	}
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		if b.state == StateHalfOpen {
			b.logger.Info().Msg("trial call succeeded, closing circuit breaker")
		}
		b.state = StateClosed
		b.failures = 0
		b.trial = false
		return
	}

	b.failures++
	switch b.state {
	case StateHalfOpen:
		b.state = StateOpen
		b.openedAt = b.now()
		b.trial = false
		b.logger.Warn().Err(err).Msg("trial call failed, reopening circuit breaker")
	case StateClosed:
		if b.failures >= b.opts.FailureThreshold {
			b.state = StateOpen
			b.openedAt = b.now()
			b.logger.Warn().Err(err).
				Int("failures", b.failures).
				Int("threshold", b.opts.FailureThreshold).
				Msg("failure threshold reached, opening circuit breaker")
		}
	}
}

// State returns the current circuit state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Report half-open once the recovery timeout has elapsed so that
	// availability checks do not refuse a breaker that would admit a trial.
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.opts.RecoveryTimeout {
		return StateHalfOpen
	}
	return b.state
}

// Failures returns the consecutive failure count.
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

// Reset forces the breaker back to closed. Intended for operators.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failures = 0
	b.trial = false
	b.logger.Info().Msg("circuit breaker manually reset")
}
