package breaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

var errTransport = errors.New("transport down")

func newTestBreaker(threshold int, recovery time.Duration) (*Breaker, *time.Time) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	b := New(Options{
		Name:             "test",
		FailureThreshold: threshold,
		RecoveryTimeout:  recovery,
		CallTimeout:      time.Second,
	}, zerolog.Nop())
	b.now = func() time.Time { return now }
	return b, &now
}

func fail(context.Context) error { return errTransport }

func ok(context.Context) error { return nil }

func TestOpensAfterThreshold(t *testing.T) {
	b, _ := newTestBreaker(3, 5*time.Minute)

	for i := 0; i < 3; i++ {
		if err := b.Do(context.Background(), fail); !errors.Is(err, errTransport) {
			t.Fatalf("call %d: %v", i+1, err)
		}
	}
	if got := b.State(); got != StateOpen {
		t.Fatalf("expected open, got %s", got)
	}

	// Open circuit fails fast without invoking the operation.
	called := false
	err := b.Do(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrOpen) {
		t.Fatalf("expected ErrOpen, got %v", err)
	}
	if called {
		t.Fatal("operation must not run while circuit is open")
	}
}

func TestHalfOpenSingleTrialThenClose(t *testing.T) {
	b, now := newTestBreaker(1, 5*time.Minute)

	if err := b.Do(context.Background(), fail); !errors.Is(err, errTransport) {
		t.Fatalf("seed failure: %v", err)
	}
	if b.State() != StateOpen {
		t.Fatalf("expected open, got %s", b.State())
	}

	*now = now.Add(5 * time.Minute)
	if b.State() != StateHalfOpen {
		t.Fatalf("expected half-open after recovery timeout, got %s", b.State())
	}

	if err := b.Do(context.Background(), ok); err != nil {
		t.Fatalf("trial call should succeed: %v", err)
	}
	if b.State() != StateClosed {
		t.Fatalf("expected closed after successful trial, got %s", b.State())
	}
	if b.Failures() != 0 {
		t.Fatalf("failure count should reset, got %d", b.Failures())
	}
}

func TestHalfOpenFailureReopens(t *testing.T) {
	b, now := newTestBreaker(1, time.Minute)

	_ = b.Do(context.Background(), fail)
	*now = now.Add(time.Minute)

	if err := b.Do(context.Background(), fail); !errors.Is(err, errTransport) {
		t.Fatalf("trial failure: %v", err)
	}
	if b.State() != StateOpen {
		t.Fatalf("expected reopened circuit, got %s", b.State())
	}

	// The recovery timer restarts from the trial failure.
	if err := b.Do(context.Background(), ok); !errors.Is(err, ErrOpen) {
		t.Fatalf("expected ErrOpen inside new recovery window, got %v", err)
	}
}

func TestHalfOpenAdmitsOnlyOneTrial(t *testing.T) {
	b, now := newTestBreaker(1, time.Minute)

	_ = b.Do(context.Background(), fail)
	*now = now.Add(time.Minute)

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = b.Do(context.Background(), func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	// A second caller during the in-flight trial is rejected.
	if err := b.Do(context.Background(), ok); !errors.Is(err, ErrOpen) {
		t.Fatalf("second caller should be rejected, got %v", err)
	}
	close(release)
}

func TestCallTimeoutCountsAsFailure(t *testing.T) {
	b := New(Options{
		Name:             "slow",
		FailureThreshold: 1,
		RecoveryTimeout:  time.Minute,
		CallTimeout:      20 * time.Millisecond,
	}, zerolog.Nop())

	err := b.Do(context.Background(), func(ctx context.Context) error {
		select {
		case <-time.After(time.Second):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if b.State() != StateOpen {
		t.Fatalf("timeout should count as failure, state %s", b.State())
	}
}

func TestSuccessResetsFailureCount(t *testing.T) {
	b, _ := newTestBreaker(3, time.Minute)

	_ = b.Do(context.Background(), fail)
	_ = b.Do(context.Background(), fail)
	if err := b.Do(context.Background(), ok); err != nil {
		t.Fatalf("success: %v", err)
	}
	if b.Failures() != 0 {
		t.Fatalf("failures should reset on success, got %d", b.Failures())
	}
	if b.State() != StateClosed {
		t.Fatalf("expected closed, got %s", b.State())
	}
}

func TestReset(t *testing.T) {
	b, _ := newTestBreaker(1, time.Hour)
	_ = b.Do(context.Background(), fail)
	b.Reset()
	if b.State() != StateClosed {
		t.Fatalf("expected closed after reset, got %s", b.State())
	}
}
