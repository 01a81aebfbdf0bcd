package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastPolicy() Policy {
	return Policy{
		Retry: RetryPolicy{
			MaxAttempts:    3,
			InitialBackoff: time.Millisecond,
			MaxBackoff:     2 * time.Millisecond,
			Multiplier:     2.0,
		},
	}
}

func TestRunRetriesRetryableErrors(t *testing.T) {
	runner := NewRunner(fastPolicy())

	attempts := 0
	err := runner.Run(context.Background(), "op", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	}, func(error) Outcome {
		return Outcome{Retryable: true, RecordFailure: true}
	})

	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestRunStopsOnNonRetryableError(t *testing.T) {
	runner := NewRunner(fastPolicy())

	attempts := 0
	wantErr := errors.New("bad input")
	err := runner.Run(context.Background(), "op", func(context.Context) error {
		attempts++
		return wantErr
	}, func(error) Outcome {
		return Outcome{Retryable: false, RecordFailure: false}
	})

	if !errors.Is(err, wantErr) {
		t.Fatalf("expected original error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected single attempt, got %d", attempts)
	}
}

func TestRunGivesUpAfterMaxAttempts(t *testing.T) {
	runner := NewRunner(fastPolicy())

	attempts := 0
	err := runner.Run(context.Background(), "op", func(context.Context) error {
		attempts++
		return errors.New("still down")
	}, func(error) Outcome {
		return Outcome{Retryable: true, RecordFailure: true}
	})

	if err == nil {
		t.Fatalf("expected error after exhausting attempts")
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestRunHonorsContextCancellation(t *testing.T) {
	runner := NewRunner(fastPolicy())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := runner.Run(ctx, "op", func(context.Context) error {
		attempts++
		return nil
	}, nil)

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
	if attempts != 0 {
		t.Fatalf("callback must not run after cancellation, got %d attempts", attempts)
	}
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	policy := fastPolicy()
	policy.Retry.MaxAttempts = 1
	policy.Breaker = BreakerPolicy{
		Enabled:      true,
		MinRequests:  3,
		FailureRatio: 0.5,
		OpenTimeout:  time.Minute,
	}
	runner := NewRunner(policy)

	classify := func(error) Outcome { return Outcome{Retryable: false, RecordFailure: true} }
	for i := 0; i < 3; i++ {
		_ = runner.Run(context.Background(), "op", func(context.Context) error {
			return errors.New("down")
		}, classify)
	}

	err := runner.Run(context.Background(), "op", func(context.Context) error {
		return nil
	}, classify)

	if !IsCircuitOpen(err) {
		t.Fatalf("expected open circuit, got %v", err)
	}
}
