package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errFlaky = errors.New("flaky dependency")

func retryAllClassifier(error) ErrorClassification {
	return ErrorClassification{Retryable: true, RecordFailure: true}
}

func newRetryOnlyExecutor(maxAttempts int) *Executor {
	return NewExecutor(Config{
		RetryMaxAttempts:    maxAttempts,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	})
}

func TestExecuteRetriesUntilSuccess(t *testing.T) {
	exec := newRetryOnlyExecutor(4)

	attempts := 0
	err := exec.Execute(context.Background(), "dep.call", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errFlaky
		}
		return nil
	}, retryAllClassifier)

	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestExecuteStopsOnNonRetryable(t *testing.T) {
	exec := newRetryOnlyExecutor(4)
	errBadInput := errors.New("bad input")

	attempts := 0
	err := exec.Execute(context.Background(), "dep.call", func(context.Context) error {
		attempts++
		return errBadInput
	}, func(error) ErrorClassification {
		return ErrorClassification{Retryable: false, RecordFailure: false}
	})

	if !errors.Is(err, errBadInput) {
		t.Fatalf("expected the original error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("non-retryable failure must not be retried, got %d attempts", attempts)
	}
}

func TestExecuteExhaustsAttemptsAndReturnsLastError(t *testing.T) {
	exec := newRetryOnlyExecutor(3)

	attempts := 0
	err := exec.Execute(context.Background(), "dep.call", func(context.Context) error {
		attempts++
		return errFlaky
	}, retryAllClassifier)

	if !errors.Is(err, errFlaky) {
		t.Fatalf("expected last error after exhaustion, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected exactly max attempts, got %d", attempts)
	}
}

func TestExecuteStopsRetryingOnCanceledContext(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    5,
		RetryInitialBackoff: time.Minute,
		RetryMaxBackoff:     time.Minute,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	})

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	start := time.Now()
	err := exec.Execute(ctx, "dep.call", func(context.Context) error {
		attempts++
		cancel()
		return errFlaky
	}, retryAllClassifier)

	if !errors.Is(err, errFlaky) {
		t.Fatalf("expected the dependency error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("canceled context must stop the loop, got %d attempts", attempts)
	}
	if time.Since(start) > time.Second {
		t.Fatal("cancellation must interrupt the backoff wait")
	}
}

func TestExecuteOpensCircuitPerOperation(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    1,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      true,
		BreakerMinRequests:  2,
		BreakerFailureRatio: 0.5,
		BreakerOpenTimeout:  time.Minute,
	})

	recordAll := func(error) ErrorClassification {
		return ErrorClassification{Retryable: false, RecordFailure: true}
	}
	fail := func(context.Context) error { return errFlaky }

	for i := 0; i < 2; i++ {
		if err := exec.Execute(context.Background(), "dep.broken", fail, recordAll); !errors.Is(err, errFlaky) {
			t.Fatalf("warm-up call %d: got %v", i, err)
		}
	}

	err := exec.Execute(context.Background(), "dep.broken", func(context.Context) error {
		t.Fatal("open circuit must not invoke the operation")
		return nil
	}, recordAll)
	if !IsCircuitOpen(err) {
		t.Fatalf("expected open-circuit error, got %v", err)
	}

	// Breakers are per operation name: a healthy dependency is not
	// affected by the broken one.
	if err := exec.Execute(context.Background(), "dep.healthy", func(context.Context) error {
		return nil
	}, recordAll); err != nil {
		t.Fatalf("unrelated operation must pass, got %v", err)
	}
}

func TestConfigNormalizeClampsInvalidValues(t *testing.T) {
	cfg := Config{
		RetryMaxAttempts:    -1,
		RetryInitialBackoff: 500 * time.Millisecond,
		RetryMaxBackoff:     100 * time.Millisecond,
		RetryMultiplier:     0.5,
		BreakerFailureRatio: 3,
	}.normalize()

	if cfg.RetryMaxAttempts != defaultRetryMaxAttempts {
		t.Fatalf("expected default max attempts, got %d", cfg.RetryMaxAttempts)
	}
	if cfg.RetryMaxBackoff != cfg.RetryInitialBackoff {
		t.Fatalf("max backoff must be raised to the initial backoff, got %v", cfg.RetryMaxBackoff)
	}
	if cfg.RetryMultiplier != defaultRetryMultiplier {
		t.Fatalf("expected default multiplier, got %v", cfg.RetryMultiplier)
	}
	if cfg.BreakerFailureRatio != defaultBreakerFailureRatio {
		t.Fatalf("expected default failure ratio, got %v", cfg.BreakerFailureRatio)
	}
}
