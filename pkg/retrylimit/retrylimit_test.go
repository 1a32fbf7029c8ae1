package retrylimit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := WithRetryConfig(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, nil, fastConfig(5))

	if err != nil {
		t.Fatalf("WithRetryConfig: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestRetryGivesUpAtMaxAttempts(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := WithRetryConfig(context.Background(), func() error {
		calls++
		return boom
	}, nil, fastConfig(3))

	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestRetryStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := WithRetryConfig(ctx, func() error {
		calls++
		return errors.New("never seen")
	}, nil, fastConfig(3))

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if calls != 0 {
		t.Fatalf("calls = %d, want 0", calls)
	}
}

func TestAdaptiveLimiterAdjusts(t *testing.T) {
	lim := NewAdaptiveLimiter(4, 1, 10, 1, 0.5)

	lim.Failure()
	if got := lim.CurrentLimit(); got != 2 {
		t.Fatalf("limit after failure = %v, want 2", got)
	}
	lim.Failure()
	lim.Failure()
	if got := lim.CurrentLimit(); got != 1 {
		t.Fatalf("limit should not drop below the minimum, got %v", got)
	}
}
