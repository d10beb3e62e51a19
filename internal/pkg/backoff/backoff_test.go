package backoff

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestDoSucceedsOnFinalAttempt(t *testing.T) {
	p := Policy{MaxAttempts: 3, Delay: time.Millisecond}

	calls := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return Retryable(fmt.Errorf("not yet"))
		}
		return nil
	})

	if err != nil {
		t.Errorf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestDoExhaustsBudget(t *testing.T) {
	p := Policy{MaxAttempts: 4, Delay: time.Millisecond}

	calls := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return Retryable(fmt.Errorf("always failing"))
	})

	if err == nil {
		t.Error("expected error after exhausting attempts")
	}
	if calls != 4 {
		t.Errorf("expected 4 attempts, got %d", calls)
	}
}

func TestDoAbortsOnNonRetryable(t *testing.T) {
	p := Policy{MaxAttempts: 10, Delay: time.Millisecond}

	calls := 0
	abort := fmt.Errorf("dead endpoint")
	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return abort
	})

	if err == nil || err.Error() != abort.Error() {
		t.Errorf("expected abort error to surface, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected a single attempt on abort, got %d", calls)
	}
}

func TestDoZeroAttemptsRunsOnce(t *testing.T) {
	p := Policy{MaxAttempts: 0, Delay: time.Millisecond}

	calls := 0
	_ = p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})

	if calls != 1 {
		t.Errorf("expected one attempt, got %d", calls)
	}
}
