// Package backoff provides the single bounded-retry policy shared by the
// readiness probe and the websocket reconnect loop.
package backoff

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

// Policy is a bounded retry loop with a fixed delay between attempts.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// Delay is the fixed wait between attempts.
	Delay time.Duration
}

// Do runs fn until it succeeds, aborts, or the attempt budget is spent.
// fn signals "try again" by returning Retryable(err); any other non-nil
// return aborts the loop immediately and is returned as-is.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	b := retry.WithMaxRetries(uint64(attempts-1), retry.NewConstant(p.Delay))
	return retry.Do(ctx, b, fn)
}

// Retryable marks err as transient so the policy schedules another attempt.
func Retryable(err error) error {
	return retry.RetryableError(err)
}
