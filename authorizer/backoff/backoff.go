package backoff

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

const maxShift = 62

// Exponential returns base * 2^attempt, saturating instead of overflowing.
func Exponential(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}

	attempt = min(max(attempt, 0), maxShift)
	multiplier := int64(1) << attempt

	if int64(base) > math.MaxInt64/multiplier {
		return time.Duration(math.MaxInt64)
	}

	return base * time.Duration(multiplier)
}

// FullJitter returns a random duration in [0, delay).
func FullJitter(delay time.Duration) time.Duration {
	if delay <= 0 {
		return 0
	}

	return time.Duration(rand.Int64N(int64(delay))) // #nosec G404 -- jitter, not security
}

// ExponentialWithJitter is the AWS "full jitter" strategy.
func ExponentialWithJitter(base time.Duration, attempt int) time.Duration {
	return FullJitter(Exponential(base, attempt))
}

// SleepWithContext waits for d or until ctx is done. It returns the context
// error wrapped when interrupted, and nil immediately for d <= 0 unless ctx
// is already done.
func SleepWithContext(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context done: %w", err)
	}

	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("context done: %w", ctx.Err())
	}
}

// Retry calls fn up to attempts times, sleeping ExponentialWithJitter(base, n)
// between calls. It returns nil on the first success, the last error
// otherwise, or the context error if ctx ends while waiting.
func Retry(ctx context.Context, attempts int, base time.Duration, fn func(ctx context.Context) error) error {
	var err error

	for attempt := range max(attempts, 1) {
		if attempt > 0 {
			if sleepErr := SleepWithContext(ctx, ExponentialWithJitter(base, attempt-1)); sleepErr != nil {
				return sleepErr
			}
		}

		if err = fn(ctx); err == nil {
			return nil
		}
	}

	return err
}
