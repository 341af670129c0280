//go:build unit

package backoff

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExponential(t *testing.T) {
	t.Parallel()

	assert.Equal(t, time.Duration(0), Exponential(0, 3))
	assert.Equal(t, 10*time.Millisecond, Exponential(10*time.Millisecond, -1))
	assert.Equal(t, 80*time.Millisecond, Exponential(10*time.Millisecond, 3))
	assert.Equal(t, time.Duration(math.MaxInt64), Exponential(time.Second, 100))
}

func TestFullJitterBounds(t *testing.T) {
	t.Parallel()

	assert.Equal(t, time.Duration(0), FullJitter(0))
	assert.Equal(t, time.Duration(0), FullJitter(-time.Second))

	for range 100 {
		d := FullJitter(10 * time.Millisecond)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.Less(t, d, 10*time.Millisecond)
	}
}

func TestSleepWithContext(t *testing.T) {
	t.Parallel()

	require.NoError(t, SleepWithContext(context.Background(), 0))
	require.NoError(t, SleepWithContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := SleepWithContext(ctx, 5*time.Second)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)

	assert.ErrorIs(t, SleepWithContext(ctx, 0), context.Canceled, "a done context wins even for zero waits")
}

func TestRetry(t *testing.T) {
	t.Parallel()

	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}

		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	boom := errors.New("down")
	calls = 0
	err = Retry(context.Background(), 2, time.Millisecond, func(context.Context) error {
		calls++
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestRetryStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, 5, time.Second, func(context.Context) error { return errors.New("x") })
	assert.ErrorIs(t, err, context.Canceled)
}
