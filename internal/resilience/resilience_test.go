package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func TestCircuitBreaker(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker("test", 2, 10*time.Second)
	cb.now = func() time.Time { return now }

	fail := func() error { return errBoom }
	ok := func() error { return nil }

	require.ErrorIs(t, cb.Do(fail), errBoom)
	require.Equal(t, StateClosed, cb.State())

	require.ErrorIs(t, cb.Do(fail), errBoom)
	require.Equal(t, StateOpen, cb.State())

	calls := 0
	err := cb.Do(func() error { calls++; return nil })
	require.ErrorIs(t, err, ErrOpen)
	require.Zero(t, calls)

	t.Run("trial failure re-opens", func(t *testing.T) {
		now = now.Add(11 * time.Second)
		require.ErrorIs(t, cb.Do(fail), errBoom)
		require.Equal(t, StateOpen, cb.State())
	})

	t.Run("trial success closes", func(t *testing.T) {
		now = now.Add(11 * time.Second)
		require.NoError(t, cb.Do(ok))
		require.Equal(t, StateClosed, cb.State())
		require.NoError(t, cb.Do(ok))
	})
}

func TestRetry(t *testing.T) {
	ctx := context.Background()

	attempts := 0
	err := Retry(ctx, "flaky", 3, time.Millisecond, func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errBoom
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, attempts)

	attempts = 0
	err = Retry(ctx, "down", 2, time.Millisecond, func(context.Context) error {
		attempts++
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)
	require.Equal(t, 2, attempts)
}

func TestRetry_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := Retry(ctx, "cancelled", 5, time.Hour, func(context.Context) error {
		attempts++
		return errBoom
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, attempts)
}
