package resilience

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Retry calls fn up to attempts times, waiting delay*attempt between tries.
// It stops early when ctx is done.
func Retry(ctx context.Context, name string, attempts int, delay time.Duration, fn func(context.Context) error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			wait := delay * time.Duration(i)
			slog.Info("Retrying", "target", name, "attempt", i+1, "wait", wait, "error", err)
			select {
			case <-ctx.Done():
				return fmt.Errorf("%s: %w (last error: %v)", name, ctx.Err(), err)
			case <-time.After(wait):
			}
		}

		err = fn(ctx)
		if err == nil {
			return nil
		}
	}
	return fmt.Errorf("%s: after %d attempts, last error: %w", name, attempts, err)
}
