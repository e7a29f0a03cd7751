package resilience

import (
	"context"
	"fmt"
	"time"
)

// Retry calls fn until it succeeds, attempts are used up, or ctx ends, waiting
// strategy.NextDelay(i) after the i-th failure. onRetry may be nil.
func Retry(
	ctx context.Context,
	attempts int,
	strategy BackoffStrategy,
	fn func(ctx context.Context) error,
	onRetry func(attempt int, delay time.Duration, err error),
) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt == attempts-1 {
			break
		}

		delay := strategy.NextDelay(attempt)
		if onRetry != nil {
			onRetry(attempt+1, delay, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w (last error: %v)", ctx.Err(), err)
		case <-timer.C:
		}
	}
	return fmt.Errorf("gave up after %d attempts: %w", attempts, err)
}
