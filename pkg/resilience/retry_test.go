package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedBackoff time.Duration

func (f fixedBackoff) NextDelay(int) time.Duration { return time.Duration(f) }

func TestRetry(t *testing.T) {
	boom := errors.New("connection refused")

	tests := []struct {
		name        string
		attempts    int
		failures    int
		wantCalls   int
		wantRetries int
		wantErr     bool
	}{
		{name: "first_try", attempts: 3, failures: 0, wantCalls: 1, wantRetries: 0},
		{name: "succeeds_after_failures", attempts: 3, failures: 2, wantCalls: 3, wantRetries: 2},
		{name: "gives_up", attempts: 3, failures: 5, wantCalls: 3, wantRetries: 2, wantErr: true},
		{name: "zero_attempts_tries_once", attempts: 0, failures: 5, wantCalls: 1, wantRetries: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls, retries := 0, 0
			err := Retry(context.Background(), tt.attempts, fixedBackoff(time.Millisecond),
				func(ctx context.Context) error {
					calls++
					if calls <= tt.failures {
						return boom
					}
					return nil
				},
				func(attempt int, delay time.Duration, err error) {
					retries++
					assert.Equal(t, retries, attempt)
					assert.Equal(t, time.Millisecond, delay)
					assert.ErrorIs(t, err, boom)
				},
			)

			assert.Equal(t, tt.wantCalls, calls)
			assert.Equal(t, tt.wantRetries, retries)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, boom)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestRetry_StopsWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	err := Retry(ctx, 10, fixedBackoff(time.Hour), func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("not ready")
	}, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
