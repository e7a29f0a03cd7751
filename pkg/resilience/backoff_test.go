package resilience

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeliveryBackoff_Schedule(t *testing.T) {
	backoff := DeliveryBackoff()

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 60 * time.Second},
		{1, 120 * time.Second},
		{2, 240 * time.Second},
		{3, 480 * time.Second},
		{4, 960 * time.Second},
		{5, 1920 * time.Second},
		{6, time.Hour}, // 3840s, capped
		{7, time.Hour},
		{20, time.Hour},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, backoff.NextDelay(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestDeliveryBackoff_Deterministic(t *testing.T) {
	backoff := DeliveryBackoff()

	for attempt := 0; attempt < 10; attempt++ {
		assert.Equal(t, backoff.NextDelay(attempt), backoff.NextDelay(attempt))
	}
}

func TestDeliveryBackoff_Monotonic(t *testing.T) {
	backoff := DeliveryBackoff()

	prev := time.Duration(0)
	for attempt := 0; attempt < 12; attempt++ {
		d := backoff.NextDelay(attempt)
		assert.GreaterOrEqual(t, d, prev)
		assert.LessOrEqual(t, d, time.Hour)
		prev = d
	}
}

func TestExponentialBackoff_WithJitter(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   10 * time.Second,
		Multiplier: 2.0,
		Jitter:     0.1,
	}

	// attempt 3 = 800ms, ±10%
	minExpected := 720 * time.Millisecond
	maxExpected := 880 * time.Millisecond

	for i := 0; i < 100; i++ {
		delay := backoff.NextDelay(3)
		if delay < minExpected || delay > maxExpected {
			t.Errorf("Delay[%d] = %v, expected range [%v, %v]", i, delay, minExpected, maxExpected)
		}
	}
}

func TestExponentialBackoff_NegativeAttempt(t *testing.T) {
	backoff := GatewayBackoff()

	assert.Equal(t, backoff.BaseDelay, backoff.NextDelay(-1))
}
