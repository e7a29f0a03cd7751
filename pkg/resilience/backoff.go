package resilience

import (
	"math"
	"math/rand"
	"time"
)

// BackoffStrategy defines retry backoff behavior
type BackoffStrategy interface {
	NextDelay(attempt int) time.Duration
}

// ExponentialBackoff implements capped exponential backoff with optional jitter
type ExponentialBackoff struct {
	BaseDelay  time.Duration // Delay for attempt 0
	MaxDelay   time.Duration // Upper bound for any attempt
	Multiplier float64       // Exponential multiplier (typically 2.0)
	Jitter     float64       // Jitter factor (0.0-1.0); 0 keeps the schedule deterministic
}

// DeliveryBackoff returns the outbound webhook retry schedule.
//
// Retry sequence (no jitter):
//   - Attempt 1: 2m
//   - Attempt 2: 4m
//   - Attempt 3: 8m
//   - Attempt 4: 16m
//   - Attempt 5: 32m
//   - Attempt 6+: 1h (capped)
func DeliveryBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		BaseDelay:  60 * time.Second,
		MaxDelay:   time.Hour,
		Multiplier: 2.0,
		Jitter:     0,
	}
}

// GatewayBackoff returns the schedule used when waiting for infrastructure
// (database, Redis) to come up at startup.
func GatewayBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   5 * time.Second,
		Multiplier: 2.0,
		Jitter:     0.1,
	}
}

// NextDelay calculates the delay for the given attempt number (0-indexed)
//
// The delay is calculated as: BaseDelay * (Multiplier ^ attempt) ± jitter
// The result is capped at MaxDelay
func (eb *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt < 0 {
		return eb.BaseDelay
	}

	delay := float64(eb.BaseDelay) * math.Pow(eb.Multiplier, float64(attempt))
	if delay > float64(eb.MaxDelay) {
		delay = float64(eb.MaxDelay)
	}

	if eb.Jitter <= 0 {
		return time.Duration(delay)
	}

	jitterAmount := delay * eb.Jitter
	jitter := (rand.Float64()*2 - 1) * jitterAmount // [-jitterAmount, +jitterAmount]

	finalDelay := time.Duration(delay + jitter)
	if finalDelay < 0 {
		finalDelay = eb.BaseDelay
	}
	if finalDelay > eb.MaxDelay {
		finalDelay = eb.MaxDelay
	}

	return finalDelay
}
