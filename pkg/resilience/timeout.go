package resilience

import (
	"context"
	"time"
)

// TimeoutConfig defines timeout values for the application's timeout hierarchy
//
// Timeout Hierarchy (from outermost to innermost):
//
//	HTTP Handler (60s)
//	  ↓
//	Inbound processing (50s)
//	  ↓
//	Outbound webhook attempt (30s)
//	  ↓
//	Database Query (2s/5s/30s - based on complexity)
//
// A dispatcher run (cron) sits outside the hierarchy with its own budget.
type TimeoutConfig struct {
	HTTPHandler     time.Duration // Overall request timeout (default: 60s)
	CronJob         time.Duration // Dispatcher run budget (default: 5 minutes)
	Service         time.Duration // Inbound callback processing (default: 50s)
	BestEffort      time.Duration // Each post-commit side effect (default: 10s)
	WebhookDelivery time.Duration // One outbound delivery attempt (default: 30s)
	ClaimLease      time.Duration // Age after which a processing claim is considered abandoned (default: 5m)
}

// DefaultTimeoutConfig returns production timeout values
func DefaultTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		HTTPHandler:     60 * time.Second,
		CronJob:         5 * time.Minute,
		Service:         50 * time.Second,
		BestEffort:      10 * time.Second,
		WebhookDelivery: 30 * time.Second,
		ClaimLease:      5 * time.Minute,
	}
}

// TestTimeoutConfig returns shorter timeouts for testing
func TestTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		HTTPHandler:     5 * time.Second,
		CronJob:         30 * time.Second,
		Service:         4 * time.Second,
		BestEffort:      1 * time.Second,
		WebhookDelivery: 2 * time.Second,
		ClaimLease:      10 * time.Second,
	}
}

// HandlerContext creates a context with timeout for HTTP handlers
func (tc *TimeoutConfig) HandlerContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.HTTPHandler)
}

// CronContext creates a context with timeout for cron jobs
func (tc *TimeoutConfig) CronContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.CronJob)
}

// ServiceContext creates a context with timeout for service layer operations
func (tc *TimeoutConfig) ServiceContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.Service)
}

// BestEffortContext creates a context for a non-fatal side effect. It is detached from
// parent cancellation so a client disconnect does not abort committed work's follow-ups.
func (tc *TimeoutConfig) BestEffortContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(parent), tc.BestEffort)
}

// WebhookContext creates a context for one webhook delivery attempt
func (tc *TimeoutConfig) WebhookContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.WebhookDelivery)
}
