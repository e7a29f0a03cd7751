package resilience

import (
	"context"
	"testing"
	"time"
)

func TestDefaultTimeoutConfig(t *testing.T) {
	config := DefaultTimeoutConfig()

	if config.HTTPHandler <= config.Service {
		t.Errorf("HTTPHandler (%v) must be > Service (%v)", config.HTTPHandler, config.Service)
	}

	if config.Service <= config.WebhookDelivery {
		t.Errorf("Service (%v) must be > WebhookDelivery (%v)", config.Service, config.WebhookDelivery)
	}

	if config.WebhookDelivery != 30*time.Second {
		t.Errorf("Expected WebhookDelivery = 30s, got %v", config.WebhookDelivery)
	}

	if config.ClaimLease <= config.WebhookDelivery {
		t.Errorf("ClaimLease (%v) must outlive a delivery attempt (%v)", config.ClaimLease, config.WebhookDelivery)
	}
}

func TestBestEffortContext_SurvivesParentCancel(t *testing.T) {
	config := TestTimeoutConfig()

	parent, cancel := context.WithCancel(context.Background())
	ctx, release := config.BestEffortContext(parent)
	defer release()

	cancel()

	if ctx.Err() != nil {
		t.Errorf("best-effort context cancelled with parent: %v", ctx.Err())
	}

	deadline, ok := ctx.Deadline()
	if !ok || time.Until(deadline) > config.BestEffort {
		t.Errorf("expected deadline within %v, got %v", config.BestEffort, deadline)
	}
}

func TestWebhookContext_HasDeadline(t *testing.T) {
	config := TestTimeoutConfig()

	ctx, cancel := config.WebhookContext(context.Background())
	defer cancel()

	if _, ok := ctx.Deadline(); !ok {
		t.Error("webhook context has no deadline")
	}
}
