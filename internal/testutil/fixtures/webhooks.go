package fixtures

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/kevin07696/settlement-service/internal/domain"
)

// NewEndpoint returns an active endpoint subscribed to the given event types.
func NewEndpoint(url, secret string, types ...domain.EventType) *domain.WebhookEndpoint {
	return &domain.WebhookEndpoint{
		ID:         uuid.NewString(),
		ProducerID: uuid.NewString(),
		URL:        url,
		Secret:     secret,
		EventTypes: types,
		IsActive:   true,
		CreatedAt:  time.Now(),
	}
}

// NewDeliveryJob returns a claimed job for endpoint carrying payload.
func NewDeliveryJob(endpoint *domain.WebhookEndpoint, payload json.RawMessage) *domain.DeliveryJob {
	now := time.Now()
	return &domain.DeliveryJob{
		ID:                  uuid.NewString(),
		EndpointID:          endpoint.ID,
		EventID:             uuid.NewString(),
		EventType:           domain.EventPurchaseApproved,
		Status:              domain.JobStatusProcessing,
		Payload:             payload,
		MaxAttempts:         5,
		NextAttemptAt:       now,
		ProcessingStartedAt: &now,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}
