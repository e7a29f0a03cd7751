package domain

import (
	"encoding/json"
	"time"
)

// WebhookEndpoint is a producer-registered delivery target.
type WebhookEndpoint struct {
	CreatedAt  time.Time   `json:"created_at"`
	ProductID  *string     `json:"product_id"`
	ID         string      `json:"id"`
	ProducerID string      `json:"producer_id"`
	URL        string      `json:"url"`
	Secret     string      `json:"-"`
	EventTypes []EventType `json:"event_types"`
	IsActive   bool        `json:"is_active"`
}

// Subscribes reports whether the endpoint wants events of type t for productID.
func (e *WebhookEndpoint) Subscribes(t EventType, productID string) bool {
	if !e.IsActive {
		return false
	}
	if e.ProductID != nil && *e.ProductID != "" && *e.ProductID != productID {
		return false
	}
	for _, et := range e.EventTypes {
		if et == t {
			return true
		}
	}
	return false
}

// JobStatus is the lifecycle state of a delivery job.
//
//	[pending] ---(claimed)---> [processing]
//	[processing] ---(2xx)---> [delivered]
//	[processing] ---(failure, attempts < max)---> [pending]
//	[processing] ---(failure, attempts == max)---> [failed]
//	[processing] ---(claim lease expired)---> [pending]
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusDelivered  JobStatus = "delivered"
	JobStatusFailed     JobStatus = "failed"
)

// IsTerminal returns true once the job will never be attempted again automatically.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusDelivered || s == JobStatusFailed
}

// DeliveryJob is one (event, endpoint) pairing awaiting delivery.
type DeliveryJob struct {
	NextAttemptAt       time.Time       `json:"next_attempt_at"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
	ProcessingStartedAt *time.Time      `json:"processing_started_at"`
	DeliveredAt         *time.Time      `json:"delivered_at"`
	LastError           *string         `json:"last_error"`
	ID                  string          `json:"id"`
	EndpointID          string          `json:"endpoint_id"`
	EventID             string          `json:"event_id"`
	EventType           EventType       `json:"event_type"`
	Status              JobStatus       `json:"status"`
	Payload             json.RawMessage `json:"payload"`
	Attempts            int             `json:"attempts"`
	MaxAttempts         int             `json:"max_attempts"`
}

// CanRetry returns true if another attempt is allowed after the current attempt count.
func (j *DeliveryJob) CanRetry() bool {
	return j.Attempts < j.MaxAttempts
}

// DeliveryAttempt is one row of the producer-visible delivery log.
type DeliveryAttempt struct {
	CreatedAt     time.Time `json:"created_at"`
	StatusCode    *int      `json:"status_code,omitempty"`
	ResponseBody  *string   `json:"response_body,omitempty"`
	Error         *string   `json:"error,omitempty"`
	ID            string    `json:"id"`
	JobID         string    `json:"job_id"`
	EndpointID    string    `json:"endpoint_id"`
	AttemptNumber int       `json:"attempt_number"`
	DurationMs    int64     `json:"duration_ms"`
	Success       bool      `json:"success"`
}

// OutboundPayload is the JSON body POSTed to producer endpoints.
type OutboundPayload struct {
	CreatedAt time.Time    `json:"created_at"`
	ID        string       `json:"id"`
	Type      EventType    `json:"type"`
	Data      OrderSummary `json:"data"`
}

// OrderSummary is the order snapshot carried in outbound payloads.
type OrderSummary struct {
	PaidAt        *time.Time    `json:"paid_at,omitempty"`
	OrderID       string        `json:"order_id"`
	ProductID     string        `json:"product_id"`
	Status        OrderStatus   `json:"status"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	BuyerEmail    string        `json:"buyer_email"`
	BuyerName     string        `json:"buyer_name"`
	Attendees     []Attendee    `json:"attendees,omitempty"`
	AmountCents   int64         `json:"amount_cents"`
	Installments  int           `json:"installments"`
}

// SummarizeOrder builds the outbound snapshot of an order.
func SummarizeOrder(o *Order) OrderSummary {
	return OrderSummary{
		PaidAt:        o.PaidAt,
		OrderID:       o.ID,
		ProductID:     o.ProductID,
		Status:        o.Status,
		PaymentMethod: o.PaymentMethod,
		BuyerEmail:    o.BuyerEmail,
		BuyerName:     o.BuyerName,
		Attendees:     o.Attendees,
		AmountCents:   o.AmountCents,
		Installments:  o.Installments,
	}
}
