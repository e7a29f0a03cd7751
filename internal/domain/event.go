package domain

import (
	"time"
)

// EventType is the internal, gateway-independent event vocabulary.
type EventType string

const (
	EventPurchaseApproved      EventType = "purchase_approved"
	EventPixGenerated          EventType = "pix_generated"
	EventBoletoGenerated       EventType = "boleto_generated"
	EventPurchaseDeclined      EventType = "purchase_declined"
	EventRefund                EventType = "refund"
	EventChargeback            EventType = "chargeback"
	EventSubscriptionCancelled EventType = "subscription_cancelled"
	EventSubscriptionOverdue   EventType = "subscription_overdue"
	EventSubscriptionRenewed   EventType = "subscription_renewed"
)

// AllEventTypes is the full vocabulary, in declaration order.
var AllEventTypes = []EventType{
	EventPurchaseApproved,
	EventPixGenerated,
	EventBoletoGenerated,
	EventPurchaseDeclined,
	EventRefund,
	EventChargeback,
	EventSubscriptionCancelled,
	EventSubscriptionOverdue,
	EventSubscriptionRenewed,
}

// IsValid returns true if t belongs to the vocabulary.
func (t EventType) IsValid() bool {
	for _, known := range AllEventTypes {
		if t == known {
			return true
		}
	}
	return false
}

// TargetStatus returns the order status an event drives the order into, and false
// for informational events that leave the status alone.
func (t EventType) TargetStatus() (OrderStatus, bool) {
	switch t {
	case EventPurchaseApproved:
		return OrderStatusPaid, true
	case EventPurchaseDeclined:
		return OrderStatusRefused, true
	case EventRefund:
		return OrderStatusRefunded, true
	case EventChargeback:
		return OrderStatusChargeback, true
	default:
		return "", false
	}
}

// NormalizedEvent is what every gateway callback is reduced to before processing.
type NormalizedEvent struct {
	Metadata              map[string]interface{} `validate:"-"`
	Type                  EventType              `validate:"required"`
	ExternalTransactionID string                 `validate:"required"`
	Gateway               string                 `validate:"required"`
	RawStatus             string
	RawEventID            string
}

// TransactionEvent is an append-only fact about an order. Rows are never updated.
type TransactionEvent struct {
	CreatedAt time.Time              `json:"created_at"`
	Metadata  map[string]interface{} `json:"metadata"`
	ID        string                 `json:"id"`
	OrderID   string                 `json:"order_id"`
	Type      EventType              `json:"type"`
}
