package domain

import "time"

// Notification is a user-facing message shown to a producer.
type Notification struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	OrderID   string    `json:"order_id"`
	EventType EventType `json:"event_type"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
}

// NotifiesByDefault reports whether a producer with no stored preference is notified of t.
func NotifiesByDefault(t EventType) bool {
	return t == EventPurchaseApproved
}

// BuyerIdentity is the resolved platform account of a buyer.
type BuyerIdentity struct {
	UserID  string
	Email   string
	Created bool
}
