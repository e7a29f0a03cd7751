package domain

import (
	"time"
)

// OrderStatus is the settlement state of a sale.
//
// Transitions:
//
//	[pending_payment] ---> [paid | refused | refunded | chargeback]
//	[refused] ---(late capture)---> [paid]
//	[paid] ---> [refunded | chargeback]
//
// refunded and chargeback never transition again. refused is terminal for every
// target except paid: an approval arriving after a decline is still settled, since
// settlement applies whenever the current status is not already paid. Any other
// event on a refused order is logged without a status change.
type OrderStatus string

const (
	OrderStatusPendingPayment OrderStatus = "pending_payment"
	OrderStatusPaid           OrderStatus = "paid"
	OrderStatusRefused        OrderStatus = "refused"
	OrderStatusRefunded       OrderStatus = "refunded"
	OrderStatusChargeback     OrderStatus = "chargeback"
)

// allowedFrom lists, for each target status, the statuses an order may leave to reach it.
var allowedFrom = map[OrderStatus][]OrderStatus{
	OrderStatusPaid:       {OrderStatusPendingPayment, OrderStatusRefused},
	OrderStatusRefused:    {OrderStatusPendingPayment},
	OrderStatusRefunded:   {OrderStatusPendingPayment, OrderStatusPaid},
	OrderStatusChargeback: {OrderStatusPendingPayment, OrderStatusPaid},
}

// AllowedPredecessors returns the statuses from which target is reachable.
// The slice is used verbatim in conditional UPDATE statements.
func AllowedPredecessors(target OrderStatus) []OrderStatus {
	return allowedFrom[target]
}

// CanTransition reports whether an order in status from may move to status to.
func CanTransition(from, to OrderStatus) bool {
	for _, s := range allowedFrom[to] {
		if s == from {
			return true
		}
	}
	return false
}

// IsTerminal returns true for statuses that accept no further transition.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusRefunded || s == OrderStatusChargeback
}

// PaymentMethod is how the buyer paid.
type PaymentMethod string

const (
	PaymentMethodPix        PaymentMethod = "pix"
	PaymentMethodBoleto     PaymentMethod = "boleto"
	PaymentMethodCreditCard PaymentMethod = "credit_card"
)

// PayoutStatus tracks the producer's share of a sale.
type PayoutStatus string

const (
	PayoutStatusNone      PayoutStatus = "none"
	PayoutStatusPending   PayoutStatus = "pending"
	PayoutStatusCancelled PayoutStatus = "cancelled"
)

// Attendee is one ticket holder on an event order.
type Attendee struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Document string `json:"document,omitempty"`
}

// Order is one checkout attempt ("sale"). Amounts are integer minor currency units.
type Order struct {
	PaidAt                *time.Time    `json:"paid_at"`
	ReleaseAt             *time.Time    `json:"release_at"`
	ReserveReleaseAt      *time.Time    `json:"reserve_release_at"`
	TicketBatchID         *string       `json:"ticket_batch_id"`
	BuyerUserID           *string       `json:"buyer_user_id"`
	CreatedAt             time.Time     `json:"created_at"`
	UpdatedAt             time.Time     `json:"updated_at"`
	ID                    string        `json:"id"`
	ExternalTransactionID string        `json:"external_transaction_id"`
	Gateway               string        `json:"gateway"`
	ProducerID            string        `json:"producer_id"`
	ProductID             string        `json:"product_id"`
	BuyerEmail            string        `json:"buyer_email"`
	BuyerName             string        `json:"buyer_name"`
	Status                OrderStatus   `json:"status"`
	PaymentMethod         PaymentMethod `json:"payment_method"`
	PayoutStatus          PayoutStatus  `json:"payout_status"`
	Attendees             []Attendee    `json:"attendees"`
	AmountCents           int64         `json:"amount_cents"`
	OriginalPriceCents    int64         `json:"original_price_cents"`
	PlatformFeeCents      int64         `json:"platform_fee_cents"`
	ProducerShareCents    int64         `json:"producer_share_cents"`
	SecurityReserveCents  int64         `json:"security_reserve_cents"`
	Installments          int           `json:"installments"`
}

// PriceCents is the pre-discount price the settlement is computed on, falling back
// to the amount due when no original price was recorded at checkout.
func (o *Order) PriceCents() int64 {
	if o.OriginalPriceCents > 0 {
		return o.OriginalPriceCents
	}
	return o.AmountCents
}

// HasTicketBatch returns true if the order sells a ticket tier.
func (o *Order) HasTicketBatch() bool {
	return o.TicketBatchID != nil && *o.TicketBatchID != ""
}

// Settlement is the outcome of the settlement calculation persisted with a paid order.
type Settlement struct {
	PaidAt               time.Time
	ReleaseAt            time.Time
	ReserveReleaseAt     time.Time
	BaseCents            int64
	PlatformFeeCents     int64
	ProducerShareCents   int64
	SecurityReserveCents int64
}
