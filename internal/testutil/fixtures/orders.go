// Package fixtures builds orders, fee configs, endpoints and delivery jobs for tests.
package fixtures

import (
	"time"

	"github.com/google/uuid"
	"github.com/kevin07696/settlement-service/internal/domain"
)

// OrderBuilder provides fluent API for building test orders.
type OrderBuilder struct {
	order *domain.Order
}

// NewOrder creates an order awaiting a 100.00 pix payment.
func NewOrder() *OrderBuilder {
	now := time.Now()
	return &OrderBuilder{
		order: &domain.Order{
			ID:                    uuid.NewString(),
			ExternalTransactionID: "pay_" + uuid.NewString()[:8],
			Gateway:               "asaas",
			ProducerID:            uuid.NewString(),
			ProductID:             uuid.NewString(),
			BuyerEmail:            "buyer@example.com",
			BuyerName:             "Ana Souza",
			Status:                domain.OrderStatusPendingPayment,
			PaymentMethod:         domain.PaymentMethodPix,
			PayoutStatus:          domain.PayoutStatusNone,
			AmountCents:           10000,
			OriginalPriceCents:    10000,
			Installments:          1,
			CreatedAt:             now,
			UpdatedAt:             now,
		},
	}
}

func (b *OrderBuilder) WithID(id string) *OrderBuilder {
	b.order.ID = id
	return b
}

func (b *OrderBuilder) WithExternalID(gateway, externalID string) *OrderBuilder {
	b.order.Gateway = gateway
	b.order.ExternalTransactionID = externalID
	return b
}

func (b *OrderBuilder) WithProducer(producerID string) *OrderBuilder {
	b.order.ProducerID = producerID
	return b
}

func (b *OrderBuilder) WithProduct(productID string) *OrderBuilder {
	b.order.ProductID = productID
	return b
}

func (b *OrderBuilder) WithStatus(status domain.OrderStatus) *OrderBuilder {
	b.order.Status = status
	return b
}

func (b *OrderBuilder) WithAmount(amountCents, originalPriceCents int64) *OrderBuilder {
	b.order.AmountCents = amountCents
	b.order.OriginalPriceCents = originalPriceCents
	return b
}

func (b *OrderBuilder) WithPaymentMethod(m domain.PaymentMethod, installments int) *OrderBuilder {
	b.order.PaymentMethod = m
	b.order.Installments = installments
	return b
}

func (b *OrderBuilder) WithTicketBatch(batchID string) *OrderBuilder {
	b.order.TicketBatchID = &batchID
	return b
}

// Paid marks the order paid with the given producer share already settled.
func (b *OrderBuilder) Paid(shareCents int64) *OrderBuilder {
	now := time.Now()
	b.order.Status = domain.OrderStatusPaid
	b.order.PayoutStatus = domain.PayoutStatusPending
	b.order.PaidAt = &now
	b.order.ProducerShareCents = shareCents
	b.order.PlatformFeeCents = b.order.PriceCents() - shareCents
	return b
}

func (b *OrderBuilder) Build() *domain.Order {
	return b.order
}
