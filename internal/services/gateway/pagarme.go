package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/kevin07696/settlement-service/internal/domain"
)

// pagarmePayload is the subset of a Pagar.me v5 callback we read.
// Orders are keyed by the Pagar.me order id: data.id for order.* events and
// data.order.id for charge.* events.
type pagarmePayload struct {
	Data *struct {
		Order *struct {
			ID   string `json:"id"`
			Code string `json:"code"`
		} `json:"order"`
		ID            string `json:"id"`
		Code          string `json:"code"`
		Status        string `json:"status"`
		PaymentMethod string `json:"payment_method"`
	} `json:"data"`
	ID   string `json:"id"`
	Type string `json:"type"`
}

// Pagarme normalizes Pagar.me callbacks
type Pagarme struct{}

// NewPagarme creates the Pagar.me normalizer
func NewPagarme() *Pagarme {
	return &Pagarme{}
}

func (p *Pagarme) Name() string { return NamePagarme }

// Detect matches {"type": "...", "data": {...}} without Stripe's "object" marker
func (p *Pagarme) Detect(fields map[string]json.RawMessage) bool {
	return has(fields, "type", "data") && !has(fields, "object")
}

func (p *Pagarme) Normalize(body []byte, header http.Header) (*domain.NormalizedEvent, error) {
	var payload pagarmePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, malformed(NamePagarme, "invalid pagarme payload", err)
	}

	var (
		eventType domain.EventType
		byCharge  bool
	)
	switch payload.Type {
	case "order.paid":
		eventType = domain.EventPurchaseApproved
	case "order.payment_failed":
		eventType = domain.EventPurchaseDeclined
	case "charge.paid":
		eventType, byCharge = domain.EventPurchaseApproved, true
	case "charge.payment_failed", "charge.antifraud_reproved":
		eventType, byCharge = domain.EventPurchaseDeclined, true
	case "charge.pending":
		byCharge = true
	case "charge.refunded":
		eventType, byCharge = domain.EventRefund, true
	case "charge.chargedback":
		eventType, byCharge = domain.EventChargeback, true
	case "subscription.canceled":
		eventType = domain.EventSubscriptionCancelled
	default:
		return nil, unmapped(NamePagarme, payload.Type)
	}

	if payload.Data == nil {
		return nil, malformed(NamePagarme, "data object missing", nil)
	}

	// charge.pending maps by payment method: only PIX and boleto produce a code to pay.
	if payload.Type == "charge.pending" {
		switch payload.Data.PaymentMethod {
		case "pix":
			eventType = domain.EventPixGenerated
		case "boleto":
			eventType = domain.EventBoletoGenerated
		default:
			return nil, unmapped(NamePagarme, payload.Type)
		}
	}

	evt := &domain.NormalizedEvent{
		Gateway:    NamePagarme,
		Type:       eventType,
		RawEventID: payload.ID,
		RawStatus:  payload.Data.Status,
		Metadata: map[string]interface{}{
			"pagarme_event":  payload.Type,
			"payment_method": payload.Data.PaymentMethod,
		},
	}

	orderID := payload.Data.ID
	if byCharge {
		orderID = p.chargeOrderID(&payload)
	}

	if orderID == "" {
		return nil, malformed(NamePagarme, "order id missing", nil)
	}
	evt.ExternalTransactionID = orderID

	return evt, nil
}

func (p *Pagarme) chargeOrderID(payload *pagarmePayload) string {
	if payload.Data.Order == nil {
		return ""
	}
	return payload.Data.Order.ID
}
