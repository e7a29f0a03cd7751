package gateway

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/kevin07696/settlement-service/internal/domain"
)

// asaasPayload is the subset of an Asaas callback we read.
//
//	{"id": "evt_...", "event": "PAYMENT_RECEIVED", "payment": {"id": "pay_...", "status": "RECEIVED", "billingType": "PIX", "subscription": "sub_..."}}
type asaasPayload struct {
	Payment *struct {
		ID           string `json:"id"`
		Status       string `json:"status"`
		BillingType  string `json:"billingType"`
		Subscription string `json:"subscription"`
	} `json:"payment"`
	Subscription *struct {
		ID string `json:"id"`
	} `json:"subscription"`
	ID    string `json:"id"`
	Event string `json:"event"`
}

// Asaas normalizes Asaas callbacks. When accessToken is set, the
// asaas-access-token header must match it.
type Asaas struct {
	accessToken string
}

// NewAsaas creates the Asaas normalizer
func NewAsaas(accessToken string) *Asaas {
	return &Asaas{accessToken: accessToken}
}

func (a *Asaas) Name() string { return NameAsaas }

// Detect matches {"event": "..."}. Asaas is the only gateway keying callbacks by
// "event"; the object beside it varies (payment, subscription, transfer, invoice).
func (a *Asaas) Detect(fields map[string]json.RawMessage) bool {
	return has(fields, "event")
}

func (a *Asaas) Normalize(body []byte, header http.Header) (*domain.NormalizedEvent, error) {
	if a.accessToken != "" {
		got := header.Get("asaas-access-token")
		if subtle.ConstantTimeCompare([]byte(got), []byte(a.accessToken)) != 1 {
			return nil, domain.NewDomainError(domain.ErrorCodeValidationUnauthorized, "asaas access token mismatch").
				WithDetail("gateway", NameAsaas)
		}
	}

	var p asaasPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, malformed(NameAsaas, "invalid asaas payload", err)
	}

	evt := &domain.NormalizedEvent{
		Gateway:    NameAsaas,
		RawEventID: p.ID,
		Metadata:   map[string]interface{}{"asaas_event": p.Event},
	}

	// Unmapped codes are acknowledged before the payload structure is checked.
	switch p.Event {
	case "SUBSCRIPTION_DELETED", "SUBSCRIPTION_INACTIVATED":
		if p.Subscription == nil || p.Subscription.ID == "" {
			return nil, malformed(NameAsaas, "subscription id missing", nil)
		}
		evt.Type = domain.EventSubscriptionCancelled
		evt.ExternalTransactionID = p.Subscription.ID
		return evt, nil
	case "PAYMENT_CONFIRMED", "PAYMENT_RECEIVED",
		"PAYMENT_CREATED",
		"PAYMENT_REPROVED_BY_RISK_ANALYSIS", "PAYMENT_CREDIT_CARD_CAPTURE_REFUSED",
		"PAYMENT_REFUNDED",
		"PAYMENT_CHARGEBACK_REQUESTED", "PAYMENT_CHARGEBACK_DISPUTE",
		"PAYMENT_OVERDUE":
	default:
		return nil, unmapped(NameAsaas, p.Event)
	}

	if p.Payment == nil {
		return nil, malformed(NameAsaas, "payment object missing", nil)
	}

	evt.RawStatus = p.Payment.Status
	evt.Metadata["billing_type"] = p.Payment.BillingType
	if p.Payment.Subscription != "" {
		evt.Metadata["subscription_id"] = p.Payment.Subscription
	}

	switch p.Event {
	case "PAYMENT_CONFIRMED", "PAYMENT_RECEIVED":
		evt.Type = domain.EventPurchaseApproved
	case "PAYMENT_CREATED":
		switch p.Payment.BillingType {
		case "PIX":
			evt.Type = domain.EventPixGenerated
		case "BOLETO":
			evt.Type = domain.EventBoletoGenerated
		default:
			return nil, unmapped(NameAsaas, p.Event)
		}
	case "PAYMENT_REPROVED_BY_RISK_ANALYSIS", "PAYMENT_CREDIT_CARD_CAPTURE_REFUSED":
		evt.Type = domain.EventPurchaseDeclined
	case "PAYMENT_REFUNDED":
		evt.Type = domain.EventRefund
	case "PAYMENT_CHARGEBACK_REQUESTED", "PAYMENT_CHARGEBACK_DISPUTE":
		evt.Type = domain.EventChargeback
	case "PAYMENT_OVERDUE":
		if p.Payment.Subscription == "" {
			return nil, unmapped(NameAsaas, p.Event)
		}
		evt.Type = domain.EventSubscriptionOverdue
	}

	if p.Payment.ID == "" {
		return nil, malformed(NameAsaas, "payment id missing", nil)
	}
	evt.ExternalTransactionID = p.Payment.ID

	return evt, nil
}
