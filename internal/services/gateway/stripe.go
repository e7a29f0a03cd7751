package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kevin07696/settlement-service/internal/domain"
)

// stripeSignatureTolerance bounds the age of a signed Stripe callback
const stripeSignatureTolerance = 5 * time.Minute

// stripePayload is the subset of a Stripe event we read. Orders are keyed by
// the PaymentIntent id.
type stripePayload struct {
	Data struct {
		Object struct {
			NextAction *struct {
				Type string `json:"type"`
			} `json:"next_action"`
			ID            string `json:"id"`
			Object        string `json:"object"`
			Status        string `json:"status"`
			PaymentIntent string `json:"payment_intent"`
			Subscription  string `json:"subscription"`
			BillingReason string `json:"billing_reason"`
		} `json:"object"`
	} `json:"data"`
	ID   string `json:"id"`
	Type string `json:"type"`
}

// Stripe normalizes Stripe events. When signingSecret is set, the
// Stripe-Signature header is verified.
type Stripe struct {
	now           func() time.Time
	signingSecret string
}

// NewStripe creates the Stripe normalizer
func NewStripe(signingSecret string) *Stripe {
	return &Stripe{signingSecret: signingSecret, now: time.Now}
}

func (s *Stripe) Name() string { return NameStripe }

// Detect matches {"object": "event", "type": "...", "data": {...}}
func (s *Stripe) Detect(fields map[string]json.RawMessage) bool {
	return has(fields, "type", "data") && stringField(fields, "object") == "event"
}

func (s *Stripe) Normalize(body []byte, header http.Header) (*domain.NormalizedEvent, error) {
	if s.signingSecret != "" {
		if err := s.verify(body, header.Get("Stripe-Signature")); err != nil {
			return nil, err
		}
	}

	var p stripePayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, malformed(NameStripe, "invalid stripe payload", err)
	}

	obj := p.Data.Object
	evt := &domain.NormalizedEvent{
		Gateway:    NameStripe,
		RawEventID: p.ID,
		RawStatus:  obj.Status,
		Metadata:   map[string]interface{}{"stripe_event": p.Type},
	}

	txID := obj.ID
	switch p.Type {
	case "payment_intent.succeeded":
		evt.Type = domain.EventPurchaseApproved
	case "payment_intent.payment_failed", "payment_intent.canceled":
		evt.Type = domain.EventPurchaseDeclined
	case "payment_intent.requires_action":
		if obj.NextAction == nil {
			return nil, unmapped(NameStripe, p.Type)
		}
		switch obj.NextAction.Type {
		case "pix_display_qr_code":
			evt.Type = domain.EventPixGenerated
		case "boleto_display_details":
			evt.Type = domain.EventBoletoGenerated
		default:
			return nil, unmapped(NameStripe, p.Type)
		}
	case "charge.refunded":
		evt.Type = domain.EventRefund
		txID = obj.PaymentIntent
	case "charge.dispute.created":
		evt.Type = domain.EventChargeback
		txID = obj.PaymentIntent
	case "customer.subscription.deleted":
		evt.Type = domain.EventSubscriptionCancelled
	case "invoice.payment_failed":
		evt.Type = domain.EventSubscriptionOverdue
		txID = obj.Subscription
	case "invoice.paid":
		if obj.BillingReason != "subscription_cycle" {
			return nil, unmapped(NameStripe, p.Type)
		}
		evt.Type = domain.EventSubscriptionRenewed
		txID = obj.PaymentIntent
	default:
		return nil, unmapped(NameStripe, p.Type)
	}

	if txID == "" {
		return nil, malformed(NameStripe, "transaction id missing", nil)
	}
	evt.ExternalTransactionID = txID

	return evt, nil
}

// verify checks a "t=<unix>,v1=<hex>" header against HMAC-SHA256(secret, "<t>.<body>")
func (s *Stripe) verify(body []byte, header string) error {
	unauthorized := func(msg string) error {
		return domain.NewDomainError(domain.ErrorCodeValidationUnauthorized, msg).WithDetail("gateway", NameStripe)
	}

	var ts string
	var sigs []string
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts = v
		case "v1":
			sigs = append(sigs, v)
		}
	}
	if ts == "" || len(sigs) == 0 {
		return unauthorized("stripe signature header missing")
	}

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return unauthorized("stripe signature timestamp invalid")
	}
	if age := s.now().Sub(time.Unix(unix, 0)); age > stripeSignatureTolerance || age < -stripeSignatureTolerance {
		return unauthorized("stripe signature timestamp outside tolerance")
	}

	mac := hmac.New(sha256.New, []byte(s.signingSecret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(body)
	expected := mac.Sum(nil)

	for _, sig := range sigs {
		got, err := hex.DecodeString(sig)
		if err == nil && hmac.Equal(got, expected) {
			return nil
		}
	}
	return unauthorized("stripe signature mismatch")
}
