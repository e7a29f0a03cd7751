package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/kevin07696/settlement-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allGateways(t *testing.T) *Snapshot {
	t.Helper()
	snap, err := BuildSnapshot([]string{"asaas", "pagarme", "stripe"}, Credentials{})
	require.NoError(t, err)
	return snap
}

func TestSnapshot_Normalize(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		gateway string
		event   domain.EventType
		txID    string
	}{
		{
			name:    "asaas_payment_received",
			body:    `{"id":"evt_1","event":"PAYMENT_RECEIVED","payment":{"id":"pay_123","status":"RECEIVED","billingType":"PIX"}}`,
			gateway: NameAsaas,
			event:   domain.EventPurchaseApproved,
			txID:    "pay_123",
		},
		{
			name:    "asaas_pix_created",
			body:    `{"event":"PAYMENT_CREATED","payment":{"id":"pay_9","billingType":"PIX"}}`,
			gateway: NameAsaas,
			event:   domain.EventPixGenerated,
			txID:    "pay_9",
		},
		{
			name:    "asaas_chargeback_requested",
			body:    `{"event":"PAYMENT_CHARGEBACK_REQUESTED","payment":{"id":"pay_7","billingType":"CREDIT_CARD"}}`,
			gateway: NameAsaas,
			event:   domain.EventChargeback,
			txID:    "pay_7",
		},
		{
			name:    "asaas_overdue_subscription_payment",
			body:    `{"event":"PAYMENT_OVERDUE","payment":{"id":"pay_5","subscription":"sub_1"}}`,
			gateway: NameAsaas,
			event:   domain.EventSubscriptionOverdue,
			txID:    "pay_5",
		},
		{
			name:    "asaas_subscription_deleted",
			body:    `{"event":"SUBSCRIPTION_DELETED","subscription":{"id":"sub_1"}}`,
			gateway: NameAsaas,
			event:   domain.EventSubscriptionCancelled,
			txID:    "sub_1",
		},
		{
			name:    "pagarme_order_paid",
			body:    `{"id":"hook_1","type":"order.paid","data":{"id":"or_abc","code":"ord-1","status":"paid"}}`,
			gateway: NamePagarme,
			event:   domain.EventPurchaseApproved,
			txID:    "or_abc",
		},
		{
			name:    "pagarme_charge_refunded_keys_by_order",
			body:    `{"id":"hook_2","type":"charge.refunded","data":{"id":"ch_1","order":{"id":"or_abc"}}}`,
			gateway: NamePagarme,
			event:   domain.EventRefund,
			txID:    "or_abc",
		},
		{
			name:    "pagarme_boleto_pending",
			body:    `{"type":"charge.pending","data":{"id":"ch_2","payment_method":"boleto","order":{"id":"or_b"}}}`,
			gateway: NamePagarme,
			event:   domain.EventBoletoGenerated,
			txID:    "or_b",
		},
		{
			name:    "stripe_payment_intent_succeeded",
			body:    `{"id":"evt_s1","object":"event","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1","object":"payment_intent","status":"succeeded"}}}`,
			gateway: NameStripe,
			event:   domain.EventPurchaseApproved,
			txID:    "pi_1",
		},
		{
			name:    "stripe_dispute_keys_by_payment_intent",
			body:    `{"id":"evt_s2","object":"event","type":"charge.dispute.created","data":{"object":{"id":"dp_1","payment_intent":"pi_1"}}}`,
			gateway: NameStripe,
			event:   domain.EventChargeback,
			txID:    "pi_1",
		},
		{
			name:    "stripe_subscription_renewal",
			body:    `{"object":"event","type":"invoice.paid","data":{"object":{"id":"in_1","billing_reason":"subscription_cycle","payment_intent":"pi_2"}}}`,
			gateway: NameStripe,
			event:   domain.EventSubscriptionRenewed,
			txID:    "pi_2",
		},
	}

	snap := allGateways(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evt, err := snap.Normalize([]byte(tt.body), http.Header{})
			require.NoError(t, err)

			assert.Equal(t, tt.gateway, evt.Gateway)
			assert.Equal(t, tt.event, evt.Type)
			assert.Equal(t, tt.txID, evt.ExternalTransactionID)
		})
	}
}

func TestSnapshot_Normalize_Unmapped(t *testing.T) {
	bodies := map[string]string{
		"asaas_unknown_event":       `{"event":"PAYMENT_BANK_SLIP_VIEWED","payment":{"id":"pay_1"}}`,
		"asaas_card_created":        `{"event":"PAYMENT_CREATED","payment":{"id":"pay_1","billingType":"CREDIT_CARD"}}`,
		"asaas_overdue_one_off":     `{"event":"PAYMENT_OVERDUE","payment":{"id":"pay_1"}}`,
		"asaas_transfer_done":       `{"id":"evt_t","event":"TRANSFER_DONE","transfer":{"id":"tra_1","status":"DONE"}}`,
		"asaas_invoice_created":     `{"id":"evt_i","event":"INVOICE_CREATED","invoice":{"id":"inv_1"}}`,
		"asaas_bare_event":          `{"event":"ACCOUNT_STATUS_UPDATED"}`,
		"asaas_subscription_none":   `{"event":"SUBSCRIPTION_CREATED"}`,
		"pagarme_customer_created":  `{"type":"customer.created","data":{"id":"cus_1"}}`,
		"pagarme_unmapped_null":     `{"type":"customer.created","data":null}`,
		"stripe_invoice_first_paid": `{"object":"event","type":"invoice.paid","data":{"object":{"id":"in_1","billing_reason":"subscription_create"}}}`,
		"stripe_unknown":            `{"object":"event","type":"customer.created","data":{"object":{"id":"cus_1"}}}`,
	}

	snap := allGateways(t)
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			evt, err := snap.Normalize([]byte(body), http.Header{})

			assert.Nil(t, evt)
			assert.True(t, domain.IsDomainError(err, domain.ErrorCodeEventUnmapped), "got %v", err)
		})
	}
}

func TestSnapshot_Normalize_Malformed(t *testing.T) {
	bodies := map[string]string{
		"not_json":                 `not json`,
		"json_array":               `[1,2,3]`,
		"unrecognized_shape":       `{"hello":"world"}`,
		"asaas_missing_payment_id": `{"event":"PAYMENT_RECEIVED","payment":{"status":"RECEIVED"}}`,
		"asaas_mapped_no_payment":  `{"event":"PAYMENT_RECEIVED","transfer":{"id":"tra_1"}}`,
		"pagarme_charge_no_order":  `{"type":"charge.paid","data":{"id":"ch_1"}}`,
		"pagarme_null_data":        `{"type":"order.paid","data":null}`,
		"stripe_refund_no_intent":  `{"object":"event","type":"charge.refunded","data":{"object":{"id":"ch_1"}}}`,
	}

	snap := allGateways(t)
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			evt, err := snap.Normalize([]byte(body), http.Header{})

			assert.Nil(t, evt)
			assert.True(t, domain.IsDomainError(err, domain.ErrorCodeValidationMalformedPayload), "got %v", err)
		})
	}
}

func TestSnapshot_DisabledGatewayIsNotDetected(t *testing.T) {
	snap, err := BuildSnapshot([]string{"pagarme"}, Credentials{})
	require.NoError(t, err)

	_, err = snap.Normalize([]byte(`{"event":"PAYMENT_RECEIVED","payment":{"id":"pay_1"}}`), http.Header{})

	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeValidationMalformedPayload))
}

type stubNormalizer struct {
	evt *domain.NormalizedEvent
}

func (s stubNormalizer) Name() string { return "stub" }
func (s stubNormalizer) Detect(map[string]json.RawMessage) bool { return true }

func (s stubNormalizer) Normalize([]byte, http.Header) (*domain.NormalizedEvent, error) {
	return s.evt, nil
}

func TestSnapshot_RejectsEventTypeOutsideVocabulary(t *testing.T) {
	snap := NewSnapshot(stubNormalizer{evt: &domain.NormalizedEvent{
		Gateway:               "stub",
		Type:                  domain.EventType("PAYMENT_TELEPORTED"),
		ExternalTransactionID: "tx_1",
	}})

	evt, err := snap.Normalize([]byte(`{"id":"x"}`), http.Header{})

	assert.Nil(t, evt)
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeValidationMalformedPayload), "got %v", err)
}

func TestBuildSnapshot(t *testing.T) {
	t.Run("keeps_priority_and_dedupes", func(t *testing.T) {
		snap, err := BuildSnapshot([]string{"Stripe", " asaas ", "stripe"}, Credentials{})
		require.NoError(t, err)
		assert.Equal(t, []string{NameStripe, NameAsaas}, snap.Names())
	})

	t.Run("unknown_gateway", func(t *testing.T) {
		_, err := BuildSnapshot([]string{"paypal"}, Credentials{})
		assert.Error(t, err)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := BuildSnapshot(nil, Credentials{})
		assert.Error(t, err)
	})
}

func TestRegistry_Replace(t *testing.T) {
	first := NewSnapshot(NewPagarme())
	reg := NewRegistry(first)

	held := reg.Current()
	reg.Replace(NewSnapshot(NewAsaas("")))

	assert.Equal(t, []string{NamePagarme}, held.Names())
	assert.Equal(t, []string{NameAsaas}, reg.Current().Names())
}

func TestAsaas_AccessToken(t *testing.T) {
	snap := NewSnapshot(NewAsaas("tok_secret"))
	body := []byte(`{"event":"PAYMENT_RECEIVED","payment":{"id":"pay_1"}}`)

	_, err := snap.Normalize(body, http.Header{})
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeValidationUnauthorized))

	h := http.Header{}
	h.Set("asaas-access-token", "tok_secret")
	evt, err := snap.Normalize(body, h)
	require.NoError(t, err)
	assert.Equal(t, "pay_1", evt.ExternalTransactionID)
}

func TestStripe_Signature(t *testing.T) {
	now := time.Unix(1_760_000_000, 0)
	secret := "whsec_test"
	body := []byte(`{"id":"evt_1","object":"event","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1"}}}`)

	sign := func(ts int64, key string) string {
		mac := hmac.New(sha256.New, []byte(key))
		mac.Write([]byte(fmt.Sprintf("%d.%s", ts, body)))
		return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
	}

	stripe := NewStripe(secret)
	stripe.now = func() time.Time { return now }
	snap := NewSnapshot(stripe)

	tests := []struct {
		name   string
		header string
		ok     bool
	}{
		{"valid", sign(now.Unix(), secret), true},
		{"wrong_secret", sign(now.Unix(), "other"), false},
		{"too_old", sign(now.Add(-10*time.Minute).Unix(), secret), false},
		{"missing", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.header != "" {
				h.Set("Stripe-Signature", tt.header)
			}

			evt, err := snap.Normalize(body, h)
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, "pi_1", evt.ExternalTransactionID)
				return
			}
			assert.True(t, domain.IsDomainError(err, domain.ErrorCodeValidationUnauthorized), "got %v", err)
		})
	}
}
