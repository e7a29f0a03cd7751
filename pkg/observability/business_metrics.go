package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Inbound gateway callback metrics
	inboundWebhooksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inbound_webhooks_total",
		Help: "Total gateway callbacks received",
	}, []string{
		"gateway",    // asaas, pagarme, stripe, unknown
		"event_type", // internal event type, or "unmapped"
		"outcome",    // applied, duplicate, no_op, malformed, failed
	})

	inboundProcessingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inbound_webhook_duration_seconds",
		Help:    "Time to process a gateway callback end-to-end",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{
		"gateway",
	})

	// Settlement metrics
	settlementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlements_total",
		Help: "Orders settled into paid",
	}, []string{
		"payment_method",
	})

	platformFeeCents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "platform_fee_cents_total",
		Help: "Platform fees retained, in minor currency units",
	}, []string{
		"payment_method",
	})

	producerShareCents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "producer_share_cents_total",
		Help: "Producer shares credited, in minor currency units",
	}, []string{
		"payment_method",
	})

	reversalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_reversals_total",
		Help: "Paid orders reversed by refund or chargeback",
	}, []string{
		"status", // refunded, chargeback
	})

	// Ticket inventory metrics
	ticketBatchAdvancesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ticket_batch_advances_total",
		Help: "Ticket batches that sold out and handed over to the next tier",
	})

	// Post-commit side effect failures
	sideEffectFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inbound_side_effect_failures_total",
		Help: "Best-effort side effects that failed after the order transition committed",
	}, []string{
		"effect",
	})

	// Webhook delivery metrics
	webhookDeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_deliveries_total",
		Help: "Total webhook delivery attempts",
	}, []string{
		"event_type",
		"status", // delivered, retrying, failed
	})

	webhookDeliveryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "webhook_delivery_duration_seconds",
		Help:    "Time to deliver webhook",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{
		"event_type",
	})

	deliveryJobsEnqueued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_jobs_enqueued_total",
		Help: "Delivery jobs created by event fan-out",
	}, []string{
		"event_type",
	})

	dispatcherClaimSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "webhook_dispatcher_claim_size",
		Help:    "Jobs claimed per dispatcher batch",
		Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
	})

	staleClaimsReleased = promauto.NewCounter(prometheus.CounterOpts{
		Name: "webhook_stale_claims_released_total",
		Help: "Processing claims returned to pending after the lease expired",
	})
)

// RecordInboundWebhook records the outcome of one gateway callback
func RecordInboundWebhook(gateway, eventType, outcome string, duration float64) {
	inboundWebhooksTotal.WithLabelValues(gateway, eventType, outcome).Inc()
	inboundProcessingDuration.WithLabelValues(gateway).Observe(duration)
}

// RecordSettlement records the amounts of an order settled into paid
func RecordSettlement(paymentMethod string, feeCents, shareCents int64) {
	settlementsTotal.WithLabelValues(paymentMethod).Inc()
	platformFeeCents.WithLabelValues(paymentMethod).Add(float64(feeCents))
	producerShareCents.WithLabelValues(paymentMethod).Add(float64(shareCents))
}

// RecordReversal records a paid order moving to refunded or chargeback
func RecordReversal(status string) {
	reversalsTotal.WithLabelValues(status).Inc()
}

// RecordTicketBatchAdvance records a sold-out batch handing over to the next tier
func RecordTicketBatchAdvance() {
	ticketBatchAdvancesTotal.Inc()
}

// RecordSideEffectFailure records a best-effort effect that failed
func RecordSideEffectFailure(effect string) {
	sideEffectFailuresTotal.WithLabelValues(effect).Inc()
}

// RecordWebhookDelivery records webhook delivery
func RecordWebhookDelivery(eventType, status string, duration float64) {
	webhookDeliveriesTotal.WithLabelValues(eventType, status).Inc()
	webhookDeliveryDuration.WithLabelValues(eventType).Observe(duration)
}

// RecordJobsEnqueued records delivery jobs created for one event
func RecordJobsEnqueued(eventType string, count int) {
	deliveryJobsEnqueued.WithLabelValues(eventType).Add(float64(count))
}

// RecordClaim records the size of one claimed dispatcher batch
func RecordClaim(size int) {
	dispatcherClaimSize.Observe(float64(size))
}

// RecordStaleClaimsReleased records claims recovered from crashed or stuck workers
func RecordStaleClaimsReleased(count int64) {
	staleClaimsReleased.Add(float64(count))
}
