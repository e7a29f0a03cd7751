package inbound

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kevin07696/settlement-service/pkg/observability"
)

// effect is one step that follows a committed status transition. A fatal effect
// aborts the request when it fails; a best-effort effect is logged and skipped.
type effect struct {
	name  string
	fatal bool
	run   func(ctx context.Context) error
}

// effect names, also used as the metric label for best-effort failures
const (
	effectCreditBalance = "credit_balance"
	effectDebitBalance  = "debit_balance"
	effectBuyerAccess   = "buyer_access"
	effectTicketBatch   = "ticket_batch"
	effectEventLog      = "event_log"
	effectNotification  = "notification"
	effectPublish       = "publish_event"
)

// runEffects executes effects in order. Each best-effort effect gets its own context
// detached from the request, so a slow or failing one never blocks the next.
func (p *Processor) runEffects(ctx context.Context, orderID string, effects []effect) error {
	for _, e := range effects {
		if e.fatal {
			if err := e.run(ctx); err != nil {
				return fmt.Errorf("%s: %w", e.name, err)
			}
			continue
		}

		p.runBestEffort(ctx, orderID, e)
	}
	return nil
}

func (p *Processor) runBestEffort(ctx context.Context, orderID string, e effect) {
	ectx, cancel := p.timeouts.BestEffortContext(ctx)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			observability.RecordSideEffectFailure(e.name)
			p.logger.Error("Side effect panicked",
				zap.String("effect", e.name),
				zap.String("order_id", orderID),
				zap.Any("panic", r),
			)
		}
	}()

	if err := e.run(ectx); err != nil {
		observability.RecordSideEffectFailure(e.name)
		p.logger.Warn("Side effect failed",
			zap.String("effect", e.name),
			zap.String("order_id", orderID),
			zap.Error(err),
		)
	}
}
