// Package inbound applies normalized gateway callbacks to orders: the status
// state machine, settlement, inventory, and the post-commit effects that follow.
package inbound

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kevin07696/settlement-service/internal/domain"
	"github.com/kevin07696/settlement-service/internal/domain/ports"
	"github.com/kevin07696/settlement-service/internal/services/settlement"
	"github.com/kevin07696/settlement-service/pkg/observability"
	"github.com/kevin07696/settlement-service/pkg/resilience"
	"github.com/kevin07696/settlement-service/pkg/timeutil"
)

// Outcome describes what a callback did to its order.
type Outcome string

const (
	OutcomeApplied           Outcome = "applied"            // status changed, effects ran
	OutcomeRecorded          Outcome = "recorded"           // informational event, status untouched
	OutcomeDuplicate         Outcome = "duplicate"          // order already in the target status
	OutcomeInvalidTransition Outcome = "invalid_transition" // transition not allowed, event logged only
	OutcomeIgnored           Outcome = "ignored"            // no order matches the transaction id
)

// Result is returned for every acknowledged callback.
type Result struct {
	Outcome      Outcome
	OrderID      string
	EventID      string
	EventType    domain.EventType
	JobsEnqueued int
}

// EventRecorder appends to the event log and queues webhook fan-out.
type EventRecorder interface {
	Record(ctx context.Context, order *domain.Order, t domain.EventType, metadata map[string]interface{}) (*domain.TransactionEvent, int, error)
}

// Dependencies groups the collaborators of a Processor.
type Dependencies struct {
	Orders        ports.OrderRepository
	Balances      ports.BalanceRepository
	Fees          ports.FeeConfigRepository
	Batches       ports.TicketBatchRepository
	Buyers        ports.BuyerRepository
	Notifications ports.NotificationRepository
	Recorder      EventRecorder
	Publisher     ports.EventPublisher // optional
}

// Processor is the inbound webhook processor. It holds no per-request state and
// is safe for concurrent use.
type Processor struct {
	deps     Dependencies
	timeouts *resilience.TimeoutConfig
	logger   *zap.Logger
	now      func() time.Time
}

// NewProcessor creates a new inbound processor
func NewProcessor(deps Dependencies, timeouts *resilience.TimeoutConfig, logger *zap.Logger) *Processor {
	if timeouts == nil {
		timeouts = resilience.DefaultTimeoutConfig()
	}
	return &Processor{
		deps:     deps,
		timeouts: timeouts,
		logger:   logger,
		now:      timeutil.Now,
	}
}

// Process applies one normalized callback.
//
// An unmatched transaction id is acknowledged with OutcomeIgnored and no error.
// Once the order's status change is durable, every other step is best-effort
// except appending the transaction event, whose failure fails the call so the
// gateway redelivers. Redelivery then takes the duplicate path and only logs.
func (p *Processor) Process(ctx context.Context, evt *domain.NormalizedEvent) (res *Result, err error) {
	start := time.Now()
	defer func() {
		outcome := "error"
		if err == nil {
			outcome = string(res.Outcome)
		}
		observability.RecordInboundWebhook(evt.Gateway, string(evt.Type), outcome, time.Since(start).Seconds())
	}()

	order, err := p.deps.Orders.GetByExternalID(ctx, nil, evt.Gateway, evt.ExternalTransactionID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			p.logger.Info("No order for gateway transaction, ignoring",
				zap.String("gateway", evt.Gateway),
				zap.String("external_transaction_id", evt.ExternalTransactionID),
				zap.String("event_type", string(evt.Type)),
			)
			return &Result{Outcome: OutcomeIgnored, EventType: evt.Type}, nil
		}
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "look up order", err)
	}

	logger := p.logger.With(
		zap.String("order_id", order.ID),
		zap.String("event_type", string(evt.Type)),
		zap.String("gateway", evt.Gateway),
	)

	var (
		outcome Outcome
		effects []effect
	)

	target, changesStatus := evt.Type.TargetStatus()
	switch {
	case !changesStatus:
		outcome = OutcomeRecorded

	case order.Status == target:
		outcome = OutcomeDuplicate
		logger.Info("Order already in target status, logging event only",
			zap.String("status", string(order.Status)),
		)

	case !domain.CanTransition(order.Status, target):
		outcome = OutcomeInvalidTransition
		logger.Warn("Order status transition not allowed, logging event only",
			zap.String("from", string(order.Status)),
			zap.String("to", string(target)),
		)

	case target == domain.OrderStatusPaid:
		var updated *domain.Order
		updated, outcome, effects, err = p.settle(ctx, order, logger)
		if err != nil {
			return nil, err
		}
		order = updated

	default:
		var updated *domain.Order
		updated, outcome, effects, err = p.transition(ctx, order, target, logger)
		if err != nil {
			return nil, err
		}
		order = updated
	}

	res = &Result{Outcome: outcome, OrderID: order.ID, EventType: evt.Type}

	var event *domain.TransactionEvent
	effects = append(effects, effect{
		name:  effectEventLog,
		fatal: true,
		run: func(ctx context.Context) error {
			var jobs int
			var err error
			event, jobs, err = p.deps.Recorder.Record(ctx, order, evt.Type, eventMetadata(evt, outcome))
			if err != nil {
				return err
			}
			res.EventID = event.ID
			res.JobsEnqueued = jobs
			return nil
		},
	})
	if outcome == OutcomeApplied || outcome == OutcomeRecorded {
		effects = append(effects, p.notifyEffect(order, evt.Type))
	}
	if p.deps.Publisher != nil {
		effects = append(effects, effect{
			name: effectPublish,
			run: func(ctx context.Context) error {
				return p.deps.Publisher.Publish(ctx, event, order)
			},
		})
	}

	if err := p.runEffects(ctx, order.ID, effects); err != nil {
		logger.Error("Failed to process gateway callback", zap.Error(err))
		return nil, err
	}

	logger.Info("Gateway callback processed",
		zap.String("outcome", string(outcome)),
		zap.String("event_id", res.EventID),
		zap.Int("jobs_enqueued", res.JobsEnqueued),
	)
	return res, nil
}

// settle computes the settlement and moves the order to paid in one conditional
// update. It returns the effects that only a fresh approval may run.
func (p *Processor) settle(ctx context.Context, order *domain.Order, logger *zap.Logger) (*domain.Order, Outcome, []effect, error) {
	cfg, err := p.deps.Fees.GetEffective(ctx, order.ProducerID)
	if err != nil {
		return nil, "", nil, domain.WrapError(domain.ErrorCodeDatabaseError, "load fee configuration", err)
	}

	s, err := settlement.Calculate(order, cfg, p.now().UTC())
	if err != nil {
		logger.Error("Settlement calculation failed", zap.Error(err))
		return nil, "", nil, err
	}

	updated, applied, err := p.deps.Orders.MarkPaid(ctx, nil, order.ID, s, domain.AllowedPredecessors(domain.OrderStatusPaid))
	if err != nil {
		return nil, "", nil, domain.WrapError(domain.ErrorCodeDatabaseError, "mark order paid", err)
	}
	if !applied {
		// A concurrent delivery of the same callback won the conditional update.
		logger.Info("Order settled concurrently, logging event only")
		if updated == nil {
			updated = order
		}
		return updated, OutcomeDuplicate, nil, nil
	}

	observability.RecordSettlement(string(updated.PaymentMethod), s.PlatformFeeCents, s.ProducerShareCents)
	logger.Info("Order settled",
		zap.Int64("base_cents", s.BaseCents),
		zap.Int64("platform_fee_cents", s.PlatformFeeCents),
		zap.Int64("producer_share_cents", s.ProducerShareCents),
		zap.Int64("security_reserve_cents", s.SecurityReserveCents),
		zap.Time("release_at", s.ReleaseAt),
	)

	effects := []effect{
		{
			name: effectCreditBalance,
			run: func(ctx context.Context) error {
				return p.deps.Balances.Credit(ctx, nil, updated.ProducerID, s.ProducerShareCents)
			},
		},
		{
			name: effectBuyerAccess,
			run: func(ctx context.Context) error {
				return p.grantBuyerAccess(ctx, updated)
			},
		},
	}
	if updated.HasTicketBatch() {
		effects = append(effects, effect{
			name: effectTicketBatch,
			run: func(ctx context.Context) error {
				return p.advanceTicketBatch(ctx, updated, logger)
			},
		})
	}

	return updated, OutcomeApplied, effects, nil
}

// transition applies a refusal, refund or chargeback. Reversing a paid order cancels
// its payout and debits the share that was credited when it settled.
func (p *Processor) transition(ctx context.Context, order *domain.Order, target domain.OrderStatus, logger *zap.Logger) (*domain.Order, Outcome, []effect, error) {
	reversal := order.Status == domain.OrderStatusPaid &&
		(target == domain.OrderStatusRefunded || target == domain.OrderStatusChargeback)

	var payout *domain.PayoutStatus
	if reversal {
		cancelled := domain.PayoutStatusCancelled
		payout = &cancelled
	}

	updated, applied, err := p.deps.Orders.TransitionStatus(ctx, nil, order.ID, target, domain.AllowedPredecessors(target), payout)
	if err != nil {
		return nil, "", nil, domain.WrapError(domain.ErrorCodeDatabaseError, "transition order status", err)
	}
	if !applied {
		logger.Info("Order status changed concurrently, logging event only")
		if updated == nil {
			updated = order
		}
		return updated, OutcomeDuplicate, nil, nil
	}

	logger.Info("Order status updated",
		zap.String("from", string(order.Status)),
		zap.String("to", string(target)),
	)

	if !reversal {
		return updated, OutcomeApplied, nil, nil
	}

	observability.RecordReversal(string(target))
	share := order.ProducerShareCents
	return updated, OutcomeApplied, []effect{{
		name: effectDebitBalance,
		run: func(ctx context.Context) error {
			if share <= 0 {
				return nil
			}
			return p.deps.Balances.Debit(ctx, nil, updated.ProducerID, share)
		},
	}}, nil
}

func (p *Processor) grantBuyerAccess(ctx context.Context, order *domain.Order) error {
	if order.BuyerEmail == "" {
		return nil
	}

	buyer, err := p.deps.Buyers.UpsertByEmail(ctx, order.BuyerEmail, order.BuyerName)
	if err != nil {
		return fmt.Errorf("upsert buyer: %w", err)
	}

	enrolled, err := p.deps.Buyers.EnrollIfMapped(ctx, buyer.UserID, order.ProductID, order.ID)
	if err != nil {
		return fmt.Errorf("enroll buyer: %w", err)
	}

	p.logger.Debug("Buyer access granted",
		zap.String("order_id", order.ID),
		zap.String("user_id", buyer.UserID),
		zap.Bool("user_created", buyer.Created),
		zap.Bool("enrolled", enrolled),
	)
	return nil
}

func (p *Processor) advanceTicketBatch(ctx context.Context, order *domain.Order, logger *zap.Logger) error {
	inc, err := p.deps.Batches.IncrementSold(ctx, *order.TicketBatchID)
	if err != nil {
		return fmt.Errorf("increment batch %s: %w", *order.TicketBatchID, err)
	}

	if inc.Advanced {
		observability.RecordTicketBatchAdvance()
		fields := []zap.Field{
			zap.String("batch_id", inc.Batch.ID),
			zap.Int("sold_quantity", inc.Batch.SoldQuantity),
		}
		if inc.NextID != nil {
			fields = append(fields, zap.String("next_batch_id", *inc.NextID))
		}
		logger.Info("Ticket batch sold out", fields...)
	}
	return nil
}

func (p *Processor) notifyEffect(order *domain.Order, t domain.EventType) effect {
	return effect{
		name: effectNotification,
		run: func(ctx context.Context) error {
			enabled, found, err := p.deps.Notifications.Preference(ctx, order.ProducerID, t)
			if err != nil {
				return fmt.Errorf("load notification preference: %w", err)
			}
			if !found {
				enabled = domain.NotifiesByDefault(t)
			}
			if !enabled {
				return nil
			}

			title, body := notificationText(t, order)
			return p.deps.Notifications.Create(ctx, &domain.Notification{
				ID:        uuid.NewString(),
				UserID:    order.ProducerID,
				OrderID:   order.ID,
				EventType: t,
				Title:     title,
				Body:      body,
				CreatedAt: p.now().UTC(),
			})
		},
	}
}

func eventMetadata(evt *domain.NormalizedEvent, outcome Outcome) map[string]interface{} {
	md := make(map[string]interface{}, len(evt.Metadata)+5)
	for k, v := range evt.Metadata {
		md[k] = v
	}
	md["gateway"] = evt.Gateway
	md["external_transaction_id"] = evt.ExternalTransactionID
	md["raw_status"] = evt.RawStatus
	md["outcome"] = string(outcome)
	if evt.RawEventID != "" {
		md["raw_event_id"] = evt.RawEventID
	}
	return md
}
