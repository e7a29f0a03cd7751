package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kevin07696/settlement-service/internal/adapters/cache"
	"github.com/kevin07696/settlement-service/internal/adapters/database"
	"github.com/kevin07696/settlement-service/internal/adapters/eventbus"
	"github.com/kevin07696/settlement-service/internal/adapters/postgres"
	"github.com/kevin07696/settlement-service/internal/config"
	"github.com/kevin07696/settlement-service/internal/domain/ports"
	cronHandler "github.com/kevin07696/settlement-service/internal/handlers/cron"
	deliveriesHandler "github.com/kevin07696/settlement-service/internal/handlers/deliveries"
	gatewayHandler "github.com/kevin07696/settlement-service/internal/handlers/gateway"
	"github.com/kevin07696/settlement-service/internal/services/eventlog"
	"github.com/kevin07696/settlement-service/internal/services/gateway"
	"github.com/kevin07696/settlement-service/internal/services/inbound"
	"github.com/kevin07696/settlement-service/internal/services/webhook"
	pkghttp "github.com/kevin07696/settlement-service/pkg/http"
	"github.com/kevin07696/settlement-service/pkg/observability"
	"github.com/kevin07696/settlement-service/pkg/resilience"
	"github.com/kevin07696/settlement-service/pkg/shutdown"
)

// Dependencies holds all initialized services and handlers
type Dependencies struct {
	timeouts   *resilience.TimeoutConfig
	dispatcher *webhook.Dispatcher

	webhookHandler    *gatewayHandler.WebhookHandler
	dispatchHandler   *cronHandler.DispatchHandler
	deliveriesHandler *deliveriesHandler.Handler
}

// initDependencies wires repositories, optional Redis and Kafka adapters,
// services and handlers. Optional adapters register their own shutdown.
func initDependencies(
	ctx context.Context,
	cfg *config.Config,
	dbAdapter *database.PostgreSQLAdapter,
	healthChecker *observability.HealthChecker,
	shutdownMgr *shutdown.Manager,
	logger *zap.Logger,
) (*Dependencies, error) {
	timeouts := cfg.Timeouts()
	db := postgres.NewDBExecutor(dbAdapter.Pool())

	orders := postgres.NewOrderRepository(db)
	balances := postgres.NewBalanceRepository(db)
	batches := postgres.NewTicketBatchRepository(db)
	buyers := postgres.NewBuyerRepository(db)
	notifications := postgres.NewNotificationRepository(db)
	events := postgres.NewEventRepository(db)
	endpoints := postgres.NewEndpointRepository(db)
	jobs := postgres.NewDeliveryJobRepository(db)
	logs := postgres.NewDeliveryLogRepository(db)

	var fees ports.FeeConfigRepository = postgres.NewFeeConfigRepository(db)
	if cfg.Redis.URL != "" {
		client, err := connectRedis(ctx, cfg.Redis.URL, logger)
		if err != nil {
			return nil, err
		}
		shutdownMgr.RegisterCloser("redis", client)
		healthChecker.AddCheck("redis", observability.PingFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}))

		fees = cache.NewFeeConfigCache(client, fees, cfg.Redis.FeeConfigTTL, logger)
		logger.Info("Fee configuration cache enabled",
			zap.Duration("ttl", cfg.Redis.FeeConfigTTL),
		)
	}

	var publisher ports.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kp, err := eventbus.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, nil)
		if err != nil {
			return nil, fmt.Errorf("init kafka publisher: %w", err)
		}
		shutdownMgr.RegisterCloser("kafka_publisher", kp)
		publisher = kp
		logger.Info("Transaction event mirror enabled",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic),
		)
	}

	snap, err := gateway.BuildSnapshot(cfg.Gateways.Enabled, gateway.Credentials{
		AsaasAccessToken:    cfg.Gateways.AsaasAccessToken,
		StripeSigningSecret: cfg.Gateways.StripeSigningSecret,
	})
	if err != nil {
		return nil, fmt.Errorf("build gateway snapshot: %w", err)
	}
	registry := gateway.NewRegistry(snap)
	logger.Info("Gateways enabled", zap.Strings("priority", snap.Names()))

	recorder := eventlog.NewRecorder(db, events, endpoints, jobs, cfg.Delivery.MaxAttempts, logger)

	processor := inbound.NewProcessor(inbound.Dependencies{
		Orders:        orders,
		Balances:      balances,
		Fees:          fees,
		Batches:       batches,
		Buyers:        buyers,
		Notifications: notifications,
		Recorder:      recorder,
		Publisher:     publisher,
	}, timeouts, logger)

	webhookClient := pkghttp.NewWebhookClient(pkghttp.WebhookClientConfig(cfg.Delivery.Timeout))
	queue := webhook.NewQueue(jobs, logs, webhookClient, timeouts, logger)
	dispatcher := webhook.NewDispatcher(queue, webhook.DispatcherConfig{
		BatchSize:   cfg.Delivery.BatchSize,
		MaxBatches:  cfg.Delivery.MaxBatches,
		Concurrency: cfg.Delivery.Concurrency,
	}, logger)

	webhookInFlight := shutdown.NewInFlightTracker("gateway_webhooks", logger)
	shutdownMgr.Register("gateway_webhooks", webhookInFlight.Shutdown)
	dispatchInFlight := shutdown.NewInFlightTracker("cron_dispatch", logger)
	shutdownMgr.Register("cron_dispatch", dispatchInFlight.Shutdown)

	return &Dependencies{
		timeouts:          timeouts,
		dispatcher:        dispatcher,
		webhookHandler:    gatewayHandler.NewWebhookHandler(registry, processor, webhookInFlight, timeouts, logger),
		dispatchHandler:   cronHandler.NewDispatchHandler(dispatcher, dispatchInFlight, timeouts, logger, cfg.Cron.Secret),
		deliveriesHandler: deliveriesHandler.NewHandler(db, endpoints, jobs, logs, events, timeouts, logger),
	}, nil
}

// connectRedis connects to the fee configuration cache, retrying while Redis comes up
func connectRedis(ctx context.Context, url string, logger *zap.Logger) (*redis.Client, error) {
	var client *redis.Client
	err := resilience.Retry(ctx, startupAttempts, resilience.GatewayBackoff(),
		func(ctx context.Context) error {
			connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()

			var err error
			client, err = cache.Connect(connectCtx, url)
			return err
		},
		func(attempt int, delay time.Duration, err error) {
			logger.Warn("Redis not ready, retrying",
				zap.Int("attempt", attempt),
				zap.Duration("retry_in", delay),
				zap.Error(err),
			)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return client, nil
}
