// Command dispatch runs one webhook dispatcher cycle and exits. It is the
// manual on-demand trigger; the scheduled path is POST /cron/dispatch-webhooks.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/kevin07696/settlement-service/internal/adapters/database"
	"github.com/kevin07696/settlement-service/internal/adapters/postgres"
	"github.com/kevin07696/settlement-service/internal/adapters/secrets"
	"github.com/kevin07696/settlement-service/internal/config"
	"github.com/kevin07696/settlement-service/internal/services/webhook"
	pkghttp "github.com/kevin07696/settlement-service/pkg/http"
)

var (
	flags      = flag.NewFlagSet("dispatch", flag.ExitOnError)
	maxBatches = flags.Int("max-batches", 0, "batches to claim (default WEBHOOK_MAX_BATCHES)")
	batchSize  = flags.Int("batch-size", 0, "jobs per batch (default WEBHOOK_BATCH_SIZE)")
)

func main() {
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Dispatch failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	store, err := secrets.NewFromConfig(ctx, cfg.Secrets, logger)
	if err != nil {
		return err
	}
	if err := secrets.ResolveAll(ctx, store, &cfg.Database.URL); err != nil {
		return err
	}

	dbCfg := database.DefaultPostgreSQLConfig(cfg.Database.URL)
	dbCfg.MaxConns = int32(cfg.Delivery.Concurrency) + 2
	dbCfg.MinConns = 1
	dbAdapter, err := database.NewPostgreSQLAdapter(ctx, dbCfg, logger)
	if err != nil {
		return err
	}
	defer dbAdapter.Close()

	db := postgres.NewDBExecutor(dbAdapter.Pool())
	timeouts := cfg.Timeouts()

	queue := webhook.NewQueue(
		postgres.NewDeliveryJobRepository(db),
		postgres.NewDeliveryLogRepository(db),
		pkghttp.NewWebhookClient(pkghttp.WebhookClientConfig(cfg.Delivery.Timeout)),
		timeouts,
		logger,
	)

	dcfg := webhook.DispatcherConfig{
		BatchSize:   cfg.Delivery.BatchSize,
		MaxBatches:  cfg.Delivery.MaxBatches,
		Concurrency: cfg.Delivery.Concurrency,
	}
	if *batchSize > 0 {
		dcfg.BatchSize = *batchSize
	}
	if *maxBatches > 0 {
		dcfg.MaxBatches = *maxBatches
	}

	runCtx, cancel := timeouts.CronContext(ctx)
	defer cancel()

	stats, err := webhook.NewDispatcher(queue, dcfg, logger).Run(runCtx)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	if stats.Errors > 0 {
		return fmt.Errorf("%d jobs could not be settled", stats.Errors)
	}
	return nil
}
