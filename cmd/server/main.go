package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/kevin07696/settlement-service/internal/adapters/database"
	"github.com/kevin07696/settlement-service/internal/adapters/secrets"
	"github.com/kevin07696/settlement-service/internal/config"
	"github.com/kevin07696/settlement-service/pkg/middleware"
	"github.com/kevin07696/settlement-service/pkg/observability"
	"github.com/kevin07696/settlement-service/pkg/resilience"
	"github.com/kevin07696/settlement-service/pkg/shutdown"
)

const (
	version = "0.1.0"

	shutdownTimeout     = 30 * time.Second
	healthCheckInterval = 15 * time.Second
	poolMonitorInterval = 30 * time.Second
	startupAttempts     = 8
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)
	defer logger.Sync()

	logger.Info("Starting settlement service",
		zap.String("version", version),
		zap.String("environment", cfg.Environment),
	)

	ctx := context.Background()

	secretStore, err := secrets.NewFromConfig(ctx, cfg.Secrets, logger)
	if err != nil {
		logger.Fatal("Failed to initialize secret store", zap.Error(err))
	}
	if err := resolveSecrets(ctx, cfg, secretStore); err != nil {
		logger.Fatal("Failed to resolve secrets", zap.Error(err))
	}

	shutdownMgr := shutdown.NewManager(logger, shutdownTimeout)

	dbAdapter, err := connectDatabase(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	shutdownMgr.RegisterNoErr("database", dbAdapter.Close)

	monitorCtx, stopMonitor := context.WithCancel(ctx)
	dbAdapter.StartPoolMonitoring(monitorCtx, poolMonitorInterval)
	shutdownMgr.RegisterNoErr("pool_monitor", stopMonitor)

	healthChecker := observability.NewHealthChecker(dbAdapter.Pool())

	deps, err := initDependencies(ctx, cfg, dbAdapter, healthChecker, shutdownMgr, logger)
	if err != nil {
		logger.Fatal("Failed to initialize dependencies", zap.Error(err))
	}

	// In-process dispatch is optional; the external cron trigger always works.
	if cfg.Delivery.Interval > 0 {
		dispatchWorker := shutdown.NewPeriodicWorker("webhook_dispatcher", cfg.Delivery.Interval, logger)
		dispatchWorker.Start(func(ctx context.Context) {
			runCtx, cancel := deps.timeouts.CronContext(ctx)
			defer cancel()
			if _, err := deps.dispatcher.Run(runCtx); err != nil {
				logger.Error("Scheduled webhook dispatch failed", zap.Error(err))
			}
		})
		shutdownMgr.Register("webhook_dispatcher", dispatchWorker.Shutdown)
	}

	rateLimiter := middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst, logger)
	shutdownMgr.RegisterNoErr("rate_limiter", rateLimiter.Shutdown)

	router, err := newRouter(deps, rateLimiter, healthChecker, cfg.IsProduction(), logger)
	if err != nil {
		logger.Fatal("Failed to build router", zap.Error(err))
	}

	// gRPC port carries the standard health service for orchestrators
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			observability.UnaryServerInterceptor(),
			loggingInterceptor(logger),
			recoveryInterceptor(logger),
		),
	)
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthChecker.AttachGRPC(healthServer)
	reflection.Register(grpcServer)

	healthWorker := shutdown.NewPeriodicWorker("health_check", healthCheckInterval, logger)
	healthWorker.Start(func(ctx context.Context) {
		healthChecker.Check(ctx)
	})
	shutdownMgr.Register("health_check", healthWorker.Shutdown)

	metricsServer := observability.StartMetricsServer(cfg.Server.MetricsPort, healthChecker, logger)
	shutdownMgr.Register("metrics_server", func(ctx context.Context) error {
		return observability.ShutdownMetricsServer(ctx, metricsServer)
	})

	listener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.GRPCPort))
	if err != nil {
		logger.Fatal("Failed to listen", zap.Error(err))
	}
	go func() {
		logger.Info("gRPC server listening",
			zap.String("address", listener.Addr().String()),
		)
		if err := grpcServer.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			logger.Error("gRPC server error", zap.Error(err))
		}
	}()
	shutdownMgr.Register("grpc_server", func(ctx context.Context) error {
		healthServer.Shutdown()
		stopped := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
			return nil
		case <-ctx.Done():
			grpcServer.Stop()
			return ctx.Err()
		}
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		logger.Info("HTTP server listening",
			zap.String("address", httpServer.Addr),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to serve HTTP", zap.Error(err))
		}
	}()
	// Registered last so they stop first; in-flight trackers then drain.
	shutdownMgr.RegisterHTTPServer("http_server", httpServer)
	shutdownMgr.RegisterNoErr("readiness", healthChecker.MarkNotReady)

	shutdownMgr.WaitForShutdown()
	logger.Info("Settlement service stopped")
}

// initLogger builds the production JSON logger, or the development console
// logger when LOG_DEVELOPMENT is set outside production.
func initLogger(cfg *config.Config) *zap.Logger {
	if cfg.Logger.Development && !cfg.IsProduction() {
		logger, err := zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
		return logger
	}

	level := zapcore.InfoLevel
	if err := level.UnmarshalText([]byte(cfg.Logger.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	logger, err := zapCfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}

// connectDatabase opens the pool, retrying while the database comes up
func connectDatabase(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*database.PostgreSQLAdapter, error) {
	dbCfg := database.DefaultPostgreSQLConfig(cfg.URL)
	dbCfg.MaxConns = cfg.MaxConns
	dbCfg.MinConns = cfg.MinConns
	dbCfg.MaxConnLifetime = cfg.MaxConnLifetime
	dbCfg.MaxConnIdleTime = cfg.MaxConnIdleTime

	var adapter *database.PostgreSQLAdapter
	err := resilience.Retry(ctx, startupAttempts, resilience.GatewayBackoff(),
		func(ctx context.Context) error {
			connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()

			var err error
			adapter, err = database.NewPostgreSQLAdapter(connectCtx, dbCfg, logger)
			return err
		},
		func(attempt int, delay time.Duration, err error) {
			logger.Warn("Database not ready, retrying",
				zap.Int("attempt", attempt),
				zap.Duration("retry_in", delay),
				zap.Error(err),
			)
		},
	)
	if err != nil {
		return nil, err
	}
	return adapter, nil
}
