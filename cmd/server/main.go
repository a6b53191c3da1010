// Package main is the entry point for the payment server.
// It initializes all dependencies, sets up the HTTP server,
// and starts the application.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"instantpay/internal/config"
	"instantpay/internal/handlers"
	"instantpay/internal/logger"
	"instantpay/internal/metrics"
	"instantpay/internal/middleware"
	"instantpay/internal/repositories"
	"instantpay/internal/routes"
	"instantpay/internal/services/notification"
	"instantpay/internal/services/resilience"
	"instantpay/internal/services/transfer"
	"instantpay/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// stores bundles the repositories the server runs on.
type stores struct {
	accounts  repositories.AccountRepository
	transfers repositories.TransferRepository
	checks    []handlers.HealthCheck
	close     func()
}

func main() {
	config.LoadEnv()

	log, err := logger.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(log *zap.Logger) error {
	st, err := openStores(log)
	if err != nil {
		return err
	}
	defer st.close()

	collector := metrics.NewCollector(prometheus.DefaultRegisterer)

	sink, closeSink := newSink(log)
	defer closeSink()
	dispatcher := notification.NewDispatcher(sink, notification.LoadDispatcherConfig(), collector, log.Named("notification"))

	engine := transfer.NewService(
		st.accounts,
		st.transfers,
		dispatcher,
		transfer.Config{RejectSelfTransfer: config.GetBoolEnv("TRANSFER_REJECT_SELF", false)},
		collector,
		log.Named("transfer"),
	)
	guard := resilience.New("payments", resilience.LoadConfig(), collector, log.Named("resilience"))

	mwCfg := middleware.LoadConfig()
	app := fiber.New(fiber.Config{
		AppName:      "instantpay",
		ErrorHandler: middleware.ErrorHandler(log),
		ReadTimeout:  config.GetDurationEnv("HTTP_READ_TIMEOUT", 10*time.Second),
		WriteTimeout: config.GetDurationEnv("HTTP_WRITE_TIMEOUT", 30*time.Second),
	})
	middleware.Setup(app, mwCfg)
	routes.SetupRoutes(app, routes.Handlers{
		Payments:     handlers.NewPaymentHandler(guard.Wrap(engine), st.transfers, validation.New(), log.Named("http")),
		Accounts:     handlers.NewAccountHandler(st.accounts),
		Health:       handlers.NewHealthHandler(guard.State, st.checks...),
		RateLimitMax: mwCfg.RateLimitMax,
	})

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + config.GetEnv("PORT", "8080")
		log.Info("http server listening", zap.String("addr", addr))
		errCh <- app.Listen(addr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Warn("http shutdown incomplete", zap.Error(err))
	}
	if err := dispatcher.Close(ctx); err != nil {
		log.Warn("notifications not drained", zap.Error(err))
	}
	return nil
}

// openStores selects Postgres + Redis, or the in-memory store with
// STORE=memory.
func openStores(log *zap.Logger) (*stores, error) {
	if config.GetEnv("STORE", "postgres") == "memory" {
		mem := repositories.NewMemoryStore()
		if err := seedMemory(mem, log); err != nil {
			return nil, err
		}
		log.Warn("using in-memory store, data is lost on restart")
		return &stores{accounts: mem, transfers: mem, close: func() {}}, nil
	}

	if err := repositories.InitDB(log); err != nil {
		return nil, err
	}
	transfers := repositories.NewCachedTransferRepository(
		repositories.NewTransferRepository(repositories.DB),
		repositories.CacheService,
		log.Named("cache"),
	)
	return &stores{
		accounts:  repositories.NewAccountRepository(repositories.DB),
		transfers: transfers,
		checks: []handlers.HealthCheck{
			{Name: "database", Check: repositories.Ping},
			{Name: "redis", Check: repositories.CacheService.HealthCheck},
		},
		close: func() { repositories.Close(log) },
	}, nil
}

// seedMemory loads SEED_ACCOUNTS into the in-memory store.
func seedMemory(mem *repositories.MemoryStore, log *zap.Logger) error {
	accounts, err := repositories.ParseSeedAccounts(config.GetEnv("SEED_ACCOUNTS", ""))
	if err != nil {
		return err
	}
	for _, account := range accounts {
		if err := mem.Create(context.Background(), account); err != nil {
			return fmt.Errorf("failed to seed account %s: %w", account.ID, err)
		}
		log.Info("account seeded", zap.String("accountId", account.ID), zap.String("balance", account.Balance.String()))
	}
	return nil
}

func newSink(log *zap.Logger) (notification.Sink, func()) {
	if !config.GetBoolEnv("KAFKA_ENABLED", false) {
		return notification.NewLogSink(log.Named("notification")), func() {}
	}

	kafkaCfg := notification.LoadKafkaConfig()
	sink := notification.NewKafkaSink(notification.NewKafkaWriter(kafkaCfg, log.Named("kafka")))
	log.Info("kafka notifier enabled",
		zap.Strings("brokers", kafkaCfg.Brokers),
		zap.String("topic", kafkaCfg.Topic),
	)
	return sink, func() {
		if err := sink.Close(); err != nil {
			log.Warn("failed to close kafka writer", zap.Error(err))
		}
	}
}
