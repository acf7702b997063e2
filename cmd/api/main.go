package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/josh-kwaku/tizim-bank/internal/config"
	"github.com/josh-kwaku/tizim-bank/internal/events"
	"github.com/josh-kwaku/tizim-bank/internal/handler"
	"github.com/josh-kwaku/tizim-bank/internal/logging"
	"github.com/josh-kwaku/tizim-bank/internal/media"
	"github.com/josh-kwaku/tizim-bank/internal/middleware"
	"github.com/josh-kwaku/tizim-bank/internal/repository"
	"github.com/josh-kwaku/tizim-bank/internal/service"
	"github.com/josh-kwaku/tizim-bank/internal/service/ledger"
)

// set with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		slog.Error("api exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.Init("tizim-api", cfg.LogLevel, cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := repository.WaitForPostgres(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	}, 30)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	db := repository.NewDB(pool)
	userRepo := repository.NewUserRepository(pool)
	accountRepo := repository.NewAccountRepository(pool)
	ledgerRepo := repository.NewLedgerRepository(pool)
	bankRepo := repository.NewBankRepository(pool)
	outboxRepo := repository.NewOutboxRepository(pool)
	idempotencyRepo := repository.NewIdempotencyRepository(pool)

	store := media.NewStore(cfg.MediaRoot, cfg.MediaMaxBytes)

	ledgerSvc := ledger.NewService(accountRepo, ledgerRepo, outboxRepo, userRepo, db)
	identitySvc := service.NewIdentityService(userRepo, accountRepo, store, db, cfg.BcryptCost)
	bankSvc := service.NewBankService(bankRepo)

	publisher := newPublisher(cfg, logger)
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error("failed to close event publisher", "error", err)
		}
	}()

	dispatcher := service.NewDispatcher(outboxRepo, idempotencyRepo, publisher, db,
		logger.With("component", "outbox"),
		service.DispatcherConfig{
			Interval:    cfg.OutboxPollInterval,
			BatchSize:   cfg.OutboxBatchSize,
			MaxAttempts: cfg.OutboxMaxAttempts,
			Retention:   cfg.OutboxRetention,
		})
	dispatcherDone := make(chan struct{})
	go func() {
		defer close(dispatcherDone)
		dispatcher.Start(ctx)
	}()

	mux := http.NewServeMux()
	registerRoutes(mux, routes{
		cfg:         cfg,
		health:      handler.NewHealthHandler(pool, version),
		auth:        handler.NewAuthHandler(identitySvc, cfg.JWTSecret, cfg.JWTExpiry, cfg.MediaMaxBytes),
		profile:     handler.NewProfileHandler(identitySvc, ledgerSvc, cfg.MediaMaxBytes),
		ledger:      handler.NewLedgerHandler(ledgerSvc, accountRepo),
		banks:       handler.NewBankHandler(bankSvc),
		media:       handler.NewMediaHandler(store, accountRepo),
		idempotency: idempotencyRepo,
		users:       userRepo,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           middleware.Chain(mux, middleware.Recovery, middleware.Tracing, middleware.Logging(logger)),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server started", "addr", addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	<-dispatcherDone
	logger.Info("server stopped")
	return nil
}

func newPublisher(cfg *config.Config, logger *slog.Logger) events.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Info("KAFKA_BROKERS not set, ledger events go to the log")
		return events.NewLogPublisher(logger.With("component", "events"))
	}
	logger.Info("publishing ledger events to kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
}
