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

	"github.com/user01samiul/jx-backend-sub007/internal/auth"
	"github.com/user01samiul/jx-backend-sub007/internal/infra"
	"github.com/user01samiul/jx-backend-sub007/internal/ledger"
	"github.com/user01samiul/jx-backend-sub007/internal/provider"
	"github.com/user01samiul/jx-backend-sub007/internal/repository"
	"github.com/user01samiul/jx-backend-sub007/internal/walletserver"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("wallet server failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := infra.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	pool, err := infra.NewPostgresPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()
	logger.Info("wallet-server connected to postgres")

	if err := infra.RunMigrations(cfg.DSN(), logger); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	// Repositories & ledger
	accountRepo := repository.NewAccountRepository()
	categoryRepo := repository.NewCategoryRepository()
	entryRepo := repository.NewEntryRepository()
	bonusRepo := repository.NewBonusRepository()
	outboxRepo := repository.NewOutboxRepository()
	eng := ledger.NewEngine(accountRepo, categoryRepo, entryRepo, bonusRepo, outboxRepo)

	// Provider auth
	verifier := provider.NewVerifier(cfg.OperatorID, cfg.OperatorSecret)

	// Internal API auth
	jwtMgr := auth.NewJWTManager(cfg.ServiceJWTSecret, cfg.ServiceJWTExpiry)

	metrics := walletserver.NewMetrics()
	server := walletserver.NewServer(pool, eng, verifier, metrics, logger)
	router := walletserver.NewRouter(server, jwtMgr)

	// Outbox -> Kafka mirror feed
	producer := infra.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaEnabled, logger)
	defer producer.Close()
	poller := infra.NewOutboxPoller(pool, producer, cfg.MirrorTopic, logger)
	poller.Start(ctx)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.WalletServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("wallet-server listening", "port", cfg.WalletServerPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("wallet-server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
