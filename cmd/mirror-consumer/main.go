package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/user01samiul/jx-backend-sub007/internal/infra"
	"github.com/user01samiul/jx-backend-sub007/internal/projection"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("mirror consumer failed", "error", err)
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

	store := projection.NewInMemoryStore()
	source := infra.NewKafkaConsumer(cfg.KafkaBrokers, cfg.MirrorTopic, cfg.MirrorGroup, cfg.KafkaEnabled, logger)
	defer source.Close()

	consumer := projection.NewConsumer(source, store, logger)

	// Small read-only surface over the projection, for dashboards and smoke
	// checks. The ledger never reads from here.
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/mirror/accounts/{id}/balance", func(w http.ResponseWriter, r *http.Request) {
		view, ok := store.Balance(r.Context(), chi.URLParam(r, "id"))
		if !ok {
			http.Error(w, `{"code":"NOT_FOUND"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(view)
	})
	r.Get("/mirror/accounts/{id}/history", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(store.History(r.Context(), chi.URLParam(r, "id")))
	})

	httpServer := &http.Server{
		Addr:        ":4002",
		Handler:     r,
		ReadTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("mirror consumer http listening", "addr", httpServer.Addr)
		httpServer.ListenAndServe()
	}()

	err = consumer.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	httpServer.Shutdown(shutdownCtx)

	return err
}
