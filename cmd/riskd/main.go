// Command riskd starts the Meridia risk decision API.
//
// Usage:
//
//	go run ./cmd/riskd [flags]
//
// Flags:
//
//	-config  Optional YAML scoring-config overlay
//
// Environment:
//
//	PORT                HTTP port (default: 8080)
//	LOG_LEVEL           debug | info | warn | error (default: info)
//	RISK_WORKERS        batch evaluation parallelism (default: 4)
//	REVIEW_WEBHOOK_URL  optional endpoint alerted on REJECTED decisions
//	REJECT_AT/REVIEW_AT decision threshold overrides
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"meridia/risk-engine/internal/api"
	"meridia/risk-engine/internal/batch"
	"meridia/risk-engine/internal/config"
	"meridia/risk-engine/internal/engine"
	"meridia/risk-engine/internal/store"
	"meridia/risk-engine/internal/webhook"
)

func main() {
	cfgPath := flag.String("config", "", "path to YAML scoring config overlay")
	flag.Parse()

	server := config.LoadServer()

	// Structured logging — level is environment-driven.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: server.SlogLevel(),
	})))

	// The scoring configuration is built exactly once and shared read-only
	// by every evaluation for the process lifetime.
	cfg, err := config.LoadScoring(*cfgPath)
	if err != nil {
		slog.Error("invalid scoring configuration", "error", err)
		os.Exit(1)
	}

	// ── Wire dependencies ─────────────────────────────────────────────────────
	e := engine.New(cfg)
	runner := batch.NewRunner(e, server.Workers)
	s := store.New()
	notifier := webhook.New(server.WebhookURL)
	handler := api.NewHandler(e, runner, s, notifier)
	router := api.NewRouter(handler)

	// ── Start HTTP server ─────────────────────────────────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", server.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server listening",
			"port", server.Port,
			"workers", server.Workers,
			"reject_at", cfg.Decision.RejectAt,
			"review_at", cfg.Decision.ReviewAt,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	slog.Info("server stopped")
}
