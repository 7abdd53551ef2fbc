package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"credguard/internal/mockbackend"
	"credguard/internal/platform/config"
	"credguard/internal/platform/httpserver"
	"credguard/internal/platform/logger"
	"credguard/internal/platform/metrics"
)

// main serves the in-memory backend used for local development.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing mock backend",
		"addr", cfg.MockBackend.Addr,
		"latency", cfg.MockBackend.Latency,
		"polls_to_issue", cfg.MockBackend.PollsToIssue,
		"env", cfg.Client.Environment,
	)

	backend := mockbackend.New(mockbackend.Config{
		PollsToIssue: cfg.MockBackend.PollsToIssue,
		Latency:      cfg.MockBackend.Latency,
		Logger:       log,
		Metrics:      metrics.New(),
	})

	router := chi.NewRouter()
	router.Handle("/metrics", promhttp.Handler())
	router.Mount("/", backend)

	srv := httpserver.New(cfg.MockBackend.Addr, router)

	go func() {
		log.Info("starting http server", "addr", cfg.MockBackend.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped", "exchanges", backend.Exchanges())
}
