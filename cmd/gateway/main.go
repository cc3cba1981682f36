package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/SantiagoDeStefano/ml-ops/internal/adapter/client"
	"github.com/SantiagoDeStefano/ml-ops/internal/adapter/http/router"
	"github.com/SantiagoDeStefano/ml-ops/internal/adapter/labels"
	"github.com/SantiagoDeStefano/ml-ops/internal/adapter/tokenizer"
	"github.com/SantiagoDeStefano/ml-ops/internal/infrastructure/config"
	"github.com/SantiagoDeStefano/ml-ops/internal/infrastructure/logger"
	"github.com/SantiagoDeStefano/ml-ops/internal/infrastructure/metrics"
	"github.com/SantiagoDeStefano/ml-ops/internal/infrastructure/tracing"
	"github.com/SantiagoDeStefano/ml-ops/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log, err := logger.NewLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	// Set Gin mode
	gin.SetMode(cfg.Server.Mode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize tracing
	tp, shutdownTracing, err := tracing.Setup(ctx, &cfg.Tracing, log)
	if err != nil {
		log.Error("Failed to initialize tracing", zap.Error(err))
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn("Failed to flush traces", zap.Error(err))
		}
	}()

	// Load model artifacts
	tok, err := tokenizer.Load(cfg.Tokenizer.Dir, cfg.Tokenizer.MaxLength)
	if err != nil {
		log.Error("Failed to load tokenizer", zap.String("dir", cfg.Tokenizer.Dir), zap.Error(err))
		return fmt.Errorf("failed to load tokenizer: %w", err)
	}
	log.Info("Tokenizer loaded",
		zap.String("dir", cfg.Tokenizer.Dir),
		zap.Int("vocab_size", tok.VocabSize()),
		zap.Int("max_length", tok.MaxLength()),
	)

	table, err := labels.Load(cfg.Tokenizer.Dir, cfg.Labels)
	if err != nil {
		log.Error("Failed to load label table", zap.Error(err))
		return fmt.Errorf("failed to load label table: %w", err)
	}
	log.Info("Label table loaded", zap.Strings("labels", table.Labels()))

	m := metrics.New(prometheus.DefaultRegisterer)

	scorer := client.NewScorerClient(&cfg.Scorer,
		client.WithTracerProvider(tp),
		client.WithMetrics(m),
		client.WithLogger(log),
	)

	predictUC := usecase.NewPredictUsecase(tok, scorer, table,
		usecase.WithTracerProvider(tp),
		usecase.WithMetrics(m),
		usecase.WithLogger(log),
	)

	// Setup router
	r := router.Setup(router.Deps{
		PredictUsecase: predictUC,
		Readiness:      scorer,
		Logger:         log,
		Metrics:        m,
		TracerProvider: tp,
		ServiceName:    cfg.Tracing.ServiceName,
	})

	// Create HTTP server
	addr := cfg.Server.Addr()
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		log.Info("Starting server",
			zap.String("address", addr),
			zap.String("scorer_url", cfg.Scorer.URL),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal or server failure
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		log.Error("Server failed", zap.Error(err))
		return fmt.Errorf("server failed: %w", err)
	}

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
	return nil
}
