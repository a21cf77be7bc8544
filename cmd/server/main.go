// Package main provides the entry point for the author analytics service.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/helixir/author-analytics-service/internal/collabnet"
	"github.com/helixir/author-analytics-service/internal/config"
	"github.com/helixir/author-analytics-service/internal/dashboard"
	"github.com/helixir/author-analytics-service/internal/observability"
	"github.com/helixir/author-analytics-service/internal/recordsource"
	"github.com/helixir/author-analytics-service/internal/recordsource/openalex"
	httpserver "github.com/helixir/author-analytics-service/internal/server/http"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Set up structured logging.
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = logger.With().Str("component", "server").Logger()
	logger.Info().Msg("author-analytics-service starting")

	// Set up context with graceful shutdown via OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics(cfg.Metrics.Namespace)

	// Create the OpenAlex-backed record source.
	var source recordsource.Source = openalex.New(openalex.Config{
		BaseURL:     cfg.OpenAlex.BaseURL,
		Mailto:      cfg.OpenAlex.Mailto,
		Timeout:     cfg.OpenAlex.Timeout,
		RateLimit:   cfg.OpenAlex.RateLimit,
		BurstSize:   cfg.OpenAlex.Burst,
		PageSize:    cfg.OpenAlex.PageSize,
		MaxPages:    cfg.OpenAlex.MaxPages,
		SearchLimit: cfg.OpenAlex.SearchLimit,
	}, logger, metrics)

	// Wrap it with the fetch cache if enabled.
	var invalidator httpserver.CacheInvalidator
	if cfg.Cache.Enabled {
		cached := recordsource.NewCachedSource(source, recordsource.CacheOptions{
			TTL:        cfg.Cache.TTL,
			MaxEntries: cfg.Cache.MaxEntries,
		}, logger, metrics)
		source = cached
		invalidator = cached
		logger.Info().
			Dur("ttl", cfg.Cache.TTL).
			Int("max_entries", cfg.Cache.MaxEntries).
			Msg("fetch cache enabled")
	}

	// Create the collaboration network builder.
	builder := collabnet.NewBuilder(source, collabnet.Config{
		MaxDepth:    cfg.Network.MaxDepth,
		Threshold:   cfg.Network.Threshold,
		Parallelism: cfg.Network.Parallelism,
	}, logger, metrics)

	// Create the report job store and dashboard service.
	store := dashboard.NewStore(cfg.Reports.Retention, logger)
	service := dashboard.NewService(source, builder, store, dashboard.Config{
		CitingParallelism:   cfg.OpenAlex.Parallelism,
		MaxConcurrentBuilds: cfg.Reports.MaxConcurrentBuilds,
	}, logger, metrics)

	// Create the HTTP REST API server.
	httpCfg := httpserver.Config{
		Address:         cfg.Server.HTTPAddress(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}
	httpSrv := httpserver.NewServer(httpCfg, service, store, invalidator, logger, metrics)

	// Set up Prometheus metrics handler on a separate port if configured.
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle(cfg.Metrics.Path, promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress(),
			Handler:      metricsMux,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.ReadTimeout,
		}
	}

	// Channel to collect server errors.
	errCh := make(chan error, 2)

	// Start HTTP REST API server in background.
	go func() {
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Start metrics server if configured.
	if metricsServer != nil {
		go func() {
			logger.Info().
				Str("address", metricsServer.Addr).
				Msg("metrics server starting")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	readyLog := logger.Info().Str("http_address", httpCfg.Address)
	if metricsServer != nil {
		readyLog = readyLog.Str("metrics_address", metricsServer.Addr)
	}
	readyLog.Msg("author-analytics-service is ready")

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	// Graceful shutdown.
	logger.Info().Msg("shutting down author-analytics-service")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("metrics server shutdown error")
		}
	}

	logger.Info().Msg("author-analytics-service stopped")
	return nil
}
