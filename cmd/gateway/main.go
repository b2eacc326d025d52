// Scholarships routing gateway — synchronous chat endpoint in front of an
// asynchronous dispatch/format pipeline backed by Redis.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fishperson113/scholarships-routing/pkg/api"
	"github.com/fishperson113/scholarships-routing/pkg/config"
	"github.com/fishperson113/scholarships-routing/pkg/dispatch"
	"github.com/fishperson113/scholarships-routing/pkg/metrics"
	"github.com/fishperson113/scholarships-routing/pkg/queue"
	"github.com/fishperson113/scholarships-routing/pkg/version"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configPath := flag.String("config",
		getEnv("GATEWAY_CONFIG", ""),
		"Path to YAML configuration file (optional)")
	envPath := flag.String("env-file",
		getEnv("GATEWAY_ENV_FILE", ".env"),
		"Path to .env file")
	flag.Parse()

	if err := godotenv.Load(*envPath); err != nil {
		slog.Warn("Could not load .env file, continuing with existing environment",
			"path", *envPath, "error", err)
	} else {
		slog.Info("Loaded environment", "path", *envPath)
	}

	slog.Info("Starting scholarships-routing gateway",
		"version", version.Full(),
		"config", *configPath)

	ctx := context.Background()

	// 1. Configuration
	cfg, err := config.Initialize(*configPath)
	if err != nil {
		slog.Error("Failed to initialize configuration", "error", err)
		os.Exit(1)
	}

	// 2. Redis broker (task queue + result backend)
	broker, err := queue.NewBroker(cfg.Redis.URL, cfg.Queue.Name, cfg.Queue.ResultTTL)
	if err != nil {
		slog.Error("Failed to connect to Redis broker", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := broker.Close(); err != nil {
			slog.Error("Error closing broker", "error", err)
		}
	}()
	slog.Info("Connected to Redis broker", "queue", cfg.Queue.Name)

	// 3. Dispatch client and pipeline executor
	dispatcher := dispatch.NewClient(cfg.Webhook.URL, cfg.Webhook.Timeout)
	pipeline := queue.NewPipeline(dispatcher)

	// 4. Worker pool (before the HTTP server so workers are consuming by the
	// time the first request is queued)
	workerPool := queue.NewWorkerPool(broker, &cfg.Queue, pipeline)
	workerPool.Start(ctx)

	// 5. HTTP server
	m := metrics.New("gateway")
	httpServer := api.NewServer(cfg, broker, workerPool, m)

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.HTTP.Port
		slog.Info("HTTP server listening", "addr", addr)
		if err := httpServer.Start(addr); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			errCh <- err
		}
	}()

	slog.Info("Gateway started",
		"workers", cfg.Queue.WorkerCount,
		"wait_timeout", cfg.Gateway.WaitTimeout)

	// 6. Wait for shutdown signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		slog.Info("Shutdown signal received", "signal", sig)
	case err := <-errCh:
		slog.Error("Server error triggered shutdown", "error", err)
	}

	// 7. Graceful shutdown: stop the HTTP intake first, then drain workers.
	httpShutdownCtx, httpCancel := context.WithTimeout(ctx, 5*time.Second)
	defer httpCancel()
	if err := httpServer.Shutdown(httpShutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	workerShutdownCtx, workerCancel := context.WithTimeout(ctx, cfg.Queue.GracefulShutdownTimeout)
	defer workerCancel()

	done := make(chan struct{})
	go func() {
		workerPool.Stop()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("Worker pool stopped gracefully")
	case <-workerShutdownCtx.Done():
		slog.Warn("Shutdown timeout exceeded, abandoning in-flight tasks")
	}

	slog.Info("Shutdown complete")
}
