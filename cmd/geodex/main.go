// Command geodex serves catalog search, autocomplete and the indexing API.
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

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/geodex/internal/app"
	"github.com/kailas-cloud/geodex/internal/config"
	logpkg "github.com/kailas-cloud/geodex/internal/logger"
	"github.com/kailas-cloud/geodex/internal/metrics"
	chiTransport "github.com/kailas-cloud/geodex/internal/transport/chi"
	"github.com/kailas-cloud/geodex/internal/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "geodex:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.New(env, logpkg.Options{Level: cfg.Logging.Level, Service: "geodex"})
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting geodex API server",
		zap.String("version", version.Describe(version.Version)),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("search_driver", cfg.Search.Driver),
		zap.Strings("search_addrs", cfg.Search.Addrs),
		zap.String("catalog", cfg.Catalog.Path),
		zap.Bool("embedding", cfg.Embedding.Enabled()),
	)

	a, err := app.Build(ctx, &cfg, logger)
	if err != nil {
		return fmt.Errorf("assemble services: %w", err)
	}
	defer a.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      newRouter(&cfg, a, logger),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("Server stopped gracefully")
	return nil
}

// newRouter mounts the API behind request ID, panic recovery, access
// logging and request metrics, in that order.
func newRouter(cfg *config.Config, a *app.App, logger *zap.Logger) http.Handler {
	server := chiTransport.NewServer(a.Search, a.Indexing, a.Health, cfg.Auth.APIKeys, logger).
		WithUsage(a.Usage)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiTransport.Recoverer(logger))
	r.Use(chiTransport.AccessLog(logger))
	r.Use(metrics.Middleware())
	server.Register(r)
	return r
}
