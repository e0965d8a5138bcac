package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/kailas-cloud/geodex/internal/app"
	"github.com/kailas-cloud/geodex/internal/cli"
	"github.com/kailas-cloud/geodex/internal/config"
	logpkg "github.com/kailas-cloud/geodex/internal/logger"
	indexinguc "github.com/kailas-cloud/geodex/internal/usecase/indexing"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
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

	// The API log level would flood the terminal; the CLI has its own knob.
	logger, err := logpkg.New(env, logpkg.Options{
		Level:       os.Getenv("GEODEXCTL_LOG_LEVEL"),
		Service:     "geodexctl",
		Interactive: true,
	})
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	a, err := app.Build(ctx, &cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	cli.SetServices(&cli.Services{
		Indexer: a.Indexing,
		Search:  a.Search,
		Catalog: a.Catalog,
		Indexes: a.Indexes,
		Bulk: indexinguc.BulkOptions{
			Workers: cfg.Index.Workers,
			Rate:    cfg.Index.Rate,
		},
	})
	logger.Debug("geodexctl ready", zap.String("env", env), zap.String("search_driver", cfg.Search.Driver))

	return cli.Execute(logpkg.ContextWithLogger(ctx, logger))
}
