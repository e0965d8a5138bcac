// Package app assembles geodex from its configuration. Both the API server
// and the command line tool build their services here.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/geodex/internal/config"
	"github.com/kailas-cloud/geodex/internal/db"
	blevestore "github.com/kailas-cloud/geodex/internal/db/bleve"
	redisstore "github.com/kailas-cloud/geodex/internal/db/redis"
	"github.com/kailas-cloud/geodex/internal/domain"
	"github.com/kailas-cloud/geodex/internal/metrics"
	"github.com/kailas-cloud/geodex/internal/projector"
	budgetrepo "github.com/kailas-cloud/geodex/internal/repository/budget"
	"github.com/kailas-cloud/geodex/internal/repository/catalog"
	docrepo "github.com/kailas-cloud/geodex/internal/repository/document"
	"github.com/kailas-cloud/geodex/internal/repository/embcache"
	indexrepo "github.com/kailas-cloud/geodex/internal/repository/index"
	searchrepo "github.com/kailas-cloud/geodex/internal/repository/search"
	openaiemb "github.com/kailas-cloud/geodex/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/geodex/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/geodex/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/geodex/internal/usecase/indexing"
	searchuc "github.com/kailas-cloud/geodex/internal/usecase/search"
	usageuc "github.com/kailas-cloud/geodex/internal/usecase/usage"
)

// budgetGrace keeps budget counters readable after their window closes,
// so a restart right after midnight or month end still finds them.
const budgetGrace = 24 * time.Hour

// App holds the assembled services and the stores they share.
type App struct {
	Store    db.Store
	Catalog  *catalog.Store
	Indexes  *indexrepo.Repo
	Indexing *indexinguc.Service
	Search   *searchuc.Service
	Health   *healthuc.Service
	Usage    *usageuc.Service
}

// Build opens the search engine and the catalog, creates missing indexes
// and wires the services.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	store, err := openStore(ctx, &cfg.Search)
	if err != nil {
		return nil, err
	}

	cat, err := catalog.Open(cfg.Catalog.Path)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("open catalog: %w", err)
	}

	a := &App{Store: store, Catalog: cat}

	vectorDim := 0
	if cfg.Embedding.Enabled() {
		vectorDim = cfg.Embedding.Dimensions
	}
	a.Indexes = indexrepo.New(store, vectorDim).WithHNSW(indexrepo.HNSWConfig{
		M:           cfg.Index.HNSWM,
		EFConstruct: cfg.Index.HNSWEFConstruct,
	})
	if err := a.Indexes.EnsureAll(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}

	chain := buildEmbedders(ctx, &cfg.Embedding, store, logger)

	var indexOpts []indexinguc.Option
	indexOpts = append(indexOpts, indexinguc.WithRecorder(metrics.Indexing{}), indexinguc.WithLogger(logger))
	if chain.document != nil {
		indexOpts = append(indexOpts, indexinguc.WithEmbedder(chain.document))
	}

	proj := projector.New(cat, metrics.Indexing{}, logger)
	a.Indexing = indexinguc.New(proj, docrepo.New(store), cat, cat,
		indexinguc.Gravatar{MediaURL: cfg.Site.MediaURL, Size: cfg.Site.AvatarSize},
		indexOpts...,
	)

	// A nil interface, not a typed nil pointer, marks semantic search as unavailable.
	var queryEmbedder searchuc.Embedder
	if chain.query != nil {
		queryEmbedder = chain.query
	}
	a.Search = searchuc.New(searchrepo.New(store), queryEmbedder, cfg.Index.SuggestLimit)

	checks := []healthuc.Component{healthuc.SearchEngine(store), healthuc.Catalog(cat)}
	if chain.base != nil {
		checks = append(checks, healthuc.Embedding(chain.base))
	}
	a.Health = healthuc.New(healthuc.DefaultCheckTimeout, checks...)

	var budget usageuc.BudgetReader
	if chain.budget != nil {
		budget = chain.budget
	}
	a.Usage = usageuc.New(budget)

	return a, nil
}

// Close releases the stores.
func (a *App) Close() {
	if a.Catalog != nil {
		_ = a.Catalog.Close()
	}
	if a.Store != nil {
		a.Store.Close()
	}
}

func openStore(ctx context.Context, cfg *config.SearchConfig) (db.Store, error) {
	var (
		store db.Store
		err   error
	)
	switch cfg.Driver {
	case config.DriverRedis:
		store, err = redisstore.NewStore(redisstore.Config{
			Addrs:     cfg.Addrs,
			Username:  cfg.Username,
			Password:  cfg.Password,
			DB:        cfg.DB,
			KeyPrefix: cfg.KeyPrefix,
		})
	case config.DriverBleve:
		store, err = blevestore.NewStore(blevestore.Config{Path: cfg.BlevePath})
	default:
		return nil, fmt.Errorf("unknown search driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Driver, err)
	}

	if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("search engine not ready: %w", err)
	}
	return store, nil
}

// embedders is the assembled embedding chain; every field is nil when no
// provider is configured.
type embedders struct {
	base     *openaiemb.Embedder
	budget   *embeddinguc.BudgetTracker
	document domain.Embedder
	query    domain.Embedder
}

// buildEmbedders assembles OpenAI -> Cached -> Instrumented twice: once for
// document enrichment and once, behind the optional query instruction, for
// search queries. Both sides share the cache and the budget.
func buildEmbedders(ctx context.Context, cfg *config.EmbeddingConfig, store db.Store, logger *zap.Logger) embedders {
	if !cfg.Enabled() {
		return embedders{}
	}
	metrics.RegisterEmbeddingMetrics()

	base := openaiemb.NewEmbedder(&openaiemb.Config{
		APIKey:            cfg.APIKey,
		BaseURL:           cfg.BaseURL,
		Model:             cfg.Model,
		Dimensions:        cfg.Dimensions,
		Provider:          cfg.Provider,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Logger:            logger,
	})

	var budget *embeddinguc.BudgetTracker
	if cfg.Budget.DailyTokenLimit > 0 || cfg.Budget.MonthlyTokenLimit > 0 {
		action := embeddinguc.BudgetActionWarn
		if cfg.Budget.Action == string(embeddinguc.BudgetActionReject) {
			action = embeddinguc.BudgetActionReject
		}
		budget = embeddinguc.NewBudgetTracker(
			cfg.Provider, cfg.Budget.DailyTokenLimit, cfg.Budget.MonthlyTokenLimit, action, logger,
		).WithQueryReserve(cfg.Budget.QueryReserve).
			WithStore(ctx, budgetrepo.New(store, budgetGrace))
	}

	// Go gotcha: (*BudgetTracker)(nil) wrapped in BudgetChecker != nil.
	var checker embeddinguc.BudgetChecker
	if budget != nil {
		checker = budget
	}

	ttl := time.Duration(cfg.CacheTTLHours) * time.Hour
	cached := embcache.New(base, store, embcache.Config{
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		TTL:        ttl,
		Results:    metrics.EmbeddingCacheTotal,
		Logger:     logger,
	})
	document := embeddinguc.NewInstrumentedEmbedder(
		cached, domain.PurposeDocument, cfg.Provider, cfg.Model, checker, logger,
	)

	var queryInner domain.Embedder = cached
	if cfg.QueryInstruction != "" {
		queryInner = domain.NewInstructionEmbedder(cached, cfg.QueryInstruction)
	}
	query := embeddinguc.NewInstrumentedEmbedder(
		queryInner, domain.PurposeQuery, cfg.Provider, cfg.Model, checker, logger,
	)

	logger.Info("Embedders created",
		zap.String("provider", cfg.Provider),
		zap.String("model", cfg.Model),
		zap.Int("dimensions", cfg.Dimensions),
	)
	return embedders{base: base, budget: budget, document: document, query: query}
}
