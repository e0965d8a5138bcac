package geodex

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/geodex/internal/app"
	"github.com/kailas-cloud/geodex/internal/domain"
	domdoc "github.com/kailas-cloud/geodex/internal/domain/document"
	"github.com/kailas-cloud/geodex/internal/domain/search/request"
	"github.com/kailas-cloud/geodex/internal/domain/search/result"
	"github.com/kailas-cloud/geodex/internal/repository/catalog"
	healthuc "github.com/kailas-cloud/geodex/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/geodex/internal/usecase/indexing"
	usageuc "github.com/kailas-cloud/geodex/internal/usecase/usage"
)

// Internal interfaces, swapped for mocks in tests.
type searchUseCase interface {
	Search(ctx context.Context, resourceType string, p request.Params) (result.Page, error)
	Suggest(ctx context.Context, prefix string) ([]result.Suggestion, error)
	SuggestPeople(ctx context.Context, prefix string) ([]result.Suggestion, error)
	SuggestGroups(ctx context.Context, prefix string) ([]result.Suggestion, error)
}

type indexingUseCase interface {
	Reindex(ctx context.Context, kind domain.Kind, id int64) (domdoc.Materialized, error)
	Delete(ctx context.Context, kind domain.Kind, id int64) error
	ReindexAll(
		ctx context.Context, lister indexinguc.IDLister, kinds []domain.Kind, opts indexinguc.BulkOptions,
	) ([]indexinguc.BulkStats, error)
}

type catalogStore interface {
	IDs(ctx context.Context, kind domain.Kind) ([]int64, error)
	Import(ctx context.Context, f *catalog.Fixture) (catalog.ImportStats, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

type usageUseCase interface {
	Report(ctx context.Context, period usageuc.Period) usageuc.Report
}

// Client is the geodex SDK entry point.
type Client struct {
	close     func()
	searchSvc searchUseCase
	indexSvc  indexingUseCase
	catalog   catalogStore
	healthSvc healthUseCase
	usageSvc  usageUseCase
	bulk      indexinguc.BulkOptions
	obs       *observer
}

// New opens the search backend and the catalog, creates missing indexes
// and returns a ready Client. ctx bounds the startup.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.driver == "" {
		return nil, errors.New("geodex: search backend required (use WithRedis or WithBleve)")
	}

	conf := cfg.toConfig()
	if err := conf.ValidateServices(); err != nil {
		return nil, fmt.Errorf("geodex: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	a, err := app.Build(ctx, &conf, zap.NewNop())
	if err != nil {
		return nil, fmt.Errorf("geodex: %w", err)
	}

	return &Client{
		close:     a.Close,
		searchSvc: a.Search,
		indexSvc:  a.Indexing,
		catalog:   a.Catalog,
		healthSvc: a.Health,
		usageSvc:  a.Usage,
		bulk:      indexinguc.BulkOptions{Workers: conf.Index.Workers, Rate: conf.Index.Rate},
		obs:       obs,
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.close != nil {
		c.close()
	}
}
