package geodex

import (
	"context"

	"github.com/kailas-cloud/geodex/internal/domain"
	domdoc "github.com/kailas-cloud/geodex/internal/domain/document"
	"github.com/kailas-cloud/geodex/internal/domain/search/request"
	"github.com/kailas-cloud/geodex/internal/domain/search/result"
	"github.com/kailas-cloud/geodex/internal/repository/catalog"
	healthuc "github.com/kailas-cloud/geodex/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/geodex/internal/usecase/indexing"
	usageuc "github.com/kailas-cloud/geodex/internal/usecase/usage"
)

// --- searchUseCase mock ---

type mockSearchUC struct {
	searchFn  func(ctx context.Context, resourceType string, p request.Params) (result.Page, error)
	suggestFn func(ctx context.Context, scope, prefix string) ([]result.Suggestion, error)
}

func (m *mockSearchUC) Search(ctx context.Context, resourceType string, p request.Params) (result.Page, error) {
	return m.searchFn(ctx, resourceType, p)
}

func (m *mockSearchUC) Suggest(ctx context.Context, prefix string) ([]result.Suggestion, error) {
	return m.suggestFn(ctx, "all", prefix)
}

func (m *mockSearchUC) SuggestPeople(ctx context.Context, prefix string) ([]result.Suggestion, error) {
	return m.suggestFn(ctx, "people", prefix)
}

func (m *mockSearchUC) SuggestGroups(ctx context.Context, prefix string) ([]result.Suggestion, error) {
	return m.suggestFn(ctx, "groups", prefix)
}

// --- indexingUseCase mock ---

type mockIndexingUC struct {
	reindexFn    func(ctx context.Context, kind domain.Kind, id int64) (domdoc.Materialized, error)
	deleteFn     func(ctx context.Context, kind domain.Kind, id int64) error
	reindexAllFn func(
		ctx context.Context, lister indexinguc.IDLister, kinds []domain.Kind, opts indexinguc.BulkOptions,
	) ([]indexinguc.BulkStats, error)
}

func (m *mockIndexingUC) Reindex(ctx context.Context, kind domain.Kind, id int64) (domdoc.Materialized, error) {
	return m.reindexFn(ctx, kind, id)
}

func (m *mockIndexingUC) Delete(ctx context.Context, kind domain.Kind, id int64) error {
	return m.deleteFn(ctx, kind, id)
}

func (m *mockIndexingUC) ReindexAll(
	ctx context.Context, lister indexinguc.IDLister, kinds []domain.Kind, opts indexinguc.BulkOptions,
) ([]indexinguc.BulkStats, error) {
	return m.reindexAllFn(ctx, lister, kinds, opts)
}

// --- catalogStore mock ---

type mockCatalog struct {
	importFn func(ctx context.Context, f *catalog.Fixture) (catalog.ImportStats, error)
}

func (m *mockCatalog) IDs(context.Context, domain.Kind) ([]int64, error) { return nil, nil }

func (m *mockCatalog) Import(ctx context.Context, f *catalog.Fixture) (catalog.ImportStats, error) {
	return m.importFn(ctx, f)
}

// --- health and usage mocks ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(context.Context) healthuc.Report { return m.report }

type mockUsageUC struct {
	reportFn func(period usageuc.Period) usageuc.Report
}

func (m *mockUsageUC) Report(_ context.Context, period usageuc.Period) usageuc.Report {
	return m.reportFn(period)
}
