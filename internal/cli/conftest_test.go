package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kailas-cloud/geodex/internal/domain"
	domdoc "github.com/kailas-cloud/geodex/internal/domain/document"
	"github.com/kailas-cloud/geodex/internal/domain/search/request"
	"github.com/kailas-cloud/geodex/internal/domain/search/result"
	"github.com/kailas-cloud/geodex/internal/repository/catalog"
	indexinguc "github.com/kailas-cloud/geodex/internal/usecase/indexing"
)

type mockIndexer struct {
	reindexFn    func(kind domain.Kind, id int64) (domdoc.Materialized, error)
	deleteFn     func(kind domain.Kind, id int64) error
	reindexAllFn func(kinds []domain.Kind, opts indexinguc.BulkOptions) ([]indexinguc.BulkStats, error)
}

func (m *mockIndexer) Reindex(_ context.Context, kind domain.Kind, id int64) (domdoc.Materialized, error) {
	return m.reindexFn(kind, id)
}

func (m *mockIndexer) Delete(_ context.Context, kind domain.Kind, id int64) error {
	return m.deleteFn(kind, id)
}

func (m *mockIndexer) ReindexAll(
	_ context.Context, _ indexinguc.IDLister, kinds []domain.Kind, opts indexinguc.BulkOptions,
) ([]indexinguc.BulkStats, error) {
	return m.reindexAllFn(kinds, opts)
}

type mockSearcher struct {
	searchFn  func(resourceType string, p request.Params) (result.Page, error)
	suggestFn func(scope, prefix string) ([]result.Suggestion, error)
}

func (m *mockSearcher) Search(_ context.Context, resourceType string, p request.Params) (result.Page, error) {
	return m.searchFn(resourceType, p)
}

func (m *mockSearcher) Suggest(_ context.Context, prefix string) ([]result.Suggestion, error) {
	return m.suggestFn("all", prefix)
}

func (m *mockSearcher) SuggestPeople(_ context.Context, prefix string) ([]result.Suggestion, error) {
	return m.suggestFn("people", prefix)
}

func (m *mockSearcher) SuggestGroups(_ context.Context, prefix string) ([]result.Suggestion, error) {
	return m.suggestFn("groups", prefix)
}

type mockCatalog struct {
	imported *catalog.Fixture
	err      error
}

func (m *mockCatalog) IDs(context.Context, domain.Kind) ([]int64, error) { return nil, nil }

func (m *mockCatalog) Import(_ context.Context, f *catalog.Fixture) (catalog.ImportStats, error) {
	m.imported = f
	if m.err != nil {
		return catalog.ImportStats{}, m.err
	}
	return catalog.ImportStats{Profiles: len(f.Profiles), Groups: len(f.Groups), Resources: len(f.Resources)}, nil
}

type mockIndexes struct {
	recreated int
	err       error
}

func (m *mockIndexes) RecreateAll(context.Context) error {
	m.recreated++
	return m.err
}

type testServices struct {
	indexer  *mockIndexer
	searcher *mockSearcher
	catalog  *mockCatalog
	indexes  *mockIndexes
}

// setupTestServices installs mocks with harmless defaults and restores the
// previous services on cleanup.
func setupTestServices(t *testing.T) *testServices {
	t.Helper()
	ts := &testServices{
		indexer: &mockIndexer{
			reindexFn: func(kind domain.Kind, id int64) (domdoc.Materialized, error) {
				return domdoc.Materialize("layer-index", id, map[string]any{"title": "Roads"})
			},
			deleteFn: func(domain.Kind, int64) error { return nil },
			reindexAllFn: func(kinds []domain.Kind, _ indexinguc.BulkOptions) ([]indexinguc.BulkStats, error) {
				stats := make([]indexinguc.BulkStats, 0, len(kinds))
				for _, k := range kinds {
					stats = append(stats, indexinguc.BulkStats{Kind: k, Indexed: 1})
				}
				return stats, nil
			},
		},
		searcher: &mockSearcher{
			searchFn: func(string, request.Params) (result.Page, error) {
				return result.NewPage(0, request.DefaultLimit, 0, nil), nil
			},
			suggestFn: func(string, string) ([]result.Suggestion, error) { return nil, nil },
		},
		catalog: &mockCatalog{},
		indexes: &mockIndexes{},
	}

	previous := services
	SetServices(&Services{
		Indexer: ts.indexer,
		Search:  ts.searcher,
		Catalog: ts.catalog,
		Indexes: ts.indexes,
		Bulk:    indexinguc.BulkOptions{Workers: 4, Rate: 25},
	})
	t.Cleanup(func() { services = previous })
	return ts
}

// execute runs the root command with fresh flag state and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeContext(t, context.Background(), args...)
}

func executeContext(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.ExecuteContext(ctx)
	return buf.String(), err
}

func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func rawObjects(t *testing.T, objs ...any) []json.RawMessage {
	t.Helper()
	out := make([]json.RawMessage, 0, len(objs))
	for _, o := range objs {
		data, err := json.Marshal(o)
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, data)
	}
	return out
}
