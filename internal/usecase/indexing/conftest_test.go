package indexing

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/geodex/internal/domain"
	domdoc "github.com/kailas-cloud/geodex/internal/domain/document"
	"github.com/kailas-cloud/geodex/internal/projector"
)

type putCall struct {
	doc    domdoc.Materialized
	vector []float32
}

type mockWriter struct {
	putFn    func(ctx context.Context, doc domdoc.Materialized, vector []float32) error
	deleteFn func(ctx context.Context, index, id string) error

	mu   sync.Mutex
	puts []putCall
}

func (m *mockWriter) Put(ctx context.Context, doc domdoc.Materialized, vector []float32) error {
	m.mu.Lock()
	m.puts = append(m.puts, putCall{doc: doc, vector: vector})
	m.mu.Unlock()
	if m.putFn != nil {
		return m.putFn(ctx, doc, vector)
	}
	return nil
}

func (m *mockWriter) Delete(ctx context.Context, index, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, index, id)
	}
	return nil
}

type mockCatalog struct {
	resources map[domain.Kind]map[int64]*domain.Resource
	profiles  map[int64]*domain.Profile
	groups    map[int64]*domain.Group
}

func (m *mockCatalog) Resource(_ context.Context, kind domain.Kind, id int64) (*domain.Resource, error) {
	if r, ok := m.resources[kind][id]; ok {
		return r, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockCatalog) Profile(_ context.Context, id int64) (*domain.Profile, error) {
	if p, ok := m.profiles[id]; ok {
		return p, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockCatalog) Group(_ context.Context, id int64) (*domain.Group, error) {
	if g, ok := m.groups[id]; ok {
		return g, nil
	}
	return nil, domain.ErrNotFound
}

type mockPermissions struct {
	counts map[domain.Kind]int
	err    error
}

func (m *mockPermissions) ViewableCount(_ context.Context, _ int64, kind domain.Kind) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.counts[kind], nil
}

type mockAssociations struct {
	counts   map[projector.Relation]int
	averages map[projector.Relation]float64
}

func (m *mockAssociations) CountFor(_ context.Context, rel projector.Relation, _ domain.Kind, _ int64) (int, error) {
	return m.counts[rel], nil
}

func (m *mockAssociations) AverageFor(_ context.Context, rel projector.Relation, _ domain.Kind, _ int64) (float64, error) {
	return m.averages[rel], nil
}

type mockEmbedder struct {
	vec   []float32
	err   error
	texts []string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.texts = append(m.texts, text)
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec, TotalTokens: 3}, nil
}

type mockRecorder struct {
	mu         sync.Mutex
	ok, failed map[string]int
}

func (m *mockRecorder) IndexOperation(kind string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.failed[kind]++
		return
	}
	m.ok[kind]++
}

type fixedAvatars string

func (a fixedAvatars) URL(_ *domain.Profile) string { return string(a) }

type testEnv struct {
	svc      *Service
	writer   *mockWriter
	catalog  *mockCatalog
	perms    *mockPermissions
	assoc    *mockAssociations
	recorder *mockRecorder
	logs     *observer.ObservedLogs
}

func newTestService(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)

	env := &testEnv{
		writer:   &mockWriter{},
		catalog:  &mockCatalog{},
		perms:    &mockPermissions{counts: map[domain.Kind]int{}},
		assoc:    &mockAssociations{},
		recorder: &mockRecorder{ok: map[string]int{}, failed: map[string]int{}},
		logs:     logs,
	}
	proj := projector.New(env.assoc, nil, logger)
	opts = append([]Option{WithLogger(logger), WithRecorder(env.recorder)}, opts...)
	env.svc = New(proj, env.writer, env.catalog, env.perms, fixedAvatars("https://media.test/a.png"), opts...)
	return env
}

func testLayer() *domain.Resource {
	return &domain.Resource{
		Kind:     domain.KindLayer,
		ID:       10,
		UUID:     "5f0c",
		Title:    "Roads Of Nepal",
		Abstract: "Road network",
		BBox:     domain.RawBBox{MinX: "-10", MinY: "5", MaxX: "10", MaxY: "20"},
		SRID:     "EPSG:3857",
		Owner: &domain.Profile{
			ID: 1, Username: "alice", FirstName: "Alice", LastName: "Liddell",
		},
		Category:    &domain.Category{Identifier: "transportation", Description: "Transportation"},
		Keywords:    []string{"roads"},
		IsPublished: true,
		Date:        time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		CSWType:     "dataset",
		DetailURL:   "/layers/geonode:roads",
		Links: []domain.Link{
			{Name: "roads", LinkType: "OGC:WMS", URL: "https://ows.test/wms"},
			{Name: "roads.zip", LinkType: "data", URL: "https://ows.test/roads.zip"},
		},
		Layer: &domain.LayerAttrs{StoreType: domain.StoreTypeData, TypeName: "geonode:roads"},
	}
}
