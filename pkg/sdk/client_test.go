package geodex

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/geodex/internal/domain/search/request"
	"github.com/kailas-cloud/geodex/internal/domain/search/result"
)

func TestNew_NoBackend(t *testing.T) {
	_, err := New(context.Background())
	if err == nil {
		t.Fatal("expected error when no backend configured")
	}
}

func TestNew_OpenAIWithoutDimensions(t *testing.T) {
	_, err := New(context.Background(), WithBleve(""), WithOpenAI("key", "", "text-embedding-3-small", 0))
	if err == nil || !strings.Contains(err.Error(), "dimensions") {
		t.Fatalf("err = %v, want dimensions error", err)
	}
}

func TestClientOptions(t *testing.T) {
	cfg := &clientConfig{}
	for _, o := range []Option{
		WithRedis("localhost:6379", "secret"),
		WithKeyPrefix("test:"),
		WithCatalog("/tmp/catalog.db"),
		WithOpenAI("key", "https://llm.example.org/v1", "bge-m3", 1024),
		WithQueryInstruction("query: "),
		WithHNSW(24, 300),
		WithSuggestLimit(5),
		WithBulk(8, 100),
	} {
		o.apply(cfg)
	}

	conf := cfg.toConfig()
	if conf.Search.Driver != "redis" || conf.Search.Addrs[0] != "localhost:6379" || conf.Search.Password != "secret" {
		t.Errorf("search = %+v", conf.Search)
	}
	if conf.Search.KeyPrefix != "test:" || conf.Catalog.Path != "/tmp/catalog.db" {
		t.Errorf("prefix/catalog = %q, %q", conf.Search.KeyPrefix, conf.Catalog.Path)
	}
	if !conf.Embedding.Enabled() || conf.Embedding.Dimensions != 1024 || conf.Embedding.QueryInstruction != "query: " {
		t.Errorf("embedding = %+v", conf.Embedding)
	}
	if conf.Index.HNSWM != 24 || conf.Index.HNSWEFConstruct != 300 || conf.Index.SuggestLimit != 5 {
		t.Errorf("index = %+v", conf.Index)
	}
	if conf.Index.Workers != 8 || conf.Index.Rate != 100 {
		t.Errorf("bulk = %d, %v", conf.Index.Workers, conf.Index.Rate)
	}
}

func TestClientOptions_Defaults(t *testing.T) {
	cfg := &clientConfig{}
	WithBleve("").apply(cfg)

	conf := cfg.toConfig()
	if conf.Embedding.Enabled() {
		t.Error("embedding enabled without WithOpenAI")
	}
	if conf.Index.Workers != 4 || conf.Index.SuggestLimit != 10 {
		t.Errorf("defaults not applied: %+v", conf.Index)
	}
}

const e2eFixture = `
profiles:
  - id: 1
    username: alice
    first_name: Alice
  - id: 2
    username: albert
  - id: 3
    username: bob
groups:
  - id: 1
    title: Hydrology
    slug: hydrology
resources:
  - kind: layer
    id: 10
    title: Roads of Nepal
    owner: alice
    date: 2016-03-01T12:00:00Z
    layer:
      store_type: dataStore
      typename: geonode:roads
  - kind: map
    id: 11
    title: River basins
    owner: bob
`

func TestClient_EndToEnd(t *testing.T) {
	ctx := context.Background()
	c, err := New(ctx, WithBleve(""), WithCatalog(":memory:"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	imported, err := c.ImportCatalog(ctx, strings.NewReader(e2eFixture))
	if err != nil {
		t.Fatalf("ImportCatalog: %v", err)
	}
	if imported != (ImportStats{Profiles: 3, Groups: 1, Resources: 2}) {
		t.Errorf("imported = %+v", imported)
	}

	stats, err := c.ReindexAll(ctx)
	if err != nil {
		t.Fatalf("ReindexAll: %v", err)
	}
	indexed := 0
	for _, s := range stats {
		indexed += s.Indexed
		if s.Failed != 0 {
			t.Errorf("%s failed = %d", s.Kind, s.Failed)
		}
	}
	if indexed != 6 {
		t.Errorf("indexed = %d, want 6", indexed)
	}

	page, err := c.Search(ctx, "layers", SearchParams{Query: "roads"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if page.Total != 1 {
		t.Fatalf("total = %d, want 1", page.Total)
	}
	var hit struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal(page.Objects[0], &hit); err != nil {
		t.Fatal(err)
	}
	if hit.Title != "Roads of Nepal" {
		t.Errorf("title = %q", hit.Title)
	}

	people, err := c.SuggestPeople(ctx, "al")
	if err != nil {
		t.Fatalf("SuggestPeople: %v", err)
	}
	if len(people) != 2 {
		t.Errorf("people = %+v, want alice and albert", people)
	}

	if _, err := c.Search(ctx, "maps", SearchParams{Mode: ModeSemantic, Query: "rivers"}); !errors.Is(err, ErrEmbedderNotConfigured) {
		t.Errorf("semantic err = %v, want ErrEmbedderNotConfigured", err)
	}

	if h := c.Health(ctx); h.Status != "ok" {
		t.Errorf("health = %+v", h)
	}
	if u := c.Usage(ctx, PeriodDay); u.TokensLimit != 0 || u.IsExhausted {
		t.Errorf("usage without budget = %+v", u)
	}
}

func TestObserver_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("newObserver: %v", err)
	}
	c := &Client{obs: obs, searchSvc: &mockSearchUC{
		searchFn: func(context.Context, string, request.Params) (result.Page, error) {
			return result.NewPage(0, 20, 0, nil), nil
		},
		suggestFn: func(context.Context, string, string) ([]result.Suggestion, error) {
			return nil, errors.New("down")
		},
	}}

	_, _ = c.Search(context.Background(), "base", SearchParams{})
	_, _ = c.Suggest(context.Background(), "ro")

	if got := testutil.ToFloat64(obs.metrics.operations.WithLabelValues("search", OutcomeOK)); got != 1 {
		t.Errorf("search ok = %v, want 1", got)
	}
	if got := testutil.ToFloat64(obs.metrics.operations.WithLabelValues("suggest", OutcomeError)); got != 1 {
		t.Errorf("suggest error = %v, want 1", got)
	}
}

func TestObserver_ReusesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := newObserver(nil, reg)
	if err != nil {
		t.Fatal(err)
	}
	second, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("second registration: %v", err)
	}
	if first.metrics.operations != second.metrics.operations {
		t.Error("expected the existing counter to be reused")
	}
}

func TestObserver_Logging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	obs, err := newObserver(logger, nil)
	if err != nil {
		t.Fatal(err)
	}

	obs.observe("index", time.Now(), nil)
	obs.observe("delete", time.Now(), errors.New("boom"))
	obs.observe("search", time.Now(), fmt.Errorf("page: %w", ErrInvalidQuery))

	out := buf.String()
	if !strings.Contains(out, "level=DEBUG msg=\"geodex operation\" op=index") {
		t.Errorf("missing debug line: %s", out)
	}
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "error=boom") {
		t.Errorf("missing warn line: %s", out)
	}
	if !strings.Contains(out, "level=INFO") || !strings.Contains(out, "outcome=invalid") {
		t.Errorf("missing rejection line: %s", out)
	}
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, OutcomeOK},
		{fmt.Errorf("kind: %w", ErrUnknownKind), OutcomeInvalid},
		{ErrEmbedderNotConfigured, OutcomeInvalid},
		{fmt.Errorf("layer 3: %w", ErrNotFound), OutcomeNotFound},
		{fmt.Errorf("embed: %w", ErrEmbeddingQuotaExceeded), OutcomeBudget},
		{context.DeadlineExceeded, OutcomeCanceled},
		{ErrEmbeddingProviderError, OutcomeError},
	}
	for _, tt := range tests {
		if got := outcome(tt.err); got != tt.want {
			t.Errorf("outcome(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestObserver_Nil(t *testing.T) {
	var obs *observer
	obs.observe("search", time.Now(), nil)
}
