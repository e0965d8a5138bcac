package indexing

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/geodex/internal/domain"
	domdoc "github.com/kailas-cloud/geodex/internal/domain/document"
	"github.com/kailas-cloud/geodex/internal/projector"
)

func number(t *testing.T, v any) float64 {
	t.Helper()
	n, ok := v.(json.Number)
	if !ok {
		t.Fatalf("value %#v is not a number", v)
	}
	f, err := n.Float64()
	if err != nil {
		t.Fatalf("parse %q: %v", n, err)
	}
	return f
}

func TestIndexLayer_Success(t *testing.T) {
	env := newTestService(t)

	m, err := env.svc.IndexLayer(context.Background(), testLayer())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if m.Index != "layer-index" || m.ID != "10" {
		t.Errorf("meta = %+v, want layer-index/10", m.Meta)
	}
	if len(env.writer.puts) != 1 {
		t.Fatalf("puts = %d, want 1", len(env.writer.puts))
	}
	if env.writer.puts[0].vector != nil {
		t.Error("vector stored without an embedder")
	}

	checks := map[string]any{
		"title":                    "Roads Of Nepal",
		"title_sortable":           "roads of nepal",
		"type":                     "layer",
		"category":                 "transportation",
		"category__gn_description": "Transportation",
		"owner__username":          "alice",
		"owner__first_name":        "Alice",
		"owner__last_name":         "Liddell",
		"subtype":                  "vector",
		"typename":                 "geonode:roads",
		"supplemental_information": "None",
		"is_published":             true,
		"has_time":                 false,
	}
	for k, want := range checks {
		if got := m.Field(k); got != want {
			t.Errorf("%s = %#v, want %#v", k, got, want)
		}
	}

	for _, k := range []string{"num_ratings", "num_comments", "rating"} {
		if got := number(t, m.Field(k)); got != 0 {
			t.Errorf("%s = %v, want 0", k, got)
		}
	}
	for _, k := range []string{"license", "source_host", "temporal_extent_start"} {
		if _, ok := m.Source[k]; ok {
			t.Errorf("%s should be absent", k)
		}
	}

	refs, ok := m.Field("references").([]any)
	if !ok || len(refs) != 1 {
		t.Fatalf("references = %#v, want one OWS link", m.Field("references"))
	}
}

func TestIndexLayer_BBoxReprojected(t *testing.T) {
	env := newTestService(t)

	m, err := env.svc.IndexLayer(context.Background(), testLayer())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	shape, ok := m.Field("bbox").(map[string]any)
	if !ok {
		t.Fatalf("bbox = %#v, want envelope object", m.Field("bbox"))
	}
	if shape["type"] != "envelope" {
		t.Errorf("type = %v, want envelope", shape["type"])
	}
	coords := shape["coordinates"].([]any)
	lower, upper := coords[0].([]any), coords[1].([]any)
	minX, minY := number(t, lower[0]), number(t, lower[1])
	maxX, maxY := number(t, upper[0]), number(t, upper[1])

	if minX >= maxX || minY >= maxY {
		t.Fatalf("envelope not ordered: [%v %v %v %v]", minX, minY, maxX, maxY)
	}
	want := []float64{-0.0000898, 0.0000449, 0.0000898, 0.0001796}
	for i, got := range []float64{minX, minY, maxX, maxY} {
		if math.Abs(got-want[i]) > 1e-6 {
			t.Errorf("coord %d = %v, want ~%v", i, got, want[i])
		}
	}
}

func TestIndexLayer_PersistenceFailureLogged(t *testing.T) {
	env := newTestService(t)
	env.writer.putFn = func(_ context.Context, _ domdoc.Materialized, _ []float32) error {
		return errors.New("connection refused")
	}

	r := testLayer()
	r.BBox.MaxY = ""

	m, err := env.svc.IndexLayer(context.Background(), r)
	if err != nil {
		t.Fatalf("persistence failure must not propagate: %v", err)
	}
	if m.Field("title") != "Roads Of Nepal" {
		t.Errorf("unsaved representation not returned: %+v", m)
	}
	if _, ok := m.Source["bbox"]; ok {
		t.Error("incomplete bbox must be absent")
	}

	entries := env.logs.FilterLevelExact(zap.ErrorLevel).All()
	if len(entries) != 1 {
		t.Fatalf("error logs = %d, want 1", len(entries))
	}
	want := "Error indexing layer: Roads Of Nepal [id: 10]; bbox: None"
	if entries[0].Message != want {
		t.Errorf("message = %q, want %q", entries[0].Message, want)
	}
	if entries[0].ContextMap()["error"] != "connection refused" {
		t.Errorf("diagnostic detail missing: %v", entries[0].ContextMap())
	}
	if env.recorder.failed["layer"] != 1 {
		t.Errorf("failed writes recorded = %d, want 1", env.recorder.failed["layer"])
	}
}

func TestIndexLayer_WithoutOwner(t *testing.T) {
	env := newTestService(t)
	r := testLayer()
	r.Owner = nil

	m, err := env.svc.IndexLayer(context.Background(), r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, k := range []string{"owner__username", "owner__first_name", "owner__last_name"} {
		if _, ok := m.Source[k]; ok {
			t.Errorf("%s should be absent", k)
		}
	}
	if env.logs.FilterMessage("layer owner names omitted").Len() != 1 {
		t.Error("expected warning about omitted owner names")
	}
}

func TestIndexLayer_Associations(t *testing.T) {
	env := newTestService(t)
	env.assoc.counts = map[projector.Relation]int{projector.RelationRatings: 2, projector.RelationComments: 3}
	env.assoc.averages = map[projector.Relation]float64{projector.RelationRatings: 4.5}

	m, err := env.svc.IndexLayer(context.Background(), testLayer())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := number(t, m.Field("rating")); got != 4.5 {
		t.Errorf("rating = %v, want 4.5", got)
	}
	if got := number(t, m.Field("num_ratings")); got != 2 {
		t.Errorf("num_ratings = %v, want 2", got)
	}
	if got := number(t, m.Field("num_comments")); got != 3 {
		t.Errorf("num_comments = %v, want 3", got)
	}
}

func TestIndexResource_KindMismatch(t *testing.T) {
	env := newTestService(t)

	_, err := env.svc.IndexMap(context.Background(), testLayer())
	if !errors.Is(err, domain.ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
	if len(env.writer.puts) != 0 {
		t.Error("mismatched resource must not be written")
	}
}

func TestIndexMap_NoLayerFields(t *testing.T) {
	env := newTestService(t)
	r := testLayer()
	r.Kind = domain.KindMap
	r.ID = 11

	m, err := env.svc.IndexMap(context.Background(), r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Index != "map-index" || m.Field("type") != "map" {
		t.Errorf("map document = %+v", m)
	}
	for _, k := range []string{"typename", "subtype", "owner__first_name", "is_published"} {
		if _, ok := m.Source[k]; ok {
			t.Errorf("map document carries layer field %s", k)
		}
	}
	if env.recorder.ok["map"] != 1 {
		t.Errorf("ok writes recorded = %d, want 1", env.recorder.ok["map"])
	}
}

func TestIndexDocument_Embedding(t *testing.T) {
	emb := &mockEmbedder{vec: []float32{0.1, 0.2}}
	env := newTestService(t, WithEmbedder(emb))
	r := testLayer()
	r.Kind = domain.KindDocument
	r.Layer = nil

	if _, err := env.svc.IndexDocument(context.Background(), r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(emb.texts) != 1 || emb.texts[0] != "Roads Of Nepal\nRoad network" {
		t.Errorf("embedded texts = %q", emb.texts)
	}
	if got := env.writer.puts[0].vector; len(got) != 2 {
		t.Errorf("vector = %v, want embedding", got)
	}
}

func TestIndexDocument_EmbeddingFailureDegrades(t *testing.T) {
	emb := &mockEmbedder{err: domain.ErrEmbeddingProviderError}
	env := newTestService(t, WithEmbedder(emb))
	r := testLayer()
	r.Kind = domain.KindDocument

	if _, err := env.svc.IndexDocument(context.Background(), r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(env.writer.puts) != 1 || env.writer.puts[0].vector != nil {
		t.Errorf("expected one write without vector, got %+v", env.writer.puts)
	}
	if env.logs.FilterMessage("document stored without embedding").Len() != 1 {
		t.Error("expected embedding warning")
	}
}

func TestIndexProfile(t *testing.T) {
	env := newTestService(t)
	env.perms.counts = map[domain.Kind]int{domain.KindLayer: 2, domain.KindMap: 1}

	p := &domain.Profile{
		ID: 1, Username: "alice", FirstName: "Alice",
		DateJoined: time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
	}
	m, err := env.svc.IndexProfile(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if m.Index != "profile-index" || m.ID != "1" {
		t.Errorf("meta = %+v", m.Meta)
	}
	if m.Field("profile_detail_url") != "/people/profile/alice/" {
		t.Errorf("profile_detail_url = %v", m.Field("profile_detail_url"))
	}
	if m.Field("avatar_100") != "https://media.test/a.png" {
		t.Errorf("avatar_100 = %v", m.Field("avatar_100"))
	}
	if m.Field("type") != "user" {
		t.Errorf("type = %v, want user", m.Field("type"))
	}
	counts := map[string]float64{"layers_count": 2, "maps_count": 1, "documents_count": 0}
	for k, want := range counts {
		if got := number(t, m.Field(k)); got != want {
			t.Errorf("%s = %v, want %v", k, got, want)
		}
	}
}

func TestIndexProfile_FailuresDegrade(t *testing.T) {
	env := newTestService(t)
	env.perms.err = errors.New("db locked")
	env.writer.putFn = func(_ context.Context, _ domdoc.Materialized, _ []float32) error {
		return errors.New("timeout")
	}

	m, err := env.svc.IndexProfile(context.Background(), &domain.Profile{ID: 3, Username: "bob"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := number(t, m.Field("layers_count")); got != 0 {
		t.Errorf("layers_count = %v, want 0", got)
	}
	if env.logs.FilterMessage("Error indexing profile: bob [id: 3]; bbox: None").Len() != 1 {
		t.Error("expected indexing error log")
	}
}

func TestIndexGroup(t *testing.T) {
	env := newTestService(t)

	m, err := env.svc.IndexGroup(context.Background(), &domain.Group{ID: 5, Title: "Hydrology Team", Slug: "hydrology"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Field("detail_url") != "/groups/group/hydrology" {
		t.Errorf("detail_url = %v", m.Field("detail_url"))
	}
	if m.Field("title_sortable") != "hydrology team" {
		t.Errorf("title_sortable = %v", m.Field("title_sortable"))
	}
	if _, ok := m.Source["last_modified"]; ok {
		t.Error("zero last_modified should be absent")
	}
}

func TestIndexNil(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	if _, err := env.svc.IndexLayer(ctx, nil); err == nil {
		t.Error("expected error for nil layer")
	}
	if _, err := env.svc.IndexProfile(ctx, nil); err == nil {
		t.Error("expected error for nil profile")
	}
	if _, err := env.svc.IndexGroup(ctx, nil); err == nil {
		t.Error("expected error for nil group")
	}
}

func TestIndexTwice_SameDocument(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	first, _ := env.svc.IndexLayer(ctx, testLayer())
	second, _ := env.svc.IndexLayer(ctx, testLayer())

	if first.Meta != second.Meta {
		t.Errorf("meta differs: %+v vs %+v", first.Meta, second.Meta)
	}
	a, _ := json.Marshal(first.Source)
	b, _ := json.Marshal(second.Source)
	if string(a) != string(b) {
		t.Error("re-indexing produced a different document")
	}
}

func TestReindex(t *testing.T) {
	env := newTestService(t)
	env.catalog.resources = map[domain.Kind]map[int64]*domain.Resource{
		domain.KindLayer: {10: testLayer()},
	}
	env.catalog.profiles = map[int64]*domain.Profile{1: {ID: 1, Username: "alice"}}
	env.catalog.groups = map[int64]*domain.Group{5: {ID: 5, Title: "Hydrology", Slug: "hydrology"}}
	ctx := context.Background()

	tests := []struct {
		kind      domain.Kind
		id        int64
		wantIndex string
		wantErr   error
	}{
		{kind: domain.KindLayer, id: 10, wantIndex: "layer-index"},
		{kind: domain.KindProfile, id: 1, wantIndex: "profile-index"},
		{kind: domain.KindGroup, id: 5, wantIndex: "group-index"},
		{kind: domain.KindMap, id: 10, wantErr: domain.ErrNotFound},
		{kind: domain.KindProfile, id: 9, wantErr: domain.ErrNotFound},
		{kind: domain.KindGroup, id: 9, wantErr: domain.ErrNotFound},
		{kind: "service", id: 1, wantErr: domain.ErrUnknownKind},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			m, err := env.svc.Reindex(ctx, tt.kind, tt.id)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if m.Index != tt.wantIndex {
				t.Errorf("index = %q, want %q", m.Index, tt.wantIndex)
			}
		})
	}
}

func TestDelete(t *testing.T) {
	env := newTestService(t)
	var gotIndex, gotID string
	env.writer.deleteFn = func(_ context.Context, index, id string) error {
		gotIndex, gotID = index, id
		return nil
	}

	if err := env.svc.Delete(context.Background(), domain.KindGroup, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotIndex != "group-index" || gotID != "5" {
		t.Errorf("deleted %s/%s, want group-index/5", gotIndex, gotID)
	}

	env.writer.deleteFn = func(_ context.Context, _, _ string) error { return domain.ErrNotFound }
	if err := env.svc.Delete(context.Background(), domain.KindMap, 1); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := env.svc.Delete(context.Background(), "service", 1); !errors.Is(err, domain.ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
}

func TestGravatar(t *testing.T) {
	g := Gravatar{MediaURL: "https://example.org/uploaded/"}

	uploaded := g.URL(&domain.Profile{AvatarPath: "/avatars/alice.png"})
	if uploaded != "https://example.org/uploaded/avatars/alice.png" {
		t.Errorf("uploaded avatar = %q", uploaded)
	}

	got := g.URL(&domain.Profile{Email: " MyEmailAddress@example.com "})
	want := "https://www.gravatar.com/avatar/0bc83cb571cd1c50ba6f3e8a78ef1346?d=identicon&s=240"
	if got != want {
		t.Errorf("gravatar = %q, want %q", got, want)
	}

	sized := Gravatar{Size: 100}.URL(&domain.Profile{})
	if !strings.HasSuffix(sized, "s=100") {
		t.Errorf("sized gravatar = %q", sized)
	}
}
