package request

import (
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/geodex/internal/domain"
	"github.com/kailas-cloud/geodex/internal/domain/schema"
	"github.com/kailas-cloud/geodex/internal/domain/search/filter"
	"github.com/kailas-cloud/geodex/internal/domain/search/mode"
)

func boolPtr(b bool) *bool { return &b }

func mustTarget(t *testing.T, s string) Target {
	t.Helper()
	tg, err := ParseTarget(s)
	if err != nil {
		t.Fatalf("ParseTarget(%q): %v", s, err)
	}
	return tg
}

func TestParseTarget(t *testing.T) {
	tests := []struct {
		in    string
		index string
	}{
		{"layers", schema.LayerIndex},
		{"layer", schema.LayerIndex},
		{"maps", schema.MapIndex},
		{"documents", schema.DocumentIndex},
		{"profiles", schema.ProfileIndex},
		{"groups", schema.GroupIndex},
		{"base", schema.ResourceIndex},
		{"all", schema.ResourceIndex},
		{"ALL", schema.ResourceIndex},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			tg := mustTarget(t, tt.in)
			if tg.Index() != tt.index {
				t.Errorf("Index() = %q, want %q", tg.Index(), tt.index)
			}
		})
	}
}

func TestParseTarget_Unknown(t *testing.T) {
	for _, in := range []string{"services", "", "layerz"} {
		_, err := ParseTarget(in)
		if !errors.Is(err, domain.ErrUnknownResourceType) {
			t.Errorf("ParseTarget(%q) err = %v, want ErrUnknownResourceType", in, err)
		}
	}
}

func TestNew_Defaults(t *testing.T) {
	r, err := New(mustTarget(t, "layers"), Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Mode() != mode.Keyword {
		t.Errorf("Mode() = %q, want keyword", r.Mode())
	}
	if r.Limit() != DefaultLimit {
		t.Errorf("Limit() = %d, want %d", r.Limit(), DefaultLimit)
	}
	if !r.Sort().IsRelevance() {
		t.Errorf("Sort() = %+v, want relevance", r.Sort())
	}
	if !r.Filters().IsEmpty() {
		t.Error("Filters() should be empty")
	}
	if r.Extent() != nil {
		t.Error("Extent() should be nil")
	}
}

func TestNew_LimitClamped(t *testing.T) {
	r, err := New(mustTarget(t, "maps"), Params{Limit: 1000, Offset: 40})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Limit() != MaxLimit {
		t.Errorf("Limit() = %d, want %d", r.Limit(), MaxLimit)
	}
	if r.Offset() != 40 {
		t.Errorf("Offset() = %d", r.Offset())
	}
}

func TestNew_Filters(t *testing.T) {
	gte := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	r, err := New(mustTarget(t, "layers"), Params{
		Types:      []string{"layer"},
		Categories: []string{"boundaries", "transportation"},
		HasTime:    boolPtr(true),
		Featured:   boolPtr(false),
		DateGTE:    &gte,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	conds := r.Filters().Conditions()
	if len(conds) != 5 {
		t.Fatalf("conditions = %d, want 5", len(conds))
	}
	if conds[1].Field != "category" || len(conds[1].Values) != 2 {
		t.Errorf("category condition = %+v", conds[1])
	}
	last := conds[len(conds)-1]
	if last.Field != "date" || last.Kind != filter.KindRange {
		t.Fatalf("date condition = %+v", last)
	}
	if last.Range.Min == nil || last.Range.Min.Value != float64(gte.Unix()) || last.Range.Max != nil {
		t.Errorf("date range = %+v", last.Range)
	}
}

func TestNew_InvertedDateSpan(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(-1, 0, 0)

	_, err := New(mustTarget(t, "layers"), Params{DateGTE: &from, DateLTE: &to})
	if !errors.Is(err, domain.ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
}

func TestNew_LayerOnlyFilterRejectedForMaps(t *testing.T) {
	_, err := New(mustTarget(t, "maps"), Params{Subtypes: []string{"vector"}})
	if !errors.Is(err, domain.ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
}

func TestNew_Extent(t *testing.T) {
	r, err := New(mustTarget(t, "all"), Params{Extent: "-10,-5,10,5"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Extent() == nil || r.Extent().MaxX() != 10 {
		t.Errorf("Extent() = %v", r.Extent())
	}

	for _, bad := range []string{"1,2,3", "a,b,c,d", "10,0,-10,5"} {
		if _, err := New(mustTarget(t, "all"), Params{Extent: bad}); !errors.Is(err, domain.ErrInvalidQuery) {
			t.Errorf("extent %q: expected ErrInvalidQuery, got %v", bad, err)
		}
	}

	if _, err := New(mustTarget(t, "profiles"), Params{Extent: "-10,-5,10,5"}); !errors.Is(err, domain.ErrInvalidQuery) {
		t.Errorf("profile extent: expected ErrInvalidQuery, got %v", err)
	}
}

func TestNew_OrderBy(t *testing.T) {
	tests := []struct {
		target  string
		orderBy string
		field   string
		desc    bool
		wantErr bool
	}{
		{"layers", "-date", "date", true, false},
		{"layers", "title_sortable", "title_sortable", false, false},
		{"maps", "-popular_count", "popular_count", true, false},
		{"all", "-rating", "rating", true, false},
		{"groups", "title_sortable", "title_sortable", false, false},
		{"layers", "relevance", "", false, false},
		{"layers", "abstract", "", false, true},
		{"profiles", "-date", "", false, true},
		{"layers", "-", "", false, true},
		{"layers", "date;drop", "", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.target+"/"+tt.orderBy, func(t *testing.T) {
			r, err := New(mustTarget(t, tt.target), Params{OrderBy: tt.orderBy})
			if tt.wantErr {
				if !errors.Is(err, domain.ErrInvalidQuery) {
					t.Fatalf("expected ErrInvalidQuery, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if r.Sort().Field != tt.field || r.Sort().Desc != tt.desc {
				t.Errorf("Sort() = %+v", r.Sort())
			}
		})
	}
}

func TestNew_InvalidMode(t *testing.T) {
	_, err := New(mustTarget(t, "layers"), Params{Mode: "fuzzy"})
	if !errors.Is(err, domain.ErrInvalidQuery) {
		t.Errorf("expected ErrInvalidQuery, got %v", err)
	}
	for _, m := range []mode.Mode{mode.Semantic, mode.Hybrid} {
		_, err = New(mustTarget(t, "layers"), Params{Mode: m})
		if !errors.Is(err, domain.ErrInvalidQuery) {
			t.Errorf("%s without q: expected ErrInvalidQuery, got %v", m, err)
		}
	}
}

func TestNew_NegativeOffset(t *testing.T) {
	_, err := New(mustTarget(t, "layers"), Params{Offset: -1})
	if !errors.Is(err, domain.ErrInvalidQuery) {
		t.Errorf("expected ErrInvalidQuery, got %v", err)
	}
}
