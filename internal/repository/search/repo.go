package search

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/geodex/internal/db"
	"github.com/kailas-cloud/geodex/internal/domain"
	"github.com/kailas-cloud/geodex/internal/domain/schema"
	"github.com/kailas-cloud/geodex/internal/domain/search/request"
	"github.com/kailas-cloud/geodex/internal/domain/search/result"
)

// store is the consumer interface for search operations (ISP).
type store interface {
	Search(ctx context.Context, q *db.Query) (*db.SearchResult, error)
	SupportsVectorSearch(ctx context.Context) bool
}

// textFields are the analyzed fields free-text queries run over. Fields a
// target schema lacks are skipped.
var textFields = []string{
	"title", "title_english",
	"abstract", "abstract_english",
	"keywords_text", "keywords_english",
	"regions_text",
	"category_text",
	"owner__username_text",
	"username_text", "first_name", "last_name", "organization",
	"description",
}

// suggestFields are the prefix-matched fields of autocomplete, per index.
// Fields of one entry share an analyzer.
var suggestFields = map[string]db.PrefixMatch{
	schema.ResourceIndex: titlePrefix,
	schema.LayerIndex:    titlePrefix,
	schema.MapIndex:      titlePrefix,
	schema.DocumentIndex: titlePrefix,
	schema.ProfileIndex: {
		Fields:   []string{"username_text", "first_name", "last_name"},
		Analyzer: db.AnalyzerStandard,
	},
	schema.GroupIndex: titlePrefix,
}

var titlePrefix = db.PrefixMatch{Fields: []string{"title_pattern"}, Analyzer: db.AnalyzerPattern}

// Repo translates search requests into backend queries.
type Repo struct {
	store store
}

// New creates a search repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// SupportsVectorSearch proxies the capability check from the store.
func (r *Repo) SupportsVectorSearch(ctx context.Context) bool {
	return r.store.SupportsVectorSearch(ctx)
}

// Keyword runs the request's text query with its filters, extent and order,
// returning hits offset..offset+limit.
func (r *Repo) Keyword(ctx context.Context, req *request.Request, offset, limit int) (result.Hits, error) {
	q := baseQuery(req, offset, limit)
	if req.Query() != "" {
		q.Text = &db.TextMatch{Query: req.Query(), Fields: fieldsOf(req.Target().Schema(), textFields)}
	}
	if s := req.Sort(); !s.IsRelevance() {
		q.SortBy = s.Field
		q.SortDesc = s.Desc
	}
	return r.run(ctx, q)
}

// Similar runs a nearest-neighbour search for vector restricted by the
// request's filters and extent. Hits are ordered by similarity.
func (r *Repo) Similar(
	ctx context.Context, req *request.Request, vector []float32, offset, limit int,
) (result.Hits, error) {
	if len(vector) == 0 {
		return result.Hits{}, fmt.Errorf("%w: empty query vector", domain.ErrInvalidQuery)
	}
	q := baseQuery(req, offset, limit)
	q.Vector = vector
	return r.run(ctx, q)
}

// Suggest returns up to limit documents of target whose suggestion fields
// start with prefix.
func (r *Repo) Suggest(ctx context.Context, target request.Target, prefix string, limit int) ([]result.Hit, error) {
	match, ok := suggestFields[target.Index()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownResourceType, target)
	}
	// Input without a single token, such as "--", matches nothing.
	if len(db.PrefixTerms(prefix, match.Analyzer)) == 0 {
		return []result.Hit{}, nil
	}
	match.Prefix = prefix
	hits, err := r.run(ctx, &db.Query{
		IndexName: target.Index(),
		Prefix:    &match,
		Limit:     limit,
	})
	if err != nil {
		return nil, err
	}
	return hits.Items, nil
}

func baseQuery(req *request.Request, offset, limit int) *db.Query {
	q := &db.Query{
		IndexName: req.Target().Index(),
		Filters:   req.Filters(),
		Offset:    offset,
		Limit:     limit,
	}
	if env := req.Extent(); env != nil {
		q.Intersects = &db.GeoIntersects{Field: "bbox", Envelope: *env}
	}
	return q
}

func (r *Repo) run(ctx context.Context, q *db.Query) (result.Hits, error) {
	sr, err := r.store.Search(ctx, q)
	if err != nil {
		return result.Hits{}, fmt.Errorf("search %s: %w", q.IndexName, err)
	}
	if sr == nil {
		return result.Hits{}, nil
	}

	items := make([]result.Hit, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		src, err := stripReserved(e.Source)
		if err != nil {
			return result.Hits{}, fmt.Errorf("decode hit %s/%s: %w", e.Index, e.ID, err)
		}
		items = append(items, result.Hit{ID: e.ID, Index: e.Index, Score: e.Score, Source: src})
	}
	return result.Hits{Total: sr.Total, Items: items}, nil
}

// stripReserved drops the companion fields maintained for the backends.
func stripReserved(raw []byte) (json.RawMessage, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	_, ts := m[db.FieldTimestamps]
	_, g := m[db.FieldGeo]
	_, v := m[db.FieldVector]
	if !ts && !g && !v {
		return json.RawMessage(raw), nil
	}
	delete(m, db.FieldTimestamps)
	delete(m, db.FieldGeo)
	delete(m, db.FieldVector)
	return json.Marshal(m)
}

func fieldsOf(s *schema.Schema, names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := s.Leaf(n); ok {
			out = append(out, n)
		}
	}
	return out
}
