package bleve

import (
	"context"
	"fmt"
	"strings"

	blevesearch "github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/kailas-cloud/geodex/internal/db"
	"github.com/kailas-cloud/geodex/internal/domain/search/filter"
)

// Search runs a query over an index or alias. Vector queries are rejected.
func (s *Store) Search(ctx context.Context, q *db.Query) (*db.SearchResult, error) {
	if q.IsKNN() {
		return nil, db.ErrVectorNotSupported
	}
	if q.Limit < 0 || q.Offset < 0 {
		return nil, fmt.Errorf("offset and limit must not be negative")
	}

	e, err := s.entry(q.IndexName)
	if err != nil {
		return nil, err
	}

	bq, err := buildQuery(e.fields, q)
	if err != nil {
		return nil, err
	}

	req := blevesearch.NewSearchRequestOptions(bq, q.Limit, q.Offset, false)
	req.Fields = []string{sourceField}
	if q.SortBy != "" {
		ref, ok := e.fields[q.SortBy]
		if !ok {
			return nil, fmt.Errorf("unknown sort field %q", q.SortBy)
		}
		order := ref.path
		if q.SortDesc {
			order = "-" + order
		}
		req.SortBy([]string{order, "-_score"})
	}

	res, err := e.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	entries := make([]db.SearchEntry, 0, len(res.Hits))
	for _, hit := range res.Hits {
		src, ok := hit.Fields[sourceField].(string)
		if !ok {
			continue
		}
		entries = append(entries, db.SearchEntry{
			Key:    hit.Index + ":" + hit.ID,
			Index:  hit.Index,
			ID:     hit.ID,
			Score:  hit.Score,
			Source: []byte(src),
		})
	}

	return &db.SearchResult{Total: int(res.Total), Entries: entries}, nil
}

// buildQuery combines the text, prefix, filter and geo clauses with AND.
func buildQuery(fields map[string]fieldRef, q *db.Query) (query.Query, error) {
	var must []query.Query

	if q.Text != nil && strings.TrimSpace(q.Text.Query) != "" {
		paths, err := resolve(fields, q.Text.Fields)
		if err != nil {
			return nil, err
		}
		alts := make([]query.Query, 0, len(paths))
		for _, p := range paths {
			mq := blevesearch.NewMatchQuery(q.Text.Query)
			mq.SetField(p)
			mq.SetOperator(query.MatchQueryOperatorAnd)
			alts = append(alts, mq)
		}
		must = append(must, blevesearch.NewDisjunctionQuery(alts...))
	}

	if q.Prefix != nil {
		if terms := db.PrefixTerms(q.Prefix.Prefix, q.Prefix.Analyzer); len(terms) > 0 {
			paths, err := resolve(fields, q.Prefix.Fields)
			if err != nil {
				return nil, err
			}
			alts := make([]query.Query, 0, len(paths))
			for _, p := range paths {
				alts = append(alts, prefixQuery(p, terms))
			}
			must = append(must, blevesearch.NewDisjunctionQuery(alts...))
		}
	}

	for _, c := range q.Filters.Conditions() {
		cq, err := conditionQuery(fields, c)
		if err != nil {
			return nil, err
		}
		must = append(must, cq)
	}

	if q.Intersects != nil {
		ref, ok := fields[q.Intersects.Field]
		if !ok || ref.typ != db.IndexFieldGeoShape {
			return nil, fmt.Errorf("unknown geo field %q", q.Intersects.Field)
		}
		must = append(must, intersectsQuery(ref.path, q.Intersects))
	}

	if len(must) == 0 {
		return blevesearch.NewMatchAllQuery(), nil
	}
	return blevesearch.NewConjunctionQuery(must...), nil
}

func resolve(fields map[string]fieldRef, names []string) ([]string, error) {
	paths := make([]string, 0, len(names))
	for _, n := range names {
		ref, ok := fields[n]
		if !ok {
			return nil, fmt.Errorf("unknown field %q", n)
		}
		paths = append(paths, ref.path)
	}
	return paths, nil
}

// prefixQuery matches every term but the last exactly and the last as a prefix.
func prefixQuery(path string, terms []string) query.Query {
	last := blevesearch.NewPrefixQuery(terms[len(terms)-1])
	last.SetField(path)
	if len(terms) == 1 {
		return last
	}
	parts := make([]query.Query, 0, len(terms))
	for _, t := range terms[:len(terms)-1] {
		mq := blevesearch.NewMatchQuery(t)
		mq.SetField(path)
		parts = append(parts, mq)
	}
	parts = append(parts, last)
	return blevesearch.NewConjunctionQuery(parts...)
}

func conditionQuery(fields map[string]fieldRef, c filter.Condition) (query.Query, error) {
	ref, ok := fields[c.Field]
	if !ok {
		return nil, fmt.Errorf("unknown filter field %q", c.Field)
	}

	switch c.Kind {
	case filter.KindAnyOf:
		if len(c.Values) == 1 {
			return termQuery(ref.path, c.Values[0]), nil
		}
		alts := make([]query.Query, 0, len(c.Values))
		for _, v := range c.Values {
			alts = append(alts, termQuery(ref.path, v))
		}
		return blevesearch.NewDisjunctionQuery(alts...), nil
	case filter.KindFlag:
		bq := blevesearch.NewBoolFieldQuery(c.Flag)
		bq.SetField(ref.path)
		return bq, nil
	case filter.KindRange:
		return rangeQuery(ref.path, c.Range), nil
	}
	return nil, fmt.Errorf("unsupported %s condition on %q", c.Kind, c.Field)
}

func termQuery(path, value string) query.Query {
	tq := blevesearch.NewTermQuery(value)
	tq.SetField(path)
	return tq
}

func rangeQuery(path string, r filter.Range) query.Query {
	var (
		minV, maxV       *float64
		minIncl, maxIncl bool
	)
	if r.Min != nil {
		v := r.Min.Value
		minV, minIncl = &v, !r.Min.Exclusive
	}
	if r.Max != nil {
		v := r.Max.Value
		maxV, maxIncl = &v, !r.Max.Exclusive
	}
	nq := blevesearch.NewNumericRangeInclusiveQuery(minV, maxV, &minIncl, &maxIncl)
	nq.SetField(path)
	return nq
}

// intersectsQuery keeps shapes whose stored corners overlap the envelope.
func intersectsQuery(path string, g *db.GeoIntersects) query.Query {
	incl := true
	bound := func(corner string, minV, maxV *float64) query.Query {
		nq := blevesearch.NewNumericRangeInclusiveQuery(minV, maxV, &incl, &incl)
		nq.SetField(path + "." + corner)
		return nq
	}
	minX, minY := g.Envelope.MinX(), g.Envelope.MinY()
	maxX, maxY := g.Envelope.MaxX(), g.Envelope.MaxY()
	return blevesearch.NewConjunctionQuery(
		bound("minx", nil, &maxX),
		bound("maxx", &minX, nil),
		bound("miny", nil, &maxY),
		bound("maxy", &minY, nil),
	)
}
