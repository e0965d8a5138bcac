package geodex

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/geodex/internal/domain/search/mode"
	"github.com/kailas-cloud/geodex/internal/domain/search/request"
	"github.com/kailas-cloud/geodex/internal/domain/search/result"
)

// Search queries one resource type ("layers", "maps", "documents",
// "profiles", "groups") or every resource with "base".
func (c *Client) Search(ctx context.Context, resourceType string, p SearchParams) (page Page, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()

	res, err := c.searchSvc.Search(ctx, resourceType, toRequestParams(p))
	if err != nil {
		return Page{}, fmt.Errorf("search: %w", err)
	}
	return Page{
		Total:   res.Meta.TotalCount,
		Limit:   res.Meta.Limit,
		Offset:  res.Meta.Offset,
		Objects: res.Objects,
	}, nil
}

// Suggest autocompletes resource titles.
func (c *Client) Suggest(ctx context.Context, prefix string) ([]Suggestion, error) {
	return c.suggest(ctx, "suggest", c.searchSvc.Suggest, prefix)
}

// SuggestPeople autocompletes user names.
func (c *Client) SuggestPeople(ctx context.Context, prefix string) ([]Suggestion, error) {
	return c.suggest(ctx, "suggest_people", c.searchSvc.SuggestPeople, prefix)
}

// SuggestGroups autocompletes group titles.
func (c *Client) SuggestGroups(ctx context.Context, prefix string) ([]Suggestion, error) {
	return c.suggest(ctx, "suggest_groups", c.searchSvc.SuggestGroups, prefix)
}

func (c *Client) suggest(
	ctx context.Context,
	op string,
	fn func(context.Context, string) ([]result.Suggestion, error),
	prefix string,
) (out []Suggestion, err error) {
	start := time.Now()
	defer func() { c.obs.observe(op, start, err) }()

	items, err := fn(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out = make([]Suggestion, len(items))
	for i, s := range items {
		out[i] = Suggestion{ID: s.ID, Kind: Kind(s.Type), Label: s.Label, URL: s.URL}
	}
	return out, nil
}

func toRequestParams(p SearchParams) request.Params {
	return request.Params{
		Query:       p.Query,
		Mode:        mode.Mode(p.Mode),
		Types:       p.Types,
		Categories:  p.Categories,
		Keywords:    p.Keywords,
		Regions:     p.Regions,
		Owners:      p.Owners,
		Subtypes:    p.Subtypes,
		Licenses:    p.Licenses,
		HasTime:     p.HasTime,
		Featured:    p.Featured,
		IsPublished: p.IsPublished,
		DateGTE:     p.DateGTE,
		DateLTE:     p.DateLTE,
		Extent:      p.Extent,
		OrderBy:     p.OrderBy,
		Limit:       p.Limit,
		Offset:      p.Offset,
	}
}
