package geodex

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/kailas-cloud/geodex/internal/domain"
	"github.com/kailas-cloud/geodex/internal/repository/catalog"
)

// Index rebuilds the search document of one catalog entity and returns it.
func (c *Client) Index(ctx context.Context, kind Kind, id int64) (doc Document, err error) {
	start := time.Now()
	defer func() { c.obs.observe("index", start, err) }()

	k, err := domain.ParseKind(string(kind))
	if err != nil {
		return Document{}, fmt.Errorf("index: %w", err)
	}
	m, err := c.indexSvc.Reindex(ctx, k, id)
	if err != nil {
		return Document{}, fmt.Errorf("index: %w", err)
	}
	return Document{ID: m.ID, Index: m.Index, Source: m.Source}, nil
}

// Delete removes the search document of one catalog entity.
func (c *Client) Delete(ctx context.Context, kind Kind, id int64) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("delete", start, err) }()

	k, err := domain.ParseKind(string(kind))
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	if err := c.indexSvc.Delete(ctx, k, id); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}

// ReindexAll rebuilds the documents of every catalog entity of kinds, or of
// every kind when none are given. Entities that fail are counted, not
// returned; stats are returned for the kinds processed even on error.
func (c *Client) ReindexAll(ctx context.Context, kinds ...Kind) (stats []BulkStats, err error) {
	start := time.Now()
	defer func() { c.obs.observe("reindex_all", start, err) }()

	targets := domain.AllKinds
	if len(kinds) > 0 {
		targets = make([]domain.Kind, 0, len(kinds))
		for _, k := range kinds {
			dk, err := domain.ParseKind(string(k))
			if err != nil {
				return nil, fmt.Errorf("reindex: %w", err)
			}
			targets = append(targets, dk)
		}
	}

	res, err := c.indexSvc.ReindexAll(ctx, c.catalog, targets, c.bulk)
	stats = make([]BulkStats, len(res))
	for i, s := range res {
		stats[i] = BulkStats{Kind: Kind(s.Kind), Indexed: s.Indexed, Failed: s.Failed}
	}
	if err != nil {
		return stats, fmt.Errorf("reindex: %w", err)
	}
	return stats, nil
}

// ImportCatalog upserts a YAML catalog fixture. Run ReindexAll afterwards
// to refresh the search documents.
func (c *Client) ImportCatalog(ctx context.Context, r io.Reader) (stats ImportStats, err error) {
	start := time.Now()
	defer func() { c.obs.observe("import_catalog", start, err) }()

	f, err := catalog.DecodeFixture(r)
	if err != nil {
		return ImportStats{}, fmt.Errorf("import: %w", err)
	}
	res, err := c.catalog.Import(ctx, f)
	if err != nil {
		return ImportStats{}, fmt.Errorf("import: %w", err)
	}
	return ImportStats{Profiles: res.Profiles, Groups: res.Groups, Resources: res.Resources}, nil
}
