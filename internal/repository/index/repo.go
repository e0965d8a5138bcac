package index

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/geodex/internal/db"
	"github.com/kailas-cloud/geodex/internal/domain/schema"
)

// store is the consumer interface for index management (ISP).
type store interface {
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SupportsVectorSearch(ctx context.Context) bool
}

// HNSWConfig HNSW index parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo creates and drops the search indexes declared by the schemas.
type Repo struct {
	store     store
	vectorDim int
	hnsw      HNSWConfig
}

// New creates an index repository. vectorDim is the embedding dimension,
// 0 when no embedder is configured.
func New(s store, vectorDim int) *Repo {
	return &Repo{store: s, vectorDim: vectorDim, hnsw: HNSWConfig{M: 16, EFConstruct: 200}}
}

// WithHNSW configures HNSW index parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	if cfg.M > 0 {
		r.hnsw.M = cfg.M
	}
	if cfg.EFConstruct > 0 {
		r.hnsw.EFConstruct = cfg.EFConstruct
	}
	return r
}

// Definitions returns the index definitions for every schema, concrete
// indexes before the alias that spans them.
func (r *Repo) Definitions(ctx context.Context) ([]*db.IndexDefinition, error) {
	dim := r.vectorDim
	if dim > 0 && !r.store.SupportsVectorSearch(ctx) {
		dim = 0
	}

	schemas := schema.All()
	defs := make([]*db.IndexDefinition, 0, len(schemas))
	for _, s := range schemas {
		def, err := buildIndex(s, dim, r.hnsw)
		if err != nil {
			return nil, fmt.Errorf("build index: %w", err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// EnsureAll creates every missing index. Existing indexes are left as they are.
func (r *Repo) EnsureAll(ctx context.Context) error {
	defs, err := r.Definitions(ctx)
	if err != nil {
		return err
	}

	for _, def := range defs {
		exists, err := r.store.IndexExists(ctx, def.Name)
		if err != nil {
			return fmt.Errorf("check index %s: %w", def.Name, err)
		}
		if exists {
			continue
		}
		if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
			return fmt.Errorf("create index %s: %w", def.Name, err)
		}
	}
	return nil
}

// RecreateAll drops every index and creates it again from the schemas.
// Aliases are dropped before the indexes they span.
func (r *Repo) RecreateAll(ctx context.Context) error {
	defs, err := r.Definitions(ctx)
	if err != nil {
		return err
	}

	for i := len(defs) - 1; i >= 0; i-- {
		if err := r.store.DropIndex(ctx, defs[i].Name); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
			return fmt.Errorf("drop index %s: %w", defs[i].Name, err)
		}
	}
	for _, def := range defs {
		if err := r.store.CreateIndex(ctx, def); err != nil {
			return fmt.Errorf("create index %s: %w", def.Name, err)
		}
	}
	return nil
}
