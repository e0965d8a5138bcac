package bleve

import (
	"context"
	"fmt"
	"os"

	blevesearch "github.com/blevesearch/bleve/v2"

	"github.com/kailas-cloud/geodex/internal/db"
)

// CreateIndex opens or creates the bleve index for def. An index with
// sources becomes an alias over those indexes, which must already exist.
// Calling it for an index already open returns db.ErrIndexExists.
func (s *Store) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	m, refs, err := buildMapping(def)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.indexes[def.Name]; ok {
		return db.ErrIndexExists
	}

	if def.IsAlias() {
		members := make([]blevesearch.Index, 0, len(def.Sources))
		for _, src := range def.Sources {
			e, ok := s.indexes[src]
			if !ok || e.alias {
				return &db.Error{Op: db.OpOpen, Err: fmt.Errorf("alias source %q: %w", src, db.ErrIndexNotFound)}
			}
			members = append(members, e.index)
		}
		alias := blevesearch.NewIndexAlias(members...)
		alias.SetName(def.Name)
		s.indexes[def.Name] = &indexEntry{index: alias, fields: refs, alias: true}
		return nil
	}

	idx, err := s.openOrCreate(def.Name, m)
	if err != nil {
		return &db.Error{Op: db.OpOpen, Err: err}
	}
	s.indexes[def.Name] = &indexEntry{index: idx, fields: refs}
	return nil
}

// DropIndex closes the index and removes its files. Aliases only forget
// their members.
func (s *Store) DropIndex(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.indexes[name]
	if !ok {
		return db.ErrIndexNotFound
	}
	delete(s.indexes, name)
	if e.alias {
		return nil
	}

	if err := e.index.Close(); err != nil {
		return &db.Error{Op: db.OpOpen, Err: err}
	}
	if s.path != "" {
		if err := os.RemoveAll(s.indexPath(name)); err != nil {
			return &db.Error{Op: db.OpOpen, Err: err}
		}
	}
	return nil
}

// IndexExists reports whether the index is open in this store.
func (s *Store) IndexExists(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.indexes[name]
	return ok, nil
}

// SupportsVectorSearch returns false: the embedded backend has no vector index.
func (s *Store) SupportsVectorSearch(_ context.Context) bool {
	return false
}
