package bleve

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	blevesearch "github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/kailas-cloud/geodex/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

const kvIndexName = "_kv"

// Config holds parameters for an embedded bleve store.
type Config struct {
	// Path is the directory holding one bleve index per search index.
	// Empty keeps everything in memory.
	Path string
}

// Store implements db.Store on embedded bleve indexes. Each search index is
// its own bleve index; an index with sources is served by an index alias.
type Store struct {
	mu      sync.RWMutex
	path    string
	indexes map[string]*indexEntry
	kv      blevesearch.Index
	closed  bool
}

type indexEntry struct {
	index  blevesearch.Index
	fields map[string]fieldRef
	alias  bool
}

// NewStore opens the key-value index and prepares an empty index registry.
// Search indexes are opened by CreateIndex.
func NewStore(cfg Config) (*Store, error) {
	s := &Store{path: cfg.Path, indexes: make(map[string]*indexEntry)}

	if cfg.Path != "" {
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	kv, err := s.openOrCreate(kvIndexName, blevesearch.NewIndexMapping())
	if err != nil {
		return nil, &db.Error{Op: db.OpOpen, Err: err}
	}
	s.kv = kv

	return s, nil
}

// Ping reports whether the store is open.
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errors.New("store is closed")
	}
	return nil
}

// Close closes every open index.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for _, e := range s.indexes {
		if !e.alias {
			_ = e.index.Close()
		}
	}
	_ = s.kv.Close()
}

// WaitForReady returns immediately: an embedded store is ready once opened.
func (s *Store) WaitForReady(ctx context.Context, _ time.Duration) error {
	return s.Ping(ctx)
}

func (s *Store) indexPath(name string) string {
	return filepath.Join(s.path, name+".bleve")
}

// openOrCreate opens an existing index on disk or creates a new one.
func (s *Store) openOrCreate(name string, m mapping.IndexMapping) (blevesearch.Index, error) {
	var (
		idx blevesearch.Index
		err error
	)
	switch {
	case s.path == "":
		idx, err = blevesearch.NewMemOnly(m)
	default:
		idx, err = blevesearch.Open(s.indexPath(name))
		if errors.Is(err, blevesearch.ErrorIndexPathDoesNotExist) {
			idx, err = blevesearch.New(s.indexPath(name), m)
		}
	}
	if err != nil {
		return nil, err
	}
	idx.SetName(name)
	return idx, nil
}

func (s *Store) entry(name string) (*indexEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.indexes[name]
	if !ok {
		return nil, db.ErrIndexNotFound
	}
	return e, nil
}

// concrete returns a non-alias index for document writes.
func (s *Store) concrete(name string) (blevesearch.Index, error) {
	e, err := s.entry(name)
	if err != nil {
		return nil, err
	}
	if e.alias {
		return nil, fmt.Errorf("index %q is an alias and does not hold documents", name)
	}
	return e.index, nil
}
