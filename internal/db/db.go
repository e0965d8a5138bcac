package db

import (
	"context"
	"time"
)

// Store is the main search backend facade combining all sub-interfaces.
//
//nolint:interfacebloat // consumers depend on the narrow sub-interfaces
type Store interface {
	Pinger
	DocumentStore
	KVStore
	IndexManager
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks backend connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DocumentStore stores JSON source documents by index and id.
// PutDocument replaces any previous document with the same id.
type DocumentStore interface {
	PutDocument(ctx context.Context, index, id string, data []byte) error
	GetDocument(ctx context.Context, index, id string) ([]byte, error)
	DeleteDocument(ctx context.Context, index, id string) error
	DocumentExists(ctx context.Context, index, id string) (bool, error)
}

// KVStore provides simple key-value operations outside of any index.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// IndexManager provides index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SupportsVectorSearch(ctx context.Context) bool
}

// Searcher runs queries over indexes.
type Searcher interface {
	Search(ctx context.Context, q *Query) (*SearchResult, error)
}
