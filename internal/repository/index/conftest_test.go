package index

import (
	"context"
	"testing"

	"github.com/kailas-cloud/geodex/internal/db"
)

const testVectorDim = 8

// mockStore implements the consumer interface for tests.
type mockStore struct {
	createIndexFn  func(ctx context.Context, def *db.IndexDefinition) error
	dropIndexFn    func(ctx context.Context, name string) error
	indexExistsFn  func(ctx context.Context, name string) (bool, error)
	supportsVector bool
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) DropIndex(ctx context.Context, name string) error {
	if m.dropIndexFn != nil {
		return m.dropIndexFn(ctx, name)
	}
	return nil
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return false, nil
}

func (m *mockStore) SupportsVectorSearch(_ context.Context) bool {
	return m.supportsVector
}

func newTestRepo(t *testing.T, vectorDim int) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, vectorDim), ms
}
