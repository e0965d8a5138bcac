package document

import (
	"context"
	"testing"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	putFn    func(ctx context.Context, index, id string, data []byte) error
	getFn    func(ctx context.Context, index, id string) ([]byte, error)
	deleteFn func(ctx context.Context, index, id string) error
	existsFn func(ctx context.Context, index, id string) (bool, error)
}

func (m *mockStore) PutDocument(ctx context.Context, index, id string, data []byte) error {
	if m.putFn != nil {
		return m.putFn(ctx, index, id, data)
	}
	return nil
}

func (m *mockStore) GetDocument(ctx context.Context, index, id string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, index, id)
	}
	return []byte("{}"), nil
}

func (m *mockStore) DeleteDocument(ctx context.Context, index, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, index, id)
	}
	return nil
}

func (m *mockStore) DocumentExists(ctx context.Context, index, id string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, index, id)
	}
	return false, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms), ms
}
