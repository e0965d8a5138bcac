package search

import (
	"context"
	"testing"

	"github.com/kailas-cloud/geodex/internal/db"
	"github.com/kailas-cloud/geodex/internal/domain/search/request"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	searchFn       func(ctx context.Context, q *db.Query) (*db.SearchResult, error)
	supportsVector bool
}

func (m *mockStore) Search(ctx context.Context, q *db.Query) (*db.SearchResult, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SupportsVectorSearch(_ context.Context) bool {
	return m.supportsVector
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms), ms
}

func mustRequest(t *testing.T, resourceType string, p request.Params) *request.Request {
	t.Helper()
	target, err := request.ParseTarget(resourceType)
	if err != nil {
		t.Fatalf("target: %v", err)
	}
	req, err := request.New(target, p)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	return &req
}
