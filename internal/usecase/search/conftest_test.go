package search

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/kailas-cloud/geodex/internal/domain"
	"github.com/kailas-cloud/geodex/internal/domain/search/request"
	"github.com/kailas-cloud/geodex/internal/domain/search/result"
)

type window struct {
	offset, limit int
}

type mockRepo struct {
	keywordFn func(ctx context.Context, req *request.Request, offset, limit int) (result.Hits, error)
	similarFn func(ctx context.Context, req *request.Request, vector []float32, offset, limit int) (result.Hits, error)
	suggestFn func(ctx context.Context, target request.Target, prefix string, limit int) ([]result.Hit, error)
	vectorOK  bool

	keywordCalls []window
	similarCalls []window
}

func (m *mockRepo) Keyword(ctx context.Context, req *request.Request, offset, limit int) (result.Hits, error) {
	m.keywordCalls = append(m.keywordCalls, window{offset, limit})
	if m.keywordFn != nil {
		return m.keywordFn(ctx, req, offset, limit)
	}
	return result.Hits{}, nil
}

func (m *mockRepo) Similar(
	ctx context.Context, req *request.Request, vector []float32, offset, limit int,
) (result.Hits, error) {
	m.similarCalls = append(m.similarCalls, window{offset, limit})
	if m.similarFn != nil {
		return m.similarFn(ctx, req, vector, offset, limit)
	}
	return result.Hits{}, nil
}

func (m *mockRepo) Suggest(ctx context.Context, target request.Target, prefix string, limit int) ([]result.Hit, error) {
	if m.suggestFn != nil {
		return m.suggestFn(ctx, target, prefix, limit)
	}
	return nil, nil
}

func (m *mockRepo) SupportsVectorSearch(_ context.Context) bool {
	return m.vectorOK
}

type mockEmbedder struct {
	vec    []float32
	err    error
	called bool
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.called = true
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec, TotalTokens: 5}, nil
}

func hit(index, id string, src map[string]any) result.Hit {
	data, _ := json.Marshal(src)
	return result.Hit{ID: id, Index: index, Source: data}
}

func idsOf(t *testing.T, page result.Page) []string {
	t.Helper()
	out := make([]string, 0, len(page.Objects))
	for _, o := range page.Objects {
		var v struct {
			ID json.Number `json:"id"`
		}
		if err := json.Unmarshal(o, &v); err != nil {
			t.Fatalf("decode object: %v", err)
		}
		out = append(out, v.ID.String())
	}
	return out
}
