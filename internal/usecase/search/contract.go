package search

import (
	"context"

	"github.com/kailas-cloud/geodex/internal/domain"
	"github.com/kailas-cloud/geodex/internal/domain/search/request"
	"github.com/kailas-cloud/geodex/internal/domain/search/result"
)

// Repository defines the storage contract for search operations.
type Repository interface {
	Keyword(ctx context.Context, req *request.Request, offset, limit int) (result.Hits, error)
	Similar(ctx context.Context, req *request.Request, vector []float32, offset, limit int) (result.Hits, error)
	Suggest(ctx context.Context, target request.Target, prefix string, limit int) ([]result.Hit, error)
	SupportsVectorSearch(ctx context.Context) bool
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
