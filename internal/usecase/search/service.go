package search

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/geodex/internal/domain"
	"github.com/kailas-cloud/geodex/internal/domain/schema"
	"github.com/kailas-cloud/geodex/internal/domain/search/mode"
	"github.com/kailas-cloud/geodex/internal/domain/search/request"
	"github.com/kailas-cloud/geodex/internal/domain/search/result"
)

// DefaultSuggestLimit bounds autocomplete lists.
const DefaultSuggestLimit = 10

// Service handles catalog search across keyword, semantic, and hybrid modes
// and serves autocomplete suggestions.
type Service struct {
	repo         Repository
	embed        Embedder
	suggestLimit int
}

// New creates a search service. embed can be nil; semantic and hybrid
// searches then fail with ErrEmbedderNotConfigured.
func New(repo Repository, embed Embedder, suggestLimit int) *Service {
	if suggestLimit <= 0 {
		suggestLimit = DefaultSuggestLimit
	}
	return &Service{repo: repo, embed: embed, suggestLimit: suggestLimit}
}

// Search runs a search against the index selected by resourceType.
func (s *Service) Search(ctx context.Context, resourceType string, p request.Params) (result.Page, error) {
	target, err := request.ParseTarget(resourceType)
	if err != nil {
		return result.Page{}, err
	}
	req, err := request.New(target, p)
	if err != nil {
		return result.Page{}, err
	}

	var hits result.Hits
	switch req.Mode() {
	case mode.Keyword:
		hits, err = s.searchKeyword(ctx, &req)
	case mode.Semantic:
		hits, err = s.searchSemantic(ctx, &req)
	case mode.Hybrid:
		hits, err = s.searchHybrid(ctx, &req)
	default:
		return result.Page{}, fmt.Errorf("unsupported search mode: %s", req.Mode())
	}
	if err != nil {
		return result.Page{}, err
	}

	return result.NewPage(hits.Total, req.Limit(), req.Offset(), hits.Sources()), nil
}

func (s *Service) searchKeyword(ctx context.Context, req *request.Request) (result.Hits, error) {
	hits, err := s.repo.Keyword(ctx, req, req.Offset(), req.Limit())
	if err != nil {
		return result.Hits{}, fmt.Errorf("search keyword: %w", err)
	}
	return hits, nil
}

// searchSemantic embeds the query and runs KNN search.
func (s *Service) searchSemantic(ctx context.Context, req *request.Request) (result.Hits, error) {
	vec, err := s.vectorize(ctx, req)
	if err != nil {
		return result.Hits{}, err
	}
	hits, err := s.repo.Similar(ctx, req, vec, req.Offset(), req.Limit())
	if err != nil {
		return result.Hits{}, fmt.Errorf("search knn: %w", err)
	}
	return hits, nil
}

// searchHybrid runs KNN and keyword search in parallel over the window
// ending at offset+limit, then fuses via RRF. Total is the larger of the
// two match counts.
func (s *Service) searchHybrid(ctx context.Context, req *request.Request) (result.Hits, error) {
	vec, err := s.vectorize(ctx, req)
	if err != nil {
		return result.Hits{}, err
	}

	window := req.Offset() + req.Limit()
	var knn, kw result.Hits

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if knn, err = s.repo.Similar(gctx, req, vec, 0, window); err != nil {
			return fmt.Errorf("search knn: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if kw, err = s.repo.Keyword(gctx, req, 0, window); err != nil {
			return fmt.Errorf("search keyword: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return result.Hits{}, err
	}

	fused := fuseRRF(knn.Items, kw.Items)
	total := max(knn.Total, kw.Total, len(fused))

	start := min(req.Offset(), len(fused))
	end := min(start+req.Limit(), len(fused))
	return result.Hits{Total: total, Items: fused[start:end]}, nil
}

func (s *Service) vectorize(ctx context.Context, req *request.Request) ([]float32, error) {
	if k := req.Target().Kind(); k == domain.KindProfile || k == domain.KindGroup {
		return nil, fmt.Errorf("%w: %s search is not available for %s", domain.ErrInvalidQuery, req.Mode(), req.Target())
	}
	if s.embed == nil {
		return nil, domain.ErrEmbedderNotConfigured
	}
	if !s.repo.SupportsVectorSearch(ctx) {
		return nil, domain.ErrSemanticSearchNotSupported
	}

	res, err := s.embed.Embed(ctx, req.Query())
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}
	return res.Embedding, nil
}

// Suggest returns layers, maps and documents whose title starts with prefix.
func (s *Service) Suggest(ctx context.Context, prefix string) ([]result.Suggestion, error) {
	return s.suggest(ctx, "base", prefix)
}

// SuggestPeople returns profiles whose username or name starts with prefix.
func (s *Service) SuggestPeople(ctx context.Context, prefix string) ([]result.Suggestion, error) {
	return s.suggest(ctx, string(domain.KindProfile), prefix)
}

// SuggestGroups returns groups whose title starts with prefix.
func (s *Service) SuggestGroups(ctx context.Context, prefix string) ([]result.Suggestion, error) {
	return s.suggest(ctx, string(domain.KindGroup), prefix)
}

func (s *Service) suggest(ctx context.Context, resourceType, prefix string) ([]result.Suggestion, error) {
	if prefix == "" {
		return []result.Suggestion{}, nil
	}
	if len(prefix) > request.MaxQueryLength {
		return nil, fmt.Errorf("%w: prefix too long (max %d chars)", domain.ErrInvalidQuery, request.MaxQueryLength)
	}

	target, err := request.ParseTarget(resourceType)
	if err != nil {
		return nil, err
	}
	hits, err := s.repo.Suggest(ctx, target, prefix, s.suggestLimit)
	if err != nil {
		return nil, fmt.Errorf("suggest %s: %w", target, err)
	}

	out := make([]result.Suggestion, 0, len(hits))
	for _, h := range hits {
		sg, err := suggestion(h)
		if err != nil {
			return nil, err
		}
		out = append(out, sg)
	}
	return out, nil
}

// suggestionSource holds the document fields suggestions are built from.
type suggestionSource struct {
	Title            string `json:"title"`
	Username         string `json:"username"`
	DetailURL        string `json:"detail_url"`
	ProfileDetailURL string `json:"profile_detail_url"`
}

func suggestion(h result.Hit) (result.Suggestion, error) {
	var src suggestionSource
	if err := json.Unmarshal(h.Source, &src); err != nil {
		return result.Suggestion{}, fmt.Errorf("decode suggestion %s: %w", h.Key(), err)
	}
	sg := result.Suggestion{ID: h.ID, Label: src.Title, URL: src.DetailURL}
	if s, ok := schema.ForIndex(h.Index); ok {
		sg.Type = string(s.Kind)
	}
	if src.Username != "" {
		sg.Label, sg.URL = src.Username, src.ProfileDetailURL
	}
	return sg, nil
}
