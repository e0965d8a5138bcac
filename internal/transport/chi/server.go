// Package chi serves the search, autocomplete and indexing HTTP API.
package chi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/geodex/internal/domain"
	domdoc "github.com/kailas-cloud/geodex/internal/domain/document"
	"github.com/kailas-cloud/geodex/internal/domain/search/request"
	"github.com/kailas-cloud/geodex/internal/domain/search/result"
	"github.com/kailas-cloud/geodex/internal/logger"
	healthuc "github.com/kailas-cloud/geodex/internal/usecase/health"
	usageuc "github.com/kailas-cloud/geodex/internal/usecase/usage"
)

// Searcher runs searches and autocomplete lookups.
type Searcher interface {
	Search(ctx context.Context, resourceType string, p request.Params) (result.Page, error)
	Suggest(ctx context.Context, prefix string) ([]result.Suggestion, error)
	SuggestPeople(ctx context.Context, prefix string) ([]result.Suggestion, error)
	SuggestGroups(ctx context.Context, prefix string) ([]result.Suggestion, error)
}

// Indexer reindexes and removes single catalog entities.
type Indexer interface {
	Reindex(ctx context.Context, kind domain.Kind, id int64) (domdoc.Materialized, error)
	Delete(ctx context.Context, kind domain.Kind, id int64) error
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// UsageReporter reports embedding token usage.
type UsageReporter interface {
	Report(ctx context.Context, period usageuc.Period) usageuc.Report
}

// SuggestionList is the autocomplete response body.
type SuggestionList struct {
	Results []result.Suggestion `json:"results"`
}

// HealthResponse is the health endpoint response body.
type HealthResponse struct {
	Status healthuc.Status                 `json:"status"`
	Checks map[string]healthuc.CheckResult `json:"checks"`
}

// Server holds the HTTP handlers.
type Server struct {
	search  Searcher
	indexer Indexer
	health  HealthChecker
	usage   UsageReporter
	apiKeys []string
	logger  *zap.Logger
}

// NewServer creates an HTTP API server. apiKeys guard the index routes;
// empty leaves them open.
func NewServer(search Searcher, indexer Indexer, health HealthChecker, apiKeys []string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		search:  search,
		indexer: indexer,
		health:  health,
		apiKeys: apiKeys,
		logger:  logger,
	}
}

// WithUsage serves the embedding budget report on /usage.
func (s *Server) WithUsage(u UsageReporter) *Server {
	s.usage = u
	return s
}

// Register mounts the API routes on r.
func (s *Server) Register(r chi.Router) {
	r.Get("/api/{resourcetype}/search/", s.Search)
	r.Get("/autocomplete", s.Autocomplete)
	r.Get("/autocomplete/people", s.AutocompletePeople)
	r.Get("/autocomplete/groups", s.AutocompleteGroups)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuthMiddleware(s.apiKeys))
		r.Put("/api/index/{kind}/{id}", s.IndexEntity)
		r.Delete("/api/index/{kind}/{id}", s.DeleteEntity)
		if s.usage != nil {
			r.Get("/usage", s.Usage)
		}
	})

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// Handler returns a router serving the API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	s.Register(r)
	return r
}

// Search handles GET /api/{resourcetype}/search/.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	params, err := bindSearchParams(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	page, err := s.search.Search(r.Context(), chi.URLParam(r, "resourcetype"), params)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Autocomplete handles GET /autocomplete.
func (s *Server) Autocomplete(w http.ResponseWriter, r *http.Request) {
	s.suggest(w, r, s.search.Suggest)
}

// AutocompletePeople handles GET /autocomplete/people.
func (s *Server) AutocompletePeople(w http.ResponseWriter, r *http.Request) {
	s.suggest(w, r, s.search.SuggestPeople)
}

// AutocompleteGroups handles GET /autocomplete/groups.
func (s *Server) AutocompleteGroups(w http.ResponseWriter, r *http.Request) {
	s.suggest(w, r, s.search.SuggestGroups)
}

func (s *Server) suggest(
	w http.ResponseWriter, r *http.Request,
	fn func(ctx context.Context, prefix string) ([]result.Suggestion, error),
) {
	prefix, err := bindPrefix(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	items, err := fn(r.Context(), prefix)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if items == nil {
		items = []result.Suggestion{}
	}
	writeJSON(w, http.StatusOK, SuggestionList{Results: items})
}

// IndexEntity handles PUT /api/index/{kind}/{id}.
func (s *Server) IndexEntity(w http.ResponseWriter, r *http.Request) {
	kind, id, err := entityRef(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	doc, err := s.indexer.Reindex(r.Context(), kind, id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// DeleteEntity handles DELETE /api/index/{kind}/{id}.
func (s *Server) DeleteEntity(w http.ResponseWriter, r *http.Request) {
	kind, id, err := entityRef(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	if err := s.indexer.Delete(r.Context(), kind, id); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func entityRef(r *http.Request) (domain.Kind, int64, error) {
	kind, err := domain.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		return "", 0, err
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return "", 0, fmt.Errorf("%w: id must be a positive integer", domain.ErrInvalidQuery)
	}
	return kind, id, nil
}

// Usage handles GET /usage.
func (s *Server) Usage(w http.ResponseWriter, r *http.Request) {
	period, err := usageuc.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.usage.Report(r.Context(), period))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	for name, err := range report.Errors {
		logger.FromContext(r.Context()).Warn("health check failed", zap.String("component", name), zap.Error(err))
	}

	// Degraded still serves search, so only a critical failure reports 503.
	status := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, HealthResponse{Status: report.Status, Checks: report.Checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	logger.FromContext(r.Context()).Warn("domain error", zap.Error(err))
	for _, h := range errorHandlers {
		if h(w, err) {
			return
		}
	}
	s.logger.Error("internal error", zap.String("path", r.URL.Path), zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
