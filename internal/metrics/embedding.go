package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Embedding Prometheus metrics.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "geodex",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"provider", "model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "geodex",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model"},
	)

	EmbeddingTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "geodex",
			Name:      "embedding_tokens_total",
			Help:      "Total embedding tokens consumed",
		},
		[]string{"provider", "model"},
	)

	EmbeddingBudgetTokensRemaining = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "geodex",
			Name:      "embedding_budget_tokens_remaining",
			Help:      "Remaining embedding tokens in the current budget period",
		},
		[]string{"provider", "period"}, // period: "daily" / "monthly"
	)

	EmbeddingPurposeTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "geodex",
			Name:      "embedding_purpose_tokens_total",
			Help:      "Embedding tokens spent on document enrichment and on search queries",
		},
		[]string{"provider", "purpose"}, // purpose: "document" / "query"
	)

	EmbeddingBudgetRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "geodex",
			Name:      "embedding_budget_rejected_total",
			Help:      "Embeddings refused by the token budget",
		},
		[]string{"provider", "purpose"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "geodex",
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses",
		},
		[]string{"result"}, // hit, miss, shared or stale
	)
)

var registerEmbedding sync.Once

// RegisterEmbeddingMetrics registers the embedding metrics on the default
// registry. Only the first call registers; later calls are no-ops.
func RegisterEmbeddingMetrics() {
	registerEmbedding.Do(func() {
		prometheus.MustRegister(
			EmbeddingRequestsTotal,
			EmbeddingRequestDuration,
			EmbeddingTokensTotal,
			EmbeddingBudgetTokensRemaining,
			EmbeddingPurposeTokensTotal,
			EmbeddingBudgetRejectedTotal,
			EmbeddingCacheTotal,
		)
	})
}
