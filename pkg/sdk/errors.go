package geodex

import "github.com/kailas-cloud/geodex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound                   = domain.ErrNotFound
	ErrUnknownResourceType        = domain.ErrUnknownResourceType
	ErrUnknownKind                = domain.ErrUnknownKind
	ErrInvalidQuery               = domain.ErrInvalidQuery
	ErrSemanticSearchNotSupported = domain.ErrSemanticSearchNotSupported
	ErrEmbedderNotConfigured      = domain.ErrEmbedderNotConfigured
	ErrEmbeddingProviderError     = domain.ErrEmbeddingProviderError
	ErrEmbeddingQuotaExceeded     = domain.ErrEmbeddingQuotaExceeded
)
