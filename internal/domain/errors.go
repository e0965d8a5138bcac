package domain

import "errors"

var (
	// ErrNotFound signals a missing catalog entity or index document.
	ErrNotFound = errors.New("not found")
	// ErrUnknownResourceType signals a resource type selector that maps to no index.
	ErrUnknownResourceType = errors.New("unknown resource type")
	// ErrUnknownKind signals an entity kind the indexers do not handle.
	ErrUnknownKind = errors.New("unknown entity kind")
	// ErrInvalidQuery signals malformed search parameters.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrNoOwner signals a projection that requires an owner on an unowned resource.
	ErrNoOwner = errors.New("resource has no owner")
	// ErrReprojection signals a bounding box that could not be reprojected.
	ErrReprojection = errors.New("reprojection failed")
	// ErrSemanticSearchNotSupported signals that the backend lacks vector search.
	ErrSemanticSearchNotSupported = errors.New("semantic search not supported by backend")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrEmbedderNotConfigured signals a semantic request without an embedder.
	ErrEmbedderNotConfigured = errors.New("embedder not configured")
	// ErrEmbeddingQuotaExceeded signals an exhausted embedding token budget.
	ErrEmbeddingQuotaExceeded = errors.New("embedding quota exceeded")
)
