package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kailas-cloud/geodex/internal/domain"
)

// ErrorCode is the stable machine-readable error identifier.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest                 ErrorCode = "bad_request"
	CodeUnauthorized               ErrorCode = "unauthorized"
	CodeInvalidQuery               ErrorCode = "invalid_query"
	CodeUnknownResourceType        ErrorCode = "unknown_resource_type"
	CodeUnknownKind                ErrorCode = "unknown_kind"
	CodeNotFound                   ErrorCode = "not_found"
	CodeEmbeddingQuotaExceeded     ErrorCode = "embedding_quota_exceeded"
	CodeEmbeddingProviderError     ErrorCode = "embedding_provider_error"
	CodeEmbedderNotConfigured      ErrorCode = "embedder_not_configured"
	CodeSemanticSearchNotSupported ErrorCode = "semantic_search_not_supported"
	CodeInternalError              ErrorCode = "internal_error"
)

// ErrorResponse is the error body of every failed request.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// errorHandlers maps domain sentinels to HTTP statuses, first match wins.
var errorHandlers = []errorHandler{
	clientErrorHandler(domain.ErrUnknownResourceType, CodeUnknownResourceType),
	clientErrorHandler(domain.ErrUnknownKind, CodeUnknownKind),
	clientErrorHandler(domain.ErrInvalidQuery, CodeInvalidQuery),
	sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
	sentinelHandler(domain.ErrEmbeddingQuotaExceeded, http.StatusPaymentRequired, CodeEmbeddingQuotaExceeded),
	sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProviderError),
	sentinelHandler(domain.ErrEmbedderNotConfigured, http.StatusNotImplemented, CodeEmbedderNotConfigured),
	sentinelHandler(domain.ErrSemanticSearchNotSupported,
		http.StatusNotImplemented, CodeSemanticSearchNotSupported),
}

// sentinelHandler matches a single sentinel and answers with its message
// only, without exposing wrapped internals.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

// clientErrorHandler answers 400 with the full message: these errors only
// describe the caller's own input.
func clientErrorHandler(sentinel error, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, http.StatusBadRequest, code, err.Error())
		return true
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}
