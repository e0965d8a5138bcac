package domain

import (
	"context"
	"fmt"
	"strings"
)

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Purpose tells what a text is embedded for.
type Purpose string

// Embedding purposes.
const (
	// PurposeDocument enriches a resource document at index time.
	PurposeDocument Purpose = "document"
	// PurposeQuery vectorizes a semantic or hybrid search query.
	PurposeQuery Purpose = "query"
)

// TokenUsage is token consumption within one budget window. A zero Limit
// means unlimited and Remaining is then -1.
type TokenUsage struct {
	Limit     int64
	Used      int64
	Remaining int64
}

// EmbeddingResult carries the embedding vector and token usage.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// InstructionPlaceholder marks where the text goes in a templated instruction.
const InstructionPlaceholder = "{text}"

// InstructionEmbedder frames search text with an instruction before
// embedding it, as instruction-tuned models expect for queries. An
// instruction containing InstructionPlaceholder is used as a template;
// any other instruction is prepended. Whitespace runs in the text collapse
// to single spaces, so equivalent queries share cache entries.
type InstructionEmbedder struct {
	inner          Embedder
	prefix, suffix string
}

// NewInstructionEmbedder wraps inner with instruction.
func NewInstructionEmbedder(inner Embedder, instruction string) *InstructionEmbedder {
	prefix, suffix, found := strings.Cut(instruction, InstructionPlaceholder)
	if !found {
		suffix = ""
	}
	return &InstructionEmbedder{inner: inner, prefix: prefix, suffix: suffix}
}

// Frame returns the text actually sent to the inner embedder.
func (e *InstructionEmbedder) Frame(text string) string {
	return e.prefix + strings.Join(strings.Fields(text), " ") + e.suffix
}

// Embed frames text and delegates to the inner embedder.
func (e *InstructionEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	result, err := e.inner.Embed(ctx, e.Frame(text))
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("instruction embed: %w", err)
	}
	return result, nil
}
