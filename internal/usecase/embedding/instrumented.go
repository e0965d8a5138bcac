package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kailas-cloud/geodex/internal/domain"
	"github.com/kailas-cloud/geodex/internal/metrics"
)

// BudgetChecker enforces and records the token budget.
type BudgetChecker interface {
	Check(ctx context.Context, purpose domain.Purpose) error
	Record(tokens int64)
	Daily() domain.TokenUsage
	Monthly() domain.TokenUsage
}

// InstrumentedEmbedder charges one purpose's embeddings against the shared
// token budget. The server runs two: one for document enrichment and one
// for search queries. Provider request metrics are kept by the transport.
type InstrumentedEmbedder struct {
	inner    domain.Embedder
	purpose  domain.Purpose
	provider string
	budget   BudgetChecker
	logger   *zap.Logger
}

// NewInstrumentedEmbedder wraps inner for purpose. budget may be nil.
func NewInstrumentedEmbedder(
	inner domain.Embedder, purpose domain.Purpose, provider, model string,
	budget BudgetChecker, logger *zap.Logger,
) *InstrumentedEmbedder {
	return &InstrumentedEmbedder{
		inner:    inner,
		purpose:  purpose,
		provider: provider,
		budget:   budget,
		logger: logger.With(
			zap.String("purpose", string(purpose)),
			zap.String("provider", provider),
			zap.String("model", model),
		),
	}
}

// Embed admits the request against the budget, delegates, then charges the
// tokens the provider reported. Cache hits report zero tokens.
func (p *InstrumentedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if err := p.admit(ctx); err != nil {
		return domain.EmbeddingResult{}, err
	}

	start := time.Now()
	result, err := p.inner.Embed(ctx, text)
	elapsed := time.Since(start)
	if err != nil {
		// Canceled requests are the caller's doing, not a provider fault.
		level := zapcore.WarnLevel
		if errors.Is(err, context.Canceled) {
			level = zapcore.DebugLevel
		}
		p.logger.Log(level, "Embedding failed", zap.Duration("duration", elapsed), zap.Error(err))
		return domain.EmbeddingResult{}, fmt.Errorf("embed %s: %w", p.purpose, err)
	}

	p.charge(result.TotalTokens)
	p.logger.Debug("Embedding completed",
		zap.Duration("duration", elapsed),
		zap.Int("chars", len(text)),
		zap.Int("dimensions", len(result.Embedding)),
		zap.Int("total_tokens", result.TotalTokens),
	)
	return result, nil
}

func (p *InstrumentedEmbedder) admit(ctx context.Context) error {
	if p.budget == nil {
		return nil
	}
	err := p.budget.Check(ctx, p.purpose)
	if err == nil {
		return nil
	}
	metrics.EmbeddingBudgetRejectedTotal.WithLabelValues(p.provider, string(p.purpose)).Inc()
	p.logger.Warn("Embedding refused by budget", zap.Error(err))
	return fmt.Errorf("budget check: %w", err)
}

func (p *InstrumentedEmbedder) charge(tokens int) {
	if tokens <= 0 {
		return
	}
	metrics.EmbeddingPurposeTokensTotal.WithLabelValues(p.provider, string(p.purpose)).Add(float64(tokens))
	if p.budget == nil {
		return
	}
	p.budget.Record(int64(tokens))
	for period, usage := range map[string]domain.TokenUsage{
		"daily":   p.budget.Daily(),
		"monthly": p.budget.Monthly(),
	} {
		metrics.EmbeddingBudgetTokensRemaining.WithLabelValues(p.provider, period).Set(float64(usage.Remaining))
	}
}
