package embedding

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/geodex/internal/domain"
	"github.com/kailas-cloud/geodex/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterEmbeddingMetrics()
	os.Exit(m.Run())
}

type mockEmbedder struct {
	result domain.EmbeddingResult
	err    error
	calls  int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	return m.result, m.err
}

func TestInstrumentedEmbedder_Success(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}, TotalTokens: 12}}
	p := NewInstrumentedEmbedder(inner, domain.PurposeDocument, "prov-ok", "model", nil, zap.NewNop())

	result, err := p.Embed(context.Background(), "Roads of Nepal")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 {
		t.Fatalf("dimensions = %d, want 3", len(result.Embedding))
	}
	got := testutil.ToFloat64(metrics.EmbeddingPurposeTokensTotal.WithLabelValues("prov-ok", "document"))
	if got != 12 {
		t.Errorf("document tokens = %v, want 12", got)
	}
}

func TestInstrumentedEmbedder_Error(t *testing.T) {
	inner := &mockEmbedder{err: domain.ErrEmbeddingProviderError}
	p := NewInstrumentedEmbedder(inner, domain.PurposeQuery, "prov-err", "model", nil, zap.NewNop())

	_, err := p.Embed(context.Background(), "rivers")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("err = %v, want provider error", err)
	}
}

func TestInstrumentedEmbedder_BudgetRejectionSkipsProvider(t *testing.T) {
	budget, _ := newTracker(10, 0, BudgetActionReject)
	budget.Record(10)

	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	p := NewInstrumentedEmbedder(inner, domain.PurposeQuery, "prov-skip", "model", budget, zap.NewNop())

	_, err := p.Embed(context.Background(), "rivers")
	if !errors.Is(err, domain.ErrEmbeddingQuotaExceeded) {
		t.Fatalf("err = %v, want quota exceeded", err)
	}
	if inner.calls != 0 {
		t.Errorf("provider called %d times after budget rejection", inner.calls)
	}
	got := testutil.ToFloat64(metrics.EmbeddingBudgetRejectedTotal.WithLabelValues("prov-skip", "query"))
	if got != 1 {
		t.Errorf("rejected = %v, want 1", got)
	}
}

func TestInstrumentedEmbedder_ReserveSplitsPurposes(t *testing.T) {
	budget, _ := newTracker(1000, 0, BudgetActionReject)
	budget.WithQueryReserve(100)
	budget.Record(950)

	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}, TotalTokens: 20}}
	doc := NewInstrumentedEmbedder(inner, domain.PurposeDocument, "prov-res", "model", budget, zap.NewNop())
	query := NewInstrumentedEmbedder(inner, domain.PurposeQuery, "prov-res", "model", budget, zap.NewNop())

	if _, err := doc.Embed(context.Background(), "abstract"); !errors.Is(err, domain.ErrEmbeddingQuotaExceeded) {
		t.Fatalf("document embed err = %v, want quota exceeded", err)
	}
	if _, err := query.Embed(context.Background(), "rivers"); err != nil {
		t.Fatalf("query embed should use the reserve: %v", err)
	}
	if used := budget.Daily().Used; used != 970 {
		t.Errorf("daily used = %d, want 970", used)
	}
}

func TestInstrumentedEmbedder_RecordsBudget(t *testing.T) {
	budget, _ := newTracker(1000000, 10000000, BudgetActionReject)

	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1}, TotalTokens: 500}}
	p := NewInstrumentedEmbedder(inner, domain.PurposeDocument, "prov-rec", "model", budget, zap.NewNop())

	if _, err := p.Embed(context.Background(), "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := budget.Daily().Remaining; got != 999500 {
		t.Errorf("daily remaining = %d, want 999500", got)
	}
	if got := testutil.ToFloat64(metrics.EmbeddingBudgetTokensRemaining.WithLabelValues("prov-rec", "monthly")); got != 9999500 {
		t.Errorf("monthly gauge = %v, want 9999500", got)
	}
}

func TestInstrumentedEmbedder_CacheHitCostsNothing(t *testing.T) {
	budget, _ := newTracker(100, 0, BudgetActionReject)

	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1}}}
	p := NewInstrumentedEmbedder(inner, domain.PurposeQuery, "prov-hit", "model", budget, zap.NewNop())

	if _, err := p.Embed(context.Background(), "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if used := budget.Daily().Used; used != 0 {
		t.Errorf("daily used = %d, want 0", used)
	}
}

func TestInstrumentedEmbedder_FailureLogLevel(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want zapcore.Level
	}{
		{"provider failure", domain.ErrEmbeddingProviderError, zapcore.WarnLevel},
		{"caller canceled", context.Canceled, zapcore.DebugLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			p := NewInstrumentedEmbedder(&mockEmbedder{err: tt.err}, domain.PurposeQuery, "prov-log", "m1", nil, zap.New(core))

			if _, err := p.Embed(context.Background(), "rivers"); !errors.Is(err, tt.err) {
				t.Fatalf("err = %v, want %v", err, tt.err)
			}
			entries := logs.FilterMessage("Embedding failed").All()
			if len(entries) != 1 {
				t.Fatalf("failure entries = %d, want 1", len(entries))
			}
			if entries[0].Level != tt.want {
				t.Errorf("level = %s, want %s", entries[0].Level, tt.want)
			}
			if got := entries[0].ContextMap()["model"]; got != "m1" {
				t.Errorf("model field = %v, want m1", got)
			}
		})
	}
}
