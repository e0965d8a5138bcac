package domain

import (
	"context"
	"errors"
	"testing"
)

type stubEmbedder struct {
	result EmbeddingResult
	err    error
	got    string
}

func (s *stubEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	s.got = text
	return s.result, s.err
}

func TestInstructionEmbedder_Frame(t *testing.T) {
	tests := []struct {
		name        string
		instruction string
		text        string
		want        string
	}{
		{"prefix", "query: ", "roads of nepal", "query: roads of nepal"},
		{"template", "Represent the search '{text}' for map layers", "rivers", "Represent the search 'rivers' for map layers"},
		{"collapses whitespace", "query: ", "  roads \t of\nnepal ", "query: roads of nepal"},
		{"no instruction", "", "flood  risk", "flood risk"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inner := &stubEmbedder{result: EmbeddingResult{Embedding: []float32{0.1, 0.2}}}
			emb := NewInstructionEmbedder(inner, tt.instruction)

			result, err := emb.Embed(context.Background(), tt.text)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if inner.got != tt.want {
				t.Errorf("embedded %q, want %q", inner.got, tt.want)
			}
			if len(result.Embedding) != 2 {
				t.Errorf("embedding length = %d, want 2", len(result.Embedding))
			}
		})
	}
}

func TestInstructionEmbedder_ErrorPropagation(t *testing.T) {
	innerErr := errors.New("provider down")
	emb := NewInstructionEmbedder(&stubEmbedder{err: innerErr}, "query: ")

	_, err := emb.Embed(context.Background(), "roads")
	if !errors.Is(err, innerErr) {
		t.Errorf("expected wrapped inner error, got %v", err)
	}
}
