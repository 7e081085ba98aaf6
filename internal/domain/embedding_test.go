package domain

import (
	"context"
	"errors"
	"testing"
)

type stubEmbedder struct {
	err   error
	calls []string
}

func (s *stubEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	s.calls = append(s.calls, text)
	if s.err != nil {
		return EmbeddingResult{}, s.err
	}
	return EmbeddingResult{
		Embedding:    []float32{float32(len(text))},
		PromptTokens: 2,
		TotalTokens:  3,
	}, nil
}

type stubBatchEmbedder struct {
	stubEmbedder
	batchCalls int
	short      bool
}

func (s *stubBatchEmbedder) BatchEmbed(_ context.Context, texts []string) (BatchEmbeddingResult, error) {
	s.batchCalls++
	n := len(texts)
	if s.short {
		n--
	}
	out := make([][]float32, n)
	for i := range out {
		out[i] = []float32{float32(i)}
	}
	return BatchEmbeddingResult{Embeddings: out, TotalTokens: 10}, nil
}

func TestBatchFallback_AggregatesUsage(t *testing.T) {
	inner := &stubEmbedder{}

	res, err := BatchFallback(context.Background(), inner, []string{"a", "bb", "ccc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inner.calls) != 3 {
		t.Fatalf("expected 3 Embed calls, got %d", len(inner.calls))
	}
	if res.PromptTokens != 6 || res.TotalTokens != 9 {
		t.Errorf("unexpected usage: prompt=%d total=%d", res.PromptTokens, res.TotalTokens)
	}
	if res.Embeddings[2][0] != 3 {
		t.Errorf("embeddings out of order: %v", res.Embeddings)
	}
}

func TestBatchFallback_StopsOnError(t *testing.T) {
	providerErr := errors.New("provider down")
	inner := &stubEmbedder{err: providerErr}

	_, err := BatchFallback(context.Background(), inner, []string{"a", "b"})
	if !errors.Is(err, providerErr) {
		t.Fatalf("expected wrapped provider error, got %v", err)
	}
	if len(inner.calls) != 1 {
		t.Errorf("expected to stop after first failure, got %d calls", len(inner.calls))
	}
}

func TestEmbedAll_PrefersBatch(t *testing.T) {
	e := &stubBatchEmbedder{}

	res, err := EmbedAll(context.Background(), e, []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.batchCalls != 1 || len(e.calls) != 0 {
		t.Errorf("expected one batch call and no single calls, got batch=%d single=%d", e.batchCalls, len(e.calls))
	}
	if len(res.Embeddings) != 2 {
		t.Errorf("expected 2 embeddings, got %d", len(res.Embeddings))
	}
}

func TestEmbedAll_ShortBatchIsProviderError(t *testing.T) {
	e := &stubBatchEmbedder{short: true}

	_, err := EmbedAll(context.Background(), e, []string{"a", "b"})
	if !errors.Is(err, ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestEmbedAll_FallsBack(t *testing.T) {
	e := &stubEmbedder{}

	if _, err := EmbedAll(context.Background(), e, []string{"a", "b"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(e.calls) != 2 {
		t.Errorf("expected 2 single calls, got %d", len(e.calls))
	}
}
