package catan

import (
	"context"
	"errors"
	"fmt"

	"github.com/catan-labs/catan/internal/domain"
	"github.com/catan-labs/catan/internal/domain/generation"
	raguc "github.com/catan-labs/catan/internal/usecase/rag"
)

// resultView is a search hit detached from the internal result type.
type resultView struct {
	Content  string
	Metadata map[string]any
	Score    float64
}

// serviceAdapter narrows *rag.Service to ragUseCase.
type serviceAdapter struct {
	svc *raguc.Service
}

func (a serviceAdapter) SearchSimilarDocuments(
	ctx context.Context, query, collection string, limit int,
) ([]resultView, error) {
	results, err := a.svc.SearchSimilarDocuments(ctx, query, collection, limit)
	if err != nil {
		return nil, err //nolint:wrapcheck // already wrapped by the service
	}
	out := make([]resultView, len(results))
	for i := range results {
		out[i] = resultView{
			Content:  results[i].Content(),
			Metadata: results[i].Metadata(),
			Score:    results[i].Score(),
		}
	}
	return out, nil
}

func (a serviceAdapter) GenerateResponse(
	ctx context.Context, query string, contextDocs []string, systemPrompt string,
) (generation.Result, error) {
	return a.svc.GenerateResponse(ctx, query, contextDocs, systemPrompt) //nolint:wrapcheck // already wrapped
}

func (a serviceAdapter) ProcessAndIndexDocument(
	ctx context.Context, content string, metadata map[string]any, collection string,
) (domain.IndexResult, error) {
	return a.svc.ProcessAndIndexDocument(ctx, content, metadata, collection) //nolint:wrapcheck // already wrapped
}

// adaptEmbedder wraps a public Embedder, keeping batch support when present.
func adaptEmbedder(e Embedder) domain.Embedder {
	if be, ok := e.(BatchEmbedder); ok {
		return &batchEmbedderAdapter{embedderAdapter: embedderAdapter{inner: e}, batch: be}
	}
	return &embedderAdapter{inner: e}
}

// embedderAdapter wraps public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

type batchEmbedderAdapter struct {
	embedderAdapter
	batch BatchEmbedder
}

func (a *batchEmbedderAdapter) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	r, err := a.batch.BatchEmbed(ctx, texts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed: %w", err)
	}
	return domain.BatchEmbeddingResult{
		Embeddings:   r.Embeddings,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// chatAdapter wraps public ChatModel to satisfy rag.ChatModel.
type chatAdapter struct {
	inner ChatModel
}

func (a *chatAdapter) Complete(ctx context.Context, msgs []generation.Message) (generation.Completion, error) {
	in := make([]Message, len(msgs))
	for i, m := range msgs {
		in[i] = Message{Role: Role(m.Role), Content: m.Content}
	}
	c, err := a.inner.Complete(ctx, in)
	if err != nil {
		return generation.Completion{}, fmt.Errorf("complete: %w", err)
	}
	return generation.Completion{
		Text:  c.Text,
		Model: c.Model,
		Usage: generation.Usage{
			PromptTokens:     c.PromptTokens,
			CompletionTokens: c.CompletionTokens,
			TotalTokens:      c.TotalTokens,
		},
	}, nil
}

// noopChat fails every completion (used when no chat model is configured).
type noopChat struct{}

func (noopChat) Complete(context.Context, []generation.Message) (generation.Completion, error) {
	return generation.Completion{}, errors.New("catan: chat model not configured (use WithChatModel)")
}
