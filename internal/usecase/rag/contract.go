package rag

import (
	"context"

	"github.com/catan-labs/catan/internal/domain"
	"github.com/catan-labs/catan/internal/domain/generation"
	"github.com/catan-labs/catan/internal/domain/search/result"
)

// Embedder vectorizes text into embeddings.
// Adapters that also implement domain.BatchEmbedder embed a whole document in one call.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// ChunkStore persists chunks and searches them by vector similarity.
type ChunkStore interface {
	EnsureCollection(ctx context.Context, collection string, dim int) error
	Upsert(ctx context.Context, collection string, c *domain.Chunk) error
	Search(ctx context.Context, collection string, vector []float32, limit int) ([]result.Result, error)
}

// ChatModel produces a single-turn completion.
type ChatModel interface {
	Complete(ctx context.Context, msgs []generation.Message) (generation.Completion, error)
}

// Splitter cuts document text into chunks.
type Splitter interface {
	Split(text string) []string
}
