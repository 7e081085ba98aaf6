// Package rag implements retrieval-augmented generation: similarity search over
// indexed chunks, answer generation from retrieved context, and document indexing.
package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/catan-labs/catan/internal/domain"
	"github.com/catan-labs/catan/internal/domain/generation"
	"github.com/catan-labs/catan/internal/domain/search/result"
	"github.com/catan-labs/catan/internal/logger"
	"github.com/catan-labs/catan/internal/metrics"
)

// DefaultSystemPrompt is the instruction used when answering search queries.
const DefaultSystemPrompt = "You are a helpful assistant that provides accurate and concise answers based on the given context."

const (
	contextPrefix = "Here is the relevant context:\n"
	contextSuffix = "\n\nPlease use this context to answer the following question."
)

// Service searches, generates and indexes. Safe for concurrent use.
type Service struct {
	embedder Embedder
	chunks   ChunkStore
	chat     ChatModel
	splitter Splitter
	logger   *zap.Logger
}

// New creates a RAG service.
func New(embedder Embedder, chunks ChunkStore, chat ChatModel, splitter Splitter, l *zap.Logger) *Service {
	if l == nil {
		l = zap.NewNop()
	}
	return &Service{
		embedder: embedder,
		chunks:   chunks,
		chat:     chat,
		splitter: splitter,
		logger:   l,
	}
}

// SearchSimilarDocuments embeds query and returns up to limit matches from collection,
// in the order the store ranked them.
func (s *Service) SearchSimilarDocuments(
	ctx context.Context, query, collection string, limit int,
) ([]result.Result, error) {
	log := logger.FromContext(ctx, s.logger)

	emb, err := s.embedder.Embed(ctx, query)
	if err != nil {
		log.Error("Error searching documents", zap.String("collection", collection), zap.Error(err))
		return nil, fmt.Errorf("embed query: %w: %w", domain.ErrRetrieval, err)
	}

	results, err := s.chunks.Search(ctx, collection, emb.Embedding, limit)
	if err != nil {
		log.Error("Error searching documents", zap.String("collection", collection), zap.Error(err))
		return nil, fmt.Errorf("search %s: %w: %w", collection, domain.ErrRetrieval, err)
	}

	return results, nil
}

// GenerateResponse answers query with the chat model, grounding it in contextDocs when given.
// An empty systemPrompt is omitted.
func (s *Service) GenerateResponse(
	ctx context.Context, query string, contextDocs []string, systemPrompt string,
) (generation.Result, error) {
	log := logger.FromContext(ctx, s.logger)

	comp, err := s.chat.Complete(ctx, buildMessages(query, contextDocs, systemPrompt))
	if err != nil {
		log.Error("Error generating response", zap.Error(err))
		return generation.Result{}, fmt.Errorf("complete: %w: %w", domain.ErrGeneration, err)
	}

	return generation.Result{
		Response: comp.Text,
		Model:    comp.Model,
		Usage:    comp.Usage,
	}, nil
}

func buildMessages(query string, contextDocs []string, systemPrompt string) []generation.Message {
	msgs := make([]generation.Message, 0, 3)
	if systemPrompt != "" {
		msgs = append(msgs, generation.Message{Role: generation.RoleSystem, Content: systemPrompt})
	}
	if len(contextDocs) > 0 {
		msgs = append(msgs, generation.Message{
			Role:    generation.RoleSystem,
			Content: contextPrefix + strings.Join(contextDocs, "\n\n") + contextSuffix,
		})
	}
	return append(msgs, generation.Message{Role: generation.RoleUser, Content: query})
}

// ProcessAndIndexDocument splits content, embeds every chunk and appends the chunks to
// collection in order. Chunks stored before a failure stay stored.
func (s *Service) ProcessAndIndexDocument(
	ctx context.Context, content string, metadata map[string]any, collection string,
) (domain.IndexResult, error) {
	log := logger.FromContext(ctx, s.logger).With(zap.String("collection", collection))

	texts := s.splitter.Split(content)
	if len(texts) == 0 {
		return domain.IndexResult{Status: domain.StatusSuccess, ChunksProcessed: 0, Collection: collection}, nil
	}

	embs, err := domain.EmbedAll(ctx, s.embedder, texts)
	if err != nil {
		log.Error("Error processing document", zap.Int("chunks", len(texts)), zap.Error(err))
		return domain.IndexResult{}, fmt.Errorf("embed chunks: %w: %w", domain.ErrIndexing, err)
	}

	dim := len(embs.Embeddings[0])
	if err := s.chunks.EnsureCollection(ctx, collection, dim); err != nil {
		log.Error("Error processing document", zap.Int("dim", dim), zap.Error(err))
		return domain.IndexResult{}, fmt.Errorf("ensure collection: %w: %w", domain.ErrIndexing, err)
	}

	for i, text := range texts {
		c := &domain.Chunk{
			ID:       uuid.NewString(),
			Content:  text,
			Metadata: domain.CloneMetadata(metadata),
			Vector:   embs.Embeddings[i],
		}
		if err := s.chunks.Upsert(ctx, collection, c); err != nil {
			log.Error("Error processing document",
				zap.Int("chunk", i),
				zap.Int("stored", i),
				zap.Int("chunks", len(texts)),
				zap.Error(err),
			)
			return domain.IndexResult{}, fmt.Errorf("upsert chunk %d: %w: %w", i, domain.ErrIndexing, err)
		}
		metrics.ChunksIndexedTotal.Inc()
	}

	log.Info("Document indexed", zap.Int("chunks", len(texts)))

	return domain.IndexResult{
		Status:          domain.StatusSuccess,
		ChunksProcessed: len(texts),
		Collection:      collection,
	}, nil
}
