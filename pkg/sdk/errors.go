package catan

import "github.com/catan-labs/catan/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrRetrieval              = domain.ErrRetrieval
	ErrGeneration             = domain.ErrGeneration
	ErrIndexing               = domain.ErrIndexing
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrChatProviderError      = domain.ErrChatProviderError
	ErrCollectionNotFound     = domain.ErrCollectionNotFound
)
