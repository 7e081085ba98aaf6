package domain

import "errors"

var (
	// ErrRetrieval signals that similarity search could not be completed.
	ErrRetrieval = errors.New("retrieval failed")
	// ErrGeneration signals that the chat model produced no answer.
	ErrGeneration = errors.New("generation failed")
	// ErrIndexing signals that a document could not be chunked, embedded or stored.
	ErrIndexing = errors.New("indexing failed")

	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrChatProviderError signals a chat completion provider failure.
	ErrChatProviderError = errors.New("chat provider error")
	// ErrCollectionNotFound signals a search against a collection that does not exist.
	ErrCollectionNotFound = errors.New("collection not found")
	// ErrVectorDimMismatch signals a vector that does not fit the collection.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
)
