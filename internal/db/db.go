package db

import (
	"context"
	"time"
)

// Store is the vector database facade implemented by every driver.
//
//nolint:interfacebloat // drivers implement all of it; consumers depend on the narrow sub-interfaces
type Store interface {
	Pinger
	CollectionManager
	PointWriter
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CollectionManager provides collection lifecycle operations.
type CollectionManager interface {
	// EnsureCollection creates the collection for vectors of size dim if it does not exist.
	// An existing collection is left untouched.
	EnsureCollection(ctx context.Context, name string, dim int) error
}

// PointWriter stores points.
type PointWriter interface {
	// Upsert writes points into the collection, replacing points with the same ID.
	Upsert(ctx context.Context, collection string, points []Point) error
}

// Searcher provides vector similarity search.
type Searcher interface {
	// SearchKNN returns up to q.K nearest points ordered by descending Score.
	// A missing collection yields ErrCollectionNotFound.
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
}

// Point is a stored vector with its string payload.
type Point struct {
	ID     string
	Vector []float32
	Fields map[string]string
}

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	Collection string
	Vector     []float32
	K          int
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single point hit from a search. Score is cosine similarity.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
