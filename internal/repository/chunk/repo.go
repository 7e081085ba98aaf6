package chunk

import (
	"context"
	"errors"
	"fmt"

	"github.com/catan-labs/catan/internal/db"
	"github.com/catan-labs/catan/internal/domain"
	"github.com/catan-labs/catan/internal/domain/search/result"
)

// store is the consumer interface for chunk persistence (ISP).
type store interface {
	EnsureCollection(ctx context.Context, name string, dim int) error
	Upsert(ctx context.Context, collection string, points []db.Point) error
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Repo implements usecase/rag.ChunkStore.
type Repo struct {
	store store
}

// New creates a chunk repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// EnsureCollection makes sure the collection can hold vectors of size dim.
func (r *Repo) EnsureCollection(ctx context.Context, collection string, dim int) error {
	if err := r.store.EnsureCollection(ctx, collection, dim); err != nil {
		return fmt.Errorf("ensure collection %s: %w", collection, mapStoreErr(err))
	}
	return nil
}

// Upsert stores a single chunk.
func (r *Repo) Upsert(ctx context.Context, collection string, c *domain.Chunk) error {
	p, err := chunkToPoint(c)
	if err != nil {
		return fmt.Errorf("upsert chunk %s: %w", c.ID, err)
	}
	if err := r.store.Upsert(ctx, collection, []db.Point{p}); err != nil {
		return fmt.Errorf("upsert chunk %s into %s: %w", c.ID, collection, mapStoreErr(err))
	}
	return nil
}

// Search returns up to limit chunks nearest to vector, in store order.
func (r *Repo) Search(ctx context.Context, collection string, vector []float32, limit int) ([]result.Result, error) {
	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		Collection: collection,
		Vector:     vector,
		K:          limit,
	})
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", collection, mapStoreErr(err))
	}
	if sr == nil || len(sr.Entries) == 0 {
		return []result.Result{}, nil
	}

	results := make([]result.Result, 0, len(sr.Entries))
	for i := range sr.Entries {
		res, err := entryToResult(&sr.Entries[i])
		if err != nil {
			return nil, fmt.Errorf("search %s: %w", collection, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// mapStoreErr adds the domain sentinel for store errors the service layer distinguishes.
// The store error stays in the chain.
func mapStoreErr(err error) error {
	switch {
	case errors.Is(err, db.ErrCollectionNotFound):
		return fmt.Errorf("%w: %w", domain.ErrCollectionNotFound, err)
	case errors.Is(err, db.ErrDimensionMismatch):
		return fmt.Errorf("%w: %w", domain.ErrVectorDimMismatch, err)
	default:
		return err
	}
}
