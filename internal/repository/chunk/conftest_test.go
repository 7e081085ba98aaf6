package chunk

import (
	"context"
	"testing"

	"github.com/catan-labs/catan/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	ensureCollectionFn func(ctx context.Context, name string, dim int) error
	upsertFn           func(ctx context.Context, collection string, points []db.Point) error
	searchKNNFn        func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

func (m *mockStore) EnsureCollection(ctx context.Context, name string, dim int) error {
	if m.ensureCollectionFn != nil {
		return m.ensureCollectionFn(ctx, name, dim)
	}
	return nil
}

func (m *mockStore) Upsert(ctx context.Context, collection string, points []db.Point) error {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, collection, points)
	}
	return nil
}

func (m *mockStore) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if m.searchKNNFn != nil {
		return m.searchKNNFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms), ms
}
