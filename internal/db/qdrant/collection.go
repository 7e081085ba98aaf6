package qdrant

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/catan-labs/catan/internal/db"
)

type vectorParams struct {
	Size     int    `json:"size"`
	Distance string `json:"distance"`
}

type createCollectionRequest struct {
	Vectors vectorParams `json:"vectors"`
}

// EnsureCollection creates a cosine collection of the given vector size unless it exists.
func (s *Store) EnsureCollection(ctx context.Context, name string, dim int) error {
	if name == "" {
		return errors.New("collection name is required")
	}
	if dim <= 0 {
		return fmt.Errorf("vector size must be positive, got %d", dim)
	}

	_, err := s.doRequest(ctx, http.MethodGet, collectionPath(name), nil)
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return &db.Error{Op: db.OpCollectionInfo, Err: err}
	}

	req := createCollectionRequest{Vectors: vectorParams{Size: dim, Distance: "Cosine"}}
	if _, err := s.doRequest(ctx, http.MethodPut, collectionPath(name), req); err != nil {
		// a concurrent caller created it between lookup and create
		if isAlreadyExists(err) {
			return nil
		}
		return &db.Error{Op: db.OpCreateCollection, Err: err}
	}
	return nil
}
