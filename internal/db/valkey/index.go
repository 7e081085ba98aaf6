package valkey

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/catan-labs/catan/internal/db"
)

// EnsureCollection creates the HNSW cosine index for the collection unless it exists.
func (s *Store) EnsureCollection(ctx context.Context, name string, dim int) error {
	if name == "" {
		return errors.New("collection name is required")
	}
	if dim <= 0 {
		return fmt.Errorf("vector DIM must be positive, got %d", dim)
	}

	index := s.indexName(name)

	info := s.b().Arbitrary("FT.INFO").Args(index).Build()
	err := s.do(ctx, info).Error()
	if err == nil {
		return nil
	}
	if !isUnknownIndex(err) {
		return &db.Error{Op: db.OpCollectionInfo, Err: err}
	}

	cmd := s.b().Arbitrary("FT.CREATE").Args(s.createArgs(index, name, dim)...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		// lost a race with a concurrent creator
		if isRedisErr(err, "index already exists") {
			return nil
		}
		return &db.Error{Op: db.OpCreateCollection, Err: err}
	}
	return nil
}

func (s *Store) createArgs(index, collection string, dim int) []string {
	attrs := []string{
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(dim),
		"DISTANCE_METRIC", "COSINE",
	}
	if s.m > 0 {
		attrs = append(attrs, "M", strconv.Itoa(s.m))
	}
	if s.efc > 0 {
		attrs = append(attrs, "EF_CONSTRUCTION", strconv.Itoa(s.efc))
	}

	args := make([]string, 0, 10+len(attrs))
	args = append(args,
		index,
		"ON", "HASH",
		"PREFIX", "1", s.keyPrefix(collection),
		"SCHEMA",
		FieldVector, "VECTOR", "HNSW", strconv.Itoa(len(attrs)),
	)
	return append(args, attrs...)
}
