package db

import (
	"errors"
	"testing"
)

func TestError_Unwrap(t *testing.T) {
	err := &Error{Op: OpSearch, Err: ErrCollectionNotFound}

	if err.Error() != "SEARCH: db: collection not found" {
		t.Errorf("unexpected message: %q", err.Error())
	}
	if !errors.Is(err, ErrCollectionNotFound) {
		t.Error("expected errors.Is to see the wrapped sentinel")
	}
}

func TestValidateQuery(t *testing.T) {
	valid := KNNQuery{Collection: "docs", Vector: []float32{1}, K: 3}
	if err := ValidateQuery(&valid); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name string
		q    *KNNQuery
	}{
		{"nil", nil},
		{"no collection", &KNNQuery{Vector: []float32{1}, K: 1}},
		{"no vector", &KNNQuery{Collection: "docs", K: 1}},
		{"zero k", &KNNQuery{Collection: "docs", Vector: []float32{1}}},
		{"negative k", &KNNQuery{Collection: "docs", Vector: []float32{1}, K: -2}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := ValidateQuery(tc.q); !errors.Is(err, ErrInvalidQuery) {
				t.Errorf("expected ErrInvalidQuery, got %v", err)
			}
		})
	}
}
