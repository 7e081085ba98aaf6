package qdrant

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/catan-labs/catan/internal/db"
)

type point struct {
	ID      string            `json:"id"`
	Vector  []float32         `json:"vector"`
	Payload map[string]string `json:"payload"`
}

type upsertRequest struct {
	Points []point `json:"points"`
}

type searchRequest struct {
	Vector      []float32 `json:"vector"`
	Limit       int       `json:"limit"`
	WithPayload bool      `json:"with_payload"`
}

type searchResponse struct {
	Result []struct {
		ID      any            `json:"id"`
		Score   float64        `json:"score"`
		Payload map[string]any `json:"payload"`
	} `json:"result"`
}

// Upsert writes points and waits until they are applied.
func (s *Store) Upsert(ctx context.Context, collection string, points []db.Point) error {
	if len(points) == 0 {
		return nil
	}

	req := upsertRequest{Points: make([]point, len(points))}
	for i, p := range points {
		req.Points[i] = point{ID: p.ID, Vector: p.Vector, Payload: p.Fields}
	}

	if _, err := s.doRequest(ctx, http.MethodPut, collectionPath(collection)+"/points?wait=true", req); err != nil {
		if isNotFound(err) {
			err = fmt.Errorf("%w: %s", db.ErrCollectionNotFound, collection)
		}
		return &db.Error{Op: db.OpUpsert, Err: err}
	}
	return nil
}

// SearchKNN returns the nearest points with their payload. Qdrant orders hits by score.
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if err := db.ValidateQuery(q); err != nil {
		return nil, err
	}

	req := searchRequest{Vector: q.Vector, Limit: q.K, WithPayload: true}
	data, err := s.doRequest(ctx, http.MethodPost, collectionPath(q.Collection)+"/points/search", req)
	if err != nil {
		if isNotFound(err) {
			err = fmt.Errorf("%w: %s", db.ErrCollectionNotFound, q.Collection)
		}
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	var parsed searchResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("decode response: %w", err)}
	}

	entries := make([]db.SearchEntry, 0, len(parsed.Result))
	for _, item := range parsed.Result {
		entries = append(entries, db.SearchEntry{
			Key:    fmt.Sprintf("%v", item.ID),
			Score:  item.Score,
			Fields: stringifyPayload(item.Payload),
		})
	}

	return &db.SearchResult{Total: len(entries), Entries: entries}, nil
}

// stringifyPayload flattens payload values written by other clients to strings.
func stringifyPayload(p map[string]any) map[string]string {
	out := make(map[string]string, len(p))
	for k, v := range p {
		switch t := v.(type) {
		case string:
			out[k] = t
		case nil:
			out[k] = ""
		default:
			b, err := json.Marshal(t)
			if err != nil {
				continue
			}
			out[k] = string(b)
		}
	}
	return out
}
