package sqlite

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/catan-labs/catan/internal/db"
)

// Upsert writes points in one transaction, replacing points with the same ID.
func (s *Store) Upsert(ctx context.Context, collection string, points []db.Point) error {
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return &db.Error{Op: db.OpUpsert, Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	dim, err := s.dimension(ctx, tx, collection)
	if err != nil {
		return &db.Error{Op: db.OpUpsert, Err: err}
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO points (collection, id, vector, fields) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return &db.Error{Op: db.OpUpsert, Err: err}
	}
	defer func() { _ = stmt.Close() }()

	for _, p := range points {
		if len(p.Vector) != dim {
			return &db.Error{Op: db.OpUpsert, Err: fmt.Errorf(
				"%w: point %s has %d, collection %s has %d",
				db.ErrDimensionMismatch, p.ID, len(p.Vector), collection, dim,
			)}
		}
		fields, err := json.Marshal(p.Fields)
		if err != nil {
			return &db.Error{Op: db.OpUpsert, Err: fmt.Errorf("encode fields: %w", err)}
		}
		if _, err := stmt.ExecContext(ctx, collection, p.ID, encodeVector(p.Vector), string(fields)); err != nil {
			return &db.Error{Op: db.OpUpsert, Err: fmt.Errorf("point %s: %w", p.ID, err)}
		}
	}

	if err := tx.Commit(); err != nil {
		return &db.Error{Op: db.OpUpsert, Err: err}
	}
	return nil
}

// SearchKNN scores every point of the collection and returns the q.K best.
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if err := db.ValidateQuery(q); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dim, err := s.dimension(ctx, s.sqlDB, q.Collection)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	if len(q.Vector) != dim {
		return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf(
			"%w: query has %d, collection %s has %d", db.ErrDimensionMismatch, len(q.Vector), q.Collection, dim,
		)}
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, vector, fields FROM points WHERE collection = ?`, q.Collection)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	defer func() { _ = rows.Close() }()

	var entries []db.SearchEntry
	for rows.Next() {
		var (
			id     string
			blob   []byte
			fields string
		)
		if err := rows.Scan(&id, &blob, &fields); err != nil {
			return nil, &db.Error{Op: db.OpSearch, Err: err}
		}
		entry := db.SearchEntry{Key: id, Score: cosineSimilarity(q.Vector, decodeVector(blob))}
		if err := json.Unmarshal([]byte(fields), &entry.Fields); err != nil {
			return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("decode fields of point %s: %w", id, err)}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Score > entries[j].Score })
	total := len(entries)
	if len(entries) > q.K {
		entries = entries[:q.K]
	}

	return &db.SearchResult{Total: total, Entries: entries}, nil
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}

// cosineSimilarity returns 0 when either vector has zero norm or the sizes differ.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
