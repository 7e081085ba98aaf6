package valkey

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/redis/rueidis"

	"github.com/catan-labs/catan/internal/db"
)

// Upsert stores points as hashes in a single DoMulti round-trip.
func (s *Store) Upsert(ctx context.Context, collection string, points []db.Point) error {
	if len(points) == 0 {
		return nil
	}

	prefix := s.keyPrefix(collection)
	cmds := make([]rueidis.Completed, len(points))
	for i, p := range points {
		cmd := s.b().Hset().Key(prefix+p.ID).FieldValue().
			FieldValue(FieldVector, vectorToBytes(p.Vector))
		for k, v := range p.Fields {
			cmd = cmd.FieldValue(k, v)
		}
		cmds[i] = cmd.Build()
	}

	results := s.client.DoMulti(ctx, cmds...)
	for i, res := range results {
		if err := res.Error(); err != nil {
			return &db.Error{Op: db.OpUpsert, Err: fmt.Errorf("key %s: %w", prefix+points[i].ID, err)}
		}
	}
	return nil
}

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
