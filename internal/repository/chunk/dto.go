package chunk

import (
	"encoding/json"
	"fmt"

	"github.com/catan-labs/catan/internal/db"
	"github.com/catan-labs/catan/internal/domain"
	"github.com/catan-labs/catan/internal/domain/search/result"
)

// Payload field names shared by every driver.
const (
	fieldContent  = "content"
	fieldMetadata = "metadata"
)

// chunkToPoint maps a chunk onto a store point. Metadata travels as a JSON object string.
func chunkToPoint(c *domain.Chunk) (db.Point, error) {
	meta := c.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return db.Point{}, fmt.Errorf("encode metadata: %w", err)
	}

	return db.Point{
		ID:     c.ID,
		Vector: c.Vector,
		Fields: map[string]string{
			fieldContent:  c.Content,
			fieldMetadata: string(raw),
		},
	}, nil
}

// entryToResult maps a search hit back onto a domain result.
// A missing metadata field yields empty metadata.
func entryToResult(e *db.SearchEntry) (result.Result, error) {
	meta := map[string]any{}
	if raw := e.Fields[fieldMetadata]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &meta); err != nil {
			return result.Result{}, fmt.Errorf("decode metadata of %s: %w", e.Key, err)
		}
		if meta == nil {
			meta = map[string]any{}
		}
	}
	return result.New(e.Fields[fieldContent], meta, e.Score), nil
}
