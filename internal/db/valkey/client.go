// Package valkey implements db.Store on Valkey or Redis search indexes via rueidis.
// Points are stored as hashes under <prefix><collection>:<id> and indexed by
// an HNSW vector index named <prefix><collection>:idx. The collection segment
// has '%' and ':' percent-escaped.
package valkey

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/rueidis"

	"github.com/catan-labs/catan/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Hash field names.
const (
	FieldVector = "vector"
	fieldScore  = "__vector_score"
)

// Config holds connection and index parameters.
type Config struct {
	Addrs           []string
	Username        string
	Password        string
	DB              int
	KeyPrefix       string
	HNSWM           int
	HNSWEFConstruct int
}

// Store implements db.Store via rueidis for valkey-search and Redis 8+.
type Store struct {
	client rueidis.Client
	prefix string
	m      int
	efc    int
}

// NewStore creates a store via rueidis.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
		AlwaysRESP2:  true, // FT.SEARCH result parsing expects RESP2 array format
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return newStore(client, cfg), nil
}

func newStore(client rueidis.Client, cfg Config) *Store {
	return &Store{
		client: client,
		prefix: cfg.KeyPrefix,
		m:      cfg.HNSWM,
		efc:    cfg.HNSWEFConstruct,
	}
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	cmd := s.client.B().Ping().Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close shuts down the client.
func (s *Store) Close() {
	s.client.Close()
}

// WaitForReady polls Ping until the store responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for valkey: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

func (s *Store) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return s.client.Do(ctx, cmd)
}

func (s *Store) b() rueidis.Builder {
	return s.client.B()
}

// collectionEscaper keeps ':' out of the collection segment so no collection's
// key prefix is a prefix of another's ("a:" would otherwise cover "a:b:").
var collectionEscaper = strings.NewReplacer("%", "%25", ":", "%3A")

func (s *Store) keyPrefix(collection string) string {
	return s.prefix + collectionEscaper.Replace(collection) + ":"
}

func (s *Store) indexName(collection string) string {
	return s.keyPrefix(collection) + "idx"
}

// isRedisErr checks if err is a server error containing any of substrs (case-insensitive).
func isRedisErr(err error, substrs ...string) bool {
	re, ok := rueidis.IsRedisErr(err)
	if !ok {
		return false
	}
	msg := strings.ToLower(re.Error())
	for _, sub := range substrs {
		if strings.Contains(msg, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}

// isUnknownIndex matches the missing-index replies of valkey-search and RediSearch.
func isUnknownIndex(err error) bool {
	return isRedisErr(err, "unknown index name", "no such index", "not found")
}
