package catan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/catan-labs/catan/internal/chunker"
	"github.com/catan-labs/catan/internal/db"
	dbQdrant "github.com/catan-labs/catan/internal/db/qdrant"
	dbSQLite "github.com/catan-labs/catan/internal/db/sqlite"
	dbValkey "github.com/catan-labs/catan/internal/db/valkey"
	"github.com/catan-labs/catan/internal/domain"
	"github.com/catan-labs/catan/internal/domain/generation"
	chunkrepo "github.com/catan-labs/catan/internal/repository/chunk"
	raguc "github.com/catan-labs/catan/internal/usecase/rag"
)

const defaultReadinessTimeout = 10 * time.Second

// ragUseCase is the internal service contract, swapped out in tests.
type ragUseCase interface {
	SearchSimilarDocuments(ctx context.Context, query, collection string, limit int) ([]resultView, error)
	GenerateResponse(ctx context.Context, query string, contextDocs []string, systemPrompt string) (generation.Result, error)
	ProcessAndIndexDocument(
		ctx context.Context, content string, metadata map[string]any, collection string,
	) (domain.IndexResult, error)
}

// Client is the catan SDK entry point.
type Client struct {
	store db.Store
	svc   ragUseCase
	obs   *observer
}

// New creates a Client and connects to the vector store.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.driver == "" {
		return nil, errors.New("catan: vector store required (use WithQdrant, WithValkey, WithRedis or WithSQLite)")
	}
	if cfg.embedder == nil {
		return nil, errors.New("catan: embedder required (use WithEmbedder)")
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("catan: vector store not ready: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		store.Close()
		return nil, err
	}

	return wireClient(store, cfg, obs), nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "qdrant":
		s, err := dbQdrant.NewStore(dbQdrant.Config{URL: cfg.addr, APIKey: cfg.apiKey})
		if err != nil {
			return nil, fmt.Errorf("catan: create qdrant store: %w", err)
		}
		return s, nil
	case "valkey", "redis":
		prefix := cfg.keyPrefix
		if prefix == "" {
			prefix = "catan:"
		}
		s, err := dbValkey.NewStore(dbValkey.Config{
			Addrs:     []string{cfg.addr},
			Password:  cfg.password,
			KeyPrefix: prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("catan: create %s store: %w", cfg.driver, err)
		}
		return s, nil
	case "sqlite":
		s, err := dbSQLite.NewStore(dbSQLite.Config{Path: cfg.sqlitePath})
		if err != nil {
			return nil, fmt.Errorf("catan: create sqlite store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("catan: unknown driver %q", cfg.driver)
	}
}

func wireClient(store db.Store, cfg *clientConfig, obs *observer) *Client {
	var chunkOpts []chunker.Option
	if cfg.chunking {
		// overlap 0 is a valid request for disjoint chunks
		chunkOpts = append(chunkOpts,
			chunker.WithChunkSize(cfg.chunkSize),
			chunker.WithOverlap(cfg.chunkOverlap),
		)
	}

	var chat raguc.ChatModel = noopChat{}
	if cfg.chat != nil {
		chat = &chatAdapter{inner: cfg.chat}
	}

	svc := raguc.New(adaptEmbedder(cfg.embedder), chunkrepo.New(store), chat, chunker.New(chunkOpts...), nil)

	return &Client{store: store, svc: serviceAdapter{svc}, obs: obs}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks vector store connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", "", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Index splits content into chunks, embeds them and appends them to collection.
func (c *Client) Index(
	ctx context.Context, collection, content string, metadata map[string]any,
) (res IndexResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("index", collection, start, err) }()

	r, err := c.svc.ProcessAndIndexDocument(ctx, content, metadata, collection)
	if err != nil {
		return IndexResult{}, fmt.Errorf("index: %w", err)
	}
	return IndexResult{Collection: r.Collection, ChunksProcessed: r.ChunksProcessed}, nil
}

// Search returns up to limit chunks most similar to query.
func (c *Client) Search(ctx context.Context, collection, query string, limit int) (hits []Hit, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", collection, start, err) }()

	return c.search(ctx, collection, query, limit)
}

// Answer retrieves up to limit chunks and asks the chat model to answer query from them.
func (c *Client) Answer(ctx context.Context, collection, query string, limit int) (ans Answer, err error) {
	start := time.Now()
	defer func() { c.obs.observe("answer", collection, start, err) }()

	hits, err := c.search(ctx, collection, query, limit)
	if err != nil {
		return Answer{}, err
	}

	docs := make([]string, len(hits))
	for i := range hits {
		docs[i] = hits[i].Content
	}

	gen, err := c.svc.GenerateResponse(ctx, query, docs, raguc.DefaultSystemPrompt)
	if err != nil {
		return Answer{}, fmt.Errorf("answer: %w", err)
	}

	return Answer{Text: gen.Response, Model: gen.Model, Tokens: gen.Usage.Map(), Hits: hits}, nil
}

func (c *Client) search(ctx context.Context, collection, query string, limit int) ([]Hit, error) {
	results, err := c.svc.SearchSimilarDocuments(ctx, query, collection, limit)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	hits := make([]Hit, len(results))
	for i, r := range results {
		hits[i] = Hit{Content: r.Content, Metadata: r.Metadata, Score: r.Score}
	}
	return hits, nil
}
