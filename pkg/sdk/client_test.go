package catan

import (
	"context"
	"errors"
	"hash/fnv"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// --- Fakes ---

// hashEmbedder maps each text to a deterministic 8-dim vector.
type hashEmbedder struct {
	calls int
	err   error
}

func (h *hashEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	h.calls++
	if h.err != nil {
		return EmbeddingResult{}, h.err
	}
	f := fnv.New64a()
	_, _ = f.Write([]byte(text))
	sum := f.Sum64()
	vec := make([]float32, 8)
	for i := range vec {
		vec[i] = float32((sum>>(i*8))&0xff) + 1
	}
	return EmbeddingResult{Embedding: vec, PromptTokens: 1, TotalTokens: 1}, nil
}

type batchHashEmbedder struct {
	hashEmbedder
	batchCalls int
}

func (b *batchHashEmbedder) BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error) {
	b.batchCalls++
	out := BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	for i, t := range texts {
		r, err := b.Embed(ctx, t)
		if err != nil {
			return BatchEmbeddingResult{}, err
		}
		out.Embeddings[i] = r.Embedding
		out.TotalTokens += r.TotalTokens
	}
	return out, nil
}

type fakeChat struct {
	msgs []Message
}

func (f *fakeChat) Complete(_ context.Context, msgs []Message) (Completion, error) {
	f.msgs = msgs
	return Completion{Text: "42", Model: "fake-model", PromptTokens: 3, CompletionTokens: 1, TotalTokens: 4}, nil
}

func newSQLiteClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	base := []Option{WithSQLite(filepath.Join(t.TempDir(), "vectors.db"))}
	c, err := New(context.Background(), append(base, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

// --- Construction ---

func TestNew_NoStore(t *testing.T) {
	_, err := New(context.Background(), WithEmbedder(&hashEmbedder{}))
	if err == nil {
		t.Fatal("expected error when no vector store configured")
	}
}

func TestNew_NoEmbedder(t *testing.T) {
	_, err := New(context.Background(), WithSQLite(filepath.Join(t.TempDir(), "v.db")))
	if err == nil {
		t.Fatal("expected error when no embedder configured")
	}
}

func TestCreateStore_UnknownDriver(t *testing.T) {
	_, err := createStore(&clientConfig{driver: "pinecone"})
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

// --- End to end over SQLite ---

func TestIndexSearchAnswer(t *testing.T) {
	chat := &fakeChat{}
	c := newSQLiteClient(t, WithEmbedder(&hashEmbedder{}), WithChatModel(chat))
	ctx := context.Background()

	if err := c.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	doc := strings.Repeat("alpha ", 400)
	res, err := c.Index(ctx, "kb", doc, map[string]any{"source": "a.txt"})
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if res.ChunksProcessed < 2 || res.Collection != "kb" {
		t.Fatalf("unexpected index result %+v", res)
	}

	hits, err := c.Search(ctx, "kb", "alpha", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].Score < hits[1].Score {
		t.Errorf("hits not ordered: %v, %v", hits[0].Score, hits[1].Score)
	}
	if hits[0].Metadata["source"] != "a.txt" {
		t.Errorf("metadata = %v", hits[0].Metadata)
	}

	ans, err := c.Answer(ctx, "kb", "alpha?", 1)
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if ans.Text != "42" || ans.Model != "fake-model" || ans.Tokens["total_tokens"] != 4 || len(ans.Hits) != 1 {
		t.Errorf("unexpected answer %+v", ans)
	}
	if last := chat.msgs[len(chat.msgs)-1]; last.Role != RoleUser || last.Content != "alpha?" {
		t.Errorf("last message = %+v", last)
	}
}

func TestSearch_UnknownCollection(t *testing.T) {
	c := newSQLiteClient(t, WithEmbedder(&hashEmbedder{}))

	_, err := c.Search(context.Background(), "missing", "q", 3)
	if !errors.Is(err, ErrRetrieval) || !errors.Is(err, ErrCollectionNotFound) {
		t.Fatalf("expected ErrRetrieval wrapping ErrCollectionNotFound, got %v", err)
	}
}

func TestAnswer_NoChatModel(t *testing.T) {
	c := newSQLiteClient(t, WithEmbedder(&hashEmbedder{}))
	ctx := context.Background()

	if _, err := c.Index(ctx, "kb", "short doc", nil); err != nil {
		t.Fatalf("Index: %v", err)
	}
	_, err := c.Answer(ctx, "kb", "q", 1)
	if !errors.Is(err, ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
}

func TestIndex_UsesBatchEmbedder(t *testing.T) {
	emb := &batchHashEmbedder{}
	c := newSQLiteClient(t, WithEmbedder(emb), WithChunking(100, 20))

	res, err := c.Index(context.Background(), "kb", strings.Repeat("x", 450), nil)
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if res.ChunksProcessed != 6 {
		t.Errorf("expected 6 chunks with size 100 overlap 20, got %d", res.ChunksProcessed)
	}
	if emb.batchCalls != 1 {
		t.Errorf("expected one batch call, got %d", emb.batchCalls)
	}
}

func TestIndex_ZeroOverlap(t *testing.T) {
	c := newSQLiteClient(t, WithEmbedder(&hashEmbedder{}), WithChunking(100, 0))

	res, err := c.Index(context.Background(), "kb", strings.Repeat("x", 450), nil)
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if res.ChunksProcessed != 5 {
		t.Errorf("expected 5 disjoint chunks with size 100 overlap 0, got %d", res.ChunksProcessed)
	}
}

func TestIndex_EmbedderError(t *testing.T) {
	c := newSQLiteClient(t, WithEmbedder(&hashEmbedder{err: errors.New("quota")}))

	_, err := c.Index(context.Background(), "kb", "text", nil)
	if !errors.Is(err, ErrIndexing) {
		t.Fatalf("expected ErrIndexing, got %v", err)
	}
}

// --- Observability ---

func TestObserver_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := newSQLiteClient(t,
		WithEmbedder(&hashEmbedder{}),
		WithPrometheus(reg),
		WithLogger(slog.New(slog.DiscardHandler)),
	)
	ctx := context.Background()

	_, _ = c.Index(ctx, "kb", "hello", nil)
	_, _ = c.Search(ctx, "missing", "hello", 1)

	m := c.obs.metrics
	if got := testutil.ToFloat64(m.operations.WithLabelValues("index", "ok")); got != 1 {
		t.Errorf("index ok = %v", got)
	}
	if got := testutil.ToFloat64(m.operations.WithLabelValues("search", "error")); got != 1 {
		t.Errorf("search error = %v", got)
	}
}

func TestNewSDKMetrics_ReusesRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := newSDKMetrics(reg)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := newSDKMetrics(reg)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if first.operations != second.operations {
		t.Error("expected the registered collector to be reused")
	}
}

func TestObserver_NilSafe(t *testing.T) {
	var o *observer
	o.observe("ping", "", time.Now(), nil)
}
