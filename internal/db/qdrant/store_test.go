package qdrant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/catan-labs/catan/internal/db"
)

type recorded struct {
	Method string
	Path   string
	Query  string
	APIKey string
	Body   map[string]any
}

// fakeQdrant serves scripted replies keyed by "METHOD /path" and records every request.
type fakeQdrant struct {
	mu       sync.Mutex
	requests []recorded
	replies  map[string]func(w http.ResponseWriter)
}

func newFakeQdrant(t *testing.T) (*fakeQdrant, *Store) {
	t.Helper()
	f := &fakeQdrant{replies: map[string]func(w http.ResponseWriter){}}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	s, err := NewStore(Config{URL: srv.URL + "/", APIKey: "secret"})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return f, s
}

func (f *fakeQdrant) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec := recorded{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, APIKey: r.Header.Get("api-key")}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&rec.Body)
	}

	f.mu.Lock()
	f.requests = append(f.requests, rec)
	reply, ok := f.replies[r.Method+" "+r.URL.Path]
	f.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status":{"error":"Not found"}}`))
		return
	}
	reply(w)
}

func (f *fakeQdrant) on(key string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[key] = func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func TestNewStore_RequiresURL(t *testing.T) {
	if _, err := NewStore(Config{}); err == nil {
		t.Fatal("expected error for empty url")
	}
}

func TestPing(t *testing.T) {
	f, s := newFakeQdrant(t)
	f.on("GET /readyz", http.StatusOK, `all shards are ready`)

	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.requests[0].APIKey != "secret" {
		t.Errorf("expected api-key header, got %q", f.requests[0].APIKey)
	}
}

func TestPing_Unavailable(t *testing.T) {
	f, s := newFakeQdrant(t)
	f.on("GET /readyz", http.StatusServiceUnavailable, `not ready`)

	err := s.Ping(context.Background())
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpPing {
		t.Fatalf("expected PING db.Error, got %v", err)
	}
}

func TestWaitForReady_Timeout(t *testing.T) {
	_, s := newFakeQdrant(t)

	err := s.WaitForReady(context.Background(), 250*time.Millisecond)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestEnsureCollection_Exists(t *testing.T) {
	f, s := newFakeQdrant(t)
	f.on("GET /collections/documents", http.StatusOK, `{"result":{"status":"green"}}`)

	if err := s.EnsureCollection(context.Background(), "documents", 768); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.requests) != 1 {
		t.Errorf("expected only the lookup request, got %d", len(f.requests))
	}
}

func TestEnsureCollection_Creates(t *testing.T) {
	f, s := newFakeQdrant(t)
	f.on("PUT /collections/documents", http.StatusOK, `{"result":true}`)

	if err := s.EnsureCollection(context.Background(), "documents", 768); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.requests) != 2 {
		t.Fatalf("expected lookup and create, got %d requests", len(f.requests))
	}

	vectors, _ := f.requests[1].Body["vectors"].(map[string]any)
	if vectors["size"] != float64(768) || vectors["distance"] != "Cosine" {
		t.Errorf("unexpected create body: %v", f.requests[1].Body)
	}
}

func TestEnsureCollection_CreatedConcurrently(t *testing.T) {
	f, s := newFakeQdrant(t)
	f.on("PUT /collections/docs", http.StatusConflict,
		`{"status":{"error":"Wrong input: Collection `+"`docs`"+` already exists!"}}`)

	if err := s.EnsureCollection(context.Background(), "docs", 3); err != nil {
		t.Fatalf("expected nil when the collection already exists, got %v", err)
	}
	if len(f.requests) != 2 {
		t.Fatalf("expected lookup and create, got %d requests", len(f.requests))
	}
}

func TestEnsureCollection_CreateError(t *testing.T) {
	f, s := newFakeQdrant(t)
	f.on("PUT /collections/docs", http.StatusBadRequest, `{"status":{"error":"bad vector size"}}`)

	err := s.EnsureCollection(context.Background(), "docs", 3)
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpCreateCollection {
		t.Fatalf("expected CREATE_COLLECTION db.Error, got %v", err)
	}
}

func TestEnsureCollection_LookupError(t *testing.T) {
	f, s := newFakeQdrant(t)
	f.on("GET /collections/documents", http.StatusInternalServerError, `boom`)

	err := s.EnsureCollection(context.Background(), "documents", 3)
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpCollectionInfo {
		t.Fatalf("expected COLLECTION_INFO db.Error, got %v", err)
	}
}

func TestUpsert(t *testing.T) {
	f, s := newFakeQdrant(t)
	f.on("PUT /collections/documents/points", http.StatusOK, `{"result":{"status":"completed"}}`)

	err := s.Upsert(context.Background(), "documents", []db.Point{{
		ID:     "6f1c1b9e-8a4e-4a53-9d0e-0a0c3c2f7a11",
		Vector: []float32{0.5, 0.25},
		Fields: map[string]string{"content": "hello", "metadata": `{"source":"wiki"}`},
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := f.requests[0]
	if req.Query != "wait=true" {
		t.Errorf("expected wait=true, got %q", req.Query)
	}
	points, _ := req.Body["points"].([]any)
	if len(points) != 1 {
		t.Fatalf("expected 1 point, got %v", req.Body)
	}
	p := points[0].(map[string]any)
	payload := p["payload"].(map[string]any)
	if payload["content"] != "hello" || payload["metadata"] != `{"source":"wiki"}` {
		t.Errorf("unexpected payload: %v", payload)
	}
}

func TestUpsert_MissingCollection(t *testing.T) {
	_, s := newFakeQdrant(t)

	err := s.Upsert(context.Background(), "missing", []db.Point{{ID: "x", Vector: []float32{1}}})
	if !errors.Is(err, db.ErrCollectionNotFound) {
		t.Fatalf("expected ErrCollectionNotFound, got %v", err)
	}
}

func TestSearchKNN(t *testing.T) {
	f, s := newFakeQdrant(t)
	f.on("POST /collections/documents/points/search", http.StatusOK, `{
		"result": [
			{"id": "a", "score": 0.9, "payload": {"content": "first", "metadata": "{}"}},
			{"id": 7, "score": 0.7, "payload": {"content": "second", "page": 3, "tags": ["x"]}}
		],
		"status": "ok"
	}`)

	result, err := s.SearchKNN(context.Background(), &db.KNNQuery{
		Collection: "documents",
		Vector:     []float32{0.1, 0.2},
		K:          2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	body := f.requests[0].Body
	if body["limit"] != float64(2) || body["with_payload"] != true {
		t.Errorf("unexpected search body: %v", body)
	}

	if len(result.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(result.Entries))
	}
	first, second := result.Entries[0], result.Entries[1]
	if first.Key != "a" || first.Score != 0.9 || first.Fields["content"] != "first" {
		t.Errorf("unexpected first entry: %+v", first)
	}
	if second.Key != "7" || second.Fields["page"] != "3" || second.Fields["tags"] != `["x"]` {
		t.Errorf("unexpected second entry: %+v", second)
	}
}

func TestSearchKNN_MissingCollection(t *testing.T) {
	_, s := newFakeQdrant(t)

	_, err := s.SearchKNN(context.Background(), &db.KNNQuery{
		Collection: "missing", Vector: []float32{1}, K: 1,
	})
	if !errors.Is(err, db.ErrCollectionNotFound) {
		t.Fatalf("expected ErrCollectionNotFound, got %v", err)
	}
}

func TestSearchKNN_Validation(t *testing.T) {
	_, s := newFakeQdrant(t)

	_, err := s.SearchKNN(context.Background(), &db.KNNQuery{Collection: "documents", K: 1})
	if !errors.Is(err, db.ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
}
