package elasticsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/docstore"
	"github.com/utafrali/storefront/internal/docstore/memory"
	"github.com/utafrali/storefront/internal/search"
	"github.com/utafrali/storefront/pkg/logger"
)

type recorded struct {
	Method string
	Path   string
	Body   []byte
}

// fakeCluster answers like Elasticsearch: every response carries the
// product header the client checks for.
type fakeCluster struct {
	mu       sync.Mutex
	requests []recorded
	handle   func(w http.ResponseWriter, r *http.Request, body []byte)
}

func (f *fakeCluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recorded{Method: r.Method, Path: r.URL.Path, Body: body})
	f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	f.handle(w, r, body)
}

func (f *fakeCluster) last() recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func newEngine(t *testing.T, handle func(w http.ResponseWriter, r *http.Request, body []byte), fallback search.Engine) (*Engine, *fakeCluster) {
	t.Helper()
	fc := &fakeCluster{handle: handle}
	srv := httptest.NewServer(fc)
	t.Cleanup(srv.Close)

	e, err := New(Config{Addresses: []string{srv.URL}, Collections: []string{"products"}}, fallback, logger.Discard())
	require.NoError(t, err)
	return e, fc
}

func TestSearch_QueriesCatalogBlob(t *testing.T) {
	created := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	e, fc := newEngine(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		_, _ = io.WriteString(w, `{"hits":{"hits":[{"_source":{"blob":"x","catalog_blob":"iphone 15 pro","doc":{"id":"p1","data":{"name":"iPhone 15 Pro","price":999,"rating":4.5},"created_at":"2024-05-01T00:00:00Z","updated_at":"2024-05-01T00:00:00Z"}}}]}}`)
	}, nil)

	docs, err := e.Search(context.Background(), "products", "iPhone", search.CatalogFields)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "p1", docs[0].ID)
	assert.Equal(t, "iPhone 15 Pro", docs[0].Data["name"])
	assert.Equal(t, int64(999), docs[0].Data["price"])
	assert.Equal(t, 4.5, docs[0].Data["rating"])
	assert.True(t, created.Equal(docs[0].CreatedAt))

	req := fc.last()
	assert.Equal(t, "/storefront_products/_search", req.Path)

	var q map[string]any
	require.NoError(t, json.Unmarshal(req.Body, &q))
	wildcard := q["query"].(map[string]any)["wildcard"].(map[string]any)
	assert.Equal(t, map[string]any{"value": "*iphone*"}, wildcard["catalog_blob"])
}

func hitsPage(from, n int) string {
	hits := make([]map[string]any, 0, n)
	for i := from; i < from+n; i++ {
		id := fmt.Sprintf("p%04d", i)
		hits = append(hits, map[string]any{
			"_source": map[string]any{"key": id, "doc": map[string]any{"id": id, "data": map[string]any{"name": id}}},
			"sort":    []any{id},
		})
	}
	b, _ := json.Marshal(map[string]any{"hits": map[string]any{"hits": hits}})
	return string(b)
}

func TestSearch_WalksEveryPage(t *testing.T) {
	calls := 0
	e, fc := newEngine(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		calls++
		if calls == 1 {
			_, _ = io.WriteString(w, hitsPage(0, pageSize))
			return
		}
		_, _ = io.WriteString(w, hitsPage(pageSize, 3))
	}, nil)

	docs, err := e.Search(context.Background(), "products", "p", search.AllFields)
	require.NoError(t, err)
	assert.Len(t, docs, pageSize+3)
	assert.Equal(t, fmt.Sprintf("p%04d", pageSize+2), docs[len(docs)-1].ID)
	require.Len(t, fc.requests, 2)

	var first, second map[string]any
	require.NoError(t, json.Unmarshal(fc.requests[0].Body, &first))
	require.NoError(t, json.Unmarshal(fc.requests[1].Body, &second))
	assert.NotContains(t, first, "search_after")
	assert.Equal(t, []any{fmt.Sprintf("p%04d", pageSize-1)}, second["search_after"])
	assert.Equal(t, []any{map[string]any{"key": "asc"}}, second["sort"])
}

func TestSearch_UnindexedCollectionUsesFallback(t *testing.T) {
	store := memory.New()
	_, err := store.Create(context.Background(), "orders", docstore.Document{ID: "o1", Data: map[string]any{"user_email": "ada@example.com"}})
	require.NoError(t, err)

	e, fc := newEngine(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
	}, search.NewScanEngine(store))

	docs, err := e.Search(context.Background(), "orders", "ADA@", search.AllFields)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "o1", docs[0].ID)
	assert.Empty(t, fc.requests)
}

func TestIndex_WritesBlobs(t *testing.T) {
	e, fc := newEngine(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"result":"created"}`)
	}, nil)

	err := e.Index(context.Background(), "products", docstore.Document{
		ID:   "p1",
		Data: map[string]any{"name": "Desk Lamp", "brand": "Lumen", "stock": int64(4)},
	})
	require.NoError(t, err)

	req := fc.last()
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/storefront_products/_doc/p1", req.Path)

	var src indexedDoc
	require.NoError(t, json.Unmarshal(req.Body, &src))
	assert.Equal(t, "desk lamp lumen", src.CatalogBlob)
	assert.Contains(t, src.Blob, `"stock":4`)
	assert.Equal(t, "p1", src.Doc.ID)
	assert.Equal(t, "p1", src.Key)
}

func TestIndex_IgnoresUnindexedCollection(t *testing.T) {
	e, fc := newEngine(t, func(w http.ResponseWriter, r *http.Request, body []byte) {}, nil)
	require.NoError(t, e.Index(context.Background(), "users", docstore.Document{ID: "u1"}))
	assert.Empty(t, fc.requests)
}

func TestRemove_MissingIsNotAnError(t *testing.T) {
	e, _ := newEngine(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"result":"not_found"}`)
	}, nil)

	assert.NoError(t, e.Remove(context.Background(), "products", "gone"))
}

func TestSearch_ErrorResponse(t *testing.T) {
	e, _ := newEngine(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"type":"query_shard_exception","reason":"bad wildcard"},"status":400}`)
	}, nil)

	_, err := e.Search(context.Background(), "products", "x", search.AllFields)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query_shard_exception")
}

func TestEnsureIndices_CreatesMissingIndex(t *testing.T) {
	e, fc := newEngine(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, `{"acknowledged":true}`)
	}, nil)

	require.NoError(t, e.EnsureIndices(context.Background()))

	req := fc.last()
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/storefront_products", req.Path)
	assert.Contains(t, string(req.Body), `"wildcard"`)
}

func TestEnsureIndices_AddsKeyToExistingIndex(t *testing.T) {
	e, fc := newEngine(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		_, _ = io.WriteString(w, `{"acknowledged":true}`)
	}, nil)

	require.NoError(t, e.EnsureIndices(context.Background()))

	req := fc.last()
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/storefront_products/_mapping", req.Path)
	assert.Contains(t, string(req.Body), `"keyword"`)
}

func TestBulkIndex(t *testing.T) {
	e, fc := newEngine(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		_, _ = io.WriteString(w, `{"errors":false,"items":[]}`)
	}, nil)

	err := e.BulkIndex(context.Background(), "products", []docstore.Document{
		{ID: "a", Data: map[string]any{"name": "A"}},
		{ID: "b", Data: map[string]any{"name": "B"}},
	})
	require.NoError(t, err)

	req := fc.last()
	assert.Equal(t, "/_bulk", req.Path)
	assert.Contains(t, string(req.Body), `"_id":"b"`)
}

func TestEscapeWildcard(t *testing.T) {
	assert.Equal(t, `a\*b`, escapeWildcard("a*b"))
	assert.Equal(t, `a\?b`, escapeWildcard("a?b"))
	assert.Equal(t, `a\\b`, escapeWildcard(`a\b`))
}
