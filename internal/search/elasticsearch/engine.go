// Package elasticsearch keeps selected collections in Elasticsearch indices
// with lowercase wildcard fields, and falls back to another engine for the
// rest.
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/utafrali/storefront/internal/docstore"
	"github.com/utafrali/storefront/internal/search"
)

// pageSize is the number of hits fetched per request. Searches walk every
// page with search_after, so results are never truncated.
const pageSize = 500

type Config struct {
	Addresses   []string
	IndexPrefix string
	// Collections are indexed; searches on any other collection go to the
	// fallback engine.
	Collections []string
}

// Engine implements search.Engine on Elasticsearch.
type Engine struct {
	client   *elasticsearch.Client
	prefix   string
	indexed  map[string]bool
	fallback search.Engine
	logger   *slog.Logger
}

var _ search.Engine = (*Engine)(nil)

// indexedDoc is the stored source: the sort key, two match fields and the
// document.
type indexedDoc struct {
	Key         string    `json:"key"`
	Blob        string    `json:"blob"`
	CatalogBlob string    `json:"catalog_blob"`
	Doc         sourceDoc `json:"doc"`
}

type sourceDoc struct {
	ID        string          `json:"id"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type esSearchResponse struct {
	Hits struct {
		Hits []struct {
			Source indexedDoc `json:"_source"`
			Sort   []any      `json:"sort"`
		} `json:"hits"`
	} `json:"hits"`
}

type esBulkResponse struct {
	Errors bool `json:"errors"`
	Items  []struct {
		Index struct {
			ID     string `json:"_id"`
			Status int    `json:"status"`
			Error  struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"index"`
	} `json:"items"`
}

type esErrorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
	Status int `json:"status"`
}

// New creates the client. Call EnsureIndices before serving traffic.
func New(cfg Config, fallback search.Engine, logger *slog.Logger) (*Engine, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: cfg.Addresses})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: create client: %w", err)
	}
	prefix := cfg.IndexPrefix
	if prefix == "" {
		prefix = "storefront"
	}
	indexed := make(map[string]bool, len(cfg.Collections))
	for _, c := range cfg.Collections {
		indexed[c] = true
	}
	return &Engine{client: client, prefix: prefix, indexed: indexed, fallback: fallback, logger: logger}, nil
}

func (e *Engine) indexName(collection string) string {
	return e.prefix + "_" + collection
}

// Ping checks whether the cluster is reachable.
func (e *Engine) Ping(ctx context.Context) error {
	res, err := e.client.Ping(e.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: unexpected status %s", res.Status())
	}
	return nil
}

// EnsureIndices creates missing indices for every indexed collection.
func (e *Engine) EnsureIndices(ctx context.Context) error {
	for c := range e.indexed {
		if err := e.ensureIndex(ctx, e.indexName(c)); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) ensureIndex(ctx context.Context, index string) error {
	res, err := e.client.Indices.Exists([]string{index}, e.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index %s: %w", index, err)
	}
	_ = res.Body.Close()
	if res.StatusCode == 200 {
		return e.ensureKeyMapping(ctx, index)
	}

	res, err = e.client.Indices.Create(index,
		e.client.Indices.Create.WithBody(strings.NewReader(indexMapping)),
		e.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("create index %s: %w", index, err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return responseError("create index "+index, res.Status(), res.Body)
	}

	e.logger.InfoContext(ctx, "elasticsearch index created", slog.String("index", index))
	return nil
}

func (e *Engine) ensureKeyMapping(ctx context.Context, index string) error {
	res, err := e.client.Indices.PutMapping([]string{index}, strings.NewReader(keyMapping),
		e.client.Indices.PutMapping.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("update mapping %s: %w", index, err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return responseError("update mapping "+index, res.Status(), res.Body)
	}
	return nil
}

func toIndexed(doc docstore.Document) (indexedDoc, error) {
	data, err := json.Marshal(doc.Data)
	if err != nil {
		return indexedDoc{}, fmt.Errorf("marshal document %s: %w", doc.ID, err)
	}
	return indexedDoc{
		Key:         doc.ID,
		Blob:        search.Blob(doc, search.AllFields),
		CatalogBlob: search.Blob(doc, search.CatalogFields),
		Doc: sourceDoc{
			ID:        doc.ID,
			Data:      data,
			CreatedAt: doc.CreatedAt,
			UpdatedAt: doc.UpdatedAt,
		},
	}, nil
}

func (d sourceDoc) document() (docstore.Document, error) {
	data := map[string]any{}
	if len(d.Data) > 0 {
		var err error
		if data, err = docstore.DecodeJSON(d.Data); err != nil {
			return docstore.Document{}, fmt.Errorf("decode document %s: %w", d.ID, err)
		}
	}
	return docstore.Document{ID: d.ID, Data: data, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt}, nil
}

// Index adds or replaces one document. Collections that are not indexed
// are ignored.
func (e *Engine) Index(ctx context.Context, collection string, doc docstore.Document) error {
	if !e.indexed[collection] {
		return nil
	}
	src, err := toIndexed(doc)
	if err != nil {
		return err
	}
	body, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("elasticsearch index: %w", err)
	}

	res, err := e.client.Index(e.indexName(collection), bytes.NewReader(body),
		e.client.Index.WithDocumentID(doc.ID),
		e.client.Index.WithRefresh("true"),
		e.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return responseError("elasticsearch index", res.Status(), res.Body)
	}
	return nil
}

// Remove deletes a document; a missing document is not an error.
func (e *Engine) Remove(ctx context.Context, collection, id string) error {
	if !e.indexed[collection] {
		return nil
	}
	res, err := e.client.Delete(e.indexName(collection), id,
		e.client.Delete.WithRefresh("true"),
		e.client.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch delete: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && res.StatusCode != 404 {
		return responseError("elasticsearch delete", res.Status(), res.Body)
	}
	return nil
}

// escapeWildcard neutralises wildcard metacharacters in a user term.
func escapeWildcard(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)
	return r.Replace(term)
}

func buildQuery(term string, scope search.Scope, after []any) map[string]any {
	field := "blob"
	if scope == search.CatalogFields {
		field = "catalog_blob"
	}
	q := map[string]any{
		"size": pageSize,
		"sort": []any{map[string]any{"key": "asc"}},
		"query": map[string]any{
			"wildcard": map[string]any{
				field: map[string]any{
					"value": "*" + escapeWildcard(strings.ToLower(term)) + "*",
				},
			},
		},
	}
	if len(after) > 0 {
		q["search_after"] = after
	}
	return q
}

func (e *Engine) Search(ctx context.Context, collection, term string, scope search.Scope) ([]docstore.Document, error) {
	if !e.indexed[collection] {
		return e.fallback.Search(ctx, collection, term, scope)
	}

	docs := []docstore.Document{}
	var after []any
	for {
		page, err := e.searchPage(ctx, collection, buildQuery(term, scope, after))
		if err != nil {
			return nil, err
		}
		for _, hit := range page.Hits.Hits {
			d, err := hit.Source.Doc.document()
			if err != nil {
				return nil, err
			}
			docs = append(docs, d)
		}
		n := len(page.Hits.Hits)
		if n < pageSize {
			return docs, nil
		}
		after = page.Hits.Hits[n-1].Sort
		if len(after) == 0 {
			return nil, fmt.Errorf("elasticsearch search: hit without sort values in %s", e.indexName(collection))
		}
	}
}

func (e *Engine) searchPage(ctx context.Context, collection string, query map[string]any) (*esSearchResponse, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search: marshal query: %w", err)
	}
	res, err := e.client.Search(
		e.client.Search.WithIndex(e.indexName(collection)),
		e.client.Search.WithBody(bytes.NewReader(body)),
		e.client.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, responseError("elasticsearch search", res.Status(), res.Body)
	}

	var page esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("elasticsearch search: decode response: %w", err)
	}
	return &page, nil
}

// BulkIndex writes many documents of one collection with the NDJSON bulk API.
func (e *Engine) BulkIndex(ctx context.Context, collection string, docs []docstore.Document) error {
	if !e.indexed[collection] || len(docs) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, d := range docs {
		src, err := toIndexed(d)
		if err != nil {
			return err
		}
		action := map[string]any{"index": map[string]any{"_index": e.indexName(collection), "_id": d.ID}}
		if err := enc.Encode(action); err != nil {
			return fmt.Errorf("elasticsearch bulk: encode action: %w", err)
		}
		if err := enc.Encode(src); err != nil {
			return fmt.Errorf("elasticsearch bulk: encode document: %w", err)
		}
	}

	res, err := e.client.Bulk(bytes.NewReader(buf.Bytes()),
		e.client.Bulk.WithRefresh("true"),
		e.client.Bulk.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch bulk: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return responseError("elasticsearch bulk", res.Status(), res.Body)
	}

	var bulkResp esBulkResponse
	if err := json.NewDecoder(res.Body).Decode(&bulkResp); err != nil {
		return fmt.Errorf("elasticsearch bulk: decode response: %w", err)
	}
	if bulkResp.Errors {
		failed := 0
		for _, item := range bulkResp.Items {
			if item.Index.Status >= 300 {
				failed++
				e.logger.WarnContext(ctx, "bulk index item failed",
					slog.String("id", item.Index.ID),
					slog.String("reason", item.Index.Error.Reason),
				)
			}
		}
		return fmt.Errorf("elasticsearch bulk: %d of %d documents failed", failed, len(docs))
	}
	return nil
}

// Reindex loads every document of each indexed collection from store.
func (e *Engine) Reindex(ctx context.Context, store docstore.Store) error {
	for c := range e.indexed {
		docs, err := store.Query(ctx, c, docstore.Query{})
		if err != nil {
			return fmt.Errorf("reindex %s: %w", c, err)
		}
		if err := e.BulkIndex(ctx, c, docs); err != nil {
			return fmt.Errorf("reindex %s: %w", c, err)
		}
		e.logger.InfoContext(ctx, "collection reindexed", slog.String("collection", c), slog.Int("documents", len(docs)))
	}
	return nil
}

func responseError(op, status string, body io.Reader) error {
	var errResp esErrorResponse
	if err := json.NewDecoder(body).Decode(&errResp); err == nil && errResp.Error.Type != "" {
		return fmt.Errorf("%s: %s: %s", op, errResp.Error.Type, errResp.Error.Reason)
	}
	return fmt.Errorf("%s: unexpected status %s", op, status)
}
