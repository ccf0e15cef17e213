// Package search finds documents whose text contains a term. The default
// engine scans the store; the elasticsearch subpackage keeps an index.
package search

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/utafrali/storefront/internal/docstore"
)

// Scope selects which text of a document a term is matched against.
type Scope int

const (
	// AllFields matches against the whole document rendered as text.
	AllFields Scope = iota
	// CatalogFields matches against name, description, category and brand.
	CatalogFields
)

// catalogFields are the product fields the storefront search covers.
var catalogFields = []string{"name", "description", "category", "brand"}

// Engine is a substring search over one collection. Matching is
// case-insensitive and returns every hit, unpaged.
type Engine interface {
	Search(ctx context.Context, collection, term string, scope Scope) ([]docstore.Document, error)
	Index(ctx context.Context, collection string, doc docstore.Document) error
	Remove(ctx context.Context, collection, id string) error
}

// Blob is the lowercase text a document is matched against.
func Blob(doc docstore.Document, scope Scope) string {
	if scope == CatalogFields {
		parts := make([]string, 0, len(catalogFields))
		for _, f := range catalogFields {
			if s, ok := doc.Data[f].(string); ok && s != "" {
				parts = append(parts, s)
			}
		}
		return strings.ToLower(strings.Join(parts, " "))
	}

	var b strings.Builder
	b.WriteString(doc.ID)
	b.WriteByte(' ')
	writeValue(&b, doc.Data)
	return strings.ToLower(b.String())
}

// writeValue renders v in JSON layout with keys sorted, leaving strings
// unescaped so a term matches the text as stored.
func writeValue(b *strings.Builder, v any) {
	switch t := v.(type) {
	case nil:
		b.WriteString("null")
	case string:
		b.WriteByte('"')
		b.WriteString(t)
		b.WriteByte('"')
	case bool:
		b.WriteString(strconv.FormatBool(t))
	case int64:
		b.WriteString(strconv.FormatInt(t, 10))
	case int:
		b.WriteString(strconv.Itoa(t))
	case float64:
		b.WriteString(strconv.FormatFloat(t, 'f', -1, 64))
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('"')
			b.WriteString(k)
			b.WriteString(`":`)
			writeValue(b, t[k])
		}
		b.WriteByte('}')
	case []any:
		b.WriteByte('[')
		for i, item := range t {
			if i > 0 {
				b.WriteByte(',')
			}
			writeValue(b, item)
		}
		b.WriteByte(']')
	case time.Time:
		b.WriteString(`"` + t.UTC().Format(time.RFC3339Nano) + `"`)
	default:
		fmt.Fprint(b, t)
	}
}

// Matches reports whether doc contains term under scope.
func Matches(doc docstore.Document, term string, scope Scope) bool {
	return strings.Contains(Blob(doc, scope), strings.ToLower(term))
}

// ScanEngine reads the whole collection and filters in process. It needs no
// index, so Index and Remove do nothing.
type ScanEngine struct {
	store docstore.Store
}

var _ Engine = (*ScanEngine)(nil)

func NewScanEngine(store docstore.Store) *ScanEngine {
	return &ScanEngine{store: store}
}

func (e *ScanEngine) Search(ctx context.Context, collection, term string, scope Scope) ([]docstore.Document, error) {
	docs, err := e.store.Query(ctx, collection, docstore.Query{})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", collection, err)
	}
	hits := []docstore.Document{}
	for _, d := range docs {
		if Matches(d, term, scope) {
			hits = append(hits, d)
		}
	}
	return hits, nil
}

func (e *ScanEngine) Index(context.Context, string, docstore.Document) error { return nil }

func (e *ScanEngine) Remove(context.Context, string, string) error { return nil }
