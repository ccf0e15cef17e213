// Package docstore is the storage contract the storefront depends on: named
// collections of schemaless documents queried by filter, sort and limit.
// Backends live in the memory, postgres and mongo subpackages.
package docstore

import (
	"context"
	"fmt"
	"regexp"
	"time"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// Reserved fields. They are assigned by the store and live outside Data.
const (
	FieldID        = "id"
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
)

// Document is one stored record.
type Document struct {
	ID        string
	Data      map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Op string

const (
	Eq  Op = "=="
	Gt  Op = ">"
	Gte Op = ">="
	Lt  Op = "<"
	Lte Op = "<="
)

type Filter struct {
	Field string
	Op    Op
	Value any
}

// Where builds a filter.
func Where(field string, op Op, value any) Filter {
	return Filter{Field: field, Op: op, Value: value}
}

// Sort orders results by a single field. Ties keep the backend's natural
// order.
type Sort struct {
	Field string
	Desc  bool
}

// Query composes filters (ANDed), an optional sort and a window. A zero
// Limit means no limit.
type Query struct {
	Filters []Filter
	Sort    *Sort
	Limit   int
	Offset  int
}

// Store is implemented by every backend. Create fails with
// errors.ErrAlreadyExists when the id is taken, which makes it usable as a
// conditional put. Get, Update and Delete fail with errors.ErrNotFound for
// unknown ids. Update merges top-level fields into the document.
type Store interface {
	Create(ctx context.Context, collection string, doc Document) (Document, error)
	Get(ctx context.Context, collection, id string) (Document, error)
	Query(ctx context.Context, collection string, q Query) ([]Document, error)
	Count(ctx context.Context, collection string, q Query) (int, error)
	Update(ctx context.Context, collection, id string, fields map[string]any) (Document, error)
	Delete(ctx context.Context, collection, id string) error
	// RunInTransaction runs fn against a transactional view of the store.
	// Everything fn does through tx commits together or not at all.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

var fieldName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateQuery rejects malformed field names and operators before a backend
// turns the query into its own language.
func ValidateQuery(q Query) error {
	for _, f := range q.Filters {
		if !fieldName.MatchString(f.Field) {
			return apperrors.InvalidInput(fmt.Sprintf("invalid filter field %q", f.Field))
		}
		switch f.Op {
		case Eq, Gt, Gte, Lt, Lte:
		default:
			return apperrors.InvalidInput(fmt.Sprintf("invalid filter operator %q", f.Op))
		}
	}
	if q.Sort != nil && !fieldName.MatchString(q.Sort.Field) {
		return apperrors.InvalidInput(fmt.Sprintf("invalid sort field %q", q.Sort.Field))
	}
	if q.Limit < 0 || q.Offset < 0 {
		return apperrors.InvalidInput("limit and offset must not be negative")
	}
	return nil
}

// IsTimestamp reports whether field is one of the store-assigned timestamps.
func IsTimestamp(field string) bool {
	return field == FieldCreatedAt || field == FieldUpdatedAt
}
