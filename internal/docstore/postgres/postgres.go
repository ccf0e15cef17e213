// Package postgres stores documents as JSONB rows in a single table keyed by
// (collection, id).
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/utafrali/storefront/internal/docstore"
	"github.com/utafrali/storefront/pkg/database"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

const dbSystem = "postgresql"

// Store implements docstore.Store on PostgreSQL.
type Store struct {
	db database.DBTX
}

var _ docstore.Store = (*Store)(nil)

// New wraps a pool (or any DBTX, such as a pgxmock pool).
func New(db database.DBTX) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, collection string, doc docstore.Document) (out docstore.Document, err error) {
	const query = `
		INSERT INTO documents (collection, id, data, created_at, updated_at)
		VALUES ($1, $2, $3::jsonb, NOW(), NOW())
		ON CONFLICT (collection, id) DO NOTHING
		RETURNING created_at, updated_at`

	ctx, done := database.TraceQuery(ctx, dbSystem, "insert", query)
	defer func() { done(err) }()

	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	data, err := marshalData(doc.Data)
	if err != nil {
		return docstore.Document{}, err
	}

	var createdAt, updatedAt time.Time
	err = s.db.QueryRow(ctx, query, collection, doc.ID, data).Scan(&createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return docstore.Document{}, apperrors.AlreadyExists(collection, "id", doc.ID)
		}
		return docstore.Document{}, fmt.Errorf("insert %s document: %w", collection, err)
	}

	out = docstore.Document{ID: doc.ID, CreatedAt: createdAt, UpdatedAt: updatedAt}
	out.Data, err = docstore.DecodeJSON([]byte(data))
	return out, err
}

func (s *Store) Get(ctx context.Context, collection, id string) (out docstore.Document, err error) {
	const query = `
		SELECT id, data, created_at, updated_at
		FROM documents
		WHERE collection = $1 AND id = $2`

	ctx, done := database.TraceQuery(ctx, dbSystem, "select", query)
	defer func() { done(err) }()

	out, err = scanDocument(s.db.QueryRow(ctx, query, collection, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return docstore.Document{}, apperrors.NotFound(collection, id)
		}
		return docstore.Document{}, fmt.Errorf("get %s document: %w", collection, err)
	}
	return out, nil
}

func (s *Store) Query(ctx context.Context, collection string, q docstore.Query) (docs []docstore.Document, err error) {
	if err := docstore.ValidateQuery(q); err != nil {
		return nil, err
	}
	b := newBuilder(collection)
	where, err := b.where(q.Filters)
	if err != nil {
		return nil, err
	}
	query := "SELECT id, data, created_at, updated_at FROM documents WHERE " + where + b.orderBy(q.Sort) + window(q)

	ctx, done := database.TraceQuery(ctx, dbSystem, "select", query)
	defer func() { done(err) }()

	rows, err := s.db.Query(ctx, query, b.args...)
	if err != nil {
		return nil, fmt.Errorf("query %s documents: %w", collection, err)
	}
	defer rows.Close()

	docs = []docstore.Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s document: %w", collection, err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s documents: %w", collection, err)
	}
	return docs, nil
}

func (s *Store) Count(ctx context.Context, collection string, q docstore.Query) (n int, err error) {
	if err := docstore.ValidateQuery(q); err != nil {
		return 0, err
	}
	b := newBuilder(collection)
	where, err := b.where(q.Filters)
	if err != nil {
		return 0, err
	}
	query := "SELECT count(*) FROM documents WHERE " + where

	ctx, done := database.TraceQuery(ctx, dbSystem, "count", query)
	defer func() { done(err) }()

	if err := s.db.QueryRow(ctx, query, b.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s documents: %w", collection, err)
	}
	return n, nil
}

func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any) (out docstore.Document, err error) {
	const query = `
		UPDATE documents
		SET data = data || $3::jsonb, updated_at = NOW()
		WHERE collection = $1 AND id = $2
		RETURNING id, data, created_at, updated_at`

	ctx, done := database.TraceQuery(ctx, dbSystem, "update", query)
	defer func() { done(err) }()

	patch := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == docstore.FieldID || docstore.IsTimestamp(k) {
			continue
		}
		patch[k] = v
	}
	data, err := marshalData(patch)
	if err != nil {
		return docstore.Document{}, err
	}

	out, err = scanDocument(s.db.QueryRow(ctx, query, collection, id, data))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return docstore.Document{}, apperrors.NotFound(collection, id)
		}
		return docstore.Document{}, fmt.Errorf("update %s document: %w", collection, err)
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) (err error) {
	const query = `DELETE FROM documents WHERE collection = $1 AND id = $2`

	ctx, done := database.TraceQuery(ctx, dbSystem, "delete", query)
	defer func() { done(err) }()

	ct, err := s.db.Exec(ctx, query, collection, id)
	if err != nil {
		return fmt.Errorf("delete %s document: %w", collection, err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound(collection, id)
	}
	return nil
}

// RunInTransaction runs fn inside BEGIN/COMMIT. Nested calls become
// savepoints.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx docstore.Store) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(ctx, &Store{db: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type pinger interface {
	Ping(ctx context.Context) error
}

func (s *Store) Ping(ctx context.Context) error {
	if p, ok := s.db.(pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close releases the pool when the store owns one.
func (s *Store) Close(context.Context) error {
	if c, ok := s.db.(interface{ Close() }); ok {
		c.Close()
	}
	return nil
}

func marshalData(data map[string]any) (string, error) {
	if data == nil {
		data = map[string]any{}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}
	return string(b), nil
}

func scanDocument(row pgx.Row) (docstore.Document, error) {
	var (
		d   docstore.Document
		raw []byte
	)
	if err := row.Scan(&d.ID, &raw, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return docstore.Document{}, err
	}
	data, err := docstore.DecodeJSON(raw)
	if err != nil {
		return docstore.Document{}, fmt.Errorf("decode document %s: %w", d.ID, err)
	}
	d.Data = data
	return d, nil
}
