package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/docstore"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

func seed(t *testing.T, s *Store, docs ...docstore.Document) {
	t.Helper()
	for _, d := range docs {
		_, err := s.Create(context.Background(), "products", d)
		require.NoError(t, err)
	}
}

func ids(docs []docstore.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s := New().WithClock(func() time.Time { return now })

	created, err := s.Create(ctx, "products", docstore.Document{Data: map[string]any{"name": "lamp", "stock": 3}})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, now, created.CreatedAt)

	got, err := s.Get(ctx, "products", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "lamp", got.Data["name"])
	assert.Equal(t, int64(3), got.Data["stock"])
}

func TestCreate_DuplicateID(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.Create(ctx, "settings", docstore.Document{ID: "store", Data: map[string]any{"v": 1}})
	require.NoError(t, err)

	_, err = s.Create(ctx, "settings", docstore.Document{ID: "store", Data: map[string]any{"v": 2}})
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyExists))

	got, err := s.Get(ctx, "settings", "store")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Data["v"])
}

func TestGet_NotFound(t *testing.T) {
	_, err := New().Get(context.Background(), "products", "missing")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestReturnedDocumentsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	seed(t, s, docstore.Document{ID: "a", Data: map[string]any{"name": "lamp"}})

	got, err := s.Get(ctx, "products", "a")
	require.NoError(t, err)
	got.Data["name"] = "changed"

	again, err := s.Get(ctx, "products", "a")
	require.NoError(t, err)
	assert.Equal(t, "lamp", again.Data["name"])
}

func TestQuery_FiltersSortAndWindow(t *testing.T) {
	ctx := context.Background()
	s := New()
	seed(t, s,
		docstore.Document{ID: "a", Data: map[string]any{"brand": "acme", "price": 10.0}},
		docstore.Document{ID: "b", Data: map[string]any{"brand": "acme", "price": 30.0}},
		docstore.Document{ID: "c", Data: map[string]any{"brand": "zeta", "price": 20.0}},
		docstore.Document{ID: "d", Data: map[string]any{"brand": "acme", "price": 20.0}},
	)

	docs, err := s.Query(ctx, "products", docstore.Query{
		Filters: []docstore.Filter{docstore.Where("brand", docstore.Eq, "acme")},
		Sort:    &docstore.Sort{Field: "price", Desc: true},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "d", "a"}, ids(docs))

	docs, err = s.Query(ctx, "products", docstore.Query{
		Sort:   &docstore.Sort{Field: "price"},
		Offset: 1,
		Limit:  2,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "d"}, ids(docs))

	docs, err = s.Query(ctx, "products", docstore.Query{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, docs)

	n, err := s.Count(ctx, "products", docstore.Query{
		Filters: []docstore.Filter{
			docstore.Where("price", docstore.Gte, 15),
			docstore.Where("price", docstore.Lte, 25),
		},
		Limit: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestQuery_ByCreatedAt(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	s := New().WithClock(func() time.Time { return clock })

	seed(t, s, docstore.Document{ID: "jan"})
	clock = time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
	seed(t, s, docstore.Document{ID: "feb"})

	docs, err := s.Query(ctx, "products", docstore.Query{
		Filters: []docstore.Filter{docstore.Where(docstore.FieldCreatedAt, docstore.Gte, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"feb"}, ids(docs))

	docs, err = s.Query(ctx, "products", docstore.Query{Sort: &docstore.Sort{Field: docstore.FieldCreatedAt, Desc: true}})
	require.NoError(t, err)
	assert.Equal(t, []string{"feb", "jan"}, ids(docs))
}

func TestQuery_InvalidField(t *testing.T) {
	_, err := New().Query(context.Background(), "products", docstore.Query{
		Filters: []docstore.Filter{docstore.Where("name'--", docstore.Eq, "x")},
	})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestUpdate_MergesFields(t *testing.T) {
	ctx := context.Background()
	s := New()
	seed(t, s, docstore.Document{ID: "a", Data: map[string]any{"name": "lamp", "stock": 3}})

	updated, err := s.Update(ctx, "products", "a", map[string]any{"stock": 7, "id": "hijack"})
	require.NoError(t, err)
	assert.Equal(t, "a", updated.ID)
	assert.Equal(t, "lamp", updated.Data["name"])
	assert.Equal(t, int64(7), updated.Data["stock"])
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

	_, err = s.Update(ctx, "products", "missing", map[string]any{"stock": 1})
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s := New()
	seed(t, s, docstore.Document{ID: "a"})

	require.NoError(t, s.Delete(ctx, "products", "a"))
	assert.True(t, errors.Is(s.Delete(ctx, "products", "a"), apperrors.ErrNotFound))
}

func TestRunInTransaction_Commit(t *testing.T) {
	ctx := context.Background()
	s := New()
	seed(t, s, docstore.Document{ID: "a", Data: map[string]any{"stock": 5}})

	err := s.RunInTransaction(ctx, func(ctx context.Context, tx docstore.Store) error {
		if _, err := tx.Update(ctx, "products", "a", map[string]any{"stock": 4}); err != nil {
			return err
		}
		_, err := tx.Create(ctx, "orders", docstore.Document{ID: "o1"})
		return err
	})
	require.NoError(t, err)

	got, err := s.Get(ctx, "products", "a")
	require.NoError(t, err)
	assert.Equal(t, int64(4), got.Data["stock"])
	_, err = s.Get(ctx, "orders", "o1")
	assert.NoError(t, err)
}

func TestRunInTransaction_Rollback(t *testing.T) {
	ctx := context.Background()
	s := New()
	seed(t, s, docstore.Document{ID: "a", Data: map[string]any{"stock": 5}})

	boom := errors.New("boom")
	err := s.RunInTransaction(ctx, func(ctx context.Context, tx docstore.Store) error {
		if _, err := tx.Update(ctx, "products", "a", map[string]any{"stock": 0}); err != nil {
			return err
		}
		if _, err := tx.Create(ctx, "orders", docstore.Document{ID: "o1"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.Get(ctx, "products", "a")
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.Data["stock"])
	_, err = s.Get(ctx, "orders", "o1")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}
