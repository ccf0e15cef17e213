// Package repository maps domain entities onto docstore collections.
package repository

import (
	"context"
	"time"

	"github.com/utafrali/storefront/internal/docstore"
)

// Set bundles the repositories bound to one store handle. Inside a
// transaction, build a Set from the tx handle.
type Set struct {
	Products      *ProductRepository
	Categories    *CategoryRepository
	Orders        *OrderRepository
	Users         *UserRepository
	Notifications *NotificationRepository
	Settings      *SettingsRepository
}

func New(store docstore.Store) *Set {
	return &Set{
		Products:      NewProductRepository(store),
		Categories:    NewCategoryRepository(store),
		Orders:        NewOrderRepository(store),
		Users:         NewUserRepository(store),
		Notifications: NewNotificationRepository(store),
		Settings:      NewSettingsRepository(store),
	}
}

// collection is the typed gateway every repository is built on.
type collection[T any] struct {
	store docstore.Store
	name  string
}

func (c collection[T]) decode(doc docstore.Document) (*T, error) {
	v := new(T)
	if err := docstore.Decode(doc, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (c collection[T]) decodeAll(docs []docstore.Document) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		v, err := c.decode(d)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

func (c collection[T]) get(ctx context.Context, id string) (*T, error) {
	doc, err := c.store.Get(ctx, c.name, id)
	if err != nil {
		return nil, err
	}
	return c.decode(doc)
}

func (c collection[T]) create(ctx context.Context, id string, v *T) (*T, error) {
	data, err := docstore.Encode(v)
	if err != nil {
		return nil, err
	}
	doc, err := c.store.Create(ctx, c.name, docstore.Document{ID: id, Data: data})
	if err != nil {
		return nil, err
	}
	return c.decode(doc)
}

func (c collection[T]) update(ctx context.Context, id string, fields map[string]any) (*T, error) {
	doc, err := c.store.Update(ctx, c.name, id, fields)
	if err != nil {
		return nil, err
	}
	return c.decode(doc)
}

func (c collection[T]) query(ctx context.Context, q docstore.Query) ([]T, error) {
	docs, err := c.store.Query(ctx, c.name, q)
	if err != nil {
		return nil, err
	}
	return c.decodeAll(docs)
}

func (c collection[T]) count(ctx context.Context, q docstore.Query) (int, error) {
	return c.store.Count(ctx, c.name, q)
}

func (c collection[T]) delete(ctx context.Context, id string) error {
	return c.store.Delete(ctx, c.name, id)
}

// createdBetween counts documents created in [from, to).
func (c collection[T]) createdBetween(ctx context.Context, from, to time.Time) (int, error) {
	return c.count(ctx, docstore.Query{Filters: createdIn(from, to)})
}

func createdIn(from, to time.Time) []docstore.Filter {
	return []docstore.Filter{
		docstore.Where(docstore.FieldCreatedAt, docstore.Gte, from),
		docstore.Where(docstore.FieldCreatedAt, docstore.Lt, to),
	}
}

// Patch encodes v and keeps only the listed fields, giving partial updates
// the same wire form as full documents.
func Patch(v any, fields ...string) (map[string]any, error) {
	data, err := docstore.Encode(v)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		if val, ok := data[f]; ok {
			out[f] = val
		}
	}
	return out, nil
}
