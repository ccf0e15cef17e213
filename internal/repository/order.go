package repository

import (
	"context"
	"time"

	"github.com/utafrali/storefront/internal/docstore"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/pagination"
)

var newestFirst = &docstore.Sort{Field: docstore.FieldCreatedAt, Desc: true}

type OrderRepository struct {
	c collection[domain.Order]
}

func NewOrderRepository(store docstore.Store) *OrderRepository {
	return &OrderRepository{c: collection[domain.Order]{store: store, name: domain.CollectionOrders}}
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	return r.c.get(ctx, id)
}

func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) (*domain.Order, error) {
	return r.c.create(ctx, o.ID, o)
}

func (r *OrderRepository) Update(ctx context.Context, id string, fields map[string]any) (*domain.Order, error) {
	return r.c.update(ctx, id, fields)
}

func orderFilters(f domain.OrderFilter) []docstore.Filter {
	var filters []docstore.Filter
	if f.Status != "" {
		filters = append(filters, docstore.Where("order_status", docstore.Eq, f.Status))
	}
	if f.UserID != "" {
		filters = append(filters, docstore.Where("user_id", docstore.Eq, f.UserID))
	}
	return filters
}

// List pages through orders newest first.
func (r *OrderRepository) List(ctx context.Context, f domain.OrderFilter, p pagination.Params) ([]domain.Order, int, error) {
	filters := orderFilters(f)
	total, err := r.c.count(ctx, docstore.Query{Filters: filters})
	if err != nil {
		return nil, 0, err
	}
	items, err := r.c.query(ctx, docstore.Query{
		Filters: filters,
		Sort:    newestFirst,
		Limit:   p.Limit,
		Offset:  p.Offset,
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *OrderRepository) Recent(ctx context.Context, limit int) ([]domain.Order, error) {
	return r.c.query(ctx, docstore.Query{Sort: newestFirst, Limit: limit})
}

func (r *OrderRepository) All(ctx context.Context) ([]domain.Order, error) {
	return r.c.query(ctx, docstore.Query{})
}

// CreatedSince returns orders created at or after from.
func (r *OrderRepository) CreatedSince(ctx context.Context, from time.Time) ([]domain.Order, error) {
	return r.c.query(ctx, docstore.Query{
		Filters: []docstore.Filter{docstore.Where(docstore.FieldCreatedAt, docstore.Gte, from)},
	})
}

func (r *OrderRepository) CreatedBetween(ctx context.Context, from, to time.Time) ([]domain.Order, error) {
	return r.c.query(ctx, docstore.Query{Filters: createdIn(from, to)})
}

func (r *OrderRepository) Count(ctx context.Context) (int, error) {
	return r.c.count(ctx, docstore.Query{})
}
