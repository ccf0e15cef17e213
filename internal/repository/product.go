package repository

import (
	"context"
	"time"

	"github.com/utafrali/storefront/internal/docstore"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/pagination"
)

var productSorts = map[domain.ProductSort]docstore.Sort{
	domain.SortNewest:    {Field: docstore.FieldCreatedAt, Desc: true},
	domain.SortOldest:    {Field: docstore.FieldCreatedAt},
	domain.SortPriceAsc:  {Field: "price"},
	domain.SortPriceDesc: {Field: "price", Desc: true},
	domain.SortRating:    {Field: "rating", Desc: true},
	domain.SortName:      {Field: "name"},
}

type ProductRepository struct {
	c collection[domain.Product]
}

func NewProductRepository(store docstore.Store) *ProductRepository {
	return &ProductRepository{c: collection[domain.Product]{store: store, name: domain.CollectionProducts}}
}

func (r *ProductRepository) Get(ctx context.Context, id string) (*domain.Product, error) {
	return r.c.get(ctx, id)
}

func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	return r.c.create(ctx, p.ID, p)
}

func (r *ProductRepository) Update(ctx context.Context, id string, fields map[string]any) (*domain.Product, error) {
	return r.c.update(ctx, id, fields)
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	return r.c.delete(ctx, id)
}

// SetStock overwrites a product's stock level.
func (r *ProductRepository) SetStock(ctx context.Context, id string, stock int) (*domain.Product, error) {
	return r.c.update(ctx, id, map[string]any{"stock": stock})
}

func productFilters(f domain.ProductFilter) []docstore.Filter {
	var filters []docstore.Filter
	if f.Category != "" {
		filters = append(filters, docstore.Where("category", docstore.Eq, f.Category))
	}
	if f.Brand != "" {
		filters = append(filters, docstore.Where("brand", docstore.Eq, f.Brand))
	}
	if f.Featured != nil {
		filters = append(filters, docstore.Where("featured", docstore.Eq, *f.Featured))
	}
	if f.MinPrice != nil {
		filters = append(filters, docstore.Where("price", docstore.Gte, *f.MinPrice))
	}
	if f.MaxPrice != nil {
		filters = append(filters, docstore.Where("price", docstore.Lte, *f.MaxPrice))
	}
	if f.MinRating != nil {
		filters = append(filters, docstore.Where("rating", docstore.Gte, *f.MinRating))
	}
	return filters
}

// List returns one page of matching products and the number of products
// matching the filter overall.
func (r *ProductRepository) List(ctx context.Context, f domain.ProductFilter, p pagination.Params) ([]domain.Product, int, error) {
	sort, ok := productSorts[f.Sort]
	if !ok {
		sort = productSorts[domain.SortNewest]
	}
	filters := productFilters(f)

	total, err := r.c.count(ctx, docstore.Query{Filters: filters})
	if err != nil {
		return nil, 0, err
	}
	items, err := r.c.query(ctx, docstore.Query{
		Filters: filters,
		Sort:    &sort,
		Limit:   p.Limit,
		Offset:  p.Offset,
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *ProductRepository) All(ctx context.Context) ([]domain.Product, error) {
	return r.c.query(ctx, docstore.Query{Sort: &docstore.Sort{Field: "name"}})
}

func (r *ProductRepository) Featured(ctx context.Context, limit int) ([]domain.Product, error) {
	return r.c.query(ctx, docstore.Query{
		Filters: []docstore.Filter{docstore.Where("featured", docstore.Eq, true)},
		Sort:    &docstore.Sort{Field: docstore.FieldCreatedAt, Desc: true},
		Limit:   limit,
	})
}

func (r *ProductRepository) TopRated(ctx context.Context, limit int) ([]domain.Product, error) {
	return r.c.query(ctx, docstore.Query{
		Sort:  &docstore.Sort{Field: "rating", Desc: true},
		Limit: limit,
	})
}

// LowStock returns products at or below level, lowest stock first.
func (r *ProductRepository) LowStock(ctx context.Context, level int) ([]domain.Product, error) {
	return r.c.query(ctx, docstore.Query{
		Filters: []docstore.Filter{docstore.Where("stock", docstore.Lte, level)},
		Sort:    &docstore.Sort{Field: "stock"},
	})
}

func (r *ProductRepository) Count(ctx context.Context) (int, error) {
	return r.c.count(ctx, docstore.Query{})
}

func (r *ProductRepository) CountByCategory(ctx context.Context, category string) (int, error) {
	return r.c.count(ctx, docstore.Query{
		Filters: []docstore.Filter{docstore.Where("category", docstore.Eq, category)},
	})
}

func (r *ProductRepository) CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error) {
	return r.c.createdBetween(ctx, from, to)
}
