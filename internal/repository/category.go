package repository

import (
	"context"

	"github.com/utafrali/storefront/internal/docstore"
	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

type CategoryRepository struct {
	c collection[domain.Category]
}

func NewCategoryRepository(store docstore.Store) *CategoryRepository {
	return &CategoryRepository{c: collection[domain.Category]{store: store, name: domain.CollectionCategories}}
}

func (r *CategoryRepository) Get(ctx context.Context, id string) (*domain.Category, error) {
	return r.c.get(ctx, id)
}

func (r *CategoryRepository) GetBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	items, err := r.c.query(ctx, docstore.Query{
		Filters: []docstore.Filter{docstore.Where("slug", docstore.Eq, slug)},
		Limit:   1,
	})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, apperrors.NotFound("category", slug)
	}
	return &items[0], nil
}

// List returns categories by name; activeOnly hides disabled ones.
func (r *CategoryRepository) List(ctx context.Context, activeOnly bool) ([]domain.Category, error) {
	q := docstore.Query{Sort: &docstore.Sort{Field: "name"}}
	if activeOnly {
		q.Filters = []docstore.Filter{docstore.Where("is_active", docstore.Eq, true)}
	}
	return r.c.query(ctx, q)
}

func (r *CategoryRepository) Create(ctx context.Context, c *domain.Category) (*domain.Category, error) {
	return r.c.create(ctx, c.ID, c)
}

func (r *CategoryRepository) Update(ctx context.Context, id string, fields map[string]any) (*domain.Category, error) {
	return r.c.update(ctx, id, fields)
}

func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	return r.c.delete(ctx, id)
}
