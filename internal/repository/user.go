package repository

import (
	"context"
	"time"

	"github.com/utafrali/storefront/internal/docstore"
	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/pagination"
)

type UserRepository struct {
	c collection[domain.User]
}

func NewUserRepository(store docstore.Store) *UserRepository {
	return &UserRepository{c: collection[domain.User]{store: store, name: domain.CollectionUsers}}
}

func (r *UserRepository) Get(ctx context.Context, uid string) (*domain.User, error) {
	return r.c.get(ctx, uid)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	items, err := r.c.query(ctx, docstore.Query{
		Filters: []docstore.Filter{docstore.Where("email", docstore.Eq, email)},
		Limit:   1,
	})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, apperrors.NotFound("user", email)
	}
	return &items[0], nil
}

// Create stores a user under its identity uid.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	return r.c.create(ctx, u.ID, u)
}

func (r *UserRepository) Update(ctx context.Context, uid string, fields map[string]any) (*domain.User, error) {
	return r.c.update(ctx, uid, fields)
}

func (r *UserRepository) List(ctx context.Context, f domain.UserFilter, p pagination.Params) ([]domain.User, int, error) {
	var filters []docstore.Filter
	if f.Role != "" {
		filters = append(filters, docstore.Where("role", docstore.Eq, f.Role))
	}
	if f.IsActive != nil {
		filters = append(filters, docstore.Where("is_active", docstore.Eq, *f.IsActive))
	}

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

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	return r.c.count(ctx, docstore.Query{})
}

func (r *UserRepository) CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error) {
	return r.c.createdBetween(ctx, from, to)
}
