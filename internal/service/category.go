package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/utafrali/storefront/internal/docstore"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/internal/search"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/slug"
)

type CategoryService struct {
	repos   *repository.Set
	indexer indexer
	logger  *slog.Logger
}

func NewCategoryService(store docstore.Store, engine search.Engine, logger *slog.Logger) *CategoryService {
	return &CategoryService{
		repos:   repository.New(store),
		indexer: indexer{engine: engine, logger: logger},
		logger:  logger,
	}
}

func (s *CategoryService) ListCategories(ctx context.Context, activeOnly bool) ([]domain.Category, error) {
	categories, err := s.repos.Categories.List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (s *CategoryService) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	c, err := s.repos.Categories.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

type CategoryInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
	Image       string `json:"image"`
	IsActive    *bool  `json:"is_active"`
}

// CategoryPatch changes display fields only. The slug is fixed at creation
// because products reference categories by slug.
type CategoryPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Image       *string `json:"image"`
	IsActive    *bool   `json:"is_active"`
}

func (s *CategoryService) CreateCategory(ctx context.Context, in CategoryInput) (*domain.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.InvalidInput("category name is required")
	}
	sl := slug.Generate(name)
	if sl == "" {
		return nil, apperrors.InvalidInput("category name must contain letters or digits")
	}

	_, err := s.repos.Categories.GetBySlug(ctx, sl)
	if err == nil {
		return nil, apperrors.AlreadyExists("category", "slug", sl)
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("check category slug: %w", err)
	}

	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	created, err := s.repos.Categories.Create(ctx, &domain.Category{
		ID:          uuid.NewString(),
		Name:        name,
		Slug:        sl,
		Description: in.Description,
		Image:       in.Image,
		IsActive:    active,
	})
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	s.indexer.category(ctx, created)
	s.logger.InfoContext(ctx, "category created",
		slog.String("category_id", created.ID),
		slog.String("slug", created.Slug),
	)
	return created, nil
}

func (s *CategoryService) UpdateCategory(ctx context.Context, id string, patch CategoryPatch) (*domain.Category, error) {
	fields := map[string]any{}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apperrors.InvalidInput("category name is required")
		}
		fields["name"] = name
	}
	if patch.Description != nil {
		fields["description"] = *patch.Description
	}
	if patch.Image != nil {
		fields["image"] = *patch.Image
	}
	if patch.IsActive != nil {
		fields["is_active"] = *patch.IsActive
	}
	if len(fields) == 0 {
		return s.GetCategory(ctx, id)
	}

	c, err := s.repos.Categories.Update(ctx, id, fields)
	if err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	s.indexer.category(ctx, c)
	return c, nil
}

func (s *CategoryService) DeleteCategory(ctx context.Context, id string) error {
	if err := s.repos.Categories.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	s.indexer.remove(ctx, domain.CollectionCategories, id)
	s.logger.InfoContext(ctx, "category deleted", slog.String("category_id", id))
	return nil
}

// RecalculateProductCounts recounts the products filed under each category
// and stores the counts. Counts are never maintained implicitly.
func (s *CategoryService) RecalculateProductCounts(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.repos.Categories.List(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	out := make([]domain.Category, 0, len(categories))
	for _, c := range categories {
		n, err := s.repos.Products.CountByCategory(ctx, c.Slug)
		if err != nil {
			return nil, fmt.Errorf("count products in %s: %w", c.Slug, err)
		}
		if n == c.ProductCount {
			out = append(out, c)
			continue
		}
		updated, err := s.repos.Categories.Update(ctx, c.ID, map[string]any{"product_count": n})
		if err != nil {
			return nil, fmt.Errorf("update category %s: %w", c.Slug, err)
		}
		s.indexer.category(ctx, updated)
		out = append(out, *updated)
	}
	s.logger.InfoContext(ctx, "category product counts recalculated", slog.Int("categories", len(out)))
	return out, nil
}
