package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/docstore"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/internal/search"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/pagination"
)

const defaultFeaturedLimit = 8

// CatalogService serves product browsing and admin product maintenance.
type CatalogService struct {
	repos   *repository.Set
	search  search.Engine
	indexer indexer
	events  EventPublisher
	logger  *slog.Logger
}

func NewCatalogService(store docstore.Store, engine search.Engine, events EventPublisher, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		repos:   repository.New(store),
		search:  engine,
		indexer: indexer{engine: engine, logger: logger},
		events:  events,
		logger:  logger,
	}
}

// ListProducts returns one page of products matching filter. The total in
// the pagination info counts every match, not the page.
func (s *CatalogService) ListProducts(ctx context.Context, filter domain.ProductFilter, p pagination.Params) (pagination.Result[domain.Product], error) {
	if filter.Sort != "" && !filter.Sort.Valid() {
		return pagination.Result[domain.Product]{}, apperrors.InvalidInput(fmt.Sprintf("unknown sort %q", filter.Sort))
	}
	items, total, err := s.repos.Products.List(ctx, filter, p)
	if err != nil {
		return pagination.Result[domain.Product]{}, fmt.Errorf("list products: %w", err)
	}
	return pagination.NewResult(items, total, p), nil
}

// SearchProducts returns every product whose name, description, category or
// brand contains term, ignoring case.
func (s *CatalogService) SearchProducts(ctx context.Context, term string) ([]domain.Product, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []domain.Product{}, nil
	}
	docs, err := s.search.Search(ctx, domain.CollectionProducts, term, search.CatalogFields)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	products := make([]domain.Product, 0, len(docs))
	for _, d := range docs {
		var p domain.Product
		if err := docstore.Decode(d, &p); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	p, err := s.repos.Products.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (s *CatalogService) ListFeaturedProducts(ctx context.Context, limit int) ([]domain.Product, error) {
	if limit <= 0 || limit > pagination.MaxLimit {
		limit = defaultFeaturedLimit
	}
	products, err := s.repos.Products.Featured(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list featured products: %w", err)
	}
	return products, nil
}

// ProductInput is a new product as submitted by an admin.
type ProductInput struct {
	Name           string                 `json:"name" validate:"required,max=200"`
	Description    string                 `json:"description"`
	Price          decimal.Decimal        `json:"price" validate:"money"`
	Category       string                 `json:"category"`
	Brand          string                 `json:"brand"`
	Color          string                 `json:"color"`
	Size           string                 `json:"size"`
	Stock          int                    `json:"stock" validate:"gte=0"`
	Image          string                 `json:"image"`
	Images         []string               `json:"images"`
	Rating         float64                `json:"rating" validate:"gte=0,lte=5"`
	Featured       bool                   `json:"featured"`
	Tags           []string               `json:"tags"`
	Specifications []domain.Specification `json:"specifications"`
}

// ProductPatch holds the fields to change; nil fields are left alone.
type ProductPatch struct {
	Name           *string                 `json:"name"`
	Description    *string                 `json:"description"`
	Price          *decimal.Decimal        `json:"price" validate:"omitempty,money"`
	Category       *string                 `json:"category"`
	Brand          *string                 `json:"brand"`
	Color          *string                 `json:"color"`
	Size           *string                 `json:"size"`
	Stock          *int                    `json:"stock" validate:"omitempty,gte=0"`
	Image          *string                 `json:"image"`
	Images         *[]string               `json:"images"`
	Rating         *float64                `json:"rating" validate:"omitempty,gte=0,lte=5"`
	Featured       *bool                   `json:"featured"`
	Tags           *[]string               `json:"tags"`
	Specifications *[]domain.Specification `json:"specifications"`
}

// apply copies the set fields onto p and names them in document form.
func (patch ProductPatch) apply(p *domain.Product) []string {
	var fields []string
	set := func(name string, ok bool, assign func()) {
		if ok {
			assign()
			fields = append(fields, name)
		}
	}
	set("name", patch.Name != nil, func() { p.Name = *patch.Name })
	set("description", patch.Description != nil, func() { p.Description = *patch.Description })
	set("price", patch.Price != nil, func() { p.Price = domain.Money(*patch.Price) })
	set("category", patch.Category != nil, func() { p.Category = *patch.Category })
	set("brand", patch.Brand != nil, func() { p.Brand = *patch.Brand })
	set("color", patch.Color != nil, func() { p.Color = *patch.Color })
	set("size", patch.Size != nil, func() { p.Size = *patch.Size })
	set("stock", patch.Stock != nil, func() { p.Stock = *patch.Stock })
	set("image", patch.Image != nil, func() { p.Image = *patch.Image })
	set("images", patch.Images != nil, func() { p.Images = *patch.Images })
	set("rating", patch.Rating != nil, func() { p.Rating = *patch.Rating })
	set("featured", patch.Featured != nil, func() { p.Featured = *patch.Featured })
	set("tags", patch.Tags != nil, func() { p.Tags = *patch.Tags })
	set("specifications", patch.Specifications != nil, func() { p.Specifications = *patch.Specifications })
	return fields
}

// checkCategory requires a non-empty category to name an existing category
// slug.
func (s *CatalogService) checkCategory(ctx context.Context, slug string) error {
	if slug == "" {
		return nil
	}
	_, err := s.repos.Categories.GetBySlug(ctx, slug)
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.InvalidInput(fmt.Sprintf("category %q does not exist", slug))
	}
	return err
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*domain.Product, error) {
	p := &domain.Product{
		ID:             uuid.NewString(),
		Name:           strings.TrimSpace(in.Name),
		Description:    in.Description,
		Price:          domain.Money(in.Price),
		Category:       in.Category,
		Brand:          in.Brand,
		Color:          in.Color,
		Size:           in.Size,
		Stock:          in.Stock,
		Image:          in.Image,
		Images:         in.Images,
		Rating:         in.Rating,
		Featured:       in.Featured,
		Tags:           in.Tags,
		Specifications: in.Specifications,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, p.Category); err != nil {
		return nil, err
	}

	created, err := s.repos.Products.Create(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	s.indexer.product(ctx, created)
	s.events.ProductCreated(ctx, created)

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", created.ID),
		slog.String("name", created.Name),
	)
	return created, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id string, patch ProductPatch) (*domain.Product, error) {
	current, err := s.repos.Products.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	next := *current
	fields := patch.apply(&next)
	if len(fields) == 0 {
		return current, nil
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}
	if patch.Category != nil && next.Category != current.Category {
		if err := s.checkCategory(ctx, next.Category); err != nil {
			return nil, err
		}
	}

	update, err := repository.Patch(&next, fields...)
	if err != nil {
		return nil, err
	}
	updated, err := s.repos.Products.Update(ctx, id, update)
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	s.indexer.product(ctx, updated)
	s.events.ProductUpdated(ctx, updated)
	if patch.Stock != nil && stockCrossed(current.Stock, updated.Stock) {
		s.events.LowStock(ctx, domain.NewInventoryItem(*updated))
	}

	s.logger.InfoContext(ctx, "product updated",
		slog.String("product_id", id),
		slog.String("fields", strings.Join(fields, ",")),
	)
	return updated, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.repos.Products.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	s.indexer.remove(ctx, domain.CollectionProducts, id)
	s.events.ProductDeleted(ctx, id)

	s.logger.InfoContext(ctx, "product deleted", slog.String("product_id", id))
	return nil
}
