package main

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
	"github.com/utafrali/storefront/internal/event"
	"github.com/utafrali/storefront/internal/identity/local"
	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/internal/search"
	"github.com/utafrali/storefront/internal/service"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

type categoryDef struct {
	name        string
	description string
}

type productDef struct {
	name        string
	category    string // category name, resolved to its slug
	brand       string
	price       string
	stock       int
	rating      float64
	featured    bool
	color       string
	size        string
	description string
	tags        []string
}

var categories = []categoryDef{
	{name: "Electronics", description: "Phones, laptops and accessories"},
	{name: "Clothing", description: "Everyday wear"},
	{name: "Home and Kitchen", description: "Cookware and home essentials"},
	{name: "Books", description: "Fiction and non-fiction"},
	{name: "Sports", description: "Gear for training and the outdoors"},
}

var products = []productDef{
	{name: "iPhone 15 Pro", category: "Electronics", brand: "Apple", price: "999.00", stock: 25, rating: 4.8, featured: true, color: "Natural Titanium", description: "Titanium design with the A17 Pro chip.", tags: []string{"smartphone", "ios"}},
	{name: "Galaxy S24", category: "Electronics", brand: "Samsung", price: "799.99", stock: 40, rating: 4.6, featured: true, color: "Onyx Black", description: "Flagship Android phone.", tags: []string{"smartphone", "android"}},
	{name: "MacBook Air 13", category: "Electronics", brand: "Apple", price: "1099.00", stock: 8, rating: 4.7, description: "Thin and light laptop with the M3 chip.", tags: []string{"laptop"}},
	{name: "Noise Cancelling Headphones", category: "Electronics", brand: "Sony", price: "349.99", stock: 60, rating: 4.5, featured: true, color: "Black", tags: []string{"audio"}},
	{name: "Classic Denim Jacket", category: "Clothing", brand: "Levi's", price: "89.50", stock: 30, rating: 4.3, color: "Blue", size: "M", tags: []string{"jacket"}},
	{name: "Merino Crew Sweater", category: "Clothing", brand: "Uniqlo", price: "49.90", stock: 5, rating: 4.4, color: "Grey", size: "L"},
	{name: "Running Shoes", category: "Sports", brand: "Nike", price: "129.99", stock: 45, rating: 4.6, featured: true, color: "White", size: "42", tags: []string{"running"}},
	{name: "Yoga Mat", category: "Sports", brand: "Manduka", price: "79.00", stock: 0, rating: 4.9, color: "Purple"},
	{name: "Cast Iron Skillet", category: "Home and Kitchen", brand: "Lodge", price: "34.95", stock: 70, rating: 4.8, tags: []string{"cookware"}},
	{name: "Pour Over Coffee Set", category: "Home and Kitchen", brand: "Hario", price: "42.00", stock: 9, rating: 4.5},
	{name: "The Pragmatic Programmer", category: "Books", brand: "Addison-Wesley", price: "44.99", stock: 100, rating: 4.9, featured: true, tags: []string{"software"}},
	{name: "Dune", category: "Books", brand: "Ace", price: "10.99", stock: 150, rating: 4.7, tags: []string{"science fiction"}},
}

type adminAccount struct {
	Email    string
	Name     string
	Password string
	// BcryptCost is used when Password creates a local sign-in account.
	BcryptCost int
}

type summary struct {
	Categories int
	Products   int
	AdminID    string
}

type seeder struct {
	store      docstore.Store
	catalog    *service.CatalogService
	categories *service.CategoryService
	settings   *service.SettingsService
	repos      *repository.Set
	logger     *slog.Logger
}

func newSeeder(store docstore.Store, logger *slog.Logger) *seeder {
	engine := search.NewScanEngine(store)
	return &seeder{
		store:      store,
		catalog:    service.NewCatalogService(store, engine, event.Nop{}, logger),
		categories: service.NewCategoryService(store, engine, logger),
		settings:   service.NewSettingsService(store, logger),
		repos:      repository.New(store),
		logger:     logger,
	}
}

// seed is safe to run twice: existing categories, products and the admin
// user are left alone.
func (s *seeder) seed(ctx context.Context, admin adminAccount) (summary, error) {
	var out summary

	slugs, created, err := s.seedCategories(ctx)
	if err != nil {
		return out, err
	}
	out.Categories = created

	if out.Products, err = s.seedProducts(ctx, slugs); err != nil {
		return out, err
	}

	if _, err := s.settings.GetSettings(ctx); err != nil {
		return out, fmt.Errorf("seed settings: %w", err)
	}

	if out.AdminID, err = s.seedAdmin(ctx, admin); err != nil {
		return out, err
	}

	if _, err := s.categories.RecalculateProductCounts(ctx); err != nil {
		return out, fmt.Errorf("recalculate category counts: %w", err)
	}
	return out, nil
}

// seedCategories returns the slug of every seed category by name.
func (s *seeder) seedCategories(ctx context.Context) (map[string]string, int, error) {
	existing, err := s.categories.ListCategories(ctx, false)
	if err != nil {
		return nil, 0, fmt.Errorf("list categories: %w", err)
	}
	slugs := make(map[string]string, len(categories))
	for _, c := range existing {
		slugs[c.Name] = c.Slug
	}

	created := 0
	for _, def := range categories {
		if _, ok := slugs[def.name]; ok {
			continue
		}
		c, err := s.categories.CreateCategory(ctx, service.CategoryInput{Name: def.name, Description: def.description})
		if err != nil {
			return nil, 0, fmt.Errorf("create category %q: %w", def.name, err)
		}
		slugs[def.name] = c.Slug
		created++
	}
	return slugs, created, nil
}

func (s *seeder) seedProducts(ctx context.Context, slugs map[string]string) (int, error) {
	n, err := s.repos.Products.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	if n > 0 {
		s.logger.Info("products already present, skipping", slog.Int("count", n))
		return 0, nil
	}

	for _, def := range products {
		_, err := s.catalog.CreateProduct(ctx, service.ProductInput{
			Name:        def.name,
			Description: def.description,
			Price:       decimal.RequireFromString(def.price),
			Category:    slugs[def.category],
			Brand:       def.brand,
			Color:       def.color,
			Size:        def.size,
			Stock:       def.stock,
			Rating:      def.rating,
			Featured:    def.featured,
			Tags:        def.tags,
		})
		if err != nil {
			return 0, fmt.Errorf("create product %q: %w", def.name, err)
		}
	}
	return len(products), nil
}

// seedAdmin makes sure a user with the admin role exists for the address.
// With a password it also creates a local sign-in account and reuses its
// uid.
func (s *seeder) seedAdmin(ctx context.Context, admin adminAccount) (string, error) {
	email := strings.ToLower(strings.TrimSpace(admin.Email))
	existing, err := s.repos.Users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role != domain.RoleAdmin {
			if _, err := s.repos.Users.Update(ctx, existing.ID, map[string]any{"role": string(domain.RoleAdmin)}); err != nil {
				return "", fmt.Errorf("promote admin: %w", err)
			}
			s.logger.Info("existing user promoted to admin", slog.String("user_id", existing.ID))
		}
		return existing.ID, nil
	case !errors.Is(err, apperrors.ErrNotFound):
		return "", fmt.Errorf("find admin: %w", err)
	}

	name := admin.Name
	if name == "" {
		name = "Store Admin"
	}
	uid := uuid.NewString()
	if admin.Password != "" {
		acct, err := local.New(s.store, admin.BcryptCost).SignUp(ctx, email, admin.Password, name)
		if err != nil {
			return "", fmt.Errorf("create admin account: %w", err)
		}
		uid = acct.UID
	}

	u, err := s.repos.Users.Create(ctx, &domain.User{
		ID:          uid,
		DisplayName: name,
		Email:       email,
		Role:        domain.RoleAdmin,
		IsActive:    true,
		TotalSpent:  decimal.Zero,
	})
	if err != nil {
		return "", fmt.Errorf("create admin user: %w", err)
	}
	return u.ID, nil
}
