package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/utafrali/storefront/internal/docstore"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/internal/search"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

const (
	recentOrdersLimit = 5
	topProductsLimit  = 5
)

// Dashboard section names, as reported in DashboardAnalytics.Errors.
const (
	SectionTotalProducts = "total_products"
	SectionTotalOrders   = "total_orders"
	SectionTotalUsers    = "total_users"
	SectionTotalRevenue  = "total_revenue"
	SectionRecentOrders  = "recent_orders"
	SectionTopProducts   = "top_products"
	SectionMonthlySales  = "monthly_sales"
)

// AnalyticsService computes the admin dashboard and runs cross-collection
// search.
type AnalyticsService struct {
	repos  *repository.Set
	search search.Engine
	logger *slog.Logger
	now    func() time.Time
}

func NewAnalyticsService(store docstore.Store, engine search.Engine, logger *slog.Logger) *AnalyticsService {
	return &AnalyticsService{
		repos:  repository.New(store),
		search: engine,
		logger: logger,
		now:    time.Now,
	}
}

func sumRevenue(orders []domain.Order) decimal.Decimal {
	total := decimal.Zero
	for _, o := range orders {
		total = total.Add(o.TotalAmount)
	}
	return total
}

// ComputeDashboardAnalytics fetches every section concurrently. A section
// that fails is reported in Errors and left at its zero value; the call
// only fails when no section could be computed.
func (s *AnalyticsService) ComputeDashboardAnalytics(ctx context.Context) (*domain.DashboardAnalytics, error) {
	now := s.now().UTC()
	out := &domain.DashboardAnalytics{
		TotalRevenue: decimal.Zero,
		RecentOrders: []domain.Order{},
		TopProducts:  []domain.Product{},
		MonthlySales: domain.BuildMonthlySales(nil, now),
	}

	var (
		mu       sync.Mutex
		failures = map[string]string{}
		firstErr error
	)
	var g errgroup.Group
	sections := 0
	section := func(name string, fn func() error) {
		sections++
		g.Go(func() error {
			if err := fn(); err != nil {
				s.logger.ErrorContext(ctx, "dashboard section failed",
					slog.String("section", name),
					slog.String("error", err.Error()),
				)
				mu.Lock()
				failures[name] = err.Error()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
			return nil
		})
	}

	section(SectionTotalProducts, func() (err error) {
		out.TotalProducts, err = s.repos.Products.Count(ctx)
		return err
	})
	section(SectionTotalOrders, func() (err error) {
		out.TotalOrders, err = s.repos.Orders.Count(ctx)
		return err
	})
	section(SectionTotalUsers, func() (err error) {
		out.TotalUsers, err = s.repos.Users.Count(ctx)
		return err
	})
	section(SectionTotalRevenue, func() error {
		orders, err := s.repos.Orders.All(ctx)
		if err != nil {
			return err
		}
		out.TotalRevenue = sumRevenue(orders)
		return nil
	})
	section(SectionRecentOrders, func() error {
		orders, err := s.repos.Orders.Recent(ctx, recentOrdersLimit)
		if err != nil {
			return err
		}
		out.RecentOrders = orders
		return nil
	})
	section(SectionTopProducts, func() error {
		products, err := s.repos.Products.TopRated(ctx, topProductsLimit)
		if err != nil {
			return err
		}
		out.TopProducts = products
		return nil
	})
	section(SectionMonthlySales, func() error {
		from := domain.MonthStart(now).AddDate(0, -(domain.MonthsOfSales - 1), 0)
		orders, err := s.repos.Orders.CreatedSince(ctx, from)
		if err != nil {
			return err
		}
		out.MonthlySales = domain.BuildMonthlySales(orders, now)
		return nil
	})

	_ = g.Wait()

	if len(failures) == sections {
		return nil, fmt.Errorf("compute dashboard analytics: every section failed: %w", firstErr)
	}
	if len(failures) > 0 {
		out.Errors = failures
	}
	return out, nil
}

// ComputeDashboardStats compares this calendar month with the previous one.
func (s *AnalyticsService) ComputeDashboardStats(ctx context.Context) (*domain.DashboardStats, error) {
	prev, cur, next := domain.MonthWindows(s.now().UTC())

	var (
		userTotal, userCur, userPrev          int
		productTotal, productCur, productPrev int
		orderTotal                            int
		allOrders, curOrders, prevOrders      []domain.Order
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { userTotal, err = s.repos.Users.Count(ctx); return })
	g.Go(func() (err error) { userCur, err = s.repos.Users.CountCreatedBetween(ctx, cur, next); return })
	g.Go(func() (err error) { userPrev, err = s.repos.Users.CountCreatedBetween(ctx, prev, cur); return })
	g.Go(func() (err error) { productTotal, err = s.repos.Products.Count(ctx); return })
	g.Go(func() (err error) { productCur, err = s.repos.Products.CountCreatedBetween(ctx, cur, next); return })
	g.Go(func() (err error) { productPrev, err = s.repos.Products.CountCreatedBetween(ctx, prev, cur); return })
	g.Go(func() (err error) { orderTotal, err = s.repos.Orders.Count(ctx); return })
	g.Go(func() (err error) { allOrders, err = s.repos.Orders.All(ctx); return })
	g.Go(func() (err error) { curOrders, err = s.repos.Orders.CreatedBetween(ctx, cur, next); return })
	g.Go(func() (err error) { prevOrders, err = s.repos.Orders.CreatedBetween(ctx, prev, cur); return })
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("compute dashboard stats: %w", err)
	}

	return &domain.DashboardStats{
		Users:    domain.NewMetric(float64(userTotal), float64(userCur), float64(userPrev)),
		Products: domain.NewMetric(float64(productTotal), float64(productCur), float64(productPrev)),
		Orders:   domain.NewMetric(float64(orderTotal), float64(len(curOrders)), float64(len(prevOrders))),
		Revenue: domain.NewMetric(
			sumRevenue(allOrders).InexactFloat64(),
			sumRevenue(curOrders).InexactFloat64(),
			sumRevenue(prevOrders).InexactFloat64(),
		),
	}, nil
}

// GetLowStockProducts lists products at or below the reorder level, lowest
// stock first.
func (s *AnalyticsService) GetLowStockProducts(ctx context.Context) ([]domain.InventoryItem, error) {
	products, err := s.repos.Products.LowStock(ctx, domain.ReorderLevel)
	if err != nil {
		return nil, fmt.Errorf("list low stock products: %w", err)
	}
	items := make([]domain.InventoryItem, 0, len(products))
	for _, p := range products {
		items = append(items, domain.NewInventoryItem(p))
	}
	return items, nil
}

// SearchHit is one matching document, flattened with its id and timestamps.
type SearchHit map[string]any

func flatten(doc docstore.Document) SearchHit {
	hit := make(SearchHit, len(doc.Data)+3)
	for k, v := range doc.Data {
		hit[k] = v
	}
	hit[docstore.FieldID] = doc.ID
	hit[docstore.FieldCreatedAt] = doc.CreatedAt
	hit[docstore.FieldUpdatedAt] = doc.UpdatedAt
	return hit
}

// GlobalSearch matches term against every document of the named
// collections. No collections means all of them.
func (s *AnalyticsService) GlobalSearch(ctx context.Context, term string, collections []string) (map[string][]SearchHit, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, apperrors.InvalidInput("search term is required")
	}
	if len(collections) == 0 {
		collections = domain.Collections
	}
	for _, c := range collections {
		if !domain.IsCollection(c) {
			return nil, apperrors.InvalidInput(fmt.Sprintf("unknown collection %q", c))
		}
	}

	results := make([][]docstore.Document, len(collections))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range collections {
		g.Go(func() error {
			docs, err := s.search.Search(gctx, c, term, search.AllFields)
			if err != nil {
				return fmt.Errorf("search %s: %w", c, err)
			}
			results[i] = docs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string][]SearchHit, len(collections))
	for i, c := range collections {
		hits := make([]SearchHit, 0, len(results[i]))
		for _, d := range results[i] {
			hits = append(hits, flatten(d))
		}
		out[c] = hits
	}
	return out, nil
}
