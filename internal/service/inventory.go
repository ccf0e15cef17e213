package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/storefront/internal/docstore"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/internal/search"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

type InventoryService struct {
	store   docstore.Store
	repos   *repository.Set
	indexer indexer
	events  EventPublisher
	logger  *slog.Logger
}

func NewInventoryService(store docstore.Store, engine search.Engine, events EventPublisher, logger *slog.Logger) *InventoryService {
	return &InventoryService{
		store:   store,
		repos:   repository.New(store),
		indexer: indexer{engine: engine, logger: logger},
		events:  events,
		logger:  logger,
	}
}

// ListInventory reports every product's stock, by product name.
func (s *InventoryService) ListInventory(ctx context.Context) ([]domain.InventoryItem, error) {
	products, err := s.repos.Products.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	items := make([]domain.InventoryItem, 0, len(products))
	for _, p := range products {
		items = append(items, domain.NewInventoryItem(p))
	}
	return items, nil
}

func (s *InventoryService) SetStock(ctx context.Context, productID string, stock int) (*domain.InventoryItem, error) {
	if stock < 0 {
		return nil, apperrors.InvalidInput("stock must not be negative")
	}
	current, err := s.repos.Products.Get(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	updated, err := s.repos.Products.SetStock(ctx, productID, stock)
	if err != nil {
		return nil, fmt.Errorf("set stock: %w", err)
	}
	s.indexer.product(ctx, updated)

	item := domain.NewInventoryItem(*updated)
	if stockCrossed(current.Stock, updated.Stock) {
		s.events.LowStock(ctx, item)
	}
	s.logger.InfoContext(ctx, "stock set",
		slog.String("product_id", productID),
		slog.Int("stock", stock),
	)
	return &item, nil
}

// BulkAdjustStock adds delta to the stock of every listed product, flooring
// at zero. Either every product is adjusted or none is.
func (s *InventoryService) BulkAdjustStock(ctx context.Context, productIDs []string, delta int) ([]domain.InventoryItem, error) {
	if len(productIDs) == 0 {
		return nil, apperrors.InvalidInput("at least one product id is required")
	}

	var (
		items, crossed []domain.InventoryItem
		touched        []*domain.Product
	)
	err := s.store.RunInTransaction(ctx, func(ctx context.Context, tx docstore.Store) error {
		products := repository.NewProductRepository(tx)
		items, crossed, touched = items[:0], crossed[:0], touched[:0]
		for _, id := range productIDs {
			p, err := products.Get(ctx, id)
			if err != nil {
				return fmt.Errorf("get product %s: %w", id, err)
			}
			updated, err := products.SetStock(ctx, id, domain.AdjustStock(p.Stock, delta))
			if err != nil {
				return fmt.Errorf("set stock for %s: %w", id, err)
			}
			touched = append(touched, updated)
			item := domain.NewInventoryItem(*updated)
			items = append(items, item)
			if stockCrossed(p.Stock, updated.Stock) {
				crossed = append(crossed, item)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, p := range touched {
		s.indexer.product(ctx, p)
	}
	for _, item := range crossed {
		s.events.LowStock(ctx, item)
	}
	s.logger.InfoContext(ctx, "stock adjusted in bulk",
		slog.Int("products", len(items)),
		slog.Int("delta", delta),
	)
	return items, nil
}
