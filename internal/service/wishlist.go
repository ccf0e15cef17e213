package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/utafrali/storefront/internal/docstore"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

type WishlistService struct {
	products  *repository.ProductRepository
	wishlists WishlistStore
	logger    *slog.Logger
}

func NewWishlistService(store docstore.Store, wishlists WishlistStore, logger *slog.Logger) *WishlistService {
	return &WishlistService{
		products:  repository.NewProductRepository(store),
		wishlists: wishlists,
		logger:    logger,
	}
}

func (s *WishlistService) wishlist(ctx context.Context, userID string) (domain.Wishlist, error) {
	ids, err := s.wishlists.ProductIDs(ctx, userID)
	if err != nil {
		return domain.Wishlist{}, fmt.Errorf("get wishlist: %w", err)
	}
	return domain.Wishlist{UserID: userID, ProductIDs: ids}, nil
}

// Add saves a product to the wishlist. Adding it again changes nothing.
func (s *WishlistService) Add(ctx context.Context, userID, productID string) (domain.Wishlist, error) {
	if _, err := s.products.Get(ctx, productID); err != nil {
		return domain.Wishlist{}, fmt.Errorf("get product: %w", err)
	}
	w, err := s.wishlist(ctx, userID)
	if err != nil {
		return domain.Wishlist{}, err
	}
	if w.Contains(productID) {
		return w, nil
	}
	if err := s.wishlists.Add(ctx, userID, productID); err != nil {
		return domain.Wishlist{}, fmt.Errorf("add to wishlist: %w", err)
	}
	return w.Add(productID), nil
}

func (s *WishlistService) Remove(ctx context.Context, userID, productID string) (domain.Wishlist, error) {
	w, err := s.wishlist(ctx, userID)
	if err != nil {
		return domain.Wishlist{}, err
	}
	if !w.Contains(productID) {
		return w, nil
	}
	if err := s.wishlists.Remove(ctx, userID, productID); err != nil {
		return domain.Wishlist{}, fmt.Errorf("remove from wishlist: %w", err)
	}
	return w.Remove(productID), nil
}

func (s *WishlistService) Clear(ctx context.Context, userID string) (domain.Wishlist, error) {
	if err := s.wishlists.Clear(ctx, userID); err != nil {
		return domain.Wishlist{}, fmt.Errorf("clear wishlist: %w", err)
	}
	return domain.Wishlist{UserID: userID}.Clear(), nil
}

// List resolves the wishlist to products, oldest addition first. Products
// deleted since they were saved are skipped.
func (s *WishlistService) List(ctx context.Context, userID string) ([]domain.Product, error) {
	w, err := s.wishlist(ctx, userID)
	if err != nil {
		return nil, err
	}
	products := make([]domain.Product, 0, len(w.ProductIDs))
	for _, id := range w.ProductIDs {
		p, err := s.products.Get(ctx, id)
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.DebugContext(ctx, "skipping deleted wishlist product", slog.String("product_id", id))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get product %s: %w", id, err)
		}
		products = append(products, *p)
	}
	return products, nil
}
