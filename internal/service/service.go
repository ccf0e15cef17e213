// Package service holds the storefront's business operations. Services read
// and write through repositories built on a docstore handle; anything that
// must commit together runs in one store transaction.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/utafrali/storefront/internal/docstore"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/search"
)

// EventPublisher emits domain events. Implementations must not block the
// caller on broker failures.
type EventPublisher interface {
	OrderPlaced(ctx context.Context, o *domain.Order)
	OrderStatusChanged(ctx context.Context, orderID string, from, to domain.OrderStatus)
	LowStock(ctx context.Context, item domain.InventoryItem)
	ProductCreated(ctx context.Context, p *domain.Product)
	ProductUpdated(ctx context.Context, p *domain.Product)
	ProductDeleted(ctx context.Context, productID string)
}

// CartStore persists one cart per user.
type CartStore interface {
	Get(ctx context.Context, userID string) (domain.Cart, error)
	Save(ctx context.Context, cart domain.Cart) error
	Delete(ctx context.Context, userID string) error
}

type WishlistStore interface {
	Add(ctx context.Context, userID, productID string) error
	Remove(ctx context.Context, userID, productID string) error
	Clear(ctx context.Context, userID string) error
	ProductIDs(ctx context.Context, userID string) ([]string, error)
}

// SessionStore maps session token ids to identity provider tokens and
// tracks revoked token ids.
type SessionStore interface {
	Save(ctx context.Context, tokenID, providerToken string, ttl time.Duration) error
	ProviderToken(ctx context.Context, tokenID string) (string, error)
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
}

// document rebuilds the stored form of an entity for search indexing.
func document(id string, v any, createdAt, updatedAt time.Time) (docstore.Document, error) {
	data, err := docstore.Encode(v)
	if err != nil {
		return docstore.Document{}, err
	}
	return docstore.Document{ID: id, Data: data, CreatedAt: createdAt, UpdatedAt: updatedAt}, nil
}

// indexer pushes committed writes to the search engine. The store stays the
// source of truth, so failures are logged only.
type indexer struct {
	engine search.Engine
	logger *slog.Logger
}

func (ix indexer) product(ctx context.Context, p *domain.Product) {
	ix.put(ctx, domain.CollectionProducts, p.ID, p, p.CreatedAt, p.UpdatedAt)
}

func (ix indexer) category(ctx context.Context, c *domain.Category) {
	ix.put(ctx, domain.CollectionCategories, c.ID, c, c.CreatedAt, c.UpdatedAt)
}

func (ix indexer) put(ctx context.Context, collection, id string, v any, createdAt, updatedAt time.Time) {
	doc, err := document(id, v, createdAt, updatedAt)
	if err == nil {
		err = ix.engine.Index(ctx, collection, doc)
	}
	if err != nil {
		ix.logger.ErrorContext(ctx, "failed to index document",
			slog.String("collection", collection),
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
	}
}

func (ix indexer) remove(ctx context.Context, collection, id string) {
	if err := ix.engine.Remove(ctx, collection, id); err != nil {
		ix.logger.ErrorContext(ctx, "failed to remove document from search index",
			slog.String("collection", collection),
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
	}
}

// stockCrossed reports whether a stock change moved a product into a worse
// stock status.
func stockCrossed(before, after int) bool {
	return after < before && after <= domain.ReorderLevel &&
		domain.StockStatusFor(before) != domain.StockStatusFor(after)
}
