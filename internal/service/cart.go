package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/utafrali/storefront/internal/docstore"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/internal/search"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// CartService runs the cart and checkout flow. Carts live in the cart store;
// placing an order commits to the document store in one transaction.
type CartService struct {
	store   docstore.Store
	repos   *repository.Set
	carts   CartStore
	indexer indexer
	events  EventPublisher
	logger  *slog.Logger
}

func NewCartService(store docstore.Store, engine search.Engine, carts CartStore, events EventPublisher, logger *slog.Logger) *CartService {
	return &CartService{
		store:   store,
		repos:   repository.New(store),
		carts:   carts,
		indexer: indexer{engine: engine, logger: logger},
		events:  events,
		logger:  logger,
	}
}

func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return &c, nil
}

// mutate loads the cart, applies fn and saves the result. A rejected
// mutation saves nothing.
func (s *CartService) mutate(ctx context.Context, userID string, fn func(domain.Cart) (domain.Cart, error)) (*domain.Cart, error) {
	current, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	next, err := fn(current)
	if err != nil {
		return nil, err
	}
	if err := s.carts.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return &next, nil
}

type AddItemInput struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

// AddItem snapshots the product's current name, price and image into the
// cart line.
func (s *CartService) AddItem(ctx context.Context, userID string, in AddItemInput) (*domain.Cart, error) {
	p, err := s.repos.Products.Get(ctx, in.ProductID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return s.mutate(ctx, userID, func(c domain.Cart) (domain.Cart, error) {
		return c.AddItem(*p, in.Quantity, in.Size, in.Color)
	})
}

func (s *CartService) RemoveItem(ctx context.Context, userID, lineID string) (*domain.Cart, error) {
	return s.mutate(ctx, userID, func(c domain.Cart) (domain.Cart, error) {
		return c.RemoveItem(lineID)
	})
}

func (s *CartService) UpdateQuantity(ctx context.Context, userID, lineID string, qty int) (*domain.Cart, error) {
	return s.mutate(ctx, userID, func(c domain.Cart) (domain.Cart, error) {
		var p domain.Product
		if item, ok := c.Item(lineID); ok && qty >= 1 {
			got, err := s.repos.Products.Get(ctx, item.ProductID)
			if err != nil {
				return c, fmt.Errorf("get product: %w", err)
			}
			p = *got
		}
		return c.UpdateQuantity(lineID, qty, p)
	})
}

func (s *CartService) ClearCart(ctx context.Context, userID string) (*domain.Cart, error) {
	return s.mutate(ctx, userID, func(c domain.Cart) (domain.Cart, error) {
		return c.Clear(), nil
	})
}

func (s *CartService) SetShippingOption(ctx context.Context, userID string, o domain.ShippingOption) (*domain.Cart, error) {
	return s.mutate(ctx, userID, func(c domain.Cart) (domain.Cart, error) {
		return c.SetShippingOption(o)
	})
}

func (s *CartService) ApplyDiscount(ctx context.Context, userID, code string) (*domain.Cart, error) {
	return s.mutate(ctx, userID, func(c domain.Cart) (domain.Cart, error) {
		return c.ApplyDiscount(code)
	})
}

func (s *CartService) RemoveDiscount(ctx context.Context, userID string) (*domain.Cart, error) {
	return s.mutate(ctx, userID, func(c domain.Cart) (domain.Cart, error) {
		return c.RemoveDiscount(), nil
	})
}

type ShippingDetailsInput struct {
	ShippingAddress domain.Address        `json:"shipping_address" validate:"required"`
	BillingAddress  *domain.Address       `json:"billing_address" validate:"omitempty"`
	ShippingOption  domain.ShippingOption `json:"shipping_option" validate:"required"`
}

// SetShippingDetails moves the cart from the cart step to payment.
func (s *CartService) SetShippingDetails(ctx context.Context, userID string, in ShippingDetailsInput) (*domain.Cart, error) {
	return s.mutate(ctx, userID, func(c domain.Cart) (domain.Cart, error) {
		return c.SetShippingDetails(in.ShippingAddress, in.BillingAddress, in.ShippingOption)
	})
}

type PlaceOrderInput struct {
	PaymentMethod domain.PaymentMethod `json:"payment_method" validate:"required"`
	Notes         string               `json:"notes" validate:"max=500"`
}

// PlaceOrder turns the user's cart into a pending order. The order, the
// stock decrements and the user's running totals commit together; any
// product short of stock aborts all of it.
func (s *CartService) PlaceOrder(ctx context.Context, userID string, in PlaceOrderInput) (*domain.Order, error) {
	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	user, err := s.repos.Users.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	settings, err := s.repos.Settings.GetOrCreate(ctx, domain.DefaultSettings())
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}

	order, err := domain.NewOrderFromCart(cart, userID, user.Email, in.PaymentMethod, settings.TaxRate)
	if err != nil {
		return nil, err
	}
	order.ID = uuid.NewString()
	order.Notes = in.Notes

	var (
		created  *domain.Order
		lowStock []domain.InventoryItem
		touched  []*domain.Product
	)
	err = s.store.RunInTransaction(ctx, func(ctx context.Context, tx docstore.Store) error {
		repos := repository.New(tx)
		lowStock, touched = lowStock[:0], touched[:0]

		for _, productID := range orderedProductIDs(order.Items) {
			qty := quantityOf(order.Items, productID)
			p, err := repos.Products.Get(ctx, productID)
			if err != nil {
				return fmt.Errorf("get product %s: %w", productID, err)
			}
			if p.Stock < qty {
				return apperrors.Conflict(fmt.Sprintf("insufficient stock for %q: %d requested, %d available", p.Name, qty, p.Stock))
			}
			updated, err := repos.Products.SetStock(ctx, productID, p.Stock-qty)
			if err != nil {
				return fmt.Errorf("decrement stock for %s: %w", productID, err)
			}
			touched = append(touched, updated)
			if stockCrossed(p.Stock, updated.Stock) {
				lowStock = append(lowStock, domain.NewInventoryItem(*updated))
			}
		}

		created, err = repos.Orders.Create(ctx, order)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		u, err := repos.Users.Get(ctx, userID)
		if err != nil {
			return fmt.Errorf("get user: %w", err)
		}
		u.TotalOrders++
		u.TotalSpent = domain.Money(u.TotalSpent.Add(order.TotalAmount))
		totals, err := repository.Patch(u, "total_orders", "total_spent")
		if err != nil {
			return err
		}
		if _, err := repos.Users.Update(ctx, userID, totals); err != nil {
			return fmt.Errorf("update user totals: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.carts.Delete(ctx, userID); err != nil {
		s.logger.ErrorContext(ctx, "failed to clear cart after order",
			slog.String("order_id", created.ID),
			slog.String("error", err.Error()),
		)
	}
	for _, p := range touched {
		s.indexer.product(ctx, p)
	}
	s.events.OrderPlaced(ctx, created)
	for _, item := range lowStock {
		s.events.LowStock(ctx, item)
	}

	s.logger.InfoContext(ctx, "order placed",
		slog.String("order_id", created.ID),
		slog.String("total", created.TotalAmount.StringFixed(2)),
	)
	return created, nil
}

// orderedProductIDs lists the distinct products of items in a stable order.
func orderedProductIDs(items []domain.OrderItem) []string {
	seen := make(map[string]struct{}, len(items))
	ids := make([]string, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		ids = append(ids, it.ProductID)
	}
	sort.Strings(ids)
	return ids
}

// quantityOf sums a product's quantity over every line, since size and
// color variants of one product share its stock.
func quantityOf(items []domain.OrderItem, productID string) int {
	n := 0
	for _, it := range items {
		if it.ProductID == productID {
			n += it.Quantity
		}
	}
	return n
}
