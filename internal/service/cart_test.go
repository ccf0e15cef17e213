package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/docstore"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	redisrepo "github.com/utafrali/storefront/internal/repository/redis"
	"github.com/utafrali/storefront/internal/search"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

var testAddress = domain.Address{
	FullName:   "Ada Lovelace",
	Line1:      "1 Analytical Way",
	City:       "London",
	PostalCode: "N1 1AA",
	Country:    "GB",
}

func newCartService(t *testing.T) (*CartService, docstore.Store, *mockPublisher) {
	t.Helper()
	store := newMemoryStore()
	events := newMockPublisher()
	carts := redisrepo.NewCartRepository(newTestRedis(t), time.Hour)
	return NewCartService(store, search.NewScanEngine(store), carts, events, discard), store, events
}

func TestCartService_Mutations(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newCartService(t)
	seedProduct(t, store, domain.Product{ID: "p1", Name: "Tee", Price: domain.MustMoney("15.00"), Stock: 10})

	c, err := svc.AddItem(ctx, "u1", AddItemInput{ProductID: "p1", Quantity: 2, Size: "M"})
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	lineID := c.Items[0].ID

	c, err = svc.AddItem(ctx, "u1", AddItemInput{ProductID: "p1", Quantity: 1, Size: "M"})
	require.NoError(t, err)
	assert.Equal(t, 3, c.Items[0].Quantity)
	assert.True(t, c.Subtotal.Equal(domain.MustMoney("45.00")))

	_, err = svc.UpdateQuantity(ctx, "u1", lineID, 0)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.UpdateQuantity(ctx, "u1", lineID, 11)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	c, err = svc.GetCart(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, c.Items[0].Quantity)

	_, err = svc.ApplyDiscount(ctx, "u1", "BOGUS")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	c, err = svc.SetShippingOption(ctx, "u1", domain.ShippingExpress)
	require.NoError(t, err)
	assert.True(t, c.ShippingCost.Equal(domain.MustMoney("19.99")))

	c, err = svc.ApplyDiscount(ctx, "u1", "save10")
	require.NoError(t, err)
	assert.True(t, c.Total.Equal(domain.MustMoney("54.99")), c.Total.String())

	stored, err := svc.GetCart(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, c.Total.String(), stored.Total.String())

	_, err = svc.AddItem(ctx, "u1", AddItemInput{ProductID: "missing", Quantity: 1})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	c, err = svc.RemoveItem(ctx, "u1", lineID)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
}

func TestCartService_PlaceOrder(t *testing.T) {
	ctx := context.Background()
	svc, store, events := newCartService(t)
	seedProduct(t, store, domain.Product{ID: "p1", Name: "Phone", Price: domain.MustMoney("100.00"), Stock: 12})
	seedProduct(t, store, domain.Product{ID: "p2", Name: "Case", Price: domain.MustMoney("25.00"), Stock: 5})
	seedUser(t, store, "u1", "ada@example.com")
	rate := decimal.RequireFromString("0.08")
	_, err := NewSettingsService(store, discard).UpdateSettings(ctx, SettingsPatch{TaxRate: &rate})
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, "u1", AddItemInput{ProductID: "p1", Quantity: 3})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "u1", AddItemInput{ProductID: "p2", Quantity: 2})
	require.NoError(t, err)
	_, err = svc.ApplyDiscount(ctx, "u1", "SAVE10")
	require.NoError(t, err)

	_, err = svc.PlaceOrder(ctx, "u1", PlaceOrderInput{PaymentMethod: domain.PaymentCard})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput, "shipping details are required first")

	_, err = svc.SetShippingDetails(ctx, "u1", ShippingDetailsInput{ShippingAddress: testAddress, ShippingOption: domain.ShippingStandard})
	require.NoError(t, err)

	order, err := svc.PlaceOrder(ctx, "u1", PlaceOrderInput{PaymentMethod: domain.PaymentCard, Notes: "leave at door"})
	require.NoError(t, err)

	assert.NotEmpty(t, order.ID)
	assert.Equal(t, "ada@example.com", order.UserEmail)
	assert.True(t, order.Subtotal.Equal(domain.MustMoney("350.00")))
	assert.True(t, order.Tax.Equal(domain.MustMoney("28.00")))
	assert.True(t, order.TotalAmount.Equal(domain.MustMoney("377.99")), order.TotalAmount.String())
	assert.Equal(t, domain.OrderPending, order.OrderStatus)
	assert.Equal(t, domain.PaymentPending, order.PaymentStatus)
	assert.Equal(t, testAddress, *order.BillingAddress)
	assert.Equal(t, "leave at door", order.Notes)

	products := repository.NewProductRepository(store)
	p1, err := products.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 9, p1.Stock)
	p2, err := products.Get(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, 3, p2.Stock)

	user, err := repository.NewUserRepository(store).Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, user.TotalOrders)
	assert.True(t, user.TotalSpent.Equal(domain.MustMoney("377.99")))

	cart, err := svc.GetCart(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	events.AssertNumberOfCalls(t, "OrderPlaced", 1)
	events.AssertNumberOfCalls(t, "LowStock", 1)
	events.AssertCalled(t, "LowStock", mock.Anything, mock.MatchedBy(func(item domain.InventoryItem) bool {
		return item.ProductID == "p1" && item.CurrentStock == 9
	}))
}

func TestCartService_PlaceOrderInsufficientStockRollsBack(t *testing.T) {
	ctx := context.Background()
	svc, store, events := newCartService(t)
	seedProduct(t, store, domain.Product{ID: "p1", Name: "Phone", Price: domain.MustMoney("100.00"), Stock: 12})
	seedProduct(t, store, domain.Product{ID: "p2", Name: "Case", Price: domain.MustMoney("25.00"), Stock: 5})
	seedUser(t, store, "u1", "ada@example.com")

	_, err := svc.AddItem(ctx, "u1", AddItemInput{ProductID: "p1", Quantity: 1})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "u1", AddItemInput{ProductID: "p2", Quantity: 2})
	require.NoError(t, err)
	_, err = svc.SetShippingDetails(ctx, "u1", ShippingDetailsInput{ShippingAddress: testAddress, ShippingOption: domain.ShippingStandard})
	require.NoError(t, err)

	products := repository.NewProductRepository(store)
	_, err = products.SetStock(ctx, "p2", 1)
	require.NoError(t, err)

	_, err = svc.PlaceOrder(ctx, "u1", PlaceOrderInput{PaymentMethod: domain.PaymentCard})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	p1, err := products.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 12, p1.Stock)
	n, err := repository.NewOrderRepository(store).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	user, err := repository.NewUserRepository(store).Get(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, user.TotalOrders)

	cart, err := svc.GetCart(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)
	events.AssertNotCalled(t, "OrderPlaced", mock.Anything, mock.Anything)
}

func TestCartService_PlaceOrderRejectsUnknownPaymentMethod(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newCartService(t)
	seedProduct(t, store, domain.Product{ID: "p1", Name: "Phone", Stock: 5})
	seedUser(t, store, "u1", "ada@example.com")
	_, err := svc.AddItem(ctx, "u1", AddItemInput{ProductID: "p1", Quantity: 1})
	require.NoError(t, err)
	_, err = svc.SetShippingDetails(ctx, "u1", ShippingDetailsInput{ShippingAddress: testAddress, ShippingOption: domain.ShippingStandard})
	require.NoError(t, err)

	_, err = svc.PlaceOrder(ctx, "u1", PlaceOrderInput{PaymentMethod: "barter"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCartService_PlaceOrderReindexesProducts(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	engine := newRecordingEngine(store)
	svc := NewCartService(store, engine, redisrepo.NewCartRepository(newTestRedis(t), time.Hour), newMockPublisher(), discard)
	seedProduct(t, store, domain.Product{ID: "p1", Name: "Phone", Price: domain.MustMoney("100.00"), Stock: 12})
	seedUser(t, store, "u1", "ada@example.com")

	_, err := svc.AddItem(ctx, "u1", AddItemInput{ProductID: "p1", Quantity: 4})
	require.NoError(t, err)
	_, err = svc.SetShippingDetails(ctx, "u1", ShippingDetailsInput{ShippingAddress: testAddress, ShippingOption: domain.ShippingStandard})
	require.NoError(t, err)
	assert.Empty(t, engine.indexed)

	_, err = svc.PlaceOrder(ctx, "u1", PlaceOrderInput{PaymentMethod: domain.PaymentCard})
	require.NoError(t, err)
	require.Contains(t, engine.indexed, "products/p1")
	assert.Equal(t, int64(8), engine.indexed["products/p1"].Data["stock"])
}
