package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/docstore"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/search"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/pagination"
)

// catalogRecordingEngine wraps the scan engine and records index calls.
type catalogRecordingEngine struct {
	*search.ScanEngine
	indexed []string
	removed []string
}

func (e *catalogRecordingEngine) Index(_ context.Context, _ string, doc docstore.Document) error {
	e.indexed = append(e.indexed, doc.ID)
	return nil
}

func (e *catalogRecordingEngine) Remove(_ context.Context, _ string, id string) error {
	e.removed = append(e.removed, id)
	return nil
}

func newCatalog(t *testing.T) (*CatalogService, docstore.Store, *catalogRecordingEngine, *mockPublisher) {
	t.Helper()
	store := newMemoryStore()
	engine := &catalogRecordingEngine{ScanEngine: search.NewScanEngine(store)}
	events := newMockPublisher()
	return NewCatalogService(store, engine, events, discard), store, engine, events
}

func TestCatalogService_CreateProduct(t *testing.T) {
	ctx := context.Background()
	svc, store, engine, events := newCatalog(t)
	_, err := NewCategoryService(store, search.NewScanEngine(store), discard).CreateCategory(ctx, CategoryInput{Name: "Phones"})
	require.NoError(t, err)

	p, err := svc.CreateProduct(ctx, ProductInput{
		Name:     " iPhone 15 Pro ",
		Price:    decimal.RequireFromString("999.999"),
		Category: "phones",
		Stock:    5,
		Rating:   4.5,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "iPhone 15 Pro", p.Name)
	assert.Equal(t, "1000", p.Price.String())
	assert.Equal(t, []string{p.ID}, engine.indexed)
	events.AssertCalled(t, "ProductCreated", mock.Anything, mock.MatchedBy(func(got *domain.Product) bool {
		return got.ID == p.ID
	}))

	_, err = svc.CreateProduct(ctx, ProductInput{Name: "Ghost", Category: "no-such"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.CreateProduct(ctx, ProductInput{Name: "Bad", Rating: 6})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCatalogService_ListProducts(t *testing.T) {
	ctx := context.Background()
	svc, store, _, _ := newCatalog(t)
	for _, p := range []domain.Product{
		{ID: "a", Name: "A", Price: domain.MustMoney("30"), Category: "phones"},
		{ID: "b", Name: "B", Price: domain.MustMoney("10"), Category: "phones"},
		{ID: "c", Name: "C", Price: domain.MustMoney("20"), Category: "phones"},
		{ID: "d", Name: "D", Price: domain.MustMoney("5"), Category: "laptops"},
	} {
		seedProduct(t, store, p)
	}

	res, err := svc.ListProducts(ctx, domain.ProductFilter{Category: "phones", Sort: domain.SortPriceAsc}, pagination.New(1, 2, 12))
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "b", res.Items[0].ID)
	assert.Equal(t, "c", res.Items[1].ID)
	assert.Equal(t, pagination.Info{Page: 1, Limit: 2, Total: 3, TotalPages: 2, HasNext: true}, res.Pagination)

	res, err = svc.ListProducts(ctx, domain.ProductFilter{Category: "phones", Sort: domain.SortPriceAsc}, pagination.New(2, 2, 12))
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.False(t, res.Pagination.HasNext)
	assert.True(t, res.Pagination.HasPrev)

	_, err = svc.ListProducts(ctx, domain.ProductFilter{Sort: "cheapest"}, pagination.New(1, 12, 12))
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCatalogService_SearchProducts(t *testing.T) {
	ctx := context.Background()
	svc, store, _, _ := newCatalog(t)
	seedProduct(t, store, domain.Product{ID: "a", Name: "iPhone 15 Pro", Brand: "Apple", Category: "phones"})
	seedProduct(t, store, domain.Product{ID: "b", Name: "MacBook", Description: "Laptop by APPLE"})
	seedProduct(t, store, domain.Product{ID: "c", Name: "Pixel", Brand: "Google"})

	got, err := svc.SearchProducts(ctx, "apple")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)

	got, err = svc.SearchProducts(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCatalogService_GetProductNotFound(t *testing.T) {
	svc, _, _, _ := newCatalog(t)
	_, err := svc.GetProduct(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCatalogService_UpdateProduct(t *testing.T) {
	ctx := context.Background()
	svc, store, engine, events := newCatalog(t)
	seedProduct(t, store, domain.Product{ID: "a", Name: "Mug", Stock: 20, Rating: 3})

	stock := 4
	name := "Big Mug"
	updated, err := svc.UpdateProduct(ctx, "a", ProductPatch{Name: &name, Stock: &stock})
	require.NoError(t, err)
	assert.Equal(t, "Big Mug", updated.Name)
	assert.Equal(t, 4, updated.Stock)
	assert.Equal(t, 3.0, updated.Rating)
	assert.Equal(t, []string{"a"}, engine.indexed)
	events.AssertCalled(t, "ProductUpdated", mock.Anything, mock.Anything)
	events.AssertCalled(t, "LowStock", mock.Anything, mock.MatchedBy(func(item domain.InventoryItem) bool {
		return item.ProductID == "a" && item.Status == domain.StockLow
	}))

	negative := -1
	_, err = svc.UpdateProduct(ctx, "a", ProductPatch{Stock: &negative})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.UpdateProduct(ctx, "missing", ProductPatch{Name: &name})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCatalogService_DeleteProduct(t *testing.T) {
	ctx := context.Background()
	svc, store, engine, events := newCatalog(t)
	seedProduct(t, store, domain.Product{ID: "a", Name: "Mug"})

	require.NoError(t, svc.DeleteProduct(ctx, "a"))
	assert.Equal(t, []string{"a"}, engine.removed)
	events.AssertCalled(t, "ProductDeleted", mock.Anything, "a")

	assert.ErrorIs(t, svc.DeleteProduct(ctx, "a"), apperrors.ErrNotFound)
}

func TestCatalogService_ListFeaturedProducts(t *testing.T) {
	svc, store, _, _ := newCatalog(t)
	seedProduct(t, store, domain.Product{ID: "a", Name: "A", Featured: true})
	seedProduct(t, store, domain.Product{ID: "b", Name: "B"})
	seedProduct(t, store, domain.Product{ID: "c", Name: "C", Featured: true})

	got, err := svc.ListFeaturedProducts(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].ID)
}
