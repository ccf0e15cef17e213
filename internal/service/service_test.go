package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/docstore"
	"github.com/utafrali/storefront/internal/docstore/memory"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/internal/search"
	"github.com/utafrali/storefront/pkg/logger"
)

// --- Mock Publisher ---

type mockPublisher struct {
	mock.Mock
}

func newMockPublisher() *mockPublisher {
	m := &mockPublisher{}
	m.On("OrderPlaced", mock.Anything, mock.Anything).Maybe()
	m.On("OrderStatusChanged", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Maybe()
	m.On("LowStock", mock.Anything, mock.Anything).Maybe()
	m.On("ProductCreated", mock.Anything, mock.Anything).Maybe()
	m.On("ProductUpdated", mock.Anything, mock.Anything).Maybe()
	m.On("ProductDeleted", mock.Anything, mock.Anything).Maybe()
	return m
}

func (m *mockPublisher) OrderPlaced(ctx context.Context, o *domain.Order) {
	m.Called(ctx, o)
}

func (m *mockPublisher) OrderStatusChanged(ctx context.Context, orderID string, from, to domain.OrderStatus) {
	m.Called(ctx, orderID, from, to)
}

func (m *mockPublisher) LowStock(ctx context.Context, item domain.InventoryItem) {
	m.Called(ctx, item)
}

func (m *mockPublisher) ProductCreated(ctx context.Context, p *domain.Product) {
	m.Called(ctx, p)
}

func (m *mockPublisher) ProductUpdated(ctx context.Context, p *domain.Product) {
	m.Called(ctx, p)
}

func (m *mockPublisher) ProductDeleted(ctx context.Context, productID string) {
	m.Called(ctx, productID)
}

// --- Failing Store ---

// failingStore fails every read of the listed collections.
type failingStore struct {
	docstore.Store
	fail map[string]bool
	err  error
}

func (s *failingStore) Query(ctx context.Context, collection string, q docstore.Query) ([]docstore.Document, error) {
	if s.fail[collection] {
		return nil, s.err
	}
	return s.Store.Query(ctx, collection, q)
}

func (s *failingStore) Count(ctx context.Context, collection string, q docstore.Query) (int, error) {
	if s.fail[collection] {
		return 0, s.err
	}
	return s.Store.Count(ctx, collection, q)
}

// --- Recording Engine ---

// recordingEngine is a scan engine that remembers what was indexed.
type recordingEngine struct {
	*search.ScanEngine
	indexed map[string]docstore.Document
	removed []string
}

func newRecordingEngine(store docstore.Store) *recordingEngine {
	return &recordingEngine{ScanEngine: search.NewScanEngine(store), indexed: map[string]docstore.Document{}}
}

func (e *recordingEngine) Index(_ context.Context, collection string, doc docstore.Document) error {
	e.indexed[collection+"/"+doc.ID] = doc
	return nil
}

func (e *recordingEngine) Remove(_ context.Context, collection, id string) error {
	e.removed = append(e.removed, collection+"/"+id)
	return nil
}

// --- Test Helpers ---

func newTestRedis(t *testing.T) *goredis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func seedProduct(t *testing.T, store docstore.Store, p domain.Product) *domain.Product {
	t.Helper()
	if p.Price.IsZero() {
		p.Price = domain.MustMoney("10.00")
	}
	created, err := repository.NewProductRepository(store).Create(context.Background(), &p)
	require.NoError(t, err)
	return created
}

func seedUser(t *testing.T, store docstore.Store, id, email string) *domain.User {
	t.Helper()
	u, err := repository.NewUserRepository(store).Create(context.Background(), &domain.User{
		ID:       id,
		Email:    email,
		Role:     domain.RoleUser,
		IsActive: true,
	})
	require.NoError(t, err)
	return u
}

func seedOrder(t *testing.T, store docstore.Store, id, userID, total string) *domain.Order {
	t.Helper()
	o, err := repository.NewOrderRepository(store).Create(context.Background(), &domain.Order{
		ID:            id,
		UserID:        userID,
		TotalAmount:   domain.MustMoney(total),
		OrderStatus:   domain.OrderPending,
		PaymentStatus: domain.PaymentPending,
		PaymentMethod: domain.PaymentCard,
	})
	require.NoError(t, err)
	return o
}

// fixedClock returns a clock the test can move.
func fixedClock(t time.Time) (*time.Time, func() time.Time) {
	now := t
	return &now, func() time.Time { return now }
}

var discard = logger.Discard()

func newMemoryStore() *memory.Store {
	return memory.New()
}
