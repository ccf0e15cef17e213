package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/pagination"
)

func TestOrderService_Transitions(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	events := newMockPublisher()
	svc := NewOrderService(store, events, discard)
	seedOrder(t, store, "o1", "u1", "50")

	status := func(s domain.OrderStatus) *domain.OrderStatus { return &s }

	_, err := svc.UpdateOrderStatus(ctx, "o1", OrderUpdate{Status: status(domain.OrderShipped)})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	tracking := "1Z999"
	o, err := svc.UpdateOrderStatus(ctx, "o1", OrderUpdate{Status: status(domain.OrderProcessing), TrackingNumber: &tracking})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderProcessing, o.OrderStatus)
	assert.Equal(t, "1Z999", o.TrackingNumber)
	events.AssertCalled(t, "OrderStatusChanged", ctx, "o1", domain.OrderPending, domain.OrderProcessing)

	paid := domain.PaymentCompleted
	o, err = svc.UpdateOrderStatus(ctx, "o1", OrderUpdate{PaymentStatus: &paid})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentCompleted, o.PaymentStatus)
	events.AssertNumberOfCalls(t, "OrderStatusChanged", 1)

	_, err = svc.UpdateOrderStatus(ctx, "o1", OrderUpdate{Status: status("lost")})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.UpdateOrderStatus(ctx, "missing", OrderUpdate{Status: status(domain.OrderProcessing)})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestOrderService_BulkUpdateIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	events := newMockPublisher()
	svc := NewOrderService(store, events, discard)
	seedOrder(t, store, "o1", "u1", "10")
	seedOrder(t, store, "o2", "u1", "20")
	seedOrder(t, store, "o3", "u1", "30")

	shipped := domain.OrderShipped
	processing := domain.OrderProcessing
	_, err := svc.UpdateOrderStatus(ctx, "o3", OrderUpdate{Status: &processing})
	require.NoError(t, err)
	_, err = svc.UpdateOrderStatus(ctx, "o3", OrderUpdate{Status: &shipped})
	require.NoError(t, err)

	_, err = svc.BulkUpdateOrderStatus(ctx, []string{"o1", "o2", "o3"}, domain.OrderCancelled)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	o1, err := svc.GetOrder(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPending, o1.OrderStatus)

	updated, err := svc.BulkUpdateOrderStatus(ctx, []string{"o1", "o2"}, domain.OrderCancelled)
	require.NoError(t, err)
	require.Len(t, updated, 2)
	for _, o := range updated {
		assert.Equal(t, domain.OrderCancelled, o.OrderStatus)
	}
	events.AssertCalled(t, "OrderStatusChanged", ctx, "o2", domain.OrderPending, domain.OrderCancelled)

	_, err = svc.BulkUpdateOrderStatus(ctx, []string{"o1", "nope"}, domain.OrderCancelled)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestOrderService_Listing(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	svc := NewOrderService(store, newMockPublisher(), discard)
	seedOrder(t, store, "o1", "u1", "10")
	seedOrder(t, store, "o2", "u2", "20")
	seedOrder(t, store, "o3", "u1", "30")

	mine, err := svc.ListMyOrders(ctx, "u1", pagination.New(1, 10, 10))
	require.NoError(t, err)
	require.Len(t, mine.Items, 2)
	assert.Equal(t, "o3", mine.Items[0].ID)
	assert.Equal(t, 2, mine.Pagination.Total)

	_, err = svc.GetMyOrder(ctx, "u1", "o2")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	o, err := svc.GetMyOrder(ctx, "u2", "o2")
	require.NoError(t, err)
	assert.Equal(t, "o2", o.ID)

	all, err := svc.ListOrders(ctx, domain.OrderFilter{Status: domain.OrderPending}, pagination.New(1, 2, 10))
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)
	assert.Equal(t, 3, all.Pagination.Total)
	assert.True(t, all.Pagination.HasNext)

	_, err = svc.ListOrders(ctx, domain.OrderFilter{Status: "lost"}, pagination.New(1, 2, 10))
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
