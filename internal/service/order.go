package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/storefront/internal/docstore"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/pagination"
)

type OrderService struct {
	store  docstore.Store
	repos  *repository.Set
	events EventPublisher
	logger *slog.Logger
}

func NewOrderService(store docstore.Store, events EventPublisher, logger *slog.Logger) *OrderService {
	return &OrderService{
		store:  store,
		repos:  repository.New(store),
		events: events,
		logger: logger,
	}
}

func (s *OrderService) ListMyOrders(ctx context.Context, userID string, p pagination.Params) (pagination.Result[domain.Order], error) {
	return s.ListOrders(ctx, domain.OrderFilter{UserID: userID}, p)
}

// GetMyOrder hides other users' orders behind NotFound.
func (s *OrderService) GetMyOrder(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	o, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, apperrors.NotFound("order", orderID)
	}
	return o, nil
}

func (s *OrderService) ListOrders(ctx context.Context, filter domain.OrderFilter, p pagination.Params) (pagination.Result[domain.Order], error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return pagination.Result[domain.Order]{}, apperrors.InvalidInput(fmt.Sprintf("unknown order status %q", filter.Status))
	}
	items, total, err := s.repos.Orders.List(ctx, filter, p)
	if err != nil {
		return pagination.Result[domain.Order]{}, fmt.Errorf("list orders: %w", err)
	}
	return pagination.NewResult(items, total, p), nil
}

func (s *OrderService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	o, err := s.repos.Orders.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// OrderUpdate holds the admin-editable fields of an order; nil fields are
// left alone.
type OrderUpdate struct {
	Status         *domain.OrderStatus   `json:"order_status"`
	PaymentStatus  *domain.PaymentStatus `json:"payment_status"`
	TrackingNumber *string               `json:"tracking_number" validate:"omitempty,max=100"`
	Notes          *string               `json:"notes" validate:"omitempty,max=500"`
}

// changes validates u against the current order and returns the document
// fields to write.
func (u OrderUpdate) changes(current *domain.Order) (map[string]any, error) {
	fields := map[string]any{}
	if u.Status != nil {
		if !u.Status.Valid() {
			return nil, apperrors.InvalidInput(fmt.Sprintf("unknown order status %q", *u.Status))
		}
		if !current.OrderStatus.CanTransitionTo(*u.Status) {
			return nil, apperrors.Conflict(fmt.Sprintf("order %s cannot move from %s to %s", current.ID, current.OrderStatus, *u.Status))
		}
		fields["order_status"] = string(*u.Status)
	}
	if u.PaymentStatus != nil {
		if !u.PaymentStatus.Valid() {
			return nil, apperrors.InvalidInput(fmt.Sprintf("unknown payment status %q", *u.PaymentStatus))
		}
		fields["payment_status"] = string(*u.PaymentStatus)
	}
	if u.TrackingNumber != nil {
		fields["tracking_number"] = *u.TrackingNumber
	}
	if u.Notes != nil {
		fields["notes"] = *u.Notes
	}
	return fields, nil
}

func (s *OrderService) UpdateOrderStatus(ctx context.Context, id string, u OrderUpdate) (*domain.Order, error) {
	current, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	fields, err := u.changes(current)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return current, nil
	}

	updated, err := s.repos.Orders.Update(ctx, id, fields)
	if err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}
	if updated.OrderStatus != current.OrderStatus {
		s.events.OrderStatusChanged(ctx, id, current.OrderStatus, updated.OrderStatus)
	}

	s.logger.InfoContext(ctx, "order updated",
		slog.String("order_id", id),
		slog.String("status", string(updated.OrderStatus)),
	)
	return updated, nil
}

// BulkUpdateOrderStatus moves every order to status in one transaction. An
// unknown id or a disallowed transition leaves all orders unchanged.
func (s *OrderService) BulkUpdateOrderStatus(ctx context.Context, ids []string, status domain.OrderStatus) ([]domain.Order, error) {
	if len(ids) == 0 {
		return nil, apperrors.InvalidInput("at least one order id is required")
	}
	if !status.Valid() {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown order status %q", status))
	}

	type change struct {
		id   string
		from domain.OrderStatus
	}
	var (
		updated []domain.Order
		changed []change
	)
	err := s.store.RunInTransaction(ctx, func(ctx context.Context, tx docstore.Store) error {
		repos := repository.New(tx)
		updated, changed = updated[:0], changed[:0]
		for _, id := range ids {
			o, err := repos.Orders.Get(ctx, id)
			if err != nil {
				return fmt.Errorf("get order %s: %w", id, err)
			}
			if !o.OrderStatus.CanTransitionTo(status) {
				return apperrors.Conflict(fmt.Sprintf("order %s cannot move from %s to %s", id, o.OrderStatus, status))
			}
			next, err := repos.Orders.Update(ctx, id, map[string]any{"order_status": string(status)})
			if err != nil {
				return fmt.Errorf("update order %s: %w", id, err)
			}
			updated = append(updated, *next)
			if o.OrderStatus != status {
				changed = append(changed, change{id: id, from: o.OrderStatus})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, c := range changed {
		s.events.OrderStatusChanged(ctx, c.id, c.from, status)
	}
	s.logger.InfoContext(ctx, "orders updated in bulk",
		slog.Int("count", len(updated)),
		slog.String("status", string(status)),
	)
	return updated, nil
}
