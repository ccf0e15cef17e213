package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
)

const ConsumerGroupID = "storefront-notifications"

// ConsumerTopics are the events that become admin notifications.
var ConsumerTopics = []string{TopicOrderPlaced, TopicLowStock}

// NotificationHandler writes one notification per consumed event, keyed by
// the event id.
type NotificationHandler struct {
	notifications *repository.NotificationRepository
	logger        *slog.Logger
}

func NewNotificationHandler(notifications *repository.NotificationRepository, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, logger: logger}
}

func (h *NotificationHandler) Handle(ctx context.Context, event *pkgkafka.Event) error {
	var n *domain.Notification
	var err error
	switch event.EventType {
	case TopicOrderPlaced:
		n, err = orderPlacedNotification(event)
	case TopicLowStock:
		n, err = lowStockNotification(event)
	default:
		h.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}
	if err != nil {
		return err
	}

	n.ID = event.EventID
	if _, err := h.notifications.Create(ctx, n); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return nil
		}
		return fmt.Errorf("store notification: %w", err)
	}
	h.logger.InfoContext(ctx, "notification created",
		slog.String("type", string(n.Type)),
		slog.String("ref_id", n.RefID),
	)
	return nil
}

func orderPlacedNotification(event *pkgkafka.Event) (*domain.Notification, error) {
	var data OrderPlacedData
	if err := event.UnmarshalData(&data); err != nil {
		return nil, fmt.Errorf("decode order.placed: %w", err)
	}
	return &domain.Notification{
		Type:    domain.NotificationOrderPlaced,
		Title:   "New order",
		Message: fmt.Sprintf("Order %s placed by %s: %d item(s), total %s", data.OrderID, data.UserEmail, data.ItemCount, data.TotalAmount.StringFixed(2)),
		RefID:   data.OrderID,
	}, nil
}

func lowStockNotification(event *pkgkafka.Event) (*domain.Notification, error) {
	var data LowStockData
	if err := event.UnmarshalData(&data); err != nil {
		return nil, fmt.Errorf("decode inventory.low_stock: %w", err)
	}
	title := "Low stock"
	if data.Stock <= 0 {
		title = "Out of stock"
	}
	return &domain.Notification{
		Type:    domain.NotificationLowStock,
		Title:   title,
		Message: fmt.Sprintf("%s has %d unit(s) left", data.ProductName, data.Stock),
		RefID:   data.ProductID,
	}, nil
}

// NewConsumer subscribes the handler to ConsumerTopics, skipping events
// already recorded in idem.
func NewConsumer(brokers []string, h *NotificationHandler, idem pkgkafka.IdempotencyStore, logger *slog.Logger) *pkgkafka.Consumer {
	cfg := pkgkafka.ConsumerConfig{
		Brokers: brokers,
		GroupID: ConsumerGroupID,
		Topics:  ConsumerTopics,
	}
	return pkgkafka.NewConsumer(cfg, pkgkafka.IdempotentHandler(idem, h.Handle, logger), logger)
}
