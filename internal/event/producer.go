// Package event publishes storefront domain events and turns the ones
// admins care about into notifications.
package event

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/domain"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/logger"
)

var (
	TopicOrderPlaced        = pkgkafka.Topic("order", "placed")
	TopicOrderStatusChanged = pkgkafka.Topic("order", "status_changed")
	TopicLowStock           = pkgkafka.Topic("inventory", "low_stock")
	TopicProductCreated     = pkgkafka.Topic("product", "created")
	TopicProductUpdated     = pkgkafka.Topic("product", "updated")
	TopicProductDeleted     = pkgkafka.Topic("product", "deleted")
)

const (
	AggregateOrder   = "order"
	AggregateProduct = "product"
	Source           = "storefront-api"
)

type OrderPlacedData struct {
	OrderID     string          `json:"order_id"`
	UserID      string          `json:"user_id"`
	UserEmail   string          `json:"user_email"`
	ItemCount   int             `json:"item_count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

type OrderStatusChangedData struct {
	OrderID   string `json:"order_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}

type LowStockData struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Stock       int    `json:"stock"`
	Status      string `json:"status"`
}

type ProductChangedData struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name,omitempty"`
	Category  string `json:"category,omitempty"`
}

// Sender is the part of the kafka producer this package needs.
type Sender interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes domain events. Failures are logged and swallowed: an
// order that was placed stays placed even when the broker is down.
type Producer struct {
	sender Sender
	logger *slog.Logger
}

func NewProducer(sender Sender, logger *slog.Logger) *Producer {
	return &Producer{sender: sender, logger: logger}
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) {
	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, Source, data)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to build event",
			slog.String("topic", topic),
			slog.String("error", err.Error()),
		)
		return
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}
	if uid := logger.UserIDFromContext(ctx); uid != "" {
		event.WithMetadata("actor_id", uid)
	}
	if err := p.sender.Publish(ctx, topic, event); err != nil {
		p.logger.ErrorContext(ctx, "failed to publish event",
			slog.String("topic", topic),
			slog.String("aggregate_id", aggregateID),
			slog.String("error", err.Error()),
		)
		return
	}
	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("event_id", event.EventID),
		slog.String("aggregate_id", aggregateID),
	)
}

func (p *Producer) OrderPlaced(ctx context.Context, o *domain.Order) {
	count := 0
	for _, it := range o.Items {
		count += it.Quantity
	}
	p.publish(ctx, TopicOrderPlaced, o.ID, AggregateOrder, OrderPlacedData{
		OrderID:     o.ID,
		UserID:      o.UserID,
		UserEmail:   o.UserEmail,
		ItemCount:   count,
		TotalAmount: o.TotalAmount,
	})
}

func (p *Producer) OrderStatusChanged(ctx context.Context, orderID string, from, to domain.OrderStatus) {
	p.publish(ctx, TopicOrderStatusChanged, orderID, AggregateOrder, OrderStatusChangedData{
		OrderID:   orderID,
		OldStatus: string(from),
		NewStatus: string(to),
	})
}

func (p *Producer) LowStock(ctx context.Context, item domain.InventoryItem) {
	p.publish(ctx, TopicLowStock, item.ProductID, AggregateProduct, LowStockData{
		ProductID:   item.ProductID,
		ProductName: item.ProductName,
		Stock:       item.CurrentStock,
		Status:      string(item.Status),
	})
}

func (p *Producer) ProductCreated(ctx context.Context, prod *domain.Product) {
	p.publish(ctx, TopicProductCreated, prod.ID, AggregateProduct, productData(prod))
}

func (p *Producer) ProductUpdated(ctx context.Context, prod *domain.Product) {
	p.publish(ctx, TopicProductUpdated, prod.ID, AggregateProduct, productData(prod))
}

func (p *Producer) ProductDeleted(ctx context.Context, productID string) {
	p.publish(ctx, TopicProductDeleted, productID, AggregateProduct, ProductChangedData{ProductID: productID})
}

func productData(prod *domain.Product) ProductChangedData {
	return ProductChangedData{ProductID: prod.ID, Name: prod.Name, Category: prod.Category}
}

// Nop discards every event. It stands in when no brokers are configured.
type Nop struct{}

func (Nop) OrderPlaced(context.Context, *domain.Order)                                         {}
func (Nop) OrderStatusChanged(context.Context, string, domain.OrderStatus, domain.OrderStatus) {}
func (Nop) LowStock(context.Context, domain.InventoryItem)                                     {}
func (Nop) ProductCreated(context.Context, *domain.Product)                                    {}
func (Nop) ProductUpdated(context.Context, *domain.Product)                                    {}
func (Nop) ProductDeleted(context.Context, string)                                             {}
