package domain

import "time"

type NotificationType string

const (
	NotificationOrderPlaced NotificationType = "order_placed"
	NotificationLowStock    NotificationType = "low_stock"
)

// Notification is an admin-facing message produced from domain events.
type Notification struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	RefID     string           `json:"ref_id,omitempty"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}
