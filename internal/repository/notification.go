package repository

import (
	"context"

	"github.com/utafrali/storefront/internal/docstore"
	"github.com/utafrali/storefront/internal/domain"
)

type NotificationRepository struct {
	c collection[domain.Notification]
}

func NewNotificationRepository(store docstore.Store) *NotificationRepository {
	return &NotificationRepository{c: collection[domain.Notification]{store: store, name: domain.CollectionNotifications}}
}

// Create stores n under n.ID; reusing an event id as the notification id
// makes redelivered events collide instead of duplicating.
func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) (*domain.Notification, error) {
	return r.c.create(ctx, n.ID, n)
}

func (r *NotificationRepository) List(ctx context.Context, unreadOnly bool, limit int) ([]domain.Notification, error) {
	q := docstore.Query{Sort: newestFirst, Limit: limit}
	if unreadOnly {
		q.Filters = []docstore.Filter{docstore.Where("read", docstore.Eq, false)}
	}
	return r.c.query(ctx, q)
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id string) (*domain.Notification, error) {
	return r.c.update(ctx, id, map[string]any{"read": true})
}

func (r *NotificationRepository) CountUnread(ctx context.Context) (int, error) {
	return r.c.count(ctx, docstore.Query{
		Filters: []docstore.Filter{docstore.Where("read", docstore.Eq, false)},
	})
}
