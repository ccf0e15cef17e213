package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/storefront/internal/docstore"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
)

const defaultNotificationLimit = 50

type NotificationService struct {
	repo   *repository.NotificationRepository
	logger *slog.Logger
}

func NewNotificationService(store docstore.Store, logger *slog.Logger) *NotificationService {
	return &NotificationService{repo: repository.NewNotificationRepository(store), logger: logger}
}

// NotificationList is the newest notifications plus the overall unread
// count.
type NotificationList struct {
	Items  []domain.Notification `json:"items"`
	Unread int                   `json:"unread"`
}

func (s *NotificationService) ListNotifications(ctx context.Context, unreadOnly bool, limit int) (*NotificationList, error) {
	if limit <= 0 || limit > 200 {
		limit = defaultNotificationLimit
	}
	items, err := s.repo.List(ctx, unreadOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	unread, err := s.repo.CountUnread(ctx)
	if err != nil {
		return nil, fmt.Errorf("count unread notifications: %w", err)
	}
	return &NotificationList{Items: items, Unread: unread}, nil
}

func (s *NotificationService) MarkNotificationRead(ctx context.Context, id string) (*domain.Notification, error) {
	n, err := s.repo.MarkRead(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("mark notification read: %w", err)
	}
	return n, nil
}
