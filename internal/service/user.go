package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/utafrali/storefront/internal/docstore"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/pagination"
)

// UserService is the admin view of store users.
type UserService struct {
	users  *repository.UserRepository
	logger *slog.Logger
}

func NewUserService(store docstore.Store, logger *slog.Logger) *UserService {
	return &UserService{users: repository.NewUserRepository(store), logger: logger}
}

func (s *UserService) ListUsers(ctx context.Context, filter domain.UserFilter, p pagination.Params) (pagination.Result[domain.User], error) {
	if filter.Role != "" && !filter.Role.Valid() {
		return pagination.Result[domain.User]{}, apperrors.InvalidInput(fmt.Sprintf("unknown role %q", filter.Role))
	}
	items, total, err := s.users.List(ctx, filter, p)
	if err != nil {
		return pagination.Result[domain.User]{}, fmt.Errorf("list users: %w", err)
	}
	return pagination.NewResult(items, total, p), nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// AccountStatus reports the stored role and active flag for a user, for
// per-request token validation.
func (s *UserService) AccountStatus(ctx context.Context, userID string) (string, bool, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return "", false, err
	}
	return string(u.Role), u.IsActive, nil
}

type UserUpdate struct {
	Role     *domain.Role `json:"role"`
	IsActive *bool        `json:"is_active"`
}

func (s *UserService) UpdateUser(ctx context.Context, id string, u UserUpdate) (*domain.User, error) {
	fields := map[string]any{}
	var changed []string
	if u.Role != nil {
		if !u.Role.Valid() {
			return nil, apperrors.InvalidInput(fmt.Sprintf("unknown role %q", *u.Role))
		}
		fields["role"] = string(*u.Role)
		changed = append(changed, "role")
	}
	if u.IsActive != nil {
		fields["is_active"] = *u.IsActive
		changed = append(changed, "is_active")
	}
	if len(fields) == 0 {
		return s.GetUser(ctx, id)
	}

	updated, err := s.users.Update(ctx, id, fields)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	s.logger.InfoContext(ctx, "user updated",
		slog.String("user_id", id),
		slog.String("fields", strings.Join(changed, ",")),
	)
	return updated, nil
}
