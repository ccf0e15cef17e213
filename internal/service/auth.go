package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/auth"
	"github.com/utafrali/storefront/internal/docstore"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/identity"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// AuthService opens and closes storefront sessions on top of the identity
// provider and keeps the users collection in step with it.
type AuthService struct {
	provider    identity.Provider
	users       *repository.UserRepository
	tokens      *auth.JWTManager
	sessions    SessionStore
	adminEmails map[string]struct{}
	logger      *slog.Logger
}

// NewAuthService creates users listed in adminEmails with the admin role.
func NewAuthService(
	store docstore.Store,
	provider identity.Provider,
	tokens *auth.JWTManager,
	sessions SessionStore,
	adminEmails []string,
	logger *slog.Logger,
) *AuthService {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		admins[strings.ToLower(strings.TrimSpace(e))] = struct{}{}
	}
	return &AuthService{
		provider:    provider,
		users:       repository.NewUserRepository(store),
		tokens:      tokens,
		sessions:    sessions,
		adminEmails: admins,
		logger:      logger,
	}
}

// Session is a signed-in user and the bearer token for later requests.
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *domain.User `json:"user"`
}

type SignUpInput struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	DisplayName string `json:"display_name" validate:"max=100"`
}

type SignInInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ProviderSignInInput struct {
	Provider   identity.OAuthProvider `json:"provider" validate:"required,oneof=google github"`
	Credential string                 `json:"credential" validate:"required"`
}

func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (*Session, error) {
	acct, err := s.provider.SignUp(ctx, in.Email, in.Password, in.DisplayName)
	if err != nil {
		return nil, err
	}
	user, err := s.loadOrCreate(ctx, acct)
	if err != nil {
		return nil, err
	}
	return s.open(ctx, user, acct)
}

func (s *AuthService) SignIn(ctx context.Context, in SignInInput) (*Session, error) {
	acct, err := s.provider.SignIn(ctx, in.Email, in.Password)
	if err != nil {
		return nil, err
	}
	user, err := s.loadOrCreate(ctx, acct)
	if err != nil {
		return nil, err
	}
	return s.open(ctx, user, acct)
}

// SignInWithProvider signs in through Google or GitHub. The first sign-in
// creates the store user.
func (s *AuthService) SignInWithProvider(ctx context.Context, in ProviderSignInInput) (*Session, error) {
	if !in.Provider.Valid() {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unsupported sign-in provider %q", in.Provider))
	}
	acct, err := s.provider.SignInWithProvider(ctx, in.Provider, in.Credential)
	if err != nil {
		return nil, err
	}
	user, err := s.loadOrCreate(ctx, acct)
	if err != nil {
		return nil, err
	}
	return s.open(ctx, user, acct)
}

func (s *AuthService) roleFor(email string) domain.Role {
	if _, ok := s.adminEmails[strings.ToLower(email)]; ok {
		return domain.RoleAdmin
	}
	return domain.RoleUser
}

func (s *AuthService) loadOrCreate(ctx context.Context, acct *identity.Account) (*domain.User, error) {
	user, err := s.users.Get(ctx, acct.UID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("get user: %w", err)
	}

	user, err = s.users.Create(ctx, &domain.User{
		ID:          acct.UID,
		DisplayName: acct.DisplayName,
		Email:       acct.Email,
		Role:        s.roleFor(acct.Email),
		IsActive:    true,
		TotalSpent:  decimal.Zero,
	})
	if errors.Is(err, apperrors.ErrAlreadyExists) {
		return s.users.Get(ctx, acct.UID)
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.logger.InfoContext(ctx, "user created",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)
	return user, nil
}

func (s *AuthService) open(ctx context.Context, user *domain.User, acct *identity.Account) (*Session, error) {
	if !user.IsActive {
		return nil, apperrors.Forbidden("account is disabled")
	}
	tok, err := s.tokens.Issue(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, tok.ID, acct.IDToken, s.tokens.Expiry()); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	s.logger.InfoContext(ctx, "session opened", slog.String("user_id", user.ID))
	return &Session{Token: tok.Value, ExpiresAt: tok.ExpiresAt, User: user}, nil
}

// SignOut revokes the session token until it would have expired anyway.
func (s *AuthService) SignOut(ctx context.Context, tokenID string) error {
	providerToken, err := s.sessions.ProviderToken(ctx, tokenID)
	switch {
	case err == nil:
		if err := s.provider.SignOut(ctx, providerToken); err != nil {
			s.logger.WarnContext(ctx, "identity provider sign-out failed", slog.String("error", err.Error()))
		}
	case !errors.Is(err, apperrors.ErrNotFound):
		return fmt.Errorf("get session: %w", err)
	}
	if err := s.sessions.Revoke(ctx, tokenID, s.tokens.Expiry()); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (s *AuthService) SendPasswordReset(ctx context.Context, email string) error {
	return s.provider.SendPasswordReset(ctx, email)
}

func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

type ProfileUpdate struct {
	DisplayName string `json:"display_name" validate:"required,max=100"`
}

// UpdateProfile renames the user at the identity provider first, then in
// the store.
func (s *AuthService) UpdateProfile(ctx context.Context, userID, tokenID string, in ProfileUpdate) (*domain.User, error) {
	name := strings.TrimSpace(in.DisplayName)
	if name == "" {
		return nil, apperrors.InvalidInput("display name is required")
	}
	providerToken, err := s.sessions.ProviderToken(ctx, tokenID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.Unauthorized("session has ended, sign in again")
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	acct, err := s.provider.UpdateDisplayName(ctx, providerToken, name)
	if err != nil {
		return nil, err
	}
	if acct.IDToken != "" && acct.IDToken != providerToken {
		if err := s.sessions.Save(ctx, tokenID, acct.IDToken, s.tokens.Expiry()); err != nil {
			s.logger.WarnContext(ctx, "failed to refresh session token", slog.String("error", err.Error()))
		}
	}

	u, err := s.users.Update(ctx, userID, map[string]any{"display_name": name})
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return u, nil
}
