package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

const (
	sessionKeyPrefix = "session:"
	revokedKeyPrefix = "session:revoked:"
)

// SessionStore remembers, per session token id, the identity provider token
// the session was opened with, and which token ids have been revoked.
type SessionStore struct {
	client *redis.Client
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

func (s *SessionStore) Save(ctx context.Context, tokenID, providerToken string, ttl time.Duration) error {
	if err := s.client.Set(ctx, sessionKeyPrefix+tokenID, providerToken, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

// ProviderToken returns the identity token stored for a session.
func (s *SessionStore) ProviderToken(ctx context.Context, tokenID string) (string, error) {
	tok, err := s.client.Get(ctx, sessionKeyPrefix+tokenID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", apperrors.NotFound("session", tokenID)
		}
		return "", fmt.Errorf("redis get session: %w", err)
	}
	return tok, nil
}

// Revoke drops the session and denylists its token id for ttl, which should
// cover the token's remaining lifetime.
func (s *SessionStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = time.Second
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, sessionKeyPrefix+tokenID)
		pipe.Set(ctx, revokedKeyPrefix+tokenID, 1, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis revoke session: %w", err)
	}
	return nil
}

func (s *SessionStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, revokedKeyPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists revoked session: %w", err)
	}
	return n > 0, nil
}
