package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

func setupTestRedis(t *testing.T) (*goredis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

// ============================================================================
// Carts
// ============================================================================

func TestCartRepository_MissingCartIsEmpty(t *testing.T) {
	client, _ := setupTestRedis(t)
	repo := NewCartRepository(client, time.Hour)

	cart, err := repo.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", cart.UserID)
	assert.Empty(t, cart.Items)
	assert.Equal(t, domain.StepCart, cart.Step)
}

func TestCartRepository_SaveAndGet(t *testing.T) {
	client, mr := setupTestRedis(t)
	repo := NewCartRepository(client, 7*24*time.Hour)
	ctx := context.Background()

	cart, err := domain.NewCart("u1").AddItem(domain.Product{ID: "p1", Name: "Mug", Price: domain.MustMoney("12.40"), Stock: 5}, 2, "", "blue")
	require.NoError(t, err)
	cart, err = cart.ApplyDiscount(domain.DiscountCode)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, cart))

	assert.Equal(t, 7*24*time.Hour, mr.TTL("cart:u1"))

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "blue", got.Items[0].Color)
	assert.True(t, domain.MustMoney("24.80").Equal(got.Subtotal))
	assert.True(t, domain.MustMoney("14.80").Equal(got.Total))

	require.NoError(t, repo.Delete(ctx, "u1"))
	assert.False(t, mr.Exists("cart:u1"))
}

func TestCartRepository_Expires(t *testing.T) {
	client, mr := setupTestRedis(t)
	repo := NewCartRepository(client, time.Minute)
	ctx := context.Background()

	cart, err := domain.NewCart("u1").AddItem(domain.Product{ID: "p1", Price: domain.MustMoney("1"), Stock: 5}, 1, "", "")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, cart))

	mr.FastForward(2 * time.Minute)
	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, got.Items)
}

func TestCartRepository_GetFailsOnRedisError(t *testing.T) {
	client, mr := setupTestRedis(t)
	repo := NewCartRepository(client, time.Minute)
	mr.SetError("boom")

	_, err := repo.Get(context.Background(), "u1")
	assert.Error(t, err)
}

// ============================================================================
// Wishlists
// ============================================================================

func TestWishlistRepository(t *testing.T) {
	client, _ := setupTestRedis(t)
	repo := NewWishlistRepository(client)
	tick := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx, "u1", "p2"))
	require.NoError(t, repo.Add(ctx, "u1", "p1"))
	require.NoError(t, repo.Add(ctx, "u1", "p2"))

	ids, err := repo.ProductIDs(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"p2", "p1"}, ids)

	require.NoError(t, repo.Remove(ctx, "u1", "p2"))
	ids, err = repo.ProductIDs(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, ids)

	require.NoError(t, repo.Clear(ctx, "u1"))
	ids, err = repo.ProductIDs(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

// ============================================================================
// Sessions
// ============================================================================

func TestSessionStore(t *testing.T) {
	client, mr := setupTestRedis(t)
	s := NewSessionStore(client)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "jti-1", "provider-token", time.Hour))
	tok, err := s.ProviderToken(ctx, "jti-1")
	require.NoError(t, err)
	assert.Equal(t, "provider-token", tok)

	revoked, err := s.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, s.Revoke(ctx, "jti-1", 30*time.Minute))
	revoked, err = s.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	_, err = s.ProviderToken(ctx, "jti-1")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	mr.FastForward(31 * time.Minute)
	revoked, err = s.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}
