package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const wishlistKeyPrefix = "wishlist:"

// WishlistRepository stores a sorted set of product ids per user, scored
// by the time they were added.
type WishlistRepository struct {
	client *redis.Client
	now    func() time.Time
}

func NewWishlistRepository(client *redis.Client) *WishlistRepository {
	return &WishlistRepository{client: client, now: time.Now}
}

// Add is idempotent: re-adding keeps the original position.
func (r *WishlistRepository) Add(ctx context.Context, userID, productID string) error {
	err := r.client.ZAddNX(ctx, wishlistKeyPrefix+userID, redis.Z{
		Score:  float64(r.now().UnixMicro()),
		Member: productID,
	}).Err()
	if err != nil {
		return fmt.Errorf("redis zadd wishlist: %w", err)
	}
	return nil
}

func (r *WishlistRepository) Remove(ctx context.Context, userID, productID string) error {
	if err := r.client.ZRem(ctx, wishlistKeyPrefix+userID, productID).Err(); err != nil {
		return fmt.Errorf("redis zrem wishlist: %w", err)
	}
	return nil
}

func (r *WishlistRepository) Clear(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, wishlistKeyPrefix+userID).Err(); err != nil {
		return fmt.Errorf("redis del wishlist: %w", err)
	}
	return nil
}

// ProductIDs lists the wishlist oldest first.
func (r *WishlistRepository) ProductIDs(ctx context.Context, userID string) ([]string, error) {
	ids, err := r.client.ZRange(ctx, wishlistKeyPrefix+userID, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis zrange wishlist: %w", err)
	}
	return ids, nil
}
