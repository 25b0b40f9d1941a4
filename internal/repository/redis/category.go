package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/anmar534/loctah-sub000/internal/domain"
)

const snapshotKey = "catalog:categories:snapshot:v1"

// CategoryCache implements repository.CategoryCache with one Redis key
// holding the JSON snapshot.
type CategoryCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewCategoryCache creates a Redis-backed snapshot cache.
func NewCategoryCache(client redis.Cmdable, ttl time.Duration) *CategoryCache {
	return &CategoryCache{client: client, ttl: ttl}
}

// Get returns the cached snapshot. A corrupt entry is dropped and reported
// as a miss.
func (c *CategoryCache) Get(ctx context.Context) ([]domain.Category, bool, error) {
	data, err := c.client.Get(ctx, snapshotKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get category snapshot: %w", err)
	}

	var snapshot []domain.Category
	if err := json.Unmarshal(data, &snapshot); err != nil {
		_ = c.client.Del(ctx, snapshotKey).Err()
		return nil, false, nil
	}
	return snapshot, true, nil
}

// Set stores snapshot with the configured TTL.
func (c *CategoryCache) Set(ctx context.Context, snapshot []domain.Category) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal category snapshot: %w", err)
	}
	if err := c.client.Set(ctx, snapshotKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set category snapshot: %w", err)
	}
	return nil
}

// Invalidate drops the snapshot.
func (c *CategoryCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, snapshotKey).Err(); err != nil {
		return fmt.Errorf("redis del category snapshot: %w", err)
	}
	return nil
}
