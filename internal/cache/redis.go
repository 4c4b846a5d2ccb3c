package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	subjectsKey    = "bookstore:subjects"
	revokedKeyBase = "bookstore:revoked:"
)

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: 15 * time.Minute,
	}
}

// RedisCache holds the catalog's subject list and the revoked-token set.
type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r *RedisCache) Get(ctx context.Context) ([]string, error) {
	data, err := r.client.Get(ctx, subjectsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var subjects []string
	if err2 := json.Unmarshal(data, &subjects); err2 != nil {
		return nil, fmt.Errorf("unmarshal subjects failed: %w", err2)
	}

	return subjects, nil
}

func (r *RedisCache) Set(ctx context.Context, subjects []string) error {
	data, err := json.Marshal(subjects)
	if err != nil {
		return fmt.Errorf("marshal subjects failed: %w", err)
	}

	// jitter keeps replicas from expiring together
	jitter := time.Duration(rand.IntN(5)) * time.Minute
	if err := r.client.Set(ctx, subjectsKey, string(data), r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCache) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, revokedKey(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis revoke failed: %w", err)
	}
	return nil
}

func (r *RedisCache) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, revokedKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists failed: %w", err)
	}
	return n > 0, nil
}

func revokedKey(tokenID string) string {
	return revokedKeyBase + tokenID
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
