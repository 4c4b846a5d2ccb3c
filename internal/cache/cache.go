package cache

import (
	"context"
	"errors"
	"time"
)

type SubjectsCache interface {
	Get(ctx context.Context) ([]string, error)
	Set(ctx context.Context, subjects []string) error
}

// TokenDenylist remembers revoked token ids until the token would have
// expired anyway.
type TokenDenylist interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

var ErrCacheMiss = errors.New("cache miss")
