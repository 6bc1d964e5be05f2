package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisAdapter implements KV over go-redis
type redisAdapter struct{ c redis.UniversalClient }

func newRedisAdapter(c redis.UniversalClient) *redisAdapter { return &redisAdapter{c: c} }

// NewRedisKV wraps an existing client, mostly for tests against a container
func NewRedisKV(c redis.UniversalClient) KV { return newRedisAdapter(c) }

func (a *redisAdapter) Ping(ctx context.Context) error { return a.c.Ping(ctx).Err() }

func (a *redisAdapter) Close() error { return a.c.Close() }

func (a *redisAdapter) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := a.c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (a *redisAdapter) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return a.c.Set(ctx, key, val, ttl).Err()
}

func (a *redisAdapter) Del(ctx context.Context, key string) error {
	return a.c.Del(ctx, key).Err()
}
