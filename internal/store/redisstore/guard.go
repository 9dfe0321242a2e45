package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Guard claims a key once per TTL window with SET NX.
type Guard struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewGuard(client redis.Cmdable, prefix string, ttl time.Duration) *Guard {
	return &Guard{client: client, prefix: prefix, ttl: ttl}
}

// Claim returns true for the first caller with key and false for every later one.
func (g *Guard) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.prefix+key, time.Now().UTC().Format(time.RFC3339Nano), g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", key, err)
	}
	return ok, nil
}

// Release drops a claim so a failed side effect can be retried.
func (g *Guard) Release(ctx context.Context, key string) error {
	if err := g.client.Del(ctx, g.prefix+key).Err(); err != nil {
		return fmt.Errorf("release %s: %w", key, err)
	}
	return nil
}
