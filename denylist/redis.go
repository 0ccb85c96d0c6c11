package denylist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps every backend failure of the Redis store.
var ErrRedisUnavailable = errors.New("denylist redis unavailable")

// Redis is a Store shared across processes. Entries carry a TTL matching
// the token's remaining lifetime, so Redis expires them on its own and
// no sweeper is needed.
type Redis struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRedis creates a Redis-backed denylist. An empty prefix defaults to
// "sdl".
func NewRedis(redisClient redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = "sdl"
	}
	return &Redis{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *Redis) key(tokenID string) string {
	return s.prefix + ":" + tokenID
}

// Deny marks the token id rejected until the given instant. An instant
// already in the past is a no-op: the token fails expiry checks on its
// own.
func (s *Redis) Deny(ctx context.Context, tokenID string, until time.Time) error {
	if tokenID == "" {
		return nil
	}
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if err := s.redis.Set(ctx, s.key(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Denied reports whether the token id is on the list.
func (s *Redis) Denied(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}
	n, err := s.redis.Exists(ctx, s.key(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return n > 0, nil
}

// Allow removes the token id from the list.
func (s *Redis) Allow(ctx context.Context, tokenID string) error {
	if tokenID == "" {
		return nil
	}
	if err := s.redis.Del(ctx, s.key(tokenID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
