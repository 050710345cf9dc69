package session

import (
	"context"
	"fmt"
	"time"

	"shipment-bot/internal/cache"
)

// RedisPending keeps pending batches in Redis with a TTL so they survive a restart
// and are shared between replicas. Take uses GETDEL so a batch is confirmed once.
type RedisPending struct {
	redis *cache.Redis
	ttl   time.Duration
}

// NewRedisPending creates a Redis-backed pending store.
func NewRedisPending(redis *cache.Redis, ttl time.Duration) *RedisPending {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisPending{redis: redis, ttl: ttl}
}

func (s *RedisPending) Put(ctx context.Context, key string, p Pending) error {
	if err := s.redis.SetJSON(ctx, cache.PendingKey(key), p, s.ttl); err != nil {
		return fmt.Errorf("store pending batch: %w", err)
	}
	return nil
}

func (s *RedisPending) Take(ctx context.Context, key string) (*Pending, error) {
	var p Pending
	ok, err := s.redis.TakeJSON(ctx, cache.PendingKey(key), &p)
	if err != nil {
		return nil, fmt.Errorf("take pending batch: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *RedisPending) Discard(ctx context.Context, key string) (bool, error) {
	ok, err := s.redis.Delete(ctx, cache.PendingKey(key))
	if err != nil {
		return false, fmt.Errorf("discard pending batch: %w", err)
	}
	return ok, nil
}
