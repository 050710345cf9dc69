package cache

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"
)

func testRedis(t *testing.T) *Redis {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	r, err := New(context.Background(), Config{Addr: addr})
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestHitSetsWindow(t *testing.T) {
	r := testRedis(t)
	ctx := context.Background()
	key := fmt.Sprintf("test:hit:%d", time.Now().UnixNano())
	t.Cleanup(func() { _, _ = r.Delete(ctx, key) })

	for want := int64(1); want <= 3; want++ {
		n, err := r.Hit(ctx, key, time.Minute)
		if err != nil {
			t.Fatalf("hit: %v", err)
		}
		if n != want {
			t.Fatalf("expected count %d, got %d", want, n)
		}
	}
	if ttl := r.client.TTL(ctx, key).Val(); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("expected a window TTL, got %v", ttl)
	}
}

func TestHitRepairsCounterWithoutTTL(t *testing.T) {
	r := testRedis(t)
	ctx := context.Background()
	key := fmt.Sprintf("test:hit:stuck:%d", time.Now().UnixNano())
	t.Cleanup(func() { _, _ = r.Delete(ctx, key) })

	// A counter left behind by an INCR whose EXPIRE never landed.
	if err := r.client.Set(ctx, key, 5, 0).Err(); err != nil {
		t.Fatalf("seed counter: %v", err)
	}
	n, err := r.Hit(ctx, key, time.Minute)
	if err != nil {
		t.Fatalf("hit: %v", err)
	}
	if n != 6 {
		t.Fatalf("expected count 6, got %d", n)
	}
	if ttl := r.client.TTL(ctx, key).Val(); ttl <= 0 {
		t.Fatalf("expected the counter to regain a TTL, got %v", ttl)
	}
}
