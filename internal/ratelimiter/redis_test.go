package ratelimiter

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisLimiter(t *testing.T, limit int, window time.Duration) (*RedisFixedWindowLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisFixedWindowLimiter(rdb, limit, window), mr
}

func TestRedisFixedWindow_AllowsUpToLimit(t *testing.T) {
	rl, _ := newRedisLimiter(t, 2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, _, err := rl.Allow(ctx, "login:10.0.0.1")
		if err != nil {
			t.Fatalf("allow: %v", err)
		}
		if !ok {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	ok, retry, err := rl.Allow(ctx, "login:10.0.0.1")
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if ok {
		t.Fatalf("third request should be rejected")
	}
	if retry <= 0 || retry > time.Minute {
		t.Fatalf("retry after = %v, want within the window", retry)
	}

	if ok, _, _ := rl.Allow(ctx, "login:10.0.0.2"); !ok {
		t.Fatalf("other clients keep their own window")
	}
}

func TestRedisFixedWindow_SharedAcrossInstances(t *testing.T) {
	mr := miniredis.RunT(t)
	newClient := func() *redis.Client {
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { rdb.Close() })
		return rdb
	}
	a := NewRedisFixedWindowLimiter(newClient(), 1, time.Minute)
	b := NewRedisFixedWindowLimiter(newClient(), 1, time.Minute)
	ctx := context.Background()

	if ok, _, _ := a.Allow(ctx, "k"); !ok {
		t.Fatalf("first request should be allowed")
	}
	if ok, _, _ := b.Allow(ctx, "k"); ok {
		t.Fatalf("second instance should see the first instance's count")
	}
}

func TestRedisFixedWindow_ResetsAfterWindow(t *testing.T) {
	rl, mr := newRedisLimiter(t, 1, time.Minute)
	ctx := context.Background()

	rl.Allow(ctx, "k")
	if ok, _, _ := rl.Allow(ctx, "k"); ok {
		t.Fatalf("second request in window should be rejected")
	}
	if ttl := mr.TTL(redisKeyPrefix + "k"); ttl != time.Minute {
		t.Fatalf("window ttl = %v, want 1m", ttl)
	}

	mr.FastForward(time.Minute)
	if ok, _, _ := rl.Allow(ctx, "k"); !ok {
		t.Fatalf("request in a new window should be allowed")
	}
}

func TestRedisFixedWindow_RedisDown(t *testing.T) {
	rl, mr := newRedisLimiter(t, 1, time.Minute)
	mr.Close()

	if _, _, err := rl.Allow(context.Background(), "k"); err == nil {
		t.Fatalf("expected an error when redis is unreachable")
	}
}
