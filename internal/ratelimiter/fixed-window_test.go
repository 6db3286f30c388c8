package ratelimiter

import (
	"context"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestFixedWindow_AllowsUpToLimit(t *testing.T) {
	clk := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	rl := newLimiter(3, time.Minute, clk.now)

	for i := 0; i < 3; i++ {
		if ok, _, _ := rl.Allow(context.Background(), "10.0.0.1"); !ok {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	clk.advance(20 * time.Second)
	ok, retry, _ := rl.Allow(context.Background(), "10.0.0.1")
	if ok {
		t.Fatalf("fourth request should be rejected")
	}
	if retry != 40*time.Second {
		t.Fatalf("retry after = %v, want 40s", retry)
	}

	if ok, _, _ := rl.Allow(context.Background(), "10.0.0.2"); !ok {
		t.Fatalf("other clients keep their own window")
	}
}

func TestFixedWindow_ResetsAfterWindow(t *testing.T) {
	clk := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	rl := newLimiter(1, time.Minute, clk.now)

	rl.Allow(context.Background(), "k")
	if ok, _, _ := rl.Allow(context.Background(), "k"); ok {
		t.Fatalf("second request in window should be rejected")
	}

	clk.advance(time.Minute)
	if ok, _, _ := rl.Allow(context.Background(), "k"); !ok {
		t.Fatalf("request in a new window should be allowed")
	}
}

func TestFixedWindow_EvictExpired(t *testing.T) {
	clk := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	rl := newLimiter(1, time.Minute, clk.now)

	rl.Allow(context.Background(), "a")
	clk.advance(30 * time.Second)
	rl.Allow(context.Background(), "b")
	clk.advance(40 * time.Second)

	rl.evictExpired()
	if _, ok := rl.clients["a"]; ok {
		t.Errorf("expired window for a should be evicted")
	}
	if _, ok := rl.clients["b"]; !ok {
		t.Errorf("live window for b should be kept")
	}
}
