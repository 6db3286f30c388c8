package ratelimiter

import (
	"context"
	"sync"
	"time"
)

// Limiter reports whether a request under key may proceed. When it may not,
// the duration is the time left until the key's window resets.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
	Stop()
}

type clientWindow struct {
	start time.Time
	count int
}

// FixedWindowRateLimiter counts requests per key in memory, in windows that
// start at the key's first request.
type FixedWindowRateLimiter struct {
	sync.Mutex
	clients map[string]*clientWindow
	limit   int
	window  time.Duration
	now     func() time.Time
	done    chan struct{}
}

func NewFixedWindowLimiter(limit int, window time.Duration) *FixedWindowRateLimiter {
	rl := newLimiter(limit, window, time.Now)
	go rl.cleanup()
	return rl
}

func newLimiter(limit int, window time.Duration, now func() time.Time) *FixedWindowRateLimiter {
	return &FixedWindowRateLimiter{
		clients: make(map[string]*clientWindow),
		limit:   limit,
		window:  window,
		now:     now,
		done:    make(chan struct{}),
	}
}

func (rl *FixedWindowRateLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	rl.Lock()
	defer rl.Unlock()

	now := rl.now()
	cw, ok := rl.clients[key]
	if !ok || now.Sub(cw.start) >= rl.window {
		rl.clients[key] = &clientWindow{start: now, count: 1}
		return true, 0, nil
	}

	if cw.count < rl.limit {
		cw.count++
		return true, 0, nil
	}

	return false, rl.window - now.Sub(cw.start), nil
}

func (rl *FixedWindowRateLimiter) Stop() {
	close(rl.done)
}

func (rl *FixedWindowRateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.evictExpired()
		case <-rl.done:
			return
		}
	}
}

func (rl *FixedWindowRateLimiter) evictExpired() {
	rl.Lock()
	defer rl.Unlock()
	now := rl.now()
	for key, cw := range rl.clients {
		if now.Sub(cw.start) >= rl.window {
			delete(rl.clients, key)
		}
	}
}
