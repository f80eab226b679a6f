// Package ratelimit counts requests per key in fixed windows stored in a
// cache.Cache.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"vitalflow/internal/cache"
)

const keyPrefix = "ratelimit:"

type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter allows up to max hits per key in a window that opens on the first
// hit. Later hits do not move the window.
//
// Counts are read and written under a process-local lock, so with a shared
// Redis cache two instances may each admit a hit at the window boundary.
type Limiter struct {
	cache      cache.Cache
	window     time.Duration
	defaultMax int
	mu         sync.Mutex
}

func New(c cache.Cache, window time.Duration, defaultMax int) *Limiter {
	return &Limiter{cache: c, window: window, defaultMax: defaultMax}
}

func (l *Limiter) Window() time.Duration {
	return l.window
}

// Allow records a hit for key. A max <= 0 uses the limiter's default.
func (l *Limiter) Allow(ctx context.Context, key string, max int) (Decision, error) {
	if max <= 0 {
		max = l.defaultMax
	}
	key = keyPrefix + key

	l.mu.Lock()
	defer l.mu.Unlock()

	count, ttl, err := l.current(ctx, key)
	if err != nil {
		return Decision{}, err
	}

	if count == 0 {
		if err := l.cache.Set(ctx, key, []byte("1"), l.window); err != nil {
			return Decision{}, fmt.Errorf("start rate limit window: %w", err)
		}
		return Decision{Allowed: true, Limit: max, Remaining: max - 1}, nil
	}

	if count >= max {
		return Decision{Allowed: false, Limit: max, RetryAfter: ttl}, nil
	}

	count++
	if err := l.cache.Set(ctx, key, []byte(strconv.Itoa(count)), ttl); err != nil {
		return Decision{}, fmt.Errorf("update rate limit counter: %w", err)
	}

	return Decision{Allowed: true, Limit: max, Remaining: max - count}, nil
}

// current returns the hit count of the open window and the time left in it.
// A missing, expired or unreadable counter reads as zero.
func (l *Limiter) current(ctx context.Context, key string) (int, time.Duration, error) {
	raw, ok, err := l.cache.Get(ctx, key)
	if err != nil {
		return 0, 0, fmt.Errorf("read rate limit counter: %w", err)
	}
	if !ok {
		return 0, 0, nil
	}

	ttl, ok, err := l.cache.TTL(ctx, key)
	if err != nil {
		return 0, 0, fmt.Errorf("read rate limit window: %w", err)
	}
	if !ok {
		return 0, 0, nil
	}

	count, err := strconv.Atoi(string(raw))
	if err != nil {
		return 0, 0, nil
	}

	return count, ttl, nil
}
