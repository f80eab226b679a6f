package cache

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Memory is a bounded in-process cache. Least recently used keys are evicted
// once size is reached.
type Memory struct {
	items *lru.Cache[string, entry]
	now   func() time.Time
}

type MemoryOption func(*Memory)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		m.now = now
	}
}

func NewMemory(size int, opts ...MemoryOption) (*Memory, error) {
	items, err := lru.New[string, entry](size)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}

	m := &Memory{items: items, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

func (m *Memory) lookup(key string) (entry, bool) {
	e, ok := m.items.Get(key)
	if !ok {
		return entry{}, false
	}
	if e.expired(m.now()) {
		m.items.Remove(key)
		return entry{}, false
	}
	return e, true
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := m.lookup(key)
	if !ok {
		return nil, false, nil
	}
	return e.value, true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.items.Add(key, e)
	return nil
}

func (m *Memory) TTL(_ context.Context, key string) (time.Duration, bool, error) {
	e, ok := m.lookup(key)
	if !ok || e.expiresAt.IsZero() {
		return 0, false, nil
	}
	return e.expiresAt.Sub(m.now()), true, nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.items.Remove(key)
	return nil
}

func (m *Memory) Len() int {
	return m.items.Len()
}
