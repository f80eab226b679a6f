// Package cache provides the small key/value store used for rate-limit
// counters and assistant context. Values are opaque bytes.
package cache

import (
	"context"
	"time"
)

type Cache interface {
	// Get returns the value and whether it was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value; a ttl <= 0 never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// TTL returns the time left before key expires. ok is false when the key
	// is missing or has no expiry.
	TTL(ctx context.Context, key string) (time.Duration, bool, error)
	Delete(ctx context.Context, key string) error
}
