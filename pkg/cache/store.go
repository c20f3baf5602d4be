// Package cache provides the rendered-document response cache behind an
// injected key/value store interface, with in-memory and Redis backends.
//
// Entries are opaque bytes with a wall-clock TTL; expiry is checked
// lazily on lookup and there is no write-through invalidation. Two
// concurrent requests racing to fill the same key is fine, last write
// wins.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss indicates the requested key was not found or has expired.
var ErrCacheMiss = errors.New("cache miss")

// Store is a key/value cache backend. A production deployment can swap
// the in-memory default for a shared backend (Redis) without touching
// any consumer.
type Store interface {
	// Get returns the value for key, or ErrCacheMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
