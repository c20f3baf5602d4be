package cache

import (
	"context"
	"sync"
	"time"
)

// memoryEntry is one stored value. A zero ExpireAt means no TTL.
type memoryEntry struct {
	value    []byte
	expireAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && now.After(e.expireAt)
}

// MemoryStore is the default in-process Store. Reads and writes are
// safe for concurrent use; expired entries are dropped lazily on Get
// and swept opportunistically on Set once the entry count passes
// SoftCapacity.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry

	// SoftCapacity triggers an expired-entry sweep on insert when the
	// store grows past it. It is not a hard bound; unexpired entries
	// are never evicted.
	softCapacity int

	// now is injectable for tests.
	now func() time.Time
}

// NewMemoryStore creates an in-memory store. softCapacity <= 0 uses a
// default of 4096 entries.
func NewMemoryStore(softCapacity int) *MemoryStore {
	if softCapacity <= 0 {
		softCapacity = 4096
	}
	return &MemoryStore{
		entries:      make(map[string]memoryEntry),
		softCapacity: softCapacity,
		now:          time.Now,
	}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		CacheMisses.WithLabelValues("memory").Inc()
		return nil, ErrCacheMiss
	}
	if entry.expired(s.now()) {
		s.mu.Lock()
		// Re-check under the write lock; another goroutine may have
		// replaced the entry since the read.
		if current, ok := s.entries[key]; ok && current.expired(s.now()) {
			delete(s.entries, key)
			CacheEntries.Set(float64(len(s.entries)))
		}
		s.mu.Unlock()
		CacheMisses.WithLabelValues("memory").Inc()
		return nil, ErrCacheMiss
	}

	CacheHits.WithLabelValues("memory").Inc()
	return entry.value, nil
}

// Set implements Store.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	var expireAt time.Time
	if ttl > 0 {
		expireAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) >= s.softCapacity {
		s.sweepLocked()
	}

	s.entries[key] = memoryEntry{value: value, expireAt: expireAt}
	CacheEntries.Set(float64(len(s.entries)))
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	CacheEntries.Set(float64(len(s.entries)))
	s.mu.Unlock()
	return nil
}

// Len returns the current entry count.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// SetNowFunc overrides the store's clock (for testing).
func (s *MemoryStore) SetNowFunc(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// sweepLocked drops all expired entries. Caller holds the write lock.
func (s *MemoryStore) sweepLocked() {
	now := s.now()
	for key, entry := range s.entries {
		if entry.expired(now) {
			delete(s.entries, key)
		}
	}
}
