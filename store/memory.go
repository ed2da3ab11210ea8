// Package store provides response cache backends for litcal.CacheTransport.
package store

import (
	"context"
	"sync"
	"time"

	litcal "github.com/AnandSundar/go-litcal"
)

const (
	lockWait        = 100 * time.Millisecond
	cleanupInterval = 1 * time.Minute
)

// MemoryStore is an in-memory implementation of litcal.Store and litcal.Locker
type MemoryStore struct {
	mu      sync.RWMutex
	data    map[string]*entry
	locks   map[string]*sync.Mutex
	locksMu sync.Mutex
	now     func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

type entry struct {
	response  *litcal.CachedResponse
	expiresAt time.Time
}

var (
	_ litcal.Store  = (*MemoryStore)(nil)
	_ litcal.Locker = (*MemoryStore)(nil)
)

// NewMemoryStore creates a new in-memory store. Call Close to stop the
// background cleanup.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		data:  make(map[string]*entry),
		locks: make(map[string]*sync.Mutex),
		now:   time.Now,
		stop:  make(chan struct{}),
	}

	go s.cleanup()

	return s
}

// Get retrieves a cached response
func (s *MemoryStore) Get(_ context.Context, key string) (*litcal.CachedResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.data[key]
	if !exists {
		return nil, litcal.ErrNotFound
	}

	if s.now().After(entry.expiresAt) {
		return nil, litcal.ErrNotFound
	}

	return entry.response, nil
}

// Set stores a response with TTL
func (s *MemoryStore) Set(_ context.Context, key string, response *litcal.CachedResponse, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = &entry{
		response:  response,
		expiresAt: s.now().Add(ttl),
	}

	return nil
}

// Has reports whether an unexpired entry exists
func (s *MemoryStore) Has(ctx context.Context, key string) (bool, error) {
	_, err := s.Get(ctx, key)
	if err == litcal.ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

// Lock acquires a lock for the given key
func (s *MemoryStore) Lock(ctx context.Context, key string) (func(), error) {
	s.locksMu.Lock()
	mu, exists := s.locks[key]
	if !exists {
		mu = &sync.Mutex{}
		s.locks[key] = mu
	}
	s.locksMu.Unlock()

	// Try to acquire lock with timeout
	deadline := time.Now().Add(lockWait)
	for {
		if mu.TryLock() {
			return func() { mu.Unlock() }, nil
		}
		if time.Now().After(deadline) {
			return nil, litcal.ErrRequestInProgress
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Millisecond):
		}
	}
}

// Len returns the number of stored entries, expired or not
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Close stops the cleanup goroutine
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	return nil
}

// cleanup periodically removes expired entries
func (s *MemoryStore) cleanup() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.purgeExpired()
		}
	}
}

func (s *MemoryStore) purgeExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for key, entry := range s.data {
		if now.After(entry.expiresAt) {
			delete(s.data, key)
		}
	}
}
