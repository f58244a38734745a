package cache

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

var _ MarkStore = (*MemoryMarkStore)(nil)

type marker struct{}

// MemoryMarkStore implements MarkStore using ttlcache. It is per-process; use the
// redis implementation when several instances serve the same users.
type MemoryMarkStore struct {
	cache *ttlcache.Cache[string, marker]
}

// NewMemoryMarkStore creates the store and starts its expiry loop.
func NewMemoryMarkStore() *MemoryMarkStore {
	c := ttlcache.New(
		ttlcache.WithDisableTouchOnHit[string, marker](),
	)
	go c.Start()

	return &MemoryMarkStore{cache: c}
}

func (s *MemoryMarkStore) Mark(_ context.Context, key string, ttl time.Duration) (bool, error) {
	_, found := s.cache.GetOrSet(key, marker{}, ttlcache.WithTTL[string, marker](ttl))
	return !found, nil
}

func (s *MemoryMarkStore) IsMarked(_ context.Context, key string) (bool, error) {
	return s.cache.Get(key) != nil, nil
}

// Len counts the live markers
func (s *MemoryMarkStore) Len() int {
	return s.cache.Len()
}

// Close stops the expiry goroutine.
func (s *MemoryMarkStore) Close() error {
	s.cache.Stop()
	return nil
}
