package weathercache

import (
	"context"
	"sync"
	"time"

	"github.com/maritime-esg/esg-analytics/internal/domain/weather"
)

type memoryEntry struct {
	obs       weather.Observation
	expiresAt time.Time
}

// MemoryStore is a process-local grid cache, the default for single-instance
// deployments. Expired entries are reaped lazily on read.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (weather.Observation, bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return weather.Observation{}, false, nil
	}
	if s.now().After(entry.expiresAt) {
		s.mu.Lock()
		if current, stillThere := s.entries[key]; stillThere && s.now().After(current.expiresAt) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return weather.Observation{}, false, nil
	}
	return entry.obs, true, nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, obs weather.Observation, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	s.mu.Lock()
	s.entries[key] = memoryEntry{obs: obs, expiresAt: s.now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

var _ weather.Store = (*MemoryStore)(nil)
