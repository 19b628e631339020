package store

import (
	"context"
	"slices"
	"sync"
	"time"
)

// RateLimitMemoryStore keeps sliding-window hit timestamps in process memory.
type RateLimitMemoryStore struct {
	mu   sync.Mutex
	hits map[string][]time.Time
	now  func() time.Time
}

func NewRateLimitMemoryStore() *RateLimitMemoryStore {
	return &RateLimitMemoryStore{
		hits: make(map[string][]time.Time),
		now:  time.Now,
	}
}

// Record adds a hit for key and returns the number of hits inside window.
func (s *RateLimitMemoryStore) Record(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	cutoff := now.Add(-window)

	// hits are appended in time order, so everything before the first live one is stale
	hits := s.hits[key]
	if i := slices.IndexFunc(hits, func(ts time.Time) bool { return ts.After(cutoff) }); i >= 0 {
		hits = hits[i:]
	} else {
		hits = hits[:0]
	}

	hits = append(hits, now)
	s.hits[key] = hits

	return int64(len(hits)), nil
}
