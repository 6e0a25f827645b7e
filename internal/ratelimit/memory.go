package ratelimit

import (
	"context"
	"sync"
	"time"
)

// DefaultPruneThreshold is the map size above which MemoryStore sweeps out
// expired entries on write.
const DefaultPruneThreshold = 100

type memEntry struct {
	at        time.Time
	expiresAt time.Time
}

// MemoryStore is the in-process fallback store used when Redis is
// unconfigured or unreachable. It is not shared across instances, so its
// guarantees are weaker than the Redis store's; pruning is opportunistic
// and only bounds memory, it is not required for correctness.
type MemoryStore struct {
	mu             sync.Mutex
	entries        map[string]memEntry
	pruneThreshold int
	now            func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:        make(map[string]memEntry),
		pruneThreshold: DefaultPruneThreshold,
		now:            time.Now,
	}
}

// Claim checks and writes the slot under one lock, so concurrent claims on
// the same key serialize and only one wins.
func (s *MemoryStore) Claim(_ context.Context, key string, t time.Time, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok && !s.now().After(e.expiresAt) {
		return false, nil
	}
	if len(s.entries) >= s.pruneThreshold {
		s.prune()
	}
	s.entries[key] = memEntry{at: t, expiresAt: t.Add(ttl)}
	return true, nil
}

func (s *MemoryStore) Last(_ context.Context, key string) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || s.now().After(e.expiresAt) {
		return time.Time{}, false, nil
	}
	return e.at, true, nil
}

// prune removes expired entries. Caller holds the lock.
func (s *MemoryStore) prune() {
	now := s.now()
	for key, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, key)
		}
	}
}

// Len reports the current number of entries (expired ones included until
// the next prune).
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
